package telegram

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Slastukhin/eco-friendly-bot/internal/domain"
	"github.com/Slastukhin/eco-friendly-bot/internal/store"
)

// isRegistered resolves the chat's user row; a nil user with a nil error
// means the chat is simply not registered yet.
func (r *Router) isRegistered(ctx context.Context, chatID int64) (*domain.User, error) {
	u, err := r.repo.GetUserByChatID(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// handleStart greets a new chat with the registration button, or reports
// that the chat is already registered.
func (r *Router) handleStart(ctx context.Context, chatID int64) {
	u, err := r.isRegistered(ctx, chatID)
	if err != nil {
		r.log.Error("registration check failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, genericErrorText)
		return
	}
	if u != nil {
		r.sendText(chatID, alreadyRegisteredText)
		return
	}

	msgID := r.sendWithMarkup(chatID, welcomeText, registerKeyboard())
	r.sessions.Put(chatID, Session{LastMsgID: msgID})
}

// handleRegisterButton enters the registration flow. Only reachable while no
// user row exists for the chat; it fully resets any prior session state.
func (r *Router) handleRegisterButton(ctx context.Context, chatID int64) {
	u, err := r.isRegistered(ctx, chatID)
	if err != nil {
		r.log.Error("registration check failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, genericErrorText)
		return
	}
	if u != nil {
		r.sendText(chatID, alreadyRegisteredText)
		return
	}

	prev, _ := r.sessions.Get(chatID)
	r.deleteMessage(chatID, prev.LastMsgID)

	sess := Session{Flow: FlowRegistration, Step: stepFIO}
	sess.LastMsgID = r.sendText(chatID, askFIOText)
	r.sessions.Put(chatID, sess)
}

// handleRegistrationInput advances the fio → age → location → photo flow.
// The user's own message is removed to keep the chat clean during
// onboarding; a rejected input re-issues the same prompt without advancing.
func (r *Router) handleRegistrationInput(ctx context.Context, msg *tgbotapi.Message, sess Session) {
	chatID := msg.Chat.ID
	r.deleteMessage(chatID, msg.MessageID)

	switch sess.Step {
	case stepFIO:
		fio, err := domain.ValidateFIO(msg.Text)
		if err != nil {
			r.replacePrompt(chatID, sess, badFIOText)
			return
		}
		sess.FIO = fio
		sess.Step = stepAge
		r.replacePrompt(chatID, sess, askAgeText)

	case stepAge:
		age, err := domain.ParseAge(msg.Text)
		if err != nil {
			r.replacePrompt(chatID, sess, badAgeText)
			return
		}
		sess.Age = age
		sess.Step = stepLocation
		r.replacePrompt(chatID, sess, askLocationText)

	case stepLocation:
		sess.Location = msg.Text
		sess.Step = stepPhoto
		r.replacePrompt(chatID, sess, askPhotoText)

	case stepPhoto:
		if len(msg.Photo) == 0 {
			r.replacePrompt(chatID, sess, askPhotoText)
			return
		}
		// The last size is the largest one Telegram offers.
		photoID := msg.Photo[len(msg.Photo)-1].FileID

		user := &domain.User{
			ChatID:    chatID,
			FIO:       sess.FIO,
			Age:       sess.Age,
			Location:  sess.Location,
			PhotoID:   photoID,
			CreatedAt: time.Now().UTC(),
		}
		if err := r.repo.CreateUser(ctx, user); err != nil {
			r.log.Error("create user failed", zap.Error(err), zap.Int64("chatID", chatID))
			r.replacePrompt(chatID, sess, registerFailed)
			return
		}

		r.deleteMessage(chatID, sess.LastMsgID)
		r.sessions.Clear(chatID)
		r.sendText(chatID, registeredText)
		r.log.Info("user registered", zap.Int64("chatID", chatID))
	}
}
