package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Slastukhin/eco-friendly-bot/internal/domain"
)

// handleProfileCommand opens the profile menu, or asks to register first.
func (r *Router) handleProfileCommand(ctx context.Context, chatID int64) {
	u, err := r.isRegistered(ctx, chatID)
	if err != nil {
		r.log.Error("registration check failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, genericErrorText)
		return
	}
	if u == nil {
		r.sendWithMarkup(chatID, needRegistrationText, registerKeyboard())
		return
	}
	r.showProfileMenu(chatID)
}

func (r *Router) showProfileMenu(chatID int64) {
	r.sendWithMarkup(chatID, "Выберите действие:", profileMenuKeyboard())
}

// showProfile sends the user's photo with the profile fields as a caption.
func (r *Router) showProfile(ctx context.Context, chatID int64) {
	u, err := r.isRegistered(ctx, chatID)
	if err != nil {
		r.log.Error("get profile failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, genericErrorText)
		return
	}
	if u == nil {
		r.sendWithMarkup(chatID, needRegistrationText, registerKeyboard())
		return
	}

	if u.PhotoID == "" {
		// Legacy rows migrated from the narrow schema have no photo yet.
		r.sendText(chatID, formatProfile(u))
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(u.PhotoID))
	photo.Caption = formatProfile(u)
	if _, err := r.bot.Send(photo); err != nil {
		r.log.Error("send profile photo failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, formatProfile(u))
	}
}

func (r *Router) showEditMenu(chatID int64) {
	r.sendWithMarkup(chatID, "Выберите, что хотите изменить:", editMenuKeyboard())
}

// startFieldEdit enters the single-field edit flow for the named field.
func (r *Router) startFieldEdit(ctx context.Context, chatID int64, fieldName string) {
	u, err := r.isRegistered(ctx, chatID)
	if err != nil {
		r.log.Error("registration check failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, genericErrorText)
		return
	}
	if u == nil {
		r.sendWithMarkup(chatID, needRegistrationText, registerKeyboard())
		return
	}

	var field domain.ProfileField
	switch fieldName {
	case "fio":
		field = domain.FieldFIO
	case "age":
		field = domain.FieldAge
	case "location":
		field = domain.FieldLocation
	case "photo":
		field = domain.FieldPhoto
	default:
		return
	}

	r.sessions.Put(chatID, Session{Flow: FlowEdit, EditField: field})
	r.sendText(chatID, editPrompts[field])
}

// handleEditInput validates and applies a single-field profile edit, then
// re-displays the profile. Unlike registration, the user's messages stay.
func (r *Router) handleEditInput(ctx context.Context, msg *tgbotapi.Message, sess Session) {
	chatID := msg.Chat.ID

	var err error
	switch sess.EditField {
	case domain.FieldFIO:
		fio, verr := domain.ValidateFIO(msg.Text)
		if verr != nil {
			r.sendText(chatID, badFIOText)
			return
		}
		err = r.repo.SetFIO(ctx, chatID, fio)

	case domain.FieldAge:
		age, verr := domain.ParseAge(msg.Text)
		if verr != nil {
			r.sendText(chatID, badAgeText)
			return
		}
		err = r.repo.SetAge(ctx, chatID, age)

	case domain.FieldLocation:
		err = r.repo.SetLocation(ctx, chatID, msg.Text)

	case domain.FieldPhoto:
		if len(msg.Photo) == 0 {
			r.sendText(chatID, askPhotoText)
			return
		}
		err = r.repo.SetPhotoID(ctx, chatID, msg.Photo[len(msg.Photo)-1].FileID)
	}

	if err != nil {
		r.log.Error("profile update failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, genericErrorText)
		return
	}

	r.sessions.Clear(chatID)
	r.sendText(chatID, profileUpdatedTxt)
	r.showProfile(ctx, chatID)
}
