package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Slastukhin/eco-friendly-bot/internal/ledger"
	"github.com/Slastukhin/eco-friendly-bot/internal/store"
)

// BotAPI is the slice of the Telegram client the router uses. Satisfied by
// *tgbotapi.BotAPI; tests substitute a recording fake.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Router wires Telegram updates to flow handlers. It owns the per-chat
// session table: every inbound event is routed by the chat's active flow
// first, so concurrent flows cannot consume each other's input.
type Router struct {
	bot      BotAPI
	log      *zap.Logger
	repo     store.Repo
	ledger   *ledger.Ledger
	sessions *Sessions
}

// NewRouter creates a router over the given bot transport and repository.
func NewRouter(bot BotAPI, log *zap.Logger, repo store.Repo) *Router {
	return &Router{
		bot:      bot,
		log:      log,
		repo:     repo,
		ledger:   ledger.New(repo),
		sessions: NewSessions(),
	}
}

// HandleUpdate routes a single update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		msg := upd.Message
		chatID := msg.Chat.ID
		text := strings.TrimSpace(msg.Text)

		// Commands are explicit flow entry points: each one abandons
		// whatever flow was active before acting.
		if strings.HasPrefix(text, "/") {
			r.sessions.Clear(chatID)
			switch {
			case strings.HasPrefix(text, "/start"):
				r.handleStart(ctx, chatID)
			case strings.HasPrefix(text, "/profile"):
				r.handleProfileCommand(ctx, chatID)
			case strings.HasPrefix(text, "/utilization"):
				r.handleUtilizationCommand(ctx, chatID)
			case strings.HasPrefix(text, "/shop"):
				r.handleShopCommand(ctx, chatID)
			case strings.HasPrefix(text, "/statistics"):
				r.handleStatisticsCommand(ctx, chatID)
			default:
				// Unknown command — ignore silently.
			}
			return
		}

		r.handleFlowInput(ctx, msg)
		return
	}

	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		if cb.Message == nil {
			return
		}
		r.answerCallback(cb.ID)
		r.handleCallback(ctx, cb)
		return
	}
}

// handleFlowInput dispatches a non-command message by the chat's active flow.
// Input for a chat with no active flow is dropped.
func (r *Router) handleFlowInput(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	sess, ok := r.sessions.Get(chatID)
	if !ok {
		return
	}

	switch sess.Flow {
	case FlowRegistration:
		r.handleRegistrationInput(ctx, msg, sess)
	case FlowEdit:
		r.handleEditInput(ctx, msg, sess)
	case FlowUtilization:
		if sess.Step == stepWeight {
			r.handleWeightInput(ctx, msg, sess)
		}
	default:
	}
}

// handleCallback dispatches a button press by its "kind:argument" payload.
func (r *Router) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID
	data := cb.Data

	kind, arg := splitPayload(data)

	switch kind {
	case "register":
		r.handleRegisterButton(ctx, chatID)

	case "my_profile":
		r.showProfile(ctx, chatID)
	case "edit_profile":
		r.showEditMenu(chatID)
	case "edit_fio", "edit_age", "edit_location", "edit_photo":
		r.startFieldEdit(ctx, chatID, strings.TrimPrefix(kind, "edit_"))
	case "back_to_profile":
		r.sessions.Clear(chatID)
		r.showProfileMenu(chatID)

	case "city":
		r.handleCitySelection(ctx, chatID, msgID, parseID(arg))
	case "point":
		r.handlePointSelection(ctx, chatID, msgID, parseID(arg))
	case "type":
		r.handleTypeSelection(ctx, chatID, msgID, arg)
	case "back_to_cities":
		r.handleBackToCities(ctx, chatID, msgID)
	case "back_to_points":
		r.handleBackToPoints(ctx, chatID, msgID)

	case "my_awards":
		r.showAwards(ctx, chatID)
	case "download_awards":
		r.sendAwardsReport(ctx, chatID)
	case "my_utilizations":
		r.showUtilizations(ctx, chatID)
	case "download_utilizations":
		r.sendUtilizationsReport(ctx, chatID)

	case "shop":
		r.handleShopCommand(ctx, chatID)
	case "preview":
		r.showPackPreview(ctx, chatID, parseID(arg))
	case "buy":
		r.handleBuyPack(ctx, chatID, parseID(arg))

	case "my_statistics":
		r.handleStatisticsCommand(ctx, chatID)
	case "stats_cities":
		r.showCityStats(ctx, chatID)
	case "stats_points":
		r.showPointStats(ctx, chatID)
	case "stats_materials":
		r.showMaterialStats(ctx, chatID)

	default:
		// Unknown callback — ignore silently.
	}
}

// splitPayload splits "kind:argument" callback data; payloads without an
// argument return an empty arg.
func splitPayload(data string) (kind, arg string) {
	if i := strings.IndexByte(data, ':'); i >= 0 {
		return data[:i], data[i+1:]
	}
	return data, ""
}

func parseID(s string) int64 {
	id, _ := strconv.ParseInt(s, 10, 64)
	return id
}

// --- Transport helpers ---

// sendText sends a plain message and returns its id (0 on failure).
func (r *Router) sendText(chatID int64, text string) int {
	sent, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		r.log.Error("send message failed", zap.Error(err), zap.Int64("chatID", chatID))
		return 0
	}
	return sent.MessageID
}

// sendWithMarkup sends a message with an inline keyboard and returns its id.
func (r *Router) sendWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) int {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	sent, err := r.bot.Send(msg)
	if err != nil {
		r.log.Error("send message failed", zap.Error(err), zap.Int64("chatID", chatID))
		return 0
	}
	return sent.MessageID
}

// editWithMarkup replaces the text and keyboard of an existing message.
// Falls back to sending a new message if the original is gone.
func (r *Router) editWithMarkup(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	if _, err := r.bot.Send(edit); err != nil {
		r.log.Warn("edit message failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendWithMarkup(chatID, text, markup)
	}
}

// deleteMessage removes a message best-effort; a failure (already deleted,
// too old) is logged and never blocks the flow.
func (r *Router) deleteMessage(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if _, err := r.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		r.log.Warn("delete message failed", zap.Error(err), zap.Int64("chatID", chatID))
	}
}

func (r *Router) answerCallback(id string) {
	if _, err := r.bot.Request(tgbotapi.NewCallback(id, "")); err != nil {
		r.log.Warn("answer callback failed", zap.Error(err))
	}
}

// replacePrompt deletes the previous bot prompt of the session (if any),
// sends the new one and stores its id back into the session.
func (r *Router) replacePrompt(chatID int64, sess Session, text string) {
	r.deleteMessage(chatID, sess.LastMsgID)
	sess.LastMsgID = r.sendText(chatID, text)
	r.sessions.Put(chatID, sess)
}
