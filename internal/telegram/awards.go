package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// showAwards lists the chat's five most recent awards with the total count.
func (r *Router) showAwards(ctx context.Context, chatID int64) {
	total, err := r.repo.CountAwards(ctx, chatID)
	if err != nil {
		r.log.Error("count awards failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, genericErrorText)
		return
	}
	if total == 0 {
		r.sendText(chatID, "У вас пока нет наград. Сдавайте отходы на переработку, чтобы получать награды! 🌱")
		return
	}

	awards, err := r.repo.ListAwards(ctx, chatID, 5)
	if err != nil {
		r.log.Error("list awards failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, genericErrorText)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏆 Ваши награды (всего %d):\n\n", total)
	for i, a := range awards {
		fmt.Fprintf(&b, "%d. %s\n   %s\n   Получена: %s\n\n",
			i+1, a.Name, a.Description, a.AwardedAt.Format("02.01.2006"))
	}

	r.sendWithMarkup(chatID, strings.TrimRight(b.String(), "\n"),
		tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📥 Выгрузить все награды", "download_awards"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("« Назад в профиль", "back_to_profile"),
			),
		))
}

// showUtilizations lists the chat's five most recent utilizations and offers
// a full export when there are more.
func (r *Router) showUtilizations(ctx context.Context, chatID int64) {
	// One extra row tells us whether a "view all" export is worth offering.
	records, err := r.repo.ListUtilizations(ctx, chatID, 6)
	if err != nil {
		r.log.Error("list utilizations failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Произошла ошибка при получении данных об утилизациях.")
		return
	}
	if len(records) == 0 {
		r.sendText(chatID, "У вас пока нет записей об утилизации.")
		return
	}

	show := records
	if len(show) > 5 {
		show = show[:5]
	}

	var b strings.Builder
	b.WriteString("🗂 Ваши последние утилизации:\n\n")
	for _, rec := range show {
		fmt.Fprintf(&b, "📅 %s %s\n📍 %s, %s\n🗑 %s\n⚖️ %g кг\n\n",
			rec.DateUtilized, shortTime(rec.TimeUtilized), rec.City, rec.Address, rec.WasteType, rec.Weight)
	}

	if len(records) > 5 {
		r.sendWithMarkup(chatID, b.String(), tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Смотреть всё", "download_utilizations"),
			),
		))
		return
	}
	r.sendText(chatID, b.String())
}

// shortTime trims HH:MM:SS to HH:MM.
func shortTime(t string) string {
	if len(t) >= 5 {
		return t[:5]
	}
	return t
}
