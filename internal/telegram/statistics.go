package telegram

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Slastukhin/eco-friendly-bot/internal/domain"
)

const noStatsText = "У вас пока нет утилизаций для построения статистики."

// handleStatisticsCommand opens the personal statistics menu.
func (r *Router) handleStatisticsCommand(ctx context.Context, chatID int64) {
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
	r.sendWithMarkup(chatID, "📈 Выберите тип статистики для просмотра:", statisticsMenuKeyboard())
}

func (r *Router) showCityStats(ctx context.Context, chatID int64) {
	rows, err := r.repo.StatsByCity(ctx, chatID)
	r.sendStats(chatID, "📊 Статистика утилизаций по городам", rows, err)
}

func (r *Router) showPointStats(ctx context.Context, chatID int64) {
	rows, err := r.repo.StatsByPoint(ctx, chatID, 10)
	r.sendStats(chatID, "📍 Топ-10 пунктов приёма", rows, err)
}

func (r *Router) showMaterialStats(ctx context.Context, chatID int64) {
	rows, err := r.repo.StatsByMaterial(ctx, chatID)
	r.sendStats(chatID, "🗑️ Статистика по типам материалов", rows, err)
}

func (r *Router) sendStats(chatID int64, title string, rows []domain.StatRow, err error) {
	if err != nil {
		r.log.Error("statistics query failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, genericErrorText)
		return
	}
	if len(rows) == 0 {
		r.sendText(chatID, noStatsText)
		return
	}

	var b strings.Builder
	b.WriteString(title + "\n\n")
	for i, row := range rows {
		fmt.Fprintf(&b, "%d. %s — %d\n", i+1, row.Label, row.Count)
	}
	r.sendWithMarkup(chatID, b.String(), backToProfileKeyboard())
}
