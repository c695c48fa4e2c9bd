package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Slastukhin/eco-friendly-bot/internal/ledger"
)

// handleShopCommand shows the sticker-pack catalog with the user's balance.
// Opening the shop refreshes the cached point balance from the award count.
func (r *Router) handleShopCommand(ctx context.Context, chatID int64) {
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

	points, err := r.ledger.RefreshPoints(ctx, chatID)
	if err != nil {
		r.log.Error("refresh points failed", zap.Error(err), zap.Int64("chatID", chatID))
		points = u.Points
	}

	packs, err := r.repo.ListStickerPacks(ctx, u.ID)
	if err != nil {
		r.log.Error("list sticker packs failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Произошла ошибка при загрузке магазина. Пожалуйста, попробуйте позже.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎨 Магазин стикеров\n\nУ вас %d🏆 наград\n\nДоступные стикерпаки:\n\n", points)

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, p := range packs {
		fmt.Fprintf(&b, "%s\n%s\nЦена: %d🏆\n", p.Name, p.Description, p.Price)
		if p.Purchased {
			b.WriteString("✅ Уже приобретен\n")
		}
		b.WriteString("\n")

		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("👁 Посмотреть стикеры", fmt.Sprintf("preview:%d", p.ID)),
		}
		if !p.Purchased {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("Купить (%d🏆)", p.Price), fmt.Sprintf("buy:%d", p.ID)))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Назад в профиль", "back_to_profile"),
	))

	r.sendWithMarkup(chatID, b.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// showPackPreview sends the pack description with its link and, when
// available, the preview sticker itself.
func (r *Router) showPackPreview(ctx context.Context, chatID int64, packID int64) {
	pack, err := r.repo.GetStickerPack(ctx, packID)
	if err != nil {
		r.sendText(chatID, "Стикерпак не найден.")
		return
	}

	r.sendWithMarkup(chatID, fmt.Sprintf(
		"🎨 Предпросмотр стикерпака \"%s\"\n\n%s\n\nСтоимость: %d🏆\n\n"+
			"Нажмите на ссылку, чтобы посмотреть стикеры:\n%s",
		pack.Name, pack.Description, pack.Price, pack.PackURL),
		tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Купить стикерпак", fmt.Sprintf("buy:%d", pack.ID)),
				tgbotapi.NewInlineKeyboardButtonData("« Назад в магазин", "shop"),
			),
		))

	if pack.PreviewStickerID != "" {
		sticker := tgbotapi.NewSticker(chatID, tgbotapi.FileID(pack.PreviewStickerID))
		if _, err := r.bot.Send(sticker); err != nil {
			r.log.Warn("send preview sticker failed", zap.Error(err), zap.Int64("chatID", chatID))
		}
	}
}

// handleBuyPack spends awards on a pack. Every violation maps to its own
// user-facing message; only unexpected failures get the generic one.
func (r *Router) handleBuyPack(ctx context.Context, chatID int64, packID int64) {
	pack, remaining, err := r.ledger.Spend(ctx, chatID, packID)
	switch {
	case err == nil:
		r.sendWithMarkup(chatID, fmt.Sprintf(
			"✅ Поздравляем с покупкой стикерпака \"%s\"!\n\n"+
				"Чтобы добавить стикеры, перейдите по ссылке:\n%s\n\n"+
				"Оставшиеся награды: %d🏆",
			pack.Name, pack.PackURL, remaining),
			tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("« Назад в магазин", "shop"),
				),
			))

	case errors.Is(err, ledger.ErrNotRegistered):
		r.sendWithMarkup(chatID, needRegistrationText, registerKeyboard())

	case errors.Is(err, ledger.ErrPackNotFound):
		r.sendText(chatID, "Стикерпак не найден.")

	case errors.Is(err, ledger.ErrAlreadyPurchased):
		r.sendText(chatID, "Вы уже приобрели этот стикерпак.")

	case errors.Is(err, ledger.ErrInsufficientAwards):
		r.sendText(chatID, "У вас недостаточно наград для покупки.")

	default:
		r.log.Error("purchase failed", zap.Error(err),
			zap.Int64("chatID", chatID), zap.Int64("packID", packID))
		r.sendText(chatID, "Произошла ошибка при покупке. Пожалуйста, попробуйте позже.")
	}
}
