package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Slastukhin/eco-friendly-bot/internal/domain"
	"github.com/Slastukhin/eco-friendly-bot/internal/store"
)

// handleUtilizationCommand enters the utilization flow:
// select_city → select_point → select_type → enter_weight.
func (r *Router) handleUtilizationCommand(ctx context.Context, chatID int64) {
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

	r.sendText(chatID, utilizationIntroText)
	r.sessions.Put(chatID, Session{Flow: FlowUtilization})
	r.showCities(ctx, chatID, 0)
}

// showCities presents the reference cities. When messageID is non-zero the
// existing selector message is edited in place.
func (r *Router) showCities(ctx context.Context, chatID int64, messageID int) {
	cities, err := r.repo.ListCities(ctx)
	if err != nil || len(cities) == 0 {
		r.log.Error("list cities failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, genericErrorText)
		return
	}

	if messageID != 0 {
		r.editWithMarkup(chatID, messageID, "Выберите город:", citiesKeyboard(cities))
		return
	}
	r.sendWithMarkup(chatID, "Выберите город:", citiesKeyboard(cities))
}

// handleCitySelection filters collection points to the chosen city.
func (r *Router) handleCitySelection(ctx context.Context, chatID int64, messageID int, cityID int64) {
	sess, ok := r.sessions.Get(chatID)
	if !ok || sess.Flow != FlowUtilization {
		r.sendText(chatID, staleFlowText)
		return
	}

	points, err := r.repo.ListCollectionPoints(ctx, cityID)
	if err != nil || len(points) == 0 {
		r.log.Error("list collection points failed", zap.Error(err),
			zap.Int64("chatID", chatID), zap.Int64("cityID", cityID))
		r.sendText(chatID, genericErrorText)
		return
	}

	sess.CityID = cityID
	sess.PointID = 0
	sess.WasteType = nil
	sess.Step = ""
	r.sessions.Put(chatID, sess)

	r.editWithMarkup(chatID, messageID, "Выберите пункт приема:", pointsKeyboard(points))
}

// handlePointSelection stores the chosen point and asks for the material.
func (r *Router) handlePointSelection(ctx context.Context, chatID int64, messageID int, pointID int64) {
	sess, ok := r.sessions.Get(chatID)
	if !ok || sess.Flow != FlowUtilization {
		r.sendText(chatID, staleFlowText)
		return
	}

	if _, err := r.repo.GetCollectionPoint(ctx, pointID); err != nil {
		r.log.Error("collection point lookup failed", zap.Error(err),
			zap.Int64("chatID", chatID), zap.Int64("pointID", pointID))
		r.sendText(chatID, genericErrorText)
		return
	}

	sess.PointID = pointID
	sess.WasteType = nil
	sess.Step = ""
	r.sessions.Put(chatID, sess)

	r.editWithMarkup(chatID, messageID, "Выберите тип отходов:", wasteTypesKeyboard())
}

// handleTypeSelection resolves the material key against the reference data
// and advances to the weight step.
func (r *Router) handleTypeSelection(ctx context.Context, chatID int64, messageID int, typeKey string) {
	sess, ok := r.sessions.Get(chatID)
	if !ok || sess.Flow != FlowUtilization || sess.PointID == 0 {
		r.sendText(chatID, staleFlowText)
		r.sessions.Clear(chatID)
		return
	}

	name, ok := wasteTypeNames[typeKey]
	if !ok {
		r.sendText(chatID, staleFlowText)
		return
	}
	wt, err := r.repo.GetWasteTypeByName(ctx, name)
	if err != nil {
		r.log.Error("waste type lookup failed", zap.Error(err),
			zap.Int64("chatID", chatID), zap.String("type", name))
		r.sendText(chatID, genericErrorText)
		return
	}

	sess.WasteType = wt
	sess.Step = stepWeight
	r.sessions.Put(chatID, sess)

	edit := tgbotapi.NewEditMessageText(chatID, messageID, askWeightText)
	if _, err := r.bot.Send(edit); err != nil {
		r.log.Warn("edit message failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, askWeightText)
	}
}

func (r *Router) handleBackToCities(ctx context.Context, chatID int64, messageID int) {
	sess, ok := r.sessions.Get(chatID)
	if ok && sess.Flow == FlowUtilization {
		sess.CityID = 0
		sess.PointID = 0
		sess.WasteType = nil
		sess.Step = ""
		r.sessions.Put(chatID, sess)
	}
	r.showCities(ctx, chatID, messageID)
}

func (r *Router) handleBackToPoints(ctx context.Context, chatID int64, messageID int) {
	sess, ok := r.sessions.Get(chatID)
	if !ok || sess.Flow != FlowUtilization || sess.CityID == 0 {
		r.sendText(chatID, staleFlowText)
		return
	}
	r.handleCitySelection(ctx, chatID, messageID, sess.CityID)
}

// handleWeightInput completes the flow: parses the weight, records the event
// through the ledger, evaluates milestones and reports the new award total.
// Missing prerequisites (stale state after a restart) abort with a
// restart hint instead of attempting a write with dangling references.
func (r *Router) handleWeightInput(ctx context.Context, msg *tgbotapi.Message, sess Session) {
	chatID := msg.Chat.ID

	weight, err := domain.ParseWeight(msg.Text)
	if err != nil {
		r.sendText(chatID, badWeightText)
		return
	}

	if sess.PointID == 0 || sess.WasteType == nil {
		r.sessions.Clear(chatID)
		r.sendText(chatID, staleFlowText)
		return
	}

	user, err := r.repo.GetUserByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r.sessions.Clear(chatID)
			r.sendWithMarkup(chatID, needRegistrationText, registerKeyboard())
			return
		}
		r.log.Error("user lookup failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, genericErrorText)
		return
	}

	count, err := r.ledger.RecordUtilization(ctx, user, sess.PointID, sess.WasteType, weight)
	if err != nil {
		r.log.Error("record utilization failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Произошла ошибка при записи утилизации. Пожалуйста, попробуйте позже.")
		return
	}

	r.sessions.Clear(chatID)
	r.sendText(chatID, fmt.Sprintf(
		"✅ Отлично! Утилизация записана:\n"+
			"Тип отходов: %s\n"+
			"Вес: %g кг\n\n"+
			"У вас %d🏆 наград\n\n"+
			"Спасибо за вклад в защиту экологии! 🌍",
		sess.WasteType.Name, weight, count))

	granted, err := r.ledger.EvaluateMilestones(ctx, user)
	if err != nil {
		r.log.Error("milestone evaluation failed", zap.Error(err), zap.Int64("chatID", chatID))
		return
	}
	for _, a := range granted {
		r.sendWithMarkup(chatID,
			fmt.Sprintf("🎉 Поздравляем! Вы получили новую награду:\n\n%s\n%s", a.Name, a.Description),
			tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("🏆 Посмотреть все награды", "my_awards"),
				),
			))
	}
}
