package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Slastukhin/eco-friendly-bot/internal/domain"
)

// sendAwardsReport exports all of the chat's awards as an xlsx document.
func (r *Router) sendAwardsReport(ctx context.Context, chatID int64) {
	awards, err := r.repo.ListAwards(ctx, chatID, 0)
	if err != nil {
		r.log.Error("list awards failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, genericErrorText)
		return
	}
	if len(awards) == 0 {
		r.sendText(chatID, "У вас пока нет наград для выгрузки.")
		return
	}

	data, err := buildAwardsWorkbook(awards)
	if err != nil {
		r.log.Error("build awards workbook failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Произошла ошибка при создании файла. Пожалуйста, попробуйте позже.")
		return
	}
	r.sendDocument(chatID, "awards.xlsx", "📊 Ваши награды", data)
}

// sendUtilizationsReport exports the chat's full utilization history as xlsx.
func (r *Router) sendUtilizationsReport(ctx context.Context, chatID int64) {
	records, err := r.repo.ListUtilizations(ctx, chatID, 0)
	if err != nil {
		r.log.Error("list utilizations failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, genericErrorText)
		return
	}
	if len(records) == 0 {
		r.sendText(chatID, "У вас нет записей об утилизации.")
		return
	}

	data, err := buildUtilizationsWorkbook(records)
	if err != nil {
		r.log.Error("build utilizations workbook failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Произошла ошибка при создании отчета.")
		return
	}
	r.sendDocument(chatID, "utilizations.xlsx", "📊 Отчет по всем вашим утилизациям", data)
}

func (r *Router) sendDocument(chatID int64, name, caption string, data []byte) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	if _, err := r.bot.Send(doc); err != nil {
		r.log.Error("send document failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, genericErrorText)
	}
}

func buildAwardsWorkbook(awards []domain.Award) ([]byte, error) {
	const sheet = "Награды"
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	headers := []any{"№", "Награда", "Описание", "Дата получения"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(sheet, "B", "B", 30)
	_ = f.SetColWidth(sheet, "C", "C", 40)
	_ = f.SetColWidth(sheet, "D", "D", 20)
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, "A1", "D1", style)
	}

	for i, a := range awards {
		row := []any{i + 1, a.Name, a.Description, a.AwardedAt.Format("02.01.2006")}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildUtilizationsWorkbook(records []domain.UtilizationRecord) ([]byte, error) {
	const sheet = "Утилизации"
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	headers := []any{"Дата", "Время", "Город", "Адрес", "Тип отходов", "Вес (кг)"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(sheet, "C", "C", 20)
	_ = f.SetColWidth(sheet, "D", "D", 30)
	_ = f.SetColWidth(sheet, "E", "E", 20)
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, "A1", "F1", style)
	}

	for i, rec := range records {
		row := []any{rec.DateUtilized, shortTime(rec.TimeUtilized), rec.City, rec.Address, rec.WasteType, rec.Weight}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
