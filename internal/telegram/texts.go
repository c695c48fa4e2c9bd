package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Slastukhin/eco-friendly-bot/internal/domain"
)

const (
	welcomeText = "Добро пожаловать в бота экологического мониторинга! 🌱\n\n" +
		"Я помогу вам:\n" +
		"- Отслеживать вашу экологическую активность\n" +
		"- Записывать утилизацию отходов\n" +
		"- Просматривать статистику\n\n" +
		"Для начала работы, пожалуйста, зарегистрируйтесь."

	alreadyRegisteredText = "Вы уже зарегистрированы. Используйте меню слева для доступа к функциям бота."
	needRegistrationText  = "Для доступа к этой функции необходимо зарегистрироваться."

	askFIOText      = "Введите ФИО (только русские буквы):"
	badFIOText      = "Пожалуйста, введите ФИО только русскими буквами:"
	askAgeText      = "Введите ваш возраст (от 1 до 100):"
	badAgeText      = "Пожалуйста, введите корректный возраст (от 1 до 100):"
	askLocationText = "Введите ваше местоположение:"
	askPhotoText    = "Пожалуйста, отправьте вашу фотографию:"

	registeredText = "Ваш профиль успешно зарегистрирован! Используйте меню слева (☰) для доступа к функциям бота."
	registerFailed = "Произошла ошибка при регистрации. Пожалуйста, попробуйте еще раз, написав команду /start"

	utilizationIntroText = "Спасибо, что вы заботитесь об экологии! 🌱\n\n" +
		"Ваш вклад в раздельный сбор мусора помогает сохранить нашу планету чистой для будущих поколений.\n\n" +
		"Давайте запишем информацию о вашей утилизации:"

	askWeightText     = "Введите вес отходов в килограммах (например: 1.5):"
	badWeightText     = "Пожалуйста, введите корректное число для веса (например: 1.5)"
	staleFlowText     = "Данные утилизации устарели. Пожалуйста, начните заново командой /utilization"
	genericErrorText  = "Произошла ошибка. Пожалуйста, попробуйте позже."
	profileUpdatedTxt = "Данные успешно обновлены!"
)

// Per-field edit prompts; validation failures reuse the registration texts.
var editPrompts = map[domain.ProfileField]string{
	domain.FieldFIO:      "Введите новое ФИО (только русские буквы):",
	domain.FieldAge:      "Введите новый возраст (от 1 до 100):",
	domain.FieldLocation: "Введите новое местоположение:",
	domain.FieldPhoto:    "Отправьте новую фотографию:",
}

func registerKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Регистрация", "register"),
		),
	)
}

func profileMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Мой профиль", "my_profile"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Редактировать профиль", "edit_profile"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Мои награды", "my_awards"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Мои утилизации", "my_utilizations"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Моя статистика", "my_statistics"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎨 Магазин стикеров", "shop"),
		),
	)
}

func editMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Изменить ФИО", "edit_fio"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Изменить возраст", "edit_age"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Изменить местоположение", "edit_location"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Изменить фото", "edit_photo"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« Назад", "back_to_profile"),
		),
	)
}

// citiesKeyboard lays the reference cities out three per row.
func citiesKeyboard(cities []domain.City) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(cities); i += 3 {
		var row []tgbotapi.InlineKeyboardButton
		for j := i; j < i+3 && j < len(cities); j++ {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(
				cities[j].Name, fmt.Sprintf("city:%d", cities[j].ID)))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// pointsKeyboard lays collection points out two per row, plus a back button.
func pointsKeyboard(points []domain.CollectionPoint) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(points); i += 2 {
		var row []tgbotapi.InlineKeyboardButton
		for j := i; j < i+2 && j < len(points); j++ {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(
				points[j].Address, fmt.Sprintf("point:%d", points[j].ID)))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Назад к городам", "back_to_cities"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// wasteTypeNames maps callback keys to the seeded waste_types rows.
var wasteTypeNames = map[string]string{
	"plastic":   "Пластик (PET)",
	"paper":     "Бумага",
	"glass":     "Стекло",
	"metal":     "Металл (алюминий)",
	"batteries": "Батарейки",
}

func wasteTypesKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Пластик", "type:plastic"),
			tgbotapi.NewInlineKeyboardButtonData("Бумага", "type:paper"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Стекло", "type:glass"),
			tgbotapi.NewInlineKeyboardButtonData("Металл", "type:metal"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Батарейки", "type:batteries"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« Назад к пунктам", "back_to_points"),
		),
	)
}

func statisticsMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Статистика по городам", "stats_cities"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📍 Статистика по пунктам приёма", "stats_points"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑️ Статистика по материалам", "stats_materials"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« Назад в профиль", "back_to_profile"),
		),
	)
}

func backToProfileKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« Назад в профиль", "back_to_profile"),
		),
	)
}

func formatProfile(u *domain.User) string {
	return fmt.Sprintf("📋 Ваш профиль:\n\n"+
		"👤 ФИО: %s\n"+
		"🎂 Возраст: %d лет\n"+
		"📍 Местоположение: %s\n",
		u.FIO, u.Age, u.Location)
}
