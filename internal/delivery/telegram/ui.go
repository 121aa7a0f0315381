package telegram

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/okuznetsov/wine-quiz-bot/internal/config"
)

// buildCountryKeyboard builds the country selection keyboard.
func buildCountryKeyboard(countries []config.Country) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	for _, country := range countries {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(country.Name, buildCountryCallback(country.Code)),
		))
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🎲 Случайно по всем странам", buildRegionCallback(scopeAll, scopeAll)),
	))

	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// buildRegionKeyboard builds the region selection keyboard for a country.
// regionCounts holds the number of available questions per region code.
func buildRegionKeyboard(country *config.Country, regionCounts map[string]int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	for _, region := range country.Regions {
		count, ok := regionCounts[region.Code]
		if !ok || count == 0 {
			continue
		}
		label := fmt.Sprintf("%s (%d)", region.Name, count)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, buildRegionCallback(country.Code, region.Code)),
		))
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🎲 Случайно по всей стране", buildRegionCallback(country.Code, scopeAll)),
	))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", actionMenu),
	))

	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// buildCountKeyboard builds the question count selection keyboard.
func buildCountKeyboard(country, region string, counts []int) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, count := range counts {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			strconv.Itoa(count), buildStartCallback(country, region, count),
		))
	}

	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{
		row,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", actionMenu),
		),
	}}
}

// buildAnswerKeyboard builds the option keyboard for the question at index.
func buildAnswerKeyboard(index int, keys []string) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, key := range keys {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(key, buildAnswerCallback(index, key)))
	}

	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{
		row,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏹ Остановить", actionStop),
		),
	}}
}

// buildResultKeyboard builds the keyboard shown with the final tally.
func buildResultKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📖 Пояснения", buildExplanationCallback(0)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Новая викторина", actionMenu),
		),
	)
}

// buildExplanationKeyboard builds the navigation keyboard for the
// explanation browser.
func buildExplanationKeyboard(index, total int) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	if index > 0 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("◀️", buildExplanationCallback(index-1)))
	}
	row = append(row, tgbotapi.NewInlineKeyboardButtonData(
		fmt.Sprintf("%d/%d", index+1, total), buildAllExplanationsCallback(),
	))
	if index < total-1 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("▶️", buildExplanationCallback(index+1)))
	}

	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{
		row,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏠 В меню", actionMenu),
		),
	}}
}

// buildBackToMenuKeyboard builds a single "back to menu" button.
func buildBackToMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏠 В меню", actionMenu),
		),
	)
}

// buildAdminKeyboard builds the admin panel keyboard.
func buildAdminKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Статистика", buildAdminCallback(adminStats)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📄 Экспорт CSV", buildAdminCallback(adminExport)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏱ Время на вопрос", buildAdminCallback(adminTime)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Перезагрузить вопросы", buildAdminCallback(adminReload)),
		),
	)
}

// buildTimeKeyboard builds the per-question time limit keyboard.
func buildTimeKeyboard() tgbotapi.InlineKeyboardMarkup {
	seconds := []int{5, 10, 15, 20, 30}

	var row []tgbotapi.InlineKeyboardButton
	for _, s := range seconds {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%dс", s), buildAdminCallback(adminTime, strconv.Itoa(s)),
		))
	}

	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{
		row,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", buildAdminCallback(adminMenu)),
		),
	}}
}
