package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
	"github.com/tanpawarit/autocheck-bot/bot/format"
)

// Markup renders a keyboard descriptor. It returns nil for KeyboardNone so
// the client keeps whatever keyboard it already shows.
func Markup(k contractx.Keyboard) any {
	switch k {
	case contractx.KeyboardMain:
		return tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(contractx.ButtonPlate),
				tgbotapi.NewKeyboardButton(contractx.ButtonVIN),
			),
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(contractx.ButtonAbout),
			),
		)
	case contractx.KeyboardBack:
		return tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(contractx.ButtonBack),
			),
		)
	case contractx.KeyboardReports:
		return reportsMarkup()
	default:
		return nil
	}
}

func reportsMarkup() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, report := range contractx.ReportKinds {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(format.ReportLabel(report), contractx.ReportAction(report)))
		if len(row) == 2 {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(contractx.ButtonBack, contractx.ActionBack),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
