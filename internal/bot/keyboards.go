// ABOUTME: Inline keyboards for the start menu, subscribe prompt, and channel posts.
// ABOUTME: Channel links open in the client; Get Code and Check Subscription are callbacks.
package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxCallbackData is the Bot API limit on callback_data, in bytes.
const maxCallbackData = 64

func (b *Bot) menuKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, ch := range b.channels {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(ch.Name, ch.URL()),
		))
	}
	if b.instagram != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("Instagram", b.instagram)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Get Code", CallbackGetCode)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) subscribeKeyboard(postID string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, ch := range b.channels {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Subscribe to "+ch.Name, ch.URL()),
		))
	}
	if b.instagram != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("Subscribe to Instagram", b.instagram)))
	}
	if data := CallbackCheckPrefix + postID; len(data) <= maxCallbackData {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Check Subscription", data),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func getCodeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Get Code", CallbackGetCode)),
	)
}
