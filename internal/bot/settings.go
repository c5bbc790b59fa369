package bot

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/remindee/internal/format"
	"github.com/hray3182/remindee/internal/locale"
)

const timezonesPerPage = 8

// commonTimezones is a curated picker list; a user whose zone isn't
// listed can still set an approximate one by sharing a Telegram location
// (handleLocation, via internal/tzlookup's longitude buckets).
var commonTimezones = []string{
	"UTC", "Europe/London", "Europe/Paris", "Europe/Moscow", "Europe/Amsterdam",
	"America/New_York", "America/Chicago", "America/Denver", "America/Los_Angeles",
	"America/Sao_Paulo", "Asia/Dubai", "Asia/Karachi", "Asia/Dhaka", "Asia/Bangkok",
	"Asia/Shanghai", "Asia/Tokyo", "Australia/Sydney", "Pacific/Auckland",
}

func (b *Bot) sendSettingsMenu(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.t(ctx, userID, "settings_change_language"), SettingsChangeLanguage()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.t(ctx, userID, "settings_change_timezone"), SelectTimezonePage(0)),
		),
	)
	if _, err := b.sendMarkup(msg.Chat.ID, format.EscapeMarkdownV2(b.t(ctx, userID, "settings_choose")), markup); err != nil {
		log.Printf("bot: send settings menu: %v", err)
	}
}

func (b *Bot) handleSettingsCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, chatID, messageID int64, data string) {
	if IsSettingsChangeLanguage(data) {
		b.editMarkup(chatID, messageID, format.EscapeMarkdownV2(b.t(ctx, cb.From.ID, "settings_choose")), b.languageKeyboard())
		return
	}
}

func (b *Bot) languageKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, lang := range locale.All {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(lang.Name(), SetLanguage(string(lang))),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) handleSetLanguageCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, chatID, messageID int64, data string) {
	code, ok := ParseSetLanguage(data)
	if !ok {
		return
	}
	lang, ok := locale.FromCode(code)
	if !ok {
		return
	}
	if err := b.ctrl.Prefs.SetLanguage(ctx, cb.From.ID, code); err != nil {
		log.Printf("bot: set language for user %d: %v", cb.From.ID, err)
		return
	}
	b.editMarkup(chatID, messageID, format.EscapeMarkdownV2(locale.T("language_set", lang, "language", lang.Name())), tgbotapi.InlineKeyboardMarkup{})
}

func (b *Bot) sendTimezonePage(ctx context.Context, chatID, userID int64, page int) {
	text, markup := b.buildTimezonePage(ctx, userID, page)
	if _, err := b.sendMarkup(chatID, text, markup); err != nil {
		log.Printf("bot: send timezone page: %v", err)
	}
}

func (b *Bot) buildTimezonePage(ctx context.Context, userID int64, page int) (string, tgbotapi.InlineKeyboardMarkup) {
	start := page * timezonesPerPage
	if start > len(commonTimezones) {
		start = len(commonTimezones)
	}
	end := start + timezonesPerPage
	if end > len(commonTimezones) {
		end = len(commonTimezones)
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, tz := range commonTimezones[start:end] {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(tz, SelectTimezoneTz(tz)),
		))
	}
	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅", SelectTimezonePage(page-1)))
	}
	if end < len(commonTimezones) {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("➡", SelectTimezonePage(page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return format.EscapeMarkdownV2(b.t(ctx, userID, "settings_change_timezone")), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) handleTimezoneCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, chatID, messageID int64, data string) {
	if page, ok := ParseSelectTimezonePage(data); ok {
		text, markup := b.buildTimezonePage(ctx, cb.From.ID, page)
		b.editMarkup(chatID, messageID, text, markup)
		return
	}
	if tzName, ok := ParseSelectTimezoneTz(data); ok {
		if err := b.ctrl.Prefs.SetTimezone(ctx, cb.From.ID, tzName); err != nil {
			log.Printf("bot: set timezone for user %d: %v", cb.From.ID, err)
			return
		}
		b.editMarkup(chatID, messageID, format.EscapeMarkdownV2(b.t(ctx, cb.From.ID, "timezone_set", "timezone", tzName)), tgbotapi.InlineKeyboardMarkup{})
		return
	}
}
