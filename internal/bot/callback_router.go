package bot

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/remindee/internal/controller"
	"github.com/hray3182/remindee/internal/format"
)

// handleCallbackQuery routes one inline-button press through the
// namespaced callback protocol spec §6 defines. Every branch answers the
// callback first to clear Telegram's loading spinner, mirroring the
// teacher's handlers.HandleCallbackQuery.
func (b *Bot) handleCallbackQuery(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	b.debug("callback received", "data", cb.Data, "user_id", cb.From.ID)
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("bot: answer callback: %v", err)
	}
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	messageID := int64(cb.Message.MessageID)
	data := cb.Data

	switch {
	case IsDoneOccurrence(data):
		b.handleDone(ctx, cb, chatID, messageID, data)
	case IsSelectTimezone(data):
		b.handleTimezoneCallback(ctx, cb, chatID, messageID, data)
	case IsSetLanguage(data):
		b.handleSetLanguageCallback(ctx, cb, chatID, messageID, data)
	case IsSettings(data):
		b.handleSettingsCallback(ctx, cb, chatID, messageID, data)
	default:
		// Reminder-list paging/altering and edit-mode selection share no
		// common namespace prefix, so handleReminderListCallback tries
		// each family in turn.
		b.handleReminderListCallback(ctx, cb, chatID, messageID, data)
	}
}

func (b *Bot) handleDone(ctx context.Context, cb *tgbotapi.CallbackQuery, chatID, messageID int64, data string) {
	occID, ok := ParseDoneOccurrence(data)
	if !ok {
		return
	}
	if err := b.ctrl.Done(ctx, occID); err != nil {
		b.debug("done: controller error", "error", err)
		return
	}
	b.clearMarkup(chatID, messageID)
	msgs, err := b.ctrl.Messages.ForOccurrence(ctx, occID)
	if err != nil {
		log.Printf("bot: load messages for occurrence %d: %v", occID, err)
		return
	}
	for _, m := range msgs {
		if m.MessageID != messageID {
			b.clearMarkup(m.ChatID, m.MessageID)
		}
	}
	b.api.Request(tgbotapi.NewCallbackWithAlert(cb.ID, b.t(ctx, cb.From.ID, "done_ack")))
}

func (b *Bot) handleReminderListCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, chatID, messageID int64, data string) {
	for _, kind := range []ReminderListKind{ReminderListDelete, ReminderListEdit, ReminderListPause} {
		if page, ok := ParseReminderPage(kind, data); ok {
			text, markup, err := b.buildReminderPage(ctx, chatID, cb.From.ID, kind, page)
			if err != nil {
				log.Printf("bot: rebuild reminder page: %v", err)
				return
			}
			b.editMarkup(chatID, messageID, text, markup)
			return
		}
		for _, remType := range []string{"rem", "cron_rem"} {
			if id, ok := ParseReminderAlter(kind, remType, data); ok {
				b.applyReminderAction(ctx, cb, chatID, messageID, kind, id)
				return
			}
		}
	}
	if id, ok := ParseEditModeTimePattern(data); ok {
		b.ctrl.SetPendingEdit(cb.From.ID, id, controller.EditTargetTimePattern)
		b.editMarkup(chatID, messageID, format.EscapeMarkdownV2(b.t(ctx, cb.From.ID, "pending_edit_time")), tgbotapi.InlineKeyboardMarkup{})
		return
	}
	if id, ok := ParseEditModeDescription(data); ok {
		b.ctrl.SetPendingEdit(cb.From.ID, id, controller.EditTargetDescription)
		b.editMarkup(chatID, messageID, format.EscapeMarkdownV2(b.t(ctx, cb.From.ID, "pending_edit_description")), tgbotapi.InlineKeyboardMarkup{})
		return
	}
}

func (b *Bot) applyReminderAction(ctx context.Context, cb *tgbotapi.CallbackQuery, chatID, messageID int64, kind ReminderListKind, reminderID int64) {
	userID := cb.From.ID
	switch kind {
	case ReminderListDelete:
		if err := b.ctrl.Delete(ctx, reminderID); err != nil {
			b.debug("delete reminder", "error", err)
			return
		}
		b.editMarkup(chatID, messageID, format.EscapeMarkdownV2(b.t(ctx, userID, "reminder_deleted")), tgbotapi.InlineKeyboardMarkup{})
	case ReminderListPause:
		paused, err := b.ctrl.Pause(ctx, reminderID)
		if err != nil {
			b.debug("pause reminder", "error", err)
			return
		}
		key := "reminder_resumed"
		if paused {
			key = "reminder_paused"
		}
		b.editMarkup(chatID, messageID, format.EscapeMarkdownV2(b.t(ctx, userID, key)), tgbotapi.InlineKeyboardMarkup{})
	case ReminderListEdit:
		markup := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Time pattern", EditModeTimePattern(reminderID)),
				tgbotapi.NewInlineKeyboardButtonData("Description", EditModeDescription(reminderID)),
			),
		)
		b.editMarkup(chatID, messageID, format.EscapeMarkdownV2(b.t(ctx, userID, "settings_choose")), markup)
	}
}
