package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/remindee/internal/format"
	"github.com/hray3182/remindee/internal/locale"
	"github.com/hray3182/remindee/internal/models"
	"github.com/hray3182/remindee/internal/tzlookup"
)

const remindersPerPage = 5

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "help":
		b.handleHelp(ctx, msg)
	case "list", "reminders":
		b.handleList(ctx, msg)
	case "delete":
		b.sendReminderPage(ctx, msg.Chat.ID, msg.From.ID, ReminderListDelete, 0)
	case "edit":
		b.sendReminderPage(ctx, msg.Chat.ID, msg.From.ID, ReminderListEdit, 0)
	case "pause":
		b.sendReminderPage(ctx, msg.Chat.ID, msg.From.ID, ReminderListPause, 0)
	case "timezone":
		b.sendTimezonePage(ctx, msg.Chat.ID, msg.From.ID, 0)
	case "settings":
		b.sendSettingsMenu(ctx, msg)
	default:
		b.sendMessage(msg.Chat.ID, format.EscapeMarkdownV2(b.t(ctx, msg.From.ID, "help")))
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	b.sendMessage(msg.Chat.ID, format.EscapeMarkdownV2(b.t(ctx, msg.From.ID, "start")))
}

func (b *Bot) handleHelp(ctx context.Context, msg *tgbotapi.Message) {
	b.sendMessage(msg.Chat.ID, format.EscapeMarkdownV2(b.t(ctx, msg.From.ID, "help")))
}

// handleText implements the §9(b) state machine: a plain-text message
// either completes a pending edit or is parsed as a brand new reminder.
// It also records the user's message (and the bot's reply) as a
// ReminderMessage link, so a later reply to either one resolves back to
// this reminder (spec §4.F edit-by-reply).
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	if msg.ReplyToMessage != nil {
		if rem, err := b.ctrl.EditByReply(ctx, msg.Chat.ID, int64(msg.ReplyToMessage.MessageID)); err == nil {
			updated, err := b.ctrl.EditDescription(ctx, rem.ID, strings.TrimSpace(msg.Text))
			if err != nil {
				b.reportErr(ctx, msg, err)
				return
			}
			b.replyEdited(ctx, msg, rem, updated)
			return
		}
	}

	rem, wasEdit, err := b.ctrl.HandleText(ctx, msg.Chat.ID, msg.From.ID, msg.Text)
	if err != nil {
		b.reportErr(ctx, msg, err)
		return
	}
	if wasEdit {
		b.replyEdited(ctx, msg, rem, rem)
		return
	}
	b.replySet(ctx, msg, rem)
}

func (b *Bot) replySet(ctx context.Context, msg *tgbotapi.Message, rem *models.Reminder) {
	text := b.t(ctx, msg.From.ID, "reminder_set", "time", b.displayTime(ctx, msg.From.ID, rem.Time), "description", rem.Description)
	replyID, err := b.sendMessage(msg.Chat.ID, format.EscapeMarkdownV2(text))
	if err != nil {
		log.Printf("bot: send set confirmation: %v", err)
		return
	}
	b.linkMessage(ctx, rem.ID, msg.Chat.ID, int64(msg.MessageID))
	b.linkMessage(ctx, rem.ID, msg.Chat.ID, replyID)
}

func (b *Bot) replyEdited(ctx context.Context, msg *tgbotapi.Message, before, after *models.Reminder) {
	text := b.t(ctx, msg.From.ID, "reminder_edited",
		"before", before.Description, "after", after.Description)
	if _, err := b.sendMessage(msg.Chat.ID, format.EscapeMarkdownV2(text)); err != nil {
		log.Printf("bot: send edit confirmation: %v", err)
	}
}

func (b *Bot) linkMessage(ctx context.Context, reminderID, chatID, messageID int64) {
	link := &models.ReminderMessage{ReminderID: reminderID, ChatID: chatID, MessageID: messageID}
	if err := b.ctrl.Messages.Create(ctx, link); err != nil {
		log.Printf("bot: link message %d to reminder %d: %v", messageID, reminderID, err)
	}
}

// handleLocation sets the sender's timezone from a shared location,
// exercising internal/tzlookup as the spec's geolocation collaborator.
func (b *Bot) handleLocation(ctx context.Context, msg *tgbotapi.Message) {
	tzName, err := tzlookup.Lookup(msg.Location.Longitude, msg.Location.Latitude)
	if err != nil {
		b.sendMessage(msg.Chat.ID, format.EscapeMarkdownV2(b.t(ctx, msg.From.ID, "parse_error", "error", err.Error())))
		return
	}
	if err := b.ctrl.Prefs.SetTimezone(ctx, msg.From.ID, tzName); err != nil {
		b.reportErr(ctx, msg, err)
		return
	}
	b.sendMessage(msg.Chat.ID, format.EscapeMarkdownV2(b.t(ctx, msg.From.ID, "timezone_set", "timezone", tzName)))
}

func (b *Bot) handleList(ctx context.Context, msg *tgbotapi.Message) {
	rems, err := b.ctrl.List(ctx, msg.Chat.ID)
	if err != nil {
		b.reportErr(ctx, msg, err)
		return
	}
	if len(rems) == 0 {
		b.sendMessage(msg.Chat.ID, format.EscapeMarkdownV2(b.t(ctx, msg.From.ID, "reminder_list_empty")))
		return
	}
	var sb strings.Builder
	for i, r := range rems {
		status := "⏰"
		if r.Paused {
			status = "⏸"
		}
		fmt.Fprintf(&sb, "%s %d\\. %s — %s\n", status, i+1,
			format.EscapeMarkdownV2(b.displayTime(ctx, msg.From.ID, r.Time)),
			format.EscapeMarkdownV2(r.Description))
	}
	b.sendMessage(msg.Chat.ID, sb.String())
}

// displayTime renders an instant in userID's chosen timezone, falling
// back to UTC.
func (b *Bot) displayTime(ctx context.Context, userID int64, t time.Time) string {
	tzName := "UTC"
	if tz, err := b.prefs.GetTimezone(ctx, userID); err == nil && tz != nil {
		tzName = tz.TZName
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

// sendReminderPage renders one page of a kind-specific reminder picker
// (delete/edit/pause), each row carrying that kind's alter callback.
func (b *Bot) sendReminderPage(ctx context.Context, chatID, userID int64, kind ReminderListKind, page int) {
	text, markup, err := b.buildReminderPage(ctx, chatID, userID, kind, page)
	if err != nil {
		log.Printf("bot: build reminder page: %v", err)
		return
	}
	if _, err := b.sendMarkup(chatID, text, markup); err != nil {
		log.Printf("bot: send reminder page: %v", err)
	}
}

func (b *Bot) buildReminderPage(ctx context.Context, chatID, userID int64, kind ReminderListKind, page int) (string, tgbotapi.InlineKeyboardMarkup, error) {
	rems, err := b.ctrl.List(ctx, chatID)
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, err
	}
	start := page * remindersPerPage
	if start > len(rems) {
		start = len(rems)
	}
	end := start + remindersPerPage
	if end > len(rems) {
		end = len(rems)
	}
	pageItems := rems[start:end]

	if len(pageItems) == 0 {
		return format.EscapeMarkdownV2(locale.T("reminder_list_empty", b.langFor(ctx, userID))), tgbotapi.InlineKeyboardMarkup{}, nil
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, r := range pageItems {
		label := fmt.Sprintf("%s %s", b.displayTime(ctx, userID, r.Time), r.Description)
		if len(label) > 48 {
			label = label[:45] + "..."
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, ReminderAlter(kind, "rem", r.ID)),
		))
	}
	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅", ReminderPage(kind, page-1)))
	}
	if end < len(rems) {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("➡", ReminderPage(kind, page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	text := format.EscapeMarkdownV2(fmt.Sprintf("%d-%d / %d", start+1, end, len(rems)))
	return text, tgbotapi.NewInlineKeyboardMarkup(rows...), nil
}
