// Package bot is the Telegram transport and command surface of spec
// §4.G: it owns the update loop, renders every reply, and is the only
// package that talks to the Telegram API directly. All reminder logic
// lives in internal/controller; this package translates chat updates
// into controller calls and controller results into chat replies.
package bot

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/remindee/internal/apperr"
	"github.com/hray3182/remindee/internal/controller"
	"github.com/hray3182/remindee/internal/format"
	"github.com/hray3182/remindee/internal/locale"
	"github.com/hray3182/remindee/internal/repository"
	"github.com/hray3182/remindee/internal/scheduler"
)

// Bot is the chat transport. It satisfies scheduler.Transport via
// SendDelivery.
type Bot struct {
	api     *tgbotapi.BotAPI
	ctrl    *controller.Controller
	prefs   *repository.UserPrefsRepository
	logger  *slog.Logger
	devMode bool
}

// New wires a Bot onto an already-constructed Controller. devMode gates
// debug-level logging (spec §7: benign transport failures are reported
// only to debug logs).
func New(token string, ctrl *controller.Controller, prefs *repository.UserPrefsRepository, devMode bool) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("bot: create telegram client: %w", err)
	}

	level := slog.LevelInfo
	if devMode {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	return &Bot{api: api, ctrl: ctrl, prefs: prefs, logger: logger, devMode: devMode}, nil
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	log.Printf("Authorized on account %s", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil && update.Message.Location != nil:
		b.handleLocation(ctx, update.Message)
	case update.Message != nil:
		b.handleText(ctx, update.Message)
	}
}

func (b *Bot) debug(msg string, args ...any) {
	b.logger.Debug(msg, args...)
}

// langFor resolves a user's chosen UI language, falling back to the
// package default if they've never picked one.
func (b *Bot) langFor(ctx context.Context, userID int64) locale.Language {
	pref, err := b.prefs.GetLanguage(ctx, userID)
	if err != nil || pref == nil {
		return locale.Default
	}
	lang, ok := locale.FromCode(pref.Code)
	if !ok {
		return locale.Default
	}
	return lang
}

func (b *Bot) t(ctx context.Context, userID int64, key string, args ...string) string {
	return locale.T(key, b.langFor(ctx, userID), args...)
}

// sendMessage sends plain MarkdownV2 text, returning the sent message id.
func (b *Bot) sendMessage(chatID int64, text string) (int64, error) {
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return int64(sent.MessageID), nil
}

// sendMarkup sends text with an inline keyboard attached.
func (b *Bot) sendMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) (int64, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyMarkup = markup
	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return int64(sent.MessageID), nil
}

// editMarkup replaces a message's inline keyboard in place.
func (b *Bot) editMarkup(chatID, messageID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, int(messageID), text, markup)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.api.Send(edit); err != nil {
		b.logTransportErr("edit markup", err)
	}
}

// clearMarkup removes a message's inline keyboard, e.g. once an
// occurrence has been acknowledged. Spec §4.F: "clear the delivery
// message's inline markup (tolerate and debug-log MessageNotModified,
// MessageCantBeEdited, MessageToEditNotFound, MessageIdInvalid)".
func (b *Bot) clearMarkup(chatID, messageID int64) {
	empty := tgbotapi.NewInlineKeyboardMarkup()
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, int(messageID), empty)
	if _, err := b.api.Send(edit); err != nil {
		b.logTransportErr("clear markup", err)
	}
}

// logTransportErr downgrades the benign Telegram failures spec §7 names
// to debug logging; anything else is a real transport error.
func (b *Bot) logTransportErr(op string, err error) {
	if scheduler.IsBenignSendError(err) {
		b.debug("benign transport error", "op", op, "error", err)
		return
	}
	log.Printf("bot: %s: %v", op, err)
}

// SendDelivery implements scheduler.Transport: send (or re-send) a
// reminder delivery, returning the message id so the scheduler can link
// it back to the occurrence. A Done button is attached only when
// occurrenceID is non-zero; its label is rendered in the reminder owner's
// chosen language.
func (b *Bot) SendDelivery(chatID, userID int64, text string, occurrenceID int64) (int64, error) {
	if occurrenceID == 0 {
		return b.sendMessage(chatID, text)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.t(context.Background(), userID, "done_button"), DoneOccurrence(occurrenceID)),
		),
	)
	return b.sendMarkup(chatID, text, markup)
}

// reportErr converts a controller error into a chat reply, per spec §7:
// parse errors are shown only in 1:1 chats, database/missing-context
// errors get a generic reply, everything else is logged and silenced.
func (b *Bot) reportErr(ctx context.Context, msg *tgbotapi.Message, err error) {
	if err == nil {
		return
	}
	userID := msg.From.ID
	switch {
	case apperr.Is(err, apperr.KindParse):
		if msg.Chat.IsPrivate() {
			b.sendMessage(msg.Chat.ID, format.EscapeMarkdownV2(b.t(ctx, userID, "parse_error", "error", err.Error())))
		} else {
			b.debug("parse error suppressed in group chat", "error", err)
		}
	case apperr.Is(err, apperr.KindDatabase):
		b.sendMessage(msg.Chat.ID, format.EscapeMarkdownV2(b.t(ctx, userID, "reminder_not_found")))
		log.Printf("bot: database error: %v", err)
	case apperr.Is(err, apperr.KindMissingContext):
		b.sendMessage(msg.Chat.ID, format.EscapeMarkdownV2(b.t(ctx, userID, "reminder_not_found")))
	default:
		log.Printf("bot: unclassified error: %v", err)
	}
}
