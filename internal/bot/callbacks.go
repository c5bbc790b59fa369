package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// Inline callback data protocol (spec §6): opaque strings of the form
// "<namespace>::<key>[::<value>]" carried on delivery and settings
// buttons. Each constructor/parser pair here round-trips exactly, and
// every parser rejects a syntactically correct prefix carrying an
// unparsable numeric suffix rather than panicking or silently truncating.

const (
	selectTimezonePrefix     = "seltz::"
	selectTimezonePagePrefix = "seltz::page::"
	selectTimezoneTzPrefix   = "seltz::tz::"

	setLanguagePrefix     = "setlang::"
	setLanguageCodePrefix = "setlang::lang::"

	settingsPrefix          = "settings::"
	settingsChangeLanguage  = "settings::change_lang"
	doneOccurrencePrefix    = "donerem::occ::"
	editModeTimePrefix      = "edit_rem_mode::rem_time_pattern::"
	editModeDescPrefix      = "edit_rem_mode::rem_description::"
)

// ReminderListKind selects which reminder-list action a paged callback
// belongs to: deleting, editing, or pausing.
type ReminderListKind int

const (
	ReminderListDelete ReminderListKind = iota
	ReminderListEdit
	ReminderListPause
)

func (k ReminderListKind) prefix() string {
	switch k {
	case ReminderListDelete:
		return "delrem"
	case ReminderListEdit:
		return "editrem"
	case ReminderListPause:
		return "pauserem"
	default:
		return "unknown"
	}
}

func parseIntWithPrefix(prefix, data string) (int64, bool) {
	rest, ok := strings.CutPrefix(data, prefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseUintWithPrefix(prefix, data string) (int, bool) {
	rest, ok := strings.CutPrefix(data, prefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// IsSelectTimezone reports whether data belongs to the timezone-picker
// callback family.
func IsSelectTimezone(data string) bool { return strings.HasPrefix(data, selectTimezonePrefix) }

// SelectTimezonePage encodes a timezone picker page turn.
func SelectTimezonePage(page int) string {
	return fmt.Sprintf("%s%d", selectTimezonePagePrefix, page)
}

// ParseSelectTimezonePage decodes a page encoded by SelectTimezonePage.
func ParseSelectTimezonePage(data string) (int, bool) {
	return parseUintWithPrefix(selectTimezonePagePrefix, data)
}

// SelectTimezoneTz encodes a chosen IANA timezone name.
func SelectTimezoneTz(tzName string) string {
	return selectTimezoneTzPrefix + tzName
}

// ParseSelectTimezoneTz decodes a zone name encoded by SelectTimezoneTz.
func ParseSelectTimezoneTz(data string) (string, bool) {
	return strings.CutPrefix(data, selectTimezoneTzPrefix)
}

// IsSetLanguage reports whether data belongs to the language family.
func IsSetLanguage(data string) bool { return strings.HasPrefix(data, setLanguagePrefix) }

// SetLanguage encodes a chosen language code.
func SetLanguage(langCode string) string { return setLanguageCodePrefix + langCode }

// ParseSetLanguage decodes a language code encoded by SetLanguage.
func ParseSetLanguage(data string) (string, bool) {
	return strings.CutPrefix(data, setLanguageCodePrefix)
}

// IsSettings reports whether data belongs to the settings family.
func IsSettings(data string) bool { return strings.HasPrefix(data, settingsPrefix) }

// SettingsChangeLanguage encodes the "change language" settings button.
func SettingsChangeLanguage() string { return settingsChangeLanguage }

// IsSettingsChangeLanguage reports whether data is exactly the "change
// language" settings button.
func IsSettingsChangeLanguage(data string) bool { return data == settingsChangeLanguage }

// DoneOccurrence encodes the "Done" button attached to a delivery,
// carrying the occurrence it acknowledges.
func DoneOccurrence(occID int64) string {
	return fmt.Sprintf("%s%d", doneOccurrencePrefix, occID)
}

// IsDoneOccurrence reports whether data belongs to the done-occurrence
// family.
func IsDoneOccurrence(data string) bool { return strings.HasPrefix(data, doneOccurrencePrefix) }

// ParseDoneOccurrence decodes an occurrence id encoded by DoneOccurrence.
func ParseDoneOccurrence(data string) (int64, bool) {
	return parseIntWithPrefix(doneOccurrencePrefix, data)
}

// ReminderPage encodes a page turn within one of the paged reminder-list
// actions (delete/edit/pause).
func ReminderPage(kind ReminderListKind, page int) string {
	return fmt.Sprintf("%s::page::%d", kind.prefix(), page)
}

// ParseReminderPage decodes a page encoded by ReminderPage for kind.
func ParseReminderPage(kind ReminderListKind, data string) (int, bool) {
	return parseUintWithPrefix(kind.prefix()+"::page::", data)
}

// ReminderAlter encodes picking one reminder out of a paged list to apply
// kind's action to. remType is "rem" for ordinary reminders or
// "cron_rem" for the legacy cron-table callback shape kept for backward
// compatibility (spec §6); both resolve to the same reminder table.
func ReminderAlter(kind ReminderListKind, remType string, remID int64) string {
	return fmt.Sprintf("%s::%s_alt::%d", kind.prefix(), remType, remID)
}

// ParseReminderAlter decodes a reminder id encoded by ReminderAlter for
// kind and remType.
func ParseReminderAlter(kind ReminderListKind, remType, data string) (int64, bool) {
	return parseIntWithPrefix(fmt.Sprintf("%s::%s_alt::", kind.prefix(), remType), data)
}

// EditModeTimePattern encodes choosing to edit a reminder's time pattern.
func EditModeTimePattern(remID int64) string {
	return fmt.Sprintf("%s%d", editModeTimePrefix, remID)
}

// ParseEditModeTimePattern decodes a reminder id encoded by
// EditModeTimePattern.
func ParseEditModeTimePattern(data string) (int64, bool) {
	return parseIntWithPrefix(editModeTimePrefix, data)
}

// EditModeDescription encodes choosing to edit a reminder's description.
func EditModeDescription(remID int64) string {
	return fmt.Sprintf("%s%d", editModeDescPrefix, remID)
}

// ParseEditModeDescription decodes a reminder id encoded by
// EditModeDescription.
func ParseEditModeDescription(data string) (int64, bool) {
	return parseIntWithPrefix(editModeDescPrefix, data)
}
