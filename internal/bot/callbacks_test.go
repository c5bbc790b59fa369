package bot

import "testing"

func TestDoneOccurrenceRoundtrip(t *testing.T) {
	data := DoneOccurrence(42)
	if !IsDoneOccurrence(data) {
		t.Fatalf("IsDoneOccurrence(%q) = false", data)
	}
	got, ok := ParseDoneOccurrence(data)
	if !ok || got != 42 {
		t.Fatalf("ParseDoneOccurrence(%q) = %d, %v", data, got, ok)
	}
}

func TestParseDoneOccurrenceRejectsInvalidData(t *testing.T) {
	if _, ok := ParseDoneOccurrence("donerem::occ::abc"); ok {
		t.Fatal("expected rejection of non-numeric suffix")
	}
	if _, ok := ParseDoneOccurrence("settings::change_lang"); ok {
		t.Fatal("expected rejection of unrelated prefix")
	}
}

func TestTimezoneCallbacksRoundtrip(t *testing.T) {
	page := SelectTimezonePage(3)
	if !IsSelectTimezone(page) {
		t.Fatalf("IsSelectTimezone(%q) = false", page)
	}
	gotPage, ok := ParseSelectTimezonePage(page)
	if !ok || gotPage != 3 {
		t.Fatalf("ParseSelectTimezonePage(%q) = %d, %v", page, gotPage, ok)
	}

	tz := SelectTimezoneTz("Europe/Amsterdam")
	if !IsSelectTimezone(tz) {
		t.Fatalf("IsSelectTimezone(%q) = false", tz)
	}
	gotTz, ok := ParseSelectTimezoneTz(tz)
	if !ok || gotTz != "Europe/Amsterdam" {
		t.Fatalf("ParseSelectTimezoneTz(%q) = %q, %v", tz, gotTz, ok)
	}
}

func TestLanguageCallbacksRoundtrip(t *testing.T) {
	data := SetLanguage("nl")
	if !IsSetLanguage(data) {
		t.Fatalf("IsSetLanguage(%q) = false", data)
	}
	got, ok := ParseSetLanguage(data)
	if !ok || got != "nl" {
		t.Fatalf("ParseSetLanguage(%q) = %q, %v", data, got, ok)
	}
}

func TestSettingsCallbacksRoundtrip(t *testing.T) {
	data := SettingsChangeLanguage()
	if !IsSettings(data) {
		t.Fatalf("IsSettings(%q) = false", data)
	}
	if !IsSettingsChangeLanguage(data) {
		t.Fatalf("IsSettingsChangeLanguage(%q) = false", data)
	}
}

func TestReminderCallbacksRoundtrip(t *testing.T) {
	page := ReminderPage(ReminderListDelete, 1)
	got, ok := ParseReminderPage(ReminderListDelete, page)
	if !ok || got != 1 {
		t.Fatalf("ParseReminderPage(%q) = %d, %v", page, got, ok)
	}
	if _, ok := ParseReminderPage(ReminderListEdit, page); ok {
		t.Fatal("expected a delete-kind page to be rejected under edit-kind parsing")
	}

	rem := ReminderAlter(ReminderListPause, "rem", 11)
	gotID, ok := ParseReminderAlter(ReminderListPause, "rem", rem)
	if !ok || gotID != 11 {
		t.Fatalf("ParseReminderAlter(%q) = %d, %v", rem, gotID, ok)
	}

	// Legacy cron_rem_alt callbacks resolve against the same reminder id
	// shape, for backward compatibility with deliveries sent before the
	// cron/reminder table fold.
	cronRem := ReminderAlter(ReminderListPause, "cron_rem", 12)
	gotCronID, ok := ParseReminderAlter(ReminderListPause, "cron_rem", cronRem)
	if !ok || gotCronID != 12 {
		t.Fatalf("ParseReminderAlter(cron_rem, %q) = %d, %v", cronRem, gotCronID, ok)
	}
}

func TestEditModeCallbacksRoundtrip(t *testing.T) {
	timeData := EditModeTimePattern(7)
	got, ok := ParseEditModeTimePattern(timeData)
	if !ok || got != 7 {
		t.Fatalf("ParseEditModeTimePattern(%q) = %d, %v", timeData, got, ok)
	}

	descData := EditModeDescription(8)
	got, ok = ParseEditModeDescription(descData)
	if !ok || got != 8 {
		t.Fatalf("ParseEditModeDescription(%q) = %d, %v", descData, got, ok)
	}
}

func TestParseRejectsSyntacticPrefixWithBadSuffix(t *testing.T) {
	if _, ok := ParseSelectTimezonePage("seltz::page::abc"); ok {
		t.Fatal("expected rejection of non-numeric page")
	}
	if _, ok := ParseEditModeTimePattern("edit_rem_mode::rem_time_pattern::"); ok {
		t.Fatal("expected rejection of empty numeric suffix")
	}
}
