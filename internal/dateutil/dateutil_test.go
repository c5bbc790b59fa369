package dateutil

import (
	"testing"
	"time"
)

func TestIsLeapYear(t *testing.T) {
	cases := map[int]bool{2000: true, 1900: false, 2004: true, 2023: false, 2024: true}
	for year, want := range cases {
		if got := IsLeapYear(year); got != want {
			t.Errorf("IsLeapYear(%d) = %v, want %v", year, got, want)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	if got := DaysInMonth(2, 2024); got != 29 {
		t.Errorf("DaysInMonth(2, 2024) = %d, want 29", got)
	}
	if got := DaysInMonth(2, 2023); got != 28 {
		t.Errorf("DaysInMonth(2, 2023) = %d, want 28", got)
	}
	if got := DaysInMonth(4, 2023); got != 30 {
		t.Errorf("DaysInMonth(4, 2023) = %d, want 30", got)
	}
}

func TestAddMonthsClampsDayOfMonth(t *testing.T) {
	jan31 := time.Date(2023, time.January, 31, 10, 0, 0, 0, time.UTC)
	got := AddMonths(jan31, 1)
	want := time.Date(2023, time.February, 28, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("AddMonths(Jan 31, 1) = %v, want %v", got, want)
	}

	dec31 := time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)
	got = AddMonths(dec31, 1)
	want = time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("AddMonths(Dec 31, 1) = %v, want %v", got, want)
	}
}

func TestAddIntervalAppliesMonthsBeforeFlatDuration(t *testing.T) {
	start := time.Date(2023, time.January, 31, 0, 0, 0, 0, time.UTC)
	iv := Interval{Months: 1, Days: 1, Hours: 2}
	got := AddInterval(start, iv)
	want := time.Date(2023, time.March, 1, 2, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("AddInterval = %v, want %v", got, want)
	}
}

func TestFindNearestWeekday(t *testing.T) {
	monday := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC) // Monday
	var wed [7]bool
	wed[time.Wednesday] = true
	got := FindNearestWeekday(monday, wed)
	want := time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("FindNearestWeekday = %v, want %v", got, want)
	}

	var mon [7]bool
	mon[time.Monday] = true
	got = FindNearestWeekday(monday, mon)
	if !got.Equal(monday) {
		t.Errorf("FindNearestWeekday should match inclusive start, got %v", got)
	}
}
