package adhan

import (
	"testing"
	"time"
)

func TestBuildCalendar_Markers(t *testing.T) {
	events, err := Flatten([]Day{fullDay("2022-12-29", true), fullDay("2022-12-30", false)}, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	now := at(t, "2022-12-29", "13:00:00")

	cal := BuildCalendar(events, now, time.UTC)

	if cal.Month != "December" {
		t.Errorf("Month = %q, want December", cal.Month)
	}
	if cal.Next != 2 {
		t.Errorf("Next = %d, want 2", cal.Next)
	}
	if len(cal.Rows) != len(events) {
		t.Fatalf("rows = %d, want %d", len(cal.Rows), len(events))
	}

	for i, row := range cal.Rows {
		if row.DayStart != (row.Adhan == Fajr) {
			t.Errorf("row %d (%s) DayStart = %v", i, row.Adhan, row.DayStart)
		}
		if row.DayEnd != (row.Adhan == Isha) {
			t.Errorf("row %d (%s) DayEnd = %v", i, row.Adhan, row.DayEnd)
		}
		if row.Today != (row.Date == "2022-12-29") {
			t.Errorf("row %d (%s) Today = %v", i, row.Date, row.Today)
		}
		if row.IsNext != (i == 2) {
			t.Errorf("row %d IsNext = %v", i, row.IsNext)
		}
		if row.Last != (i == len(events)-1) {
			t.Errorf("row %d Last = %v", i, row.Last)
		}
	}
}

func TestBuildCalendar_NoNext(t *testing.T) {
	events, _ := Flatten([]Day{fullDay("2022-12-29", true)}, time.UTC)
	now := at(t, "2023-01-02", "09:00:00")

	cal := BuildCalendar(events, now, time.UTC)

	if cal.Next != NotFound {
		t.Errorf("Next = %d, want NotFound", cal.Next)
	}
	for i, row := range cal.Rows {
		if row.IsNext {
			t.Errorf("row %d marked next with no upcoming event", i)
		}
		if row.Today {
			t.Errorf("row %d marked today on a different day", i)
		}
	}
	// Month still comes from the data, not from now.
	if cal.Month != "December" {
		t.Errorf("Month = %q, want December", cal.Month)
	}
}

func TestBuildCalendar_EmptyUsesNowForMonth(t *testing.T) {
	now := time.Date(2023, 3, 14, 9, 0, 0, 0, time.UTC)

	cal := BuildCalendar(nil, now, time.UTC)

	if cal.Month != "March" {
		t.Errorf("Month = %q, want March", cal.Month)
	}
	if len(cal.Rows) != 0 {
		t.Errorf("rows = %d, want 0", len(cal.Rows))
	}
	if cal.Next != NotFound {
		t.Errorf("Next = %d, want NotFound", cal.Next)
	}
}

func TestBuildCalendar_MissingBoundaryAdhans(t *testing.T) {
	day := Day{
		Date: "2022-12-29",
		Timings: Timings{
			{"12:00:00", Dhuhr},
			{"15:45:00", Asr},
		},
	}
	events, _ := Flatten([]Day{day}, time.UTC)

	cal := BuildCalendar(events, at(t, "2022-12-29", "01:00:00"), time.UTC)

	for i, row := range cal.Rows {
		if row.DayStart || row.DayEnd {
			t.Errorf("row %d (%s) has a boundary marker without Fajr/Isha", i, row.Adhan)
		}
	}
}

// "Today" is judged on the calendar of loc, not UTC.
func TestBuildCalendar_TodayUsesLocation(t *testing.T) {
	loc := time.FixedZone("NZDT", 13*60*60)
	events, err := Flatten([]Day{fullDay("2022-12-29", true)}, loc)
	if err != nil {
		t.Fatal(err)
	}

	// 2022-12-28 20:00 UTC is already the 29th in Auckland.
	now := time.Date(2022, 12, 28, 20, 0, 0, 0, time.UTC)

	cal := BuildCalendar(events, now, loc)

	for i, row := range cal.Rows {
		if !row.Today {
			t.Errorf("row %d not marked today", i)
		}
	}
}

func TestMonthLabel(t *testing.T) {
	now := time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)
	events := []Event{{Datetime: time.Date(2022, 11, 30, 4, 0, 0, 0, time.UTC)}}

	if got := MonthLabel(events, now); got != "November" {
		t.Errorf("MonthLabel = %q, want November", got)
	}
	if got := MonthLabel(nil, now); got != "January" {
		t.Errorf("MonthLabel(nil) = %q, want January", got)
	}
}
