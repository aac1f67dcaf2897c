package aladhan

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/smokyabdulrahman/adhan-calendar/internal/adhan"
)

// ToDays converts a calendar response into day records with every adhan
// enabled. Timings within a day are ordered by clock.
func ToDays(resp *CalendarResponse) ([]adhan.Day, error) {
	days := make([]adhan.Day, 0, len(resp.Data))

	for _, d := range resp.Data {
		date, err := time.Parse("02-01-2006", d.Date.Gregorian.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid gregorian date %q: %w", d.Date.Gregorian.Date, err)
		}

		ts, err := strconv.ParseInt(d.Date.Timestamp, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q for %s: %w", d.Date.Timestamp, d.Date.Gregorian.Date, err)
		}

		raw := map[adhan.Name]string{
			adhan.Fajr:    d.Timings.Fajr,
			adhan.Dhuhr:   d.Timings.Dhuhr,
			adhan.Asr:     d.Timings.Asr,
			adhan.Maghrib: d.Timings.Maghrib,
			adhan.Isha:    d.Timings.Isha,
		}

		day := adhan.Day{
			Date:      date.Format(adhan.DateLayout),
			Timestamp: ts,
			Timings:   make(adhan.Timings, 0, len(adhan.Names)),
			PlayAdhan: make(map[adhan.Name]bool, len(adhan.Names)),
		}
		for _, name := range adhan.Names {
			clock, err := clockOf(raw[name])
			if err != nil {
				return nil, fmt.Errorf("%s on %s: %w", name, day.Date, err)
			}
			day.Timings = append(day.Timings, adhan.Timing{Clock: clock, Label: name})
			day.PlayAdhan[name] = true
		}
		slices.SortStableFunc(day.Timings, func(a, b adhan.Timing) int {
			return strings.Compare(a.Clock, b.Clock)
		})

		days = append(days, day)
	}

	return days, nil
}

// clockOf turns "04:40" or "04:40 (NZDT)" into "04:40:00".
func clockOf(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}

	t, err := time.Parse("15:04", s)
	if err != nil {
		return "", fmt.Errorf("invalid time format: %q", raw)
	}
	return t.Format("15:04:05"), nil
}

// Upcoming drops days before now's date and, on the remaining days, timings
// earlier than now. Days left without timings are kept.
func Upcoming(days []adhan.Day, now time.Time, loc *time.Location) []adhan.Day {
	if loc == nil {
		loc = time.Local
	}
	today := now.In(loc).Format(adhan.DateLayout)

	out := make([]adhan.Day, 0, len(days))
	for _, day := range days {
		if day.Date < today {
			continue
		}

		kept := make(adhan.Timings, 0, len(day.Timings))
		for _, t := range day.Timings {
			dt, err := adhan.ParseDatetime(day.Date, t.Clock, loc)
			if err != nil || dt.Before(now) {
				continue
			}
			kept = append(kept, t)
		}
		day.Timings = kept
		out = append(out, day)
	}
	return out
}
