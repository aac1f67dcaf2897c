package adhan

import (
	"fmt"
	"slices"
	"time"
)

// NotFound is returned by LocateNext when no event is at or after now.
const NotFound = -1

// DateLayout is the backend's day key format.
const DateLayout = "2006-01-02"

// clockLayouts are the accepted shapes of a timings key. The backend writes
// seconds; the upstream calendar API only has minutes.
var clockLayouts = []string{"15:04:05", "15:04"}

// ParseError reports a timings entry whose date or clock could not be read.
type ParseError struct {
	Date  string
	Clock string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid timing %q on %q: %v", e.Clock, e.Date, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseDatetime combines a YYYY-MM-DD date and a clock string into an instant
// in loc.
func ParseDatetime(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	var lastErr error
	for _, layout := range clockLayouts {
		t, err := time.ParseInLocation(DateLayout+" "+layout, date+" "+clock, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Flatten expands each day into one Event per labelled timing. Days keep their
// input order and events keep the order of the day's timings; nothing is
// sorted here (see SortWithinDays). Entries with an empty label are skipped.
//
// The returned slice is never nil.
func Flatten(days []Day, loc *time.Location) ([]Event, error) {
	events := make([]Event, 0, len(days)*len(Names))

	for _, day := range days {
		for _, timing := range day.Timings {
			if timing.Label == "" {
				continue
			}

			dt, err := ParseDatetime(day.Date, timing.Clock, loc)
			if err != nil {
				return nil, &ParseError{Date: day.Date, Clock: timing.Clock, Err: err}
			}

			events = append(events, Event{
				Date:      day.Date,
				Timestamp: day.Timestamp,
				Adhan:     timing.Label,
				Datetime:  dt,
				PlayAdhan: day.PlayAdhan[timing.Label],
			})
		}
	}

	return events, nil
}

// SortWithinDays returns a copy of events where every run of consecutive
// events sharing a Date is stably sorted by Datetime. The order of the days
// themselves is left alone.
func SortWithinDays(events []Event) []Event {
	out := slices.Clone(events)

	start := 0
	for i := 1; i <= len(out); i++ {
		if i < len(out) && out[i].Date == out[start].Date {
			continue
		}
		slices.SortStableFunc(out[start:i], func(a, b Event) int {
			return a.Datetime.Compare(b.Datetime)
		})
		start = i
	}

	return out
}

// LocateNext returns the index of the first event whose Datetime is at or
// after now, or NotFound.
//
// It is a forward scan and assumes events are already in chronological order.
// On unordered input the answer is the first qualifying position, which is not
// necessarily the nearest upcoming event.
func LocateNext(events []Event, now time.Time) int {
	for i := range events {
		if !events[i].Datetime.Before(now) {
			return i
		}
	}
	return NotFound
}
