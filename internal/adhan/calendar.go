package adhan

import "time"

// Row is one event plus the markers the calendar view draws around it.
type Row struct {
	Event

	// DayStart is set on the first canonical adhan of a day (Fajr); the view
	// prints the weekday above it.
	DayStart bool `json:"day_start"`
	// DayEnd is set on the last canonical adhan of a day (Isha); the view
	// draws a separator below it.
	DayEnd bool `json:"day_end"`
	Today  bool `json:"today"`
	IsNext bool `json:"is_next"`
	Last   bool `json:"last"`
}

// Calendar is the view model for one rendering of the schedule.
type Calendar struct {
	Month string `json:"month"`
	Rows  []Row  `json:"rows"`
	// Next is the LocateNext result for Rows, NotFound when every event is past.
	Next int `json:"next"`
}

// BuildCalendar derives the calendar view from a flattened schedule. now is
// passed in rather than read from the clock; loc decides which calendar day
// counts as "today".
func BuildCalendar(events []Event, now time.Time, loc *time.Location) Calendar {
	if loc == nil {
		loc = time.Local
	}
	localNow := now.In(loc)

	cal := Calendar{
		Month: MonthLabel(events, localNow),
		Rows:  make([]Row, 0, len(events)),
		Next:  LocateNext(events, now),
	}

	today := localNow.Format(DateLayout)
	first, last := Names[0], Names[len(Names)-1]

	for i, e := range events {
		cal.Rows = append(cal.Rows, Row{
			Event:    e,
			DayStart: e.Adhan == first,
			DayEnd:   e.Adhan == last,
			Today:    e.Date == today,
			IsNext:   i == cal.Next,
			Last:     i == len(events)-1,
		})
	}

	return cal
}

// MonthLabel is the long English month name of the first event, or of now
// when there are no events.
func MonthLabel(events []Event, now time.Time) string {
	if len(events) > 0 {
		return events[0].Datetime.Month().String()
	}
	return now.Month().String()
}
