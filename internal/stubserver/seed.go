package stubserver

import (
	"time"

	"github.com/smokyabdulrahman/adhan-calendar/internal/adhan"
)

// seedClocks are the base times of the five adhans, in minutes after midnight.
var seedClocks = []struct {
	name  adhan.Name
	base  int
	drift int
}{
	{adhan.Fajr, 4*60 + 30, -1},
	{adhan.Dhuhr, 12*60 + 45, 0},
	{adhan.Asr, 16*60 + 20, 1},
	{adhan.Maghrib, 19*60 + 50, 1},
	{adhan.Isha, 21*60 + 20, 1},
}

// Seed builds n demo days starting at start's date in loc. Each day has the
// five adhans with every flag on; times drift a minute a day and wrap every
// fortnight. Timestamps are local midnight.
func Seed(start time.Time, n int, loc *time.Location) []adhan.Day {
	if loc == nil {
		loc = time.Local
	}
	start = start.In(loc)

	days := make([]adhan.Day, 0, n)
	for i := range n {
		midnight := time.Date(start.Year(), start.Month(), start.Day()+i, 0, 0, 0, 0, loc)
		offset := i % 15

		day := adhan.Day{
			Date:      midnight.Format(adhan.DateLayout),
			Timestamp: midnight.Unix(),
			Timings:   make(adhan.Timings, 0, len(seedClocks)),
			PlayAdhan: make(map[adhan.Name]bool, len(seedClocks)),
		}
		for _, c := range seedClocks {
			minutes := c.base + c.drift*offset
			clock := time.Date(2000, 1, 1, minutes/60, minutes%60, 0, 0, time.UTC)
			day.Timings = append(day.Timings, adhan.Timing{Clock: clock.Format("15:04:05"), Label: c.name})
			day.PlayAdhan[c.name] = true
		}
		days = append(days, day)
	}
	return days
}
