package display

import (
	"strings"

	"github.com/smokyabdulrahman/adhan-calendar/internal/adhan"
)

// CalendarHeaders are the columns of the calendar table.
var CalendarHeaders = []string{"Date", "Adhan", "Time", "Status"}

const (
	dateLayout    = "Jan 2, 2006"
	weekdayLayout = "Monday"
)

// Status renders a play_adhan flag.
func Status(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// CalendarTable lays out cal: a weekday heading above each Fajr row, a rule
// after each Isha row, today's rows highlighted and the next adhan accented.
func CalendarTable(cal adhan.Calendar, timeLayout string) *Table {
	tbl := NewTable(CalendarHeaders)

	for _, row := range cal.Rows {
		if row.DayStart {
			tbl.AddHeading(row.Datetime.Format(weekdayLayout))
		}

		style := StylePlain
		switch {
		case row.IsNext:
			style = StyleNext
		case row.Today:
			style = StyleToday
		}

		tbl.AddRow([]string{
			row.Datetime.Format(dateLayout),
			string(row.Adhan),
			row.Datetime.Format(timeLayout),
			Status(row.PlayAdhan),
		}, style)

		if row.DayEnd {
			tbl.AddRule()
		}
	}

	return tbl
}

// RenderCalendar renders the month title followed by the calendar table.
func RenderCalendar(cal adhan.Calendar, timeLayout string) string {
	var sb strings.Builder
	sb.WriteString("\n  " + Boldf("Prayer Calendar · %s", cal.Month) + "\n\n")
	sb.WriteString(CalendarTable(cal, timeLayout).Render())
	return sb.String()
}
