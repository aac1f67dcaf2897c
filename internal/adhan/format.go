package adhan

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Format constants for single-event display modes.
const (
	FormatTimeRemaining      = "time-remaining"
	FormatNextAdhanTime      = "next-adhan-time"
	FormatNameAndTime        = "name-and-time"
	FormatNameAndRemaining   = "name-and-remaining"
	FormatShortNameAndTime   = "short-name-and-time"
	FormatShortNameAndRemain = "short-name-and-remaining"
	FormatFull               = "full"
)

// Time layouts for the two supported clock styles.
const (
	Layout12h = "3:04 PM"
	Layout24h = "15:04"
)

// TimeLayout maps a "12h"/"24h" setting to a Go time layout.
func TimeLayout(timeFormat string) string {
	if timeFormat == "24h" {
		return Layout24h
	}
	return Layout12h
}

// FormatData is the data passed to custom Go templates.
type FormatData struct {
	Name      string // e.g. "Asr"
	ShortName string // e.g. "A"
	Date      string // YYYY-MM-DD
	Time      string // e.g. "15:02" or "3:02 PM"
	Remaining string // e.g. "2h 15m"
	Hours     int
	Minutes   int
	Enabled   bool // the event's play_adhan flag
}

// FormatOutput renders an event according to mode. A mode containing "{{" is
// executed as a text/template against FormatData, e.g.
// "{{.Name}} in {{.Remaining}}" -> "Asr in 2h 15m".
func FormatOutput(e Event, now time.Time, mode string, timeLayout string) string {
	d := TimeRemaining(e, now)
	remaining := FormatRemaining(d)
	timeStr := e.Datetime.Format(timeLayout)
	name := string(e.Adhan)
	short := e.Adhan.Short()

	if strings.Contains(mode, "{{") {
		return formatCustom(mode, FormatData{
			Name:      name,
			ShortName: short,
			Date:      e.Date,
			Time:      timeStr,
			Remaining: remaining,
			Hours:     int(d.Hours()),
			Minutes:   int(d.Minutes()) % 60,
			Enabled:   e.PlayAdhan,
		})
	}

	switch mode {
	case FormatTimeRemaining:
		return remaining
	case FormatNextAdhanTime:
		return timeStr
	case FormatNameAndRemaining:
		return fmt.Sprintf("%s %s", name, remaining)
	case FormatShortNameAndTime:
		return fmt.Sprintf("%s %s", short, timeStr)
	case FormatShortNameAndRemain:
		return fmt.Sprintf("%s %s", short, remaining)
	case FormatFull:
		return fmt.Sprintf("%s %s (%s)", name, timeStr, remaining)
	default:
		return fmt.Sprintf("%s %s", name, timeStr)
	}
}

func formatCustom(tmpl string, data FormatData) string {
	t, err := template.New("custom").Parse(tmpl)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	return buf.String()
}

// TimeRemaining returns the duration from now until the event.
func TimeRemaining(e Event, now time.Time) time.Duration {
	return e.Datetime.Sub(now)
}

// FormatRemaining formats a duration as "Xh Ym", or "Ym" under an hour.
// Negative durations read as "0m".
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		return "0m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
