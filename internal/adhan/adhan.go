// Package adhan turns the backend's per-day prayer records into a flat,
// time-ordered list of adhan events and derives what the calendar view needs
// from it: the next event, day boundaries, the "today" rows and the month label.
package adhan

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Name is one of the five daily adhans.
type Name string

const (
	Fajr    Name = "Fajr"
	Dhuhr   Name = "Dhuhr"
	Asr     Name = "Asr"
	Maghrib Name = "Maghrib"
	Isha    Name = "Isha"
)

// Names lists the adhans in canonical (chronological) order.
var Names = []Name{Fajr, Dhuhr, Asr, Maghrib, Isha}

// ErrUnknownName is returned by ParseName for anything outside Names.
var ErrUnknownName = errors.New("unknown adhan name")

// shortNames maps adhan names to single-character abbreviations.
var shortNames = map[Name]string{
	Fajr:    "F",
	Dhuhr:   "D",
	Asr:     "A",
	Maghrib: "M",
	Isha:    "I",
}

// ParseName resolves a case-insensitive adhan name ("fajr", "FAJR") to its
// canonical spelling.
func ParseName(s string) (Name, error) {
	s = strings.TrimSpace(s)
	for _, n := range Names {
		if strings.EqualFold(string(n), s) {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownName, s)
}

// Valid reports whether n is one of the five canonical names.
func (n Name) Valid() bool {
	_, ok := shortNames[n]
	return ok
}

// Short returns the single-letter abbreviation, or the full name when unknown.
func (n Name) Short() string {
	if s, ok := shortNames[n]; ok {
		return s
	}
	return string(n)
}

// Timing is a single entry of a day's timings: a local clock time and the
// adhan it belongs to. Label is empty for entries the backend left blank.
type Timing struct {
	Clock string `validate:"required,clock"`
	Label Name   `validate:"omitempty,adhan"`
}

// Timings is the ordered form of the backend's `timings` object. The JSON
// object is decoded entry by entry so document order survives.
type Timings []Timing

// UnmarshalJSON decodes `{"04:11:00": "Fajr", ...}` keeping key order.
// null and false labels decode as empty; any other non-string label is an error.
func (t *Timings) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("timings: %w", err)
	}
	if tok == nil {
		*t = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("timings: expected object, got %v", tok)
	}

	out := Timings{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("timings: %w", err)
		}
		clock, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("timings: unexpected key %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("timings[%s]: %w", clock, err)
		}

		var label Name
		switch v := valTok.(type) {
		case string:
			label = Name(v)
		case nil:
		case bool:
			if v {
				return fmt.Errorf("timings[%s]: label must be a string, got true", clock)
			}
		default:
			return fmt.Errorf("timings[%s]: label must be a string, got %v", clock, v)
		}

		out = append(out, Timing{Clock: clock, Label: label})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("timings: %w", err)
	}

	*t = out
	return nil
}

// MarshalJSON writes the timings back as an object in sequence order.
func (t Timings) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Clock)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(string(e.Label))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Day is one calendar day as served by GET /timings.
type Day struct {
	Date      string        `json:"date" validate:"required,datetime=2006-01-02"`
	Timestamp int64         `json:"timestamp"`
	Timings   Timings       `json:"timings" validate:"dive"`
	PlayAdhan map[Name]bool `json:"play_adhan"`
}

// Event is one concrete adhan occurrence produced by Flatten.
type Event struct {
	Date      string    `json:"date"`
	Timestamp int64     `json:"timestamp"`
	Adhan     Name      `json:"adhan"`
	Datetime  time.Time `json:"datetime"`
	PlayAdhan bool      `json:"play_adhan"`
}
