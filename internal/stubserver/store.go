package stubserver

import (
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/smokyabdulrahman/adhan-calendar/internal/adhan"
)

// ErrDayNotFound is returned by Store.Set for a date the store does not hold.
var ErrDayNotFound = errors.New("day not found")

// Store keeps prayer days keyed by date. Listing is always in date order.
type Store struct {
	mu   sync.RWMutex
	days map[string]adhan.Day
}

func NewStore(days ...adhan.Day) *Store {
	s := &Store{days: make(map[string]adhan.Day, len(days))}
	s.Put(days...)
	return s
}

// Put inserts days, replacing any already held for the same date.
func (s *Store) Put(days ...adhan.Day) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range days {
		s.days[d.Date] = cloneDay(d)
	}
}

// List returns copies of every held day sorted by date.
func (s *Store) List() []adhan.Day {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dates := slices.Sorted(maps.Keys(s.days))
	out := make([]adhan.Day, 0, len(dates))
	for _, date := range dates {
		out = append(out, cloneDay(s.days[date]))
	}
	return out
}

// Get returns a copy of the day held for date.
func (s *Store) Get(date string) (adhan.Day, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.days[date]
	if !ok {
		return adhan.Day{}, false
	}
	return cloneDay(d), true
}

// SetAll overwrites every flag present on every day with play.
func (s *Store) SetAll(play bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for date, d := range s.days {
		for name := range d.PlayAdhan {
			d.PlayAdhan[name] = play
		}
		s.days[date] = d
	}
}

// Set records play for one adhan on one date.
func (s *Store) Set(date string, name adhan.Name, play bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.days[date]
	if !ok {
		return ErrDayNotFound
	}
	if d.PlayAdhan == nil {
		d.PlayAdhan = make(map[adhan.Name]bool, len(adhan.Names))
	}
	d.PlayAdhan[name] = play
	s.days[date] = d
	return nil
}

func cloneDay(d adhan.Day) adhan.Day {
	d.Timings = slices.Clone(d.Timings)
	d.PlayAdhan = maps.Clone(d.PlayAdhan)
	return d
}
