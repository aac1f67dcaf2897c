// Package session owns the prayer calendar as the view sees it: the last
// fetched collection, the error state of the last fetch and mutation, and the
// rule that every mutation is followed by a full refetch.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/adhan-calendar/internal/adhan"
	"github.com/smokyabdulrahman/adhan-calendar/internal/api"
)

// ErrSuperseded is returned by Refresh when a newer refresh was issued before
// this one completed; its result was dropped.
var ErrSuperseded = errors.New("refresh superseded by a newer request")

// ErrUnknownDay is returned by Toggle for a date the held collection lacks.
var ErrUnknownDay = errors.New("no such day in the calendar")

// Backend is the subset of the backend contract the session drives.
type Backend interface {
	ListTimings(ctx context.Context) ([]adhan.Day, error)
	SetAll(ctx context.Context, play bool) error
	Set(ctx context.Context, date string, name adhan.Name, play bool) error
	Play(ctx context.Context) error
	Halt(ctx context.Context) error
}

var _ Backend = (*api.Client)(nil)

// MutationError marks a failed mutating request. It is kept apart from fetch
// errors so the view can report it without hiding the refreshed calendar.
type MutationError struct {
	Op  string
	Err error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// State is a point-in-time copy of what the session holds.
type State struct {
	Days        []adhan.Day
	FetchErr    error
	MutationErr error
	Loading     bool
	FetchedAt   time.Time
}

// Session serialises access to the held collection. It is safe for
// concurrent use.
type Session struct {
	backend          Backend
	lastResolvedWins bool
	now              func() time.Time

	mu          sync.Mutex
	days        []adhan.Day
	fetchErr    error
	mutationErr error
	issued      uint64
	inflight    int
	fetchedAt   time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithLastResolvedWins makes every completed refresh overwrite the state, in
// completion order, even when a newer refresh was issued after it. An older
// response that arrives late then replaces fresher data.
func WithLastResolvedWins() Option {
	return func(s *Session) { s.lastResolvedWins = true }
}

// WithClock overrides the clock used for FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a session over backend. Nothing is fetched until Refresh.
func New(backend Backend, opts ...Option) *Session {
	s := &Session{
		backend: backend,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type requestIDKey struct{}

// withRequestID tags ctx and its logger with a request id, reusing one that
// is already there so a mutation and its refetch log under the same id.
func withRequestID(ctx context.Context) (context.Context, zerolog.Logger) {
	if _, ok := ctx.Value(requestIDKey{}).(string); ok {
		return ctx, *zerolog.Ctx(ctx)
	}

	id := uuid.New().String()
	logger := zerolog.Ctx(ctx).With().Str("request_id", id).Logger()
	ctx = context.WithValue(ctx, requestIDKey{}, id)
	return logger.WithContext(ctx), logger
}

// Refresh fetches the whole calendar and, unless a newer refresh has been
// issued meanwhile, replaces the held collection with it. On failure the
// collection is cleared and the error kept in FetchErr.
func (s *Session) Refresh(ctx context.Context) error {
	ctx, logger := withRequestID(ctx)

	s.mu.Lock()
	s.issued++
	gen := s.issued
	s.inflight++
	s.mu.Unlock()

	logger.Debug().Uint64("generation", gen).Msg("refresh issued")
	days, err := s.backend.ListTimings(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--

	if !s.lastResolvedWins && gen < s.issued {
		logger.Debug().Uint64("generation", gen).Uint64("latest", s.issued).Msg("refresh result discarded")
		return ErrSuperseded
	}

	if err != nil {
		logger.Warn().Err(err).Uint64("generation", gen).Msg("refresh failed")
		s.days = nil
		s.fetchErr = err
		return fmt.Errorf("refresh: %w", err)
	}

	s.days = days
	s.fetchErr = nil
	s.fetchedAt = s.now()
	logger.Debug().Uint64("generation", gen).Int("days", len(days)).Msg("refresh applied")
	return nil
}

// SetAll sets every play_adhan flag, then refetches.
func (s *Session) SetAll(ctx context.Context, play bool) error {
	return s.mutate(ctx, "set all adhans", func(ctx context.Context) error {
		return s.backend.SetAll(ctx, play)
	})
}

// Set sets one day's flag for one adhan, then refetches.
func (s *Session) Set(ctx context.Context, date string, name adhan.Name, play bool) error {
	return s.mutate(ctx, "set "+date+" "+string(name), func(ctx context.Context) error {
		return s.backend.Set(ctx, date, name, play)
	})
}

// Toggle sends the negation of the flag currently held for date/name, then
// refetches. It fails without sending anything when date is not held.
func (s *Session) Toggle(ctx context.Context, date string, name adhan.Name) error {
	s.mu.Lock()
	i := slices.IndexFunc(s.days, func(d adhan.Day) bool { return d.Date == date })
	var current bool
	if i >= 0 {
		current = s.days[i].PlayAdhan[name]
	}
	s.mu.Unlock()

	if i < 0 {
		return fmt.Errorf("toggle %s %s: %w", date, name, ErrUnknownDay)
	}
	return s.Set(ctx, date, name, !current)
}

// Play asks the backend to play the test adhan. No refetch follows.
func (s *Session) Play(ctx context.Context) error {
	return s.fire(ctx, "play", s.backend.Play)
}

// Halt stops playback. No refetch follows.
func (s *Session) Halt(ctx context.Context) error {
	return s.fire(ctx, "halt", s.backend.Halt)
}

// mutate sends one mutation and refetches once its response, whatever it
// was, has come back.
func (s *Session) mutate(ctx context.Context, op string, send func(context.Context) error) error {
	ctx, _ = withRequestID(ctx)

	mErr := s.fire(ctx, op, send)

	rErr := s.Refresh(ctx)
	if errors.Is(rErr, ErrSuperseded) {
		rErr = nil
	}

	return errors.Join(mErr, rErr)
}

func (s *Session) fire(ctx context.Context, op string, send func(context.Context) error) error {
	ctx, logger := withRequestID(ctx)

	logger.Debug().Str("op", op).Msg("mutation sent")
	err := send(ctx)
	if err != nil {
		logger.Warn().Err(err).Str("op", op).Msg("mutation failed")
		err = &MutationError{Op: op, Err: err}
	}

	s.mu.Lock()
	s.mutationErr = err
	s.mu.Unlock()

	return err
}

// Days returns a copy of the held collection; empty, never nil.
func (s *Session) Days() []adhan.Day {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.days == nil {
		return []adhan.Day{}
	}
	return slices.Clone(s.days)
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	days := []adhan.Day{}
	if s.days != nil {
		days = slices.Clone(s.days)
	}
	return State{
		Days:        days,
		FetchErr:    s.fetchErr,
		MutationErr: s.mutationErr,
		Loading:     s.inflight > 0,
		FetchedAt:   s.fetchedAt,
	}
}

// Calendar flattens the held collection and builds the view model for now.
// With chronological set, events inside each day are sorted by time first.
func (s *Session) Calendar(now time.Time, loc *time.Location, chronological bool) (adhan.Calendar, error) {
	events, err := adhan.Flatten(s.Days(), loc)
	if err != nil {
		return adhan.BuildCalendar(nil, now, loc), err
	}
	if chronological {
		events = adhan.SortWithinDays(events)
	}
	return adhan.BuildCalendar(events, now, loc), nil
}
