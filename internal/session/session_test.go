package session

import (
	"context"
	"errors"
	"net/http"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smokyabdulrahman/adhan-calendar/internal/adhan"
	"github.com/smokyabdulrahman/adhan-calendar/internal/api"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

type listReply struct {
	days []adhan.Day
	err  error
}

// fakeBackend keeps the calendar in memory and records every call. When
// gated, ListTimings blocks until the test answers on the channel it
// publishes through pending.
type fakeBackend struct {
	mu      sync.Mutex
	days    []adhan.Day
	calls   []string
	listErr error
	mutErr  error

	gated   bool
	pending chan chan listReply
}

func newFakeBackend(days ...adhan.Day) *fakeBackend {
	return &fakeBackend{days: days, pending: make(chan chan listReply)}
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeBackend) ListTimings(ctx context.Context) ([]adhan.Day, error) {
	f.record("list")

	if f.gated {
		reply := make(chan listReply, 1)
		f.pending <- reply
		r := <-reply
		return r.days, r.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return cloneDays(f.days), nil
}

func (f *fakeBackend) SetAll(ctx context.Context, play bool) error {
	f.record("set-all")

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutErr != nil {
		return f.mutErr
	}
	for i := range f.days {
		for name := range f.days[i].PlayAdhan {
			f.days[i].PlayAdhan[name] = play
		}
	}
	return nil
}

func (f *fakeBackend) Set(ctx context.Context, date string, name adhan.Name, play bool) error {
	f.record("set " + date + " " + string(name))

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutErr != nil {
		return f.mutErr
	}
	for i := range f.days {
		if f.days[i].Date == date {
			f.days[i].PlayAdhan[name] = play
			return nil
		}
	}
	return &api.StatusError{Op: "set adhan", StatusCode: http.StatusNotFound}
}

func (f *fakeBackend) Play(ctx context.Context) error {
	f.record("play")
	return f.mutErr
}

func (f *fakeBackend) Halt(ctx context.Context) error {
	f.record("halt")
	return f.mutErr
}

func cloneDays(days []adhan.Day) []adhan.Day {
	out := make([]adhan.Day, len(days))
	for i, d := range days {
		out[i] = d
		out[i].Timings = slices.Clone(d.Timings)
		out[i].PlayAdhan = make(map[adhan.Name]bool, len(d.PlayAdhan))
		for k, v := range d.PlayAdhan {
			out[i].PlayAdhan[k] = v
		}
	}
	return out
}

func sampleDay(date string, play bool) adhan.Day {
	flags := make(map[adhan.Name]bool, len(adhan.Names))
	for _, n := range adhan.Names {
		flags[n] = play
	}
	return adhan.Day{
		Date:      date,
		Timestamp: 1672257661,
		Timings: adhan.Timings{
			{Clock: "04:11:00", Label: adhan.Fajr},
			{Clock: "12:00:00", Label: adhan.Dhuhr},
			{Clock: "15:45:00", Label: adhan.Asr},
			{Clock: "20:30:00", Label: adhan.Maghrib},
			{Clock: "22:05:00", Label: adhan.Isha},
		},
		PlayAdhan: flags,
	}
}

func TestSession_Refresh(t *testing.T) {
	fetched := time.Date(2022, 12, 29, 9, 0, 0, 0, time.UTC)
	fb := newFakeBackend(sampleDay("2022-12-29", true), sampleDay("2022-12-30", true))
	s := New(fb, WithClock(func() time.Time { return fetched }))

	require.NoError(t, s.Refresh(context.Background()))

	st := s.State()
	assert.Len(t, st.Days, 2)
	assert.NoError(t, st.FetchErr)
	assert.False(t, st.Loading)
	assert.Equal(t, fetched, st.FetchedAt)
	assert.Equal(t, []string{"list"}, fb.Calls())
}

func TestSession_RefreshFailureClearsCollection(t *testing.T) {
	fb := newFakeBackend(sampleDay("2022-12-29", true))
	s := New(fb)
	require.NoError(t, s.Refresh(context.Background()))

	fb.listErr = errors.New("connection refused")
	err := s.Refresh(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, fb.listErr)

	st := s.State()
	assert.NotNil(t, st.Days)
	assert.Empty(t, st.Days)
	assert.ErrorIs(t, st.FetchErr, fb.listErr)

	cal, err := s.Calendar(time.Now(), time.UTC, false)
	require.NoError(t, err)
	assert.Empty(t, cal.Rows)
	assert.Equal(t, adhan.NotFound, cal.Next)
}

func TestSession_DaysNeverNil(t *testing.T) {
	s := New(newFakeBackend())

	assert.NotNil(t, s.Days())
	assert.NotNil(t, s.State().Days)
}

func TestSession_ToggleFlipsHeldFlag(t *testing.T) {
	fb := newFakeBackend(sampleDay("2022-12-29", true), sampleDay("2022-12-30", true))
	s := New(fb)
	ctx := context.Background()
	require.NoError(t, s.Refresh(ctx))

	require.NoError(t, s.Toggle(ctx, "2022-12-29", adhan.Fajr))

	assert.Equal(t, []string{"list", "set 2022-12-29 Fajr", "list"}, fb.Calls())

	now := time.Date(2022, 12, 29, 1, 0, 0, 0, time.UTC)
	cal, err := s.Calendar(now, time.UTC, false)
	require.NoError(t, err)
	require.Len(t, cal.Rows, 10)

	assert.Equal(t, adhan.Fajr, cal.Rows[0].Adhan)
	assert.False(t, cal.Rows[0].PlayAdhan)
	for _, row := range cal.Rows[1:] {
		assert.True(t, row.PlayAdhan, "%s %s", row.Date, row.Adhan)
	}

	// A second toggle turns it back on.
	require.NoError(t, s.Toggle(ctx, "2022-12-29", adhan.Fajr))
	assert.True(t, s.Days()[0].PlayAdhan[adhan.Fajr])
}

func TestSession_ToggleUnknownDay(t *testing.T) {
	fb := newFakeBackend(sampleDay("2022-12-29", true))
	s := New(fb)
	require.NoError(t, s.Refresh(context.Background()))

	err := s.Toggle(context.Background(), "1999-01-01", adhan.Asr)

	assert.ErrorIs(t, err, ErrUnknownDay)
	assert.Equal(t, []string{"list"}, fb.Calls())
}

func TestSession_SetAll(t *testing.T) {
	fb := newFakeBackend(sampleDay("2022-12-29", false), sampleDay("2022-12-30", false))
	s := New(fb)
	ctx := context.Background()

	require.NoError(t, s.SetAll(ctx, true))

	assert.Equal(t, []string{"set-all", "list"}, fb.Calls())

	events, err := adhan.Flatten(s.Days(), time.UTC)
	require.NoError(t, err)
	require.Len(t, events, 10)
	for _, e := range events {
		assert.True(t, e.PlayAdhan, "%s %s", e.Date, e.Adhan)
	}
}

func TestSession_FailedMutationStillRefetches(t *testing.T) {
	fb := newFakeBackend(sampleDay("2022-12-29", true))
	s := New(fb)
	ctx := context.Background()

	err := s.Set(ctx, "1999-01-01", adhan.Fajr, false)

	require.Error(t, err)
	var me *MutationError
	require.ErrorAs(t, err, &me)
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)

	assert.Equal(t, []string{"set 1999-01-01 Fajr", "list"}, fb.Calls())

	st := s.State()
	assert.Len(t, st.Days, 1)
	assert.NoError(t, st.FetchErr)
	assert.ErrorAs(t, st.MutationErr, &me)

	// The next successful mutation clears the mutation error.
	require.NoError(t, s.Set(ctx, "2022-12-29", adhan.Fajr, false))
	assert.NoError(t, s.State().MutationErr)
}

func TestSession_MutationAndRefetchBothFail(t *testing.T) {
	fb := newFakeBackend()
	fb.mutErr = errors.New("timeout")
	fb.listErr = errors.New("connection refused")
	s := New(fb)

	err := s.SetAll(context.Background(), false)

	var me *MutationError
	assert.ErrorAs(t, err, &me)
	assert.ErrorIs(t, err, fb.mutErr)
	assert.ErrorIs(t, err, fb.listErr)

	st := s.State()
	assert.Error(t, st.MutationErr)
	assert.Error(t, st.FetchErr)
}

func TestSession_PlayAndHaltDoNotRefetch(t *testing.T) {
	fb := newFakeBackend(sampleDay("2022-12-29", true))
	s := New(fb)
	ctx := context.Background()

	require.NoError(t, s.Play(ctx))
	require.NoError(t, s.Halt(ctx))

	assert.Equal(t, []string{"play", "halt"}, fb.Calls())

	fb.mutErr = errors.New("speaker busy")
	err := s.Play(ctx)
	var me *MutationError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "play", me.Op)
	assert.Equal(t, []string{"play", "halt", "play"}, fb.Calls())
}

// startRefresh runs Refresh in the background, waits until its ListTimings
// call is parked in the fake and returns the reply channel and result.
func startRefresh(t *testing.T, s *Session, fb *fakeBackend) (chan<- listReply, <-chan error) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- s.Refresh(context.Background()) }()

	select {
	case reply := <-fb.pending:
		return reply, done
	case <-time.After(5 * time.Second):
		t.Fatal("refresh never reached the backend")
		return nil, nil
	}
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("refresh did not complete")
		return nil
	}
}

func TestSession_LoadingWhileInFlight(t *testing.T) {
	fb := newFakeBackend()
	fb.gated = true
	s := New(fb)

	reply, done := startRefresh(t, s, fb)
	assert.True(t, s.State().Loading)

	reply <- listReply{days: []adhan.Day{sampleDay("2022-12-29", true)}}
	require.NoError(t, wait(t, done))
	assert.False(t, s.State().Loading)
}

func TestSession_StaleRefreshIsDiscarded(t *testing.T) {
	fb := newFakeBackend()
	fb.gated = true
	s := New(fb)

	older := []adhan.Day{sampleDay("2022-12-29", true)}
	newer := []adhan.Day{sampleDay("2022-12-29", false)}

	replyA, doneA := startRefresh(t, s, fb)
	replyB, doneB := startRefresh(t, s, fb)

	// The newer request answers first, the older one last.
	replyB <- listReply{days: newer}
	require.NoError(t, wait(t, doneB))
	replyA <- listReply{days: older}
	assert.ErrorIs(t, wait(t, doneA), ErrSuperseded)

	assert.False(t, s.Days()[0].PlayAdhan[adhan.Fajr], "older response overwrote newer state")
	assert.False(t, s.State().Loading)
}

func TestSession_StaleFailureIsDiscarded(t *testing.T) {
	fb := newFakeBackend()
	fb.gated = true
	s := New(fb)

	replyA, doneA := startRefresh(t, s, fb)
	replyB, doneB := startRefresh(t, s, fb)

	replyB <- listReply{days: []adhan.Day{sampleDay("2022-12-29", true)}}
	require.NoError(t, wait(t, doneB))
	replyA <- listReply{err: errors.New("timeout")}
	assert.ErrorIs(t, wait(t, doneA), ErrSuperseded)

	st := s.State()
	assert.NoError(t, st.FetchErr)
	assert.Len(t, st.Days, 1)
}

func TestSession_LastResolvedWinsShowsTheRace(t *testing.T) {
	fb := newFakeBackend()
	fb.gated = true
	s := New(fb, WithLastResolvedWins())

	older := []adhan.Day{sampleDay("2022-12-29", true)}
	newer := []adhan.Day{sampleDay("2022-12-29", false)}

	replyA, doneA := startRefresh(t, s, fb)
	replyB, doneB := startRefresh(t, s, fb)

	replyB <- listReply{days: newer}
	require.NoError(t, wait(t, doneB))
	replyA <- listReply{days: older}
	require.NoError(t, wait(t, doneA))

	// The late, older response is what the view now shows.
	assert.True(t, s.Days()[0].PlayAdhan[adhan.Fajr])
}

func TestSession_CalendarChronological(t *testing.T) {
	day := adhan.Day{
		Date: "2022-12-29",
		Timings: adhan.Timings{
			{Clock: "22:05:00", Label: adhan.Isha},
			{Clock: "04:11:00", Label: adhan.Fajr},
		},
	}
	fb := newFakeBackend(day)
	s := New(fb)
	require.NoError(t, s.Refresh(context.Background()))
	now := time.Date(2022, 12, 29, 1, 0, 0, 0, time.UTC)

	asServed, err := s.Calendar(now, time.UTC, false)
	require.NoError(t, err)
	require.Len(t, asServed.Rows, 2)
	assert.Equal(t, adhan.Isha, asServed.Rows[0].Adhan)
	assert.Equal(t, 0, asServed.Next)

	sorted, err := s.Calendar(now, time.UTC, true)
	require.NoError(t, err)
	assert.Equal(t, adhan.Fajr, sorted.Rows[0].Adhan)
	assert.Equal(t, 0, sorted.Next)
}

func TestSession_CalendarParseError(t *testing.T) {
	day := adhan.Day{Date: "2022-12-29", Timings: adhan.Timings{{Clock: "noon", Label: adhan.Dhuhr}}}
	s := New(newFakeBackend(day))
	require.NoError(t, s.Refresh(context.Background()))

	cal, err := s.Calendar(time.Now(), time.UTC, false)

	var pe *adhan.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "noon", pe.Clock)
	assert.Empty(t, cal.Rows)
}
