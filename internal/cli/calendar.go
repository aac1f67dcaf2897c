package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/adhan-calendar/internal/adhan"
	"github.com/smokyabdulrahman/adhan-calendar/internal/api"
	"github.com/smokyabdulrahman/adhan-calendar/internal/cache"
	"github.com/smokyabdulrahman/adhan-calendar/internal/config"
	"github.com/smokyabdulrahman/adhan-calendar/internal/display"
	"github.com/smokyabdulrahman/adhan-calendar/internal/session"
)

// errOffline is returned for mutations attempted with --offline.
var errOffline = errors.New("not available with --offline")

// now is the clock used for rendering; tests pin it.
var now = time.Now

func newCalendarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calendar",
		Short: "Show the adhan calendar (default)",
		Long:  "Fetch every upcoming day from the backend and show each adhan with its time and whether it will play.",
		Args:  cobra.NoArgs,
		RunE:  runCalendar,
	}
}

func runCalendar(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}

	env, err := openSession(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	_ = env.sess.Refresh(cmd.Context())
	return env.render(cmd, nil)
}

// sessionEnv bundles a session with the pieces needed to render it.
type sessionEnv struct {
	cfg   config.Config
	sess  *session.Session
	cache *cache.Cache
	// snapshot is set in offline mode.
	snapshot *cache.Snapshot
}

// openSession builds the session for cfg: against the backend, or against the
// cached snapshot when --offline is set.
func openSession(ctx context.Context, cfg config.Config) (*sessionEnv, error) {
	logger := zerolog.Ctx(ctx)

	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		// Cache init failure is non-fatal; we just skip caching.
		c = nil
		logger.Warn().Err(err).Msg("cache disabled")
	}

	env := &sessionEnv{cfg: cfg, cache: c}

	if FlagOffline {
		if c != nil {
			env.snapshot = c.LoadTimings(cfg.ServerURL)
		}
		if env.snapshot == nil {
			return nil, fmt.Errorf("no cached calendar for %s; run once without --offline", cfg.ServerURL)
		}
		env.sess = session.New(snapshotBackend{days: env.snapshot.Days})
		return env, nil
	}

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	client := api.NewClient(cfg.ServerURL, api.WithTimeout(timeout))
	env.sess = session.New(client)
	return env, nil
}

// render prints the calendar held by the session, followed by any error the
// session recorded. opErr is the result of the operation that preceded the
// render; when it or the session carries an error the returned error wraps
// ErrReported.
func (e *sessionEnv) render(cmd *cobra.Command, opErr error) error {
	state := e.sess.State()
	out := cmd.OutOrStdout()
	t := now()

	if state.FetchErr == nil && e.snapshot == nil && e.cache != nil {
		if err := e.cache.SaveTimings(e.cfg.ServerURL, state.Days, state.FetchedAt); err != nil {
			zerolog.Ctx(cmd.Context()).Warn().Err(err).Msg("failed to cache calendar")
		}
	}

	cal, parseErr := e.sess.Calendar(t, time.Local, e.cfg.Chronological())

	problems := make([]error, 0, 3)
	for _, err := range []error{state.MutationErr, state.FetchErr, parseErr} {
		if err != nil {
			problems = append(problems, err)
		}
	}
	if opErr != nil && len(problems) == 0 {
		problems = append(problems, opErr)
	}

	if FlagJSON {
		if err := printCalendarJSON(out, cal, problems, e.snapshot); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, display.RenderCalendar(cal, adhan.TimeLayout(e.cfg.TimeFormat)))
		if e.snapshot != nil {
			fmt.Fprintf(out, "\n  %s\n", display.Dim(fmt.Sprintf("offline: cached %s ago", adhan.FormatRemaining(e.snapshot.Age(t)))))
		}
		for _, p := range problems {
			fmt.Fprintf(out, "\n  %s\n", display.Errorf("%v", p))
		}
		fmt.Fprintln(out)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrReported, errors.Join(problems...))
	}
	return nil
}

// calendarJSON is the JSON output structure for the calendar.
type calendarJSON struct {
	Month    string      `json:"month"`
	Next     *adhan.Row  `json:"next"`
	Rows     []adhan.Row `json:"rows"`
	Offline  bool        `json:"offline,omitempty"`
	CachedAt *time.Time  `json:"cached_at,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

func printCalendarJSON(w io.Writer, cal adhan.Calendar, problems []error, snap *cache.Snapshot) error {
	out := calendarJSON{
		Month: cal.Month,
		Rows:  cal.Rows,
	}
	if cal.Next != adhan.NotFound {
		next := cal.Rows[cal.Next]
		out.Next = &next
	}
	if snap != nil {
		out.Offline = true
		out.CachedAt = &snap.FetchedAt
	}
	for _, p := range problems {
		out.Errors = append(out.Errors, p.Error())
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// snapshotBackend serves a cached calendar and refuses every mutation.
type snapshotBackend struct {
	days []adhan.Day
}

var _ session.Backend = snapshotBackend{}

func (b snapshotBackend) ListTimings(context.Context) ([]adhan.Day, error) {
	return b.days, nil
}

func (snapshotBackend) SetAll(context.Context, bool) error { return errOffline }

func (snapshotBackend) Set(context.Context, string, adhan.Name, bool) error { return errOffline }

func (snapshotBackend) Play(context.Context) error { return errOffline }

func (snapshotBackend) Halt(context.Context) error { return errOffline }
