package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/adhan-calendar/internal/adhan"
	"github.com/smokyabdulrahman/adhan-calendar/internal/api"
	"github.com/smokyabdulrahman/adhan-calendar/internal/config"
	"github.com/smokyabdulrahman/adhan-calendar/internal/session"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=v1.0.0"
var version = "dev"

const (
	// placeholder is printed when there is nothing to show.
	placeholder = "--:--"
	mutedMarker = " (off)"
)

type options struct {
	server        string
	format        string
	timeFormat    string
	chronological bool
	timeout       time.Duration
	showVersion   bool
}

func main() {
	_ = config.LoadDotEnv()

	opts, err := parseOptions(os.Args[1:], baseConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	if opts.showVersion {
		fmt.Printf("tmux-adhan %s\n", version)
		return
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).
		Level(zerolog.WarnLevel).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	if err := run(ctx, opts, os.Stdout, time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// baseConfig layers the config file and environment over the defaults. A
// broken config file falls back to the defaults; the status line must render.
func baseConfig() config.Config {
	cfg := config.Defaults()
	if file, err := config.Load(); err == nil {
		cfg = cfg.Merge(*file)
	}
	return cfg.Merge(config.FromEnv(os.LookupEnv))
}

func parseOptions(args []string, cfg config.Config) (options, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil || timeout <= 0 {
		timeout = 5 * time.Second
	}

	var opts options
	fs := pflag.NewFlagSet("tmux-adhan", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.server, "server", cfg.ServerURL, "Backend base URL")
	fs.StringVar(&opts.format, "format", cfg.Format, "Display format: time-remaining, next-adhan-time, name-and-time, name-and-remaining, short-name-and-time, short-name-and-remaining, full, or a custom Go template (e.g. '{{.Name}} in {{.Remaining}}'). Template fields: .Name, .ShortName, .Date, .Time, .Remaining, .Hours, .Minutes, .Enabled")
	fs.StringVar(&opts.timeFormat, "time-format", cfg.TimeFormat, "Time format: 12h or 24h")
	fs.BoolVar(&opts.chronological, "chronological", cfg.Chronological(), "Sort events within each day by time")
	fs.DurationVar(&opts.timeout, "timeout", timeout, "Request timeout")
	fs.BoolVar(&opts.showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.timeFormat != "12h" && opts.timeFormat != "24h" {
		return options{}, fmt.Errorf("invalid --time-format %q: want 12h or 24h", opts.timeFormat)
	}
	opts.server = strings.TrimRight(opts.server, "/")
	return opts, nil
}

// run prints the next adhan across the whole calendar. Fetch failures and an
// exhausted calendar print the placeholder instead of failing, so the status
// bar keeps a stable width.
func run(ctx context.Context, opts options, w io.Writer, now time.Time) error {
	sess := session.New(api.NewClient(opts.server, api.WithTimeout(opts.timeout)))

	if err := sess.Refresh(ctx); err != nil {
		_, err = fmt.Fprint(w, placeholder)
		return err
	}

	cal, err := sess.Calendar(now, time.Local, opts.chronological)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("unreadable calendar")
		_, err = fmt.Fprint(w, placeholder)
		return err
	}
	if cal.Next == adhan.NotFound {
		_, err = fmt.Fprint(w, placeholder)
		return err
	}

	next := cal.Rows[cal.Next].Event
	out := adhan.FormatOutput(next, now, opts.format, adhan.TimeLayout(opts.timeFormat))
	if !next.PlayAdhan {
		out += mutedMarker
	}

	_, err = fmt.Fprint(w, out)
	return err
}
