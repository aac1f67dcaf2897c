package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/adhan-calendar/internal/config"
	"github.com/smokyabdulrahman/adhan-calendar/internal/display"
)

// ErrReported marks an error whose message has already been shown to the
// user next to the rendered output. The binary exits non-zero without
// printing it again.
var ErrReported = errors.New("already reported")

// Global flags shared across all subcommands.
var (
	FlagServer     string
	FlagJSON       bool
	FlagTimeFormat string
	FlagOrder      string
	FlagOffline    bool
	FlagCacheDir   string
	FlagVerbose    bool
)

// loadedConfig holds the config file contents read during PersistentPreRunE.
var loadedConfig *config.Config

// NewRootCmd creates the root command for the adhan CLI.
// The version parameter is set by the calling binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "adhan",
		Short:   "Adhan calendar CLI",
		Long:    "Show and manage the adhan calendar served by an adhan playback backend.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			loadedConfig = cfg

			logger := newLogger(cmd)
			cmd.SetContext(logger.WithContext(cmd.Context()))
			return nil
		},
		// Default action: show the calendar.
		RunE:          runCalendar,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Register global persistent flags.
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&FlagServer, "server", "", "Backend base URL (default: http://127.0.0.1:3000)")
	pf.BoolVar(&FlagJSON, "json", false, "Output as JSON (where supported)")
	pf.StringVar(&FlagTimeFormat, "time-format", "", "Time format: 12h or 24h (overrides config)")
	pf.StringVar(&FlagOrder, "order", "", "Event order within a day: server or chronological")
	pf.BoolVar(&FlagOffline, "offline", false, "Render the last cached calendar without contacting the backend")
	pf.StringVar(&FlagCacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/adhan-calendar/)")
	pf.BoolVarP(&FlagVerbose, "verbose", "v", false, "Log requests and refreshes to stderr")

	// Register subcommands.
	rootCmd.AddCommand(newCalendarCmd())
	rootCmd.AddCommand(newNextCmd())
	rootCmd.AddCommand(newSwitchCmd("on", true))
	rootCmd.AddCommand(newSwitchCmd("off", false))
	rootCmd.AddCommand(newSetCmd())
	rootCmd.AddCommand(newToggleCmd())
	rootCmd.AddCommand(newTestCmd())
	rootCmd.AddCommand(newHaltCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// PrintVersion prints the version string in the expected format.
func PrintVersion(version string) string {
	return fmt.Sprintf("adhan %s\n", version)
}

// newLogger writes human-readable logs to the command's stderr. The level is
// warn unless ADHAN_LOG_LEVEL or --verbose says otherwise.
func newLogger(cmd *cobra.Command) zerolog.Logger {
	level := zerolog.WarnLevel
	if v := os.Getenv("ADHAN_LOG_LEVEL"); v != "" {
		if l, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = l
		}
	}
	if FlagVerbose {
		level = zerolog.DebugLevel
	}

	out := zerolog.ConsoleWriter{
		Out:        cmd.ErrOrStderr(),
		TimeFormat: time.Kitchen,
		NoColor:    !display.Enabled(),
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// effectiveConfig returns the merged configuration values,
// applying the priority: CLI flags > environment > config file > defaults.
// It uses cobra's Changed() to detect whether a flag was explicitly set.
func effectiveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Defaults()
	if loadedConfig != nil {
		cfg = cfg.Merge(*loadedConfig)
	}
	cfg = cfg.Merge(config.FromEnv(os.LookupEnv))

	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	var fromFlags config.Config
	if flagWasSet(flags, root, "server") {
		fromFlags.ServerURL = strings.TrimRight(FlagServer, "/")
	}
	if flagWasSet(flags, root, "time-format") {
		fromFlags.TimeFormat = FlagTimeFormat
	}
	if flagWasSet(flags, root, "order") {
		fromFlags.Order = FlagOrder
	}
	if flagWasSet(flags, root, "cache-dir") {
		fromFlags.CacheDir = FlagCacheDir
	}
	cfg = cfg.Merge(fromFlags)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// flagWasSet checks if a flag was explicitly set on either the local or persistent flag set.
func flagWasSet(local, persistent *pflag.FlagSet, name string) bool {
	if f := local.Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := persistent.Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}
