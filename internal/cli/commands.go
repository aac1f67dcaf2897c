package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/adhan-calendar/internal/adhan"
	"github.com/smokyabdulrahman/adhan-calendar/internal/config"
	"github.com/smokyabdulrahman/adhan-calendar/internal/display"
	"github.com/smokyabdulrahman/adhan-calendar/internal/session"
)

// runMutation sends one mutation through a fresh session, then renders the
// calendar the session refetched afterwards.
func runMutation(cmd *cobra.Command, op func(context.Context, *session.Session) error) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}

	env, err := openSession(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	opErr := op(cmd.Context(), env.sess)
	return env.render(cmd, opErr)
}

func newSwitchCmd(use string, play bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Turn every adhan %s", use),
		Long:  fmt.Sprintf("Set play_adhan to %t for every adhan on every day, then show the refreshed calendar.", play),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMutation(cmd, func(ctx context.Context, s *session.Session) error {
				return s.SetAll(ctx, play)
			})
		},
	}
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <date> <adhan> <on|off>",
		Short: "Turn one adhan on or off",
		Long:  "Set play_adhan for one adhan on one day, then show the refreshed calendar.\n\nExample:\n  adhan set 2022-12-29 fajr off",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, name, err := parseTarget(args[0], args[1])
			if err != nil {
				return err
			}
			play, err := parseSwitch(args[2])
			if err != nil {
				return err
			}
			return runMutation(cmd, func(ctx context.Context, s *session.Session) error {
				return s.Set(ctx, date, name, play)
			})
		},
	}
}

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <date> <adhan>",
		Short: "Flip one adhan's play flag",
		Long:  "Fetch the calendar, send the opposite of the current play_adhan flag for one adhan, then show the refreshed calendar.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, name, err := parseTarget(args[0], args[1])
			if err != nil {
				return err
			}
			return runMutation(cmd, func(ctx context.Context, s *session.Session) error {
				if err := s.Refresh(ctx); err != nil {
					return err
				}
				return s.Toggle(ctx, date, name)
			})
		},
	}
}

func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Play the test adhan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignal(cmd, "Test adhan requested.", (*session.Session).Play)
		},
	}
}

func newHaltCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "halt",
		Short: "Stop adhan playback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignal(cmd, "Playback halted.", (*session.Session).Halt)
		},
	}
}

// runSignal fires a request that does not change the calendar; nothing is
// refetched.
func runSignal(cmd *cobra.Command, done string, send func(*session.Session, context.Context) error) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}

	env, err := openSession(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if err := send(env.sess, cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), done)
	return nil
}

// parseTarget validates a date and adhan name given on the command line.
func parseTarget(date, name string) (string, adhan.Name, error) {
	if _, err := time.Parse(adhan.DateLayout, date); err != nil {
		return "", "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
	}
	n, err := adhan.ParseName(name)
	if err != nil {
		return "", "", err
	}
	return date, n, nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid state %q: want on or off", s)
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or modify configuration",
		Long:  "Display current configuration, or use subcommands to modify it.\nWhen run without subcommands, shows the current configuration.",
		RunE:  runConfigShow,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value",
		Long: fmt.Sprintf("Set a configuration value. Valid keys: %s\n\nExamples:\n  adhan config set server_url http://raspberrypi.local:3000\n  adhan config set time_format 24h\n  adhan config set order chronological\n  adhan config set timeout 5s",
			strings.Join(config.ValidKeys, ", ")),
		Args: cobra.ExactArgs(2),
		RunE: runConfigSet,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset config to defaults",
		Long:  "Delete the config file and restore all settings to defaults.",
		RunE:  runConfigReset,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print config file path",
		RunE:  runConfigPath,
	})

	return cmd
}

// runConfigShow displays the config file values next to the defaults.
func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	defaults := config.Defaults()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  Configuration (%s)\n\n", path)

	for _, key := range config.ValidKeys {
		val, _ := cfg.Get(key)
		shown := val
		if shown == "" {
			shown = display.Dim("(not set)")
			if def, _ := defaults.Get(key); def != "" {
				shown = display.Dim(fmt.Sprintf("(default: %s)", def))
			}
		}
		fmt.Fprintf(out, "  %-12s %s\n", key, shown)
	}
	return nil
}

// runConfigSet sets a config key to the given value.
func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}

	if err := cfg.Save(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
	return nil
}

// runConfigReset deletes the config file.
func runConfigReset(cmd *cobra.Command, args []string) error {
	if err := config.Reset(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Configuration reset to defaults.")
	return nil
}

// runConfigPath prints the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
