package cli

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/adhan-calendar/internal/adhan"
)

var flagFormat string

func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next adhan with countdown",
		Long:  "Display the next upcoming adhan across the whole calendar with a countdown.",
		Args:  cobra.NoArgs,
		RunE:  runNext,
	}

	cmd.Flags().StringVar(&flagFormat, "format", adhan.FormatNameAndTime, "Display format (overrides config): time-remaining, next-adhan-time, name-and-time, name-and-remaining, short-name-and-time, short-name-and-remaining, full, or a custom Go template")

	return cmd
}

// nextJSON is the JSON output structure for the next command.
type nextJSON struct {
	Adhan     adhan.Name `json:"adhan"`
	Date      string     `json:"date"`
	Time      string     `json:"time"`
	Remaining string     `json:"remaining"`
	PlayAdhan bool       `json:"play_adhan"`
}

func runNext(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}

	env, err := openSession(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if err := env.sess.Refresh(cmd.Context()); err != nil {
		return err
	}

	t := now()
	cal, err := env.sess.Calendar(t, time.Local, cfg.Chronological())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if cal.Next == adhan.NotFound {
		if FlagJSON {
			fmt.Fprintln(out, "null")
			return nil
		}
		fmt.Fprintln(out, "No upcoming adhan in the calendar.")
		return nil
	}

	next := cal.Rows[cal.Next].Event
	layout := adhan.TimeLayout(cfg.TimeFormat)

	if FlagJSON {
		data, err := json.MarshalIndent(nextJSON{
			Adhan:     next.Adhan,
			Date:      next.Date,
			Time:      next.Datetime.Format(layout),
			Remaining: adhan.FormatRemaining(adhan.TimeRemaining(next, t)),
			PlayAdhan: next.PlayAdhan,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	format := flagFormat
	if !cmd.Flags().Changed("format") && cfg.Format != "" {
		format = cfg.Format
	}
	fmt.Fprintln(out, adhan.FormatOutput(next, t, format, layout))
	return nil
}
