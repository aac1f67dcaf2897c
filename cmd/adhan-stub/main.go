package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/adhan-calendar/internal/adhan"
	"github.com/smokyabdulrahman/adhan-calendar/internal/aladhan"
	"github.com/smokyabdulrahman/adhan-calendar/internal/geo"
	"github.com/smokyabdulrahman/adhan-calendar/internal/stubserver"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
		return filepath.Base(file) + ":" + strconv.Itoa(line)
	}
	logger := log.With().Caller().Logger()

	env, err := stubserver.LoadEnv()
	if err != nil {
		logger.Fatal().Err(err).Send()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	days, err := seed(logger.WithContext(ctx), env)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to seed timings")
	}

	srv := stubserver.New(stubserver.NewStore(days...), stubserver.Options{
		AllowedOrigins: env.AllowedOrigins,
	})

	go func() {
		for sig := range srv.Signals() {
			logger.Warn().Str("signal", string(sig)).Msg("adhan playback")
		}
	}()

	httpServer := &http.Server{
		Addr:              env.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
	}()

	logger.Info().Str("addr", env.Addr).Int("days", len(days)).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Send()
	}
}

// seed picks the initial calendar: a JSON file, the Al Adhan calendar for a
// configured or detected city, or synthetic days from today.
func seed(ctx context.Context, env stubserver.Env) ([]adhan.Day, error) {
	switch {
	case env.SeedFile != "":
		data, err := os.ReadFile(env.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
		var days []adhan.Day
		if err := json.Unmarshal(data, &days); err != nil {
			return nil, fmt.Errorf("failed to decode seed file: %w", err)
		}
		return days, nil

	case strings.EqualFold(env.City, "auto"):
		where, err := geo.NewDetector("").Detect(ctx)
		if err != nil {
			return nil, err
		}
		return seedFromAlAdhan(ctx, where.City, where.Country, env.Method, where.TimeLocation())

	case env.City != "" && env.Country != "":
		return seedFromAlAdhan(ctx, env.City, env.Country, env.Method, time.Local)

	default:
		return stubserver.Seed(time.Now(), env.Days, time.Local), nil
	}
}

// seedFromAlAdhan loads this month's Al Adhan calendar for a city, trimmed to
// what is still ahead of now.
func seedFromAlAdhan(ctx context.Context, city, country string, method int, loc *time.Location) ([]adhan.Day, error) {
	now := time.Now().In(loc)
	resp, err := aladhan.NewClient().CalendarByCity(ctx, aladhan.Query{
		City:    city,
		Country: country,
		Year:    now.Year(),
		Month:   int(now.Month()),
		Method:  method,
	})
	if err != nil {
		return nil, err
	}
	days, err := aladhan.ToDays(resp)
	if err != nil {
		return nil, err
	}
	return aladhan.Upcoming(days, now, loc), nil
}
