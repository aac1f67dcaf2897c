// Package stubserver is an in-memory implementation of the adhan backend's
// HTTP contract, for local development and integration tests. Play and halt
// requests are surfaced as signals instead of audio.
package stubserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/adhan-calendar/internal/adhan"
)

// Signal is a playback command received on /play or /halt.
type Signal string

const (
	SignalPlay Signal = "play"
	SignalHalt Signal = "halt"
)

const defaultSignalBuffer = 16

// Options configures a Server.
type Options struct {
	// AllowedOrigins enables CORS for these origins. Empty disables CORS.
	AllowedOrigins []string
	// SignalBuffer is the capacity of the signal channel.
	SignalBuffer int
}

// Server serves the backend contract over a Store.
type Server struct {
	store    *Store
	validate *validator.Validate
	signals  chan Signal
	router   *chi.Mux
}

// New builds the router for store.
func New(store *Store, opts Options) *Server {
	if opts.SignalBuffer <= 0 {
		opts.SignalBuffer = defaultSignalBuffer
	}

	s := &Server{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		signals:  make(chan Signal, opts.SignalBuffer),
		router:   chi.NewRouter(),
	}

	s.router.Use(chiMiddleware.CleanPath)
	s.router.Use(chiMiddleware.RealIP)
	s.router.Use(Logger)
	s.router.Use(chiMiddleware.Recoverer)

	if len(opts.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "PUT", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "Origin"},
			MaxAge:         300,
		}))
	}
	s.router.Use(chiMiddleware.Heartbeat("/ping"))

	s.router.Get("/health", s.health)
	s.router.Get("/timings", s.listTimings)
	s.router.Post("/timings", s.setAll)
	s.router.Put("/timings/{date}/{adhan}", s.setOne)
	s.router.Post("/play", s.play)
	s.router.Post("/halt", s.halt)

	return s
}

// ServeHTTP makes the Server an http.Handler.
func (s *Server) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(res, req)
}

// Signals delivers play and halt commands in arrival order.
func (s *Server) Signals() <-chan Signal {
	return s.signals
}

type playAdhanRequest struct {
	PlayAdhan *bool `json:"play_adhan" validate:"required"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func (s *Server) health(res http.ResponseWriter, req *http.Request) {
	if err := sendJSON(res, http.StatusOK, statusResponse{Status: "up"}); err != nil {
		log.Ctx(req.Context()).Error().Err(err).Caller().Msg("failed to send health response")
	}
}

func (s *Server) listTimings(res http.ResponseWriter, req *http.Request) {
	logger := log.Ctx(req.Context()).With().Logger()

	days := s.store.List()
	if err := sendJSON(res, http.StatusOK, days); err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to send timings")
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger.Info().Int("status_code", http.StatusOK).Int("days", len(days)).Msg("listed timings")
}

func (s *Server) setAll(res http.ResponseWriter, req *http.Request) {
	logger := log.Ctx(req.Context()).With().Logger()

	var body playAdhanRequest
	if err := decodeAndValidate(req, s.validate, &body); err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusBadRequest).Msg("invalid request body")
		http.Error(res, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	s.store.SetAll(*body.PlayAdhan)

	if err := sendJSON(res, http.StatusOK, statusResponse{Status: "success"}); err != nil {
		logger.Error().Err(err).Caller().Msg("failed to send success response")
		return
	}

	logger.Info().Int("status_code", http.StatusOK).Bool("play_adhan", *body.PlayAdhan).Msg("set every adhan")
}

func (s *Server) setOne(res http.ResponseWriter, req *http.Request) {
	logger := log.Ctx(req.Context()).With().Logger()

	var body playAdhanRequest
	if err := decodeAndValidate(req, s.validate, &body); err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusBadRequest).Msg("invalid request body")
		http.Error(res, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	date := chi.URLParam(req, "date")
	if _, ok := s.store.Get(date); !ok {
		logger.Error().Str("date", date).Int("status_code", http.StatusNotFound).Msg("day not found")
		http.Error(res, "failed", http.StatusNotFound)
		return
	}

	name, err := adhan.ParseName(chi.URLParam(req, "adhan"))
	if err != nil {
		logger.Error().Err(err).Int("status_code", http.StatusBadRequest).Msg("invalid adhan name")
		http.Error(res, "invalid prayer name", http.StatusBadRequest)
		return
	}

	if err := s.store.Set(date, name, *body.PlayAdhan); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrDayNotFound) {
			status = http.StatusNotFound
		}
		logger.Error().Err(err).Caller().Int("status_code", status).Msg("failed to set adhan")
		http.Error(res, http.StatusText(status), status)
		return
	}

	res.Header().Set("Content-Type", "text/plain; charset=utf-8")
	res.WriteHeader(http.StatusAccepted)
	res.Write([]byte("success"))

	logger.Info().
		Int("status_code", http.StatusAccepted).
		Str("date", date).
		Str("adhan", string(name)).
		Bool("play_adhan", *body.PlayAdhan).
		Msg("set adhan")
}

func (s *Server) play(res http.ResponseWriter, req *http.Request) {
	s.signal(res, req, SignalPlay)
}

func (s *Server) halt(res http.ResponseWriter, req *http.Request) {
	s.signal(res, req, SignalHalt)
}

// signal queues sig without blocking; a full buffer drops it.
func (s *Server) signal(res http.ResponseWriter, req *http.Request, sig Signal) {
	logger := log.Ctx(req.Context()).With().Str("signal", string(sig)).Logger()

	select {
	case s.signals <- sig:
		logger.Warn().Msg("playback signal queued")
	default:
		logger.Warn().Msg("signal buffer full, dropping")
	}

	res.WriteHeader(http.StatusAccepted)
}
