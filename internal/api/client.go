// Package api is the HTTP client for the adhan backend: listing the prayer
// calendar, flipping play_adhan flags, and the test-play/halt controls.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/adhan-calendar/internal/adhan"
)

// DefaultBaseURL is where the backend listens out of the box.
const DefaultBaseURL = "http://127.0.0.1:3000"

const defaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a failed response body ends up in an error.
const maxErrorBody = 512

// ErrMalformedResponse wraps any GET /timings body that is not a valid list of days.
var ErrMalformedResponse = errors.New("malformed response")

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: backend returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: backend returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Client talks to the adhan backend.
type Client struct {
	httpClient *http.Client
	validate   *validator.Validate
	// BaseURL is the backend root, e.g. "http://127.0.0.1:3000".
	// Exported for testing with httptest.
	BaseURL string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithValidator replaces the validator used on decoded days.
func WithValidator(v *validator.Validate) Option {
	return func(c *Client) { c.validate = v }
}

// NewClient creates a client for the backend at baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		BaseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.validate == nil {
		c.validate = NewValidator()
	}
	return c
}

type playAdhanBody struct {
	PlayAdhan bool `json:"play_adhan"`
}

// ListTimings fetches every prayer day the backend holds (GET /timings).
// A null body is an empty calendar.
func (c *Client) ListTimings(ctx context.Context) ([]adhan.Day, error) {
	body, err := c.do(ctx, "list timings", http.MethodGet, "/timings", nil)
	if err != nil {
		return nil, err
	}

	var days []adhan.Day
	if err := json.Unmarshal(body, &days); err != nil {
		return nil, fmt.Errorf("list timings: %w: %v", ErrMalformedResponse, err)
	}
	if days == nil {
		days = []adhan.Day{}
	}

	for i := range days {
		if err := c.validate.Struct(days[i]); err != nil {
			return nil, fmt.Errorf("list timings: %w: day %d (%q): %v", ErrMalformedResponse, i, days[i].Date, err)
		}
	}

	return days, nil
}

// SetAll sets play_adhan for every adhan of every day (POST /timings).
func (c *Client) SetAll(ctx context.Context, play bool) error {
	_, err := c.do(ctx, "set all adhans", http.MethodPost, "/timings", playAdhanBody{PlayAdhan: play})
	return err
}

// Set sets play_adhan for one adhan on one day (PUT /timings/{date}/{adhan}).
func (c *Client) Set(ctx context.Context, date string, name adhan.Name, play bool) error {
	if _, err := time.Parse(adhan.DateLayout, date); err != nil {
		return fmt.Errorf("set adhan: invalid date %q: %w", date, err)
	}
	if !name.Valid() {
		return fmt.Errorf("set adhan: %w: %q", adhan.ErrUnknownName, name)
	}

	path := "/timings/" + url.PathEscape(date) + "/" + url.PathEscape(string(name))
	_, err := c.do(ctx, "set adhan", http.MethodPut, path, playAdhanBody{PlayAdhan: play})
	return err
}

// Play asks the backend to play the test adhan (POST /play).
func (c *Client) Play(ctx context.Context) error {
	_, err := c.do(ctx, "play", http.MethodPost, "/play", nil)
	return err
}

// Halt stops any adhan currently playing (POST /halt).
func (c *Client) Halt(ctx context.Context) error {
	_, err := c.do(ctx, "halt", http.MethodPost, "/halt", nil)
	return err
}

// do sends one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	logger := zerolog.Ctx(ctx).With().Str("op", op).Str("method", method).Str("path", path).Logger()

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodGet {
		req.Header.Set("Accept", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug().Err(err).Msg("request failed")
		return nil, fmt.Errorf("%s: api request failed: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", op, err)
	}

	logger.Debug().
		Int("status_code", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request done")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: msg}
	}

	return body, nil
}
