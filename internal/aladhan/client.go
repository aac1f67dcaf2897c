// Package aladhan fetches monthly prayer calendars from the Al Adhan API and
// converts them into the backend's day records.
package aladhan

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/adhan-calendar/internal/adhan"
)

const defaultBaseURL = "https://api.aladhan.com/v1"

// Client communicates with the Al Adhan prayer times API.
type Client struct {
	httpClient *http.Client
	validate   *validator.Validate
	// BaseURL is the API base URL. Defaults to the Al Adhan API.
	// Exported for testing with httptest.
	BaseURL string
}

// NewClient creates a new API client with sensible defaults.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		BaseURL:  defaultBaseURL,
	}
}

// Query selects one month of timings for a city.
type Query struct {
	City    string `validate:"required"`
	Country string `validate:"required"`
	Year    int    `validate:"gte=1"`
	Month   int    `validate:"gte=1,lte=12"`
	// Method is the calculation method id; negative leaves it to the API.
	Method int
	// Tune shifts individual adhans by whole minutes.
	Tune map[adhan.Name]int
}

// tuneParam renders Tune in the API's order:
// Imsak, Fajr, Sunrise, Dhuhr, Asr, Maghrib, Sunset, Isha.
func (q Query) tuneParam() string {
	return fmt.Sprintf("0,%d,0,%d,%d,%d,0,%d",
		q.Tune[adhan.Fajr], q.Tune[adhan.Dhuhr], q.Tune[adhan.Asr], q.Tune[adhan.Maghrib], q.Tune[adhan.Isha])
}

// CalendarByCity fetches the month of timings q describes.
func (c *Client) CalendarByCity(ctx context.Context, q Query) (*CalendarResponse, error) {
	if err := c.validate.Struct(q); err != nil {
		return nil, fmt.Errorf("invalid calendar query: %w", err)
	}

	endpoint := fmt.Sprintf("%s/calendarByCity/%d/%d", c.BaseURL, q.Year, q.Month)

	params := url.Values{}
	params.Set("city", q.City)
	params.Set("country", q.Country)
	if q.Method >= 0 {
		params.Set("method", strconv.Itoa(q.Method))
	}
	if len(q.Tune) > 0 {
		params.Set("tune", q.tuneParam())
	}

	var resp CalendarResponse
	if err := c.doRequest(ctx, endpoint, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, out *CalendarResponse) error {
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build API request: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("url", reqURL).Msg("fetching al adhan calendar")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode API response: %w", err)
	}

	if out.Code != http.StatusOK {
		return fmt.Errorf("API error: code=%d status=%s", out.Code, out.Status)
	}

	return nil
}
