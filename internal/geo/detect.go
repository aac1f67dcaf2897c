// Package geo finds the city the stub server is running in, so it can seed
// the real Al Adhan calendar without being told where it is.
package geo

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// DefaultURL is the ip-api.com endpoint; free and keyless.
const DefaultURL = "http://ip-api.com/json/?fields=status,message,lat,lon,city,country,timezone"

// Location is where the caller's public IP resolves to.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Timezone  string  `json:"timezone"`
}

// TimeLocation loads the IANA zone of l, falling back to time.Local when the
// zone is missing or unknown.
func (l *Location) TimeLocation() *time.Location {
	if l.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ipAPIResponse maps the response from ip-api.com.
type ipAPIResponse struct {
	Location
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Detector resolves the public IP's location.
type Detector struct {
	URL        string
	httpClient *http.Client
}

// NewDetector returns a Detector for url, DefaultURL when empty.
func NewDetector(url string) *Detector {
	if url == "" {
		url = DefaultURL
	}
	return &Detector{
		URL:        url,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Detect looks up the caller's location.
func (d *Detector) Detect(ctx context.Context) (*Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geolocation request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geolocation API returned status %d", resp.StatusCode)
	}

	var result ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode geolocation response: %w", err)
	}

	if result.Status != "success" {
		return nil, fmt.Errorf("geolocation failed: %s", result.Message)
	}
	if result.City == "" || result.Country == "" {
		return nil, fmt.Errorf("geolocation returned no city")
	}

	zerolog.Ctx(ctx).Info().
		Str("city", result.City).
		Str("country", result.Country).
		Str("timezone", result.Timezone).
		Msg("location detected")

	loc := result.Location
	return &loc, nil
}
