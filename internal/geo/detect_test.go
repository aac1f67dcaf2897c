package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func serve(t *testing.T, status int, body string) *Detector {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return NewDetector(server.URL)
}

func TestDetect_Success(t *testing.T) {
	d := serve(t, http.StatusOK, `{"status":"success","lat":-36.8485,"lon":174.7633,"city":"Auckland","country":"New Zealand","timezone":"Pacific/Auckland"}`)

	loc, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Location{Latitude: -36.8485, Longitude: 174.7633, City: "Auckland", Country: "New Zealand", Timezone: "Pacific/Auckland"}
	if *loc != want {
		t.Errorf("Detect() = %+v, want %+v", *loc, want)
	}
	if got := loc.TimeLocation().String(); got != "Pacific/Auckland" {
		t.Errorf("TimeLocation() = %q", got)
	}
}

func TestDetect_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"api failure status", http.StatusOK, `{"status":"fail","message":"reserved range"}`, "reserved range"},
		{"http error", http.StatusInternalServerError, `internal error`, "500"},
		{"invalid json", http.StatusOK, `not json at all`, "decode"},
		{"no city", http.StatusOK, `{"status":"success","lat":1,"lon":2}`, "no city"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := serve(t, tt.status, tt.body).Detect(context.Background())
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestDetect_ConnectionRefused(t *testing.T) {
	d := NewDetector("http://127.0.0.1:1") // nothing listening

	if _, err := d.Detect(context.Background()); err == nil {
		t.Fatal("expected error for connection refused, got nil")
	}
}

func TestNewDetector_DefaultURL(t *testing.T) {
	if d := NewDetector(""); d.URL != DefaultURL {
		t.Errorf("URL = %q, want %q", d.URL, DefaultURL)
	}
}

func TestTimeLocation_Fallback(t *testing.T) {
	for _, tz := range []string{"", "Mars/Olympus"} {
		l := Location{Timezone: tz}
		if l.TimeLocation() != time.Local {
			t.Errorf("TimeLocation(%q) should fall back to time.Local", tz)
		}
	}
}
