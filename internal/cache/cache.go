// Package cache keeps the last successfully fetched calendar on disk so the
// CLI can render it with --offline.
package cache

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/smokyabdulrahman/adhan-calendar/internal/adhan"
)

const snapshotFile = "timings_%s.json" // keyed by server hash

// Cache provides file-based snapshots of GET /timings, one per server.
type Cache struct {
	dir string
}

// Snapshot is one cached GET /timings result.
type Snapshot struct {
	Server    string      `json:"server"`
	FetchedAt time.Time   `json:"fetched_at"`
	Days      []adhan.Day `json:"days"`
}

// Age is how old the snapshot is at now.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}

// New creates a Cache rooted at the given directory.
// If dir is empty, it defaults to ~/.cache/adhan-calendar/.
func New(dir string) (*Cache, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".cache", "adhan-calendar")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}

	return &Cache{dir: dir}, nil
}

// cacheKey hashes the server URL so each backend gets its own file.
func cacheKey(server string) string {
	h := sha256.Sum256([]byte(server))
	return fmt.Sprintf("%x", h[:8])
}

func (c *Cache) path(server string) string {
	return filepath.Join(c.dir, fmt.Sprintf(snapshotFile, cacheKey(server)))
}

// LoadTimings returns the snapshot saved for server, or nil when there is
// none or it cannot be read.
func (c *Cache) LoadTimings(server string) *Snapshot {
	data, err := os.ReadFile(c.path(server))
	if err != nil {
		return nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil
	}

	// Guard against a hash collision or a hand-edited file.
	if snap.Server != server {
		return nil
	}
	if snap.Days == nil {
		snap.Days = []adhan.Day{}
	}

	return &snap
}

// SaveTimings writes days as the snapshot for server.
func (c *Cache) SaveTimings(server string, days []adhan.Day, fetchedAt time.Time) error {
	snap := Snapshot{
		Server:    server,
		FetchedAt: fetchedAt,
		Days:      days,
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := os.WriteFile(c.path(server), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}
