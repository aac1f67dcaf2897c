// Package config provides persistent configuration for the adhan CLI.
//
// Configuration is stored as JSON at ~/.config/adhan-calendar/config.json
// (XDG-compliant). The merge priority is: CLI flags > environment (and .env)
// > config file > defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
)

const (
	configDirName  = "adhan-calendar"
	configFileName = "config.json"
)

// Order values.
const (
	OrderServer        = "server"
	OrderChronological = "chronological"
)

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"server_url",
	"time_format",
	"order",
	"format",
	"timeout",
	"cache_dir",
}

// envKeys maps config keys to the environment variables that override them.
var envKeys = map[string]string{
	"server_url":  "ADHAN_SERVER_URL",
	"time_format": "ADHAN_TIME_FORMAT",
	"order":       "ADHAN_ORDER",
	"format":      "ADHAN_FORMAT",
	"timeout":     "ADHAN_TIMEOUT",
	"cache_dir":   "ADHAN_CACHE_DIR",
}

// Config holds all user-configurable settings.
// Empty fields mean "not set" and fall through to the next layer.
type Config struct {
	ServerURL  string `json:"server_url,omitempty" validate:"omitempty,http_url"`
	TimeFormat string `json:"time_format,omitempty" validate:"omitempty,oneof=12h 24h"`
	Order      string `json:"order,omitempty" validate:"omitempty,oneof=server chronological"`
	Format     string `json:"format,omitempty"`
	Timeout    string `json:"timeout,omitempty" validate:"omitempty,duration"`
	CacheDir   string `json:"cache_dir,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d > 0
	})
	return v
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	return Config{
		ServerURL:  "http://127.0.0.1:3000",
		TimeFormat: "12h",
		Order:      OrderServer,
		Format:     "name-and-time",
		Timeout:    "10s",
	}
}

// Merge returns c with every field that is set in over replacing its own.
func (c Config) Merge(over Config) Config {
	if over.ServerURL != "" {
		c.ServerURL = over.ServerURL
	}
	if over.TimeFormat != "" {
		c.TimeFormat = over.TimeFormat
	}
	if over.Order != "" {
		c.Order = over.Order
	}
	if over.Format != "" {
		c.Format = over.Format
	}
	if over.Timeout != "" {
		c.Timeout = over.Timeout
	}
	if over.CacheDir != "" {
		c.CacheDir = over.CacheDir
	}
	return c
}

// Validate checks every set field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s %q: %s", jsonKey(fe.StructField()), fmt.Sprint(fe.Value()), describe(fe))
		}
		return err
	}
	return nil
}

// TimeoutDuration parses Timeout; zero when unset.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}

// Chronological reports whether events should be sorted within each day.
func (c *Config) Chronological() bool {
	return c.Order == OrderChronological
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file from disk.
// If the file does not exist, it returns an empty Config (not an error).
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	return LoadFrom(path)
}

// LoadFrom reads the config from a specific file path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Config{}
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables already set. Missing files are skipped.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, f := range filenames {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// FromEnv builds the environment layer using lookup (os.LookupEnv in
// production).
func FromEnv(lookup func(string) (string, bool)) Config {
	var c Config
	for _, key := range ValidKeys {
		if v, ok := lookup(envKeys[key]); ok && v != "" {
			c.assign(key, v)
		}
	}
	return c
}

// Save writes the config to disk, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return c.SaveTo(path)
}

// SaveTo writes the config to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Reset deletes the config file.
func Reset() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return ResetAt(path)
}

// ResetAt deletes the config file at a specific path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// Set sets a config key to the given value after validating it.
func (c *Config) Set(key, value string) error {
	next := *c
	if !next.assign(key, value) {
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(ValidKeys, ", "))
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// assign stores value under key without validation. It reports whether the
// key exists.
func (c *Config) assign(key, value string) bool {
	switch key {
	case "server_url":
		c.ServerURL = strings.TrimRight(value, "/")
	case "time_format":
		c.TimeFormat = value
	case "order":
		c.Order = value
	case "format":
		c.Format = value
	case "timeout":
		c.Timeout = value
	case "cache_dir":
		c.CacheDir = value
	default:
		return false
	}
	return true
}

// Get returns the string value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "server_url":
		return c.ServerURL, nil
	case "time_format":
		return c.TimeFormat, nil
	case "order":
		return c.Order, nil
	case "format":
		return c.Format, nil
	case "timeout":
		return c.Timeout, nil
	case "cache_dir":
		return c.CacheDir, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

func jsonKey(field string) string {
	switch field {
	case "ServerURL":
		return "server_url"
	case "TimeFormat":
		return "time_format"
	case "Order":
		return "order"
	case "Timeout":
		return "timeout"
	}
	return strings.ToLower(field)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "http_url":
		return "must be an http(s) URL"
	case "duration":
		return "must be a positive duration such as 10s"
	}
	return "failed " + fe.Tag() + " check"
}
