package stubserver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Env is the stub server's configuration, read from the environment.
type Env struct {
	Addr           string
	Days           int
	SeedFile       string
	AllowedOrigins []string

	// City and Country, when both set, seed from the Al Adhan calendar
	// instead of synthetic times. City "auto" detects both from the
	// public IP.
	City    string
	Country string
	Method  int
}

const (
	defaultAddr = "127.0.0.1:3000"
	defaultDays = 30
)

// LoadEnv loads the given .env files (".env" when none) into the process
// environment and reads Env from it. Missing files are not an error.
func LoadEnv(filenames ...string) (Env, error) {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, f := range filenames {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Env{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	env := Env{
		Addr:     os.Getenv("ADHAN_STUB_ADDR"),
		Days:     defaultDays,
		SeedFile: os.Getenv("ADHAN_STUB_SEED"),
		City:     os.Getenv("ADHAN_STUB_CITY"),
		Country:  os.Getenv("ADHAN_STUB_COUNTRY"),
		Method:   -1,
	}
	if env.Addr == "" {
		env.Addr = defaultAddr
	}

	if v := os.Getenv("ADHAN_STUB_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Env{}, fmt.Errorf("invalid ADHAN_STUB_DAYS %q", v)
		}
		env.Days = n
	}

	if v := os.Getenv("ADHAN_STUB_METHOD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Env{}, fmt.Errorf("invalid ADHAN_STUB_METHOD %q", v)
		}
		env.Method = n
	}

	if v := os.Getenv("ADHAN_STUB_ALLOWED_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				env.AllowedOrigins = append(env.AllowedOrigins, o)
			}
		}
	}

	return env, nil
}
