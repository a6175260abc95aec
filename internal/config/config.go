// Package config loads process configuration from the environment.
//
// Every key is prefixed with GYM_. A .env file in the working directory is
// read first when present; real environment variables win over it.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/crypto/bcrypt"
)

// Prefix is prepended to every environment key.
const Prefix = "GYM"

// EnvProduction selects production behaviour: JSON logs, required keys,
// secure cookies.
const EnvProduction = "production"

// Config errors
var (
	ErrMissingKey    = errors.New("key is required in production")
	ErrKeyLength     = errors.New("key has the wrong length")
	ErrLogLevel      = errors.New("log level must be debug, info, warn or error")
	ErrNonPositive   = errors.New("value must be positive")
	ErrUnknownZone   = errors.New("unknown time zone")
	ErrBadHexEncoded = errors.New("key must be hex encoded")
	ErrHashCost      = errors.New("hash cost out of bcrypt range")
)

// HexKey is a secret given as a hex string.
type HexKey []byte

// Decode implements envconfig.Decoder.
func (k *HexKey) Decode(value string) error {
	b, err := hex.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadHexEncoded, err)
	}
	*k = b
	return nil
}

// Config is the process configuration.
type Config struct {
	Env      string `envconfig:"ENV" default:"development"`
	DBPath   string `envconfig:"DB_PATH" default:"gym.db"`
	Addr     string `envconfig:"ADDR" default:":8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Timezone string `envconfig:"TIMEZONE" default:"UTC"` // class times in emails and seeded schedules

	CSRFKey         HexKey   `envconfig:"CSRF_KEY"`          // 32 bytes
	SessionHashKey  HexKey   `envconfig:"SESSION_HASH_KEY"`  // 32 or 64 bytes
	SessionBlockKey HexKey   `envconfig:"SESSION_BLOCK_KEY"` // 16, 24 or 32 bytes
	TrustedOrigins  []string `envconfig:"TRUSTED_ORIGINS"`

	ResendKey  string `envconfig:"RESEND_KEY"`
	ResendFrom string `envconfig:"RESEND_FROM" default:"Gym Bookings <bookings@example.com>"`

	SlowQueryMs    int           `envconfig:"SLOW_QUERY_MS" default:"50"`
	SlowRequestMs  int           `envconfig:"SLOW_REQUEST_MS" default:"200"`
	OutboxInterval time.Duration `envconfig:"OUTBOX_INTERVAL" default:"1m"`
	RateLimit      int           `envconfig:"RATE_LIMIT" default:"20"`
	Seed           bool          `envconfig:"SEED" default:"true"`
	HashCost       int           `envconfig:"HASH_COST" default:"10"`
}

// Load reads the optional dotenv files (".env" when none are named), then
// the environment, and validates the result. Outside production missing
// secrets are replaced with random ones, so sessions do not survive a
// restart.
func Load(dotenv ...string) (Config, error) {
	if err := godotenv.Load(dotenv...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// finish fills generated secrets and validates.
// POST: every key has a valid length; numeric settings are positive
func (c *Config) finish() error {
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownZone, c.Timezone)
	}

	keys := []struct {
		name     string
		key      *HexKey
		lengths  []int
		generate int
		optional bool
	}{
		{"CSRF_KEY", &c.CSRFKey, []int{32}, 32, false},
		{"SESSION_HASH_KEY", &c.SessionHashKey, []int{32, 64}, 64, false},
		{"SESSION_BLOCK_KEY", &c.SessionBlockKey, []int{16, 24, 32}, 32, true},
	}
	for _, k := range keys {
		if len(*k.key) == 0 {
			switch {
			case !c.IsProduction():
				*k.key = securecookie.GenerateRandomKey(k.generate)
				slog.Warn("config_event", "event", "key_generated", "key", Prefix+"_"+k.name)
			case k.optional:
				continue
			default:
				return fmt.Errorf("%s_%s: %w", Prefix, k.name, ErrMissingKey)
			}
		}
		if !lengthIn(len(*k.key), k.lengths) {
			return fmt.Errorf("%s_%s is %d bytes, want one of %v: %w", Prefix, k.name, len(*k.key), k.lengths, ErrKeyLength)
		}
	}

	positives := map[string]int{
		"SLOW_QUERY_MS":   c.SlowQueryMs,
		"SLOW_REQUEST_MS": c.SlowRequestMs,
		"RATE_LIMIT":      c.RateLimit,
	}
	for name, v := range positives {
		if v <= 0 {
			return fmt.Errorf("%s_%s: %w", Prefix, name, ErrNonPositive)
		}
	}
	if c.HashCost < bcrypt.MinCost || c.HashCost > bcrypt.MaxCost {
		return fmt.Errorf("%s_HASH_COST %d: %w", Prefix, c.HashCost, ErrHashCost)
	}
	if c.OutboxInterval <= 0 {
		return fmt.Errorf("%s_OUTBOX_INTERVAL: %w", Prefix, ErrNonPositive)
	}
	return nil
}

func lengthIn(n int, allowed []int) bool {
	for _, a := range allowed {
		if n == a {
			return true
		}
	}
	return false
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrLogLevel, s)
}

// IsProduction reports whether GYM_ENV is production.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Level is the slog level for LogLevel.
// PRE: c came from Load
func (c Config) Level() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

// Location is the time zone for class times.
// PRE: c came from Load
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlowQuery is the TimedDB warning threshold.
func (c Config) SlowQuery() time.Duration {
	return time.Duration(c.SlowQueryMs) * time.Millisecond
}

// SlowRequest is the request timing warning threshold.
func (c Config) SlowRequest() time.Duration {
	return time.Duration(c.SlowRequestMs) * time.Millisecond
}
