package config

import (
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// noDotenv points Load at a file that does not exist so a stray .env in the
// package directory cannot leak in.
func noDotenv(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_DevelopmentDefaults(t *testing.T) {
	cfg, err := Load(noDotenv(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IsProduction() {
		t.Error("default env should not be production")
	}
	if cfg.Addr != ":8080" || cfg.DBPath != "gym.db" {
		t.Errorf("Addr=%q DBPath=%q", cfg.Addr, cfg.DBPath)
	}
	if cfg.OutboxInterval != time.Minute || cfg.RateLimit != 20 || !cfg.Seed {
		t.Errorf("OutboxInterval=%v RateLimit=%d Seed=%v", cfg.OutboxInterval, cfg.RateLimit, cfg.Seed)
	}
	if cfg.SlowQuery() != 50*time.Millisecond || cfg.SlowRequest() != 200*time.Millisecond {
		t.Errorf("SlowQuery=%v SlowRequest=%v", cfg.SlowQuery(), cfg.SlowRequest())
	}
	if len(cfg.CSRFKey) != 32 || len(cfg.SessionHashKey) != 64 || len(cfg.SessionBlockKey) != 32 {
		t.Errorf("generated key lengths: csrf=%d hash=%d block=%d", len(cfg.CSRFKey), len(cfg.SessionHashKey), len(cfg.SessionBlockKey))
	}
	if cfg.Level() != slog.LevelInfo || cfg.Location() != time.UTC {
		t.Errorf("Level=%v Location=%v", cfg.Level(), cfg.Location())
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	csrf := strings.Repeat("ab", 32)
	t.Setenv("GYM_ADDR", ":9090")
	t.Setenv("GYM_LOG_LEVEL", "debug")
	t.Setenv("GYM_CSRF_KEY", csrf)
	t.Setenv("GYM_OUTBOX_INTERVAL", "15s")
	t.Setenv("GYM_SEED", "false")
	t.Setenv("GYM_TRUSTED_ORIGINS", "gym.example.com,admin.example.com")

	cfg, err := Load(noDotenv(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want, _ := hex.DecodeString(csrf)
	if string(cfg.CSRFKey) != string(want) {
		t.Errorf("CSRFKey not decoded from hex")
	}
	if cfg.Addr != ":9090" || cfg.Level() != slog.LevelDebug || cfg.OutboxInterval != 15*time.Second || cfg.Seed {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if len(cfg.TrustedOrigins) != 2 || cfg.TrustedOrigins[1] != "admin.example.com" {
		t.Errorf("TrustedOrigins = %v", cfg.TrustedOrigins)
	}
}

func TestLoad_ReadsDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("GYM_DB_PATH=/tmp/from-dotenv.db\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("GYM_DB_PATH") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/from-dotenv.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
}

func TestLoad_Rejections(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want error
	}{
		{"production without csrf key", map[string]string{"GYM_ENV": "production"}, ErrMissingKey},
		{"production without session key", map[string]string{"GYM_ENV": "production", "GYM_CSRF_KEY": strings.Repeat("00", 32)}, ErrMissingKey},
		{"short csrf key", map[string]string{"GYM_CSRF_KEY": strings.Repeat("00", 16)}, ErrKeyLength},
		{"log level", map[string]string{"GYM_LOG_LEVEL": "loud"}, ErrLogLevel},
		{"rate limit", map[string]string{"GYM_RATE_LIMIT": "0"}, ErrNonPositive},
		{"outbox interval", map[string]string{"GYM_OUTBOX_INTERVAL": "-1s"}, ErrNonPositive},
		{"hash cost", map[string]string{"GYM_HASH_COST": "2"}, ErrHashCost},
		{"time zone", map[string]string{"GYM_TIMEZONE": "Mars/Olympus"}, ErrUnknownZone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(noDotenv(t))
			if !errors.Is(err, tt.want) {
				t.Fatalf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoad_RejectsNonHexKey(t *testing.T) {
	t.Setenv("GYM_CSRF_KEY", "zz")
	_, err := Load(noDotenv(t))
	if err == nil || !strings.Contains(err.Error(), ErrBadHexEncoded.Error()) {
		t.Fatalf("Load() error = %v, want hex decoding failure", err)
	}
}

func TestLoad_ProductionWithKeys(t *testing.T) {
	t.Setenv("GYM_ENV", "production")
	t.Setenv("GYM_CSRF_KEY", strings.Repeat("01", 32))
	t.Setenv("GYM_SESSION_HASH_KEY", strings.Repeat("02", 32))

	cfg, err := Load(noDotenv(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false")
	}
	if cfg.SessionBlockKey != nil {
		t.Error("block key should stay unset in production so cookies are signed only")
	}
}
