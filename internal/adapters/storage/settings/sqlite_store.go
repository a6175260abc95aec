package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gymbooking/internal/adapters/storage"
	domain "gymbooking/internal/domain/settings"
)

const collection = "system_settings"

// SQLiteStore implements Store using SQLite. Each key holds one JSON value.
type SQLiteStore struct {
	db  storage.Querier
	now func() time.Time
}

// NewSQLiteStore creates a new settings store.
func NewSQLiteStore(db storage.Querier) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// GetNetworkConfig returns the persisted network simulation config.
// POST: Returns storage.ErrNotFound if none is persisted
func (s *SQLiteStore) GetNetworkConfig(ctx context.Context) (domain.NetworkConfig, error) {
	var c domain.NetworkConfig
	err := s.get(ctx, domain.KeyNetworkConfig, &c)
	return c, err
}

// SaveNetworkConfig validates and upserts the network simulation config.
func (s *SQLiteStore) SaveNetworkConfig(ctx context.Context, value domain.NetworkConfig) error {
	if err := value.Validate(); err != nil {
		return err
	}
	return s.put(ctx, domain.KeyNetworkConfig, value)
}

// GetTimeSimulation returns the persisted clock offset.
// POST: Returns storage.ErrNotFound if none is persisted
func (s *SQLiteStore) GetTimeSimulation(ctx context.Context) (domain.TimeSimulation, error) {
	var t domain.TimeSimulation
	err := s.get(ctx, domain.KeyTimeSimulation, &t)
	return t, err
}

// SaveTimeSimulation upserts the clock offset.
func (s *SQLiteStore) SaveTimeSimulation(ctx context.Context, value domain.TimeSimulation) error {
	return s.put(ctx, domain.KeyTimeSimulation, value)
}

// Delete removes one settings record. Missing keys are not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM system_settings WHERE id = ?`, key)
	return storage.TranslateError(err, collection, key)
}

// Clear removes every settings record.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM system_settings`)
	return err
}

func (s *SQLiteStore) get(ctx context.Context, key string, dest any) error {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM system_settings WHERE id = ?`, key).Scan(&raw)
	if err != nil {
		return storage.TranslateError(err, collection, key)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) put(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO system_settings (id, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`, key, string(raw), storage.FormatTime(s.now()))
	return storage.TranslateError(err, collection, key)
}
