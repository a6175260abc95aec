package outbox

import (
	"context"
	"database/sql"
	"fmt"

	"gymbooking/internal/adapters/storage"
	domain "gymbooking/internal/domain/outbox"
)

const collection = "outbox"

const selectColumns = `
	SELECT id, kind, recipient, payload, status, attempts, max_attempts,
		created_at, last_attempted_at, next_attempt_at, external_id, error_message
	FROM outbox`

// SQLiteStore implements the outbox Store interface using SQLite.
type SQLiteStore struct {
	db storage.Querier
}

// NewSQLiteStore creates a new outbox store.
func NewSQLiteStore(db storage.Querier) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an outbox entry by its ID.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	e, err := scanEntry(row.Scan)
	return e, storage.TranslateError(err, collection, id)
}

// Save persists an outbox entry to the database.
// PRE: entry has been validated
// POST: Entry is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, e domain.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outbox (id, kind, recipient, payload, status, attempts, max_attempts,
			created_at, last_attempted_at, next_attempt_at, external_id, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind=excluded.kind, recipient=excluded.recipient, payload=excluded.payload,
			status=excluded.status, attempts=excluded.attempts, max_attempts=excluded.max_attempts,
			last_attempted_at=excluded.last_attempted_at, next_attempt_at=excluded.next_attempt_at,
			external_id=excluded.external_id, error_message=excluded.error_message
	`,
		e.ID, e.Kind, e.Recipient, e.Payload, e.Status, e.Attempts, e.MaxAttempts,
		storage.FormatTime(e.CreatedAt), storage.FormatNullTime(e.LastAttemptedAt),
		storage.FormatNullTime(e.NextAttemptAt), e.ExternalID, e.ErrorMessage)
	return storage.TranslateError(err, collection, e.ID)
}

// ListPending returns entries that need to be processed (pending or retrying),
// soonest due first. Due-time filtering is left to the caller, which owns
// the clock.
func (s *SQLiteStore) ListPending(ctx context.Context, limit int) ([]domain.Entry, error) {
	return s.query(ctx, selectColumns+` WHERE status IN (?, ?) ORDER BY next_attempt_at, rowid LIMIT ?`,
		domain.StatusPending, domain.StatusRetrying, limit)
}

// ListByStatus returns entries in one status, newest first.
func (s *SQLiteStore) ListByStatus(ctx context.Context, status string, limit int) ([]domain.Entry, error) {
	return s.query(ctx, selectColumns+` WHERE status = ? ORDER BY rowid DESC LIMIT ?`, status, limit)
}

// CountByStatus returns the number of entries in one status.
func (s *SQLiteStore) CountByStatus(ctx context.Context, status string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outbox WHERE status = ?`, status).Scan(&n)
	return n, err
}

// Delete removes an outbox entry.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM outbox WHERE id = ?`, id)
	return storage.TranslateError(err, collection, id)
}

// Clear removes every outbox entry.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM outbox`)
	return err
}

func (s *SQLiteStore) query(ctx context.Context, q string, params ...any) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, params...)
	if err != nil {
		return nil, fmt.Errorf("list outbox: %w", err)
	}
	defer rows.Close()

	out := []domain.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(scan func(dest ...any) error) (domain.Entry, error) {
	var e domain.Entry
	var createdAt string
	var lastAttemptedAt, nextAttemptAt sql.NullString
	if err := scan(&e.ID, &e.Kind, &e.Recipient, &e.Payload, &e.Status, &e.Attempts, &e.MaxAttempts,
		&createdAt, &lastAttemptedAt, &nextAttemptAt, &e.ExternalID, &e.ErrorMessage); err != nil {
		return domain.Entry{}, err
	}
	var err error
	if e.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Entry{}, fmt.Errorf("outbox %s created_at: %w", e.ID, err)
	}
	if e.LastAttemptedAt, err = storage.ParseNullTime(lastAttemptedAt); err != nil {
		return domain.Entry{}, fmt.Errorf("outbox %s last_attempted_at: %w", e.ID, err)
	}
	if e.NextAttemptAt, err = storage.ParseNullTime(nextAttemptAt); err != nil {
		return domain.Entry{}, fmt.Errorf("outbox %s next_attempt_at: %w", e.ID, err)
	}
	return e, nil
}
