package waitlist

import (
	"context"
	"fmt"

	"gymbooking/internal/adapters/storage"
	domain "gymbooking/internal/domain/waitlist"
)

const collection = "waitlist"

const selectColumns = `SELECT id, user_id, class_id, joined_at FROM waitlist`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.Querier
}

// NewSQLiteStore creates a new waitlist store.
func NewSQLiteStore(db storage.Querier) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create inserts an entry.
// PRE: value passes Validate and has an ID
// POST: Returns storage.ErrDuplicateKey if the user already waits for the class
func (s *SQLiteStore) Create(ctx context.Context, value domain.Entry) error {
	if err := value.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO waitlist (id, user_id, class_id, joined_at)
		VALUES (?, ?, ?, ?)
	`, value.ID, value.UserID, value.ClassID, storage.FormatTime(value.JoinedAt))
	return storage.TranslateError(err, collection, value.ID)
}

// GetByID retrieves an entry by primary key.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	e, err := scanEntry(row.Scan)
	return e, storage.TranslateError(err, collection, id)
}

// GetByUserAndClass looks an entry up through the unique (user, class) index.
func (s *SQLiteStore) GetByUserAndClass(ctx context.Context, userID, classID string) (domain.Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE user_id = ? AND class_id = ?`, userID, classID)
	e, err := scanEntry(row.Scan)
	return e, storage.TranslateError(err, collection, userID+"/"+classID)
}

// ListByClassID returns a class's entries in insertion order. Promotion
// order is decided by the caller from JoinedAt.
func (s *SQLiteStore) ListByClassID(ctx context.Context, classID string) ([]domain.Entry, error) {
	return s.query(ctx, selectColumns+` WHERE class_id = ? ORDER BY rowid`, classID)
}

// ListByUserID returns a user's entries in insertion order.
func (s *SQLiteStore) ListByUserID(ctx context.Context, userID string) ([]domain.Entry, error) {
	return s.query(ctx, selectColumns+` WHERE user_id = ? ORDER BY rowid`, userID)
}

// List returns every entry in insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Entry, error) {
	return s.query(ctx, selectColumns+` ORDER BY rowid`)
}

// Delete removes an entry. Deleting a missing entry is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM waitlist WHERE id = ?`, id)
	return storage.TranslateError(err, collection, id)
}

// Count returns the number of entries.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM waitlist`).Scan(&n)
	return n, err
}

// Clear removes every entry.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM waitlist`)
	return err
}

func (s *SQLiteStore) query(ctx context.Context, q string, params ...any) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, params...)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
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
	var joinedAt string
	if err := scan(&e.ID, &e.UserID, &e.ClassID, &joinedAt); err != nil {
		return domain.Entry{}, err
	}
	t, err := storage.ParseTime(joinedAt)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("waitlist %s joined_at: %w", e.ID, err)
	}
	e.JoinedAt = t
	return e, nil
}
