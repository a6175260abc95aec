package gymclass

import (
	"context"
	"fmt"

	"gymbooking/internal/adapters/storage"
	domain "gymbooking/internal/domain/gymclass"
)

const collection = "classes"

const selectColumns = `
	SELECT id, type, name, instructor, date_time, duration_minutes, capacity, current_bookings, status
	FROM classes`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.Querier
}

// NewSQLiteStore creates a new Class store.
func NewSQLiteStore(db storage.Querier) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create inserts a new class.
// PRE: value passes Validate
// POST: Returns storage.ErrDuplicateKey if the id already exists
func (s *SQLiteStore) Create(ctx context.Context, value domain.Class) error {
	if err := value.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO classes (id, type, name, instructor, date_time, duration_minutes, capacity, current_bookings, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args(value)...)
	return storage.TranslateError(err, collection, value.ID)
}

// GetByID retrieves a class by primary key.
// INVARIANT: Store state is not mutated
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Class, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	c, err := scanClass(row.Scan)
	return c, storage.TranslateError(err, collection, id)
}

// List returns all classes ordered by start time.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Class, error) {
	return s.query(ctx, selectColumns+` ORDER BY date_time, rowid`)
}

// ListByType returns classes of one type ordered by start time.
func (s *SQLiteStore) ListByType(ctx context.Context, classType string) ([]domain.Class, error) {
	return s.query(ctx, selectColumns+` WHERE type = ? ORDER BY date_time, rowid`, classType)
}

// ListByStatus returns classes with the given persisted status.
func (s *SQLiteStore) ListByStatus(ctx context.Context, status string) ([]domain.Class, error) {
	return s.query(ctx, selectColumns+` WHERE status = ? ORDER BY date_time, rowid`, status)
}

// Save upserts a class.
// PRE: value passes Validate
// POST: The class row equals value
func (s *SQLiteStore) Save(ctx context.Context, value domain.Class) error {
	if err := value.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO classes (id, type, name, instructor, date_time, duration_minutes, capacity, current_bookings, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type=excluded.type,
			name=excluded.name,
			instructor=excluded.instructor,
			date_time=excluded.date_time,
			duration_minutes=excluded.duration_minutes,
			capacity=excluded.capacity,
			current_bookings=excluded.current_bookings,
			status=excluded.status
	`, args(value)...)
	return storage.TranslateError(err, collection, value.ID)
}

// Delete removes a class. Deleting a missing class is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM classes WHERE id = ?`, id)
	return storage.TranslateError(err, collection, id)
}

// Count returns the number of classes.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM classes`).Scan(&n)
	return n, err
}

// CountByStatus returns the number of classes with the given persisted status.
func (s *SQLiteStore) CountByStatus(ctx context.Context, status string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM classes WHERE status = ?`, status).Scan(&n)
	return n, err
}

// Clear removes every class.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM classes`)
	return err
}

func (s *SQLiteStore) query(ctx context.Context, q string, params ...any) ([]domain.Class, error) {
	rows, err := s.db.QueryContext(ctx, q, params...)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	out := []domain.Class{}
	for rows.Next() {
		c, err := scanClass(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func args(c domain.Class) []any {
	return []any{
		c.ID, c.Type, c.Name, c.Instructor, storage.FormatTime(c.DateTime),
		c.DurationMinutes, c.Capacity, c.CurrentBookings, c.Status,
	}
}

func scanClass(scan func(dest ...any) error) (domain.Class, error) {
	var c domain.Class
	var start string
	if err := scan(&c.ID, &c.Type, &c.Name, &c.Instructor, &start,
		&c.DurationMinutes, &c.Capacity, &c.CurrentBookings, &c.Status); err != nil {
		return domain.Class{}, err
	}
	t, err := storage.ParseTime(start)
	if err != nil {
		return domain.Class{}, fmt.Errorf("class %s date_time: %w", c.ID, err)
	}
	c.DateTime = t
	return c, nil
}
