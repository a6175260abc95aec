package booking

import (
	"context"
	"fmt"

	"gymbooking/internal/adapters/storage"
	domain "gymbooking/internal/domain/booking"
)

const collection = "bookings"

const selectColumns = `SELECT id, user_id, class_id, booked_at, status FROM bookings`

// SQLiteStore implements Store using SQLite.
// Bookings are never updated in place, so there is no Save.
type SQLiteStore struct {
	db storage.Querier
}

// NewSQLiteStore creates a new Booking store.
func NewSQLiteStore(db storage.Querier) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create inserts a booking.
// PRE: value passes Validate and has an ID
// POST: Returns storage.ErrDuplicateKey if the id exists or the user
// already holds a booking for the class
func (s *SQLiteStore) Create(ctx context.Context, value domain.Booking) error {
	if err := value.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (id, user_id, class_id, booked_at, status)
		VALUES (?, ?, ?, ?, ?)
	`, value.ID, value.UserID, value.ClassID, storage.FormatTime(value.BookedAt), value.Status)
	return storage.TranslateError(err, collection, value.ID)
}

// GetByID retrieves a booking by primary key.
// INVARIANT: Store state is not mutated
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Booking, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	b, err := scanBooking(row.Scan)
	return b, storage.TranslateError(err, collection, id)
}

// GetByUserAndClass looks a booking up through the unique (user, class) index.
// INVARIANT: Store state is not mutated
func (s *SQLiteStore) GetByUserAndClass(ctx context.Context, userID, classID string) (domain.Booking, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE user_id = ? AND class_id = ?`, userID, classID)
	b, err := scanBooking(row.Scan)
	return b, storage.TranslateError(err, collection, userID+"/"+classID)
}

// ListByClassID returns the bookings for a class in insertion order.
func (s *SQLiteStore) ListByClassID(ctx context.Context, classID string) ([]domain.Booking, error) {
	return s.query(ctx, selectColumns+` WHERE class_id = ? ORDER BY rowid`, classID)
}

// ListByUserID returns a user's bookings in insertion order.
func (s *SQLiteStore) ListByUserID(ctx context.Context, userID string) ([]domain.Booking, error) {
	return s.query(ctx, selectColumns+` WHERE user_id = ? ORDER BY rowid`, userID)
}

// List returns every booking in insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Booking, error) {
	return s.query(ctx, selectColumns+` ORDER BY rowid`)
}

// CountByClassID returns the occupancy of a class.
// INVARIANT: Store state is not mutated
func (s *SQLiteStore) CountByClassID(ctx context.Context, classID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE class_id = ?`, classID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count bookings for %s: %w", classID, err)
	}
	return n, nil
}

// Delete removes a booking. Deleting a missing booking is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	return storage.TranslateError(err, collection, id)
}

// Count returns the number of bookings.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&n)
	return n, err
}

// Clear removes every booking.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM bookings`)
	return err
}

func (s *SQLiteStore) query(ctx context.Context, q string, params ...any) ([]domain.Booking, error) {
	rows, err := s.db.QueryContext(ctx, q, params...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBooking(scan func(dest ...any) error) (domain.Booking, error) {
	var b domain.Booking
	var bookedAt string
	if err := scan(&b.ID, &b.UserID, &b.ClassID, &bookedAt, &b.Status); err != nil {
		return domain.Booking{}, err
	}
	t, err := storage.ParseTime(bookedAt)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("booking %s booked_at: %w", b.ID, err)
	}
	b.BookedAt = t
	return b, nil
}
