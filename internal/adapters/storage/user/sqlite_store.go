package user

import (
	"context"
	"fmt"

	"gymbooking/internal/adapters/storage"
	domain "gymbooking/internal/domain/user"
)

const collection = "users"

const selectColumns = `SELECT id, email, password_hash, name, membership_type, member_since FROM users`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.Querier
}

// NewSQLiteStore creates a new User store.
func NewSQLiteStore(db storage.Querier) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create inserts a new user.
// PRE: value passes Validate
// POST: Returns storage.ErrDuplicateKey if the id or email already exists
func (s *SQLiteStore) Create(ctx context.Context, value domain.User) error {
	if err := value.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, membership_type, member_since)
		VALUES (?, ?, ?, ?, ?, ?)
	`, value.ID, value.Email, value.PasswordHash, value.Name, value.MembershipType, storage.FormatTime(value.MemberSince))
	return storage.TranslateError(err, collection, value.ID)
}

// GetByID retrieves a user by primary key.
// INVARIANT: Store state is not mutated
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	u, err := scanUser(row.Scan)
	return u, storage.TranslateError(err, collection, id)
}

// GetByEmail retrieves a user through the unique email index.
// INVARIANT: Store state is not mutated
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE email = ?`, email)
	u, err := scanUser(row.Scan)
	return u, storage.TranslateError(err, collection, email)
}

// List returns all users in insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Save upserts a user.
// POST: Returns storage.ErrDuplicateKey if the email belongs to another user
func (s *SQLiteStore) Save(ctx context.Context, value domain.User) error {
	if err := value.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, membership_type, member_since)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email=excluded.email,
			password_hash=excluded.password_hash,
			name=excluded.name,
			membership_type=excluded.membership_type,
			member_since=excluded.member_since
	`, value.ID, value.Email, value.PasswordHash, value.Name, value.MembershipType, storage.FormatTime(value.MemberSince))
	return storage.TranslateError(err, collection, value.ID)
}

// Delete removes a user. Deleting a missing user is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return storage.TranslateError(err, collection, id)
}

// Count returns the number of users.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// Clear removes every user.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users`)
	return err
}

func scanUser(scan func(dest ...any) error) (domain.User, error) {
	var u domain.User
	var since string
	if err := scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.MembershipType, &since); err != nil {
		return domain.User{}, err
	}
	t, err := storage.ParseTime(since)
	if err != nil {
		return domain.User{}, fmt.Errorf("user %s member_since: %w", u.ID, err)
	}
	u.MemberSince = t
	return u, nil
}
