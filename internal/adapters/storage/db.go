package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DSN builds the modernc sqlite connection string for path.
// Writers take the RESERVED lock at BEGIN so two transactions never both read
// occupancy and then race to write.
func DSN(path string) string {
	if path == MemoryPath {
		return "file::memory:?_pragma=foreign_keys(ON)&_txlock=immediate"
	}
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)&_txlock=immediate"
}

// Open opens the database at path and initialises the schema.
// PRE: path is a file path or MemoryPath
// POST: Returns a ready connection pool; an in-memory pool is pinned to one
// connection so every caller sees the same database.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == MemoryPath || strings.HasPrefix(path, "file::memory:") {
		db.SetMaxOpenConns(1)
	}
	if err := InitDB(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All collections and their indexes exist
func InitDB(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Bookings and waitlist entries deliberately carry no foreign keys: the
	// booking engine, not the schema, owns referential checks, and a wipe of
	// classes must not cascade silently.
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		membership_type TEXT NOT NULL,
		member_since TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS classes (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		name TEXT NOT NULL,
		instructor TEXT NOT NULL,
		date_time TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
		capacity INTEGER NOT NULL CHECK (capacity > 0),
		current_bookings INTEGER NOT NULL DEFAULT 0 CHECK (current_bookings >= 0),
		status TEXT NOT NULL DEFAULT 'available'
	);
	CREATE INDEX IF NOT EXISTS idx_classes_type ON classes(type);
	CREATE INDEX IF NOT EXISTS idx_classes_date_time ON classes(date_time);
	CREATE INDEX IF NOT EXISTS idx_classes_status ON classes(status);

	CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		class_id TEXT NOT NULL,
		booked_at TEXT NOT NULL,
		status TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id);
	CREATE INDEX IF NOT EXISTS idx_bookings_class_id ON bookings(class_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_user_class ON bookings(user_id, class_id);

	CREATE TABLE IF NOT EXISTS waitlist (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		class_id TEXT NOT NULL,
		joined_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_waitlist_user_id ON waitlist(user_id);
	CREATE INDEX IF NOT EXISTS idx_waitlist_class_id ON waitlist(class_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_waitlist_user_class ON waitlist(user_id, class_id);

	CREATE TABLE IF NOT EXISTS system_settings (
		id TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		recipient TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		created_at TEXT NOT NULL,
		last_attempted_at TEXT,
		next_attempt_at TEXT,
		external_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Collections lists every table the record store owns, in wipe order.
var Collections = []string{"bookings", "waitlist", "outbox", "classes", "users", "system_settings"}
