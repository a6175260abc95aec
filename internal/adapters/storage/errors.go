package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store-level errors. Callers classify with errors.Is.
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// NotFound wraps ErrNotFound with the collection and key that were missed.
func NotFound(collection, key string) error {
	return fmt.Errorf("%s %q: %w", collection, key, ErrNotFound)
}

// TranslateError maps driver errors onto the store taxonomy.
// sql.ErrNoRows becomes ErrNotFound; UNIQUE and PRIMARY KEY violations
// become ErrDuplicateKey. Anything else is returned wrapped but unchanged.
func TranslateError(err error, collection, key string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return NotFound(collection, key)
	}
	if IsUniqueViolation(err) {
		return fmt.Errorf("%s %q: %w: %v", collection, key, ErrDuplicateKey, err)
	}
	return fmt.Errorf("%s %q: %w", collection, key, err)
}

// IsUniqueViolation reports whether err is a SQLite uniqueness failure.
func IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		if se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
			return false
		}
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY constraint failed")
}
