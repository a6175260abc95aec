// Package records groups the collection stores behind one transactional
// entry point so multi-collection mutations commit or roll back together.
package records

import (
	"context"
	"fmt"
	"sync"

	"gymbooking/internal/adapters/storage"
	bookingStore "gymbooking/internal/adapters/storage/booking"
	classStore "gymbooking/internal/adapters/storage/gymclass"
	outboxStore "gymbooking/internal/adapters/storage/outbox"
	settingsStore "gymbooking/internal/adapters/storage/settings"
	userStore "gymbooking/internal/adapters/storage/user"
	waitlistStore "gymbooking/internal/adapters/storage/waitlist"
)

// Tx exposes every collection bound to one open transaction.
// A Tx must not escape the callback it was handed to.
type Tx struct {
	Users    userStore.Store
	Classes  classStore.Store
	Bookings bookingStore.Store
	Waitlist waitlistStore.Store
	Settings settingsStore.Store
	Outbox   outboxStore.Store
}

// Bind returns a Tx whose stores run against q.
func Bind(q storage.Querier) Tx {
	return Tx{
		Users:    userStore.NewSQLiteStore(q),
		Classes:  classStore.NewSQLiteStore(q),
		Bookings: bookingStore.NewSQLiteStore(q),
		Waitlist: waitlistStore.NewSQLiteStore(q),
		Settings: settingsStore.NewSQLiteStore(q),
		Outbox:   outboxStore.NewSQLiteStore(q),
	}
}

// Store is the record store: an explicitly owned handle over one database.
type Store struct {
	db storage.SQLDB
	// writeMu serialises writers inside this process; SQLite's own lock
	// covers other processes.
	writeMu sync.Mutex
}

// New wraps an open database.
// PRE: db has the schema applied
func New(db storage.SQLDB) *Store {
	return &Store{db: db}
}

// Update runs fn in a read-write transaction.
// POST: every write fn made is committed, or none is if fn or the commit fails
// INVARIANT: at most one Update runs at a time
func (s *Store) Update(ctx context.Context, fn func(tx Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.run(ctx, fn, true)
}

// View runs fn against a consistent snapshot; nothing fn writes is kept.
func (s *Store) View(ctx context.Context, fn func(tx Tx) error) error {
	return s.run(ctx, fn, false)
}

// Settings returns a settings store outside any transaction, for the
// network wrapper and clock which read one record at a time.
func (s *Store) Settings() settingsStore.Store {
	return settingsStore.NewSQLiteStore(s.db)
}

func (s *Store) run(ctx context.Context, fn func(tx Tx) error, commit bool) error {
	tx, err := storage.Begin(ctx, s.db, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(Bind(tx)); err != nil {
		return err
	}
	if !commit {
		return nil
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
