package outbox

import (
	"context"

	domain "gymbooking/internal/domain/outbox"
)

// Store defines the interface for notification outbox persistence.
type Store interface {
	// GetByID retrieves an entry by its ID.
	// POST: Returns storage.ErrNotFound if absent
	GetByID(ctx context.Context, id string) (domain.Entry, error)

	// Save persists an entry (insert or update).
	// PRE: entry has been validated
	Save(ctx context.Context, e domain.Entry) error

	// ListPending returns pending or retrying entries, soonest due first.
	// PRE: limit > 0
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)

	// ListByStatus returns entries in one status, newest first.
	// PRE: limit > 0
	ListByStatus(ctx context.Context, status string, limit int) ([]domain.Entry, error)

	// CountByStatus returns the number of entries in one status.
	CountByStatus(ctx context.Context, status string) (int, error)

	// Delete removes an entry. Missing entries are not an error.
	Delete(ctx context.Context, id string) error

	// Clear removes every entry.
	Clear(ctx context.Context) error
}
