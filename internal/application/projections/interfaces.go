package projections

import (
	"context"

	"gymbooking/internal/adapters/storage/records"
)

// RecordView reads a consistent snapshot of every collection.
// *records.Store satisfies it.
type RecordView interface {
	View(ctx context.Context, fn func(tx records.Tx) error) error
}
