package orchestrators

import (
	"context"
	"time"

	"gymbooking/internal/adapters/storage/records"
)

// RecordStore runs callbacks inside one store transaction.
// *records.Store satisfies it.
type RecordStore interface {
	Update(ctx context.Context, fn func(tx records.Tx) error) error
	View(ctx context.Context, fn func(tx records.Tx) error) error
}

// Clock supplies simulated and real time. *clock.Clock satisfies it.
type Clock interface {
	// Now is simulated time; every past/today decision uses it.
	Now() time.Time
	// Wall is real time, used for delivery bookkeeping.
	Wall() time.Time
}

// Network wraps an operation with simulated latency and failure.
// *network.Simulator satisfies it.
type Network interface {
	Do(ctx context.Context, op func(ctx context.Context) error) error
}

// throughNetwork runs op behind n, or directly when no wrapper is wired.
func throughNetwork(ctx context.Context, n Network, op func(ctx context.Context) error) error {
	if n == nil {
		return op(ctx)
	}
	return n.Do(ctx, op)
}
