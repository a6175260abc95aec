package orchestrators

import (
	"context"
	"log/slog"

	"gymbooking/internal/adapters/storage/records"
	"gymbooking/internal/domain/gymclass"
)

// recomputeClass is the one place derived class counters are written.
// POST: CurrentBookings equals the booking count; Status is full iff
// CurrentBookings >= Capacity. The row is written only if it changed.
func recomputeClass(ctx context.Context, tx records.Tx, classID string) (gymclass.Class, bool, error) {
	c, err := tx.Classes.GetByID(ctx, classID)
	if err != nil {
		return gymclass.Class{}, false, err
	}
	n, err := tx.Bookings.CountByClassID(ctx, classID)
	if err != nil {
		return gymclass.Class{}, false, err
	}
	if !c.ApplyBookingCount(n) {
		return c, false, nil
	}
	if err := tx.Classes.Save(ctx, c); err != nil {
		return gymclass.Class{}, false, err
	}
	return c, true, nil
}

// recomputeAll runs recomputeClass over every class and returns how many
// rows were corrected.
func recomputeAll(ctx context.Context, tx records.Tx) (int, error) {
	classes, err := tx.Classes.List(ctx)
	if err != nil {
		return 0, err
	}
	corrected := 0
	for _, c := range classes {
		_, changed, err := recomputeClass(ctx, tx, c.ID)
		if err != nil {
			return 0, err
		}
		if changed {
			corrected++
		}
	}
	return corrected, nil
}

// RecomputeDeps holds dependencies for counter recomputation.
type RecomputeDeps struct {
	Records RecordStore
	Network Network // optional
}

// RecomputeClassCountersInput carries input for RecomputeClassCounters.
type RecomputeClassCountersInput struct {
	ClassID string
}

// RecomputeClassCountersResult carries the reconciled class.
type RecomputeClassCountersResult struct {
	Class   gymclass.Class
	Changed bool
}

// ExecuteRecomputeClassCounters reconciles one class's derived counters with
// its booking records. Safe to call at any time; a second call with no
// intervening booking change leaves the record identical.
// PRE: ClassID names an existing class
// POST: class counters match the booking records
func ExecuteRecomputeClassCounters(ctx context.Context, input RecomputeClassCountersInput, deps RecomputeDeps) (RecomputeClassCountersResult, error) {
	var result RecomputeClassCountersResult
	err := throughNetwork(ctx, deps.Network, func(ctx context.Context) error {
		return deps.Records.Update(ctx, func(tx records.Tx) error {
			c, changed, err := recomputeClass(ctx, tx, input.ClassID)
			result = RecomputeClassCountersResult{Class: c, Changed: changed}
			return err
		})
	})
	if err != nil {
		return RecomputeClassCountersResult{}, err
	}
	if result.Changed {
		slog.Warn("counter_event", "event", "class_corrected", "class_id", input.ClassID, "current_bookings", result.Class.CurrentBookings, "status", result.Class.Status)
	}
	return result, nil
}

// ExecuteRecomputeAllClassCounters reconciles every class in one
// transaction and returns how many were corrected.
// POST: every class's counters match its booking records
func ExecuteRecomputeAllClassCounters(ctx context.Context, deps RecomputeDeps) (int, error) {
	var corrected int
	err := throughNetwork(ctx, deps.Network, func(ctx context.Context) error {
		return deps.Records.Update(ctx, func(tx records.Tx) error {
			n, err := recomputeAll(ctx, tx)
			corrected = n
			return err
		})
	})
	if err != nil {
		return 0, err
	}
	slog.Info("counter_event", "event", "all_recomputed", "corrected", corrected)
	return corrected, nil
}
