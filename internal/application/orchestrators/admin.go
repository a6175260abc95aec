package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gymbooking/internal/adapters/storage"
	"gymbooking/internal/adapters/storage/records"
	"gymbooking/internal/application/clock"
	"gymbooking/internal/application/fixtures"
	"gymbooking/internal/application/identity"
	"gymbooking/internal/domain/settings"
)

// TimeTraveler moves the simulated clock. *clock.Clock satisfies it.
type TimeTraveler interface {
	Clock
	Offset() time.Duration
	Advance(ctx context.Context, amount int, unit clock.Unit) (time.Duration, error)
	Reset(ctx context.Context) error
}

// AdminDeps holds dependencies for administrative operations.
// PRE for every admin operation: the caller holds the admin tier
type AdminDeps struct {
	Records   RecordStore
	Clock     TimeTraveler
	Identity  identity.Provider
	Generator fixtures.Generator // used by ResetAllData
}

// UpdateNetworkSettingsInput carries the fields to change; nil fields keep
// their current value.
type UpdateNetworkSettingsInput struct {
	Patch settings.NetworkPatch
}

// ExecuteUpdateNetworkSettings applies a partial change to the network
// simulation settings. The wrapper reads settings on every call, so the
// change applies to the next operation.
// POST: persisted settings are valid; invalid input leaves them unchanged
func ExecuteUpdateNetworkSettings(ctx context.Context, input UpdateNetworkSettingsInput, deps AdminDeps) (settings.NetworkConfig, error) {
	id, err := identity.RequireAdmin(ctx, deps.Identity)
	if err != nil {
		return settings.NetworkConfig{}, err
	}

	var updated settings.NetworkConfig
	err = deps.Records.Update(ctx, func(tx records.Tx) error {
		current, err := tx.Settings.GetNetworkConfig(ctx)
		if errors.Is(err, storage.ErrNotFound) {
			current = settings.DefaultNetworkConfig()
		} else if err != nil {
			return err
		}
		updated = input.Patch.Apply(current)
		if err := updated.Validate(); err != nil {
			return err
		}
		return tx.Settings.SaveNetworkConfig(ctx, updated)
	})
	if err != nil {
		return settings.NetworkConfig{}, err
	}

	slog.Info("admin_event", "event", "network_updated", "by", id.UserID, "enabled", updated.Enabled, "min_delay_ms", updated.MinDelayMs, "max_delay_ms", updated.MaxDelayMs, "failure_rate", updated.FailureRate)
	return updated, nil
}

// TimeStatus describes the simulated clock.
type TimeStatus struct {
	Now    time.Time
	Offset time.Duration
	Label  string
}

// OffsetMs is the offset in milliseconds.
func (t TimeStatus) OffsetMs() int64 {
	return t.Offset.Milliseconds()
}

func timeStatus(c TimeTraveler) TimeStatus {
	off := c.Offset()
	return TimeStatus{Now: c.Now(), Offset: off, Label: clock.FormatOffset(off)}
}

// ExecuteGetTimeStatus reports the simulated clock without changing it.
func ExecuteGetTimeStatus(deps AdminDeps) TimeStatus {
	return timeStatus(deps.Clock)
}

// AdvanceTimeInput carries input for AdvanceTime.
type AdvanceTimeInput struct {
	Amount int
	Unit   string // minutes, hours or days; singular accepted
}

// ExecuteAdvanceTime moves simulated time by Amount units. Negative amounts
// travel backwards.
// POST: the new offset is persisted and observed by every clock consumer
func ExecuteAdvanceTime(ctx context.Context, input AdvanceTimeInput, deps AdminDeps) (TimeStatus, error) {
	id, err := identity.RequireAdmin(ctx, deps.Identity)
	if err != nil {
		return TimeStatus{}, err
	}
	unit, err := clock.ParseUnit(input.Unit)
	if err != nil {
		return TimeStatus{}, err
	}
	if _, err := deps.Clock.Advance(ctx, input.Amount, unit); err != nil {
		return TimeStatus{}, err
	}
	status := timeStatus(deps.Clock)
	slog.Info("admin_event", "event", "time_advanced", "by", id.UserID, "amount", input.Amount, "unit", string(unit), "offset", status.Label)
	return status, nil
}

// ExecuteResetTime returns the clock to real time.
func ExecuteResetTime(ctx context.Context, deps AdminDeps) (TimeStatus, error) {
	id, err := identity.RequireAdmin(ctx, deps.Identity)
	if err != nil {
		return TimeStatus{}, err
	}
	if err := deps.Clock.Reset(ctx); err != nil {
		return TimeStatus{}, err
	}
	slog.Info("admin_event", "event", "time_reset", "by", id.UserID)
	return timeStatus(deps.Clock), nil
}

// ExecuteResetAllData wipes every collection, returns the clock to real
// time and reseeds.
// POST: the store holds exactly one freshly generated dataset with
// consistent counters
func ExecuteResetAllData(ctx context.Context, deps AdminDeps) (SeedResult, error) {
	id, err := identity.RequireAdmin(ctx, deps.Identity)
	if err != nil {
		return SeedResult{}, err
	}
	if err := deps.Records.Update(ctx, clearAll(ctx)); err != nil {
		return SeedResult{}, err
	}
	// The clock persists through its own store handle, so it must run
	// outside the transaction above.
	if err := deps.Clock.Reset(ctx); err != nil {
		return SeedResult{}, err
	}
	result, err := ExecuteSeedTestData(ctx, SeedDeps{Records: deps.Records, Clock: deps.Clock, Generator: deps.Generator})
	if err != nil {
		return SeedResult{}, err
	}
	slog.Info("admin_event", "event", "data_reset", "by", id.UserID, "users", result.Users, "classes", result.Classes)
	return result, nil
}

func clearAll(ctx context.Context) func(tx records.Tx) error {
	return func(tx records.Tx) error {
		clears := []func(context.Context) error{
			tx.Outbox.Clear,
			tx.Waitlist.Clear,
			tx.Bookings.Clear,
			tx.Classes.Clear,
			tx.Users.Clear,
			tx.Settings.Clear,
		}
		for _, fn := range clears {
			if err := fn(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// ClearBookingsResult counts what ClearBookings removed.
type ClearBookingsResult struct {
	Bookings  int
	Waitlist  int
	Corrected int
}

// ExecuteClearBookings removes every booking and waitlist entry, then
// recomputes class counters so no class keeps a stale count.
// POST: no bookings or waitlist entries; every class is available with zero
// bookings
func ExecuteClearBookings(ctx context.Context, deps AdminDeps) (ClearBookingsResult, error) {
	id, err := identity.RequireAdmin(ctx, deps.Identity)
	if err != nil {
		return ClearBookingsResult{}, err
	}

	var result ClearBookingsResult
	err = deps.Records.Update(ctx, func(tx records.Tx) error {
		var err error
		if result.Bookings, err = tx.Bookings.Count(ctx); err != nil {
			return err
		}
		if result.Waitlist, err = tx.Waitlist.Count(ctx); err != nil {
			return err
		}
		if err := tx.Bookings.Clear(ctx); err != nil {
			return err
		}
		if err := tx.Waitlist.Clear(ctx); err != nil {
			return err
		}
		result.Corrected, err = recomputeAll(ctx, tx)
		return err
	})
	if err != nil {
		return ClearBookingsResult{}, err
	}

	slog.Info("admin_event", "event", "bookings_cleared", "by", id.UserID, "bookings", result.Bookings, "waitlist", result.Waitlist, "corrected", result.Corrected)
	return result, nil
}
