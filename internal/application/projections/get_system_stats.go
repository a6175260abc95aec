package projections

import (
	"context"
	"errors"
	"time"

	"gymbooking/internal/adapters/storage"
	"gymbooking/internal/adapters/storage/records"
	"gymbooking/internal/domain/gymclass"
	"gymbooking/internal/domain/outbox"
	"gymbooking/internal/domain/settings"
)

// GetSystemStatsDeps holds dependencies for the admin stats projection.
type GetSystemStatsDeps struct {
	Records RecordView
}

// SystemStats is the admin dashboard summary.
type SystemStats struct {
	Users                int
	Classes              int
	FullClasses          int
	Bookings             int
	WaitlistEntries      int
	PendingNotifications int
	FailedNotifications  int
	Network              settings.NetworkConfig
	TimeOffset           time.Duration
}

// QueryGetSystemStats counts every collection and reads the simulation
// settings. Missing settings report their defaults.
// INVARIANT: Store state is not mutated
func QueryGetSystemStats(ctx context.Context, deps GetSystemStatsDeps) (SystemStats, error) {
	var s SystemStats
	err := deps.Records.View(ctx, func(tx records.Tx) error {
		counts := []struct {
			dst *int
			fn  func(context.Context) (int, error)
		}{
			{&s.Users, tx.Users.Count},
			{&s.Classes, tx.Classes.Count},
			{&s.Bookings, tx.Bookings.Count},
			{&s.WaitlistEntries, tx.Waitlist.Count},
		}
		for _, c := range counts {
			n, err := c.fn(ctx)
			if err != nil {
				return err
			}
			*c.dst = n
		}

		var err error
		if s.FullClasses, err = tx.Classes.CountByStatus(ctx, gymclass.StatusFull); err != nil {
			return err
		}
		pending, err := tx.Outbox.CountByStatus(ctx, outbox.StatusPending)
		if err != nil {
			return err
		}
		retrying, err := tx.Outbox.CountByStatus(ctx, outbox.StatusRetrying)
		if err != nil {
			return err
		}
		s.PendingNotifications = pending + retrying
		if s.FailedNotifications, err = tx.Outbox.CountByStatus(ctx, outbox.StatusFailed); err != nil {
			return err
		}

		if s.Network, err = networkOrDefault(ctx, tx); err != nil {
			return err
		}
		ts, err := tx.Settings.GetTimeSimulation(ctx)
		if err == nil {
			s.TimeOffset = ts.Offset()
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return nil
	})
	return s, err
}

// QueryGetNetworkSettings returns the persisted network simulation settings,
// or the defaults when none are stored.
func QueryGetNetworkSettings(ctx context.Context, deps GetSystemStatsDeps) (settings.NetworkConfig, error) {
	var cfg settings.NetworkConfig
	err := deps.Records.View(ctx, func(tx records.Tx) error {
		var err error
		cfg, err = networkOrDefault(ctx, tx)
		return err
	})
	return cfg, err
}

func networkOrDefault(ctx context.Context, tx records.Tx) (settings.NetworkConfig, error) {
	cfg, err := tx.Settings.GetNetworkConfig(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return settings.DefaultNetworkConfig(), nil
	}
	return cfg, err
}
