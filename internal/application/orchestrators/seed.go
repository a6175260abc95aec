package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gymbooking/internal/adapters/storage"
	"gymbooking/internal/adapters/storage/records"
	"gymbooking/internal/application/fixtures"
	"gymbooking/internal/domain/settings"
)

// SeedDeps holds dependencies for seeding.
type SeedDeps struct {
	Records   RecordStore
	Clock     Clock
	Generator fixtures.Generator
}

// SeedResult counts what was inserted. Seeded is false when the store
// already held users and nothing was written.
type SeedResult struct {
	Seeded   bool
	Users    int
	Classes  int
	Bookings int
	Waitlist int
}

// ExecuteSeedTestData fills an empty store with demo data.
// It is idempotent: a store that already has users is left alone apart from
// ensuring default network settings exist.
// PRE: schema is applied
// POST: either nothing changed, or every generated record was inserted in
// one transaction and every class counter was recomputed from bookings
func ExecuteSeedTestData(ctx context.Context, deps SeedDeps) (SeedResult, error) {
	var users int
	err := deps.Records.Update(ctx, func(tx records.Tx) error {
		if err := ensureNetworkDefaults(ctx, tx); err != nil {
			return err
		}
		n, err := tx.Users.Count(ctx)
		users = n
		return err
	})
	if err != nil {
		return SeedResult{}, err
	}
	if users > 0 {
		slog.Info("seed_event", "event", "skipped", "existing_users", users)
		return SeedResult{}, nil
	}

	// Generation hashes passwords, so it runs before the write lock is taken.
	ds, err := deps.Generator.Generate(deps.Clock.Now())
	if err != nil {
		return SeedResult{}, fmt.Errorf("generate test data: %w", err)
	}

	var result SeedResult
	err = deps.Records.Update(ctx, func(tx records.Tx) error {
		n, err := tx.Users.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		if err := insertDataset(ctx, tx, ds); err != nil {
			return err
		}
		if _, err := recomputeAll(ctx, tx); err != nil {
			return err
		}
		result = SeedResult{
			Seeded:   true,
			Users:    len(ds.Users),
			Classes:  len(ds.Classes),
			Bookings: len(ds.Bookings),
			Waitlist: len(ds.Waitlist),
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	if result.Seeded {
		slog.Info("seed_event", "event", "seeded", "users", result.Users, "classes", result.Classes, "bookings", result.Bookings, "waitlist", result.Waitlist)
	}
	return result, nil
}

func insertDataset(ctx context.Context, tx records.Tx, ds fixtures.Dataset) error {
	for _, u := range ds.Users {
		if err := tx.Users.Create(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}
	for _, c := range ds.Classes {
		if err := tx.Classes.Create(ctx, c); err != nil {
			return fmt.Errorf("seed class %s: %w", c.ID, err)
		}
	}
	for _, b := range ds.Bookings {
		if err := tx.Bookings.Create(ctx, b); err != nil {
			return fmt.Errorf("seed booking %s: %w", b.ID, err)
		}
	}
	for _, e := range ds.Waitlist {
		if err := tx.Waitlist.Create(ctx, e); err != nil {
			return fmt.Errorf("seed waitlist entry %s: %w", e.ID, err)
		}
	}
	return nil
}

func ensureNetworkDefaults(ctx context.Context, tx records.Tx) error {
	_, err := tx.Settings.GetNetworkConfig(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return tx.Settings.SaveNetworkConfig(ctx, settings.DefaultNetworkConfig())
}
