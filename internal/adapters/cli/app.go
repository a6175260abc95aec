package cli

import (
	"context"
	"database/sql"
	"fmt"

	"gymbooking/internal/adapters/http/perf"
	"gymbooking/internal/adapters/network"
	"gymbooking/internal/adapters/storage"
	"gymbooking/internal/adapters/storage/records"
	"gymbooking/internal/application/clock"
	"gymbooking/internal/application/fixtures"
	"gymbooking/internal/application/identity"
	"gymbooking/internal/application/orchestrators"
	"gymbooking/internal/config"
	"gymbooking/internal/domain/user"
)

// app is one opened store with the services built over it.
type app struct {
	cfg       config.Config
	db        *sql.DB
	collector *perf.Collector
	store     *records.Store
	clock     *clock.Clock
	sim       *network.Simulator
	generator fixtures.Generator
}

// openApp opens the database and loads the persisted clock offset.
// POST: caller must Close the app
func openApp(ctx context.Context, cfg config.Config) (*app, error) {
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	collector := perf.NewCollector(perf.DefaultRingSize)
	store := records.New(storage.NewTimedDB(db, collector, cfg.SlowQuery()))

	clk := clock.New(store.Settings())
	if err := clk.Load(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("load clock: %w", err)
	}

	return &app{
		cfg:       cfg,
		db:        db,
		collector: collector,
		store:     store,
		clock:     clk,
		sim:       network.NewSimulator(store.Settings()),
		generator: fixtures.NewDemoGenerator(
			fixtures.WithHashCost(cfg.HashCost),
			fixtures.WithLocation(cfg.Location()),
		),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// adminDeps runs admin operations as the system identity.
func (a *app) adminDeps() orchestrators.AdminDeps {
	return orchestrators.AdminDeps{
		Records:   a.store,
		Clock:     a.clock,
		Identity:  identity.Fixed(user.System),
		Generator: a.generator,
	}
}

func (a *app) seedDeps() orchestrators.SeedDeps {
	return orchestrators.SeedDeps{Records: a.store, Clock: a.clock, Generator: a.generator}
}
