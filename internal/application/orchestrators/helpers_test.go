package orchestrators

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"gymbooking/internal/adapters/network"
	"gymbooking/internal/adapters/storage"
	"gymbooking/internal/adapters/storage/records"
	"gymbooking/internal/application/clock"
	"gymbooking/internal/application/fixtures"
	"gymbooking/internal/application/identity"
	"gymbooking/internal/domain/booking"
	"gymbooking/internal/domain/gymclass"
	"gymbooking/internal/domain/outbox"
	"gymbooking/internal/domain/settings"
	"gymbooking/internal/domain/user"
	"gymbooking/internal/domain/waitlist"
)

var testWall = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store *records.Store
	clock *clock.Clock
	sim   *network.Simulator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := storage.Open(storage.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := records.New(db)
	return &testEnv{
		store: store,
		clock: clock.New(store.Settings(), clock.WithWall(func() time.Time { return testWall })),
		sim: network.NewSimulator(store.Settings(),
			network.WithRand(rand.New(rand.NewPCG(7, 11))),
			network.WithSleep(func(ctx context.Context, d time.Duration) error { return ctx.Err() }),
		),
	}
}

func (e *testEnv) bookingDeps() BookingDeps {
	return BookingDeps{Records: e.store, Clock: e.clock, Network: e.sim, Identity: identity.ContextProvider{}}
}

func (e *testEnv) adminDeps() AdminDeps {
	return AdminDeps{
		Records:  e.store,
		Clock:    e.clock,
		Identity: identity.ContextProvider{},
		Generator: fixtures.NewDemoGenerator(
			fixtures.WithRand(rand.New(rand.NewPCG(3, 5))),
			fixtures.WithHashCost(bcrypt.MinCost),
			fixtures.WithLocation(time.UTC),
		),
	}
}

// as returns a context signed in as a standard member with a predictable
// email address.
func as(userID string) context.Context {
	return identity.WithUser(context.Background(), user.Identity{
		UserID:         userID,
		Email:          userID + "@test.com",
		DisplayName:    "Member " + userID,
		MembershipType: user.MembershipStandard,
	})
}

func asAdmin() context.Context {
	return identity.WithUser(context.Background(), user.Identity{
		UserID:         "admin",
		Email:          "admin@test.com",
		DisplayName:    "Admin User",
		MembershipType: user.MembershipAdmin,
	})
}

func (e *testEnv) addClass(t *testing.T, id string, capacity int, startsIn time.Duration) gymclass.Class {
	t.Helper()
	c := gymclass.Class{
		ID:              id,
		Type:            gymclass.TypeSpin,
		Name:            "Spin Class",
		Instructor:      "Mike Johnson",
		DateTime:        testWall.Add(startsIn),
		DurationMinutes: 45,
		Capacity:        capacity,
		Status:          gymclass.StatusAvailable,
	}
	require.NoError(t, e.store.Update(context.Background(), func(tx records.Tx) error {
		return tx.Classes.Create(context.Background(), c)
	}))
	return c
}

func (e *testEnv) addUser(t *testing.T, id string) {
	t.Helper()
	u := user.User{ID: id, Email: id + "@test.com", Name: "Member " + id, MembershipType: user.MembershipStandard, MemberSince: testWall}
	require.NoError(t, e.store.Update(context.Background(), func(tx records.Tx) error {
		return tx.Users.Create(context.Background(), u)
	}))
}

func (e *testEnv) addUsers(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		e.addUser(t, id)
	}
}

func (e *testEnv) setNetwork(t *testing.T, cfg settings.NetworkConfig) {
	t.Helper()
	require.NoError(t, e.store.Settings().SaveNetworkConfig(context.Background(), cfg))
}

type snapshot struct {
	classes  []gymclass.Class
	bookings []booking.Booking
	waitlist []waitlist.Entry
	outbox   []outbox.Entry
}

func (e *testEnv) snapshot(t *testing.T) snapshot {
	t.Helper()
	ctx := context.Background()
	var s snapshot
	require.NoError(t, e.store.View(ctx, func(tx records.Tx) error {
		var err error
		if s.classes, err = tx.Classes.List(ctx); err != nil {
			return err
		}
		if s.bookings, err = tx.Bookings.List(ctx); err != nil {
			return err
		}
		if s.waitlist, err = tx.Waitlist.List(ctx); err != nil {
			return err
		}
		s.outbox, err = tx.Outbox.ListPending(ctx, 1000)
		return err
	}))
	return s
}

func (e *testEnv) class(t *testing.T, id string) gymclass.Class {
	t.Helper()
	var c gymclass.Class
	require.NoError(t, e.store.View(context.Background(), func(tx records.Tx) error {
		var err error
		c, err = tx.Classes.GetByID(context.Background(), id)
		return err
	}))
	return c
}

// requireConsistent checks the at-rest invariants: counters match booking
// records, no class is over capacity, and no user holds both a booking and
// a waitlist entry for one class.
func (e *testEnv) requireConsistent(t *testing.T) {
	t.Helper()
	s := e.snapshot(t)

	perClass := map[string]int{}
	held := map[string]bool{}
	for _, b := range s.bookings {
		perClass[b.ClassID]++
		held[b.UserID+"/"+b.ClassID] = true
	}
	for _, w := range s.waitlist {
		require.False(t, held[w.UserID+"/"+w.ClassID], "user %s both booked and waitlisted for %s", w.UserID, w.ClassID)
	}
	for _, c := range s.classes {
		n := perClass[c.ID]
		require.Equal(t, n, c.CurrentBookings, "class %s currentBookings", c.ID)
		require.LessOrEqual(t, n, c.Capacity, "class %s over capacity", c.ID)
		wantStatus := gymclass.StatusAvailable
		if n >= c.Capacity {
			wantStatus = gymclass.StatusFull
		}
		require.Equal(t, wantStatus, c.Status, "class %s status", c.ID)
	}
}
