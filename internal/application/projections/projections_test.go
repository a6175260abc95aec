package projections

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymbooking/internal/adapters/storage"
	"gymbooking/internal/adapters/storage/records"
	"gymbooking/internal/domain/booking"
	"gymbooking/internal/domain/gymclass"
	"gymbooking/internal/domain/outbox"
	"gymbooking/internal/domain/settings"
	"gymbooking/internal/domain/waitlist"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *records.Store {
	t.Helper()
	db, err := storage.Open(storage.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return records.New(db)
}

func class(id, typ string, capacity, booked int, startsIn time.Duration) gymclass.Class {
	c := gymclass.Class{
		ID:              id,
		Type:            typ,
		Name:            id,
		Instructor:      "Sarah Chen",
		DateTime:        now.Add(startsIn),
		DurationMinutes: 60,
		Capacity:        capacity,
		Status:          gymclass.StatusAvailable,
	}
	c.ApplyBookingCount(booked)
	return c
}

func book(id, userID, classID string) booking.Booking {
	return booking.Booking{ID: id, UserID: userID, ClassID: classID, BookedAt: now.Add(-time.Hour), Status: booking.StatusConfirmed}
}

func queue(id, userID, classID string, joinedAgo time.Duration) waitlist.Entry {
	return waitlist.Entry{ID: id, UserID: userID, ClassID: classID, JoinedAt: now.Add(-joinedAgo)}
}

// fill writes a small gym: a full spin class with a two-deep queue, an open
// yoga class tomorrow, and a yoga class that already started.
func fill(t *testing.T, s *records.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx records.Tx) error {
		for _, c := range []gymclass.Class{
			class("spin-today", gymclass.TypeSpin, 1, 1, 3*time.Hour),
			class("yoga-tomorrow", gymclass.TypeYoga, 10, 1, 24*time.Hour),
			class("yoga-past", gymclass.TypeYoga, 10, 1, -2*time.Hour),
		} {
			if err := tx.Classes.Create(ctx, c); err != nil {
				return err
			}
		}
		for _, b := range []booking.Booking{
			book("b1", "alice", "spin-today"),
			book("b2", "bob", "yoga-tomorrow"),
			book("b3", "bob", "yoga-past"),
		} {
			if err := tx.Bookings.Create(ctx, b); err != nil {
				return err
			}
		}
		for _, e := range []waitlist.Entry{
			queue("w-carol", "carol", "spin-today", time.Minute),
			queue("w-bob", "bob", "spin-today", 5*time.Minute),
		} {
			if err := tx.Waitlist.Create(ctx, e); err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestQueryGetSchedule(t *testing.T) {
	s := newStore(t)
	fill(t, s)
	deps := GetScheduleDeps{Records: s}

	items, err := QueryGetSchedule(context.Background(), GetScheduleInput{Now: now, UserID: "bob"}, deps)
	require.NoError(t, err)
	require.Len(t, items, 3)

	ids := []string{items[0].Class.ID, items[1].Class.ID, items[2].Class.ID}
	assert.Equal(t, []string{"yoga-past", "spin-today", "yoga-tomorrow"}, ids, "start order")

	past, spin, yoga := items[0], items[1], items[2]
	assert.Equal(t, gymclass.StatusCompleted, past.DisplayStatus)
	assert.Equal(t, "b3", past.BookingID)

	assert.Equal(t, gymclass.StatusFull, spin.DisplayStatus)
	assert.Equal(t, "Today", spin.DayLabel)
	assert.Equal(t, 0, spin.AvailableSpots)
	assert.Equal(t, 2, spin.WaitlistLength)
	assert.True(t, spin.IsWaitlisted())
	assert.Equal(t, 1, spin.WaitlistPosition, "bob joined first")
	assert.False(t, spin.IsBooked())

	assert.Equal(t, "Tomorrow", yoga.DayLabel)
	assert.Equal(t, 9, yoga.AvailableSpots)
	assert.True(t, yoga.IsBooked())
}

func TestQueryGetSchedule_Filters(t *testing.T) {
	s := newStore(t)
	fill(t, s)
	deps := GetScheduleDeps{Records: s}

	items, err := QueryGetSchedule(context.Background(), GetScheduleInput{Now: now, Type: gymclass.TypeYoga, UpcomingOnly: true}, deps)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "yoga-tomorrow", items[0].Class.ID)
	assert.False(t, items[0].IsBooked(), "anonymous callers get no per-user fields")

	items, err = QueryGetSchedule(context.Background(), GetScheduleInput{Now: now.Add(48 * time.Hour), UpcomingOnly: true}, deps)
	require.NoError(t, err)
	assert.Empty(t, items, "every class has started once time moves on")
}

func TestQueryGetMyBookings(t *testing.T) {
	s := newStore(t)
	fill(t, s)
	deps := GetMyBookingsDeps{Records: s}

	mine, err := QueryGetMyBookings(context.Background(), "bob", now, deps)
	require.NoError(t, err)
	require.Len(t, mine.Bookings, 1, "started classes are left out")
	assert.Equal(t, "b2", mine.Bookings[0].Booking.ID)
	assert.Equal(t, "yoga-tomorrow", mine.Bookings[0].Class.ID)
	require.Len(t, mine.Waitlist, 1)
	assert.Equal(t, 1, mine.Waitlist[0].Position)

	carol, err := QueryGetMyBookings(context.Background(), "carol", now, deps)
	require.NoError(t, err)
	assert.Empty(t, carol.Bookings)
	require.Len(t, carol.Waitlist, 1)
	assert.Equal(t, 2, carol.Waitlist[0].Position)

	nobody, err := QueryGetMyBookings(context.Background(), "nobody", now, deps)
	require.NoError(t, err)
	assert.NotNil(t, nobody.Bookings)
	assert.NotNil(t, nobody.Waitlist)
}

func TestQueryGetMyBookings_SkipsDeletedClass(t *testing.T) {
	s := newStore(t)
	fill(t, s)
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx records.Tx) error {
		return tx.Classes.Delete(ctx, "yoga-tomorrow")
	}))

	mine, err := QueryGetMyBookings(ctx, "bob", now, GetMyBookingsDeps{Records: s})
	require.NoError(t, err)
	assert.Empty(t, mine.Bookings)
}

func TestQueryGetSystemStats(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	empty, err := QueryGetSystemStats(ctx, GetSystemStatsDeps{Records: s})
	require.NoError(t, err)
	assert.Equal(t, settings.DefaultNetworkConfig(), empty.Network, "missing settings report defaults")
	assert.Zero(t, empty.TimeOffset)

	fill(t, s)
	require.NoError(t, s.Settings().SaveTimeSimulation(ctx, settings.TimeSimulation{OffsetMs: 3_600_000, LastUpdated: now}))
	stats, err := QueryGetSystemStats(ctx, GetSystemStatsDeps{Records: s})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Classes)
	assert.Equal(t, 1, stats.FullClasses)
	assert.Equal(t, 3, stats.Bookings)
	assert.Equal(t, 2, stats.WaitlistEntries)
	assert.Equal(t, time.Hour, stats.TimeOffset)
}

func TestQueryListNotifications(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	entries := []outbox.Entry{
		{ID: "n1", Status: outbox.StatusRetrying, NextAttemptAt: now.Add(time.Minute)},
		{ID: "n2", Status: outbox.StatusPending, NextAttemptAt: now},
		{ID: "n3", Status: outbox.StatusFailed},
		{ID: "n4", Status: outbox.StatusFailed},
	}
	require.NoError(t, s.Update(ctx, func(tx records.Tx) error {
		for _, e := range entries {
			e.Kind = outbox.KindBookingConfirmed
			e.Recipient = "alice@test.com"
			e.Payload = "{}"
			e.CreatedAt = now
			e.MaxAttempts = 5
			if err := tx.Outbox.Save(ctx, e); err != nil {
				return err
			}
		}
		return nil
	}))
	deps := ListNotificationsDeps{Records: s}

	pending, err := QueryListNotifications(ctx, ListNotificationsQuery{}, deps)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "n2", pending[0].ID, "soonest due first")

	failed, err := QueryListNotifications(ctx, ListNotificationsQuery{Status: outbox.StatusFailed, Limit: 1}, deps)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "n4", failed[0].ID, "newest first")
}
