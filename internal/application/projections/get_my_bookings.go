package projections

import (
	"context"
	"errors"
	"sort"
	"time"

	"gymbooking/internal/adapters/storage"
	"gymbooking/internal/adapters/storage/records"
	"gymbooking/internal/domain/booking"
	"gymbooking/internal/domain/gymclass"
	"gymbooking/internal/domain/waitlist"
)

// GetMyBookingsDeps holds dependencies for the my-bookings projection.
type GetMyBookingsDeps struct {
	Records RecordView
}

// BookedClass is a booking joined with its class.
type BookedClass struct {
	Booking booking.Booking
	Class   gymclass.Class
}

// WaitlistedClass is a waitlist entry joined with its class and position.
type WaitlistedClass struct {
	Entry    waitlist.Entry
	Class    gymclass.Class
	Position int // 1-based place in the queue
}

// MyBookings is what a member has coming up.
type MyBookings struct {
	Bookings []BookedClass
	Waitlist []WaitlistedClass
}

// QueryGetMyBookings returns userID's upcoming bookings and waitlist entries,
// each ordered by class start time. Classes that have started as of now are
// left out, as are records whose class no longer exists.
// INVARIANT: Store state is not mutated
func QueryGetMyBookings(ctx context.Context, userID string, now time.Time, deps GetMyBookingsDeps) (MyBookings, error) {
	out := MyBookings{Bookings: []BookedClass{}, Waitlist: []WaitlistedClass{}}
	err := deps.Records.View(ctx, func(tx records.Tx) error {
		bookings, err := tx.Bookings.ListByUserID(ctx, userID)
		if err != nil {
			return err
		}
		for _, b := range bookings {
			c, ok, err := upcomingClass(ctx, tx, b.ClassID, now)
			if err != nil {
				return err
			}
			if ok {
				out.Bookings = append(out.Bookings, BookedClass{Booking: b, Class: c})
			}
		}

		entries, err := tx.Waitlist.ListByUserID(ctx, userID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			c, ok, err := upcomingClass(ctx, tx, e.ClassID, now)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			queue, err := tx.Waitlist.ListByClassID(ctx, e.ClassID)
			if err != nil {
				return err
			}
			out.Waitlist = append(out.Waitlist, WaitlistedClass{Entry: e, Class: c, Position: waitlist.Position(queue, e.ID)})
		}
		return nil
	})
	if err != nil {
		return MyBookings{}, err
	}

	sort.SliceStable(out.Bookings, func(i, j int) bool {
		return out.Bookings[i].Class.DateTime.Before(out.Bookings[j].Class.DateTime)
	})
	sort.SliceStable(out.Waitlist, func(i, j int) bool {
		return out.Waitlist[i].Class.DateTime.Before(out.Waitlist[j].Class.DateTime)
	})
	return out, nil
}

func upcomingClass(ctx context.Context, tx records.Tx, classID string, now time.Time) (gymclass.Class, bool, error) {
	c, err := tx.Classes.GetByID(ctx, classID)
	if errors.Is(err, storage.ErrNotFound) {
		return gymclass.Class{}, false, nil
	}
	if err != nil {
		return gymclass.Class{}, false, err
	}
	return c, !c.IsPast(now), nil
}
