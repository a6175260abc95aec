package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gymbooking/internal/adapters/storage"
	"gymbooking/internal/adapters/storage/records"
	"gymbooking/internal/application/identity"
	"gymbooking/internal/domain/booking"
	"gymbooking/internal/domain/gymclass"
	domainOutbox "gymbooking/internal/domain/outbox"
	"gymbooking/internal/domain/user"
	"gymbooking/internal/domain/waitlist"
)

// BookingDeps holds dependencies shared by the booking engine operations.
type BookingDeps struct {
	Records  RecordStore
	Clock    Clock
	Network  Network // optional: nil runs operations directly
	Identity identity.Provider
}

// AttemptBookInput carries input for AttemptBook.
type AttemptBookInput struct {
	ClassID string
}

// AttemptBookResult reports what AttemptBook did. Exactly one of Booking and
// Entry is set, matching Outcome.
type AttemptBookResult struct {
	Outcome booking.Outcome
	Booking booking.Booking
	Entry   waitlist.Entry
	Class   gymclass.Class
}

// ExecuteAttemptBook books the current user into a class, or queues them on
// the waitlist when the class is full.
// PRE: a user is signed in whose record exists; ClassID names an existing class
// POST: exactly one new booking or waitlist entry for (user, class); on a
// booking the class counters are recomputed and a confirmation is queued
// INVARIANT: the book-or-waitlist decision uses a count taken inside the
// same transaction that writes, so concurrent attempts never overbook
func ExecuteAttemptBook(ctx context.Context, input AttemptBookInput, deps BookingDeps) (AttemptBookResult, error) {
	id, err := identity.Require(ctx, deps.Identity)
	if err != nil {
		return AttemptBookResult{}, err
	}
	if input.ClassID == "" {
		return AttemptBookResult{}, booking.ErrEmptyClassID
	}

	var result AttemptBookResult
	err = throughNetwork(ctx, deps.Network, func(ctx context.Context) error {
		now := deps.Clock.Now()
		wall := deps.Clock.Wall()
		return deps.Records.Update(ctx, func(tx records.Tx) error {
			r, err := attemptBook(ctx, tx, id, input.ClassID, now, wall)
			result = r
			return err
		})
	})
	if err != nil {
		slog.Info("booking_event", "event", "book_rejected", "user_id", id.UserID, "class_id", input.ClassID, "reason", err.Error())
		return AttemptBookResult{}, err
	}

	slog.Info("booking_event", "event", string(result.Outcome), "user_id", id.UserID, "class_id", input.ClassID, "current_bookings", result.Class.CurrentBookings, "capacity", result.Class.Capacity)
	return result, nil
}

func attemptBook(ctx context.Context, tx records.Tx, id user.Identity, classID string, now, wall time.Time) (AttemptBookResult, error) {
	class, err := tx.Classes.GetByID(ctx, classID)
	if err != nil {
		return AttemptBookResult{}, err
	}
	// A session can outlive its user across a data reset.
	if _, err := tx.Users.GetByID(ctx, id.UserID); err != nil {
		return AttemptBookResult{}, err
	}

	if err := absent(tx.Bookings.GetByUserAndClass(ctx, id.UserID, classID)); err != nil {
		if errors.Is(err, errPresent) {
			return AttemptBookResult{}, booking.ErrAlreadyBooked
		}
		return AttemptBookResult{}, err
	}
	if err := absent(tx.Waitlist.GetByUserAndClass(ctx, id.UserID, classID)); err != nil {
		if errors.Is(err, errPresent) {
			return AttemptBookResult{}, booking.ErrAlreadyWaitlisted
		}
		return AttemptBookResult{}, err
	}
	if !class.IsBookable(now) {
		return AttemptBookResult{}, booking.ErrClassStarted
	}

	occupancy, err := tx.Bookings.CountByClassID(ctx, classID)
	if err != nil {
		return AttemptBookResult{}, err
	}

	if occupancy >= class.Capacity {
		entry := waitlist.Entry{
			ID:       uuid.New().String(),
			UserID:   id.UserID,
			ClassID:  classID,
			JoinedAt: now,
		}
		if err := tx.Waitlist.Create(ctx, entry); err != nil {
			return AttemptBookResult{}, err
		}
		return AttemptBookResult{Outcome: booking.OutcomeWaitlisted, Entry: entry, Class: class}, nil
	}

	b := booking.Booking{
		ID:       uuid.New().String(),
		UserID:   id.UserID,
		ClassID:  classID,
		BookedAt: now,
		Status:   booking.StatusConfirmed,
	}
	if err := tx.Bookings.Create(ctx, b); err != nil {
		return AttemptBookResult{}, err
	}
	class, _, err = recomputeClass(ctx, tx, classID)
	if err != nil {
		return AttemptBookResult{}, err
	}
	if err := enqueueNotification(ctx, tx, domainOutbox.KindBookingConfirmed, id.Email, id.DisplayName, class, wall); err != nil {
		return AttemptBookResult{}, err
	}
	return AttemptBookResult{Outcome: booking.OutcomeBooked, Booking: b, Class: class}, nil
}

var errPresent = errors.New("record present")

// absent turns a unique-index lookup into nil when nothing matched,
// errPresent when something did, or the store error.
func absent[T any](_ T, err error) error {
	if err == nil {
		return errPresent
	}
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// CancelBookingInput carries input for CancelBooking.
type CancelBookingInput struct {
	BookingID string
}

// CancelBookingResult reports the cancelled booking, the booking created by
// promotion if any, and the class after recomputation.
type CancelBookingResult struct {
	Cancelled booking.Booking
	Promoted  *booking.Booking
	Class     gymclass.Class
}

// ExecuteCancelBooking deletes a booking and promotes the earliest waitlist
// entry for the class into the freed slot.
// PRE: a user is signed in who owns the booking or is an admin
// POST: the booking is gone; if the waitlist was non-empty its earliest
// entry (ties by insertion order) is now a booking; class counters match
// the booking records
func ExecuteCancelBooking(ctx context.Context, input CancelBookingInput, deps BookingDeps) (CancelBookingResult, error) {
	id, err := identity.Require(ctx, deps.Identity)
	if err != nil {
		return CancelBookingResult{}, err
	}
	if input.BookingID == "" {
		return CancelBookingResult{}, storage.NotFound("bookings", "")
	}

	var result CancelBookingResult
	err = throughNetwork(ctx, deps.Network, func(ctx context.Context) error {
		now := deps.Clock.Now()
		wall := deps.Clock.Wall()
		return deps.Records.Update(ctx, func(tx records.Tx) error {
			r, err := cancelBooking(ctx, tx, id, input.BookingID, now, wall)
			result = r
			return err
		})
	})
	if err != nil {
		slog.Info("booking_event", "event", "cancel_rejected", "user_id", id.UserID, "booking_id", input.BookingID, "reason", err.Error())
		return CancelBookingResult{}, err
	}

	attrs := []any{"event", "booking_cancelled", "user_id", id.UserID, "booking_id", input.BookingID, "class_id", result.Class.ID, "current_bookings", result.Class.CurrentBookings}
	if result.Promoted != nil {
		attrs = append(attrs, "promoted_user_id", result.Promoted.UserID)
	}
	slog.Info("booking_event", attrs...)
	return result, nil
}

func cancelBooking(ctx context.Context, tx records.Tx, id user.Identity, bookingID string, now, wall time.Time) (CancelBookingResult, error) {
	b, err := tx.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return CancelBookingResult{}, err
	}
	if !b.IsOwnedBy(id.UserID) && !id.IsAdmin() {
		return CancelBookingResult{}, booking.ErrNotOwner
	}
	if err := tx.Bookings.Delete(ctx, b.ID); err != nil {
		return CancelBookingResult{}, err
	}

	result := CancelBookingResult{Cancelled: b}
	promoted, err := promoteNext(ctx, tx, b.ClassID, now)
	if err != nil {
		return CancelBookingResult{}, err
	}

	class, _, err := recomputeClass(ctx, tx, b.ClassID)
	if err != nil {
		return CancelBookingResult{}, err
	}
	result.Class = class

	if promoted != nil {
		result.Promoted = promoted
		if err := notifyPromoted(ctx, tx, promoted.UserID, class, wall); err != nil {
			return CancelBookingResult{}, err
		}
	}
	return result, nil
}

// promoteNext moves the earliest waitlist entry for classID to a booking.
// Returns nil when the waitlist is empty.
func promoteNext(ctx context.Context, tx records.Tx, classID string, now time.Time) (*booking.Booking, error) {
	entries, err := tx.Waitlist.ListByClassID(ctx, classID)
	if err != nil {
		return nil, err
	}
	next, ok := waitlist.NextInLine(entries)
	if !ok {
		return nil, nil
	}
	if err := tx.Waitlist.Delete(ctx, next.ID); err != nil {
		return nil, err
	}
	b := booking.Booking{
		ID:       uuid.New().String(),
		UserID:   next.UserID,
		ClassID:  classID,
		BookedAt: now,
		Status:   booking.StatusConfirmed,
	}
	if err := tx.Bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	return &b, nil
}

// LeaveWaitlistInput carries input for LeaveWaitlist.
type LeaveWaitlistInput struct {
	EntryID string
}

// ExecuteLeaveWaitlist withdraws a waitlist entry. Class counters are not
// touched: waitlist size is not cached on the class.
// PRE: a user is signed in who owns the entry or is an admin
// POST: the entry no longer exists
func ExecuteLeaveWaitlist(ctx context.Context, input LeaveWaitlistInput, deps BookingDeps) (waitlist.Entry, error) {
	id, err := identity.Require(ctx, deps.Identity)
	if err != nil {
		return waitlist.Entry{}, err
	}
	if input.EntryID == "" {
		return waitlist.Entry{}, storage.NotFound("waitlist", "")
	}

	var left waitlist.Entry
	err = throughNetwork(ctx, deps.Network, func(ctx context.Context) error {
		return deps.Records.Update(ctx, func(tx records.Tx) error {
			e, err := tx.Waitlist.GetByID(ctx, input.EntryID)
			if err != nil {
				return err
			}
			if !e.IsOwnedBy(id.UserID) && !id.IsAdmin() {
				return booking.ErrNotOwner
			}
			left = e
			return tx.Waitlist.Delete(ctx, e.ID)
		})
	})
	if err != nil {
		return waitlist.Entry{}, err
	}

	slog.Info("booking_event", "event", "waitlist_left", "user_id", id.UserID, "entry_id", left.ID, "class_id", left.ClassID)
	return left, nil
}
