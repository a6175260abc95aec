package booking

import (
	"errors"
	"strings"
	"time"
)

// StatusConfirmed is the only status a persisted booking carries.
const StatusConfirmed = "confirmed"

// Outcome of an attempt to book.
type Outcome string

// Outcome values
const (
	OutcomeBooked     Outcome = "booked"
	OutcomeWaitlisted Outcome = "waitlisted"
)

// Validation errors
var (
	ErrEmptyUserID  = errors.New("booking user ID cannot be empty")
	ErrEmptyClassID = errors.New("booking class ID cannot be empty")
	ErrZeroBookedAt = errors.New("booking timestamp is required")
	ErrInvalidState = errors.New("booking status must be confirmed")
)

// Business-rule rejections. None of these are retryable: repeating the same
// call yields the same rejection.
var (
	ErrAlreadyBooked     = errors.New("you have already booked this class")
	ErrAlreadyWaitlisted = errors.New("you are already on the waitlist for this class")
	ErrClassStarted      = errors.New("class has already started")
	ErrNotOwner          = errors.New("record belongs to another user")
	ErrNotAuthenticated  = errors.New("sign in required")
	ErrAdminRequired     = errors.New("admin membership required")
)

// Booking links one user to one class.
// Created by a successful attempt or a promotion, deleted by cancellation,
// never updated in place.
type Booking struct {
	ID       string
	UserID   string
	ClassID  string
	BookedAt time.Time
	Status   string
}

// Validate checks if the Booking has valid data.
// PRE: Booking struct is populated
// POST: Returns nil if valid, error otherwise
func (b *Booking) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(b.ClassID) == "" {
		return ErrEmptyClassID
	}
	if b.BookedAt.IsZero() {
		return ErrZeroBookedAt
	}
	if b.Status != StatusConfirmed {
		return ErrInvalidState
	}
	return nil
}

// IsOwnedBy reports whether userID holds this booking.
func (b *Booking) IsOwnedBy(userID string) bool {
	return b.UserID == userID
}
