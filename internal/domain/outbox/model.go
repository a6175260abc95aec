package outbox

import (
	"errors"
	"time"
)

// Status constants for the notification lifecycle.
const (
	StatusPending   = "pending"
	StatusRetrying  = "retrying"
	StatusSent      = "sent"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// Kind constants name the event a notification reports.
const (
	KindBookingConfirmed = "booking_confirmed"
	KindWaitlistPromoted = "waitlist_promoted"
)

// DefaultMaxAttempts bounds delivery retries when an entry does not set one.
const DefaultMaxAttempts = 5

// Domain errors.
var (
	ErrEmptyKind      = errors.New("notification kind is required")
	ErrUnknownKind    = errors.New("notification kind must be booking_confirmed or waitlist_promoted")
	ErrEmptyRecipient = errors.New("notification recipient is required")
	ErrEmptyPayload   = errors.New("payload is required")
	ErrZeroCreatedAt  = errors.New("created_at must be set")
	ErrTerminal       = errors.New("notification is no longer awaiting delivery")
)

// Entry is a notification written in the same transaction as the booking
// change it reports, delivered later by the outbox worker.
type Entry struct {
	ID              string
	Kind            string
	Recipient       string // email address
	Payload         string // JSON, decoded by the delivery executor
	Status          string
	Attempts        int
	MaxAttempts     int
	CreatedAt       time.Time
	LastAttemptedAt time.Time
	NextAttemptAt   time.Time
	ExternalID      string // provider message ID once sent
	ErrorMessage    string
}

// Validate checks that the Entry has valid data and fills defaults.
// PRE: Entry struct is populated
// POST: Returns nil if valid; MaxAttempts and Status are defaulted
func (e *Entry) Validate() error {
	if e.Kind == "" {
		return ErrEmptyKind
	}
	if e.Kind != KindBookingConfirmed && e.Kind != KindWaitlistPromoted {
		return ErrUnknownKind
	}
	if e.Recipient == "" {
		return ErrEmptyRecipient
	}
	if e.Payload == "" {
		return ErrEmptyPayload
	}
	if e.CreatedAt.IsZero() {
		return ErrZeroCreatedAt
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = DefaultMaxAttempts
	}
	if e.Status == "" {
		e.Status = StatusPending
	}
	return nil
}

// IsDue reports whether the entry should be attempted at now.
func (e *Entry) IsDue(now time.Time) bool {
	return e.CanRetry() && !now.Before(e.NextAttemptAt)
}

// CanRetry returns true for pending/retrying entries with attempts left.
func (e *Entry) CanRetry() bool {
	return (e.Status == StatusPending || e.Status == StatusRetrying) && e.Attempts < e.MaxAttempts
}

// IsTerminal returns true for sent, failed and abandoned entries.
func (e *Entry) IsTerminal() bool {
	return e.Status == StatusSent || e.Status == StatusFailed || e.Status == StatusAbandoned
}

// MarkAttempt records a delivery attempt.
// POST: Attempts incremented, LastAttemptedAt = now, status retrying
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSent marks the entry delivered.
func (e *Entry) MarkSent(externalID string) {
	e.Status = StatusSent
	e.ExternalID = externalID
	e.ErrorMessage = ""
}

// MarkFailed records a failed attempt and schedules the next one with
// exponential backoff. Once attempts are exhausted the entry becomes failed.
func (e *Entry) MarkFailed(err error, now time.Time, base, max time.Duration) {
	e.ErrorMessage = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
		return
	}
	e.NextAttemptAt = now.Add(e.NextRetryDelay(base, max))
}

// MarkAbandoned stops further delivery attempts.
func (e *Entry) MarkAbandoned() {
	e.Status = StatusAbandoned
}

// NextRetryDelay is 2^attempts * base, capped at max.
func (e *Entry) NextRetryDelay(base, max time.Duration) time.Duration {
	if e.Attempts >= 30 {
		return max
	}
	delay := base * (1 << e.Attempts)
	if delay > max || delay <= 0 {
		return max
	}
	return delay
}
