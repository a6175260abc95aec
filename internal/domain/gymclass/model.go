package gymclass

import (
	"errors"
	"strings"
	"time"
)

// Class type constants
const (
	TypeYoga = "yoga"
	TypeSpin = "spin"
	TypeHIIT = "hiit"
)

// ValidTypes contains all valid class types.
var ValidTypes = []string{TypeYoga, TypeSpin, TypeHIIT}

// Persisted status constants. Only available and full are ever stored.
const (
	StatusAvailable = "available"
	StatusFull      = "full"
)

// StatusCompleted is a display-only status for classes whose start has passed.
const StatusCompleted = "completed"

// Domain errors
var (
	ErrEmptyID         = errors.New("class ID cannot be empty")
	ErrInvalidType     = errors.New("class type must be one of: yoga, spin, hiit")
	ErrEmptyName       = errors.New("class name cannot be empty")
	ErrEmptyInstructor = errors.New("instructor cannot be empty")
	ErrZeroDateTime    = errors.New("class start time is required")
	ErrInvalidDuration = errors.New("duration must be a positive number of minutes")
	ErrInvalidCapacity = errors.New("capacity must be a positive integer")
	ErrInvalidBookings = errors.New("current bookings cannot be negative")
	ErrInvalidStatus   = errors.New("status must be available or full")
)

// Class is one scheduled session.
// CurrentBookings and Status are derived from the booking records and are
// rewritten by ApplyBookingCount; they are never authoritative on their own.
type Class struct {
	ID              string
	Type            string
	Name            string
	Instructor      string
	DateTime        time.Time
	DurationMinutes int
	Capacity        int
	CurrentBookings int
	Status          string
}

// Validate checks if the Class has valid data.
// PRE: Class struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Class) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrEmptyID
	}
	if !IsValidType(c.Type) {
		return ErrInvalidType
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(c.Instructor) == "" {
		return ErrEmptyInstructor
	}
	if c.DateTime.IsZero() {
		return ErrZeroDateTime
	}
	if c.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	if c.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if c.CurrentBookings < 0 {
		return ErrInvalidBookings
	}
	if c.Status != StatusAvailable && c.Status != StatusFull {
		return ErrInvalidStatus
	}
	return nil
}

// ApplyBookingCount rewrites the derived counters from an authoritative
// booking count.
// POST: CurrentBookings == count; Status == full iff count >= Capacity
// Returns true if either field changed.
func (c *Class) ApplyBookingCount(count int) bool {
	status := StatusAvailable
	if count >= c.Capacity {
		status = StatusFull
	}
	changed := c.CurrentBookings != count || c.Status != status
	c.CurrentBookings = count
	c.Status = status
	return changed
}

// AvailableSpots returns the number of free places, never below zero.
func (c *Class) AvailableSpots() int {
	if n := c.Capacity - c.CurrentBookings; n > 0 {
		return n
	}
	return 0
}

// EndsAt returns the class end time.
func (c *Class) EndsAt() time.Time {
	return c.DateTime.Add(time.Duration(c.DurationMinutes) * time.Minute)
}

// IsPast reports whether the class has started as of now.
// INVARIANT: now must come from the clock service, never time.Now
func (c *Class) IsPast(now time.Time) bool {
	return c.DateTime.Before(now)
}

// IsBookable reports whether a booking attempt is still allowed as of now.
func (c *Class) IsBookable(now time.Time) bool {
	return c.DateTime.After(now)
}

// IsToday reports whether the class falls on the same calendar day as now,
// in now's location.
func (c *Class) IsToday(now time.Time) bool {
	return sameDay(c.DateTime.In(now.Location()), now)
}

// IsTomorrow reports whether the class falls on the calendar day after now.
func (c *Class) IsTomorrow(now time.Time) bool {
	return sameDay(c.DateTime.In(now.Location()), now.AddDate(0, 0, 1))
}

// DayLabel returns "Today", "Tomorrow" or a short date such as "Mon, Jan 2".
func (c *Class) DayLabel(now time.Time) string {
	switch {
	case c.IsToday(now):
		return "Today"
	case c.IsTomorrow(now):
		return "Tomorrow"
	default:
		return c.DateTime.In(now.Location()).Format("Mon, Jan 2")
	}
}

// DisplayStatus is Status, or completed once the class has started.
func (c *Class) DisplayStatus(now time.Time) string {
	if c.IsPast(now) {
		return StatusCompleted
	}
	return c.Status
}

// IsValidType reports whether t is a known class type.
func IsValidType(t string) bool {
	for _, v := range ValidTypes {
		if v == t {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
