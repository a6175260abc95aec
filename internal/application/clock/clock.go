// Package clock is the single source of "now". Every past/today/tomorrow
// decision reads Clock.Now so that simulated time travel is seen everywhere.
package clock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gymbooking/internal/adapters/storage"
	"gymbooking/internal/domain/settings"
)

// Unit is a granularity accepted by Advance.
type Unit string

// Units
const (
	Minutes Unit = "minutes"
	Hours   Unit = "hours"
	Days    Unit = "days"
)

// Errors
var (
	ErrUnknownUnit = errors.New("unit must be one of: minutes, hours, days")
	ErrOffsetRange = errors.New("time offset must stay within 100 years of real time")
)

// MaxOffset bounds the simulated offset in either direction.
const MaxOffset = 100 * 365 * 24 * time.Hour

// Duration returns the length of one unit.
func (u Unit) Duration() (time.Duration, error) {
	switch u {
	case Minutes:
		return time.Minute, nil
	case Hours:
		return time.Hour, nil
	case Days:
		return 24 * time.Hour, nil
	}
	return 0, ErrUnknownUnit
}

// ParseUnit accepts singular or plural unit names, case-insensitively.
func ParseUnit(s string) (Unit, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasSuffix(s, "s") {
		s += "s"
	}
	u := Unit(s)
	if _, err := u.Duration(); err != nil {
		return "", err
	}
	return u, nil
}

// OffsetStore persists the offset. The settings SQLite store satisfies it.
type OffsetStore interface {
	GetTimeSimulation(ctx context.Context) (settings.TimeSimulation, error)
	SaveTimeSimulation(ctx context.Context, value settings.TimeSimulation) error
}

// Clock is wall time plus a process-wide offset.
type Clock struct {
	mu     sync.RWMutex
	offset time.Duration
	wall   func() time.Time
	store  OffsetStore
}

// Option configures a Clock.
type Option func(*Clock)

// WithWall replaces the wall clock, for tests.
func WithWall(wall func() time.Time) Option {
	return func(c *Clock) { c.wall = wall }
}

// New creates a Clock with a zero offset. A nil store keeps the offset in
// memory only.
func New(store OffsetStore, opts ...Option) *Clock {
	c := &Clock{wall: time.Now, store: store}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load applies the persisted offset, if any.
// POST: offset equals the stored value, or zero when nothing is stored
func (c *Clock) Load(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	ts, err := c.store.GetTimeSimulation(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		c.apply(0)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load time offset: %w", err)
	}
	c.apply(ts.Offset())
	return nil
}

// Now returns simulated current time.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wall().Add(c.offset)
}

// Wall returns real current time, ignoring the offset.
func (c *Clock) Wall() time.Time {
	return c.wall()
}

// Offset returns the current offset.
func (c *Clock) Offset() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}

// SetOffset persists d and then applies it process-wide.
// POST: if persisting fails the in-memory offset is unchanged
func (c *Clock) SetOffset(ctx context.Context, d time.Duration) error {
	d = d.Truncate(time.Millisecond)
	if c.store != nil {
		err := c.store.SaveTimeSimulation(ctx, settings.TimeSimulation{
			OffsetMs:    d.Milliseconds(),
			LastUpdated: c.wall(),
		})
		if err != nil {
			return fmt.Errorf("save time offset: %w", err)
		}
	}
	c.apply(d)
	slog.Info("clock_event", "event", "offset_changed", "offset_ms", d.Milliseconds(), "label", FormatOffset(d))
	return nil
}

// Advance adds amount units to the current offset. Negative amounts move
// time backwards.
// POST: the offset is unchanged and ErrOffsetRange returned when the result
// would leave [-MaxOffset, MaxOffset]
func (c *Clock) Advance(ctx context.Context, amount int, unit Unit) (time.Duration, error) {
	step, err := unit.Duration()
	if err != nil {
		return 0, err
	}
	limit := int64(MaxOffset / step)
	if int64(amount) > limit || int64(amount) < -limit {
		return 0, ErrOffsetRange
	}
	next := c.Offset() + time.Duration(amount)*step
	if next > MaxOffset || next < -MaxOffset {
		return 0, ErrOffsetRange
	}
	if err := c.SetOffset(ctx, next); err != nil {
		return 0, err
	}
	return next, nil
}

// Reset returns to real time.
func (c *Clock) Reset(ctx context.Context) error {
	return c.SetOffset(ctx, 0)
}

func (c *Clock) apply(d time.Duration) {
	c.mu.Lock()
	c.offset = d
	c.mu.Unlock()
}

// FormatOffset renders an offset as "Real time" or, for example,
// "2 days, 3 hours ahead".
func FormatOffset(d time.Duration) string {
	if d == 0 {
		return "Real time"
	}
	direction := "ahead"
	if d < 0 {
		direction = "behind"
		d = -d
	}
	totalMinutes := int64(d / time.Minute)
	days := totalMinutes / (24 * 60)
	hours := (totalMinutes % (24 * 60)) / 60
	minutes := totalMinutes % 60

	var parts []string
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if len(parts) == 0 {
		return "less than a minute " + direction
	}
	return strings.Join(parts, ", ") + " " + direction
}

func plural(n int64, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
