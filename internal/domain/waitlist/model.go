package waitlist

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEmptyUserID  = errors.New("waitlist user ID cannot be empty")
	ErrEmptyClassID = errors.New("waitlist class ID cannot be empty")
	ErrZeroJoinedAt = errors.New("waitlist join timestamp is required")
)

// Entry is one user's place in the queue for a full class.
type Entry struct {
	ID       string
	UserID   string
	ClassID  string
	JoinedAt time.Time
}

// Validate checks if the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(e.ClassID) == "" {
		return ErrEmptyClassID
	}
	if e.JoinedAt.IsZero() {
		return ErrZeroJoinedAt
	}
	return nil
}

// IsOwnedBy reports whether userID holds this entry.
func (e *Entry) IsOwnedBy(userID string) bool {
	return e.UserID == userID
}

// Order sorts entries into promotion order: earliest JoinedAt first.
// PRE: entries are in insertion order
// POST: equal timestamps keep their insertion order
func Order(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].JoinedAt.Before(entries[j].JoinedAt)
	})
}

// NextInLine returns the entry to promote when a slot frees up.
// PRE: entries are in insertion order
// POST: entries is not mutated
func NextInLine(entries []Entry) (Entry, bool) {
	if len(entries) == 0 {
		return Entry{}, false
	}
	next := entries[0]
	for _, e := range entries[1:] {
		if e.JoinedAt.Before(next.JoinedAt) {
			next = e
		}
	}
	return next, true
}

// Position returns the 1-based queue position of entryID, or 0 if absent.
// PRE: entries are in insertion order
func Position(entries []Entry, entryID string) int {
	ordered := make([]Entry, len(entries))
	copy(ordered, entries)
	Order(ordered)
	for i, e := range ordered {
		if e.ID == entryID {
			return i + 1
		}
	}
	return 0
}
