package projections

import (
	"context"
	"sort"
	"time"

	"gymbooking/internal/adapters/storage/records"
	"gymbooking/internal/domain/gymclass"
	"gymbooking/internal/domain/waitlist"
)

// GetScheduleDeps holds dependencies for the schedule projection.
type GetScheduleDeps struct {
	Records RecordView
}

// GetScheduleInput filters the schedule.
type GetScheduleInput struct {
	Now          time.Time // from the clock service
	UserID       string    // optional: fills the per-user fields
	Type         string    // optional: one class type
	UpcomingOnly bool
}

// ScheduleItem is one class as the booking page shows it.
type ScheduleItem struct {
	Class            gymclass.Class
	DisplayStatus    string // available, full or completed
	DayLabel         string
	AvailableSpots   int
	WaitlistLength   int
	BookingID        string // set when UserID holds a booking
	WaitlistEntryID  string // set when UserID is waitlisted
	WaitlistPosition int    // 1-based; 0 when not waitlisted
}

// IsBooked reports whether the requesting user holds a booking.
func (s ScheduleItem) IsBooked() bool { return s.BookingID != "" }

// IsWaitlisted reports whether the requesting user is on the waitlist.
func (s ScheduleItem) IsWaitlisted() bool { return s.WaitlistEntryID != "" }

// QueryGetSchedule lists classes in start order with display state resolved
// against input.Now.
// INVARIANT: Store state is not mutated
func QueryGetSchedule(ctx context.Context, input GetScheduleInput, deps GetScheduleDeps) ([]ScheduleItem, error) {
	var (
		classes  []gymclass.Class
		queues   = map[string][]waitlist.Entry{}
		bookedBy = map[string]string{}
	)
	err := deps.Records.View(ctx, func(tx records.Tx) error {
		var err error
		if input.Type != "" {
			classes, err = tx.Classes.ListByType(ctx, input.Type)
		} else {
			classes, err = tx.Classes.List(ctx)
		}
		if err != nil {
			return err
		}

		entries, err := tx.Waitlist.List(ctx)
		if err != nil {
			return err
		}
		for _, e := range entries {
			queues[e.ClassID] = append(queues[e.ClassID], e)
		}

		if input.UserID == "" {
			return nil
		}
		mine, err := tx.Bookings.ListByUserID(ctx, input.UserID)
		if err != nil {
			return err
		}
		for _, b := range mine {
			bookedBy[b.ClassID] = b.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(classes, func(i, j int) bool {
		return classes[i].DateTime.Before(classes[j].DateTime)
	})

	items := make([]ScheduleItem, 0, len(classes))
	for _, c := range classes {
		if input.UpcomingOnly && c.IsPast(input.Now) {
			continue
		}
		queue := queues[c.ID]
		waitlist.Order(queue)
		item := ScheduleItem{
			Class:          c,
			DisplayStatus:  c.DisplayStatus(input.Now),
			DayLabel:       c.DayLabel(input.Now),
			AvailableSpots: c.AvailableSpots(),
			WaitlistLength: len(queue),
			BookingID:      bookedBy[c.ID],
		}
		if input.UserID != "" {
			for i, e := range queue {
				if e.UserID == input.UserID {
					item.WaitlistEntryID = e.ID
					item.WaitlistPosition = i + 1
					break
				}
			}
		}
		items = append(items, item)
	}
	return items, nil
}
