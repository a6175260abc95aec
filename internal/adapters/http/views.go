package web

import (
	"time"

	"gymbooking/internal/adapters/network"
	"gymbooking/internal/application/orchestrators"
	"gymbooking/internal/application/projections"
	"gymbooking/internal/domain/booking"
	"gymbooking/internal/domain/gymclass"
	"gymbooking/internal/domain/outbox"
	"gymbooking/internal/domain/settings"
	"gymbooking/internal/domain/user"
	"gymbooking/internal/domain/waitlist"
)

// JSON shapes served by the API. Field names follow the record store's
// document fields so existing clients keep working.

type classView struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	Name            string    `json:"name"`
	Instructor      string    `json:"instructor"`
	DateTime        time.Time `json:"dateTime"`
	Duration        int       `json:"duration"`
	Capacity        int       `json:"capacity"`
	CurrentBookings int       `json:"currentBookings"`
	Status          string    `json:"status"`
}

func newClassView(c gymclass.Class) classView {
	return classView{
		ID:              c.ID,
		Type:            c.Type,
		Name:            c.Name,
		Instructor:      c.Instructor,
		DateTime:        c.DateTime,
		Duration:        c.DurationMinutes,
		Capacity:        c.Capacity,
		CurrentBookings: c.CurrentBookings,
		Status:          c.Status,
	}
}

type scheduleItemView struct {
	classView
	DisplayStatus    string `json:"displayStatus"`
	DayLabel         string `json:"dayLabel"`
	AvailableSpots   int    `json:"availableSpots"`
	WaitlistLength   int    `json:"waitlistLength"`
	BookingID        string `json:"bookingId,omitempty"`
	WaitlistEntryID  string `json:"waitlistEntryId,omitempty"`
	WaitlistPosition int    `json:"waitlistPosition,omitempty"`
}

func newScheduleView(items []projections.ScheduleItem) []scheduleItemView {
	out := make([]scheduleItemView, 0, len(items))
	for _, it := range items {
		out = append(out, scheduleItemView{
			classView:        newClassView(it.Class),
			DisplayStatus:    it.DisplayStatus,
			DayLabel:         it.DayLabel,
			AvailableSpots:   it.AvailableSpots,
			WaitlistLength:   it.WaitlistLength,
			BookingID:        it.BookingID,
			WaitlistEntryID:  it.WaitlistEntryID,
			WaitlistPosition: it.WaitlistPosition,
		})
	}
	return out
}

type bookingView struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	ClassID  string    `json:"classId"`
	BookedAt time.Time `json:"bookedAt"`
	Status   string    `json:"status"`
}

func newBookingView(b booking.Booking) bookingView {
	return bookingView{ID: b.ID, UserID: b.UserID, ClassID: b.ClassID, BookedAt: b.BookedAt, Status: b.Status}
}

type waitlistView struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	ClassID  string    `json:"classId"`
	JoinedAt time.Time `json:"joinedAt"`
	Position int       `json:"position,omitempty"`
}

func newWaitlistView(e waitlist.Entry, position int) waitlistView {
	return waitlistView{ID: e.ID, UserID: e.UserID, ClassID: e.ClassID, JoinedAt: e.JoinedAt, Position: position}
}

type attemptBookView struct {
	Outcome       booking.Outcome `json:"outcome"`
	Booking       *bookingView    `json:"booking,omitempty"`
	WaitlistEntry *waitlistView   `json:"waitlistEntry,omitempty"`
	Class         classView       `json:"class"`
}

func newAttemptBookView(res orchestrators.AttemptBookResult) attemptBookView {
	v := attemptBookView{Outcome: res.Outcome, Class: newClassView(res.Class)}
	if res.Outcome == booking.OutcomeBooked {
		b := newBookingView(res.Booking)
		v.Booking = &b
	} else {
		e := newWaitlistView(res.Entry, 0)
		v.WaitlistEntry = &e
	}
	return v
}

type cancelView struct {
	Cancelled bookingView  `json:"cancelled"`
	Promoted  *bookingView `json:"promoted,omitempty"`
	Class     classView    `json:"class"`
}

func newCancelView(res orchestrators.CancelBookingResult) cancelView {
	v := cancelView{Cancelled: newBookingView(res.Cancelled), Class: newClassView(res.Class)}
	if res.Promoted != nil {
		p := newBookingView(*res.Promoted)
		v.Promoted = &p
	}
	return v
}

type myBookingsView struct {
	Bookings []bookedClassView     `json:"bookings"`
	Waitlist []waitlistedClassView `json:"waitlist"`
}

type bookedClassView struct {
	Booking bookingView `json:"booking"`
	Class   classView   `json:"class"`
}

type waitlistedClassView struct {
	Entry waitlistView `json:"entry"`
	Class classView    `json:"class"`
}

func newMyBookingsView(m projections.MyBookings) myBookingsView {
	v := myBookingsView{
		Bookings: make([]bookedClassView, 0, len(m.Bookings)),
		Waitlist: make([]waitlistedClassView, 0, len(m.Waitlist)),
	}
	for _, b := range m.Bookings {
		v.Bookings = append(v.Bookings, bookedClassView{Booking: newBookingView(b.Booking), Class: newClassView(b.Class)})
	}
	for _, w := range m.Waitlist {
		v.Waitlist = append(v.Waitlist, waitlistedClassView{Entry: newWaitlistView(w.Entry, w.Position), Class: newClassView(w.Class)})
	}
	return v
}

type userView struct {
	UserID         string `json:"userId"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	MembershipType string `json:"membershipType"`
}

func newUserView(id user.Identity) userView {
	return userView{UserID: id.UserID, Email: id.Email, Name: id.DisplayName, MembershipType: id.MembershipType}
}

type timeView struct {
	Now      time.Time `json:"now"`
	OffsetMs int64     `json:"offsetMs"`
	Label    string    `json:"label"`
}

func newTimeView(t orchestrators.TimeStatus) timeView {
	return timeView{Now: t.Now, OffsetMs: t.OffsetMs(), Label: t.Label}
}

type statsView struct {
	Users                int                    `json:"users"`
	Classes              int                    `json:"classes"`
	FullClasses          int                    `json:"fullClasses"`
	Bookings             int                    `json:"bookings"`
	WaitlistEntries      int                    `json:"waitlistEntries"`
	PendingNotifications int                    `json:"pendingNotifications"`
	FailedNotifications  int                    `json:"failedNotifications"`
	Network              settings.NetworkConfig `json:"network"`
	Time                 timeView               `json:"time"`
	Simulator            network.Stats          `json:"simulator"`
}

func newStatsView(s projections.SystemStats, t orchestrators.TimeStatus, sim network.Stats) statsView {
	return statsView{
		Users:                s.Users,
		Classes:              s.Classes,
		FullClasses:          s.FullClasses,
		Bookings:             s.Bookings,
		WaitlistEntries:      s.WaitlistEntries,
		PendingNotifications: s.PendingNotifications,
		FailedNotifications:  s.FailedNotifications,
		Network:              s.Network,
		Time:                 newTimeView(t),
		Simulator:            sim,
	}
}

type seedView struct {
	Seeded   bool `json:"seeded"`
	Users    int  `json:"users"`
	Classes  int  `json:"classes"`
	Bookings int  `json:"bookings"`
	Waitlist int  `json:"waitlist"`
}

func newSeedView(r orchestrators.SeedResult) seedView {
	return seedView{Seeded: r.Seeded, Users: r.Users, Classes: r.Classes, Bookings: r.Bookings, Waitlist: r.Waitlist}
}

type notificationView struct {
	ID            string     `json:"id"`
	Kind          string     `json:"kind"`
	Recipient     string     `json:"recipient"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	MaxAttempts   int        `json:"maxAttempts"`
	CreatedAt     time.Time  `json:"createdAt"`
	NextAttemptAt *time.Time `json:"nextAttemptAt,omitempty"`
	ExternalID    string     `json:"externalId,omitempty"`
	Error         string     `json:"error,omitempty"`
}

func newNotificationViews(entries []outbox.Entry) []notificationView {
	out := make([]notificationView, 0, len(entries))
	for _, e := range entries {
		v := notificationView{
			ID:          e.ID,
			Kind:        e.Kind,
			Recipient:   e.Recipient,
			Status:      e.Status,
			Attempts:    e.Attempts,
			MaxAttempts: e.MaxAttempts,
			CreatedAt:   e.CreatedAt,
			ExternalID:  e.ExternalID,
			Error:       e.ErrorMessage,
		}
		if !e.IsTerminal() && !e.NextAttemptAt.IsZero() {
			next := e.NextAttemptAt
			v.NextAttemptAt = &next
		}
		out = append(out, v)
	}
	return out
}
