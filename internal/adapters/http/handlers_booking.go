package web

import (
	"net/http"
	"strconv"

	"gymbooking/internal/application/identity"
	"gymbooking/internal/application/orchestrators"
	"gymbooking/internal/application/projections"
	"gymbooking/internal/domain/booking"
	"gymbooking/internal/domain/gymclass"
)

// handleSchedule handles GET /api/classes?type=yoga&upcoming=true.
// Anonymous callers get the plain schedule; members also see their own
// booking and waitlist state per class.
func (s *server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := projections.GetScheduleInput{
		Now:  s.deps.Clock.Now(),
		Type: q.Get("type"),
	}
	if input.Type != "" && !gymclass.IsValidType(input.Type) {
		writeError(w, r, gymclass.ErrInvalidType)
		return
	}
	if v := q.Get("upcoming"); v != "" {
		upcoming, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, errBadRequest)
			return
		}
		input.UpcomingOnly = upcoming
	}
	if id, ok := s.identity.CurrentUser(r.Context()); ok {
		input.UserID = id.UserID
	}

	items, err := projections.QueryGetSchedule(r.Context(), input, projections.GetScheduleDeps{Records: s.deps.Records})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newScheduleView(items))
}

// handleBook handles POST /api/classes/{id}/book.
func (s *server) handleBook(w http.ResponseWriter, r *http.Request) {
	res, err := orchestrators.ExecuteAttemptBook(r.Context(), orchestrators.AttemptBookInput{ClassID: r.PathValue("id")}, s.bookingDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if res.Outcome == booking.OutcomeWaitlisted {
		status = http.StatusAccepted
	}
	writeJSON(w, status, newAttemptBookView(res))
}

// handleMyBookings handles GET /api/my-bookings.
func (s *server) handleMyBookings(w http.ResponseWriter, r *http.Request) {
	id, err := identity.Require(r.Context(), s.identity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	mine, err := projections.QueryGetMyBookings(r.Context(), id.UserID, s.deps.Clock.Now(), projections.GetMyBookingsDeps{Records: s.deps.Records})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newMyBookingsView(mine))
}

// handleCancelBooking handles POST /api/bookings/{id}/cancel.
func (s *server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	res, err := orchestrators.ExecuteCancelBooking(r.Context(), orchestrators.CancelBookingInput{BookingID: r.PathValue("id")}, s.bookingDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCancelView(res))
}

// handleLeaveWaitlist handles POST /api/waitlist/{id}/leave.
func (s *server) handleLeaveWaitlist(w http.ResponseWriter, r *http.Request) {
	entry, err := orchestrators.ExecuteLeaveWaitlist(r.Context(), orchestrators.LeaveWaitlistInput{EntryID: r.PathValue("id")}, s.bookingDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newWaitlistView(entry, 0))
}
