package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"gymbooking/internal/application/orchestrators"
	"gymbooking/internal/application/projections"
	"gymbooking/internal/domain/settings"
)

// handleAdminStats handles GET /api/admin/stats.
func (s *server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	stats, err := projections.QueryGetSystemStats(r.Context(), s.statsDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatsView(stats, orchestrators.ExecuteGetTimeStatus(s.adminDeps()), s.deps.Network.Stats()))
}

// handleGetNetwork handles GET /api/admin/network.
func (s *server) handleGetNetwork(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	cfg, err := projections.QueryGetNetworkSettings(r.Context(), s.statsDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// handleUpdateNetwork handles PUT /api/admin/network. Omitted fields keep
// their current value.
func (s *server) handleUpdateNetwork(w http.ResponseWriter, r *http.Request) {
	var patch settings.NetworkPatch
	if err := strictDecode(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	cfg, err := orchestrators.ExecuteUpdateNetworkSettings(r.Context(), orchestrators.UpdateNetworkSettingsInput{Patch: patch}, s.adminDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// handleGetTime handles GET /api/admin/time.
func (s *server) handleGetTime(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, newTimeView(orchestrators.ExecuteGetTimeStatus(s.adminDeps())))
}

type advanceTimeRequest struct {
	Amount int    `json:"amount"`
	Unit   string `json:"unit"`
}

// handleAdvanceTime handles POST /api/admin/time/advance.
func (s *server) handleAdvanceTime(w http.ResponseWriter, r *http.Request) {
	var req advanceTimeRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	status, err := orchestrators.ExecuteAdvanceTime(r.Context(), orchestrators.AdvanceTimeInput{Amount: req.Amount, Unit: req.Unit}, s.adminDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTimeView(status))
}

// handleResetTime handles POST /api/admin/time/reset.
func (s *server) handleResetTime(w http.ResponseWriter, r *http.Request) {
	status, err := orchestrators.ExecuteResetTime(r.Context(), s.adminDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTimeView(status))
}

type recomputeRequest struct {
	ClassID string `json:"classId"`
}

// handleRecompute handles POST /api/admin/recompute. With a classId it
// reconciles that class; with an empty body it reconciles every class.
func (s *server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	var req recomputeRequest
	if r.ContentLength != 0 {
		if err := strictDecode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	deps := orchestrators.RecomputeDeps{Records: s.deps.Records, Network: s.network()}

	if req.ClassID != "" {
		res, err := orchestrators.ExecuteRecomputeClassCounters(r.Context(), orchestrators.RecomputeClassCountersInput{ClassID: req.ClassID}, deps)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"class": newClassView(res.Class), "changed": res.Changed})
		return
	}

	corrected, err := orchestrators.ExecuteRecomputeAllClassCounters(r.Context(), deps)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"corrected": corrected})
}

// handleResetAll handles POST /api/admin/reset.
func (s *server) handleResetAll(w http.ResponseWriter, r *http.Request) {
	res, err := orchestrators.ExecuteResetAllData(r.Context(), s.adminDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSeedView(res))
}

// handleClearBookings handles POST /api/admin/clear-bookings.
func (s *server) handleClearBookings(w http.ResponseWriter, r *http.Request) {
	res, err := orchestrators.ExecuteClearBookings(r.Context(), s.adminDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"bookings":  res.Bookings,
		"waitlist":  res.Waitlist,
		"corrected": res.Corrected,
	})
}

// handlePerf handles GET /api/admin/perf?since=15m&top=5.
func (s *server) handlePerf(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	if s.deps.Collector == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "performance collection disabled"})
		return
	}
	q := r.URL.Query()
	since := time.Hour
	if v := q.Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeError(w, r, errBadRequest)
			return
		}
		since = d
	}
	top := 10
	if v := q.Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, r, errBadRequest)
			return
		}
		top = n
	}
	writeJSON(w, http.StatusOK, s.deps.Collector.Snapshot(time.Now().Add(-since), top))
}

// handleListNotifications handles GET /api/admin/notifications?status=failed.
func (s *server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	q := r.URL.Query()
	query := projections.ListNotificationsQuery{Status: q.Get("status")}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, errBadRequest)
			return
		}
		query.Limit = n
	}
	entries, err := projections.QueryListNotifications(r.Context(), query, projections.ListNotificationsDeps{Records: s.deps.Records})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newNotificationViews(entries))
}

// handleRetryNotification handles POST /api/admin/notifications/{id}/retry.
// The attempt runs immediately, ignoring backoff.
func (s *server) handleRetryNotification(w http.ResponseWriter, r *http.Request) {
	s.notificationAction(w, r, s.deps.Outbox.ProcessSingle, "retried")
}

// handleAbandonNotification handles POST /api/admin/notifications/{id}/abandon.
func (s *server) handleAbandonNotification(w http.ResponseWriter, r *http.Request) {
	s.notificationAction(w, r, s.deps.Outbox.AbandonEntry, "abandoned")
}

func (s *server) notificationAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id string) error, result string) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	if s.deps.Outbox == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "notification delivery disabled"})
		return
	}
	id := r.PathValue("id")
	if err := action(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": result})
}
