// Package web serves the booking engine as a JSON API.
package web

import (
	"net/http"
	"time"

	"gymbooking/internal/adapters/http/middleware"
	"gymbooking/internal/adapters/http/perf"
	"gymbooking/internal/adapters/network"
	"gymbooking/internal/adapters/storage/records"
	"gymbooking/internal/application/clock"
	"gymbooking/internal/application/fixtures"
	"gymbooking/internal/application/identity"
	"gymbooking/internal/application/orchestrators"
	"gymbooking/internal/application/projections"
)

// Deps holds what the handlers call into.
type Deps struct {
	Records   *records.Store
	Clock     *clock.Clock
	Network   *network.Simulator // optional: nil disables simulation
	Generator fixtures.Generator
	Outbox    *orchestrators.OutboxProcessor // optional: admin retry endpoints report 503 without it
	Collector *perf.Collector                // optional
	HashCost  int                            // optional: bcrypt.DefaultCost when zero
}

// Options configures the middleware chain.
type Options struct {
	CSRFKey            []byte // 32 bytes
	SessionHashKey     []byte // 32 or 64 bytes
	SessionBlockKey    []byte // 16, 24 or 32 bytes; nil leaves cookies signed but unencrypted
	SecureCookies      bool
	TrustedOrigins     []string
	RateLimitPerSecond int           // 0 selects 20
	SlowRequest        time.Duration // 0 selects middleware.DefaultSlowRequest
	SessionNow         func() time.Time
}

type server struct {
	deps     Deps
	sessions *middleware.SessionStore
	identity identity.Provider
}

func (s *server) bookingDeps() orchestrators.BookingDeps {
	return orchestrators.BookingDeps{
		Records:  s.deps.Records,
		Clock:    s.deps.Clock,
		Network:  s.network(),
		Identity: s.identity,
	}
}

func (s *server) adminDeps() orchestrators.AdminDeps {
	return orchestrators.AdminDeps{
		Records:   s.deps.Records,
		Clock:     s.deps.Clock,
		Identity:  s.identity,
		Generator: s.deps.Generator,
	}
}

func (s *server) accountDeps() orchestrators.AccountDeps {
	return orchestrators.AccountDeps{Records: s.deps.Records, Clock: s.deps.Clock, HashCost: s.deps.HashCost}
}

func (s *server) statsDeps() projections.GetSystemStatsDeps {
	return projections.GetSystemStatsDeps{Records: s.deps.Records}
}

// network returns the simulator as an interface value that is nil when no
// simulator is wired, so the engine skips it instead of calling a nil
// pointer's method.
func (s *server) network() orchestrators.Network {
	if s.deps.Network == nil {
		return nil
	}
	return s.deps.Network
}

// NewMux wires HTTP handlers for the app.
func NewMux(deps Deps, opts Options) http.Handler {
	var sessionOpts []middleware.SessionOption
	if opts.SessionNow != nil {
		sessionOpts = append(sessionOpts, middleware.WithSessionNow(opts.SessionNow))
	}
	s := &server{
		deps:     deps,
		sessions: middleware.NewSessionStore(opts.SessionHashKey, opts.SessionBlockKey, sessionOpts...),
		identity: identity.ContextProvider{},
	}

	mux := http.NewServeMux()
	registerRoutes(mux, s)

	rate := opts.RateLimitPerSecond
	if rate <= 0 {
		rate = 20
	}
	limiter := middleware.NewRateLimiter(rate, time.Second)

	// Outermost first: SecurityHeaders -> RateLimit -> CSRF -> Auth -> Timing -> mux.
	// Timing sits next to the mux so it can read the matched route pattern.
	return middleware.Chain(mux,
		middleware.Timing(deps.Collector, opts.SlowRequest),
		middleware.Auth(s.sessions),
		middleware.CSRF(opts.CSRFKey, opts.SecureCookies, opts.TrustedOrigins),
		middleware.RateLimit(limiter),
		middleware.SecurityHeaders,
	)
}

func registerRoutes(mux *http.ServeMux, s *server) {
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/me", s.handleMe)
	mux.HandleFunc("POST /api/password", s.handleChangePassword)

	mux.HandleFunc("GET /api/classes", s.handleSchedule)
	mux.HandleFunc("POST /api/classes/{id}/book", s.handleBook)
	mux.HandleFunc("GET /api/my-bookings", s.handleMyBookings)
	mux.HandleFunc("POST /api/bookings/{id}/cancel", s.handleCancelBooking)
	mux.HandleFunc("POST /api/waitlist/{id}/leave", s.handleLeaveWaitlist)

	mux.HandleFunc("GET /api/admin/stats", s.handleAdminStats)
	mux.HandleFunc("GET /api/admin/network", s.handleGetNetwork)
	mux.HandleFunc("PUT /api/admin/network", s.handleUpdateNetwork)
	mux.HandleFunc("GET /api/admin/time", s.handleGetTime)
	mux.HandleFunc("POST /api/admin/time/advance", s.handleAdvanceTime)
	mux.HandleFunc("POST /api/admin/time/reset", s.handleResetTime)
	mux.HandleFunc("POST /api/admin/recompute", s.handleRecompute)
	mux.HandleFunc("POST /api/admin/reset", s.handleResetAll)
	mux.HandleFunc("POST /api/admin/clear-bookings", s.handleClearBookings)
	mux.HandleFunc("GET /api/admin/perf", s.handlePerf)
	mux.HandleFunc("GET /api/admin/notifications", s.handleListNotifications)
	mux.HandleFunc("POST /api/admin/notifications/{id}/retry", s.handleRetryNotification)
	mux.HandleFunc("POST /api/admin/notifications/{id}/abandon", s.handleAbandonNotification)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
