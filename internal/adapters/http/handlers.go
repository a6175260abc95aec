package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"gymbooking/internal/adapters/network"
	"gymbooking/internal/adapters/storage"
	"gymbooking/internal/application/clock"
	"gymbooking/internal/application/identity"
	"gymbooking/internal/application/orchestrators"
	"gymbooking/internal/domain/booking"
	"gymbooking/internal/domain/gymclass"
	"gymbooking/internal/domain/settings"
	"gymbooking/internal/domain/user"
)

// errBadRequest marks request decoding failures.
var errBadRequest = errors.New("bad request")

// badRequestErrors are validation failures reported to the client verbatim.
var badRequestErrors = []error{
	errBadRequest,
	booking.ErrEmptyClassID,
	gymclass.ErrEmptyID,
	gymclass.ErrInvalidType,
	user.ErrEmptyEmail,
	user.ErrInvalidEmail,
	user.ErrEmailTooLong,
	user.ErrEmptyName,
	user.ErrNameTooLong,
	user.ErrEmptyPassword,
	user.ErrPasswordTooShort,
	settings.ErrNegativeDelay,
	settings.ErrDelayOrder,
	settings.ErrFailureRateRange,
	settings.ErrDelayTooLarge,
	clock.ErrUnknownUnit,
	clock.ErrOffsetRange,
	orchestrators.ErrNewPasswordSame,
}

// statusFor maps an engine error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, network.ErrSimulatedNetwork):
		return http.StatusServiceUnavailable
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrAlreadyBooked),
		errors.Is(err, booking.ErrAlreadyWaitlisted),
		errors.Is(err, booking.ErrClassStarted),
		errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, storage.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, booking.ErrNotAuthenticated),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, user.ErrWrongPassword):
		return http.StatusUnauthorized
	case errors.Is(err, booking.ErrNotOwner),
		errors.Is(err, booking.ErrAdminRequired):
		return http.StatusForbidden
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// writeError reports err to the client. Internal errors are logged and
// replaced by a generic message so store details never leak.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case status == http.StatusInternalServerError && errors.Is(err, context.Canceled):
		slog.Info("request_cancelled", "path", r.URL.Path)
		msg = "request cancelled"
	case status == http.StatusInternalServerError:
		slog.Error("internal_error", "path", r.URL.Path, "error", err.Error())
		msg = "internal server error"
	case status == http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", "1")
	case status == http.StatusNotFound:
		msg = "not found"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err.Error())
	}
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// requireAdmin writes 401/403 and returns false unless an admin is signed in.
func (s *server) requireAdmin(w http.ResponseWriter, r *http.Request) (user.Identity, bool) {
	id, err := identity.RequireAdmin(r.Context(), s.identity)
	if err != nil {
		slog.Warn("auth_denied", "path", r.URL.Path, "reason", err.Error())
		writeError(w, r, err)
		return user.Identity{}, false
	}
	return id, true
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// handleRegister handles POST /api/register. A new member is signed in
// straight away.
func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := network.Run(r.Context(), s.deps.Network, func(ctx context.Context) (user.User, error) {
		return orchestrators.ExecuteRegisterUser(ctx, orchestrators.RegisterUserInput{
			Email:    req.Email,
			Password: req.Password,
			Name:     req.Name,
		}, s.accountDeps())
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.sessions.Start(w, r, u.Identity()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newUserView(u.Identity()))
}

// handleLogin handles POST /api/login.
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := network.Run(r.Context(), s.deps.Network, func(ctx context.Context) (user.Identity, error) {
		return orchestrators.ExecuteLogin(ctx, orchestrators.LoginInput{Email: req.Email, Password: req.Password}, s.accountDeps())
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.sessions.Start(w, r, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(id))
}

// handleLogout handles POST /api/logout.
func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.End(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// handleMe handles GET /api/me.
func (s *server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, err := identity.Require(r.Context(), s.identity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(id))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// handleChangePassword handles POST /api/password.
func (s *server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}, s.identity, s.accountDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
