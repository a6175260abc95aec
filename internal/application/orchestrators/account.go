package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gymbooking/internal/adapters/storage"
	"gymbooking/internal/adapters/storage/records"
	"gymbooking/internal/domain/user"
)

// AccountDeps holds dependencies for registration and login.
type AccountDeps struct {
	Records  RecordStore
	Clock    Clock
	HashCost int // optional: bcrypt.DefaultCost when zero
}

// RegisterUserInput carries input for RegisterUser.
type RegisterUserInput struct {
	Email    string
	Password string
	Name     string
}

// ExecuteRegisterUser creates a standard member.
// PRE: email not yet registered
// POST: user stored with a bcrypt hash and MemberSince = clock now;
// returns user.ErrEmailTaken if the unique email index rejects it
func ExecuteRegisterUser(ctx context.Context, input RegisterUserInput, deps AccountDeps) (user.User, error) {
	u := user.User{
		ID:             uuid.New().String(),
		Email:          user.NormalizeEmail(input.Email),
		Name:           input.Name,
		MembershipType: user.MembershipStandard,
		MemberSince:    deps.Clock.Now(),
	}
	if err := u.Validate(); err != nil {
		return user.User{}, err
	}
	cost := deps.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if err := u.SetPasswordWithCost(input.Password, cost); err != nil {
		return user.User{}, err
	}

	err := deps.Records.Update(ctx, func(tx records.Tx) error {
		return tx.Users.Create(ctx, u)
	})
	if errors.Is(err, storage.ErrDuplicateKey) {
		slog.Info("auth_event", "event", "register_failed", "email", u.Email, "reason", "email_taken")
		return user.User{}, user.ErrEmailTaken
	}
	if err != nil {
		return user.User{}, err
	}

	slog.Info("auth_event", "event", "user_registered", "user_id", u.ID, "email", u.Email)
	return u, nil
}

// LoginInput carries input for Login.
type LoginInput struct {
	Email    string
	Password string
}

// ExecuteLogin checks credentials and returns the identity to store in the
// session.
// POST: user.ErrUserNotFound for an unknown email, user.ErrWrongPassword for
// a mismatch
func ExecuteLogin(ctx context.Context, input LoginInput, deps AccountDeps) (user.Identity, error) {
	email := user.NormalizeEmail(input.Email)
	if email == "" {
		return user.Identity{}, user.ErrEmptyEmail
	}

	var u user.User
	err := deps.Records.View(ctx, func(tx records.Tx) error {
		var err error
		u, err = tx.Users.GetByEmail(ctx, email)
		return err
	})
	if errors.Is(err, storage.ErrNotFound) {
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "not_found")
		return user.Identity{}, user.ErrUserNotFound
	}
	if err != nil {
		return user.Identity{}, err
	}

	if err := u.CheckPassword(input.Password); err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "wrong_password")
		return user.Identity{}, err
	}

	slog.Info("auth_event", "event", "login_success", "user_id", u.ID, "membership", u.MembershipType)
	return u.Identity(), nil
}
