package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"gymbooking/internal/adapters/storage/records"
	"gymbooking/internal/application/identity"
	"gymbooking/internal/domain/user"
)

// ErrNewPasswordSame rejects a change that keeps the current password.
var ErrNewPasswordSame = errors.New("new password must be different from current password")

// ChangePasswordInput carries input for ChangePassword.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

// ExecuteChangePassword replaces the signed-in member's password after
// checking the current one.
// PRE: a member is signed in
// POST: the stored hash matches NewPassword; user.ErrWrongPassword when
// CurrentPassword does not match
func ExecuteChangePassword(ctx context.Context, input ChangePasswordInput, ident identity.Provider, deps AccountDeps) error {
	id, err := identity.Require(ctx, ident)
	if err != nil {
		return err
	}
	if input.CurrentPassword == input.NewPassword {
		return ErrNewPasswordSame
	}
	cost := deps.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	err = deps.Records.Update(ctx, func(tx records.Tx) error {
		u, err := tx.Users.GetByID(ctx, id.UserID)
		if err != nil {
			return err
		}
		if err := u.CheckPassword(input.CurrentPassword); err != nil {
			return err
		}
		if err := u.SetPasswordWithCost(input.NewPassword, cost); err != nil {
			return err
		}
		return tx.Users.Save(ctx, u)
	})
	if err != nil {
		if errors.Is(err, user.ErrWrongPassword) {
			slog.Info("auth_event", "event", "password_change_failed", "user_id", id.UserID, "reason", "wrong_password")
		}
		return err
	}

	slog.Info("auth_event", "event", "password_changed", "user_id", id.UserID)
	return nil
}
