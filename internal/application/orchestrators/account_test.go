package orchestrators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"gymbooking/internal/application/identity"
	"gymbooking/internal/domain/booking"
	"gymbooking/internal/domain/user"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	deps := AccountDeps{Records: env.store, Clock: env.clock, HashCost: bcrypt.MinCost}

	u, err := ExecuteRegisterUser(ctx, RegisterUserInput{Email: "  New@Test.com ", Password: "password123", Name: "New Member"}, deps)
	require.NoError(t, err)
	assert.Equal(t, "new@test.com", u.Email)
	assert.Equal(t, user.MembershipStandard, u.MembershipType)
	assert.Equal(t, testWall, u.MemberSince)
	assert.NotEqual(t, "password123", u.PasswordHash)

	id, err := ExecuteLogin(ctx, LoginInput{Email: "NEW@test.com", Password: "password123"}, deps)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.UserID)
	assert.Equal(t, "New Member", id.DisplayName)
	assert.False(t, id.IsAdmin())
}

func TestRegisterUser_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	deps := AccountDeps{Records: env.store, Clock: env.clock, HashCost: bcrypt.MinCost}

	_, err := ExecuteRegisterUser(ctx, RegisterUserInput{Email: "dup@test.com", Password: "password123", Name: "Dup"}, deps)
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   RegisterUserInput
		wantErr error
	}{
		{"duplicate email", RegisterUserInput{Email: "DUP@test.com", Password: "password123", Name: "Other"}, user.ErrEmailTaken},
		{"no at sign", RegisterUserInput{Email: "nobody", Password: "password123", Name: "X"}, user.ErrInvalidEmail},
		{"empty name", RegisterUserInput{Email: "a@test.com", Password: "password123"}, user.ErrEmptyName},
		{"short password", RegisterUserInput{Email: "b@test.com", Password: "short", Name: "B"}, user.ErrPasswordTooShort},
		{"empty password", RegisterUserInput{Email: "c@test.com", Name: "C"}, user.ErrEmptyPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExecuteRegisterUser(ctx, tt.input, deps)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLogin_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	deps := AccountDeps{Records: env.store, Clock: env.clock, HashCost: bcrypt.MinCost}
	_, err := ExecuteRegisterUser(ctx, RegisterUserInput{Email: "m@test.com", Password: "password123", Name: "M"}, deps)
	require.NoError(t, err)

	_, err = ExecuteLogin(ctx, LoginInput{Email: "", Password: "password123"}, deps)
	require.ErrorIs(t, err, user.ErrEmptyEmail)
	_, err = ExecuteLogin(ctx, LoginInput{Email: "ghost@test.com", Password: "password123"}, deps)
	require.ErrorIs(t, err, user.ErrUserNotFound)
	_, err = ExecuteLogin(ctx, LoginInput{Email: "m@test.com", Password: "password124"}, deps)
	require.ErrorIs(t, err, user.ErrWrongPassword)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	deps := AccountDeps{Records: env.store, Clock: env.clock, HashCost: bcrypt.MinCost}
	u, err := ExecuteRegisterUser(ctx, RegisterUserInput{Email: "pw@test.com", Password: "password123", Name: "Pw"}, deps)
	require.NoError(t, err)
	signedIn := identity.WithUser(ctx, u.Identity())
	ident := identity.ContextProvider{}

	err = ExecuteChangePassword(ctx, ChangePasswordInput{CurrentPassword: "password123", NewPassword: "newpassword1"}, ident, deps)
	require.ErrorIs(t, err, booking.ErrNotAuthenticated)
	err = ExecuteChangePassword(signedIn, ChangePasswordInput{CurrentPassword: "wrong-pass", NewPassword: "newpassword1"}, ident, deps)
	require.ErrorIs(t, err, user.ErrWrongPassword)
	err = ExecuteChangePassword(signedIn, ChangePasswordInput{CurrentPassword: "password123", NewPassword: "password123"}, ident, deps)
	require.ErrorIs(t, err, ErrNewPasswordSame)
	err = ExecuteChangePassword(signedIn, ChangePasswordInput{CurrentPassword: "password123", NewPassword: "short"}, ident, deps)
	require.ErrorIs(t, err, user.ErrPasswordTooShort)

	require.NoError(t, ExecuteChangePassword(signedIn, ChangePasswordInput{CurrentPassword: "password123", NewPassword: "newpassword1"}, ident, deps))
	_, err = ExecuteLogin(ctx, LoginInput{Email: "pw@test.com", Password: "password123"}, deps)
	require.ErrorIs(t, err, user.ErrWrongPassword)
	_, err = ExecuteLogin(ctx, LoginInput{Email: "pw@test.com", Password: "newpassword1"}, deps)
	require.NoError(t, err)
}
