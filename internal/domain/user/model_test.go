package user_test

import (
	"strings"
	"testing"

	"gymbooking/internal/domain/user"

	"golang.org/x/crypto/bcrypt"
)

// TestUser_Validate tests validation of User.
func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name    string
		user    user.User
		wantErr error
	}{
		{
			name: "valid standard member",
			user: user.User{ID: "u1", Email: "student@test.com", Name: "Test Student", MembershipType: user.MembershipStandard},
		},
		{
			name: "valid admin",
			user: user.User{ID: "u2", Email: "admin@test.com", Name: "Admin User", MembershipType: user.MembershipAdmin},
		},
		{
			name:    "empty email",
			user:    user.User{ID: "u3", Email: " ", Name: "X", MembershipType: user.MembershipStandard},
			wantErr: user.ErrEmptyEmail,
		},
		{
			name:    "email without at sign",
			user:    user.User{ID: "u4", Email: "nobody", Name: "X", MembershipType: user.MembershipStandard},
			wantErr: user.ErrInvalidEmail,
		},
		{
			name:    "email too long",
			user:    user.User{ID: "u5", Email: strings.Repeat("a", 250) + "@x.io", Name: "X", MembershipType: user.MembershipStandard},
			wantErr: user.ErrEmailTooLong,
		},
		{
			name:    "empty name",
			user:    user.User{ID: "u6", Email: "a@b.c", Name: "", MembershipType: user.MembershipStandard},
			wantErr: user.ErrEmptyName,
		},
		{
			name:    "unknown membership",
			user:    user.User{ID: "u7", Email: "a@b.c", Name: "X", MembershipType: "gold"},
			wantErr: user.ErrInvalidMembership,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if err != tt.wantErr {
				t.Errorf("User.Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUser_Password(t *testing.T) {
	u := user.User{}
	if err := u.SetPasswordWithCost("short", bcrypt.MinCost); err != user.ErrPasswordTooShort {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if err := u.SetPasswordWithCost("", bcrypt.MinCost); err != user.ErrEmptyPassword {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
	if err := u.SetPasswordWithCost("password123", bcrypt.MinCost); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if u.PasswordHash == "" || u.PasswordHash == "password123" {
		t.Fatalf("password was not hashed: %q", u.PasswordHash)
	}
	if err := u.CheckPassword("password123"); err != nil {
		t.Errorf("CheckPassword(correct) = %v, want nil", err)
	}
	if err := u.CheckPassword("password124"); err != user.ErrWrongPassword {
		t.Errorf("CheckPassword(wrong) = %v, want ErrWrongPassword", err)
	}
}

func TestUser_CheckPassword_NoHash(t *testing.T) {
	u := user.User{}
	if err := u.CheckPassword("anything1"); err != user.ErrWrongPassword {
		t.Errorf("expected ErrWrongPassword for empty hash, got %v", err)
	}
}

func TestUser_Identity(t *testing.T) {
	u := user.User{ID: "user_default_3", Email: "admin@test.com", Name: "Admin User", MembershipType: user.MembershipAdmin}
	id := u.Identity()
	if id.UserID != u.ID || id.DisplayName != u.Name || id.Email != u.Email {
		t.Errorf("Identity() = %+v, does not mirror user %+v", id, u)
	}
	if !id.IsAdmin() {
		t.Error("expected admin identity")
	}
	if !user.System.IsAdmin() {
		t.Error("System identity must carry the admin tier")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := user.NormalizeEmail("  Student@Test.COM "); got != "student@test.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}
