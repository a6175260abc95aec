package user

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Max length constants for user-editable fields.
const (
	MaxEmailLength = 254
	MaxNameLength  = 100
)

// MinPasswordLength is the shortest accepted plaintext password.
const MinPasswordLength = 8

// Membership tier constants
const (
	MembershipStandard = "standard"
	MembershipPremium  = "premium"
	MembershipAdmin    = "admin"
)

// ValidMemberships contains all valid membership tiers.
var ValidMemberships = []string{MembershipStandard, MembershipPremium, MembershipAdmin}

// Domain errors
var (
	ErrEmptyEmail        = errors.New("email cannot be empty")
	ErrInvalidEmail      = errors.New("email must contain '@'")
	ErrEmailTooLong      = errors.New("email cannot exceed 254 characters")
	ErrEmptyName         = errors.New("name cannot be empty")
	ErrNameTooLong       = errors.New("name cannot exceed 100 characters")
	ErrInvalidMembership = errors.New("membership must be one of: standard, premium, admin")
	ErrEmptyPassword     = errors.New("password cannot be empty")
	ErrPasswordTooShort  = errors.New("password must be at least 8 characters")
	ErrWrongPassword     = errors.New("invalid password")
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("user already exists")
)

// User is a registered gym member.
type User struct {
	ID             string
	Email          string
	PasswordHash   string
	Name           string
	MembershipType string
	MemberSince    time.Time
}

// Identity is the minimal view of the signed-in user that the booking
// engine consults.
type Identity struct {
	UserID         string
	Email          string
	DisplayName    string
	MembershipType string
}

// IsAdmin reports whether the identity carries the admin tier.
func (i Identity) IsAdmin() bool {
	return i.MembershipType == MembershipAdmin
}

// System is the identity used by trusted local tooling.
var System = Identity{
	UserID:         "system",
	DisplayName:    "System",
	MembershipType: MembershipAdmin,
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks if the User has valid data.
// PRE: User struct is populated
// POST: Returns nil if valid, error otherwise
func (u *User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	if len(u.Email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if len(u.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !isValidMembership(u.MembershipType) {
		return ErrInvalidMembership
	}
	return nil
}

// SetPassword hashes and stores a password using bcrypt.
// PRE: plaintext is non-empty and >= MinPasswordLength characters
// POST: PasswordHash is set to bcrypt hash
func (u *User) SetPassword(plaintext string) error {
	return u.SetPasswordWithCost(plaintext, bcrypt.DefaultCost)
}

// SetPasswordWithCost is SetPassword with an explicit bcrypt cost.
// Seeders use bcrypt.MinCost to keep bulk inserts fast.
func (u *User) SetPasswordWithCost(plaintext string, cost int) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// PRE: PasswordHash is set
// INVARIANT: User fields are not mutated
func (u *User) CheckPassword(plaintext string) error {
	if u.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsAdmin returns true if the user has the admin membership tier.
// INVARIANT: User fields are not mutated
func (u *User) IsAdmin() bool {
	return u.MembershipType == MembershipAdmin
}

// Identity returns the session-facing view of the user.
func (u *User) Identity() Identity {
	return Identity{
		UserID:         u.ID,
		Email:          u.Email,
		DisplayName:    u.Name,
		MembershipType: u.MembershipType,
	}
}

func isValidMembership(m string) bool {
	for _, v := range ValidMemberships {
		if v == m {
			return true
		}
	}
	return false
}
