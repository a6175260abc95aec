// Package fixtures produces demo data for seeding. It is swappable and has
// no say in booking rules: the seeder recomputes every class counter after
// inserting whatever a Generator returns.
package fixtures

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gymbooking/internal/domain/booking"
	"gymbooking/internal/domain/gymclass"
	"gymbooking/internal/domain/user"
	"gymbooking/internal/domain/waitlist"
)

// Dataset is everything a Generator produces.
type Dataset struct {
	Users    []user.User
	Classes  []gymclass.Class
	Bookings []booking.Booking
	Waitlist []waitlist.Entry
}

// Generator builds a Dataset relative to now.
type Generator interface {
	Generate(now time.Time) (Dataset, error)
}

// ClassProfile describes one class type.
type ClassProfile struct {
	Type            string
	Name            string
	DurationMinutes int
	Capacity        int
	Instructors     []string
}

// Profiles in rotation order.
var Profiles = []ClassProfile{
	{Type: gymclass.TypeYoga, Name: "Yoga", DurationMinutes: 60, Capacity: 20, Instructors: []string{"Sarah Chen", "Maya Patel", "Emma Wilson"}},
	{Type: gymclass.TypeSpin, Name: "Spin", DurationMinutes: 45, Capacity: 10, Instructors: []string{"Mike Johnson", "Carlos Rodriguez", "Lisa Thompson"}},
	{Type: gymclass.TypeHIIT, Name: "HIIT", DurationMinutes: 30, Capacity: 15, Instructors: []string{"James Kim", "Alex Turner", "Rachel Green"}},
}

// TimeSlots are the daily start times, as hour and minute.
var TimeSlots = [][2]int{{7, 0}, {8, 0}, {9, 0}, {17, 0}, {18, 0}, {19, 0}}

// ScheduleDays is how many days ahead of today classes are generated.
const ScheduleDays = 15

// GeneratedUsers is the number of random members added to the fixed accounts.
const GeneratedUsers = 20

// Account is a fixed login that always exists after seeding.
type Account struct {
	ID             string
	Email          string
	Password       string
	Name           string
	MembershipType string
	MemberSince    time.Time
}

// DefaultAccounts are the documented demo logins.
var DefaultAccounts = []Account{
	{ID: "user_default_1", Email: "student@test.com", Password: "password123", Name: "Test Student", MembershipType: user.MembershipStandard, MemberSince: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	{ID: "user_default_2", Email: "premium@test.com", Password: "premium123", Name: "Premium Member", MembershipType: user.MembershipPremium, MemberSince: time.Date(2023, 6, 20, 0, 0, 0, 0, time.UTC)},
	{ID: "user_default_3", Email: "admin@test.com", Password: "admin123", Name: "Admin User", MembershipType: user.MembershipAdmin, MemberSince: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
}

var firstNames = []string{
	"Emma", "Liam", "Olivia", "Noah", "Ava", "Ethan", "Sophia", "Mason",
	"Isabella", "William", "Mia", "James", "Charlotte", "Benjamin", "Amelia",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
	"Davis", "Rodriguez", "Martinez", "Hernandez", "Lopez",
}

// DemoGenerator reproduces the demo gym: fixed accounts, random members,
// one class per slot for the coming days and demand-driven bookings.
type DemoGenerator struct {
	rng      *rand.Rand
	hashCost int
	loc      *time.Location
}

// Option configures a DemoGenerator.
type Option func(*DemoGenerator)

// WithRand sets the random source.
func WithRand(r *rand.Rand) Option {
	return func(g *DemoGenerator) { g.rng = r }
}

// WithHashCost sets the bcrypt cost for seeded passwords.
func WithHashCost(cost int) Option {
	return func(g *DemoGenerator) { g.hashCost = cost }
}

// WithLocation sets the time zone whose calendar days the schedule follows.
func WithLocation(loc *time.Location) Option {
	return func(g *DemoGenerator) { g.loc = loc }
}

// NewDemoGenerator creates a DemoGenerator.
func NewDemoGenerator(opts ...Option) *DemoGenerator {
	g := &DemoGenerator{
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x2545f4914f6cdd1d)),
		hashCost: bcrypt.DefaultCost,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate implements Generator.
// POST: every booking/waitlist pair is unique, no class is booked beyond
// capacity, and class counters are left at zero for the seeder to recompute
func (g *DemoGenerator) Generate(now time.Time) (Dataset, error) {
	users, err := g.users()
	if err != nil {
		return Dataset{}, err
	}
	classes := g.classes(now)
	bookings, entries := g.demand(now, users, classes)
	return Dataset{Users: users, Classes: classes, Bookings: bookings, Waitlist: entries}, nil
}

func (g *DemoGenerator) users() ([]user.User, error) {
	out := make([]user.User, 0, len(DefaultAccounts)+GeneratedUsers)
	for _, a := range DefaultAccounts {
		u := user.User{ID: a.ID, Email: a.Email, Name: a.Name, MembershipType: a.MembershipType, MemberSince: a.MemberSince}
		if err := u.SetPasswordWithCost(a.Password, g.hashCost); err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", a.Email, err)
		}
		out = append(out, u)
	}

	// Generated members share one password, so hash it once.
	shared := user.User{}
	if err := shared.SetPasswordWithCost("password123", g.hashCost); err != nil {
		return nil, fmt.Errorf("hash generated password: %w", err)
	}
	for i := 0; i < GeneratedUsers; i++ {
		first := firstNames[g.rng.IntN(len(firstNames))]
		last := lastNames[g.rng.IntN(len(lastNames))]
		tier := user.MembershipStandard
		if g.rng.Float64() > 0.8 {
			tier = user.MembershipPremium
		}
		out = append(out, user.User{
			ID:             fmt.Sprintf("user_generated_%d", i+1),
			Email:          fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), i),
			PasswordHash:   shared.PasswordHash,
			Name:           first + " " + last,
			MembershipType: tier,
			MemberSince:    time.Date(2023, time.Month(1+g.rng.IntN(12)), 1+g.rng.IntN(28), 0, 0, 0, 0, time.UTC),
		})
	}
	return out, nil
}

func (g *DemoGenerator) classes(now time.Time) []gymclass.Class {
	local := now.In(g.loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, g.loc)

	out := make([]gymclass.Class, 0, (ScheduleDays+1)*len(TimeSlots))
	for day := 0; day <= ScheduleDays; day++ {
		date := today.AddDate(0, 0, day)
		for i, slot := range TimeSlots {
			p := Profiles[i%len(Profiles)]
			start := time.Date(date.Year(), date.Month(), date.Day(), slot[0], slot[1], 0, 0, g.loc)
			out = append(out, gymclass.Class{
				ID:              fmt.Sprintf("%s-%s-%02d%02d", p.Type, date.Format("2006-01-02"), slot[0], slot[1]),
				Type:            p.Type,
				Name:            p.Name + " Class",
				Instructor:      p.Instructors[g.rng.IntN(len(p.Instructors))],
				DateTime:        start,
				DurationMinutes: p.DurationMinutes,
				Capacity:        p.Capacity,
				Status:          gymclass.StatusAvailable,
			})
		}
	}
	return out
}

// demand decides how many members want each class: 30% low (20-60% of
// capacity), 40% medium (60-90%), 20% exactly full, 10% overflow
// (100-150%) with the excess queued on the waitlist.
func (g *DemoGenerator) demand(now time.Time, users []user.User, classes []gymclass.Class) ([]booking.Booking, []waitlist.Entry) {
	var bookings []booking.Booking
	var entries []waitlist.Entry

	for _, c := range classes {
		target := g.targetBookings(c.Capacity)
		if target > len(users) {
			target = len(users)
		}
		order := g.rng.Perm(len(users))

		for i := 0; i < target; i++ {
			u := users[order[i]]
			if i < c.Capacity {
				bookings = append(bookings, booking.Booking{
					ID:       uuid.New().String(),
					UserID:   u.ID,
					ClassID:  c.ID,
					BookedAt: now.Add(-g.within(7 * 24 * time.Hour)),
					Status:   booking.StatusConfirmed,
				})
				continue
			}
			entries = append(entries, waitlist.Entry{
				ID:       uuid.New().String(),
				UserID:   u.ID,
				ClassID:  c.ID,
				JoinedAt: now.Add(-g.within(3 * 24 * time.Hour)),
			})
		}
	}
	return bookings, entries
}

func (g *DemoGenerator) targetBookings(capacity int) int {
	size := float64(capacity)
	switch level := g.rng.Float64(); {
	case level < 0.3:
		return int(size * (0.2 + g.rng.Float64()*0.4))
	case level < 0.7:
		return int(size * (0.6 + g.rng.Float64()*0.3))
	case level < 0.9:
		return capacity
	default:
		return int(size * (1.0 + g.rng.Float64()*0.5))
	}
}

// within returns a random duration in [0, d), truncated to milliseconds.
func (g *DemoGenerator) within(d time.Duration) time.Duration {
	return time.Duration(g.rng.Int64N(int64(d))).Truncate(time.Millisecond)
}
