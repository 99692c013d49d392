// Package seed fills a fresh database with staff accounts and a demo member roster.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/desh1993/fitness-mvp/internal/auth"
	"github.com/desh1993/fitness-mvp/internal/domain"
	"github.com/desh1993/fitness-mvp/internal/repository"
)

// DefaultStaffPassword is the password every seeded staff account starts with.
const DefaultStaffPassword = "password"

// StaffAccount describes a seeded staff login.
type StaffAccount struct {
	Name  string
	Email string
}

// DefaultStaff are created on every seed run when absent.
var DefaultStaff = []StaffAccount{
	{Name: "Admin User", Email: "admin@fithub.com"},
	{Name: "Staff User", Email: "staff@fithub.com"},
	{Name: "Test User", Email: "test@example.com"},
}

var (
	firstNames = []string{"Aisyah", "Ahmad", "Siti", "Muhammad", "Nurul", "Wei Ling", "Jun Hao", "Priya", "Arjun", "Mei", "Hafiz", "Farah", "Daniel", "Kavitha", "Amir"}
	lastNames  = []string{"Abdullah", "Tan", "Lim", "Rahman", "Wong", "Kumar", "Ismail", "Lee", "Ng", "Raj", "Hassan", "Chong", "Ali", "Yusof", "Krishnan"}
	plans      = []domain.MembershipType{domain.MembershipBasic, domain.MembershipPremium, domain.MembershipStudent}
	statuses   = []domain.MemberStatus{domain.MemberStatusActive, domain.MemberStatusInactive}
)

// Seeder writes fixture data through the repositories.
type Seeder struct {
	users      repository.UserRepository
	members    repository.MemberRepository
	logger     *zap.Logger
	rng        *rand.Rand
	now        func() time.Time
	bcryptCost int
}

// Option customises a Seeder.
type Option func(*Seeder)

// WithRand fixes the random source, mostly for tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Seeder) { s.rng = rng }
}

// WithClock overrides the reference time used for birth and join dates.
func WithClock(now func() time.Time) Option {
	return func(s *Seeder) { s.now = now }
}

// WithBcryptCost sets the hashing cost for staff passwords.
func WithBcryptCost(cost int) Option {
	return func(s *Seeder) { s.bcryptCost = cost }
}

// NewSeeder builds a seeder.
func NewSeeder(users repository.UserRepository, members repository.MemberRepository, logger *zap.Logger, opts ...Option) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Seeder{
		users:   users,
		members: members,
		logger:  logger,
		rng:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeedStaff creates the default staff accounts that do not exist yet. All of them are verified.
func (s *Seeder) SeedStaff(ctx context.Context) (int, error) {
	created := 0
	for _, account := range DefaultStaff {
		if _, err := s.users.GetByEmail(ctx, account.Email); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return created, fmt.Errorf("lookup %s: %w", account.Email, err)
		}

		hash, err := auth.HashPassword(DefaultStaffPassword, s.bcryptCost)
		if err != nil {
			return created, err
		}
		verifiedAt := s.now()
		err = s.users.Create(ctx, &domain.User{
			Name:            account.Name,
			Email:           account.Email,
			PasswordHash:    hash,
			EmailVerifiedAt: &verifiedAt,
		})
		if errors.Is(err, repository.ErrUserEmailTaken) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("create %s: %w", account.Email, err)
		}
		created++
		s.logger.Info("staff account seeded", zap.String("email", account.Email))
	}
	return created, nil
}

// SeedMembers inserts n generated members. Emails that already exist are skipped.
func (s *Seeder) SeedMembers(ctx context.Context, n int) (int, error) {
	created := 0
	for i := 0; i < n; i++ {
		member := s.fakeMember(i)
		err := s.members.Create(ctx, member)
		if errors.Is(err, repository.ErrEmailTaken) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("create member %s: %w", member.Email, err)
		}
		created++
	}
	s.logger.Info("members seeded", zap.Int("requested", n), zap.Int("created", created))
	return created, nil
}

func (s *Seeder) fakeMember(i int) *domain.Member {
	first := firstNames[s.rng.IntN(len(firstNames))]
	last := lastNames[s.rng.IntN(len(lastNames))]
	now := s.now()

	member := &domain.Member{
		Name:           first + " " + last,
		Email:          fmt.Sprintf("%s.%s.%d@example.com", slug(first), slug(last), i+1),
		MembershipType: plans[s.rng.IntN(len(plans))],
		Status:         statuses[s.rng.IntN(len(statuses))],
	}
	if s.chance(80) {
		phone := fmt.Sprintf("+601%d%08d", s.rng.IntN(10), s.rng.IntN(100_000_000))
		member.Phone = &phone
	}
	if s.chance(70) {
		years := 18 + s.rng.IntN(48)
		dob := dateOnly(now.AddDate(-years, 0, -s.rng.IntN(365)))
		member.DateOfBirth = &dob
	}
	if s.chance(90) {
		joined := dateOnly(now.AddDate(0, 0, -s.rng.IntN(730)))
		member.JoinedAt = &joined
	}
	return member
}

func (s *Seeder) chance(percent int) bool {
	return s.rng.IntN(100) < percent
}

func slug(v string) string {
	return strings.ToLower(strings.ReplaceAll(v, " ", ""))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
