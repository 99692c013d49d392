package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desh1993/fitness-mvp/internal/config"
	"github.com/desh1993/fitness-mvp/internal/domain"
	"github.com/desh1993/fitness-mvp/internal/events"
	"github.com/desh1993/fitness-mvp/internal/repository"
	apperrors "github.com/desh1993/fitness-mvp/pkg/util/errorutil"
)

func strPtr(s string) *string { return &s }

type memberFixture struct {
	svc        *MemberService
	repo       *repository.MemoryMemberRepository
	published  []events.Event
	dispatcher events.Dispatcher
}

func newMemberFixture(t *testing.T, cfg config.MembersConfig) *memberFixture {
	t.Helper()
	f := &memberFixture{
		repo:       repository.NewMemoryMemberRepository(),
		dispatcher: events.NewInMemoryDispatcher(),
	}
	record := func(_ context.Context, e events.Event) error {
		f.published = append(f.published, e)
		return nil
	}
	f.dispatcher.Subscribe(events.EventMemberCreated, record)
	f.dispatcher.Subscribe(events.EventMemberUpdated, record)
	f.dispatcher.Subscribe(events.EventMemberDeleted, record)

	if cfg.DefaultPerPage == 0 {
		cfg = config.MembersConfig{DefaultPerPage: 10, MaxPerPage: 100}
	}
	f.svc = NewMemberService(cfg, MemberDependencies{MemberRepo: f.repo, Dispatcher: f.dispatcher})
	return f
}

func validInput(email string) MemberInput {
	return MemberInput{
		Name:           "Aisyah Rahman",
		Email:          email,
		Phone:          strPtr("+60123456789"),
		DateOfBirth:    strPtr("1995-06-01"),
		MembershipType: "premium",
		Status:         "active",
		JoinedAt:       strPtr("2024-01-15"),
	}
}

func requireFieldError(t *testing.T, err error, field, message string) {
	t.Helper()
	fields, ok := apperrors.FieldsOf(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Contains(t, fields[field], message)
}

func TestMemberService_CreateThenGet(t *testing.T) {
	f := newMemberFixture(t, config.MembersConfig{})
	ctx := context.Background()
	actor := int64(1)

	created, err := f.svc.Create(ctx, &actor, validInput("aisyah@fithub.my"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aisyah Rahman", got.Name)
	assert.Equal(t, "aisyah@fithub.my", got.Email)
	assert.Equal(t, "+60123456789", *got.Phone)
	assert.Equal(t, "1995-06-01", *domain.FormatDate(got.DateOfBirth))
	assert.Equal(t, domain.MembershipPremium, got.MembershipType)
	assert.Equal(t, "2024-01-15", *domain.FormatDate(got.JoinedAt))

	require.Len(t, f.published, 1)
	assert.Equal(t, events.EventMemberCreated, f.published[0].Type)
	assert.Equal(t, &actor, f.published[0].ActorID)
}

func TestMemberService_CreateAppliesDefaults(t *testing.T) {
	f := newMemberFixture(t, config.MembersConfig{})
	created, err := f.svc.Create(context.Background(), nil, MemberInput{Name: "Ben", Email: "ben@fithub.my", Phone: strPtr("  ")})
	require.NoError(t, err)
	assert.Equal(t, domain.MembershipBasic, created.MembershipType)
	assert.Equal(t, domain.MemberStatusActive, created.Status)
	assert.Nil(t, created.Phone)
}

func TestMemberService_CreateRejectsDuplicateEmail(t *testing.T) {
	f := newMemberFixture(t, config.MembersConfig{})
	ctx := context.Background()
	_, err := f.svc.Create(ctx, nil, validInput("dup@fithub.my"))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, nil, validInput("dup@fithub.my"))
	requireFieldError(t, err, "email", "The email has already been taken.")

	page, err := f.svc.List(ctx, MemberQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestMemberService_CreateReportsEveryInvalidField(t *testing.T) {
	f := newMemberFixture(t, config.MembersConfig{})
	_, err := f.svc.Create(context.Background(), nil, MemberInput{
		Email:          "not-an-email",
		MembershipType: "gold",
		Status:         "paused",
		DateOfBirth:    strPtr("yesterday"),
	})

	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, http.StatusUnprocessableEntity, domainErr.HTTPStatus)

	requireFieldError(t, err, "name", "The name field is required.")
	requireFieldError(t, err, "email", "The email field must be a valid email address.")
	requireFieldError(t, err, "membership_type", "The selected membership type is invalid.")
	requireFieldError(t, err, "status", "The selected status is invalid.")
	requireFieldError(t, err, "date_of_birth", "The date of birth field must be a valid date.")
}

func TestMemberService_PhoneFormatEnforcedOnlyWhenConfigured(t *testing.T) {
	input := validInput("phone@fithub.my")
	input.Phone = strPtr("1234567890")

	relaxed := newMemberFixture(t, config.MembersConfig{})
	_, err := relaxed.svc.Create(context.Background(), nil, input)
	require.NoError(t, err)

	strict := newMemberFixture(t, config.MembersConfig{DefaultPerPage: 10, MaxPerPage: 100, EnforcePhoneFormat: true})
	_, err = strict.svc.Create(context.Background(), nil, input)
	requireFieldError(t, err, "phone", domain.PhoneFormatMessage)
}

func TestMemberService_UpdateKeepsOwnEmail(t *testing.T) {
	f := newMemberFixture(t, config.MembersConfig{})
	ctx := context.Background()
	created, err := f.svc.Create(ctx, nil, validInput("self@fithub.my"))
	require.NoError(t, err)

	input := validInput("self@fithub.my")
	input.Name = "Renamed"
	input.Status = "inactive"
	input.Phone = nil
	updated, err := f.svc.Update(ctx, nil, created.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, domain.MemberStatusInactive, updated.Status)
	assert.Nil(t, updated.Phone)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	last := f.published[len(f.published)-1]
	assert.Equal(t, events.EventMemberUpdated, last.Type)
	payload, ok := last.Payload.(events.MemberUpdatedPayload)
	require.True(t, ok)
	assert.Equal(t, []string{"name", "phone", "status"}, payload.Changed)
}

func TestMemberService_UpdateRejectsOtherMembersEmail(t *testing.T) {
	f := newMemberFixture(t, config.MembersConfig{})
	ctx := context.Background()
	_, err := f.svc.Create(ctx, nil, validInput("first@fithub.my"))
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, nil, validInput("second@fithub.my"))
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, nil, second.ID, validInput("first@fithub.my"))
	requireFieldError(t, err, "email", "The email has already been taken.")
}

func TestMemberService_UpdateRequiresPlanAndStatus(t *testing.T) {
	f := newMemberFixture(t, config.MembersConfig{})
	ctx := context.Background()
	created, err := f.svc.Create(ctx, nil, validInput("plan@fithub.my"))
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, nil, created.ID, MemberInput{Name: "x", Email: "plan@fithub.my"})
	requireFieldError(t, err, "membership_type", "The membership type field is required.")
	requireFieldError(t, err, "status", "The status field is required.")
}

func TestMemberService_UpdateAndDeleteMissingMember(t *testing.T) {
	f := newMemberFixture(t, config.MembersConfig{})
	ctx := context.Background()

	_, err := f.svc.Update(ctx, nil, 404, validInput("ghost@fithub.my"))
	assert.True(t, apperrors.IsNotFound(err))

	assert.True(t, apperrors.IsNotFound(f.svc.Delete(ctx, nil, 404)))
}

func TestMemberService_DeleteRemovesPermanently(t *testing.T) {
	f := newMemberFixture(t, config.MembersConfig{})
	ctx := context.Background()
	created, err := f.svc.Create(ctx, nil, validInput("gone@fithub.my"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, nil, created.ID))

	_, err = f.svc.Get(ctx, created.ID)
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, apperrors.IsNotFound(f.svc.Delete(ctx, nil, created.ID)))
	assert.Equal(t, events.EventMemberDeleted, f.published[len(f.published)-1].Type)
}

func TestMemberService_StoreUniqueViolationBecomesFieldError(t *testing.T) {
	repo := &racingRepo{MemoryMemberRepository: repository.NewMemoryMemberRepository()}
	svc := NewMemberService(config.MembersConfig{DefaultPerPage: 10, MaxPerPage: 100}, MemberDependencies{MemberRepo: repo})

	_, err := svc.Create(context.Background(), nil, validInput("race@fithub.my"))
	requireFieldError(t, err, "email", "The email has already been taken.")
}

func TestMemberService_UpdateUniqueViolationBecomesFieldError(t *testing.T) {
	repo := &racingRepo{MemoryMemberRepository: repository.NewMemoryMemberRepository()}
	existing := &domain.Member{Name: "Siti", Email: "siti@fithub.my", MembershipType: domain.MembershipBasic, Status: domain.MemberStatusActive}
	require.NoError(t, repo.MemoryMemberRepository.Create(context.Background(), existing))
	svc := NewMemberService(config.MembersConfig{DefaultPerPage: 10, MaxPerPage: 100}, MemberDependencies{MemberRepo: repo})

	_, err := svc.Update(context.Background(), nil, existing.ID, validInput("race@fithub.my"))
	requireFieldError(t, err, "email", "The email has already been taken.")

	domainErr := apperrors.ToDomainError(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, http.StatusUnprocessableEntity, domainErr.HTTPStatus)

	stored, err := repo.GetByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "siti@fithub.my", stored.Email)
}

// racingRepo passes the uniqueness pre-check and then loses the write race.
type racingRepo struct {
	*repository.MemoryMemberRepository
}

func (r *racingRepo) Create(context.Context, *domain.Member) error {
	return repository.ErrEmailTaken
}

func (r *racingRepo) Update(context.Context, *domain.Member) error {
	return repository.ErrEmailTaken
}

func seedMembers(t *testing.T, f *memberFixture, n int, status func(i int) string) {
	t.Helper()
	for i := 0; i < n; i++ {
		input := validInput(fmt.Sprintf("member%02d@fithub.my", i))
		input.Name = fmt.Sprintf("Member %02d", i)
		input.Status = status(i)
		_, err := f.svc.Create(context.Background(), nil, input)
		require.NoError(t, err)
	}
}

func TestMemberService_ListPagination(t *testing.T) {
	f := newMemberFixture(t, config.MembersConfig{})
	seedMembers(t, f, 23, func(int) string { return "active" })
	ctx := context.Background()

	page, err := f.svc.List(ctx, MemberQuery{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 10, page.PerPage)
	assert.Equal(t, 23, page.Total)
	assert.Equal(t, 3, page.LastPage)
	assert.Equal(t, 1, *page.From)
	assert.Equal(t, 10, *page.To)
	assert.Equal(t, *page.To-*page.From+1, len(page.Data))

	page, err = f.svc.List(ctx, MemberQuery{Page: 3})
	require.NoError(t, err)
	assert.Equal(t, 21, *page.From)
	assert.Equal(t, 23, *page.To)
	assert.Len(t, page.Data, 3)

	page, err = f.svc.List(ctx, MemberQuery{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Nil(t, page.From)
	assert.Nil(t, page.To)
	assert.Equal(t, 3, page.LastPage)
	assert.Equal(t, 9, page.CurrentPage)
}

func TestMemberService_ListPerPageBounds(t *testing.T) {
	f := newMemberFixture(t, config.MembersConfig{DefaultPerPage: 10, MaxPerPage: 15})
	seedMembers(t, f, 20, func(int) string { return "active" })

	page, err := f.svc.List(context.Background(), MemberQuery{PerPage: 500, Page: -3})
	require.NoError(t, err)
	assert.Equal(t, 15, page.PerPage)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Len(t, page.Data, 15)

	page, err = f.svc.List(context.Background(), MemberQuery{PerPage: -1})
	require.NoError(t, err)
	assert.Equal(t, 10, page.PerPage)
}

func TestMemberService_ListHugePageIsEmpty(t *testing.T) {
	f := newMemberFixture(t, config.MembersConfig{})
	seedMembers(t, f, 23, func(int) string { return "active" })

	for _, page := range []int{4, math.MaxInt / 10, math.MaxInt} {
		result, err := f.svc.List(context.Background(), MemberQuery{Page: page, PerPage: 10})
		require.NoError(t, err)
		assert.Empty(t, result.Data, "page %d", page)
		assert.Equal(t, page, result.CurrentPage)
		assert.Equal(t, 3, result.LastPage)
		assert.Equal(t, 23, result.Total)
		assert.Nil(t, result.From)
		assert.Nil(t, result.To)
	}
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, pageOffset(1, 10))
	assert.Equal(t, 20, pageOffset(3, 10))
	assert.Equal(t, math.MaxInt, pageOffset(math.MaxInt, 10))
	assert.Equal(t, math.MaxInt, pageOffset(math.MaxInt/10+2, 10))
}

func TestMemberService_ListEmptyRoster(t *testing.T) {
	f := newMemberFixture(t, config.MembersConfig{})
	page, err := f.svc.List(context.Background(), MemberQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.Equal(t, 1, page.LastPage)
	assert.Nil(t, page.From)
	assert.NotNil(t, page.Data)
}

func TestMemberService_ListStatusFilter(t *testing.T) {
	f := newMemberFixture(t, config.MembersConfig{})
	seedMembers(t, f, 6, func(i int) string {
		if i%3 == 0 {
			return "inactive"
		}
		return "active"
	})
	ctx := context.Background()

	inactive, err := f.svc.List(ctx, MemberQuery{Status: "inactive"})
	require.NoError(t, err)
	assert.Equal(t, 2, inactive.Total)

	blank, err := f.svc.List(ctx, MemberQuery{Status: ""})
	require.NoError(t, err)
	omitted, err := f.svc.List(ctx, MemberQuery{})
	require.NoError(t, err)
	bogus, err := f.svc.List(ctx, MemberQuery{Status: "archived"})
	require.NoError(t, err)
	assert.Equal(t, omitted.Data, blank.Data)
	assert.Equal(t, omitted.Data, bogus.Data)
	assert.Equal(t, 6, omitted.Total)
}

func TestMemberService_ListSearchAndSupplementalFilters(t *testing.T) {
	f := newMemberFixture(t, config.MembersConfig{})
	ctx := context.Background()
	for _, in := range []MemberInput{
		{Name: "Nur Iman", Email: "iman@fithub.my", MembershipType: "student", JoinedAt: strPtr("2024-03-01")},
		{Name: "Kumar", Email: "kumar.IMAN@fithub.my", MembershipType: "basic"},
		{Name: "Lee", Email: "lee@fithub.my", MembershipType: "student", JoinedAt: strPtr("2024-03-01")},
	} {
		_, err := f.svc.Create(ctx, nil, in)
		require.NoError(t, err)
	}

	page, err := f.svc.List(ctx, MemberQuery{Search: "  iMaN "})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = f.svc.List(ctx, MemberQuery{MembershipType: "student", JoinedAt: "2024-03-01"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = f.svc.List(ctx, MemberQuery{MembershipType: "platinum", JoinedAt: "March"})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
}

func TestMemberService_ListOrderingStableOnTimestampTies(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	repo := repository.NewMemoryMemberRepository().WithClock(func() time.Time { return fixed })
	svc := NewMemberService(config.MembersConfig{DefaultPerPage: 10, MaxPerPage: 100}, MemberDependencies{MemberRepo: repo})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, nil, MemberInput{Name: "Same", Email: fmt.Sprintf("tie%d@fithub.my", i)})
		require.NoError(t, err)
	}

	var previous []int64
	for run := 0; run < 3; run++ {
		page, err := svc.List(ctx, MemberQuery{})
		require.NoError(t, err)
		ids := make([]int64, 0, len(page.Data))
		for _, m := range page.Data {
			ids = append(ids, m.ID)
		}
		assert.Equal(t, []int64{5, 4, 3, 2, 1}, ids)
		if previous != nil {
			assert.Equal(t, previous, ids)
		}
		previous = ids
	}
}
