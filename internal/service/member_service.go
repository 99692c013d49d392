package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/desh1993/fitness-mvp/internal/config"
	"github.com/desh1993/fitness-mvp/internal/domain"
	"github.com/desh1993/fitness-mvp/internal/events"
	"github.com/desh1993/fitness-mvp/internal/repository"
	"github.com/desh1993/fitness-mvp/internal/validation"
	apperrors "github.com/desh1993/fitness-mvp/pkg/util/errorutil"
)

const emailTakenMessage = "The email has already been taken."

// MemberService coordinates member reads, writes and field checks.
type MemberService struct {
	members    repository.MemberRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.MembersConfig
}

// MemberDependencies bundles collaborators for member service.
type MemberDependencies struct {
	MemberRepo repository.MemberRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewMemberService builds the service.
func NewMemberService(cfg config.MembersConfig, deps MemberDependencies) *MemberService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPerPage <= 0 {
		cfg.DefaultPerPage = 10
	}
	if cfg.MaxPerPage < cfg.DefaultPerPage {
		cfg.MaxPerPage = cfg.DefaultPerPage
	}
	return &MemberService{
		members:    deps.MemberRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// MemberInput is the create/update payload. Optional values may be nil or empty.
type MemberInput struct {
	Name           string  `json:"name" validate:"required,max=255"`
	Email          string  `json:"email" validate:"required,email,max=255"`
	Phone          *string `json:"phone" validate:"omitempty,max=50"`
	DateOfBirth    *string `json:"date_of_birth" validate:"omitempty,date"`
	MembershipType string  `json:"membership_type" validate:"required,oneof=basic premium student"`
	Status         string  `json:"status" validate:"required,oneof=active inactive"`
	JoinedAt       *string `json:"joined_at" validate:"omitempty,date"`
}

func (in MemberInput) normalized() MemberInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.MembershipType = strings.TrimSpace(in.MembershipType)
	in.Status = strings.TrimSpace(in.Status)
	in.Phone = trimOptional(in.Phone)
	in.DateOfBirth = trimOptional(in.DateOfBirth)
	in.JoinedAt = trimOptional(in.JoinedAt)
	return in
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Get returns a member or a not-found error.
func (s *MemberService) Get(ctx context.Context, id int64) (*domain.Member, error) {
	member, err := s.members.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}
	return member, nil
}

// Create validates input and persists a new member. Missing plan and status take their defaults.
func (s *MemberService) Create(ctx context.Context, actorID *int64, input MemberInput) (*domain.Member, error) {
	input = input.normalized()
	if input.MembershipType == "" {
		input.MembershipType = string(domain.MembershipBasic)
	}
	if input.Status == "" {
		input.Status = string(domain.MemberStatusActive)
	}

	member, err := s.validate(ctx, input, nil)
	if err != nil {
		return nil, err
	}

	if err := s.members.Create(ctx, member); err != nil {
		return nil, s.mapRepoError(err, 0)
	}

	s.publish(ctx, events.NewMemberEvent(events.EventMemberCreated, member.ID, actorID, snapshotOf(member)))
	return member, nil
}

// Update replaces every mutable attribute of member id and returns the stored state.
func (s *MemberService) Update(ctx context.Context, actorID *int64, id int64, input MemberInput) (*domain.Member, error) {
	existing, err := s.members.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}

	member, err := s.validate(ctx, input.normalized(), &id)
	if err != nil {
		return nil, err
	}
	member.ID = id

	if err := s.members.Update(ctx, member); err != nil {
		return nil, s.mapRepoError(err, id)
	}

	refreshed, err := s.members.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}

	s.publish(ctx, events.NewMemberEvent(events.EventMemberUpdated, id, actorID, events.MemberUpdatedPayload{
		MemberSnapshotPayload: snapshotOf(refreshed),
		Changed:               changedFields(existing, refreshed),
	}))
	return refreshed, nil
}

// Delete permanently removes member id.
func (s *MemberService) Delete(ctx context.Context, actorID *int64, id int64) error {
	existing, err := s.members.GetByID(ctx, id)
	if err != nil {
		return s.mapRepoError(err, id)
	}
	if err := s.members.Delete(ctx, id); err != nil {
		return s.mapRepoError(err, id)
	}

	s.publish(ctx, events.NewMemberEvent(events.EventMemberDeleted, id, actorID, snapshotOf(existing)))
	return nil
}

// validate runs field rules and the email uniqueness check, then builds the member attributes.
func (s *MemberService) validate(ctx context.Context, input MemberInput, excludeID *int64) (*domain.Member, error) {
	fields, err := validation.Struct(input)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if fields == nil {
		fields = apperrors.FieldErrors{}
	}

	if s.cfg.EnforcePhoneFormat && input.Phone != nil && !fields.Has("phone") && !domain.ValidPhone(*input.Phone) {
		fields.Add("phone", domain.PhoneFormatMessage)
	}

	if !fields.Has("email") {
		taken, err := s.members.ExistsByField(ctx, domain.MemberFieldEmail, input.Email, excludeID)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if taken {
			fields.Add("email", emailTakenMessage)
		}
	}

	if !fields.Empty() {
		return nil, apperrors.NewFieldValidationError(fields)
	}

	member := &domain.Member{
		Name:           input.Name,
		Email:          input.Email,
		Phone:          input.Phone,
		MembershipType: domain.MembershipType(input.MembershipType),
		Status:         domain.MemberStatus(input.Status),
	}
	member.DateOfBirth = parseOptionalDate(input.DateOfBirth)
	member.JoinedAt = parseOptionalDate(input.JoinedAt)
	return member, nil
}

func parseOptionalDate(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	d, err := domain.ParseDate(*raw)
	if err != nil {
		return nil
	}
	return &d
}

func (s *MemberService) mapRepoError(err error, id int64) error {
	switch {
	case errors.Is(err, repository.ErrMemberNotFound):
		return apperrors.NewNotFound("Member", map[string]any{"id": id})
	case errors.Is(err, repository.ErrEmailTaken):
		fields := apperrors.FieldErrors{}
		fields.Add("email", emailTakenMessage)
		return apperrors.NewFieldValidationError(fields)
	default:
		return apperrors.MapError(err)
	}
}

func (s *MemberService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("member event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("member_id", event.MemberID),
			zap.Error(err))
	}
}

func snapshotOf(m *domain.Member) events.MemberSnapshotPayload {
	return events.MemberSnapshotPayload{
		Name:           m.Name,
		Email:          m.Email,
		MembershipType: string(m.MembershipType),
		Status:         string(m.Status),
	}
}

func changedFields(before, after *domain.Member) []string {
	changed := []string{}
	if before.Name != after.Name {
		changed = append(changed, "name")
	}
	if before.Email != after.Email {
		changed = append(changed, "email")
	}
	if !equalStringPtr(before.Phone, after.Phone) {
		changed = append(changed, "phone")
	}
	if !equalDatePtr(before.DateOfBirth, after.DateOfBirth) {
		changed = append(changed, "date_of_birth")
	}
	if before.MembershipType != after.MembershipType {
		changed = append(changed, "membership_type")
	}
	if before.Status != after.Status {
		changed = append(changed, "status")
	}
	if !equalDatePtr(before.JoinedAt, after.JoinedAt) {
		changed = append(changed, "joined_at")
	}
	return changed
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalDatePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
