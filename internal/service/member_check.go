package service

import (
	"context"

	"github.com/desh1993/fitness-mvp/internal/domain"
	apperrors "github.com/desh1993/fitness-mvp/pkg/util/errorutil"
)

// CheckInput asks whether value is already used in field by a member other than ExcludeID.
type CheckInput struct {
	Field     string
	Value     string
	ExcludeID *int64
}

// CheckResult answers a field check. Valid and Message are only set for phone checks.
type CheckResult struct {
	Exists  bool
	Valid   *bool
	Message string
}

// CheckExists looks up a candidate field value. Phone values must be in Malaysian format
// before the store is consulted.
func (s *MemberService) CheckExists(ctx context.Context, input CheckInput) (*CheckResult, error) {
	field := domain.MemberField(input.Field)
	if !field.Valid() {
		return nil, apperrors.NewBadRequest("The selected field is invalid.")
	}

	if field == domain.MemberFieldPhone {
		valid := domain.ValidPhone(input.Value)
		if !valid {
			return &CheckResult{Exists: false, Valid: &valid, Message: domain.PhoneFormatMessage}, nil
		}
		exists, err := s.members.ExistsByField(ctx, field, input.Value, input.ExcludeID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		return &CheckResult{Exists: exists, Valid: &valid}, nil
	}

	exists, err := s.members.ExistsByField(ctx, field, input.Value, input.ExcludeID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &CheckResult{Exists: exists}, nil
}
