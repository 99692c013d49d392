package dto

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desh1993/fitness-mvp/internal/domain"
)

// MemberRequest is the create/update body.
type MemberRequest struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          *string `json:"phone"`
	DateOfBirth    *string `json:"date_of_birth"`
	MembershipType string  `json:"membership_type"`
	Status         string  `json:"status"`
	JoinedAt       *string `json:"joined_at"`
}

// MemberResponse is the wire shape of a member.
type MemberResponse struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          *string   `json:"phone"`
	DateOfBirth    *string   `json:"date_of_birth"`
	MembershipType string    `json:"membership_type"`
	Status         string    `json:"status"`
	JoinedAt       *string   `json:"joined_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewMemberResponse renders m with dates as YYYY-MM-DD.
func NewMemberResponse(m *domain.Member) MemberResponse {
	return MemberResponse{
		ID:             m.ID,
		Name:           m.Name,
		Email:          m.Email,
		Phone:          m.Phone,
		DateOfBirth:    domain.FormatDate(m.DateOfBirth),
		MembershipType: string(m.MembershipType),
		Status:         string(m.Status),
		JoinedAt:       domain.FormatDate(m.JoinedAt),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// MemberPageResponse is a page of the roster.
type MemberPageResponse struct {
	Data        []MemberResponse `json:"data"`
	CurrentPage int              `json:"current_page"`
	LastPage    int              `json:"last_page"`
	PerPage     int              `json:"per_page"`
	Total       int              `json:"total"`
	From        *int             `json:"from"`
	To          *int             `json:"to"`
}

// MemberFilters echoes the filters the roster was rendered with.
type MemberFilters struct {
	Search string `json:"search"`
	Status string `json:"status"`
}

// MemberIndexResponse is the body of GET /members.
type MemberIndexResponse struct {
	Members MemberPageResponse `json:"members"`
	Filters MemberFilters      `json:"filters"`
}

// MemberCheckRequest asks whether a field value is taken.
type MemberCheckRequest struct {
	Field     string `json:"field"`
	Value     string `json:"value"`
	ExcludeID OptionalInt64 `json:"exclude_id"`
}

// OptionalInt64 decodes an id sent as a JSON number or a numeric string. Null and "" leave it unset.
type OptionalInt64 struct {
	Value int64
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalInt64) UnmarshalJSON(data []byte) error {
	*o = OptionalInt64{}
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
		if raw == "" {
			return nil
		}
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	*o = OptionalInt64{Value: v, Set: true}
	return nil
}

// Ptr returns the value or nil when unset.
func (o OptionalInt64) Ptr() *int64 {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

// MemberCheckResponse answers a field check; valid and message only appear for phone.
type MemberCheckResponse struct {
	Valid   *bool  `json:"valid,omitempty"`
	Exists  bool   `json:"exists"`
	Message string `json:"message,omitempty"`
}
