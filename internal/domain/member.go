package domain

import (
	"regexp"
	"strings"
	"time"
)

// MembershipType is the plan tier a member is enrolled on.
type MembershipType string

const (
	MembershipBasic   MembershipType = "basic"
	MembershipPremium MembershipType = "premium"
	MembershipStudent MembershipType = "student"
)

// Valid reports whether t is one of the offered plans.
func (t MembershipType) Valid() bool {
	switch t {
	case MembershipBasic, MembershipPremium, MembershipStudent:
		return true
	default:
		return false
	}
}

// MemberStatus flags a member's standing.
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s MemberStatus) Valid() bool {
	return s == MemberStatusActive || s == MemberStatusInactive
}

// Member is a fitness-centre customer administered by staff.
type Member struct {
	ID             int64
	Name           string
	Email          string
	Phone          *string
	DateOfBirth    *time.Time
	MembershipType MembershipType
	Status         MemberStatus
	JoinedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MemberField names a member column that can be checked for existence.
type MemberField string

const (
	MemberFieldName  MemberField = "name"
	MemberFieldEmail MemberField = "email"
	MemberFieldPhone MemberField = "phone"
)

// Valid reports whether f may be used in an existence check.
func (f MemberField) Valid() bool {
	switch f {
	case MemberFieldName, MemberFieldEmail, MemberFieldPhone:
		return true
	default:
		return false
	}
}

// PhoneFormatMessage is returned when a phone number is not in Malaysian format.
const PhoneFormatMessage = "Phone must be in Malaysian format: +60XXXXXXXXX"

var malaysianPhone = regexp.MustCompile(`^\+60[0-9]{9,10}$`)

// ValidPhone reports whether phone is "+60" followed by exactly 9 or 10 digits.
func ValidPhone(phone string) bool {
	return malaysianPhone.MatchString(phone)
}

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns midnight UTC of that day.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		ts, tsErr := time.Parse(time.RFC3339, raw)
		if tsErr != nil {
			return time.Time{}, err
		}
		t = ts
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// FormatDate renders a nullable date in wire format.
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}
