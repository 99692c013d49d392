package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/desh1993/fitness-mvp/internal/domain"
	"github.com/desh1993/fitness-mvp/internal/repository"
	apperrors "github.com/desh1993/fitness-mvp/pkg/util/errorutil"
)

// MemberQuery carries raw roster filters. Unknown or malformed values apply no filter.
type MemberQuery struct {
	Search         string
	Status         string
	MembershipType string
	JoinedAt       string
	Page           int
	PerPage        int
}

// MemberPage is one page of the roster with its position in the full result.
// From and To are 1-based and nil when the page is empty.
type MemberPage struct {
	Data        []domain.Member
	CurrentPage int
	LastPage    int
	PerPage     int
	Total       int
	From        *int
	To          *int
}

// List returns the requested page ordered newest first, with id descending on ties.
func (s *MemberService) List(ctx context.Context, query MemberQuery) (*MemberPage, error) {
	perPage := query.PerPage
	if perPage <= 0 {
		perPage = s.cfg.DefaultPerPage
	}
	if perPage > s.cfg.MaxPerPage {
		perPage = s.cfg.MaxPerPage
	}
	page := query.Page
	if page < 1 {
		page = 1
	}

	filter := repository.MemberFilter{
		Limit:  perPage,
		Offset: pageOffset(page, perPage),
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		filter.Search = &search
	}
	if status := domain.MemberStatus(query.Status); status.Valid() {
		filter.Status = &status
	}
	if plan := domain.MembershipType(query.MembershipType); plan.Valid() {
		filter.MembershipType = &plan
	}
	if query.JoinedAt != "" {
		if joined, err := time.Parse(domain.DateLayout, strings.TrimSpace(query.JoinedAt)); err == nil {
			filter.JoinedAt = &joined
		}
	}

	members, total, err := s.members.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	result := &MemberPage{
		Data:        members,
		CurrentPage: page,
		LastPage:    lastPage(total, perPage),
		PerPage:     perPage,
		Total:       total,
	}
	if len(members) > 0 {
		from := filter.Offset + 1
		to := filter.Offset + len(members)
		result.From = &from
		result.To = &to
	}
	return result, nil
}

// pageOffset returns the row offset of page. Pages whose offset does not fit in an int
// saturate to math.MaxInt, which every store treats as past the last row.
func pageOffset(page, perPage int) int {
	if page-1 > (math.MaxInt-perPage)/perPage {
		return math.MaxInt
	}
	return (page - 1) * perPage
}

func lastPage(total, perPage int) int {
	if total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}
