package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/desh1993/fitness-mvp/internal/domain"
)

// MemoryMemberRepository keeps members in process memory. It backs development runs without
// PostgreSQL and the service tests.
type MemoryMemberRepository struct {
	mu      sync.RWMutex
	members map[int64]domain.Member
	nextID  int64
	now     func() time.Time
}

// NewMemoryMemberRepository builds an empty store.
func NewMemoryMemberRepository() *MemoryMemberRepository {
	return &MemoryMemberRepository{
		members: make(map[int64]domain.Member),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the timestamp source.
func (r *MemoryMemberRepository) WithClock(now func() time.Time) *MemoryMemberRepository {
	r.now = now
	return r
}

func (r *MemoryMemberRepository) Create(_ context.Context, member *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailHeldLocked(member.Email, 0) {
		return ErrEmailTaken
	}

	r.nextID++
	now := r.now()
	member.ID = r.nextID
	member.CreatedAt = now
	member.UpdatedAt = now
	r.members[member.ID] = cloneMember(*member)
	return nil
}

func (r *MemoryMemberRepository) Update(_ context.Context, member *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.members[member.ID]
	if !ok {
		return ErrMemberNotFound
	}
	if r.emailHeldLocked(member.Email, member.ID) {
		return ErrEmailTaken
	}

	member.CreatedAt = existing.CreatedAt
	member.UpdatedAt = r.now()
	r.members[member.ID] = cloneMember(*member)
	return nil
}

func (r *MemoryMemberRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[id]; !ok {
		return ErrMemberNotFound
	}
	delete(r.members, id)
	return nil
}

func (r *MemoryMemberRepository) GetByID(_ context.Context, id int64) (*domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	member, ok := r.members[id]
	if !ok {
		return nil, ErrMemberNotFound
	}
	clone := cloneMember(member)
	return &clone, nil
}

func (r *MemoryMemberRepository) List(_ context.Context, filter MemberFilter) ([]domain.Member, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var search string
	if filter.Search != nil {
		search = strings.ToLower(strings.TrimSpace(*filter.Search))
	}

	matched := make([]domain.Member, 0, len(r.members))
	for _, member := range r.members {
		if search != "" &&
			!strings.Contains(strings.ToLower(member.Name), search) &&
			!strings.Contains(strings.ToLower(member.Email), search) {
			continue
		}
		if filter.Status != nil && member.Status != *filter.Status {
			continue
		}
		if filter.MembershipType != nil && member.MembershipType != *filter.MembershipType {
			continue
		}
		if filter.JoinedAt != nil && (member.JoinedAt == nil || !member.JoinedAt.Equal(*filter.JoinedAt)) {
			continue
		}
		matched = append(matched, member)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []domain.Member{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]domain.Member, 0, end-offset)
	for _, member := range matched[offset:end] {
		page = append(page, cloneMember(member))
	}
	return page, total, nil
}

func (r *MemoryMemberRepository) ExistsByField(_ context.Context, field domain.MemberField, value string, excludeID *int64) (bool, error) {
	if !field.Valid() {
		return false, fmt.Errorf("unsupported member field %q", field)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, member := range r.members {
		if excludeID != nil && id == *excludeID {
			continue
		}
		switch field {
		case domain.MemberFieldName:
			if member.Name == value {
				return true, nil
			}
		case domain.MemberFieldEmail:
			if member.Email == value {
				return true, nil
			}
		case domain.MemberFieldPhone:
			if member.Phone != nil && *member.Phone == value {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *MemoryMemberRepository) emailHeldLocked(email string, exceptID int64) bool {
	for id, member := range r.members {
		if id != exceptID && member.Email == email {
			return true
		}
	}
	return false
}

func cloneMember(m domain.Member) domain.Member {
	if m.Phone != nil {
		phone := *m.Phone
		m.Phone = &phone
	}
	if m.DateOfBirth != nil {
		dob := *m.DateOfBirth
		m.DateOfBirth = &dob
	}
	if m.JoinedAt != nil {
		joined := *m.JoinedAt
		m.JoinedAt = &joined
	}
	return m
}
