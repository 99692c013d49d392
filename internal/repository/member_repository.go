package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/desh1993/fitness-mvp/internal/domain"
)

var (
	// ErrMemberNotFound is returned when no member row matches the id.
	ErrMemberNotFound = errors.New("member not found")
	// ErrEmailTaken is returned when a write collides with members_email_unique.
	ErrEmailTaken = errors.New("member email already taken")
)

const membersEmailConstraint = "members_email_unique"

// MemberFilter captures roster search parameters. Nil fields apply no filter.
type MemberFilter struct {
	Search         *string
	Status         *domain.MemberStatus
	MembershipType *domain.MembershipType
	JoinedAt       *time.Time
	Limit          int
	Offset         int
}

// MemberRepository encapsulates member persistence.
type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	Update(ctx context.Context, member *domain.Member) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Member, error)
	// List returns one page ordered newest first (id breaks ties) and the total match count.
	List(ctx context.Context, filter MemberFilter) ([]domain.Member, int, error)
	// ExistsByField reports whether any member other than excludeID holds value in field.
	ExistsByField(ctx context.Context, field domain.MemberField, value string, excludeID *int64) (bool, error)
}

type memberRepository struct {
	db DBTX
}

// NewMemberRepository returns a Postgres-backed implementation.
func NewMemberRepository(db DBTX) MemberRepository {
	return &memberRepository{db: db}
}

const memberColumns = `id, name, email, phone, date_of_birth, membership_type, status, joined_at, created_at, updated_at`

func (r *memberRepository) Create(ctx context.Context, member *domain.Member) error {
	const query = `
        INSERT INTO members (name, email, phone, date_of_birth, membership_type, status, joined_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		member.Name,
		member.Email,
		member.Phone,
		member.DateOfBirth,
		member.MembershipType,
		member.Status,
		member.JoinedAt,
	).Scan(&member.ID, &member.CreatedAt, &member.UpdatedAt)
	if isUniqueViolation(err, membersEmailConstraint) {
		return ErrEmailTaken
	}
	return err
}

func (r *memberRepository) Update(ctx context.Context, member *domain.Member) error {
	const query = `
        UPDATE members
        SET name=$1, email=$2, phone=$3, date_of_birth=$4, membership_type=$5, status=$6, joined_at=$7, updated_at=NOW()
        WHERE id=$8`

	cmd, err := r.db.Exec(ctx, query,
		member.Name,
		member.Email,
		member.Phone,
		member.DateOfBirth,
		member.MembershipType,
		member.Status,
		member.JoinedAt,
		member.ID,
	)
	if err != nil {
		if isUniqueViolation(err, membersEmailConstraint) {
			return ErrEmailTaken
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *memberRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM members WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *memberRepository) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id=$1`

	member, err := scanMember(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

func (r *memberRepository) List(ctx context.Context, filter MemberFilter) ([]domain.Member, int, error) {
	where, args := buildMemberWhere(filter)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM members"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

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

	args = append(args, limit, offset)
	query := fmt.Sprintf("SELECT %s FROM members%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		memberColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := make([]domain.Member, 0, limit)
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *member)
	}
	return result, total, rows.Err()
}

func (r *memberRepository) ExistsByField(ctx context.Context, field domain.MemberField, value string, excludeID *int64) (bool, error) {
	column, err := memberFieldColumn(field)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM members WHERE %s=$1", column)
	args := []any{value}
	if excludeID != nil {
		args = append(args, *excludeID)
		query += " AND id<>$2"
	}
	query += ")"

	var exists bool
	if err := r.db.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func memberFieldColumn(field domain.MemberField) (string, error) {
	switch field {
	case domain.MemberFieldName:
		return "name", nil
	case domain.MemberFieldEmail:
		return "email", nil
	case domain.MemberFieldPhone:
		return "phone", nil
	default:
		return "", fmt.Errorf("unsupported member field %q", field)
	}
}

// buildMemberWhere renders the WHERE clause (with a leading space) and its positional args.
func buildMemberWhere(filter MemberFilter) (string, []any) {
	clauses := []string{}
	args := []any{}

	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(strings.TrimSpace(*filter.Search)))+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(email) LIKE %s)", placeholder, placeholder))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.MembershipType != nil {
		args = append(args, *filter.MembershipType)
		clauses = append(clauses, fmt.Sprintf("membership_type=$%d", len(args)))
	}
	if filter.JoinedAt != nil {
		args = append(args, *filter.JoinedAt)
		clauses = append(clauses, fmt.Sprintf("joined_at=$%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func scanMember(row pgx.Row) (*domain.Member, error) {
	var (
		member         domain.Member
		membershipType string
		status         string
	)
	if err := row.Scan(
		&member.ID,
		&member.Name,
		&member.Email,
		&member.Phone,
		&member.DateOfBirth,
		&membershipType,
		&status,
		&member.JoinedAt,
		&member.CreatedAt,
		&member.UpdatedAt,
	); err != nil {
		return nil, err
	}
	member.MembershipType = domain.MembershipType(membershipType)
	member.Status = domain.MemberStatus(status)
	return &member, nil
}
