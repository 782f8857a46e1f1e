package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dochub-service/internal/domain"
)

const userColumns = `
        id, first_name, last_name, email, password_hash, role_id, department_id,
        permissions, is_active, is_deleted, invited_by, invited_at, registered_at,
        created_at, updated_at`

// UserFilter narrows List results.
type UserFilter struct {
	Page     int
	PerPage  int
	IsActive *bool
	// Search matches exact email when it contains "@", otherwise a
	// case-insensitive partial match on first or last name.
	Search string
}

// Registration carries the fields set atomically when an invited user
// completes registration.
type Registration struct {
	FirstName    string
	LastName     string
	DepartmentID int
	PasswordHash string
}

// UserUpdate carries optional field updates; nil fields are left untouched.
type UserUpdate struct {
	FirstName    *string
	LastName     *string
	DepartmentID *int
	RoleID       *int
	Permissions  []string
	IsActive     *bool
}

// TouchesPrivileges reports whether the update changes claims that live
// inside issued login tokens, requiring the target's session to be revoked.
func (u UserUpdate) TouchesPrivileges() bool {
	return u.RoleID != nil || u.Permissions != nil || u.IsActive != nil
}

// Empty reports whether there is nothing to update.
func (u UserUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.DepartmentID == nil &&
		u.RoleID == nil && u.Permissions == nil && u.IsActive == nil
}

// UserRepository defines persistence access for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, int64, error)
	Register(ctx context.Context, id string, reg Registration) error
	Update(ctx context.Context, id string, fields UserUpdate) error
	UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error
	Counts(ctx context.Context) (*domain.UserCounts, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (first_name, last_name, email, role_id, department_id, permissions, invited_by, invited_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        RETURNING id, invited_at, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.RoleID,
		user.DepartmentID,
		user.Permissions,
		user.InvitedBy,
	).Scan(&user.ID, &user.InvitedAt, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id=$1 AND is_deleted = FALSE`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE email=$1 AND is_deleted = FALSE`
	return r.scanOne(r.pool.QueryRow(ctx, query, strings.ToLower(email)))
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE email=$1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, strings.ToLower(email)).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, int64, error) {
	where := []string{"is_deleted = FALSE"}
	args := []any{}

	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		where = append(where, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		if strings.Contains(search, "@") {
			args = append(args, strings.ToLower(search))
			where = append(where, fmt.Sprintf("email = $%d", len(args)))
		} else {
			args = append(args, "%"+search+"%")
			where = append(where, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d)", len(args), len(args)))
		}
	}
	whereClause := strings.Join(where, " AND ")

	// The total is only needed to seed client pagination, so it is computed
	// on the first page and reported as zero afterwards.
	var total int64
	if filter.Page == 1 {
		countQuery := `SELECT COUNT(*) FROM users WHERE ` + whereClause
		if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
			return nil, 0, err
		}
	}

	offset := (filter.Page - 1) * filter.PerPage
	args = append(args, filter.PerPage, offset)
	query := fmt.Sprintf(`SELECT`+userColumns+` FROM users WHERE %s ORDER BY updated_at DESC LIMIT $%d OFFSET $%d`,
		whereClause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := r.scanOne(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *user)
	}
	return users, total, rows.Err()
}

// Register flips an invited account to registered. The registered_at guard
// makes the transition at-most-once: a replayed invitation token finds zero
// rows to update and the call reports pgx.ErrNoRows.
func (r *userRepository) Register(ctx context.Context, id string, reg Registration) error {
	const query = `
        UPDATE users
        SET first_name=$1, last_name=$2, department_id=$3, password_hash=$4,
            registered_at=NOW(), updated_at=NOW()
        WHERE id=$5 AND registered_at IS NULL AND is_deleted = FALSE`

	cmd, err := r.pool.Exec(ctx, query,
		reg.FirstName,
		reg.LastName,
		reg.DepartmentID,
		reg.PasswordHash,
		id,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, id string, fields UserUpdate) error {
	set := []string{"updated_at=NOW()"}
	args := []any{}

	appendField := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if fields.FirstName != nil {
		appendField("first_name", *fields.FirstName)
	}
	if fields.LastName != nil {
		appendField("last_name", *fields.LastName)
	}
	if fields.DepartmentID != nil {
		appendField("department_id", *fields.DepartmentID)
	}
	if fields.RoleID != nil {
		appendField("role_id", *fields.RoleID)
	}
	if fields.Permissions != nil {
		appendField("permissions", fields.Permissions)
	}
	if fields.IsActive != nil {
		appendField("is_active", *fields.IsActive)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id=$%d AND is_deleted = FALSE`,
		strings.Join(set, ", "), len(args))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error {
	const query = `
        UPDATE users SET password_hash=$1, updated_at=NOW()
        WHERE email=$2 AND is_active = TRUE AND is_deleted = FALSE`

	cmd, err := r.pool.Exec(ctx, query, passwordHash, strings.ToLower(email))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Counts(ctx context.Context) (*domain.UserCounts, error) {
	const query = `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE is_active),
            COUNT(*) FILTER (WHERE is_active AND role_id = 1),
            COUNT(*) FILTER (WHERE registered_at IS NULL)
        FROM users WHERE is_deleted = FALSE`

	var counts domain.UserCounts
	if err := r.pool.QueryRow(ctx, query).Scan(
		&counts.TotalUsers,
		&counts.ActiveUsers,
		&counts.ActiveAdminUsers,
		&counts.UnregisteredUsers,
	); err != nil {
		return nil, err
	}
	return &counts, nil
}

func (r *userRepository) scanOne(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.RoleID,
		&user.DepartmentID,
		&user.Permissions,
		&user.IsActive,
		&user.IsDeleted,
		&user.InvitedBy,
		&user.InvitedAt,
		&user.RegisteredAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
