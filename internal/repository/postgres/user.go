package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ratehub/storeratings/internal/domain"
	"github.com/ratehub/storeratings/internal/repository"
	"github.com/ratehub/storeratings/pkg/database"
	apperrors "github.com/ratehub/storeratings/pkg/errors"
	"github.com/ratehub/storeratings/pkg/sqlfilter"
)

const userColumns = "id, name, email, password_hash, address, role, created_at, updated_at"

// userSchema drives admin user listings. Sort and search identifiers are
// resolved through these allow-lists only.
var userSchema = sqlfilter.Schema{
	Table:   "users",
	Columns: userColumns,
	SortFields: map[string]string{
		"name":       "name",
		"email":      "email",
		"address":    "address",
		"role":       "role",
		"created_at": "created_at",
	},
	DefaultSort:  "created_at",
	DefaultOrder: "desc",
	SearchFields: map[string]string{
		"name":    "name",
		"email":   "email",
		"address": "address",
	},
	DefaultSearch: "name",
	Filters: []sqlfilter.Filter{
		{Param: "role", Column: "role", Op: sqlfilter.OpEq, Coerce: coerceRole},
		{Param: "dateFrom", Column: "created_at", Op: sqlfilter.OpGte, Coerce: sqlfilter.Date},
		{Param: "dateTo", Column: "created_at", Op: sqlfilter.OpLte, Coerce: sqlfilter.DateEndOfDay},
	},
}

// coerceRole resolves the role filter to its canonical form so the stored
// enum matches regardless of caller casing.
func coerceRole(raw string) (any, error) {
	role, err := domain.ParseRole(raw)
	if err != nil {
		return nil, err
	}
	return string(role), nil
}

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, address, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.Address,
		u.Role,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(ctx, query, email)
}

// UpdatePassword replaces the user's credential hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`

	ct, err := r.db.Exec(ctx, query, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// List returns a filtered, sorted page of users plus the total match count.
func (r *UserRepository) List(ctx context.Context, raw url.Values, page, perPage int) (*repository.ListResult[domain.User], error) {
	q := sqlfilter.Compile(userSchema, raw)

	rowsSQL, rowsArgs := q.Rows(page, perPage)
	rows, err := r.db.Query(ctx, rowsSQL, rowsArgs...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0, perPage)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Address, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}

	countSQL, countArgs := q.Count()
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	return &repository.ListResult[domain.User]{
		Items:      users,
		TotalCount: total,
		Applied:    q.AppliedFilters(),
	}, nil
}

// ListUnassignedStoreOwners returns store-owner accounts that own no store.
func (r *UserRepository) ListUnassignedStoreOwners(ctx context.Context) ([]domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		WHERE u.role = $1
		  AND NOT EXISTS (SELECT 1 FROM stores s WHERE s.owner_id = u.id)
		ORDER BY u.name ASC`

	rows, err := r.db.Query(ctx, query, domain.RoleStoreOwner)
	if err != nil {
		return nil, fmt.Errorf("list unassigned store owners: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Address, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan store owner row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate store owner rows: %w", err)
	}

	return users, nil
}

// scanUser executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Address,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
