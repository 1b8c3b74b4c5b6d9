package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"

	"github.com/ratehub/storeratings/internal/domain"
	"github.com/ratehub/storeratings/internal/repository"
	"github.com/ratehub/storeratings/pkg/database"
	apperrors "github.com/ratehub/storeratings/pkg/errors"
	"github.com/ratehub/storeratings/pkg/sqlfilter"
)

const storeColumns = `s.id, s.name, s.email, s.address, s.owner_id,
		s.average_rating, s.total_ratings, s.created_at, s.updated_at,
		u.id, u.name, u.email`

// storeSchema drives store listings, both public and admin.
var storeSchema = sqlfilter.Schema{
	Table:   "stores s LEFT JOIN users u ON u.id = s.owner_id",
	Columns: storeColumns,
	SortFields: map[string]string{
		"name":           "s.name",
		"email":          "s.email",
		"address":        "s.address",
		"average_rating": "s.average_rating",
		"total_ratings":  "s.total_ratings",
		"created_at":     "s.created_at",
	},
	DefaultSort:  "s.created_at",
	DefaultOrder: "desc",
	SearchFields: map[string]string{
		"name":    "s.name",
		"email":   "s.email",
		"address": "s.address",
	},
	DefaultSearch: "s.name",
	Filters: []sqlfilter.Filter{
		{Param: "minRating", Column: "s.average_rating", Op: sqlfilter.OpGte, Coerce: sqlfilter.Float},
		{Param: "maxRating", Column: "s.average_rating", Op: sqlfilter.OpLte, Coerce: sqlfilter.Float},
		{Param: "dateFrom", Column: "s.created_at", Op: sqlfilter.OpGte, Coerce: sqlfilter.Date},
		{Param: "dateTo", Column: "s.created_at", Op: sqlfilter.OpLte, Coerce: sqlfilter.DateEndOfDay},
	},
}

// StoreRepository implements repository.StoreRepository using PostgreSQL.
type StoreRepository struct {
	db database.DBTX
}

// NewStoreRepository creates a new PostgreSQL-backed store repository.
func NewStoreRepository(db database.DBTX) *StoreRepository {
	return &StoreRepository{db: db}
}

// Create inserts a new store. The unique index on owner_id enforces the
// one-store-per-owner rule at the database level.
func (r *StoreRepository) Create(ctx context.Context, s *domain.Store) error {
	query := `
		INSERT INTO stores (id, name, email, address, owner_id, average_rating, total_ratings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		s.ID,
		s.Name,
		s.Email,
		s.Address,
		s.OwnerID,
		s.AverageRating,
		s.TotalRatings,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		// owner_id carries the only unique constraint on stores.
		if isUniqueViolation(err) && s.OwnerID != nil {
			return apperrors.AlreadyExists("store", "owner", *s.OwnerID)
		}
		return fmt.Errorf("insert store: %w", err)
	}

	return nil
}

// OwnerHasStore reports whether the account already owns a store.
func (r *StoreRepository) OwnerHasStore(ctx context.Context, ownerID string) (bool, error) {
	var owned bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stores WHERE owner_id = $1)`, ownerID).Scan(&owned)
	if err != nil {
		return false, fmt.Errorf("check owner assignment: %w", err)
	}
	return owned, nil
}

// GetByID retrieves a store with its owner summary, if any.
func (r *StoreRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	query := `
		SELECT ` + storeColumns + `
		FROM stores s LEFT JOIN users u ON u.id = s.owner_id
		WHERE s.id = $1`

	s, err := scanStore(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("store", id)
		}
		return nil, fmt.Errorf("get store: %w", err)
	}
	return s, nil
}

// GetOwnerID returns the store's owning account ID, or nil when unowned.
func (r *StoreRepository) GetOwnerID(ctx context.Context, storeID string) (*string, error) {
	var ownerID *string
	err := r.db.QueryRow(ctx, `SELECT owner_id FROM stores WHERE id = $1`, storeID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("store", storeID)
		}
		return nil, fmt.Errorf("get store owner: %w", err)
	}
	return ownerID, nil
}

// List returns a filtered, sorted page of stores plus the total match count.
func (r *StoreRepository) List(ctx context.Context, raw url.Values, page, perPage int) (*repository.ListResult[domain.Store], error) {
	q := sqlfilter.Compile(storeSchema, raw)

	rowsSQL, rowsArgs := q.Rows(page, perPage)
	rows, err := r.db.Query(ctx, rowsSQL, rowsArgs...)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()

	stores := make([]domain.Store, 0, perPage)
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan store row: %w", err)
		}
		stores = append(stores, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate store rows: %w", err)
	}

	countSQL, countArgs := q.Count()
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count stores: %w", err)
	}

	return &repository.ListResult[domain.Store]{
		Items:      stores,
		TotalCount: total,
		Applied:    q.AppliedFilters(),
	}, nil
}

// scanStore reads one store row joined with its optional owner.
func scanStore(row pgx.Row) (*domain.Store, error) {
	var (
		s          domain.Store
		ownerID    *string
		ownerName  *string
		ownerEmail *string
	)

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Email,
		&s.Address,
		&s.OwnerID,
		&s.AverageRating,
		&s.TotalRatings,
		&s.CreatedAt,
		&s.UpdatedAt,
		&ownerID,
		&ownerName,
		&ownerEmail,
	)
	if err != nil {
		return nil, err
	}

	if ownerID != nil {
		s.Owner = &domain.StoreOwner{ID: *ownerID, Name: *ownerName, Email: *ownerEmail}
	}
	return &s, nil
}
