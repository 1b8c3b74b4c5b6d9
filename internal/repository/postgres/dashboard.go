package postgres

import (
	"context"
	"fmt"

	"github.com/ratehub/storeratings/pkg/database"
)

// DashboardRepository implements repository.DashboardRepository using
// PostgreSQL.
type DashboardRepository struct {
	db database.DBTX
}

// NewDashboardRepository creates a new PostgreSQL-backed dashboard repository.
func NewDashboardRepository(db database.DBTX) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Counts returns the total number of users, stores, and ratings.
func (r *DashboardRepository) Counts(ctx context.Context) (users, stores, ratings int, err error) {
	query := `
		SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM stores),
			(SELECT count(*) FROM ratings)`

	if err := r.db.QueryRow(ctx, query).Scan(&users, &stores, &ratings); err != nil {
		return 0, 0, 0, fmt.Errorf("count dashboard totals: %w", err)
	}
	return users, stores, ratings, nil
}
