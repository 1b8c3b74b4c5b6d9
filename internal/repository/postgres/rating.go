package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ratehub/storeratings/internal/domain"
	"github.com/ratehub/storeratings/pkg/database"
	apperrors "github.com/ratehub/storeratings/pkg/errors"
)

// RatingRepository implements repository.RatingRepository using PostgreSQL.
type RatingRepository struct {
	db database.DBTX
}

// NewRatingRepository creates a new PostgreSQL-backed rating repository.
func NewRatingRepository(db database.DBTX) *RatingRepository {
	return &RatingRepository{db: db}
}

// Upsert records or overwrites the caller's rating for a store and
// recomputes the store aggregate in the same transaction. The store row is
// locked first so two concurrent writes for the same store serialize: each
// recomputation observes all committed ratings plus its own write.
func (r *RatingRepository) Upsert(ctx context.Context, rating *domain.Rating) (*domain.AggregateSnapshot, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin rating upsert: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var storeID string
	err = tx.QueryRow(ctx, `SELECT id FROM stores WHERE id = $1 FOR UPDATE`, rating.StoreID).Scan(&storeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("store", rating.StoreID)
		}
		return nil, fmt.Errorf("lock store row: %w", err)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO ratings (id, user_id, store_id, score, review, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (user_id, store_id)
		DO UPDATE SET score = EXCLUDED.score, review = EXCLUDED.review, updated_at = EXCLUDED.updated_at`

	_, err = tx.Exec(ctx, query,
		rating.ID,
		rating.UserID,
		rating.StoreID,
		rating.Score,
		rating.Review,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert rating: %w", err)
	}

	var (
		avg   float64
		count int
	)
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(AVG(score), 0), COUNT(*) FROM ratings WHERE store_id = $1`,
		rating.StoreID,
	).Scan(&avg, &count)
	if err != nil {
		return nil, fmt.Errorf("recompute store aggregate: %w", err)
	}
	avg = math.Round(avg*100) / 100

	_, err = tx.Exec(ctx,
		`UPDATE stores SET average_rating = $1, total_ratings = $2, updated_at = $3 WHERE id = $4`,
		avg, count, now, rating.StoreID,
	)
	if err != nil {
		return nil, fmt.Errorf("update store aggregate: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit rating upsert: %w", err)
	}

	return &domain.AggregateSnapshot{
		StoreID:       rating.StoreID,
		AverageRating: avg,
		TotalRatings:  count,
	}, nil
}

// GetByUserAndStore retrieves one account's rating of one store.
func (r *RatingRepository) GetByUserAndStore(ctx context.Context, userID, storeID string) (*domain.Rating, error) {
	query := `
		SELECT id, user_id, store_id, score, review, created_at, updated_at
		FROM ratings
		WHERE user_id = $1 AND store_id = $2`

	var rt domain.Rating
	err := r.db.QueryRow(ctx, query, userID, storeID).Scan(
		&rt.ID,
		&rt.UserID,
		&rt.StoreID,
		&rt.Score,
		&rt.Review,
		&rt.CreatedAt,
		&rt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get rating: %w", err)
	}

	return &rt, nil
}

// ListByStorePaged returns one page of a store's ratings, newest first, plus
// the total rating count.
func (r *RatingRepository) ListByStorePaged(ctx context.Context, storeID string, page, perPage int) ([]domain.Rating, int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM ratings WHERE store_id = $1`, storeID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count store ratings: %w", err)
	}

	query := `
		SELECT id, user_id, store_id, score, review, created_at, updated_at
		FROM ratings
		WHERE store_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, storeID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list store ratings page: %w", err)
	}
	defer rows.Close()

	var ratings []domain.Rating
	for rows.Next() {
		var rt domain.Rating
		if err := rows.Scan(&rt.ID, &rt.UserID, &rt.StoreID, &rt.Score, &rt.Review, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan rating row: %w", err)
		}
		ratings = append(ratings, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate rating rows: %w", err)
	}

	return ratings, total, nil
}

// ListByStore returns all ratings for a store with rater identities, newest
// first.
func (r *RatingRepository) ListByStore(ctx context.Context, storeID string) ([]domain.Rater, error) {
	query := `
		SELECT r.user_id, u.name, u.email, r.score, r.review, r.updated_at
		FROM ratings r
		JOIN users u ON u.id = r.user_id
		WHERE r.store_id = $1
		ORDER BY r.updated_at DESC`

	rows, err := r.db.Query(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("list store ratings: %w", err)
	}
	defer rows.Close()

	var raters []domain.Rater
	for rows.Next() {
		var rt domain.Rater
		if err := rows.Scan(&rt.UserID, &rt.Name, &rt.Email, &rt.Score, &rt.Review, &rt.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan rater row: %w", err)
		}
		raters = append(raters, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rater rows: %w", err)
	}

	return raters, nil
}
