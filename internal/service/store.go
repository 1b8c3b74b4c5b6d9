package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/ratehub/storeratings/internal/authz"
	"github.com/ratehub/storeratings/internal/domain"
	"github.com/ratehub/storeratings/internal/event"
	"github.com/ratehub/storeratings/internal/repository"
	apperrors "github.com/ratehub/storeratings/pkg/errors"
	"github.com/ratehub/storeratings/pkg/pagination"
)

// ListPage is the page envelope returned by listing operations.
type ListPage[T any] struct {
	Items      []T               `json:"items"`
	Pagination pagination.Meta   `json:"pagination"`
	Filters    map[string]string `json:"filters"`
}

func newListPage[T any](result *repository.ListResult[T], params pagination.Params) *ListPage[T] {
	items := result.Items
	if items == nil {
		items = []T{}
	}
	return &ListPage[T]{
		Items:      items,
		Pagination: pagination.NewMeta(result.TotalCount, params),
		Filters:    result.Applied,
	}
}

// StoreService handles store browsing and rating submission.
type StoreService struct {
	stores   repository.StoreRepository
	ratings  repository.RatingRepository
	gate     *authz.Gate
	producer *event.Producer
	logger   *slog.Logger
}

// NewStoreService creates a new store service.
func NewStoreService(
	stores repository.StoreRepository,
	ratings repository.RatingRepository,
	gate *authz.Gate,
	producer *event.Producer,
	logger *slog.Logger,
) *StoreService {
	return &StoreService{
		stores:   stores,
		ratings:  ratings,
		gate:     gate,
		producer: producer,
		logger:   logger,
	}
}

// List returns a filtered page of stores. Available to any authenticated
// caller.
func (s *StoreService) List(ctx context.Context, raw url.Values, params pagination.Params) (*ListPage[domain.Store], error) {
	result, err := s.stores.List(ctx, raw, params.Page, params.PerPage)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	return newListPage(result, params), nil
}

// StoreDetail is a store with the caller's own rating, when they have one.
type StoreDetail struct {
	*domain.Store
	MyRating *domain.Rating `json:"my_rating"`
}

// GetByID retrieves one store with its owner summary and the caller's own
// rating of it, if any.
func (s *StoreService) GetByID(ctx context.Context, callerID, id string) (*StoreDetail, error) {
	store, err := s.stores.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get store: %w", err)
	}

	detail := &StoreDetail{Store: store}

	rating, err := s.ratings.GetByUserAndStore(ctx, callerID, id)
	switch {
	case err == nil:
		detail.MyRating = rating
	case errors.Is(err, apperrors.ErrNotFound):
		// caller has not rated this store
	default:
		return nil, fmt.Errorf("get caller rating: %w", err)
	}

	return detail, nil
}

// ListRatings returns one page of a store's ratings, newest first. Available
// to any authenticated caller; an unknown store is a not-found error.
func (s *StoreService) ListRatings(ctx context.Context, storeID string, params pagination.Params) (*pagination.Result[domain.Rating], error) {
	if _, err := s.stores.GetByID(ctx, storeID); err != nil {
		return nil, fmt.Errorf("get store: %w", err)
	}

	ratings, total, err := s.ratings.ListByStorePaged(ctx, storeID, params.Page, params.PerPage)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}

	result := pagination.NewResult(ratings, total, params)
	return &result, nil
}

// GetMyRating returns the caller's rating for a store, or a not-found error
// when they have not rated it.
func (s *StoreService) GetMyRating(ctx context.Context, userID, storeID string) (*domain.Rating, error) {
	rating, err := s.ratings.GetByUserAndStore(ctx, userID, storeID)
	if err != nil {
		return nil, fmt.Errorf("get rating: %w", err)
	}
	return rating, nil
}

// RecordRating validates and records the caller's rating for a store. Only
// normal users rate stores; admins and store owners are denied. The rating
// upsert and the store aggregate recomputation commit atomically in the
// repository.
func (s *StoreService) RecordRating(ctx context.Context, identity *domain.Identity, storeID string, score int, review string) (*domain.AggregateSnapshot, error) {
	if err := s.gate.Authorize(ctx, identity, authz.RoleIn{Roles: []domain.Role{domain.RoleNormalUser}}); err != nil {
		return nil, err
	}

	if !domain.ValidScore(score) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("score must be between %d and %d", domain.MinScore, domain.MaxScore))
	}

	rating := &domain.Rating{
		ID:      uuid.New().String(),
		UserID:  identity.ID,
		StoreID: storeID,
		Score:   score,
		Review:  review,
	}

	snapshot, err := s.ratings.Upsert(ctx, rating)
	if err != nil {
		return nil, fmt.Errorf("record rating: %w", err)
	}

	// Publish rating event (non-blocking on failure).
	if err := s.producer.PublishRatingRecorded(ctx, identity.ID, snapshot, score); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish rating.recorded event",
			slog.String("store_id", storeID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "rating recorded",
		slog.String("store_id", storeID),
		slog.String("user_id", identity.ID),
		slog.Int("score", score),
	)

	return snapshot, nil
}

// ListRaters returns the accounts that rated a store. Gated on ownership:
// admins and the store's owner only, checked before any data is read.
func (s *StoreService) ListRaters(ctx context.Context, identity *domain.Identity, storeID string) ([]domain.Rater, error) {
	if err := s.gate.Authorize(ctx, identity, authz.OwnsStore{StoreID: storeID}); err != nil {
		return nil, err
	}

	raters, err := s.ratings.ListByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("list raters: %w", err)
	}
	if raters == nil {
		raters = []domain.Rater{}
	}
	return raters, nil
}
