// Package repository defines the persistence interfaces consumed by the
// service layer.
package repository

import (
	"context"
	"net/url"

	"github.com/ratehub/storeratings/internal/domain"
)

// ListResult carries one page of rows plus the total match count and the
// filter parameters that were honored.
type ListResult[T any] struct {
	Items      []T
	TotalCount int
	Applied    map[string]string
}

// UserRepository defines user persistence operations.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdatePassword replaces the user's credential hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// List returns a filtered, sorted page of users plus the total count.
	List(ctx context.Context, raw url.Values, page, perPage int) (*ListResult[domain.User], error)

	// ListUnassignedStoreOwners returns accounts with the store owner role
	// that do not yet own a store.
	ListUnassignedStoreOwners(ctx context.Context) ([]domain.User, error)
}

// StoreRepository defines store persistence operations.
type StoreRepository interface {
	// Create inserts a new store.
	Create(ctx context.Context, store *domain.Store) error

	// GetByID retrieves a store with its owner summary, if any.
	GetByID(ctx context.Context, id string) (*domain.Store, error)

	// GetOwnerID returns the store's owning account ID, or nil when unowned.
	GetOwnerID(ctx context.Context, storeID string) (*string, error)

	// OwnerHasStore reports whether the account already owns a store.
	OwnerHasStore(ctx context.Context, ownerID string) (bool, error)

	// List returns a filtered, sorted page of stores plus the total count.
	List(ctx context.Context, raw url.Values, page, perPage int) (*ListResult[domain.Store], error)
}

// RatingRepository defines rating persistence operations.
type RatingRepository interface {
	// Upsert records or overwrites the caller's rating for a store and, in
	// the same transaction, recomputes the store's aggregate fields.
	Upsert(ctx context.Context, rating *domain.Rating) (*domain.AggregateSnapshot, error)

	// GetByUserAndStore retrieves one account's rating of one store.
	GetByUserAndStore(ctx context.Context, userID, storeID string) (*domain.Rating, error)

	// ListByStore returns all ratings for a store with rater identities.
	ListByStore(ctx context.Context, storeID string) ([]domain.Rater, error)

	// ListByStorePaged returns one page of a store's ratings, newest first,
	// plus the total rating count.
	ListByStorePaged(ctx context.Context, storeID string, page, perPage int) ([]domain.Rating, int, error)
}

// DashboardRepository exposes the admin dashboard counts.
type DashboardRepository interface {
	// Counts returns the total number of users, stores, and ratings.
	Counts(ctx context.Context) (users, stores, ratings int, err error)
}
