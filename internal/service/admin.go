package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ratehub/storeratings/internal/auth"
	"github.com/ratehub/storeratings/internal/authz"
	"github.com/ratehub/storeratings/internal/domain"
	"github.com/ratehub/storeratings/internal/event"
	"github.com/ratehub/storeratings/internal/repository"
	apperrors "github.com/ratehub/storeratings/pkg/errors"
	"github.com/ratehub/storeratings/pkg/pagination"
)

const (
	dashboardCacheKey = "dashboard:counts"
	dashboardCacheTTL = 30 * time.Second
)

var adminOnly = authz.RoleIn{Roles: []domain.Role{domain.RoleAdmin}}

// AdminService handles the admin-only listing and provisioning operations.
type AdminService struct {
	users     repository.UserRepository
	stores    repository.StoreRepository
	dashboard repository.DashboardRepository
	gate      *authz.Gate
	producer  *event.Producer
	cache     *redis.Client
	logger    *slog.Logger
}

// NewAdminService creates a new admin service. cache may be nil, in which
// case dashboard counts are always read from the database.
func NewAdminService(
	users repository.UserRepository,
	stores repository.StoreRepository,
	dashboard repository.DashboardRepository,
	gate *authz.Gate,
	producer *event.Producer,
	cache *redis.Client,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		users:     users,
		stores:    stores,
		dashboard: dashboard,
		gate:      gate,
		producer:  producer,
		cache:     cache,
		logger:    logger,
	}
}

// CreateUserInput holds the parameters for admin account provisioning.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Address  string
	Role     string
}

// CreateStoreInput holds the parameters for admin store creation.
type CreateStoreInput struct {
	Name    string
	Email   string
	Address string
	OwnerID *string
}

// DashboardCounts is the admin dashboard summary.
type DashboardCounts struct {
	TotalUsers   int `json:"total_users"`
	TotalStores  int `json:"total_stores"`
	TotalRatings int `json:"total_ratings"`
}

// ListUsers returns a filtered page of accounts. Denial short-circuits
// before any query runs.
func (s *AdminService) ListUsers(ctx context.Context, identity *domain.Identity, raw url.Values, params pagination.Params) (*ListPage[domain.User], error) {
	if err := s.gate.Authorize(ctx, identity, adminOnly); err != nil {
		return nil, err
	}

	result, err := s.users.List(ctx, raw, params.Page, params.PerPage)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return newListPage(result, params), nil
}

// CreateUser provisions an account with an explicit role.
func (s *AdminService) CreateUser(ctx context.Context, identity *domain.Identity, input CreateUserInput) (*domain.User, error) {
	if err := s.gate.Authorize(ctx, identity, adminOnly); err != nil {
		return nil, err
	}

	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	role, err := domain.ParseRole(input.Role)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Address:      input.Address,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user created by admin",
		slog.String("user_id", user.ID),
		slog.String("role", string(role)),
		slog.String("admin_id", identity.ID),
	)

	return user, nil
}

// ListStores returns a filtered page of stores with owner summaries.
func (s *AdminService) ListStores(ctx context.Context, identity *domain.Identity, raw url.Values, params pagination.Params) (*ListPage[domain.Store], error) {
	if err := s.gate.Authorize(ctx, identity, adminOnly); err != nil {
		return nil, err
	}

	result, err := s.stores.List(ctx, raw, params.Page, params.PerPage)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	return newListPage(result, params), nil
}

// CreateStore creates a store, optionally assigned to a store-owner account.
// The owner must hold the store owner role and not own a store already.
func (s *AdminService) CreateStore(ctx context.Context, identity *domain.Identity, input CreateStoreInput) (*domain.Store, error) {
	if err := s.gate.Authorize(ctx, identity, adminOnly); err != nil {
		return nil, err
	}

	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}

	now := time.Now().UTC()
	store := &domain.Store{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Email:     input.Email,
		Address:   input.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if input.OwnerID != nil && *input.OwnerID != "" {
		owner, err := s.users.GetByID(ctx, *input.OwnerID)
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("owner %s not found", *input.OwnerID))
		}
		if owner.Role != domain.RoleStoreOwner {
			return nil, apperrors.InvalidInput("owner must have the store owner role")
		}
		owned, err := s.stores.OwnerHasStore(ctx, owner.ID)
		if err != nil {
			return nil, fmt.Errorf("check owner assignment: %w", err)
		}
		if owned {
			return nil, apperrors.InvalidInput("owner already owns a store")
		}
		store.OwnerID = &owner.ID
		store.Owner = &domain.StoreOwner{ID: owner.ID, Name: owner.Name, Email: owner.Email}
	}

	// The unique index on stores.owner_id still rejects a concurrent second
	// store for the same owner.
	if err := s.stores.Create(ctx, store); err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	if err := s.producer.PublishStoreCreated(ctx, store); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish store.created event",
			slog.String("store_id", store.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "store created",
		slog.String("store_id", store.ID),
		slog.String("admin_id", identity.ID),
	)

	return store, nil
}

// ListStoreOwners returns store-owner accounts that own no store yet, for
// the store assignment picker.
func (s *AdminService) ListStoreOwners(ctx context.Context, identity *domain.Identity) ([]domain.User, error) {
	if err := s.gate.Authorize(ctx, identity, adminOnly); err != nil {
		return nil, err
	}

	owners, err := s.users.ListUnassignedStoreOwners(ctx)
	if err != nil {
		return nil, fmt.Errorf("list store owners: %w", err)
	}
	if owners == nil {
		owners = []domain.User{}
	}
	return owners, nil
}

// Dashboard returns the platform totals, cached briefly since the counts
// only feed an overview page.
func (s *AdminService) Dashboard(ctx context.Context, identity *domain.Identity) (*DashboardCounts, error) {
	if err := s.gate.Authorize(ctx, identity, adminOnly); err != nil {
		return nil, err
	}

	if cached := s.cachedCounts(ctx); cached != nil {
		return cached, nil
	}

	users, stores, ratings, err := s.dashboard.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}

	counts := &DashboardCounts{
		TotalUsers:   users,
		TotalStores:  stores,
		TotalRatings: ratings,
	}
	s.storeCounts(ctx, counts)
	return counts, nil
}

func (s *AdminService) cachedCounts(ctx context.Context) *DashboardCounts {
	if s.cache == nil {
		return nil
	}

	raw, err := s.cache.Get(ctx, dashboardCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.WarnContext(ctx, "dashboard cache read failed",
				slog.String("error", err.Error()),
			)
		}
		return nil
	}

	var counts DashboardCounts
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil
	}
	return &counts
}

func (s *AdminService) storeCounts(ctx context.Context, counts *DashboardCounts) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(counts)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, raw, dashboardCacheTTL).Err(); err != nil {
		s.logger.WarnContext(ctx, "dashboard cache write failed",
			slog.String("error", err.Error()),
		)
	}
}
