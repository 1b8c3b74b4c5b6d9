package service

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ratehub/storeratings/internal/auth"
	"github.com/ratehub/storeratings/internal/authz"
	"github.com/ratehub/storeratings/internal/domain"
	"github.com/ratehub/storeratings/internal/event"
	"github.com/ratehub/storeratings/internal/repository"
	pkgkafka "github.com/ratehub/storeratings/pkg/kafka"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *mockUserRepository) List(ctx context.Context, raw url.Values, page, perPage int) (*repository.ListResult[domain.User], error) {
	args := m.Called(ctx, raw, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ListResult[domain.User]), args.Error(1)
}

func (m *mockUserRepository) ListUnassignedStoreOwners(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

// --- Mock Store Repository ---

type mockStoreRepository struct {
	mock.Mock
}

func (m *mockStoreRepository) Create(ctx context.Context, store *domain.Store) error {
	args := m.Called(ctx, store)
	return args.Error(0)
}

func (m *mockStoreRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Store), args.Error(1)
}

func (m *mockStoreRepository) OwnerHasStore(ctx context.Context, ownerID string) (bool, error) {
	args := m.Called(ctx, ownerID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStoreRepository) GetOwnerID(ctx context.Context, storeID string) (*string, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*string), args.Error(1)
}

func (m *mockStoreRepository) List(ctx context.Context, raw url.Values, page, perPage int) (*repository.ListResult[domain.Store], error) {
	args := m.Called(ctx, raw, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ListResult[domain.Store]), args.Error(1)
}

// --- Mock Rating Repository ---

type mockRatingRepository struct {
	mock.Mock
}

func (m *mockRatingRepository) Upsert(ctx context.Context, rating *domain.Rating) (*domain.AggregateSnapshot, error) {
	args := m.Called(ctx, rating)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AggregateSnapshot), args.Error(1)
}

func (m *mockRatingRepository) GetByUserAndStore(ctx context.Context, userID, storeID string) (*domain.Rating, error) {
	args := m.Called(ctx, userID, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rating), args.Error(1)
}

func (m *mockRatingRepository) ListByStore(ctx context.Context, storeID string) ([]domain.Rater, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rater), args.Error(1)
}

func (m *mockRatingRepository) ListByStorePaged(ctx context.Context, storeID string, page, perPage int) ([]domain.Rating, int, error) {
	args := m.Called(ctx, storeID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Rating), args.Int(1), args.Error(2)
}

// --- Mock Dashboard Repository ---

type mockDashboardRepository struct {
	mock.Mock
}

func (m *mockDashboardRepository) Counts(ctx context.Context) (int, int, int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1), args.Int(2), args.Error(3)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret-key-for-testing", 15*time.Minute)
}

func newTestEventProducer() *event.Producer {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

func newTestGate(stores *mockStoreRepository) *authz.Gate {
	return authz.NewGate(stores)
}

func adminIdentity() *domain.Identity {
	return &domain.Identity{ID: "admin-1", Name: "Ada Admin", Email: "ada@example.com", Role: domain.RoleAdmin}
}

func normalIdentity() *domain.Identity {
	return &domain.Identity{ID: "user-1", Name: "Norm User", Email: "norm@example.com", Role: domain.RoleNormalUser}
}

func ownerIdentity() *domain.Identity {
	return &domain.Identity{ID: "owner-1", Name: "Owen Owner", Email: "owen@example.com", Role: domain.RoleStoreOwner}
}
