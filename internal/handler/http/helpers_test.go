package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ratehub/storeratings/internal/auth"
	"github.com/ratehub/storeratings/internal/authz"
	"github.com/ratehub/storeratings/internal/domain"
	"github.com/ratehub/storeratings/internal/event"
	"github.com/ratehub/storeratings/internal/repository"
	"github.com/ratehub/storeratings/internal/service"
	"github.com/ratehub/storeratings/pkg/httputil"
	pkgkafka "github.com/ratehub/storeratings/pkg/kafka"
	"github.com/ratehub/storeratings/pkg/middleware"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *mockUserRepo) List(ctx context.Context, raw url.Values, page, perPage int) (*repository.ListResult[domain.User], error) {
	args := m.Called(ctx, raw, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ListResult[domain.User]), args.Error(1)
}

func (m *mockUserRepo) ListUnassignedStoreOwners(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

type mockStoreRepo struct {
	mock.Mock
}

func (m *mockStoreRepo) Create(ctx context.Context, store *domain.Store) error {
	args := m.Called(ctx, store)
	return args.Error(0)
}

func (m *mockStoreRepo) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Store), args.Error(1)
}

func (m *mockStoreRepo) OwnerHasStore(ctx context.Context, ownerID string) (bool, error) {
	args := m.Called(ctx, ownerID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStoreRepo) GetOwnerID(ctx context.Context, storeID string) (*string, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*string), args.Error(1)
}

func (m *mockStoreRepo) List(ctx context.Context, raw url.Values, page, perPage int) (*repository.ListResult[domain.Store], error) {
	args := m.Called(ctx, raw, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ListResult[domain.Store]), args.Error(1)
}

type mockRatingRepo struct {
	mock.Mock
}

func (m *mockRatingRepo) Upsert(ctx context.Context, rating *domain.Rating) (*domain.AggregateSnapshot, error) {
	args := m.Called(ctx, rating)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AggregateSnapshot), args.Error(1)
}

func (m *mockRatingRepo) GetByUserAndStore(ctx context.Context, userID, storeID string) (*domain.Rating, error) {
	args := m.Called(ctx, userID, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rating), args.Error(1)
}

func (m *mockRatingRepo) ListByStore(ctx context.Context, storeID string) ([]domain.Rater, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rater), args.Error(1)
}

func (m *mockRatingRepo) ListByStorePaged(ctx context.Context, storeID string, page, perPage int) ([]domain.Rating, int, error) {
	args := m.Called(ctx, storeID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Rating), args.Int(1), args.Error(2)
}

type mockDashboardRepo struct {
	mock.Mock
}

func (m *mockDashboardRepo) Counts(ctx context.Context) (int, int, int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1), args.Int(2), args.Error(3)
}

// ============================================================================
// Test Helpers
// ============================================================================

const (
	testUserID  = "550e8400-e29b-41d4-a716-446655440001"
	testOwnerID = "550e8400-e29b-41d4-a716-446655440002"
	testAdminID = "550e8400-e29b-41d4-a716-446655440003"
	testStoreID = "550e8400-e29b-41d4-a716-446655440010"
)

func handlerTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func handlerTestEventProducer() *event.Producer {
	logger := handlerTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

func testAuthHandler(users *mockUserRepo) *AuthHandler {
	logger := handlerTestLogger()
	jwtManager := auth.NewJWTManager("test-secret-key-for-testing", 15*time.Minute)
	svc := service.NewAuthService(users, jwtManager, handlerTestEventProducer(), logger)
	return NewAuthHandler(svc, logger)
}

func testStoreHandler(stores *mockStoreRepo, ratings *mockRatingRepo) *StoreHandler {
	logger := handlerTestLogger()
	gate := authz.NewGate(stores)
	svc := service.NewStoreService(stores, ratings, gate, handlerTestEventProducer(), logger)
	return NewStoreHandler(svc, logger)
}

func testAdminHandler(users *mockUserRepo, stores *mockStoreRepo, dashboard *mockDashboardRepo) *AdminHandler {
	logger := handlerTestLogger()
	gate := authz.NewGate(stores)
	svc := service.NewAdminService(users, stores, dashboard, gate, handlerTestEventProducer(), nil, logger)
	return NewAdminHandler(svc, logger)
}

// fakeTokenValidator returns a middleware.TokenValidator that always succeeds
// and injects the given identity into the request context.
func fakeTokenValidator(userID, name, email string, role domain.Role) middleware.TokenValidator {
	return func(ctx context.Context, token string) (*middleware.Claims, error) {
		return &middleware.Claims{UserID: userID, Name: name, Email: email, Role: string(role)}, nil
	}
}

func normalValidator() middleware.TokenValidator {
	return fakeTokenValidator(testUserID, "Norm User", "norm@example.com", domain.RoleNormalUser)
}

func ownerValidator() middleware.TokenValidator {
	return fakeTokenValidator(testOwnerID, "Owen Owner", "owen@example.com", domain.RoleStoreOwner)
}

func adminValidator() middleware.TokenValidator {
	return fakeTokenValidator(testAdminID, "Ada Admin", "ada@example.com", domain.RoleAdmin)
}

// setupStoreRouter mirrors the production store routes with a fake validator.
func setupStoreRouter(handler *StoreHandler, validate middleware.TokenValidator) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/stores", func(r chi.Router) {
		r.Use(middleware.Auth(validate))
		r.Get("/", handler.List)
		r.Get("/{id}", handler.GetByID)
		r.Get("/{id}/ratings", handler.ListRatings)
		r.Post("/{id}/ratings", handler.RateStore)
		r.Get("/{id}/ratings/me", handler.GetMyRating)
		r.Get("/{id}/raters", handler.ListRaters)
	})
	return r
}

// setupAdminRouter mirrors the production admin routes, including the role
// gate middleware.
func setupAdminRouter(handler *AdminHandler, validate middleware.TokenValidator) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middleware.Auth(validate))
		r.Use(middleware.RequireRole(string(domain.RoleAdmin)))
		r.Get("/dashboard", handler.Dashboard)
		r.Get("/users", handler.ListUsers)
		r.Post("/users", handler.CreateUser)
		r.Get("/stores", handler.ListStores)
		r.Post("/stores", handler.CreateStore)
		r.Get("/store-owners", handler.ListStoreOwners)
	})
	return r
}

func setupAuthRouter(handler *AuthHandler, validate middleware.TokenValidator) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", handler.Register)
		r.Post("/login", handler.Login)
	})
	r.Route("/api/v1/users/me", func(r chi.Router) {
		r.Use(middleware.Auth(validate))
		r.Get("/", handler.Me)
		r.Put("/password", handler.ChangePassword)
	})
	return r
}

type decodedResponse struct {
	Data  json.RawMessage         `json:"data"`
	Error *httputil.ErrorResponse `json:"error"`
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) decodedResponse {
	t.Helper()
	var resp decodedResponse
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

func sampleStore() *domain.Store {
	ownerID := testOwnerID
	now := time.Now().UTC()
	return &domain.Store{
		ID:            testStoreID,
		Name:          "Corner Coffee",
		Email:         "hello@cornercoffee.example",
		Address:       "42 Bean Ave",
		OwnerID:       &ownerID,
		AverageRating: 4.25,
		TotalRatings:  8,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
