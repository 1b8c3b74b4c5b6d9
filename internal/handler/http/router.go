package http

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ratehub/storeratings/internal/auth"
	"github.com/ratehub/storeratings/internal/domain"
	"github.com/ratehub/storeratings/pkg/health"
	"github.com/ratehub/storeratings/pkg/middleware"
)

// RouterConfig holds the dependencies needed to assemble the router.
type RouterConfig struct {
	AuthHandler  *AuthHandler
	StoreHandler *StoreHandler
	AdminHandler *AdminHandler
	Verifier     *auth.Verifier
	Health       *health.Checker
	Logger       *slog.Logger
	ServiceName  string
	Environment  string
	CORSOrigins  []string
}

// NewRouter assembles the HTTP router with all middleware and routes.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.CORSOrigins,
		Environment:    cfg.Environment,
	}))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	validate := tokenValidator(cfg.Verifier)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.ContentTypeJSON)
			r.Post("/register", cfg.AuthHandler.Register)
			r.Post("/login", cfg.AuthHandler.Login)
		})

		r.Route("/users/me", func(r chi.Router) {
			r.Use(middleware.Auth(validate))
			r.Use(middleware.RequestLogger(cfg.Logger))

			r.Get("/", cfg.AuthHandler.Me)
			r.With(middleware.ContentTypeJSON).Put("/password", cfg.AuthHandler.ChangePassword)
		})

		r.Route("/stores", func(r chi.Router) {
			r.Use(middleware.Auth(validate))
			r.Use(middleware.RequestLogger(cfg.Logger))

			r.Get("/", cfg.StoreHandler.List)
			r.Get("/{id}", cfg.StoreHandler.GetByID)
			r.Get("/{id}/ratings", cfg.StoreHandler.ListRatings)
			r.With(middleware.ContentTypeJSON).Post("/{id}/ratings", cfg.StoreHandler.RateStore)
			r.Get("/{id}/ratings/me", cfg.StoreHandler.GetMyRating)
			r.Get("/{id}/raters", cfg.StoreHandler.ListRaters)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(validate))
			r.Use(middleware.RequestLogger(cfg.Logger))
			r.Use(middleware.RequireRole(string(domain.RoleAdmin)))

			r.Get("/dashboard", cfg.AdminHandler.Dashboard)
			r.Get("/users", cfg.AdminHandler.ListUsers)
			r.With(middleware.ContentTypeJSON).Post("/users", cfg.AdminHandler.CreateUser)
			r.Get("/stores", cfg.AdminHandler.ListStores)
			r.With(middleware.ContentTypeJSON).Post("/stores", cfg.AdminHandler.CreateStore)
			r.Get("/store-owners", cfg.AdminHandler.ListStoreOwners)
		})
	})

	return r
}

// tokenValidator bridges the credential verifier into the auth middleware.
func tokenValidator(verifier *auth.Verifier) middleware.TokenValidator {
	return func(ctx context.Context, token string) (*middleware.Claims, error) {
		identity, err := verifier.Verify(ctx, token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: identity.ID,
			Name:   identity.Name,
			Email:  identity.Email,
			Role:   string(identity.Role),
		}, nil
	}
}
