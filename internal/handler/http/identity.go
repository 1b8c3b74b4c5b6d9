package http

import (
	"net/http"

	"github.com/ratehub/storeratings/internal/domain"
	"github.com/ratehub/storeratings/pkg/middleware"
)

const maxBodySize = 1 << 20 // 1MB

// identityFromContext rebuilds the verified caller from the auth middleware
// context values. Returns nil when the role claim is missing or unknown.
func identityFromContext(r *http.Request) *domain.Identity {
	ctx := r.Context()
	role, err := domain.ParseRole(middleware.RoleFromContext(ctx))
	if err != nil {
		return nil
	}
	return &domain.Identity{
		ID:    middleware.UserIDFromContext(ctx),
		Name:  middleware.NameFromContext(ctx),
		Email: middleware.EmailFromContext(ctx),
		Role:  role,
	}
}
