package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ratehub/storeratings/internal/domain"
	apperrors "github.com/ratehub/storeratings/pkg/errors"
)

// Verification failure modes. All map to 401 at the HTTP boundary except
// backend lookup failures, which surface as 500.
var (
	ErrInvalidToken   = apperrors.Unauthorized("invalid credential")
	ErrExpiredToken   = apperrors.Unauthorized("credential expired")
	ErrUnknownSubject = apperrors.Unauthorized("unknown subject")
)

// UserLookup resolves a user by ID. Satisfied by the user repository.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Verifier turns a bearer token into a verified Identity. The subject is
// looked up on every request so deleted accounts are rejected even while
// their tokens are unexpired.
type Verifier struct {
	jwt   *JWTManager
	users UserLookup
}

// NewVerifier creates a Verifier backed by the given token manager and user
// lookup.
func NewVerifier(jwtManager *JWTManager, users UserLookup) *Verifier {
	return &Verifier{jwt: jwtManager, users: users}
}

// Verify validates the token's signature and expiry, then resolves the
// subject to a live account.
func (v *Verifier) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	claims, err := v.jwt.ParseAccessToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	user, err := v.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrUnknownSubject
		}
		return nil, fmt.Errorf("look up token subject: %w", err)
	}

	return &domain.Identity{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}, nil
}
