// Package authz implements the authorization gate. Every protected operation
// declares a Requirement; the gate either allows the request or denies it
// before any listing or mutation logic runs.
package authz

import (
	"context"

	"github.com/ratehub/storeratings/internal/domain"
	apperrors "github.com/ratehub/storeratings/pkg/errors"
)

// Requirement is a capability the caller must hold.
type Requirement interface {
	isRequirement()
}

// RoleIn allows identities whose role is in the set.
type RoleIn struct {
	Roles []domain.Role
}

func (RoleIn) isRequirement() {}

// OwnsStore allows admins, and store owners whose account owns the store.
type OwnsStore struct {
	StoreID string
}

func (OwnsStore) isRequirement() {}

// StoreOwnerLookup resolves a store's owning account. Satisfied by the store
// repository.
type StoreOwnerLookup interface {
	GetOwnerID(ctx context.Context, storeID string) (*string, error)
}

// Gate evaluates requirements against a verified identity.
type Gate struct {
	stores StoreOwnerLookup
}

// NewGate creates a Gate backed by the given store owner lookup.
func NewGate(stores StoreOwnerLookup) *Gate {
	return &Gate{stores: stores}
}

// Authorize returns nil when the identity satisfies the requirement. A nil
// return is the only path on which callers may proceed; any error means the
// request must stop with no side effects.
func (g *Gate) Authorize(ctx context.Context, identity *domain.Identity, req Requirement) error {
	if identity == nil {
		return apperrors.Unauthorized("missing identity")
	}

	switch r := req.(type) {
	case RoleIn:
		for _, role := range r.Roles {
			if identity.Role == role {
				return nil
			}
		}
		return apperrors.Forbidden("insufficient role")

	case OwnsStore:
		if identity.Role == domain.RoleAdmin {
			return nil
		}
		if identity.Role != domain.RoleStoreOwner {
			return apperrors.Forbidden("store owner role required")
		}
		ownerID, err := g.stores.GetOwnerID(ctx, r.StoreID)
		if err != nil {
			return err
		}
		if ownerID == nil || *ownerID != identity.ID {
			return apperrors.Forbidden("not the store owner")
		}
		return nil

	default:
		return apperrors.Forbidden("unknown requirement")
	}
}
