package auth

import (
	"context"

	"github.com/dukerupert/xpboard/internal/model"
)

// UserLookup finds local users by their external identity subject.
// It returns (nil, nil) when no user matches.
type UserLookup interface {
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
}

// Resolver maps an external identity to its local user record.
type Resolver struct {
	users UserLookup
}

func NewResolver(users UserLookup) *Resolver {
	return &Resolver{users: users}
}

// Resolve returns the local user for caller, or (nil, nil) when there is no
// caller or no mirrored record. Only store failures produce an error.
func (r *Resolver) Resolve(ctx context.Context, caller *Identity) (*model.User, error) {
	if caller == nil || caller.Subject == "" {
		return nil, nil
	}
	return r.users.GetByExternalID(ctx, caller.Subject)
}
