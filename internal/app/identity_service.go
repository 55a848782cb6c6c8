package app

import (
	"context"

	"github.com/example/remedy/internal/core/authority"
	"github.com/example/remedy/internal/errs"
	"github.com/example/remedy/internal/ports/primary"
	"github.com/example/remedy/internal/ports/secondary"
)

// IdentityServiceImpl implements the IdentityService interface.
type IdentityServiceImpl struct {
	identity secondary.IdentityProvider
	authz    secondary.Authorizer
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(identity secondary.IdentityProvider, authz secondary.Authorizer) *IdentityServiceImpl {
	return &IdentityServiceImpl{identity: identity, authz: authz}
}

// WhoAmI returns the caller and the role the authorizer assigns them.
func (s *IdentityServiceImpl) WhoAmI(ctx context.Context) (*primary.Identity, error) {
	actor, err := s.identity.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if actor == "" {
		return nil, errs.Unauthorised("no caller identity")
	}
	role, err := s.authz.RoleOf(ctx, actor)
	if err != nil {
		return nil, err
	}
	return &primary.Identity{ActorID: actor, Role: string(authority.ParseRole(role))}, nil
}

// Ensure IdentityServiceImpl implements the interface
var _ primary.IdentityService = (*IdentityServiceImpl)(nil)
