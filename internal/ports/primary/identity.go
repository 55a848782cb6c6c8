package primary

import "context"

// IdentityService tells the caller who they are acting as.
type IdentityService interface {
	// WhoAmI returns the caller and their role.
	WhoAmI(ctx context.Context) (*Identity, error)
}

// Identity is the resolved caller.
type Identity struct {
	ActorID string
	Role    string
}
