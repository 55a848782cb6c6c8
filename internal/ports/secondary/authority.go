package secondary

import (
	"context"
	"time"
)

// Authorizer answers permission questions for the Approval Authority.
// Answers are never cached by callers; each mutation asks again.
type Authorizer interface {
	// Allowed reports whether actor may perform act on obj. owned is true
	// when the target action is assigned to actor.
	Allowed(ctx context.Context, actor, obj, act string, owned bool) (bool, error)

	// RoleOf returns the role name assigned to actor, or "viewer".
	RoleOf(ctx context.Context, actor string) (string, error)
}

// IdentityProvider resolves the caller of an operation.
type IdentityProvider interface {
	// CurrentActor returns the caller's user id, or an error when unknown.
	CurrentActor(ctx context.Context) (string, error)
}

// Clock supplies the current time to the deriver.
type Clock interface {
	Now() time.Time
}
