// Package identity resolves the caller of an operation.
package identity

import (
	"context"
	"strings"

	"github.com/example/remedy/internal/ctxutil"
	"github.com/example/remedy/internal/errs"
	"github.com/example/remedy/internal/ports/secondary"
)

// Provider reads the caller from the context and falls back to a
// configured default actor. User ids are matched in lower case, the same
// way config folds the users map.
type Provider struct {
	defaultActor string
}

// NewProvider creates a Provider. defaultActor may be empty, in which case
// calls without an actor in their context are anonymous.
func NewProvider(defaultActor string) *Provider {
	return &Provider{defaultActor: normalise(defaultActor)}
}

// CurrentActor returns the caller's user id.
func (p *Provider) CurrentActor(ctx context.Context) (string, error) {
	if actor := normalise(ctxutil.ActorFromContext(ctx)); actor != "" {
		return actor, nil
	}
	if p.defaultActor != "" {
		return p.defaultActor, nil
	}
	return "", errs.Unauthorised("no caller identity (set --as, REMEDY_ACTOR or actor in config)")
}

func normalise(actor string) string {
	return strings.ToLower(strings.TrimSpace(actor))
}

// Ensure Provider implements the interface
var _ secondary.IdentityProvider = (*Provider)(nil)
