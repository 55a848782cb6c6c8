// Package casbin backs the Approval Authority with a Casbin enforcer. Roles
// carry permissions; users are bound to roles with grouping policies.
package casbin

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/example/remedy/internal/core/authority"
	"github.com/example/remedy/internal/ports/secondary"
)

// ModelText is the access model. A policy row grants (role, object, act) at
// a scope; "own" rows only match when the caller owns the target.
const ModelText = `
[request_definition]
r = sub, obj, act, own

[policy_definition]
p = sub, obj, act, scope

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act && (p.scope == "any" || r.own == "true")
`

// Authorizer implements secondary.Authorizer.
type Authorizer struct {
	enforcer *casbin.Enforcer
	logger   *slog.Logger
}

// Options configures NewAuthorizer.
type Options struct {
	// Users maps user ids to role names.
	Users map[string]string

	// PolicyPath, when set, is a CSV policy file that replaces the built-in
	// permission table.
	PolicyPath string

	Logger *slog.Logger
}

// NewAuthorizer builds an enforcer from the model, the policy table and the
// user bindings.
func NewAuthorizer(opts Options) (*Authorizer, error) {
	m, err := model.NewModelFromString(ModelText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse access model: %w", err)
	}

	var enforcer *casbin.Enforcer
	if opts.PolicyPath != "" {
		enforcer, err = casbin.NewEnforcer(m, fileadapter.NewAdapter(opts.PolicyPath))
	} else {
		enforcer, err = casbin.NewEnforcer(m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create enforcer: %w", err)
	}

	if opts.PolicyPath == "" {
		rules := make([][]string, 0, len(authority.DefaultPermissions()))
		for _, p := range authority.DefaultPermissions() {
			rules = append(rules, []string{string(p.Role), p.Object, p.Act, p.Scope})
		}
		if _, err := enforcer.AddPolicies(rules); err != nil {
			return nil, fmt.Errorf("failed to load default permissions: %w", err)
		}
	}

	// Bind users in a stable order so a duplicate binding fails the same way
	// every run.
	users := make([]string, 0, len(opts.Users))
	for u := range opts.Users {
		users = append(users, u)
	}
	sort.Strings(users)
	for _, u := range users {
		role := authority.ParseRole(opts.Users[u])
		if role == authority.RoleViewer {
			continue
		}
		if _, err := enforcer.AddGroupingPolicy(u, string(role)); err != nil {
			return nil, fmt.Errorf("failed to bind %s to %s: %w", u, role, err)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorizer{enforcer: enforcer, logger: logger}, nil
}

// Allowed reports whether actor may perform act on obj.
func (a *Authorizer) Allowed(ctx context.Context, actor, obj, act string, owned bool) (bool, error) {
	if actor == "" {
		return false, nil
	}
	ok, err := a.enforcer.Enforce(actor, obj, act, strconv.FormatBool(owned))
	if err != nil {
		return false, fmt.Errorf("enforce %s %s/%s: %w", actor, obj, act, err)
	}
	a.logger.Debug("permission checked", "actor", actor, "obj", obj, "act", act, "owned", owned, "allowed", ok)
	return ok, nil
}

// RoleOf returns the role bound to actor, or viewer.
func (a *Authorizer) RoleOf(ctx context.Context, actor string) (string, error) {
	roles, err := a.enforcer.GetRolesForUser(actor)
	if err != nil {
		return "", fmt.Errorf("failed to look up roles for %s: %w", actor, err)
	}
	for _, r := range roles {
		if role := authority.ParseRole(r); role != authority.RoleViewer {
			return string(role), nil
		}
	}
	return string(authority.RoleViewer), nil
}

// Ensure Authorizer implements the interface
var _ secondary.Authorizer = (*Authorizer)(nil)
