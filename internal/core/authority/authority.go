// Package authority contains the pure decision logic of the Approval
// Authority: the default permission table and how a mutation request is
// routed once the caller's permissions are known.
package authority

import (
	"fmt"

	"github.com/example/remedy/internal/errs"
)

// Role is a named set of permissions.
type Role string

const (
	RoleReviewer  Role = "reviewer"
	RoleRequester Role = "requester"
	RoleViewer    Role = "viewer"
)

// ParseRole maps a configured role name to a Role. Unknown names are viewers.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleReviewer, RoleRequester:
		return Role(s)
	}
	return RoleViewer
}

// Objects a permission can apply to.
const (
	ObjAction   = "action"
	ObjChange   = "change"
	ObjSchedule = "schedule"
)

// Acts a permission can grant.
const (
	ActCreate   = "create"
	ActEdit     = "edit"     // direct write of a governed field
	ActAnnotate = "annotate" // direct write of a non-governed text field
	ActPropose  = "propose"
	ActNote     = "note"
	ActClose    = "close" // request closure
	ActDelete   = "delete"
	ActResolve  = "resolve"
	ActBulk     = "bulk"
	ActArchive  = "archive"
)

// Scopes restrict a permission to actions the caller owns.
const (
	ScopeAny = "any"
	ScopeOwn = "own"
)

// Permission is one row of the permission table.
type Permission struct {
	Role   Role
	Object string
	Act    string
	Scope  string
}

// DefaultPermissions is the built-in permission table. Reads are not listed;
// every caller may read.
func DefaultPermissions() []Permission {
	reviewer := []Permission{
		{RoleReviewer, ObjAction, ActCreate, ScopeAny},
		{RoleReviewer, ObjAction, ActEdit, ScopeAny},
		{RoleReviewer, ObjAction, ActAnnotate, ScopeAny},
		{RoleReviewer, ObjAction, ActPropose, ScopeAny},
		{RoleReviewer, ObjAction, ActNote, ScopeAny},
		{RoleReviewer, ObjAction, ActClose, ScopeAny},
		{RoleReviewer, ObjAction, ActDelete, ScopeAny},
		{RoleReviewer, ObjAction, ActBulk, ScopeAny},
		{RoleReviewer, ObjChange, ActResolve, ScopeAny},
		{RoleReviewer, ObjSchedule, ActCreate, ScopeAny},
		{RoleReviewer, ObjSchedule, ActArchive, ScopeAny},
		{RoleReviewer, ObjSchedule, ActBulk, ScopeAny},
	}
	requester := []Permission{
		{RoleRequester, ObjAction, ActPropose, ScopeAny},
		{RoleRequester, ObjAction, ActNote, ScopeOwn},
		{RoleRequester, ObjAction, ActAnnotate, ScopeOwn},
		{RoleRequester, ObjAction, ActClose, ScopeOwn},
	}
	return append(reviewer, requester...)
}

// Route is where a mutation request goes.
type Route string

const (
	RouteDirect  Route = "direct"
	RoutePropose Route = "propose"
	RouteDeny    Route = "deny"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	Kind    error
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	kind := r.Kind
	if kind == nil {
		kind = errs.ErrUnauthorised
	}
	return fmt.Errorf("%s: %w", r.Reason, kind)
}

// MutationContext carries what is known about a governed-field request.
type MutationContext struct {
	ActorID    string
	ActionRef  string
	Field      string
	CanEdit    bool // caller holds action/edit
	CanPropose bool // caller holds action/propose
}

// RouteMutation decides how a governed-field request is handled.
// Rules:
// - An anonymous caller is denied
// - A caller who may edit directly bypasses the ledger
// - A caller who may only propose is routed to the ledger
// - Everyone else is read-only
func RouteMutation(ctx MutationContext) (Route, GuardResult) {
	if ctx.ActorID == "" {
		return RouteDeny, GuardResult{Reason: "no caller identity"}
	}
	if ctx.CanEdit {
		return RouteDirect, GuardResult{Allowed: true}
	}
	if ctx.CanPropose {
		return RoutePropose, GuardResult{Allowed: true}
	}
	return RouteDeny, GuardResult{Reason: fmt.Sprintf("%s may not change %s on %s", ctx.ActorID, ctx.Field, ctx.ActionRef)}
}

// DirectEditContext carries what is known about a strict direct edit.
type DirectEditContext struct {
	ActorID     string
	ActionRef   string
	Field       string
	Governed    bool
	CanEdit     bool // action/edit, needed for governed fields
	CanAnnotate bool // action/annotate, needed for text fields
	CanPropose  bool
}

// CanEditDirectly evaluates a request that must not go through the ledger.
// Rules:
// - Governed fields need the edit permission; a caller who could propose
//   instead gets ImmutableField so they know the ledger is open to them
// - Non-governed fields need the annotate permission
func CanEditDirectly(ctx DirectEditContext) GuardResult {
	if ctx.ActorID == "" {
		return GuardResult{Reason: "no caller identity"}
	}
	if ctx.Governed {
		if ctx.CanEdit {
			return GuardResult{Allowed: true}
		}
		if ctx.CanPropose {
			return GuardResult{
				Reason: fmt.Sprintf("%s on %s must be proposed for review", ctx.Field, ctx.ActionRef),
				Kind:   errs.ErrImmutableField,
			}
		}
		return GuardResult{Reason: fmt.Sprintf("%s may not change %s on %s", ctx.ActorID, ctx.Field, ctx.ActionRef)}
	}
	if ctx.CanAnnotate {
		return GuardResult{Allowed: true}
	}
	return GuardResult{Reason: fmt.Sprintf("%s may not edit %s on %s", ctx.ActorID, ctx.Field, ctx.ActionRef)}
}

// PermissionContext carries a single permission check.
type PermissionContext struct {
	ActorID string
	Object  string
	Act     string
	Target  string // entity the act applies to, for the message
	Allowed bool
}

// Require turns a permission check into a guard result.
func Require(ctx PermissionContext) GuardResult {
	if ctx.ActorID == "" {
		return GuardResult{Reason: "no caller identity"}
	}
	if !ctx.Allowed {
		target := ctx.Object
		if ctx.Target != "" {
			target = fmt.Sprintf("%s %s", ctx.Object, ctx.Target)
		}
		return GuardResult{Reason: fmt.Sprintf("%s may not %s %s", ctx.ActorID, ctx.Act, target)}
	}
	return GuardResult{Allowed: true}
}
