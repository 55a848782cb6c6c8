package change

import (
	"fmt"
	"strings"

	"github.com/example/remedy/internal/errs"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	Kind    error // errs sentinel; ErrValidationFailed when nil
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	kind := r.Kind
	if kind == nil {
		kind = errs.ErrValidationFailed
	}
	return fmt.Errorf("%s: %w", r.Reason, kind)
}

// ProposeContext provides context for proposal guards.
type ProposeContext struct {
	ActionID     string
	ActionExists bool
	Field        string // raw field name as supplied by the caller
	IsUpdate     bool
	NewValue     string
	Reason       string
}

// CanPropose evaluates whether a ledger entry may be recorded.
// Rules:
// - Action must exist
// - Progress notes need text; their field is always "update"
// - Field must be in the closed set
// - Non-governed fields cannot be proposed
// - Governed fields listed in the rule table need a reason
func CanPropose(ctx ProposeContext) GuardResult {
	if !ctx.ActionExists {
		return GuardResult{Reason: fmt.Sprintf("action %s", ctx.ActionID), Kind: errs.ErrNotFound}
	}

	if ctx.IsUpdate {
		if strings.TrimSpace(ctx.NewValue) == "" {
			return GuardResult{Reason: "progress note text is required"}
		}
		return GuardResult{Allowed: true}
	}

	field, err := ParseField(ctx.Field)
	if err != nil {
		return GuardResult{Reason: fmt.Sprintf("field %q is not in the change set", ctx.Field), Kind: errs.ErrInvalidField}
	}
	if field == FieldUpdate {
		return GuardResult{Reason: "progress notes must be recorded as updates, not proposals", Kind: errs.ErrImmutableField}
	}
	if !field.IsGoverned() {
		return GuardResult{Reason: fmt.Sprintf("%s is not governed and cannot be proposed; edit it directly", field), Kind: errs.ErrImmutableField}
	}
	if field.RequiresReason() && strings.TrimSpace(ctx.Reason) == "" {
		return GuardResult{Reason: fmt.Sprintf("a reason is required to propose a %s change", field)}
	}

	return GuardResult{Allowed: true}
}

// ResolveContext provides context for resolution guards.
type ResolveContext struct {
	ChangeID string
	Exists   bool
	IsUpdate bool
	Status   Status
}

// CanResolve evaluates whether a change may be approved or rejected.
// Rules:
// - Change must exist
// - Progress notes are never reviewable
// - Only PENDING entries can be resolved, exactly once
func CanResolve(ctx ResolveContext) GuardResult {
	if !ctx.Exists {
		return GuardResult{Reason: fmt.Sprintf("change %s", ctx.ChangeID), Kind: errs.ErrNotFound}
	}
	if ctx.IsUpdate {
		return GuardResult{Reason: fmt.Sprintf("change %s is a progress note and cannot be reviewed", ctx.ChangeID)}
	}
	if ctx.Status != StatusPending {
		return GuardResult{Reason: fmt.Sprintf("change %s is already %s", ctx.ChangeID, ctx.Status), Kind: errs.ErrNotPending}
	}
	return GuardResult{Allowed: true}
}
