package action

import (
	"fmt"
	"strings"

	"github.com/example/remedy/internal/errs"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)
	Kind    error  // errs sentinel; ErrValidationFailed when nil
}

// Error returns the guard result as an error if not allowed, nil otherwise.
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

func allow() GuardResult { return GuardResult{Allowed: true} }

func deny(kind error, format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, Reason: fmt.Sprintf(format, args...), Kind: kind}
}

// CreateContext provides context for action creation guards.
type CreateContext struct {
	Title      string
	Status     string // optional, defaults to OPEN
	Priority   string // optional, defaults to P2
	DueDate    string // optional, YYYY-MM-DD
	SourceType string // optional
	SourceRef  string
}

// CanCreateAction evaluates whether an action can be created from the request.
// Rules:
// - Title is required
// - Status, if given, must be OPEN or IN_PROGRESS
// - Priority, due date and source type must parse
// - A source reference needs a source type
func CanCreateAction(ctx CreateContext) GuardResult {
	if strings.TrimSpace(ctx.Title) == "" {
		return deny(errs.ErrValidationFailed, "title is required")
	}

	if ctx.Status != "" {
		status, err := ParseStatus(ctx.Status)
		if err != nil {
			return deny(errs.ErrValidationFailed, "%v", err)
		}
		if !status.IsActive() {
			return deny(errs.ErrValidationFailed, "new actions must start OPEN or IN_PROGRESS (got %s)", status)
		}
	}

	if ctx.Priority != "" {
		if _, err := ParsePriority(ctx.Priority); err != nil {
			return deny(errs.ErrValidationFailed, "%v", err)
		}
	}

	if _, err := ParseOptionalDate(ctx.DueDate); err != nil {
		return deny(errs.ErrValidationFailed, "%v", err)
	}

	sourceType, err := ParseSourceType(ctx.SourceType)
	if err != nil {
		return deny(errs.ErrValidationFailed, "%v", err)
	}
	if ctx.SourceRef != "" && sourceType == "" {
		return deny(errs.ErrValidationFailed, "source reference %s needs a source type (report or risk)", ctx.SourceRef)
	}

	return allow()
}

// StatusTransitionContext provides context for status change guards.
type StatusTransitionContext struct {
	Reference string
	Current   Status
	Target    Status
}

// CanTransitionStatus evaluates whether the stored status may move to Target.
// Rules:
// - OVERDUE is derived and never written
// - COMPLETED is terminal (re-completing is a no-op and allowed)
// - PROPOSED_CLOSED can only be requested from an active status
func CanTransitionStatus(ctx StatusTransitionContext) GuardResult {
	if ctx.Target == StatusOverdue {
		return deny(errs.ErrValidationFailed, "OVERDUE is derived from the due date and cannot be set")
	}
	if !ctx.Target.IsStorable() {
		return deny(errs.ErrValidationFailed, "unknown status %q", ctx.Target)
	}
	if ctx.Current == StatusCompleted && ctx.Target != StatusCompleted {
		return deny(errs.ErrValidationFailed, "action %s is completed and cannot move to %s", ctx.Reference, ctx.Target)
	}
	if ctx.Target == StatusProposedClosed && !ctx.Current.IsActive() {
		return deny(errs.ErrValidationFailed, "closure can only be requested for OPEN or IN_PROGRESS actions (action %s is %s)", ctx.Reference, ctx.Current)
	}
	return allow()
}

// GovernedEditContext provides context for any governed-field write.
type GovernedEditContext struct {
	Reference string
	Status    Status
}

// CanEditGoverned evaluates whether governed fields of the action may change.
// Rule: completed actions are closed to further governed changes.
func CanEditGoverned(ctx GovernedEditContext) GuardResult {
	if ctx.Status == StatusCompleted {
		return deny(errs.ErrValidationFailed, "action %s is completed; governed fields are frozen", ctx.Reference)
	}
	return allow()
}

// IssueDescriptionContext provides context for issue description edits.
type IssueDescriptionContext struct {
	Required bool
	Text     string
}

// CanSetIssueDescription evaluates an issue description edit.
// Rule: when the caller marks it required, the text must not be blank.
func CanSetIssueDescription(ctx IssueDescriptionContext) GuardResult {
	if ctx.Required && strings.TrimSpace(ctx.Text) == "" {
		return deny(errs.ErrValidationFailed, "issue description is required")
	}
	return allow()
}
