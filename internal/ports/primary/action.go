package primary

import (
	"context"
	"time"
)

// ActionService defines the primary port for the Action Record Store and
// its read projections.
type ActionService interface {
	// CreateAction creates a new action. Reviewers only.
	CreateAction(ctx context.Context, req CreateActionRequest) (*CreateActionResponse, error)

	// GetAction retrieves an action by reference or internal ID, with
	// derived fields computed at the time of the call.
	GetAction(ctx context.Context, actionID string) (*ActionView, error)

	// ListActions lists actions with optional filters, most urgent first.
	ListActions(ctx context.Context, filters ActionFilters) ([]*ActionView, error)

	// EditAction writes a field directly, bypassing review. Governed fields
	// need a reviewer; a requester gets ImmutableField and should propose.
	// The returned change is the approved ledger entry, or nil when the
	// value was already current.
	EditAction(ctx context.Context, req EditActionRequest) (*ActionChange, error)

	// SetIssueDescription replaces the free-text issue description.
	SetIssueDescription(ctx context.Context, req SetIssueDescriptionRequest) error

	// RequestClosure moves an active action to PROPOSED_CLOSED, awaiting a
	// reviewer's direct confirmation.
	RequestClosure(ctx context.Context, actionID string) error

	// DeleteAction removes an action and its change history. Reviewers only.
	DeleteAction(ctx context.Context, actionID string) error
}

// CreateActionRequest contains parameters for creating an action.
type CreateActionRequest struct {
	Title            string
	Description      string
	IssueDescription string
	SectionTitle     string
	Status           string // optional, defaults to OPEN
	Priority         string // optional, defaults to P2
	DueDate          string // optional, YYYY-MM-DD
	AssignedTo       string
	SourceType       string // report or risk
	SourceRef        string
}

// CreateActionResponse contains the result of creating an action.
type CreateActionResponse struct {
	ActionID string
	Action   *Action
}

// EditActionRequest contains parameters for a direct edit.
type EditActionRequest struct {
	ActionID string
	Field    string
	Value    string
	Reason   string
}

// SetIssueDescriptionRequest contains parameters for an issue description edit.
type SetIssueDescriptionRequest struct {
	ActionID string
	Text     string
}

// Action is the stored state of an action at the port boundary.
type Action struct {
	ID               string
	Reference        string
	Title            string
	Description      string
	IssueDescription string
	SectionTitle     string
	Status           string
	Priority         string
	DueDate          string
	AssignedTo       string
	SourceType       string
	SourceRef        string
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Approval status values of an action.
const (
	ApprovalPendingReview = "pending_review"
	ApprovalClear         = "clear"
)

// ActionView is an action plus the facts derived from it at read time.
// None of the derived fields are stored.
type ActionView struct {
	Action
	EffectiveStatus string
	DaysUntilDue    *int
	Urgency         string
	ApprovalStatus  string
	PendingChanges  int

	// Drift and OriginalDueDate are only filled by GetAction.
	Drift           int
	OriginalDueDate string
	OriginalOwner   string
}

// ActionFilters contains filter options for listing actions.
type ActionFilters struct {
	Status      string // effective status, so OVERDUE is accepted
	Urgency     string // late, soon, normal, none
	AssignedTo  string
	Priority    string
	SourceType  string
	SourceRef   string
	PendingOnly bool
}
