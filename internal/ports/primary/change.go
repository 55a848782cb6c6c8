package primary

import (
	"context"
	"time"
)

// ChangeService defines the primary port for the Change Proposal Ledger.
type ChangeService interface {
	// ProposeChange records a PENDING change to a governed field. The action
	// is untouched until a reviewer resolves it.
	ProposeChange(ctx context.Context, req ProposeChangeRequest) (*ActionChange, error)

	// SubmitChange asks the Approval Authority where the request goes: a
	// reviewer's change applies directly, a requester's is proposed.
	SubmitChange(ctx context.Context, req ProposeChangeRequest) (*SubmitChangeResponse, error)

	// AddProgressNote records an informational note. Notes never need
	// approval and never change the action.
	AddProgressNote(ctx context.Context, req ProgressNoteRequest) (*ActionChange, error)

	// ResolveChange approves or rejects a PENDING change. Approval writes the
	// new value in the same transaction.
	ResolveChange(ctx context.Context, req ResolveChangeRequest) (*ActionChange, error)

	// History returns an action's ledger newest-first.
	History(ctx context.Context, actionID string) ([]*ActionChange, error)

	// CumulativeDrift returns the days the due date has moved through
	// approved changes.
	CumulativeDrift(ctx context.Context, actionID string) (int, error)

	// OriginalValue returns a field's value before its first proposal.
	OriginalValue(ctx context.Context, actionID, field string) (string, error)

	// ListPending returns the review queue.
	ListPending(ctx context.Context, filters ChangeFilters) ([]*ActionChange, error)
}

// ProposeChangeRequest contains parameters for a governed change request.
type ProposeChangeRequest struct {
	ActionID     string
	Field        string
	NewValue     string
	Reason       string
	EvidenceURL  string
	EvidenceName string
}

// SubmitChangeResponse reports how a submitted change was routed.
type SubmitChangeResponse struct {
	Route  string // direct or propose
	Change *ActionChange
}

// ProgressNoteRequest contains parameters for a progress note.
type ProgressNoteRequest struct {
	ActionID     string
	Text         string
	EvidenceURL  string
	EvidenceName string
}

// ResolveChangeRequest contains parameters for resolving a change.
type ResolveChangeRequest struct {
	ChangeID string
	Decision string // APPROVED or REJECTED
	Note     string
}

// ActionChange is a ledger entry at the port boundary.
type ActionChange struct {
	ID           string
	ActionID     string
	ActionRef    string
	Field        string
	OldValue     string
	NewValue     string
	Reason       string
	IsUpdate     bool
	Status       string
	ProposedBy   string
	ProposedAt   time.Time
	ReviewedBy   string
	ReviewedAt   *time.Time
	ReviewNote   string
	EvidenceURL  string
	EvidenceName string

	// Stale is set on PENDING entries whose OldValue no longer matches the
	// action, for the reviewer's judgement.
	Stale bool
}

// ChangeFilters contains filter options for the review queue.
type ChangeFilters struct {
	ActionID   string
	ProposedBy string
	Field      string
}
