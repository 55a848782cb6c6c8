package secondary

import (
	"context"
	"time"
)

// ChangeRepository defines the secondary port for the Change Proposal Ledger.
// The ledger is append-only: entries are created and resolved, never edited
// or removed except by cascade when their action is deleted.
type ChangeRepository interface {
	// Create appends a PENDING proposal or a progress note.
	Create(ctx context.Context, change *ChangeRecord) error

	// CreateApplied appends an already-APPROVED entry and writes its new
	// value into the action in the same transaction.
	CreateApplied(ctx context.Context, change *ChangeRecord) error

	// GetByID retrieves a change by its ID.
	GetByID(ctx context.Context, id string) (*ChangeRecord, error)

	// ListByAction returns an action's entries newest-first.
	ListByAction(ctx context.Context, actionID string) ([]*ChangeRecord, error)

	// ListPending returns PENDING entries across actions, oldest first.
	ListPending(ctx context.Context, filters ChangeFilters) ([]*ChangeRecord, error)

	// Resolve moves a PENDING change to APPROVED or REJECTED. When Apply is
	// set the new value is written into the action in the same transaction.
	// Returns an errs.ErrNotPending error if the change was already resolved.
	Resolve(ctx context.Context, resolution *ResolveRecord) error

	// GetNextID returns the next available change ID.
	GetNextID(ctx context.Context) (string, error)
}

// ChangeRecord represents a ledger entry as stored in persistence.
type ChangeRecord struct {
	ID           string
	ActionID     string
	Field        string
	OldValue     string
	NewValue     string
	Reason       string
	IsUpdate     bool
	Status       string // empty for progress notes
	ProposedBy   string
	ProposedAt   time.Time
	ReviewedBy   string
	ReviewedAt   *time.Time
	ReviewNote   string
	EvidenceURL  string
	EvidenceName string

	// Seq is the insertion order, read-only.
	Seq int64
}

// ResolveRecord describes a resolution.
type ResolveRecord struct {
	ChangeID   string
	Status     string // APPROVED or REJECTED
	ReviewedBy string
	ReviewedAt time.Time
	ReviewNote string
	Apply      bool
}

// ChangeFilters contains filter options for the review queue.
type ChangeFilters struct {
	ActionID   string
	ProposedBy string
	Field      string
}
