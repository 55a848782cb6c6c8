package secondary

import (
	"context"
	"time"
)

// ActionRepository defines the secondary port for the Action Record Store.
type ActionRepository interface {
	// Create persists a new action. Reference and ID must already be set.
	Create(ctx context.Context, action *ActionRecord) error

	// GetByID retrieves an action by its internal ID.
	GetByID(ctx context.Context, id string) (*ActionRecord, error)

	// GetByReference retrieves an action by its human-readable reference.
	GetByReference(ctx context.Context, reference string) (*ActionRecord, error)

	// List retrieves actions matching the given filters.
	List(ctx context.Context, filters ActionFilters) ([]*ActionRecord, error)

	// UpdateIssueDescription writes the free-text issue description.
	UpdateIssueDescription(ctx context.Context, id, text string) error

	// Delete removes an action and, by cascade, its changes.
	Delete(ctx context.Context, id string) error

	// NextReference issues the next reference from a persistent sequence.
	// References are never reused, even after deletion.
	NextReference(ctx context.Context) (string, error)
}

// ActionRecord represents an action as stored in persistence.
type ActionRecord struct {
	ID               string
	Reference        string
	Title            string
	Description      string
	IssueDescription string
	SectionTitle     string
	Status           string
	Priority         string
	DueDate          string // YYYY-MM-DD, empty if unset
	AssignedTo       string // empty if unassigned
	SourceType       string // report, risk or empty
	SourceRef        string
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// PendingChanges is read-only: the number of PENDING governed changes.
	PendingChanges int
}

// ActionFilters contains filter options for querying actions.
// Effective-status filtering happens above the store.
type ActionFilters struct {
	Status      string // stored status
	AssignedTo  string
	Priority    string
	SourceType  string
	SourceRef   string
	PendingOnly bool
}
