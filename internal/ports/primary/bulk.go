package primary

import "context"

// BulkService defines the primary port for the Bulk Operation Coordinator.
type BulkService interface {
	// Start validates the batch and runs it, emitting one progress event
	// per item. The channel is closed after the last item. Validation
	// failures return an error before any item is touched.
	Start(ctx context.Context, req BatchRequest) (<-chan BatchProgress, error)

	// BulkReassign gives every listed action a new owner.
	BulkReassign(ctx context.Context, actionIDs []string, newOwner string) (*BatchResult, error)

	// BulkComplete marks every listed action COMPLETED.
	BulkComplete(ctx context.Context, actionIDs []string) (*BatchResult, error)

	// BulkArchiveScheduleEntries archives schedule entries with a reason.
	BulkArchiveScheduleEntries(ctx context.Context, entryIDs []string, reason string) (*BatchResult, error)
}

// BatchRequest describes one batch.
type BatchRequest struct {
	Operation string // reassign, complete or archive
	IDs       []string
	NewOwner  string
	Reason    string
}

// BatchProgress is emitted after each item. Completed+Failed never
// decreases and never exceeds Total.
type BatchProgress struct {
	ItemID    string
	Err       error
	Total     int
	Completed int
	Failed    int
}

// BatchResult is the outcome of a finished batch.
type BatchResult struct {
	Total     int
	Completed int
	Failed    int
	FailedIDs []string
	Errors    map[string]error
}

// Succeeded reports whether no item failed.
func (r *BatchResult) Succeeded() bool {
	return r.Failed == 0
}
