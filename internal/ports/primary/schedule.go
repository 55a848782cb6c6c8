package primary

import (
	"context"
	"time"
)

// ScheduleService defines the primary port for testing-schedule entries.
type ScheduleService interface {
	// CreateScheduleEntry creates a schedule entry. Reviewers only.
	CreateScheduleEntry(ctx context.Context, req CreateScheduleEntryRequest) (*ScheduleEntry, error)

	// GetScheduleEntry retrieves a schedule entry by ID.
	GetScheduleEntry(ctx context.Context, entryID string) (*ScheduleEntry, error)

	// ListScheduleEntries lists schedule entries.
	ListScheduleEntries(ctx context.Context, filters ScheduleFilters) ([]*ScheduleEntry, error)

	// ArchiveScheduleEntry archives one entry. A reason is required.
	ArchiveScheduleEntry(ctx context.Context, entryID, reason string) error
}

// CreateScheduleEntryRequest contains parameters for creating a schedule entry.
type CreateScheduleEntryRequest struct {
	Title        string
	ControlRef   string
	ScheduledFor string
}

// ScheduleEntry is a schedule entry at the port boundary.
type ScheduleEntry struct {
	ID            string
	Title         string
	ControlRef    string
	ScheduledFor  string
	Status        string
	ArchiveReason string
	ArchivedBy    string
	ArchivedAt    *time.Time
	CreatedAt     time.Time
}

// ScheduleFilters contains filter options for listing schedule entries.
type ScheduleFilters struct {
	Status string
}
