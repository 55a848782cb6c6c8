package secondary

import (
	"context"
	"time"
)

// ScheduleRepository defines the secondary port for testing-schedule entries.
type ScheduleRepository interface {
	// Create persists a new schedule entry.
	Create(ctx context.Context, entry *ScheduleEntryRecord) error

	// GetByID retrieves a schedule entry by its ID.
	GetByID(ctx context.Context, id string) (*ScheduleEntryRecord, error)

	// List retrieves schedule entries matching the given filters.
	List(ctx context.Context, filters ScheduleFilters) ([]*ScheduleEntryRecord, error)

	// Archive marks an active entry archived. Returns errs.ErrNotFound for
	// unknown ids and errs.ErrValidationFailed if already archived.
	Archive(ctx context.Context, id, reason, archivedBy string, at time.Time) error

	// GetNextID returns the next available schedule entry ID.
	GetNextID(ctx context.Context) (string, error)
}

// ScheduleEntryRecord represents a schedule entry as stored in persistence.
type ScheduleEntryRecord struct {
	ID            string
	Title         string
	ControlRef    string
	ScheduledFor  string // YYYY-MM-DD
	Status        string
	ArchiveReason string
	ArchivedBy    string
	ArchivedAt    *time.Time
	CreatedAt     time.Time
}

// ScheduleFilters contains filter options for querying schedule entries.
type ScheduleFilters struct {
	Status string
}
