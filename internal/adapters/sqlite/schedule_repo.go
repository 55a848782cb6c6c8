package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/remedy/internal/core/schedule"
	"github.com/example/remedy/internal/errs"
	"github.com/example/remedy/internal/ports/secondary"
)

// ScheduleRepository implements secondary.ScheduleRepository with SQLite.
type ScheduleRepository struct {
	db        *sql.DB
	logWriter secondary.LogWriter
}

// NewScheduleRepository creates a new SQLite schedule repository.
// logWriter is optional; pass nil to disable audit logging.
func NewScheduleRepository(db *sql.DB, logWriter secondary.LogWriter) *ScheduleRepository {
	return &ScheduleRepository{db: db, logWriter: logWriter}
}

const scheduleColumns = `id, title, control_ref, scheduled_for, status, archive_reason, archived_by, archived_at, created_at`

// Create persists a new schedule entry.
func (r *ScheduleRepository) Create(ctx context.Context, e *secondary.ScheduleEntryRecord) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Status == "" {
		e.Status = string(schedule.StatusActive)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO schedule_entries (id, title, control_ref, scheduled_for, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, nullString(e.ControlRef), e.ScheduledFor, e.Status, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create schedule entry: %w", err)
	}

	if r.logWriter != nil {
		_ = r.logWriter.LogCreate(ctx, "schedule", e.ID)
	}
	return nil
}

// GetByID retrieves a schedule entry by its ID.
func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*secondary.ScheduleEntryRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+scheduleColumns+" FROM schedule_entries WHERE id = ?", id)
	record, err := scanScheduleEntry(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("schedule entry %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule entry: %w", err)
	}
	return record, nil
}

// List retrieves schedule entries matching the given filters.
func (r *ScheduleRepository) List(ctx context.Context, filters secondary.ScheduleFilters) ([]*secondary.ScheduleEntryRecord, error) {
	query := "SELECT " + scheduleColumns + " FROM schedule_entries WHERE 1=1"
	args := []any{}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	query += " ORDER BY scheduled_for, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule entries: %w", err)
	}
	defer rows.Close()

	var entries []*secondary.ScheduleEntryRecord
	for rows.Next() {
		record, err := scanScheduleEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule entry: %w", err)
		}
		entries = append(entries, record)
	}
	return entries, rows.Err()
}

// Archive marks an active entry archived.
func (r *ScheduleRepository) Archive(ctx context.Context, id, reason, archivedBy string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE schedule_entries SET status = 'archived', archive_reason = ?, archived_by = ?, archived_at = ? WHERE id = ? AND status = 'active'",
		reason, archivedBy, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to archive schedule entry: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return errs.Validation("schedule entry %s is already archived", id)
	}

	if r.logWriter != nil {
		_ = r.logWriter.LogUpdate(ctx, "schedule", id, "status", "active", "archived")
	}
	return nil
}

// GetNextID returns the next available schedule entry ID.
func (r *ScheduleRepository) GetNextID(ctx context.Context) (string, error) {
	seq, err := nextSequence(ctx, r.db, "schedule")
	if err != nil {
		return "", fmt.Errorf("failed to get next schedule entry ID: %w", err)
	}
	return schedule.GenerateID(seq), nil
}

func scanScheduleEntry(row rowScanner) (*secondary.ScheduleEntryRecord, error) {
	var (
		controlRef    sql.NullString
		archiveReason sql.NullString
		archivedBy    sql.NullString
		archivedAt    sql.NullTime
	)

	record := &secondary.ScheduleEntryRecord{}
	err := row.Scan(&record.ID, &record.Title, &controlRef, &record.ScheduledFor, &record.Status,
		&archiveReason, &archivedBy, &archivedAt, &record.CreatedAt)
	if err != nil {
		return nil, err
	}
	record.ControlRef = controlRef.String
	record.ArchiveReason = archiveReason.String
	record.ArchivedBy = archivedBy.String
	if archivedAt.Valid {
		t := archivedAt.Time
		record.ArchivedAt = &t
	}
	return record, nil
}

// Ensure ScheduleRepository implements the interface
var _ secondary.ScheduleRepository = (*ScheduleRepository)(nil)
