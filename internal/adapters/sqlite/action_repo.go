// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/remedy/internal/core/action"
	"github.com/example/remedy/internal/errs"
	"github.com/example/remedy/internal/ports/secondary"
)

// ActionRepository implements secondary.ActionRepository with SQLite.
type ActionRepository struct {
	db        *sql.DB
	logWriter secondary.LogWriter
}

// NewActionRepository creates a new SQLite action repository.
// logWriter is optional; pass nil to disable audit logging.
func NewActionRepository(db *sql.DB, logWriter secondary.LogWriter) *ActionRepository {
	return &ActionRepository{db: db, logWriter: logWriter}
}

const actionColumns = `a.id, a.reference, a.title, a.description, a.issue_description, a.section_title,
	a.status, a.priority, a.due_date, a.assigned_to, a.source_type, a.source_ref,
	a.created_by, a.created_at, a.updated_at,
	(SELECT COUNT(*) FROM action_changes c WHERE c.action_id = a.id AND c.status = 'PENDING')`

// Create persists a new action.
func (r *ActionRepository) Create(ctx context.Context, a *secondary.ActionRecord) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = a.CreatedAt

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO actions (id, reference, title, description, issue_description, section_title, status, priority, due_date, assigned_to, source_type, source_ref, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Reference,
		a.Title,
		nullString(a.Description),
		nullString(a.IssueDescription),
		nullString(a.SectionTitle),
		a.Status,
		a.Priority,
		nullString(a.DueDate),
		nullString(a.AssignedTo),
		nullString(a.SourceType),
		nullString(a.SourceRef),
		a.CreatedBy,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create action: %w", err)
	}

	if r.logWriter != nil {
		_ = r.logWriter.LogCreate(ctx, "action", a.ID)
	}

	return nil
}

// GetByID retrieves an action by its internal ID.
func (r *ActionRepository) GetByID(ctx context.Context, id string) (*secondary.ActionRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+actionColumns+" FROM actions a WHERE a.id = ?", id)
	record, err := scanAction(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("action %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get action: %w", err)
	}
	return record, nil
}

// GetByReference retrieves an action by its human-readable reference.
func (r *ActionRepository) GetByReference(ctx context.Context, reference string) (*secondary.ActionRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+actionColumns+" FROM actions a WHERE a.reference = ?", reference)
	record, err := scanAction(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("action %s", reference)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get action: %w", err)
	}
	return record, nil
}

// List retrieves actions matching the given filters, ordered by due date.
func (r *ActionRepository) List(ctx context.Context, filters secondary.ActionFilters) ([]*secondary.ActionRecord, error) {
	query := "SELECT " + actionColumns + " FROM actions a WHERE 1=1"
	args := []any{}

	if filters.Status != "" {
		query += " AND a.status = ?"
		args = append(args, filters.Status)
	}
	if filters.AssignedTo != "" {
		query += " AND a.assigned_to = ?"
		args = append(args, filters.AssignedTo)
	}
	if filters.Priority != "" {
		query += " AND a.priority = ?"
		args = append(args, filters.Priority)
	}
	if filters.SourceType != "" {
		query += " AND a.source_type = ?"
		args = append(args, filters.SourceType)
	}
	if filters.SourceRef != "" {
		query += " AND a.source_ref = ?"
		args = append(args, filters.SourceRef)
	}
	if filters.PendingOnly {
		query += " AND EXISTS (SELECT 1 FROM action_changes c WHERE c.action_id = a.id AND c.status = 'PENDING')"
	}

	query += " ORDER BY a.due_date IS NULL, a.due_date, a.reference"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	defer rows.Close()

	var actions []*secondary.ActionRecord
	for rows.Next() {
		record, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		actions = append(actions, record)
	}

	return actions, rows.Err()
}

// UpdateIssueDescription writes the free-text issue description.
func (r *ActionRepository) UpdateIssueDescription(ctx context.Context, id, text string) error {
	var old sql.NullString
	err := r.db.QueryRowContext(ctx, "SELECT issue_description FROM actions WHERE id = ?", id).Scan(&old)
	if err == sql.ErrNoRows {
		return errs.NotFound("action %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to get action: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		"UPDATE actions SET issue_description = ?, updated_at = ? WHERE id = ?",
		nullString(text), time.Now().UTC(), id,
	); err != nil {
		return fmt.Errorf("failed to update issue description: %w", err)
	}

	if r.logWriter != nil {
		_ = r.logWriter.LogUpdate(ctx, "action", id, "issueDescription", old.String, text)
	}
	return nil
}

// Delete removes an action. Its changes go with it.
func (r *ActionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM actions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete action: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return errs.NotFound("action %s", id)
	}

	if r.logWriter != nil {
		_ = r.logWriter.LogDelete(ctx, "action", id)
	}

	return nil
}

// NextReference issues the next action reference.
func (r *ActionRepository) NextReference(ctx context.Context) (string, error) {
	seq, err := nextSequence(ctx, r.db, "action")
	if err != nil {
		return "", err
	}
	return action.GenerateReference(seq), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAction(row rowScanner) (*secondary.ActionRecord, error) {
	var (
		description      sql.NullString
		issueDescription sql.NullString
		sectionTitle     sql.NullString
		dueDate          sql.NullString
		assignedTo       sql.NullString
		sourceType       sql.NullString
		sourceRef        sql.NullString
	)

	record := &secondary.ActionRecord{}
	err := row.Scan(
		&record.ID, &record.Reference, &record.Title, &description, &issueDescription, &sectionTitle,
		&record.Status, &record.Priority, &dueDate, &assignedTo, &sourceType, &sourceRef,
		&record.CreatedBy, &record.CreatedAt, &record.UpdatedAt,
		&record.PendingChanges,
	)
	if err != nil {
		return nil, err
	}
	record.Description = description.String
	record.IssueDescription = issueDescription.String
	record.SectionTitle = sectionTitle.String
	record.DueDate = dueDate.String
	record.AssignedTo = assignedTo.String
	record.SourceType = sourceType.String
	record.SourceRef = sourceRef.String

	return record, nil
}

// Ensure ActionRepository implements the interface
var _ secondary.ActionRepository = (*ActionRepository)(nil)
