package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/remedy/internal/errs"
	"github.com/example/remedy/internal/ports/secondary"
)

// ChangeRepository implements secondary.ChangeRepository with SQLite.
type ChangeRepository struct {
	db        *sql.DB
	logWriter secondary.LogWriter
}

// NewChangeRepository creates a new SQLite change repository.
// logWriter is optional; pass nil to disable audit logging.
func NewChangeRepository(db *sql.DB, logWriter secondary.LogWriter) *ChangeRepository {
	return &ChangeRepository{db: db, logWriter: logWriter}
}

// fieldColumns maps ledger field names onto action columns.
var fieldColumns = map[string]string{
	"title":        "title",
	"description":  "description",
	"status":       "status",
	"assignedTo":   "assigned_to",
	"dueDate":      "due_date",
	"sectionTitle": "section_title",
}

const changeColumns = `id, action_id, field_changed, old_value, new_value, reason, is_update, status,
	proposed_by, proposed_at, reviewed_by, reviewed_at, review_note, evidence_url, evidence_name, rowid`

// Create appends a PENDING proposal or a progress note.
func (r *ChangeRepository) Create(ctx context.Context, c *secondary.ChangeRecord) error {
	if err := insertChange(ctx, r.db, c); err != nil {
		return err
	}
	if r.logWriter != nil {
		_ = r.logWriter.LogCreate(ctx, "change", c.ID)
	}
	return nil
}

// CreateApplied appends an APPROVED entry and writes its value into the
// action in one transaction.
func (r *ChangeRepository) CreateApplied(ctx context.Context, c *secondary.ChangeRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertChange(ctx, tx, c); err != nil {
		return err
	}
	if err := writeField(ctx, tx, c.ActionID, c.Field, c.NewValue, c.ProposedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit change: %w", err)
	}

	if r.logWriter != nil {
		_ = r.logWriter.LogUpdate(ctx, "action", c.ActionID, c.Field, c.OldValue, c.NewValue)
	}
	return nil
}

// GetByID retrieves a change by its ID.
func (r *ChangeRepository) GetByID(ctx context.Context, id string) (*secondary.ChangeRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+changeColumns+" FROM action_changes WHERE id = ?", id)
	record, err := scanChange(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("change %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get change: %w", err)
	}
	return record, nil
}

// ListByAction returns an action's entries newest-first. Insertion order
// breaks ties between entries proposed at the same instant.
func (r *ChangeRepository) ListByAction(ctx context.Context, actionID string) ([]*secondary.ChangeRecord, error) {
	return r.query(ctx,
		"SELECT "+changeColumns+" FROM action_changes WHERE action_id = ? ORDER BY proposed_at DESC, rowid DESC",
		actionID,
	)
}

// ListPending returns PENDING entries, oldest first.
func (r *ChangeRepository) ListPending(ctx context.Context, filters secondary.ChangeFilters) ([]*secondary.ChangeRecord, error) {
	query := "SELECT " + changeColumns + " FROM action_changes WHERE status = 'PENDING'"
	args := []any{}

	if filters.ActionID != "" {
		query += " AND action_id = ?"
		args = append(args, filters.ActionID)
	}
	if filters.ProposedBy != "" {
		query += " AND proposed_by = ?"
		args = append(args, filters.ProposedBy)
	}
	if filters.Field != "" {
		query += " AND field_changed = ?"
		args = append(args, filters.Field)
	}

	query += " ORDER BY proposed_at, rowid"

	return r.query(ctx, query, args...)
}

// Resolve moves a PENDING change to a terminal status and, when Apply is set,
// writes its new value into the action. Both happen in one transaction; the
// conditional update means only one of two racing reviewers wins.
func (r *ChangeRepository) Resolve(ctx context.Context, res *secondary.ResolveRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE action_changes SET status = ?, reviewed_by = ?, reviewed_at = ?, review_note = ?
		 WHERE id = ? AND status = 'PENDING' AND is_update = 0`,
		res.Status, res.ReviewedBy, res.ReviewedAt.UTC(), nullString(res.ReviewNote), res.ChangeID,
	)
	if err != nil {
		return fmt.Errorf("failed to resolve change: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		var status sql.NullString
		err := tx.QueryRowContext(ctx, "SELECT status FROM action_changes WHERE id = ?", res.ChangeID).Scan(&status)
		if err == sql.ErrNoRows {
			return errs.NotFound("change %s", res.ChangeID)
		}
		if err != nil {
			return fmt.Errorf("failed to get change: %w", err)
		}
		if !status.Valid {
			return errs.Validation("change %s is a progress note and cannot be reviewed", res.ChangeID)
		}
		return errs.NotPending("change %s is already %s", res.ChangeID, status.String)
	}

	var actionID, field, oldValue, newValue string
	if res.Apply {
		var oldNull, newNull sql.NullString
		err := tx.QueryRowContext(ctx,
			"SELECT action_id, field_changed, old_value, new_value FROM action_changes WHERE id = ?",
			res.ChangeID,
		).Scan(&actionID, &field, &oldNull, &newNull)
		if err != nil {
			return fmt.Errorf("failed to read change: %w", err)
		}
		oldValue, newValue = oldNull.String, newNull.String
		if err := writeField(ctx, tx, actionID, field, newValue, res.ReviewedAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit resolution: %w", err)
	}

	if r.logWriter != nil {
		_ = r.logWriter.LogUpdate(ctx, "change", res.ChangeID, "status", "PENDING", res.Status)
		if res.Apply {
			_ = r.logWriter.LogUpdate(ctx, "action", actionID, field, oldValue, newValue)
		}
	}
	return nil
}

// GetNextID returns the next available change ID.
func (r *ChangeRepository) GetNextID(ctx context.Context) (string, error) {
	seq, err := nextSequence(ctx, r.db, "change")
	if err != nil {
		return "", fmt.Errorf("failed to get next change ID: %w", err)
	}
	return fmt.Sprintf("CHG-%03d", seq), nil
}

func (r *ChangeRepository) query(ctx context.Context, query string, args ...any) ([]*secondary.ChangeRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list changes: %w", err)
	}
	defer rows.Close()

	var changes []*secondary.ChangeRecord
	for rows.Next() {
		record, err := scanChange(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}
		changes = append(changes, record)
	}
	return changes, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertChange(ctx context.Context, ex execer, c *secondary.ChangeRecord) error {
	var status, reviewedBy sql.NullString
	var reviewedAt sql.NullTime
	if !c.IsUpdate {
		status = sql.NullString{String: c.Status, Valid: true}
	}
	if c.ReviewedBy != "" {
		reviewedBy = sql.NullString{String: c.ReviewedBy, Valid: true}
	}
	if c.ReviewedAt != nil {
		reviewedAt = sql.NullTime{Time: c.ReviewedAt.UTC(), Valid: true}
	}
	if c.ProposedAt.IsZero() {
		c.ProposedAt = time.Now()
	}
	c.ProposedAt = c.ProposedAt.UTC()

	_, err := ex.ExecContext(ctx,
		`INSERT INTO action_changes (id, action_id, field_changed, old_value, new_value, reason, is_update, status, proposed_by, proposed_at, reviewed_by, reviewed_at, review_note, evidence_url, evidence_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.ActionID,
		c.Field,
		c.OldValue,
		c.NewValue,
		nullString(c.Reason),
		c.IsUpdate,
		status,
		c.ProposedBy,
		c.ProposedAt,
		reviewedBy,
		reviewedAt,
		nullString(c.ReviewNote),
		nullString(c.EvidenceURL),
		nullString(c.EvidenceName),
	)
	if err != nil {
		return fmt.Errorf("failed to create change: %w", err)
	}
	return nil
}

// writeField applies a ledger value to the action row. Empty values clear
// nullable columns.
func writeField(ctx context.Context, ex execer, actionID, field, value string, at time.Time) error {
	column, ok := fieldColumns[field]
	if !ok {
		return errs.InvalidField("field %q cannot be written", field)
	}

	var arg any = value
	if value == "" && column != "title" && column != "status" {
		arg = nil
	}

	result, err := ex.ExecContext(ctx,
		fmt.Sprintf("UPDATE actions SET %s = ?, updated_at = ? WHERE id = ?", column),
		arg, at.UTC(), actionID,
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", field, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return errs.NotFound("action %s", actionID)
	}
	return nil
}

func scanChange(row rowScanner) (*secondary.ChangeRecord, error) {
	var (
		oldValue     sql.NullString
		newValue     sql.NullString
		reason       sql.NullString
		status       sql.NullString
		reviewedBy   sql.NullString
		reviewedAt   sql.NullTime
		reviewNote   sql.NullString
		evidenceURL  sql.NullString
		evidenceName sql.NullString
	)

	record := &secondary.ChangeRecord{}
	err := row.Scan(
		&record.ID, &record.ActionID, &record.Field, &oldValue, &newValue, &reason, &record.IsUpdate, &status,
		&record.ProposedBy, &record.ProposedAt, &reviewedBy, &reviewedAt, &reviewNote, &evidenceURL, &evidenceName,
		&record.Seq,
	)
	if err != nil {
		return nil, err
	}
	record.OldValue = oldValue.String
	record.NewValue = newValue.String
	record.Reason = reason.String
	record.Status = status.String
	record.ReviewedBy = reviewedBy.String
	record.ReviewNote = reviewNote.String
	record.EvidenceURL = evidenceURL.String
	record.EvidenceName = evidenceName.String
	if reviewedAt.Valid {
		t := reviewedAt.Time
		record.ReviewedAt = &t
	}

	return record, nil
}

// Ensure ChangeRepository implements the interface
var _ secondary.ChangeRepository = (*ChangeRepository)(nil)
