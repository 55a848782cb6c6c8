package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SeedFixtures populates the database with development fixtures: a handful of
// actions in different states, a ledger that exercises drift and pending
// review, and some testing-schedule entries.
func SeedFixtures(database *sql.DB, now time.Time) error {
	today := now.UTC().Truncate(24 * time.Hour)
	day := func(offset int) string {
		return today.AddDate(0, 0, offset).Format("2006-01-02")
	}
	at := func(offsetHours int) time.Time {
		return now.UTC().Add(time.Duration(offsetHours) * time.Hour)
	}

	tx, err := database.Begin()
	if err != nil {
		return fmt.Errorf("seed: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	actions := []struct {
		id, ref, title, status, priority, due, owner, sourceType, sourceRef string
	}{
		{"6f1c0a52-8d4e-4a43-9a6f-0a1d5cf0a001", "ACT-001", "Rotate shared admin credentials", "OPEN", "P1", day(-3), "xavier", "report", "AUD-2025-04"},
		{"6f1c0a52-8d4e-4a43-9a6f-0a1d5cf0a002", "ACT-002", "Document vendor exit plan", "IN_PROGRESS", "P2", day(5), "yasmin", "risk", "RSK-017"},
		{"6f1c0a52-8d4e-4a43-9a6f-0a1d5cf0a003", "ACT-003", "Enable MFA on payment console", "COMPLETED", "P1", day(-20), "xavier", "report", "AUD-2025-04"},
		{"6f1c0a52-8d4e-4a43-9a6f-0a1d5cf0a004", "ACT-004", "Review firewall change tickets", "OPEN", "P3", day(30), "zoe", "risk", "RSK-022"},
		{"6f1c0a52-8d4e-4a43-9a6f-0a1d5cf0a005", "ACT-005", "Retire legacy FTP endpoint", "PROPOSED_CLOSED", "P2", day(2), "yasmin", "", ""},
	}
	for _, a := range actions {
		var sourceType, sourceRef sql.NullString
		if a.sourceType != "" {
			sourceType = sql.NullString{String: a.sourceType, Valid: true}
			sourceRef = sql.NullString{String: a.sourceRef, Valid: true}
		}
		if _, err := tx.Exec(
			`INSERT INTO actions (id, reference, title, issue_description, status, priority, due_date, assigned_to, source_type, source_ref, created_by, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'rita', ?, ?)`,
			a.id, a.ref, a.title, "Raised during review "+a.sourceRef, a.status, a.priority, a.due, a.owner, sourceType, sourceRef, at(-24*40), at(-24*40),
		); err != nil {
			return fmt.Errorf("seed actions: %w", err)
		}
	}

	changes := []struct {
		id, actionID, field, oldValue, newValue, reason string
		isUpdate                                        bool
		status, proposedBy, reviewedBy                  string
		proposedAt                                      time.Time
	}{
		{"CHG-001", actions[1].id, "dueDate", day(-4), day(-1), "supplier unavailable", false, "APPROVED", "yasmin", "rita", at(-24 * 10)},
		{"CHG-002", actions[1].id, "dueDate", day(-1), day(5), "legal review pending", false, "APPROVED", "yasmin", "rita", at(-24 * 5)},
		{"CHG-003", actions[1].id, "dueDate", day(5), day(40), "holiday period", false, "REJECTED", "yasmin", "rita", at(-24 * 2)},
		{"CHG-004", actions[0].id, "dueDate", day(-3), day(14), "waiting on vendor patch", false, "PENDING", "xavier", "", at(-6)},
		{"CHG-005", actions[0].id, "update", "", "Credentials inventory complete", "", true, "", "xavier", "", at(-3)},
		{"CHG-006", actions[3].id, "assignedTo", "zoe", "xavier", "zoe moving teams", false, "PENDING", "zoe", "", at(-1)},
	}
	for _, c := range changes {
		var status, reviewedBy sql.NullString
		var reviewedAt sql.NullTime
		if !c.isUpdate {
			status = sql.NullString{String: c.status, Valid: true}
		}
		if c.reviewedBy != "" {
			reviewedBy = sql.NullString{String: c.reviewedBy, Valid: true}
			reviewedAt = sql.NullTime{Time: c.proposedAt.Add(time.Hour), Valid: true}
		}
		if _, err := tx.Exec(
			`INSERT INTO action_changes (id, action_id, field_changed, old_value, new_value, reason, is_update, status, proposed_by, proposed_at, reviewed_by, reviewed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.id, c.actionID, c.field, c.oldValue, c.newValue, c.reason, c.isUpdate, status, c.proposedBy, c.proposedAt, reviewedBy, reviewedAt,
		); err != nil {
			return fmt.Errorf("seed action changes: %w", err)
		}
	}

	schedule := []struct{ id, title, control, when string }{
		{"SCH-001", "Quarterly access recertification", "CTL-ACC-01", day(10)},
		{"SCH-002", "Backup restore test", "CTL-BCP-03", day(25)},
		{"SCH-003", "Legacy FTP log review", "CTL-LOG-09", day(-5)},
	}
	for _, s := range schedule {
		if _, err := tx.Exec(
			"INSERT INTO schedule_entries (id, title, control_ref, scheduled_for, status, created_at) VALUES (?, ?, ?, ?, 'active', ?)",
			s.id, s.title, s.control, s.when, at(-24*30),
		); err != nil {
			return fmt.Errorf("seed schedule entries: %w", err)
		}
	}

	sequences := map[string]int{"action": len(actions), "change": len(changes), "schedule": len(schedule)}
	for name, value := range sequences {
		if _, err := tx.Exec("INSERT OR REPLACE INTO id_sequences (name, value) VALUES (?, ?)", name, value); err != nil {
			return fmt.Errorf("seed sequences: %w", err)
		}
	}

	return tx.Commit()
}
