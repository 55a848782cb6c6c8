package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete schema for fresh installs.
// This schema reflects the current state after all migrations.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Repository tests
// load it through GetSchemaSQL() instead of declaring their own tables, so a
// column referenced by repository code but missing here fails immediately
// with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration to migrations.go
//  2. Update SchemaSQL here
//  3. Bump the version recorded for fresh installs (latestVersion)
const SchemaSQL = `
-- Actions (the Action Record Store)
CREATE TABLE IF NOT EXISTS actions (
	id TEXT PRIMARY KEY,
	reference TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	description TEXT,
	issue_description TEXT,
	section_title TEXT,
	status TEXT NOT NULL DEFAULT 'OPEN' CHECK (status IN ('OPEN', 'IN_PROGRESS', 'COMPLETED', 'PROPOSED_CLOSED')),
	priority TEXT NOT NULL DEFAULT 'P2' CHECK (priority IN ('P1', 'P2', 'P3')),
	due_date TEXT,
	assigned_to TEXT,
	source_type TEXT CHECK (source_type IN ('report', 'risk')),
	source_ref TEXT,
	created_by TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_actions_status ON actions(status);
CREATE INDEX IF NOT EXISTS idx_actions_assigned_to ON actions(assigned_to);
CREATE INDEX IF NOT EXISTS idx_actions_due_date ON actions(due_date);
CREATE INDEX IF NOT EXISTS idx_actions_source ON actions(source_type, source_ref);

-- Action changes (the Change Proposal Ledger, append-only)
CREATE TABLE IF NOT EXISTS action_changes (
	id TEXT PRIMARY KEY,
	action_id TEXT NOT NULL,
	field_changed TEXT NOT NULL CHECK (field_changed IN ('title', 'description', 'status', 'assignedTo', 'dueDate', 'sectionTitle', 'update')),
	old_value TEXT,
	new_value TEXT,
	reason TEXT,
	is_update INTEGER NOT NULL DEFAULT 0,
	status TEXT CHECK (status IN ('PENDING', 'APPROVED', 'REJECTED')),
	proposed_by TEXT NOT NULL,
	proposed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	reviewed_by TEXT,
	reviewed_at DATETIME,
	review_note TEXT,
	evidence_url TEXT,
	evidence_name TEXT,
	FOREIGN KEY (action_id) REFERENCES actions(id) ON DELETE CASCADE,
	CHECK ((is_update = 1 AND status IS NULL) OR (is_update = 0 AND status IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_action_changes_action ON action_changes(action_id, proposed_at);
CREATE INDEX IF NOT EXISTS idx_action_changes_status ON action_changes(status);

-- Testing-schedule entries
CREATE TABLE IF NOT EXISTS schedule_entries (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	control_ref TEXT,
	scheduled_for TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'archived')),
	archive_reason TEXT,
	archived_by TEXT,
	archived_at DATETIME,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_schedule_entries_status ON schedule_entries(status);

-- Audit trail
CREATE TABLE IF NOT EXISTS audit_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	actor_id TEXT,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	action TEXT NOT NULL CHECK (action IN ('create', 'update', 'delete')),
	field_name TEXT,
	old_value TEXT,
	new_value TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_audit_log_entity ON audit_log(entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_audit_log_created ON audit_log(created_at);

-- Monotonic id sequences; values are never handed out twice
CREATE TABLE IF NOT EXISTS id_sequences (
	name TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
`

// InitSchema brings database up to date: fresh databases get SchemaSQL
// directly, existing ones run any pending migrations.
func InitSchema(database *sql.DB) error {
	if err := ensureVersionTable(database); err != nil {
		return err
	}

	var tableCount int
	err := database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='actions'").Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}

	if tableCount == 0 {
		// Completely fresh install - create the current schema directly and
		// mark every migration as applied.
		if _, err := database.Exec(SchemaSQL); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		for _, m := range migrations {
			if _, err := database.Exec("INSERT OR IGNORE INTO schema_version (version) VALUES (?)", m.Version); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
			}
		}
		return nil
	}

	return RunMigrations(database)
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
