package db

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_actions_and_ledger",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_action_provenance",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "add_id_sequences",
		Up:      migrationV3,
	},
	{
		Version: 4,
		Name:    "add_schedule_entries",
		Up:      migrationV4,
	},
}

func ensureVersionTable(database *sql.DB) error {
	_, err := database.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// RunMigrations executes all pending migrations, each in its own transaction.
func RunMigrations(database *sql.DB) error {
	if err := ensureVersionTable(database); err != nil {
		return err
	}

	// Get current schema version
	var currentVersion int
	err := database.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		slog.Info("running migration", "version", migration.Version, "name", migration.Name)

		tx, err := database.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// migrationV1 creates the first release's actions, action_changes and audit_log tables.
func migrationV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
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
			created_by TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

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

		CREATE INDEX IF NOT EXISTS idx_actions_status ON actions(status);
		CREATE INDEX IF NOT EXISTS idx_actions_assigned_to ON actions(assigned_to);
		CREATE INDEX IF NOT EXISTS idx_actions_due_date ON actions(due_date);
		CREATE INDEX IF NOT EXISTS idx_action_changes_action ON action_changes(action_id, proposed_at);
		CREATE INDEX IF NOT EXISTS idx_action_changes_status ON action_changes(status);

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
	`)
	return err
}

// migrationV2 records which compliance report or risk entry an action came from.
func migrationV2(tx *sql.Tx) error {
	stmts := []string{
		"ALTER TABLE actions ADD COLUMN source_type TEXT CHECK (source_type IN ('report', 'risk'))",
		"ALTER TABLE actions ADD COLUMN source_ref TEXT",
		"CREATE INDEX IF NOT EXISTS idx_actions_source ON actions(source_type, source_ref)",
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrationV3 adds persistent id sequences, seeded from the highest ids in
// use so existing references are never reissued.
func migrationV3(tx *sql.Tx) error {
	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS id_sequences (name TEXT PRIMARY KEY, value INTEGER NOT NULL)`); err != nil {
		return err
	}
	backfill := []struct{ name, query string }{
		{"action", "SELECT COALESCE(MAX(CAST(SUBSTR(reference, 5) AS INTEGER)), 0) FROM actions"},
		{"change", "SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM action_changes"},
	}
	for _, b := range backfill {
		var maxID int
		if err := tx.QueryRow(b.query).Scan(&maxID); err != nil {
			return err
		}
		if _, err := tx.Exec("INSERT OR REPLACE INTO id_sequences (name, value) VALUES (?, ?)", b.name, maxID); err != nil {
			return err
		}
	}
	return nil
}

// migrationV4 adds testing-schedule entries.
func migrationV4(tx *sql.Tx) error {
	_, err := tx.Exec(`
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
	`)
	return err
}
