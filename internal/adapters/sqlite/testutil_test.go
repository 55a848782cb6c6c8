// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Instead, use
// setupTestDB() and the seed* helpers.
package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/remedy/internal/adapters/sqlite"
	"github.com/example/remedy/internal/db"
	"github.com/example/remedy/internal/ports/secondary"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// One connection only: every connection to :memory: is a separate database.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	testDB.SetMaxOpenConns(1)

	// Use the authoritative schema from schema.go
	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedAction creates an action through the repository and returns it.
func seedAction(t *testing.T, repo *sqlite.ActionRepository, id, title, dueDate, owner string) *secondary.ActionRecord {
	t.Helper()
	ctx := context.Background()

	ref, err := repo.NextReference(ctx)
	if err != nil {
		t.Fatalf("NextReference failed: %v", err)
	}
	record := &secondary.ActionRecord{
		ID:         id,
		Reference:  ref,
		Title:      title,
		Status:     "OPEN",
		Priority:   "P2",
		DueDate:    dueDate,
		AssignedTo: owner,
		CreatedBy:  "rita",
		CreatedAt:  time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC),
	}
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("failed to seed action: %v", err)
	}
	return record
}

// seedProposal appends a PENDING dueDate proposal.
func seedProposal(t *testing.T, repo *sqlite.ChangeRepository, actionID, oldValue, newValue string, at time.Time) *secondary.ChangeRecord {
	t.Helper()
	ctx := context.Background()

	id, err := repo.GetNextID(ctx)
	if err != nil {
		t.Fatalf("GetNextID failed: %v", err)
	}
	record := &secondary.ChangeRecord{
		ID:         id,
		ActionID:   actionID,
		Field:      "dueDate",
		OldValue:   oldValue,
		NewValue:   newValue,
		Reason:     "vendor delay",
		Status:     "PENDING",
		ProposedBy: "quinn",
		ProposedAt: at,
	}
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("failed to seed proposal: %v", err)
	}
	return record
}
