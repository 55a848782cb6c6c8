package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/remedy/internal/adapters/sqlite"
	"github.com/example/remedy/internal/errs"
	"github.com/example/remedy/internal/ports/secondary"
)

func TestActionRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewActionRepository(db, nil)
	ctx := context.Background()

	created := seedAction(t, repo, "a-1", "Rotate credentials", "2025-03-01", "xavier")

	t.Run("by reference", func(t *testing.T) {
		got, err := repo.GetByReference(ctx, created.Reference)
		if err != nil {
			t.Fatalf("GetByReference failed: %v", err)
		}
		if got.ID != "a-1" {
			t.Errorf("ID = %q, want a-1", got.ID)
		}
		if got.DueDate != "2025-03-01" {
			t.Errorf("DueDate = %q, want 2025-03-01", got.DueDate)
		}
		if got.AssignedTo != "xavier" {
			t.Errorf("AssignedTo = %q, want xavier", got.AssignedTo)
		}
		if got.Description != "" || got.SourceType != "" {
			t.Error("unset optional fields should read back empty")
		}
		if !got.CreatedAt.Equal(created.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created.CreatedAt)
		}
	})

	t.Run("missing action", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "nope")
		if !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestActionRepository_NextReferenceNeverReused(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewActionRepository(db, nil)
	ctx := context.Background()

	first := seedAction(t, repo, "a-1", "One", "", "")
	second := seedAction(t, repo, "a-2", "Two", "", "")
	if first.Reference != "ACT-001" || second.Reference != "ACT-002" {
		t.Fatalf("references = %s, %s", first.Reference, second.Reference)
	}

	if err := repo.Delete(ctx, "a-2"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	third := seedAction(t, repo, "a-3", "Three", "", "")
	if third.Reference != "ACT-003" {
		t.Errorf("reference after delete = %s, want ACT-003", third.Reference)
	}
}

func TestActionRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewActionRepository(db, nil)
	changes := sqlite.NewChangeRepository(db, nil)
	ctx := context.Background()

	seedAction(t, repo, "a-1", "Later", "2025-05-01", "xavier")
	seedAction(t, repo, "a-2", "Sooner", "2025-03-01", "yasmin")
	seedAction(t, repo, "a-3", "Undated", "", "xavier")
	seedProposal(t, changes, "a-1", "2025-05-01", "2025-06-01", time.Now())

	all, err := repo.List(ctx, secondary.ActionFilters{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d actions, want 3", len(all))
	}
	if all[0].ID != "a-2" || all[2].ID != "a-3" {
		t.Errorf("order = %s,%s,%s; want due date order with undated last", all[0].ID, all[1].ID, all[2].ID)
	}

	mine, _ := repo.List(ctx, secondary.ActionFilters{AssignedTo: "xavier"})
	if len(mine) != 2 {
		t.Errorf("xavier has %d actions, want 2", len(mine))
	}

	pending, _ := repo.List(ctx, secondary.ActionFilters{PendingOnly: true})
	if len(pending) != 1 || pending[0].ID != "a-1" {
		t.Fatalf("pending filter returned %d actions", len(pending))
	}
	if pending[0].PendingChanges != 1 {
		t.Errorf("PendingChanges = %d, want 1", pending[0].PendingChanges)
	}
}

func TestActionRepository_DeleteCascadesToChanges(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewActionRepository(db, nil)
	changes := sqlite.NewChangeRepository(db, nil)
	ctx := context.Background()

	seedAction(t, repo, "a-1", "Doomed", "2025-03-01", "")
	proposal := seedProposal(t, changes, "a-1", "2025-03-01", "2025-03-10", time.Now())

	if err := repo.Delete(ctx, "a-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := changes.GetByID(ctx, proposal.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("change survived its action: %v", err)
	}
	if err := repo.Delete(ctx, "a-1"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestActionRepository_UpdateIssueDescription(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewActionRepository(db, nil)
	ctx := context.Background()

	seedAction(t, repo, "a-1", "Describe me", "", "quinn")

	if err := repo.UpdateIssueDescription(ctx, "a-1", "Found in Q1 audit"); err != nil {
		t.Fatalf("UpdateIssueDescription failed: %v", err)
	}
	got, _ := repo.GetByID(ctx, "a-1")
	if got.IssueDescription != "Found in Q1 audit" {
		t.Errorf("IssueDescription = %q", got.IssueDescription)
	}

	if err := repo.UpdateIssueDescription(ctx, "nope", "x"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestActionRepository_SchemaRefusesStoredOverdue(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewActionRepository(db, nil)

	seedAction(t, repo, "a-1", "Late", "2020-01-01", "")
	if _, err := db.Exec("UPDATE actions SET status = 'OVERDUE' WHERE id = 'a-1'"); err == nil {
		t.Error("the schema must refuse a stored OVERDUE status")
	}
}
