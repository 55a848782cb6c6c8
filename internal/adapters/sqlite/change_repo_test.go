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

var base = time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)

func TestChangeRepository_ResolveApproveWritesField(t *testing.T) {
	db := setupTestDB(t)
	actions := sqlite.NewActionRepository(db, nil)
	repo := sqlite.NewChangeRepository(db, nil)
	ctx := context.Background()

	seedAction(t, actions, "a-1", "Patch servers", "2025-03-01", "xavier")
	proposal := seedProposal(t, repo, "a-1", "2025-03-01", "2025-03-10", base)

	before, _ := actions.GetByID(ctx, "a-1")
	if before.DueDate != "2025-03-01" {
		t.Fatalf("pending proposal changed the action: %s", before.DueDate)
	}

	err := repo.Resolve(ctx, &secondary.ResolveRecord{
		ChangeID:   proposal.ID,
		Status:     "APPROVED",
		ReviewedBy: "rita",
		ReviewedAt: base.Add(time.Hour),
		ReviewNote: "ok",
		Apply:      true,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	after, _ := actions.GetByID(ctx, "a-1")
	if after.DueDate != "2025-03-10" {
		t.Errorf("DueDate = %q, want 2025-03-10", after.DueDate)
	}

	got, _ := repo.GetByID(ctx, proposal.ID)
	if got.Status != "APPROVED" || got.ReviewedBy != "rita" || got.ReviewedAt == nil || got.ReviewNote != "ok" {
		t.Errorf("resolution not recorded: %+v", got)
	}
}

func TestChangeRepository_ResolveRejectLeavesActionUntouched(t *testing.T) {
	db := setupTestDB(t)
	actions := sqlite.NewActionRepository(db, nil)
	repo := sqlite.NewChangeRepository(db, nil)
	ctx := context.Background()

	seedAction(t, actions, "a-1", "Patch servers", "2025-03-01", "xavier")
	before, _ := actions.GetByID(ctx, "a-1")
	proposal := seedProposal(t, repo, "a-1", "2025-03-01", "2025-03-10", base)

	err := repo.Resolve(ctx, &secondary.ResolveRecord{ChangeID: proposal.ID, Status: "REJECTED", ReviewedBy: "rita", ReviewedAt: base})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	after, _ := actions.GetByID(ctx, "a-1")
	after.PendingChanges, before.PendingChanges = 0, 0
	if *after != *before {
		t.Errorf("action changed by rejection:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestChangeRepository_SecondResolveIsNotPending(t *testing.T) {
	db := setupTestDB(t)
	actions := sqlite.NewActionRepository(db, nil)
	repo := sqlite.NewChangeRepository(db, nil)
	ctx := context.Background()

	seedAction(t, actions, "a-1", "Patch servers", "2025-03-01", "xavier")
	proposal := seedProposal(t, repo, "a-1", "2025-03-01", "2025-03-10", base)

	first := &secondary.ResolveRecord{ChangeID: proposal.ID, Status: "REJECTED", ReviewedBy: "rita", ReviewedAt: base}
	if err := repo.Resolve(ctx, first); err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}

	second := &secondary.ResolveRecord{ChangeID: proposal.ID, Status: "APPROVED", ReviewedBy: "sam", ReviewedAt: base, Apply: true}
	if err := repo.Resolve(ctx, second); !errors.Is(err, errs.ErrNotPending) {
		t.Fatalf("second Resolve error = %v, want ErrNotPending", err)
	}

	got, _ := actions.GetByID(ctx, "a-1")
	if got.DueDate != "2025-03-01" {
		t.Errorf("losing resolution wrote the action: %s", got.DueDate)
	}

	if err := repo.Resolve(ctx, &secondary.ResolveRecord{ChangeID: "CHG-999", Status: "APPROVED"}); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("unknown change error = %v, want ErrNotFound", err)
	}
}

func TestChangeRepository_ResolveRollsBackOnFailedWrite(t *testing.T) {
	db := setupTestDB(t)
	actions := sqlite.NewActionRepository(db, nil)
	repo := sqlite.NewChangeRepository(db, nil)
	ctx := context.Background()

	seedAction(t, actions, "a-1", "Patch servers", "2025-03-01", "xavier")
	proposal := seedProposal(t, repo, "a-1", "2025-03-01", "2025-03-10", base)

	// An invalid write forces the field update to fail after the status flip.
	db.Exec("UPDATE action_changes SET field_changed = 'status', new_value = 'OVERDUE' WHERE id = ?", proposal.ID)

	err := repo.Resolve(ctx, &secondary.ResolveRecord{ChangeID: proposal.ID, Status: "APPROVED", ReviewedBy: "rita", ReviewedAt: base, Apply: true})
	if err == nil {
		t.Fatal("expected the field write to fail")
	}

	got, _ := repo.GetByID(ctx, proposal.ID)
	if got.Status != "PENDING" {
		t.Errorf("status = %s, want PENDING after rollback", got.Status)
	}
}

func TestChangeRepository_ProgressNotesCannotBeResolved(t *testing.T) {
	db := setupTestDB(t)
	actions := sqlite.NewActionRepository(db, nil)
	repo := sqlite.NewChangeRepository(db, nil)
	ctx := context.Background()

	seedAction(t, actions, "a-1", "Patch servers", "", "xavier")
	note := &secondary.ChangeRecord{
		ID: "CHG-050", ActionID: "a-1", Field: "update", NewValue: "Half done", IsUpdate: true,
		ProposedBy: "xavier", ProposedAt: base, EvidenceURL: "https://example.com/e.pdf", EvidenceName: "e.pdf",
	}
	if err := repo.Create(ctx, note); err != nil {
		t.Fatalf("Create note failed: %v", err)
	}

	got, _ := repo.GetByID(ctx, "CHG-050")
	if got.Status != "" || !got.IsUpdate || got.EvidenceName != "e.pdf" {
		t.Errorf("note read back wrong: %+v", got)
	}

	err := repo.Resolve(ctx, &secondary.ResolveRecord{ChangeID: "CHG-050", Status: "APPROVED", ReviewedBy: "rita", ReviewedAt: base})
	if !errors.Is(err, errs.ErrValidationFailed) {
		t.Errorf("error = %v, want ErrValidationFailed", err)
	}
}

func TestChangeRepository_CreateAppliedIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	actions := sqlite.NewActionRepository(db, nil)
	repo := sqlite.NewChangeRepository(db, nil)
	ctx := context.Background()

	seedAction(t, actions, "a-1", "Patch servers", "", "xavier")
	reviewed := base
	direct := &secondary.ChangeRecord{
		ID: "CHG-001", ActionID: "a-1", Field: "assignedTo", OldValue: "xavier", NewValue: "yasmin",
		Reason: "rebalancing", Status: "APPROVED", ProposedBy: "rita", ProposedAt: base, ReviewedBy: "rita", ReviewedAt: &reviewed,
	}
	if err := repo.CreateApplied(ctx, direct); err != nil {
		t.Fatalf("CreateApplied failed: %v", err)
	}
	got, _ := actions.GetByID(ctx, "a-1")
	if got.AssignedTo != "yasmin" {
		t.Errorf("AssignedTo = %q, want yasmin", got.AssignedTo)
	}

	orphan := *direct
	orphan.ID = "CHG-002"
	orphan.ActionID = "missing"
	if err := repo.CreateApplied(ctx, &orphan); err == nil {
		t.Fatal("expected failure for a missing action")
	}
	if _, err := repo.GetByID(ctx, "CHG-002"); !errors.Is(err, errs.ErrNotFound) {
		t.Error("ledger entry survived a failed write")
	}
}

func TestChangeRepository_EvidenceSurvivesIntoHistory(t *testing.T) {
	db := setupTestDB(t)
	actions := sqlite.NewActionRepository(db, nil)
	repo := sqlite.NewChangeRepository(db, nil)
	ctx := context.Background()

	seedAction(t, actions, "a-1", "Patch servers", "2025-03-01", "xavier")
	proposal := &secondary.ChangeRecord{
		ID: "CHG-010", ActionID: "a-1", Field: "dueDate", OldValue: "2025-03-01", NewValue: "2025-03-10",
		Reason: "vendor delay", Status: "PENDING", ProposedBy: "quinn", ProposedAt: base,
		EvidenceURL: "https://example.com/delay.pdf", EvidenceName: "delay.pdf",
	}
	if err := repo.Create(ctx, proposal); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	reviewed := base.Add(time.Hour)
	direct := &secondary.ChangeRecord{
		ID: "CHG-011", ActionID: "a-1", Field: "assignedTo", OldValue: "xavier", NewValue: "yasmin",
		Status: "APPROVED", ProposedBy: "rita", ProposedAt: reviewed, ReviewedBy: "rita", ReviewedAt: &reviewed,
		EvidenceURL: "https://example.com/memo", EvidenceName: "handover memo",
	}
	if err := repo.CreateApplied(ctx, direct); err != nil {
		t.Fatalf("CreateApplied failed: %v", err)
	}
	if err := repo.Resolve(ctx, &secondary.ResolveRecord{ChangeID: "CHG-010", Status: "APPROVED", ReviewedBy: "rita", ReviewedAt: reviewed}); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	history, err := repo.ListByAction(ctx, "a-1")
	if err != nil {
		t.Fatalf("ListByAction failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	want := map[string][2]string{
		"CHG-010": {"https://example.com/delay.pdf", "delay.pdf"},
		"CHG-011": {"https://example.com/memo", "handover memo"},
	}
	for _, got := range history {
		if ev := want[got.ID]; got.EvidenceURL != ev[0] || got.EvidenceName != ev[1] {
			t.Errorf("%s evidence = %q %q, want %q %q", got.ID, got.EvidenceURL, got.EvidenceName, ev[0], ev[1])
		}
	}
}

func TestChangeRepository_HistoryOrdering(t *testing.T) {
	db := setupTestDB(t)
	actions := sqlite.NewActionRepository(db, nil)
	repo := sqlite.NewChangeRepository(db, nil)
	ctx := context.Background()

	seedAction(t, actions, "a-1", "Patch servers", "2025-03-01", "xavier")
	first := seedProposal(t, repo, "a-1", "2025-03-01", "2025-03-05", base)
	tieA := seedProposal(t, repo, "a-1", "2025-03-01", "2025-03-06", base.Add(time.Hour))
	tieB := seedProposal(t, repo, "a-1", "2025-03-01", "2025-03-07", base.Add(time.Hour))

	history, err := repo.ListByAction(ctx, "a-1")
	if err != nil {
		t.Fatalf("ListByAction failed: %v", err)
	}
	want := []string{tieB.ID, tieA.ID, first.ID}
	for i, id := range want {
		if history[i].ID != id {
			t.Errorf("history[%d] = %s, want %s", i, history[i].ID, id)
		}
	}

	again, _ := repo.ListByAction(ctx, "a-1")
	for i := range history {
		if history[i].ID != again[i].ID || history[i].Seq != again[i].Seq {
			t.Fatal("history is not stable across calls")
		}
	}

	pending, _ := repo.ListPending(ctx, secondary.ChangeFilters{ActionID: "a-1"})
	if len(pending) != 3 || pending[0].ID != first.ID {
		t.Errorf("review queue should be oldest first, got %d entries", len(pending))
	}
}
