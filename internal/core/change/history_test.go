package change

import (
	"testing"
	"time"

	"github.com/example/remedy/internal/core/action"
)

var t0 = time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

func dueEntry(seq int64, status Status, oldValue, newValue string) Entry {
	return Entry{
		ID:         "CHG-" + string(rune('0'+seq)),
		Field:      FieldDueDate,
		OldValue:   oldValue,
		NewValue:   newValue,
		Status:     status,
		ProposedAt: t0.Add(time.Duration(seq) * time.Hour),
		Seq:        seq,
	}
}

func TestCumulativeDrift(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		want    int
	}{
		{name: "no history", entries: nil, want: 0},
		{name: "only pending", entries: []Entry{dueEntry(1, StatusPending, "2025-03-01", "2025-03-10")}, want: 0},
		{name: "single approval", entries: []Entry{dueEntry(1, StatusApproved, "2025-03-01", "2025-03-10")}, want: 9},
		{
			name: "chain ignores rejected and pending",
			entries: []Entry{
				dueEntry(1, StatusApproved, "2025-03-01", "2025-03-10"),
				dueEntry(2, StatusRejected, "2025-03-10", "2025-06-01"),
				dueEntry(3, StatusApproved, "2025-03-10", "2025-03-20"),
				dueEntry(4, StatusPending, "2025-03-20", "2025-12-31"),
			},
			want: 19,
		},
		{
			name: "pulled forward is negative drift",
			entries: []Entry{
				dueEntry(1, StatusApproved, "2025-03-10", "2025-03-05"),
			},
			want: -5,
		},
		{
			name: "first approval set a due date from nothing",
			entries: []Entry{
				dueEntry(1, StatusApproved, "", "2025-03-01"),
				dueEntry(2, StatusApproved, "2025-03-01", "2025-03-04"),
			},
			want: 3,
		},
		{
			name: "progress notes and other fields are ignored",
			entries: []Entry{
				{Field: FieldUpdate, IsUpdate: true, NewValue: "note", ProposedAt: t0, Seq: 1},
				{Field: FieldAssignedTo, Status: StatusApproved, OldValue: "a", NewValue: "b", ProposedAt: t0, Seq: 2},
				dueEntry(3, StatusApproved, "2025-03-01", "2025-03-02"),
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CumulativeDrift(tt.entries); got != tt.want {
				t.Errorf("CumulativeDrift() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCumulativeDrift_UsesProposalOrderNotInputOrder(t *testing.T) {
	newestFirst := []Entry{
		dueEntry(3, StatusApproved, "2025-03-10", "2025-03-20"),
		dueEntry(1, StatusApproved, "2025-03-01", "2025-03-10"),
	}
	if got := CumulativeDrift(newestFirst); got != 19 {
		t.Errorf("CumulativeDrift() = %d, want 19", got)
	}
}

func TestSortOldestFirst_TieBreaksOnSeq(t *testing.T) {
	same := t0
	entries := []Entry{
		{ID: "B", ProposedAt: same, Seq: 2},
		{ID: "A", ProposedAt: same, Seq: 1},
	}
	sorted := SortOldestFirst(entries)
	if sorted[0].ID != "A" || sorted[1].ID != "B" {
		t.Errorf("order = %s,%s; want A,B", sorted[0].ID, sorted[1].ID)
	}
	if entries[0].ID != "B" {
		t.Error("SortOldestFirst modified its input")
	}
}

func TestOriginalValue(t *testing.T) {
	entries := []Entry{
		{Field: FieldAssignedTo, Status: StatusPending, OldValue: "yasmin", NewValue: "zoe", ProposedAt: t0.Add(2 * time.Hour), Seq: 2},
		{Field: FieldAssignedTo, Status: StatusRejected, OldValue: "xavier", NewValue: "yasmin", ProposedAt: t0.Add(time.Hour), Seq: 1},
	}

	if got := OriginalValue(entries, FieldAssignedTo, "yasmin"); got != "xavier" {
		t.Errorf("OriginalValue(assignedTo) = %q, want xavier", got)
	}
	if got := OriginalValue(entries, FieldDueDate, "2025-03-01"); got != "2025-03-01" {
		t.Errorf("OriginalValue(dueDate) = %q, want current value", got)
	}
}

func TestIsStale(t *testing.T) {
	due := action.NewDate(2025, time.March, 10)
	current := Governed{Status: action.StatusOpen, DueDate: &due, AssignedTo: "yasmin"}

	fresh := Entry{Field: FieldDueDate, Status: StatusPending, OldValue: "2025-03-10", NewValue: "2025-04-01"}
	stale := Entry{Field: FieldDueDate, Status: StatusPending, OldValue: "2025-03-01", NewValue: "2025-04-01"}
	resolved := Entry{Field: FieldDueDate, Status: StatusApproved, OldValue: "2025-03-01", NewValue: "2025-03-10"}

	if IsStale(fresh, current) {
		t.Error("fresh proposal reported stale")
	}
	if !IsStale(stale, current) {
		t.Error("proposal raised against an old due date should be stale")
	}
	if IsStale(resolved, current) {
		t.Error("resolved entries are never stale")
	}
}
