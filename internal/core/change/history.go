package change

import (
	"sort"
	"time"

	"github.com/example/remedy/internal/core/action"
)

// Entry is the view of a ledger row that derivations read.
type Entry struct {
	ID         string
	Field      Field
	OldValue   string
	NewValue   string
	IsUpdate   bool
	Status     Status
	ProposedAt time.Time
	Seq        int64 // insertion order, breaks ProposedAt ties
}

// SortOldestFirst orders entries by ProposedAt, then insertion order.
// The input slice is not modified.
func SortOldestFirst(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].ProposedAt.Equal(sorted[j].ProposedAt) {
			return sorted[i].ProposedAt.Before(sorted[j].ProposedAt)
		}
		return sorted[i].Seq < sorted[j].Seq
	})
	return sorted
}

// CumulativeDrift returns how many days the due date has slipped through
// approved changes: the newest approved new value minus the oldest approved
// old value. Pending and rejected entries are ignored. Snapshots that are
// empty (no due date) are skipped on either end. Zero when nothing applies.
func CumulativeDrift(entries []Entry) int {
	var first, last *action.Date
	for _, e := range SortOldestFirst(entries) {
		if e.IsUpdate || e.Field != FieldDueDate || e.Status != StatusApproved {
			continue
		}
		if first == nil {
			if d, err := action.ParseOptionalDate(e.OldValue); err == nil && d != nil {
				first = d
			}
		}
		if d, err := action.ParseOptionalDate(e.NewValue); err == nil && d != nil {
			last = d
		}
	}
	if first == nil || last == nil {
		return 0
	}
	return last.DaysSince(*first)
}

// OriginalValue returns the old value of the earliest entry proposed for
// field regardless of status, or current when the field has never been
// proposed.
func OriginalValue(entries []Entry, field Field, current string) string {
	for _, e := range SortOldestFirst(entries) {
		if !e.IsUpdate && e.Field == field {
			return e.OldValue
		}
	}
	return current
}

// IsStale reports whether a pending entry's old value no longer matches the
// action, meaning another change landed after it was proposed.
func IsStale(e Entry, current Governed) bool {
	if e.IsUpdate || e.Status != StatusPending || !e.Field.IsGoverned() {
		return false
	}
	return e.OldValue != CurrentValue(e.Field, current)
}
