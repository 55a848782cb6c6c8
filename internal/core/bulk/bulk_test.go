package bulk

import (
	"errors"
	"testing"

	"github.com/example/remedy/internal/errs"
)

func TestCanStartBatch(t *testing.T) {
	tests := []struct {
		name     string
		ctx      StartContext
		wantKind error
	}{
		{
			name: "reassign",
			ctx:  StartContext{ActorID: "rita", CanBulk: true, Operation: OpReassign, IDs: []string{"ACT-001"}, NewOwner: "yasmin"},
		},
		{
			name: "complete",
			ctx:  StartContext{ActorID: "rita", CanBulk: true, Operation: OpComplete, IDs: []string{"ACT-001", "ACT-002"}},
		},
		{
			name: "archive with reason",
			ctx:  StartContext{ActorID: "rita", CanBulk: true, Operation: OpArchive, IDs: []string{"SCH-001"}, Reason: "control retired"},
		},
		{
			name:     "requester cannot run batches",
			ctx:      StartContext{ActorID: "quinn", Operation: OpComplete, IDs: []string{"ACT-001"}},
			wantKind: errs.ErrUnauthorised,
		},
		{
			name:     "anonymous",
			ctx:      StartContext{CanBulk: true, Operation: OpComplete, IDs: []string{"ACT-001"}},
			wantKind: errs.ErrUnauthorised,
		},
		{
			name:     "archive without reason",
			ctx:      StartContext{ActorID: "rita", CanBulk: true, Operation: OpArchive, IDs: []string{"SCH-001"}, Reason: "   "},
			wantKind: errs.ErrValidationFailed,
		},
		{
			name:     "reassign without owner",
			ctx:      StartContext{ActorID: "rita", CanBulk: true, Operation: OpReassign, IDs: []string{"ACT-001"}},
			wantKind: errs.ErrValidationFailed,
		},
		{
			name:     "empty selection",
			ctx:      StartContext{ActorID: "rita", CanBulk: true, Operation: OpComplete, IDs: []string{"", " "}},
			wantKind: errs.ErrValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanStartBatch(tt.ctx).Error()
			if tt.wantKind == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantKind) {
				t.Errorf("error = %v, want %v", err, tt.wantKind)
			}
		})
	}
}

func TestNormalise(t *testing.T) {
	got := Normalise([]string{"ACT-002", " ACT-001", "ACT-002", "", "ACT-003"})
	want := []string{"ACT-002", "ACT-001", "ACT-003"}
	if len(got) != len(want) {
		t.Fatalf("Normalise() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Normalise()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCounters(t *testing.T) {
	c := Counters{Total: 3}
	for _, err := range []error{nil, errors.New("gone"), nil, nil} {
		next := c.Record(err)
		if next.Completed+next.Failed < c.Completed+c.Failed {
			t.Fatal("counters decreased")
		}
		if next.Completed+next.Failed > next.Total {
			t.Fatalf("counters exceed total: %+v", next)
		}
		c = next
	}
	if c.Completed != 2 || c.Failed != 1 {
		t.Errorf("counters = %+v, want 2 completed 1 failed", c)
	}
	if c.Succeeded() {
		t.Error("a batch with failures did not succeed")
	}
	if !(Counters{Total: 2, Completed: 2}).Succeeded() {
		t.Error("a clean batch should succeed")
	}
	if (Counters{Total: 2, Completed: 1}).Succeeded() {
		t.Error("an unfinished batch has not succeeded")
	}
}
