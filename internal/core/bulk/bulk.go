// Package bulk contains the pure rules of the bulk operation coordinator:
// which batches may start and how per-item outcomes are counted.
package bulk

import (
	"fmt"
	"strings"

	"github.com/example/remedy/internal/errs"
)

// Operation is the single governed operation a batch applies.
type Operation string

const (
	OpReassign Operation = "reassign"
	OpComplete Operation = "complete"
	OpArchive  Operation = "archive" // schedule entries
)

// ParseOperation validates an operation name.
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(s))); op {
	case OpReassign, OpComplete, OpArchive:
		return op, nil
	}
	return "", errs.Validation("unknown bulk operation %q (must be reassign, complete or archive)", s)
}

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	Kind    error
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	kind := r.Kind
	if kind == nil {
		kind = errs.ErrValidationFailed
	}
	return fmt.Errorf("%s: %w", r.Reason, kind)
}

// StartContext provides context for the batch start guard.
type StartContext struct {
	ActorID   string
	CanBulk   bool
	Operation Operation
	IDs       []string
	NewOwner  string
	Reason    string
}

// CanStartBatch evaluates whether a batch may start. Nothing is touched when
// it fails.
// Rules:
// - The caller must hold the bulk permission
// - The id set must not be empty
// - Reassign needs a new owner
// - Archive needs a non-empty reason
func CanStartBatch(ctx StartContext) GuardResult {
	if ctx.ActorID == "" || !ctx.CanBulk {
		who := ctx.ActorID
		if who == "" {
			who = "anonymous caller"
		}
		return GuardResult{Reason: fmt.Sprintf("%s may not run bulk %s", who, ctx.Operation), Kind: errs.ErrUnauthorised}
	}
	if len(Normalise(ctx.IDs)) == 0 {
		return GuardResult{Reason: "no ids selected"}
	}
	switch ctx.Operation {
	case OpReassign:
		if strings.TrimSpace(ctx.NewOwner) == "" {
			return GuardResult{Reason: "bulk reassign needs a new owner"}
		}
	case OpArchive:
		if strings.TrimSpace(ctx.Reason) == "" {
			return GuardResult{Reason: "bulk archive needs a reason"}
		}
	case OpComplete:
	default:
		return GuardResult{Reason: fmt.Sprintf("unknown bulk operation %q", ctx.Operation)}
	}
	return GuardResult{Allowed: true}
}

// Normalise trims ids, drops blanks and removes duplicates, keeping first
// occurrence order.
func Normalise(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Counters is the aggregate state of a batch.
type Counters struct {
	Total     int
	Completed int
	Failed    int
}

// Record returns the counters after one more item finished. Counts never
// exceed Total.
func (c Counters) Record(err error) Counters {
	if c.Done() {
		return c
	}
	if err != nil {
		c.Failed++
	} else {
		c.Completed++
	}
	return c
}

// Done reports whether every item has an outcome.
func (c Counters) Done() bool {
	return c.Completed+c.Failed >= c.Total
}

// Succeeded reports whether the batch finished without failures.
func (c Counters) Succeeded() bool {
	return c.Done() && c.Failed == 0
}
