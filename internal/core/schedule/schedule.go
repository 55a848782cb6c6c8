// Package schedule contains the pure business logic for testing-schedule
// entries, the second entity the bulk coordinator works on.
package schedule

import (
	"fmt"
	"strings"

	"github.com/example/remedy/internal/core/action"
	"github.com/example/remedy/internal/errs"
)

// Status is the life-cycle state of a schedule entry.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// IDPrefix prefixes every schedule entry id.
const IDPrefix = "SCH-"

// GenerateID formats the id for the given sequence number.
func GenerateID(seq int) string {
	return fmt.Sprintf("%s%03d", IDPrefix, seq)
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

// CreateContext provides context for schedule entry creation.
type CreateContext struct {
	Title        string
	ScheduledFor string
}

// CanCreate evaluates whether a schedule entry can be created.
func CanCreate(ctx CreateContext) GuardResult {
	if strings.TrimSpace(ctx.Title) == "" {
		return GuardResult{Reason: "title is required"}
	}
	if strings.TrimSpace(ctx.ScheduledFor) == "" {
		return GuardResult{Reason: "scheduled date is required"}
	}
	if _, err := action.ParseDate(ctx.ScheduledFor); err != nil {
		return GuardResult{Reason: err.Error()}
	}
	return GuardResult{Allowed: true}
}

// ArchiveContext provides context for archiving one entry.
type ArchiveContext struct {
	EntryID string
	Exists  bool
	Status  Status
	Reason  string
}

// CanArchive evaluates whether an entry can be archived.
// Rules:
// - Entry must exist
// - A reason is required
// - Archived entries stay archived
func CanArchive(ctx ArchiveContext) GuardResult {
	if !ctx.Exists {
		return GuardResult{Reason: fmt.Sprintf("schedule entry %s", ctx.EntryID), Kind: errs.ErrNotFound}
	}
	if strings.TrimSpace(ctx.Reason) == "" {
		return GuardResult{Reason: "an archive reason is required"}
	}
	if ctx.Status == StatusArchived {
		return GuardResult{Reason: fmt.Sprintf("schedule entry %s is already archived", ctx.EntryID)}
	}
	return GuardResult{Allowed: true}
}
