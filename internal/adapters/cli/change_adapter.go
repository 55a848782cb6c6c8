package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/remedy/internal/ports/primary"
)

// ChangeAdapter translates CLI operations to ChangeService calls.
type ChangeAdapter struct {
	service primary.ChangeService
	out     io.Writer
}

// NewChangeAdapter creates a new ChangeAdapter with the given service.
func NewChangeAdapter(service primary.ChangeService, out io.Writer) *ChangeAdapter {
	return &ChangeAdapter{
		service: service,
		out:     out,
	}
}

// Propose records a pending change.
func (a *ChangeAdapter) Propose(ctx context.Context, req primary.ProposeChangeRequest) error {
	c, err := a.service.ProposeChange(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, ok("Proposed %s on %s: %s → %s, awaiting review", c.ID, c.ActionRef, orDash(c.OldValue), orDash(c.NewValue)))
	return nil
}

// Submit routes a change by the caller's authority.
func (a *ChangeAdapter) Submit(ctx context.Context, req primary.ProposeChangeRequest) error {
	resp, err := a.service.SubmitChange(ctx, req)
	if err != nil {
		return err
	}

	switch {
	case resp.Change == nil:
		fmt.Fprintf(a.out, "Action %s %s is already %q, nothing changed\n", req.ActionID, req.Field, req.NewValue)
	case resp.Route == "direct":
		fmt.Fprintln(a.out, ok("Applied %s on %s: %s → %s", resp.Change.ID, resp.Change.ActionRef, orDash(resp.Change.OldValue), orDash(resp.Change.NewValue)))
	default:
		fmt.Fprintln(a.out, ok("Proposed %s on %s: %s → %s, awaiting review", resp.Change.ID, resp.Change.ActionRef, orDash(resp.Change.OldValue), orDash(resp.Change.NewValue)))
	}
	return nil
}

// Note adds a progress note.
func (a *ChangeAdapter) Note(ctx context.Context, req primary.ProgressNoteRequest) error {
	c, err := a.service.AddProgressNote(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, ok("Note %s added to %s", c.ID, c.ActionRef))
	return nil
}

// Resolve approves or rejects a change.
func (a *ChangeAdapter) Resolve(ctx context.Context, changeID, decision, note string) error {
	c, err := a.service.ResolveChange(ctx, primary.ResolveChangeRequest{
		ChangeID: changeID,
		Decision: decision,
		Note:     note,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, ok("Change %s on %s %s", c.ID, c.ActionRef, padStatus(c.Status, 0)))
	return nil
}

// History prints an action's ledger newest-first.
func (a *ChangeAdapter) History(ctx context.Context, actionID string) error {
	changes, err := a.service.History(ctx, actionID)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if len(changes) == 0 {
		fmt.Fprintf(a.out, "No changes recorded for %s\n", actionID)
		return nil
	}

	fmt.Fprintf(a.out, "\n%-9s %-16s %-12s %-9s %-10s %s\n", "ID", "WHEN", "FIELD", "STATUS", "BY", "CHANGE")
	fmt.Fprintln(a.out, rule)
	for _, c := range changes {
		a.printEntry(c)
	}
	fmt.Fprintln(a.out)

	drift, err := a.service.CumulativeDrift(ctx, actionID)
	if err != nil {
		return err
	}
	if drift != 0 {
		fmt.Fprintf(a.out, "Cumulative due-date drift: %+d days\n\n", drift)
	}
	return nil
}

// Pending prints the review queue.
func (a *ChangeAdapter) Pending(ctx context.Context, filters primary.ChangeFilters) error {
	changes, err := a.service.ListPending(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list pending changes: %w", err)
	}

	if len(changes) == 0 {
		fmt.Fprintln(a.out, "No changes awaiting review")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-9s %-9s %-12s %-10s %-16s %s\n", "ID", "ACTION", "FIELD", "BY", "WHEN", "CHANGE")
	fmt.Fprintln(a.out, rule)
	for _, c := range changes {
		stale := ""
		if c.Stale {
			stale = " (stale)"
		}
		fmt.Fprintf(a.out, "%-9s %-9s %-12s %-10s %-16s %s → %s%s\n",
			c.ID, c.ActionRef, c.Field, c.ProposedBy, stamp(c.ProposedAt), orDash(c.OldValue), orDash(c.NewValue), stale)
		if c.Reason != "" {
			fmt.Fprintf(a.out, "          reason: %s\n", c.Reason)
		}
	}
	fmt.Fprintln(a.out)
	return nil
}

func (a *ChangeAdapter) printEntry(c *primary.ActionChange) {
	if c.IsUpdate {
		fmt.Fprintf(a.out, "%-9s %-16s %-12s %-9s %-10s %s\n", c.ID, stamp(c.ProposedAt), "note", "", c.ProposedBy, c.NewValue)
		if c.EvidenceURL != "" {
			fmt.Fprintf(a.out, "          evidence: %s %s\n", orDash(c.EvidenceName), c.EvidenceURL)
		}
		return
	}

	stale := ""
	if c.Stale {
		stale = " (stale)"
	}
	fmt.Fprintf(a.out, "%-9s %-16s %-12s %s %-10s %s → %s%s\n",
		c.ID, stamp(c.ProposedAt), c.Field, padStatus(c.Status, 9), c.ProposedBy, orDash(c.OldValue), orDash(c.NewValue), stale)
	if c.Reason != "" {
		fmt.Fprintf(a.out, "          reason: %s\n", c.Reason)
	}
	if c.ReviewedBy != "" && c.ReviewedBy != c.ProposedBy {
		fmt.Fprintf(a.out, "          reviewed by %s", c.ReviewedBy)
		if c.ReviewNote != "" {
			fmt.Fprintf(a.out, ": %s", c.ReviewNote)
		}
		fmt.Fprintln(a.out)
	}
}
