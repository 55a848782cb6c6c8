package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/remedy/internal/ports/primary"
)

// ActionAdapter is a thin adapter that translates CLI operations to ActionService calls.
// It depends only on the ActionService interface, enabling easy testing with mocks.
type ActionAdapter struct {
	service primary.ActionService
	out     io.Writer
}

// NewActionAdapter creates a new ActionAdapter with the given service.
func NewActionAdapter(service primary.ActionService, out io.Writer) *ActionAdapter {
	return &ActionAdapter{
		service: service,
		out:     out,
	}
}

// Create creates a new action.
func (a *ActionAdapter) Create(ctx context.Context, req primary.CreateActionRequest) error {
	resp, err := a.service.CreateAction(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, ok("Created action %s: %s", resp.ActionID, resp.Action.Title))
	return nil
}

// List lists actions, most urgent first.
func (a *ActionAdapter) List(ctx context.Context, filters primary.ActionFilters) error {
	actions, err := a.service.ListActions(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list actions: %w", err)
	}

	if len(actions) == 0 {
		fmt.Fprintln(a.out, "No actions found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-9s %-16s %-7s %-11s %-10s %-12s %-3s %s\n",
		"ID", "STATUS", "URGENCY", "DUE", "IN", "OWNER", "PR", "TITLE")
	fmt.Fprintln(a.out, rule)
	for _, v := range actions {
		marker := ""
		if v.ApprovalStatus == primary.ApprovalPendingReview {
			marker = fmt.Sprintf(" [%d pending]", v.PendingChanges)
		}
		fmt.Fprintf(a.out, "%-9s %s %s %-11s %-10s %-12s %-3s %s%s\n",
			v.Reference,
			padStatus(v.EffectiveStatus, 16),
			padUrgency(v.Urgency, 7),
			orDash(v.DueDate),
			daysText(v.DaysUntilDue),
			orDash(v.AssignedTo),
			v.Priority,
			v.Title,
			marker)
	}
	fmt.Fprintln(a.out)

	return nil
}

// Show displays one action with its derived fields.
func (a *ActionAdapter) Show(ctx context.Context, actionID string) (*primary.ActionView, error) {
	v, err := a.service.GetAction(ctx, actionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get action: %w", err)
	}

	fmt.Fprintf(a.out, "\nAction:   %s\n", v.Reference)
	fmt.Fprintf(a.out, "Title:    %s\n", v.Title)
	fmt.Fprintf(a.out, "Status:   %s", padStatus(v.EffectiveStatus, 0))
	if v.EffectiveStatus != v.Status {
		fmt.Fprintf(a.out, " (stored %s)", v.Status)
	}
	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "Priority: %s\n", v.Priority)
	fmt.Fprintf(a.out, "Owner:    %s\n", orDash(v.AssignedTo))
	fmt.Fprintf(a.out, "Due:      %s (%s, %s)\n", orDash(v.DueDate), daysText(v.DaysUntilDue), padUrgency(v.Urgency, 0))
	if v.Drift != 0 {
		fmt.Fprintf(a.out, "Drift:    %+d days since %s\n", v.Drift, orDash(v.OriginalDueDate))
	}
	if v.OriginalOwner != "" && v.OriginalOwner != v.AssignedTo {
		fmt.Fprintf(a.out, "Original owner: %s\n", v.OriginalOwner)
	}
	if v.ApprovalStatus == primary.ApprovalPendingReview {
		fmt.Fprintf(a.out, "Review:   %d change(s) pending\n", v.PendingChanges)
	}
	if v.SourceType != "" {
		fmt.Fprintf(a.out, "Source:   %s %s\n", v.SourceType, v.SourceRef)
	}
	if v.SectionTitle != "" {
		fmt.Fprintf(a.out, "Section:  %s\n", v.SectionTitle)
	}
	if v.Description != "" {
		fmt.Fprintf(a.out, "Description: %s\n", v.Description)
	}
	if v.IssueDescription != "" {
		fmt.Fprintf(a.out, "Issue:    %s\n", v.IssueDescription)
	}
	fmt.Fprintf(a.out, "Created:  %s by %s\n", stamp(v.CreatedAt), v.CreatedBy)
	fmt.Fprintln(a.out)

	return v, nil
}

// Edit writes a field directly.
func (a *ActionAdapter) Edit(ctx context.Context, req primary.EditActionRequest) error {
	change, err := a.service.EditAction(ctx, req)
	if err != nil {
		return err
	}
	if change == nil {
		fmt.Fprintf(a.out, "Action %s %s is already %q, nothing changed\n", req.ActionID, req.Field, req.Value)
		return nil
	}

	fmt.Fprintln(a.out, ok("Action %s %s: %s → %s (%s)", change.ActionRef, change.Field, orDash(change.OldValue), orDash(change.NewValue), change.ID))
	return nil
}

// SetIssue replaces the issue description.
func (a *ActionAdapter) SetIssue(ctx context.Context, actionID, text string) error {
	if err := a.service.SetIssueDescription(ctx, primary.SetIssueDescriptionRequest{ActionID: actionID, Text: text}); err != nil {
		return err
	}

	fmt.Fprintln(a.out, ok("Action %s issue description updated", actionID))
	return nil
}

// Close requests closure of an action.
func (a *ActionAdapter) Close(ctx context.Context, actionID string) error {
	if err := a.service.RequestClosure(ctx, actionID); err != nil {
		return err
	}

	fmt.Fprintln(a.out, ok("Action %s proposed for closure", actionID))
	return nil
}

// Delete deletes an action.
func (a *ActionAdapter) Delete(ctx context.Context, actionID string) error {
	// Get action details before deleting (for output)
	v, err := a.service.GetAction(ctx, actionID)
	if err != nil {
		return fmt.Errorf("failed to get action: %w", err)
	}

	if err := a.service.DeleteAction(ctx, actionID); err != nil {
		return err
	}

	fmt.Fprintln(a.out, ok("Deleted action %s: %s", v.Reference, v.Title))
	return nil
}
