package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/remedy/internal/ports/primary"
)

// ScheduleAdapter translates CLI operations to ScheduleService calls.
type ScheduleAdapter struct {
	service primary.ScheduleService
	out     io.Writer
}

// NewScheduleAdapter creates a new ScheduleAdapter with the given service.
func NewScheduleAdapter(service primary.ScheduleService, out io.Writer) *ScheduleAdapter {
	return &ScheduleAdapter{
		service: service,
		out:     out,
	}
}

// Create creates a schedule entry.
func (a *ScheduleAdapter) Create(ctx context.Context, req primary.CreateScheduleEntryRequest) error {
	entry, err := a.service.CreateScheduleEntry(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, ok("Created schedule entry %s: %s on %s", entry.ID, entry.Title, entry.ScheduledFor))
	return nil
}

// List lists schedule entries.
func (a *ScheduleAdapter) List(ctx context.Context, status string) error {
	entries, err := a.service.ListScheduleEntries(ctx, primary.ScheduleFilters{Status: status})
	if err != nil {
		return fmt.Errorf("failed to list schedule entries: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No schedule entries found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-9s %-10s %-11s %-10s %s\n", "ID", "STATUS", "DATE", "CONTROL", "TITLE")
	fmt.Fprintln(a.out, rule)
	for _, e := range entries {
		fmt.Fprintf(a.out, "%-9s %-10s %-11s %-10s %s\n", e.ID, e.Status, e.ScheduledFor, orDash(e.ControlRef), e.Title)
		if e.ArchiveReason != "" {
			fmt.Fprintf(a.out, "          archived by %s: %s\n", e.ArchivedBy, e.ArchiveReason)
		}
	}
	fmt.Fprintln(a.out)
	return nil
}

// Archive archives one entry.
func (a *ScheduleAdapter) Archive(ctx context.Context, entryID, reason string) error {
	if err := a.service.ArchiveScheduleEntry(ctx, entryID, reason); err != nil {
		return err
	}

	fmt.Fprintln(a.out, ok("Schedule entry %s archived", entryID))
	return nil
}
