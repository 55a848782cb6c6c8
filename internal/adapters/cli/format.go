// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing, output formatting,
// but delegate business logic to services.
package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

const rule = "────────────────────────────────────────────────────────────────────────────"

// padStatus pads before colouring so column widths survive escape codes.
func padStatus(status string, width int) string {
	cell := fmt.Sprintf("%-*s", width, status)
	switch status {
	case "OVERDUE", "REJECTED":
		return color.New(color.FgRed).Sprint(cell)
	case "COMPLETED", "APPROVED":
		return color.New(color.FgGreen).Sprint(cell)
	case "PENDING", "PROPOSED_CLOSED":
		return color.New(color.FgYellow).Sprint(cell)
	}
	return cell
}

func padUrgency(band string, width int) string {
	cell := fmt.Sprintf("%-*s", width, band)
	switch band {
	case "late":
		return color.New(color.FgRed, color.Bold).Sprint(cell)
	case "soon":
		return color.New(color.FgYellow).Sprint(cell)
	}
	return cell
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func daysText(days *int) string {
	switch {
	case days == nil:
		return "-"
	case *days < 0:
		return fmt.Sprintf("%dd late", -*days)
	case *days == 0:
		return "due today"
	}
	return fmt.Sprintf("%dd", *days)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func ok(format string, args ...any) string {
	return color.New(color.FgGreen).Sprint("✓") + " " + fmt.Sprintf(format, args...)
}
