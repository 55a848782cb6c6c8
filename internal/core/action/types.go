// Package action contains the pure business logic for remediation actions.
// This is part of the Functional Core - no I/O, only pure functions.
package action

import (
	"fmt"
	"strings"
)

// Status represents the stored or derived state of an action.
type Status string

const (
	StatusOpen           Status = "OPEN"
	StatusInProgress     Status = "IN_PROGRESS"
	StatusCompleted      Status = "COMPLETED"
	StatusProposedClosed Status = "PROPOSED_CLOSED"

	// StatusOverdue is derived at read time and never persisted.
	StatusOverdue Status = "OVERDUE"
)

// ParseStatus normalises s (case-insensitive, dashes or spaces allowed) into a Status.
func ParseStatus(s string) (Status, error) {
	norm := Status(strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(strings.TrimSpace(s))))
	switch norm {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusProposedClosed, StatusOverdue:
		return norm, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// IsStorable reports whether the status may be written to the action record.
func (s Status) IsStorable() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusProposedClosed:
		return true
	}
	return false
}

// IsActive reports whether work on the action is still expected.
func (s Status) IsActive() bool {
	return s == StatusOpen || s == StatusInProgress
}

// Priority ranks an action; P1 is the most urgent.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// DefaultPriority is used when an action is created without one.
const DefaultPriority = PriorityP2

// ParsePriority normalises s into a Priority.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case PriorityP1, PriorityP2, PriorityP3:
		return p, nil
	}
	return "", fmt.Errorf("unknown priority %q (must be P1, P2 or P3)", s)
}

// SourceType names the register an action was raised against.
type SourceType string

const (
	SourceReport SourceType = "report"
	SourceRisk   SourceType = "risk"
)

// ParseSourceType normalises s into a SourceType. Empty input is allowed.
func ParseSourceType(s string) (SourceType, error) {
	st := SourceType(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case "", SourceReport, SourceRisk:
		return st, nil
	}
	return "", fmt.Errorf("unknown source type %q (must be report or risk)", s)
}

// State is the subset of an action the deriver reads.
type State struct {
	Status  Status
	DueDate *Date
}

// InitialStatus returns the status for a new action when none is requested.
func InitialStatus() Status {
	return StatusOpen
}
