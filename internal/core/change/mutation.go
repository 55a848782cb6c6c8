package change

import (
	"fmt"
	"strings"

	"github.com/example/remedy/internal/core/action"
	"github.com/example/remedy/internal/errs"
)

// Governed is the part of an action that only changes through the ledger
// or a reviewer's direct edit.
type Governed struct {
	Status     action.Status
	DueDate    *action.Date
	AssignedTo string
}

// Mutation is a typed governed-field change. The concrete types are
// DueDateChange, OwnerChange and StatusChange.
type Mutation interface {
	Field() Field
	OldValue() string
	NewValue() string
	isMutation()
}

// DueDateChange moves or clears the due date.
type DueDateChange struct {
	Old, New *action.Date
}

// OwnerChange reassigns the action.
type OwnerChange struct {
	Old, New string
}

// StatusChange moves the stored status.
type StatusChange struct {
	Old, New action.Status
}

func (DueDateChange) Field() Field       { return FieldDueDate }
func (c DueDateChange) OldValue() string { return action.FormatOptionalDate(c.Old) }
func (c DueDateChange) NewValue() string { return action.FormatOptionalDate(c.New) }
func (DueDateChange) isMutation()        {}

func (OwnerChange) Field() Field       { return FieldAssignedTo }
func (c OwnerChange) OldValue() string { return c.Old }
func (c OwnerChange) NewValue() string { return c.New }
func (OwnerChange) isMutation()        {}

func (StatusChange) Field() Field       { return FieldStatus }
func (c StatusChange) OldValue() string { return string(c.Old) }
func (c StatusChange) NewValue() string { return string(c.New) }
func (StatusChange) isMutation()        {}

// Build validates newValue for field against the current governed state and
// returns the typed mutation. The old value is captured from current.
func Build(field Field, current Governed, newValue string) (Mutation, error) {
	newValue = strings.TrimSpace(newValue)
	switch field {
	case FieldDueDate:
		due, err := action.ParseOptionalDate(newValue)
		if err != nil {
			return nil, errs.Validation("%v", err)
		}
		return DueDateChange{Old: current.DueDate, New: due}, nil
	case FieldAssignedTo:
		if newValue == "" {
			return nil, errs.Validation("assignedTo needs a new owner")
		}
		return OwnerChange{Old: current.AssignedTo, New: newValue}, nil
	case FieldStatus:
		status, err := action.ParseStatus(newValue)
		if err != nil {
			return nil, errs.Validation("%v", err)
		}
		return StatusChange{Old: current.Status, New: status}, nil
	}
	if _, err := ParseField(string(field)); err != nil {
		return nil, err
	}
	return nil, errs.ImmutableField("%s is not a governed field", field)
}

// Decode rebuilds the typed mutation from stored string snapshots.
func Decode(field Field, oldValue, newValue string) (Mutation, error) {
	switch field {
	case FieldDueDate:
		oldDue, err := action.ParseOptionalDate(oldValue)
		if err != nil {
			return nil, fmt.Errorf("bad old dueDate snapshot: %w", err)
		}
		newDue, err := action.ParseOptionalDate(newValue)
		if err != nil {
			return nil, fmt.Errorf("bad new dueDate snapshot: %w", err)
		}
		return DueDateChange{Old: oldDue, New: newDue}, nil
	case FieldAssignedTo:
		return OwnerChange{Old: oldValue, New: newValue}, nil
	case FieldStatus:
		var oldStatus action.Status
		if oldValue != "" {
			s, err := action.ParseStatus(oldValue)
			if err != nil {
				return nil, fmt.Errorf("bad old status snapshot: %w", err)
			}
			oldStatus = s
		}
		newStatus, err := action.ParseStatus(newValue)
		if err != nil {
			return nil, fmt.Errorf("bad new status snapshot: %w", err)
		}
		return StatusChange{Old: oldStatus, New: newStatus}, nil
	}
	return nil, errs.ImmutableField("%s is not a governed field", field)
}

// Apply returns the governed state after m.
func Apply(current Governed, m Mutation) Governed {
	next := current
	switch c := m.(type) {
	case DueDateChange:
		next.DueDate = c.New
	case OwnerChange:
		next.AssignedTo = c.New
	case StatusChange:
		next.Status = c.New
	}
	return next
}

// CurrentValue renders the snapshot string of field in current.
func CurrentValue(field Field, current Governed) string {
	switch field {
	case FieldDueDate:
		return action.FormatOptionalDate(current.DueDate)
	case FieldAssignedTo:
		return current.AssignedTo
	case FieldStatus:
		return string(current.Status)
	}
	return ""
}

// IsNoop reports whether m leaves the governed state unchanged.
func IsNoop(m Mutation) bool {
	return m.OldValue() == m.NewValue()
}
