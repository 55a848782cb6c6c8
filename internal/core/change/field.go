// Package change contains the pure business logic of the change ledger:
// the closed field set, typed mutations, proposal and resolution guards, and
// the facts derived from an action's change history.
package change

import (
	"strings"

	"github.com/example/remedy/internal/errs"
)

// Field names the attribute of an action an entry is about.
type Field string

const (
	FieldTitle        Field = "title"
	FieldDescription  Field = "description"
	FieldStatus       Field = "status"
	FieldAssignedTo   Field = "assignedTo"
	FieldDueDate      Field = "dueDate"
	FieldSectionTitle Field = "sectionTitle"

	// FieldUpdate marks a free-text progress note rather than a field mutation.
	FieldUpdate Field = "update"
)

// Fields is the closed set, in display order.
var Fields = []Field{FieldTitle, FieldDescription, FieldStatus, FieldAssignedTo, FieldDueDate, FieldSectionTitle, FieldUpdate}

var fieldAliases = map[string]Field{
	"title":        FieldTitle,
	"description":  FieldDescription,
	"status":       FieldStatus,
	"assignedto":   FieldAssignedTo,
	"assigned_to":  FieldAssignedTo,
	"owner":        FieldAssignedTo,
	"duedate":      FieldDueDate,
	"due_date":     FieldDueDate,
	"due":          FieldDueDate,
	"sectiontitle": FieldSectionTitle,
	"section":      FieldSectionTitle,
	"update":       FieldUpdate,
}

// ParseField resolves s (case-insensitive, with a few aliases) to a Field.
func ParseField(s string) (Field, error) {
	if f, ok := fieldAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f, nil
	}
	return "", errs.InvalidField("field %q is not one of title, description, status, assignedTo, dueDate, sectionTitle, update", s)
}

// IsGoverned reports whether changes to the field require review unless
// made directly by a reviewer.
func (f Field) IsGoverned() bool {
	switch f {
	case FieldStatus, FieldAssignedTo, FieldDueDate:
		return true
	}
	return false
}

// fieldRules holds per-field proposal validation.
var fieldRules = map[Field]struct {
	reasonRequired bool
}{
	FieldStatus:     {reasonRequired: true},
	FieldAssignedTo: {reasonRequired: true},
	FieldDueDate:    {reasonRequired: true},
}

// RequiresReason reports whether a proposal against the field must carry
// free-text context.
func (f Field) RequiresReason() bool {
	return fieldRules[f].reasonRequired
}
