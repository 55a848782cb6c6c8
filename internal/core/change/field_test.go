package change

import (
	"errors"
	"testing"

	"github.com/example/remedy/internal/errs"
)

func TestParseField(t *testing.T) {
	tests := []struct {
		in   string
		want Field
	}{
		{"dueDate", FieldDueDate},
		{"due_date", FieldDueDate},
		{"OWNER", FieldAssignedTo},
		{"assignedTo", FieldAssignedTo},
		{"status", FieldStatus},
		{"section", FieldSectionTitle},
		{"update", FieldUpdate},
	}
	for _, tt := range tests {
		got, err := ParseField(tt.in)
		if err != nil {
			t.Errorf("ParseField(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseField(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseField("priority"); !errors.Is(err, errs.ErrInvalidField) {
		t.Errorf("ParseField(priority) error = %v, want ErrInvalidField", err)
	}
}

func TestGovernedFieldSet(t *testing.T) {
	governed := map[Field]bool{}
	for _, f := range Fields {
		if f.IsGoverned() {
			governed[f] = true
			if !f.RequiresReason() {
				t.Errorf("governed field %s should require a reason", f)
			}
		}
	}
	if len(governed) != 3 || !governed[FieldDueDate] || !governed[FieldAssignedTo] || !governed[FieldStatus] {
		t.Errorf("governed set = %v, want dueDate, assignedTo, status", governed)
	}
}

func TestParseResolution(t *testing.T) {
	if s, err := ParseResolution("approve"); err != nil || s != StatusApproved {
		t.Errorf("ParseResolution(approve) = %s, %v", s, err)
	}
	if s, err := ParseResolution("REJECTED"); err != nil || s != StatusRejected {
		t.Errorf("ParseResolution(REJECTED) = %s, %v", s, err)
	}
	if _, err := ParseResolution("pending"); !errors.Is(err, errs.ErrValidationFailed) {
		t.Errorf("ParseResolution(pending) error = %v, want ErrValidationFailed", err)
	}
}
