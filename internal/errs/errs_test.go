package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestConstructorsWrapSentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
		msg  string
	}{
		{"not found", NotFound("action %s", "ACT-001"), ErrNotFound, "action ACT-001: not found"},
		{"invalid field", InvalidField("field %q", "colour"), ErrInvalidField, `field "colour": invalid field`},
		{"immutable", ImmutableField("dueDate requires a proposal"), ErrImmutableField, "dueDate requires a proposal: immutable field"},
		{"unauthorised", Unauthorised("alice cannot resolve"), ErrUnauthorised, "alice cannot resolve: unauthorised"},
		{"not pending", NotPending("change %s", "CHG-001"), ErrNotPending, "change CHG-001: not pending"},
		{"validation", Validation("reason is required"), ErrValidationFailed, "reason is required: validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.want)
			}
			if tt.err.Error() != tt.msg {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.msg)
			}
			if Kind(tt.err) != tt.want {
				t.Errorf("Kind() = %v, want %v", Kind(tt.err), tt.want)
			}
		})
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("failed to resolve change: %w", NotPending("change CHG-002"))
	if Kind(err) != ErrNotPending {
		t.Errorf("Kind() = %v, want ErrNotPending", Kind(err))
	}
	if Kind(errors.New("disk full")) != nil {
		t.Error("Kind() of a foreign error should be nil")
	}
}
