package change

import (
	"strings"

	"github.com/example/remedy/internal/errs"
)

// Status is the life-cycle state of a governed entry. Progress notes carry
// the empty status.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// IsTerminal reports whether the status can no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ParseResolution accepts approve/approved/reject/rejected in any case.
func ParseResolution(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve", "approved":
		return StatusApproved, nil
	case "reject", "rejected":
		return StatusRejected, nil
	}
	return "", errs.Validation("resolution %q must be APPROVED or REJECTED", s)
}

// ParseStatus validates a stored or filter status. Empty input is allowed.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case "", StatusPending, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", errs.Validation("unknown change status %q", s)
}
