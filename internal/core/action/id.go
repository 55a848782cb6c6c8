package action

import (
	"fmt"
	"strings"
)

// ReferencePrefix prefixes every human-readable action reference.
const ReferencePrefix = "ACT-"

// GenerateReference formats the reference for the given sequence number.
// The format is ACT-XXX where XXX is a zero-padded 3-digit number.
func GenerateReference(seq int) string {
	return fmt.Sprintf("%s%03d", ReferencePrefix, seq)
}

// ParseReferenceNumber extracts the numeric portion from a reference.
// Returns -1 if the reference format is invalid.
func ParseReferenceNumber(ref string) int {
	var num int
	if _, err := fmt.Sscanf(ref, ReferencePrefix+"%d", &num); err != nil {
		return -1
	}
	return num
}

// IsReference reports whether s looks like a human-readable reference rather
// than an internal id.
func IsReference(s string) bool {
	return strings.HasPrefix(strings.ToUpper(s), ReferencePrefix) && ParseReferenceNumber(strings.ToUpper(s)) > 0
}
