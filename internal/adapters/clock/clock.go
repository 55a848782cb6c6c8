// Package clock provides Clock implementations.
package clock

import (
	"time"

	"github.com/example/remedy/internal/ports/secondary"
)

// Real reads the system clock.
type Real struct{}

// Now returns the current UTC time.
func (Real) Now() time.Time { return time.Now().UTC() }

// Fixed always returns the same instant. Used by `--at` and in tests.
type Fixed struct {
	At time.Time
}

// Now returns the fixed instant.
func (f Fixed) Now() time.Time { return f.At }

var (
	_ secondary.Clock = Real{}
	_ secondary.Clock = Fixed{}
)
