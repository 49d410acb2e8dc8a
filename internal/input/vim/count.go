package vim

import (
	"math"

	"github.com/dshills/keystroke/internal/input/key"
)

// MaxCount is the largest count AccumulateDigit produces; longer digit
// runs are capped instead of overflowing.
const MaxCount = math.MaxInt / 10

// CountState tracks count prefix accumulation during matching.
type CountState struct {
	// Value is the accumulated count value.
	Value int

	// Active indicates if a count is being accumulated.
	Active bool
}

// NewCountState creates a new count state.
func NewCountState() *CountState {
	return &CountState{}
}

// Reset clears the count state.
func (c *CountState) Reset() {
	c.Value = 0
	c.Active = false
}

// AccumulateDigit adds a digit to the count.
// Returns true if the digit was accepted.
// Only accepts ASCII digits 0-9.
func (c *CountState) AccumulateDigit(r rune) bool {
	// Only accept ASCII digits for consistency with keyboard input
	if r < '0' || r > '9' {
		return false
	}

	digit := int(r - '0')

	// '0' at the start is not a count, it is a key of its own
	if !c.Active && digit == 0 {
		return false
	}

	c.Active = true

	if c.Value > (MaxCount-digit)/10 {
		c.Value = MaxCount
		return true
	}

	c.Value = c.Value*10 + digit
	return true
}

// Get returns the effective count (1 if no count was specified).
func (c *CountState) Get() int {
	if c.Value <= 0 {
		return 1
	}
	return c.Value
}

// Multiply multiplies two counts, handling the case where one or both
// might be zero (meaning 1).
func (c *CountState) Multiply(other int) int {
	count := c.Get()
	if other <= 0 {
		other = 1
	}
	return count * other
}

// IsCountStart returns true if the character could start a count.
// '0' cannot start a count.
func IsCountStart(r rune) bool {
	return r >= '1' && r <= '9'
}

// IsCountDigit returns true if the character is a digit valid in a count.
func IsCountDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// ParseCount reads a count from the start of seq.
// It returns the count and the number of codes consumed; consumed is 0 when
// seq does not start with a count. A run that reaches the end of seq is
// still returned, callers decide whether more digits may follow.
func ParseCount(seq key.Sequence) (count int, consumed int) {
	var c CountState
	for _, r := range seq {
		if !c.AccumulateDigit(r) {
			break
		}
		consumed++
	}
	return c.Value, consumed
}

// CombineCounts multiplies two counts together with overflow protection.
// This is used when both a count before an action and a count before its
// selector exist: "2d3j" deletes 6 entries.
func CombineCounts(count1, count2 int) int {
	if count1 <= 0 {
		count1 = 1
	}
	if count2 <= 0 {
		count2 = 1
	}

	if count1 > MaxCount/count2 {
		return MaxCount
	}
	return count1 * count2
}

// IsValidRegister reports whether name may follow '"' as a register name.
func IsValidRegister(name rune) bool {
	switch {
	case name == '"', name == '_':
		return true
	case name >= 'a' && name <= 'z':
		return true
	case name >= 'A' && name <= 'Z':
		return true
	default:
		return false
	}
}
