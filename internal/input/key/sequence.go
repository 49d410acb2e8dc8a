package key

import (
	"strings"
)

// Sequence is an ordered list of key codes.
// Examples: "gg" (go to top), "d3j" (delete three entries down), "<c-w>l".
//
// Sequences are treated as immutable once built; operations that derive a new
// sequence always copy.
type Sequence []rune

// Seq builds a sequence from the code points of s. It does not interpret
// bracket notation; use a Translator for configuration text.
func Seq(s string) Sequence {
	return Sequence([]rune(s))
}

// Len returns the number of codes in the sequence.
func (s Sequence) Len() int {
	return len(s)
}

// IsEmpty returns true if the sequence has no codes.
func (s Sequence) IsEmpty() bool {
	return len(s) == 0
}

// Equals returns true if two sequences are identical code by code.
func (s Sequence) Equals(other Sequence) bool {
	if len(s) != len(other) {
		return false
	}
	for i, c := range s {
		if c != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix returns true if this sequence starts with the given prefix.
func (s Sequence) HasPrefix(prefix Sequence) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i, c := range prefix {
		if c != s[i] {
			return false
		}
	}
	return true
}

// Compare orders sequences code by code; a proper prefix sorts first.
func (s Sequence) Compare(other Sequence) int {
	n := min(len(s), len(other))
	for i := 0; i < n; i++ {
		switch {
		case s[i] < other[i]:
			return -1
		case s[i] > other[i]:
			return 1
		}
	}
	switch {
	case len(s) < len(other):
		return -1
	case len(s) > len(other):
		return 1
	}
	return 0
}

// Clone returns a copy of the sequence.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}

// Concat returns a new sequence holding s followed by each of others.
func (s Sequence) Concat(others ...Sequence) Sequence {
	n := len(s)
	for _, o := range others {
		n += len(o)
	}
	out := make(Sequence, 0, n)
	out = append(out, s...)
	for _, o := range others {
		out = append(out, o...)
	}
	return out
}

// String returns the sequence with special keys spelled out in bracket
// notation. It is meant for display; Translator.Format is the lossless form.
func (s Sequence) String() string {
	var sb strings.Builder
	for _, c := range s {
		if IsSpecial(c) {
			sb.WriteString("<" + Name(c) + ">")
			continue
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

// Key returns a comparable form of the sequence usable as a map key.
func (s Sequence) Key() string {
	var sb strings.Builder
	sb.Grow(len(s) * 4)
	for _, c := range s {
		sb.WriteByte(byte(c >> 24))
		sb.WriteByte(byte(c >> 16))
		sb.WriteByte(byte(c >> 8))
		sb.WriteByte(byte(c))
	}
	return sb.String()
}
