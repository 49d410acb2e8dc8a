package vim

import (
	"testing"

	"github.com/dshills/keystroke/internal/input/key"
)

func TestCountState(t *testing.T) {
	t.Run("accumulate digits", func(t *testing.T) {
		c := NewCountState()
		c.AccumulateDigit('1')
		c.AccumulateDigit('2')
		c.AccumulateDigit('3')

		if c.Value != 123 {
			t.Errorf("Value = %d, want 123", c.Value)
		}
		if !c.Active {
			t.Error("Active should be true")
		}
	})

	t.Run("zero not accepted at start", func(t *testing.T) {
		c := NewCountState()
		if c.AccumulateDigit('0') {
			t.Error("'0' at start should not be accepted")
		}
		if c.Active {
			t.Error("Active should be false")
		}
	})

	t.Run("zero accepted after start", func(t *testing.T) {
		c := NewCountState()
		c.AccumulateDigit('1')
		if !c.AccumulateDigit('0') {
			t.Error("'0' after start should be accepted")
		}
		if c.Value != 10 {
			t.Errorf("Value = %d, want 10", c.Value)
		}
	})

	t.Run("non digits rejected", func(t *testing.T) {
		c := NewCountState()
		for _, r := range []rune{'a', '٣', key.KeyHome} {
			if c.AccumulateDigit(r) {
				t.Errorf("AccumulateDigit(%q) accepted", r)
			}
		}
	})

	t.Run("get default", func(t *testing.T) {
		c := NewCountState()
		if c.Get() != 1 {
			t.Errorf("Get() = %d, want 1", c.Get())
		}
	})

	t.Run("multiply", func(t *testing.T) {
		c := NewCountState()
		c.AccumulateDigit('3')
		if got := c.Multiply(4); got != 12 {
			t.Errorf("Multiply(4) = %d, want 12", got)
		}
		if got := c.Multiply(0); got != 3 {
			t.Errorf("Multiply(0) = %d, want 3", got)
		}
	})

	t.Run("reset", func(t *testing.T) {
		c := NewCountState()
		c.AccumulateDigit('7')
		c.Reset()
		if c.Active || c.Value != 0 {
			t.Errorf("after Reset = %+v", *c)
		}
	})

	t.Run("overflow saturates", func(t *testing.T) {
		c := NewCountState()
		for i := 0; i < 40; i++ {
			c.AccumulateDigit('9')
		}
		if c.Value != MaxCount {
			t.Errorf("Value = %d, want MaxCount", c.Value)
		}
	})
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in       string
		count    int
		consumed int
	}{
		{"12j", 12, 2},
		{"10X", 10, 2},
		{"0", 0, 0},
		{"05", 0, 0},
		{"j", 0, 0},
		{"", 0, 0},
		{"7", 7, 1},
		{"100", 100, 3},
	}
	for _, tt := range tests {
		count, consumed := ParseCount(key.Seq(tt.in))
		if count != tt.count || consumed != tt.consumed {
			t.Errorf("ParseCount(%q) = (%d, %d), want (%d, %d)",
				tt.in, count, consumed, tt.count, tt.consumed)
		}
	}
}

func TestCombineCounts(t *testing.T) {
	tests := []struct {
		a, b, want int
	}{
		{2, 3, 6},
		{0, 5, 5},
		{4, 0, 4},
		{0, 0, 1},
		{MaxCount, 2, MaxCount},
	}
	for _, tt := range tests {
		if got := CombineCounts(tt.a, tt.b); got != tt.want {
			t.Errorf("CombineCounts(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCountStartAndDigit(t *testing.T) {
	if IsCountStart('0') {
		t.Error("'0' cannot start a count")
	}
	if !IsCountStart('1') || !IsCountStart('9') {
		t.Error("1-9 start a count")
	}
	if !IsCountDigit('0') || IsCountDigit('x') {
		t.Error("IsCountDigit mismatch")
	}
}

func TestIsValidRegister(t *testing.T) {
	for _, r := range `"_azAZ` {
		if !IsValidRegister(r) {
			t.Errorf("IsValidRegister(%q) = false", r)
		}
	}
	for _, r := range "0-*+ " {
		if IsValidRegister(r) {
			t.Errorf("IsValidRegister(%q) = true", r)
		}
	}
}
