package mode

import (
	"errors"
	"testing"
)

func TestDefaultSet(t *testing.T) {
	s := DefaultSet()

	tests := []struct {
		name  string
		flags Flags
	}{
		{Normal, UsesCount | UsesRegs},
		{Visual, UsesCount | UsesRegs},
		{Cmdline, UsesInput},
		{View, UsesCount},
		{Menu, UsesCount},
	}
	for _, tt := range tests {
		m, ok := s.Get(tt.name)
		if !ok {
			t.Errorf("Get(%q) not found", tt.name)
			continue
		}
		if m.Flags != tt.flags {
			t.Errorf("%s flags = %v, want %v", tt.name, m.Flags, tt.flags)
		}
	}
	if s.Len() != 5 {
		t.Errorf("Len() = %d, want 5", s.Len())
	}
	if names := s.Names(); names[0] != Normal {
		t.Errorf("Names()[0] = %q, want %q", names[0], Normal)
	}
}

func TestNewSetRejectsDuplicates(t *testing.T) {
	_, err := NewSet(Mode{Name: "a"}, Mode{Name: "a"})
	if !errors.Is(err, ErrDuplicateMode) {
		t.Errorf("NewSet error = %v, want ErrDuplicateMode", err)
	}
	_, err = NewSet(Mode{})
	if err == nil {
		t.Error("NewSet should reject an empty name")
	}
}

func TestSetLookupUnknown(t *testing.T) {
	s := DefaultSet()
	if _, err := s.Lookup("insert"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("Lookup(insert) error = %v, want ErrUnknownMode", err)
	}
}

func TestModeHas(t *testing.T) {
	m := Mode{Name: "x", Flags: UsesCount | UsesRegs}
	if !m.Has(UsesCount) || !m.Has(UsesCount|UsesRegs) {
		t.Error("Has should report set flags")
	}
	if m.Has(UsesInput) || m.Has(UsesCount|UsesInput) {
		t.Error("Has should require every flag")
	}
}

func TestFlagsString(t *testing.T) {
	tests := []struct {
		f    Flags
		want string
	}{
		{0, "none"},
		{UsesCount, "count"},
		{UsesCount | UsesRegs, "count|regs"},
		{UsesInput, "input"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("Flags(%d).String() = %q, want %q", tt.f, got, tt.want)
		}
	}
}
