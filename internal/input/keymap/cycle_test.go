package keymap

import (
	"errors"
	"testing"

	"github.com/dshills/keystroke/internal/input/key"
	"github.com/dshills/keystroke/internal/input/mode"
)

func TestRemapCycleRejected(t *testing.T) {
	tests := []struct {
		name  string
		setup [][2]string
		lhs   string
		rhs   string
	}{
		{"self", nil, "A", "A"},
		{"direct", [][2]string{{"A", "B"}}, "B", "A"},
		{"chain", [][2]string{{"A", "B"}, {"B", "C"}}, "C", "A"},
		{"through count", [][2]string{{"A", "3B"}}, "B", "A"},
		{"through register", [][2]string{{"A", `"aB`}}, "B", "2A"},
		{"later in rhs", [][2]string{{"A", "jB"}}, "B", "kkA"},
		{"after selector", [][2]string{{"A", "djB"}}, "B", "A"},
		{"after multikey", [][2]string{{"A", "maB"}}, "B", "A"},
		{"longer lhs", [][2]string{{"hi", "x"}}, "x", "hi"},
		{"through trailing keys", [][2]string{{"a", "b"}}, "bc", "ac"},
		{"trailing keys registered first", [][2]string{{"bc", "ac"}}, "a", "b"},
		{"trailing keys after harmless remap", [][2]string{{"B", "j"}, {"C", "A"}}, "A", "BC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			for _, m := range tt.setup {
				if err := s.AddUser(mode.Normal, key.Seq(m[0]), key.Seq(m[1]), 0); err != nil {
					t.Fatalf("AddUser(%s -> %s) error = %v", m[0], m[1], err)
				}
			}
			before := s.Count(mode.Normal, OriginUser)

			err := s.AddUser(mode.Normal, key.Seq(tt.lhs), key.Seq(tt.rhs), 0)
			if !errors.Is(err, ErrRemapCycle) {
				t.Fatalf("AddUser(%s -> %s) error = %v, want ErrRemapCycle", tt.lhs, tt.rhs, err)
			}
			if s.Count(mode.Normal, OriginUser) != before {
				t.Error("rejected mapping changed the store")
			}
		})
	}
}

func TestRemapCycleRollbackRestoresReplacedBinding(t *testing.T) {
	s := newTestStore(t)
	_ = s.AddUser(mode.Normal, key.Seq("A"), key.Seq("B"), 0)
	_ = s.AddUser(mode.Normal, key.Seq("B"), key.Seq("j"), 0)

	if err := s.AddUser(mode.Normal, key.Seq("B"), key.Seq("A"), 0); !errors.Is(err, ErrRemapCycle) {
		t.Fatalf("error = %v, want ErrRemapCycle", err)
	}
	res, _ := s.Lookup(mode.Normal, key.Seq("B"))
	if res.Binding == nil || !res.Binding.RHS.Equals(key.Seq("j")) {
		t.Errorf("B = %+v, want the original B -> j", res.Binding)
	}
}

func TestRemapWithoutCycleAccepted(t *testing.T) {
	tests := []struct {
		name  string
		setup [][2]string
		lhs   string
		rhs   string
	}{
		{"chain to builtin", [][2]string{{"A", "B"}, {"B", "gg"}}, "C", "A"},
		{"noremap self", nil, "j", "jj"},
		{"empty rhs", nil, "Q", ""},
		{"prefix chain", [][2]string{{"hi", "j"}}, "hi2", "hi"},
		{"unbound keys", nil, "A", "qqq"},
		{"completed by typed keys", [][2]string{{"a", "b"}}, "bc", "jc"},
		{"trailing keys reach builtin", [][2]string{{"a", "b"}, {"bc", "j"}}, "x", "ac"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			for _, m := range tt.setup {
				if err := s.AddUser(mode.Normal, key.Seq(m[0]), key.Seq(m[1]), 0); err != nil {
					t.Fatalf("AddUser(%s -> %s) error = %v", m[0], m[1], err)
				}
			}
			flags := Flags(0)
			if tt.name == "noremap self" {
				flags = NoRemap
			}
			if err := s.AddUser(mode.Normal, key.Seq(tt.lhs), key.Seq(tt.rhs), flags); err != nil {
				t.Errorf("AddUser(%s -> %s) error = %v", tt.lhs, tt.rhs, err)
			}
		})
	}
}

func TestForeignBindingsIgnoredByCycleCheck(t *testing.T) {
	s := newTestStore(t)
	_ = s.AddUser(mode.Normal, key.Seq("X"), key.Seq("Y"), 0)
	_ = s.AddForeign(mode.Normal, Binding{Keys: key.Seq("Y"), Handler: nop}, false)

	// Y -> X would loop once the foreign Y goes away.
	if err := s.AddUser(mode.Normal, key.Seq("Y"), key.Seq("X"), 0); !errors.Is(err, ErrRemapCycle) {
		t.Errorf("error = %v, want ErrRemapCycle", err)
	}
}
