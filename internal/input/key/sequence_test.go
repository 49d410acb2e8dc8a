package key

import (
	"testing"
)

func TestSequenceEquals(t *testing.T) {
	tests := []struct {
		a, b Sequence
		want bool
	}{
		{Seq("gg"), Seq("gg"), true},
		{Seq("gg"), Seq("g"), false},
		{Seq("dj"), Seq("dk"), false},
		{nil, Seq(""), true},
		{Sequence{KeyHome}, Sequence{KeyHome}, true},
	}
	for _, tt := range tests {
		if got := tt.a.Equals(tt.b); got != tt.want {
			t.Errorf("%q.Equals(%q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSequenceHasPrefix(t *testing.T) {
	seq := Seq("d10X")
	if !seq.HasPrefix(Seq("d1")) {
		t.Error("d10X should have prefix d1")
	}
	if !seq.HasPrefix(nil) {
		t.Error("every sequence has the empty prefix")
	}
	if seq.HasPrefix(Seq("d10X!")) {
		t.Error("a longer sequence cannot be a prefix")
	}
	if seq.HasPrefix(Seq("x")) {
		t.Error("d10X should not have prefix x")
	}
}

func TestSequenceCompare(t *testing.T) {
	tests := []struct {
		a, b Sequence
		want int
	}{
		{Seq("a"), Seq("b"), -1},
		{Seq("b"), Seq("a"), 1},
		{Seq("g"), Seq("gg"), -1},
		{Seq("gg"), Seq("g"), 1},
		{Seq("hi"), Seq("hi"), 0},
	}
	for _, tt := range tests {
		if got := tt.a.Compare(tt.b); got != tt.want {
			t.Errorf("%q.Compare(%q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSequenceConcatCopies(t *testing.T) {
	a := Seq("2")
	b := Seq("dd")
	c := a.Concat(b, Seq("j"))
	if !c.Equals(Seq("2ddj")) {
		t.Errorf("Concat = %q, want %q", c, "2ddj")
	}
	c[0] = '9'
	if a[0] != '2' {
		t.Error("Concat must not alias its receiver")
	}
}

func TestSequenceCloneIsIndependent(t *testing.T) {
	a := Seq("abc")
	b := a.Clone()
	b[0] = 'x'
	if a[0] != 'a' {
		t.Error("Clone must copy")
	}
	if Sequence(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestSequenceKeyDistinguishesCodes(t *testing.T) {
	if Seq("ab").Key() == Seq("ba").Key() {
		t.Error("different sequences produced the same key")
	}
	if (Sequence{KeyHome}).Key() == Seq("h").Key() {
		t.Error("special code collided with a character")
	}
	if Seq("gg").Key() != Seq("gg").Key() {
		t.Error("equal sequences must produce equal keys")
	}
}

func TestSequenceString(t *testing.T) {
	seq := Sequence{'d', KeyDown}
	if got := seq.String(); got != "d<down>" {
		t.Errorf("String() = %q, want %q", got, "d<down>")
	}
}
