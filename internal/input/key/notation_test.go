package key

import (
	"errors"
	"testing"
)

func TestTranslatorLookup(t *testing.T) {
	tr := NewTranslator(true)

	tests := []struct {
		notation string
		want     Sequence
	}{
		{"<c-a>", Sequence{0x01}},
		{"<c-w>", Sequence{0x17}},
		{"<c-[>", Sequence{0x1b}},
		{"<c-_>", Sequence{0x1f}},
		{"<cr>", Sequence{'\r'}},
		{"<space>", Sequence{' '}},
		{"<tab>", Sequence{'\t'}},
		{"<a-x>", Sequence{0x1b, 'x'}},
		{"<m-x>", Sequence{0x1b, 'x'}},
		{"<del>", Sequence{0x7f}},
		{"<home>", Sequence{KeyHome}},
		{"<s-tab>", Sequence{KeyBacktab}},
		{"<f1>", Sequence{F(1)}},
		{"<s-f1>", Sequence{F(13)}},
		{"<c-f12>", Sequence{F(36)}},
		{"<a-f12>", Sequence{F(48)}},
	}
	for _, tt := range tests {
		got, ok := tr.Lookup(tt.notation)
		if !ok {
			t.Errorf("Lookup(%q) not found", tt.notation)
			continue
		}
		if !got.Equals(tt.want) {
			t.Errorf("Lookup(%q) = %v, want %v", tt.notation, []rune(got), []rune(tt.want))
		}
	}
}

func TestTranslatorLookupIsExactAndCaseSensitive(t *testing.T) {
	tr := NewTranslator(true)
	for _, notation := range []string{"<C-a>", "<CR>", "<c-a", "c-a>", "<c-", "<Home>"} {
		if _, ok := tr.Lookup(notation); ok {
			t.Errorf("Lookup(%q) should fail", notation)
		}
	}
}

func TestTranslatorRawTable(t *testing.T) {
	tr := NewTranslator(false)

	got := tr.MustLookup("<s-tab>")
	if !got.Equals(Sequence{0x1b, '[', 'Z'}) {
		t.Errorf("<s-tab> = %v, want escape sequence", []rune(got))
	}
	if _, ok := tr.Lookup("<home>"); ok {
		t.Error("raw table should not contain <home>")
	}
	if _, ok := tr.Lookup("<f1>"); ok {
		t.Error("raw table should not contain <f1>")
	}
}

func TestTranslatorEntriesAreBounded(t *testing.T) {
	for _, extended := range []bool{true, false} {
		tr := NewTranslator(extended)
		for _, n := range tr.Notations() {
			seq := tr.MustLookup(n)
			if seq.Len() == 0 || seq.Len() > maxNotationCodes {
				t.Errorf("%q maps to %d codes", n, seq.Len())
			}
		}
	}
}

func TestTranslatorParse(t *testing.T) {
	tr := NewTranslator(true)

	tests := []struct {
		text string
		want Sequence
	}{
		{"dd", Seq("dd")},
		{"<c-w>l", Sequence{0x17, 'l'}},
		{"<space>x<cr>", Sequence{' ', 'x', '\r'}},
		{"<foo>", Seq("<foo>")},
		{"<<cr>", Sequence{'<', '\r'}},
		{"a<", Seq("a<")},
		{"<lt>cr>", Seq("<cr>")},
		{"<f5>ä", Sequence{F(5), 'ä'}},
	}
	for _, tt := range tests {
		got := tr.Parse(tt.text)
		if !got.Equals(tt.want) {
			t.Errorf("Parse(%q) = %v, want %v", tt.text, []rune(got), []rune(tt.want))
		}
	}
}

func TestTranslatorParseStrict(t *testing.T) {
	tr := NewTranslator(true)

	if _, err := tr.ParseStrict(""); !errors.Is(err, ErrEmptyNotation) {
		t.Errorf("ParseStrict(\"\") error = %v, want ErrEmptyNotation", err)
	}
	if _, err := tr.ParseStrict("<c-q><bogus>"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("ParseStrict(<bogus>) error = %v, want ErrUnknownKey", err)
	}
	seq, err := tr.ParseStrict("<c-w>< a>")
	if err != nil {
		t.Fatalf("ParseStrict error = %v", err)
	}
	if !seq.Equals(Sequence{0x17, '<', ' ', 'a', '>'}) {
		t.Errorf("ParseStrict = %v", []rune(seq))
	}
}

func TestTranslatorFormatRoundTrip(t *testing.T) {
	for _, extended := range []bool{true, false} {
		tr := NewTranslator(extended)

		inputs := []Sequence{
			Seq("dd"),
			Seq("<foo>"),
			Sequence{0x1b, 'a'},
			Sequence{0x1b},
			Sequence{'\r', ' ', '\t', 0x17, 'l'},
			Seq("a<b>c<"),
			Sequence{0x01, 0x02, 0x1f, 0x7f},
		}
		if extended {
			inputs = append(inputs, Sequence{KeyHome, F(0), F(63), KeyBacktab, 'x'})
		}
		for _, in := range inputs {
			text := tr.Format(in)
			back := tr.Parse(text)
			if !back.Equals(in) {
				t.Errorf("extended=%v: Parse(Format(%v)) = %v via %q", extended, []rune(in), []rune(back), text)
			}
		}
	}
}

func TestTranslatorFormatCanonical(t *testing.T) {
	tr := NewTranslator(true)

	tests := []struct {
		in   Sequence
		want string
	}{
		{Sequence{0x1b, 'a'}, "<a-a>"},
		{Sequence{'\r'}, "<cr>"},
		{Sequence{0x1b}, "<esc>"},
		{Sequence{'\t'}, "<tab>"},
		{Seq("<"), "<lt>"},
		{Sequence{F(13)}, "<f13>"},
	}
	for _, tt := range tests {
		if got := tr.Format(tt.in); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", []rune(tt.in), got, tt.want)
		}
	}
}
