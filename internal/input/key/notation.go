package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Notation errors
var (
	ErrEmptyNotation = errors.New("empty key notation")
	ErrUnknownKey    = errors.New("unknown key notation")
)

// maxNotationCodes bounds the number of codes a single notation maps to.
const maxNotationCodes = 8

// pair is a single entry of the notation table.
type pair struct {
	notation string
	keys     Sequence
}

// Translator converts between bracket notation ("<c-w>", "<space>", "<f5>")
// and raw key-code sequences.
//
// Lookup is exact and case-sensitive. The table is built once and never
// changes, so a Translator is safe for concurrent use.
type Translator struct {
	pairs      []pair
	byNotation map[string]Sequence
	extended   bool
}

// NewTranslator returns a translator for the given key representation.
//
// With extended set, named keys (arrows, <home>, function keys, <s-tab>) map
// to the application key codes from this package, which is what a terminal
// library that decodes escape sequences hands us. Without it only keys that
// have a raw byte form are available and <s-tab> maps to its escape sequence.
func NewTranslator(extended bool) *Translator {
	t := &Translator{
		pairs:      buildTable(extended),
		byNotation: make(map[string]Sequence),
		extended:   extended,
	}
	for _, p := range t.pairs {
		if _, dup := t.byNotation[p.notation]; !dup {
			t.byNotation[p.notation] = p.keys
		}
	}
	return t
}

// Extended reports whether the translator maps named keys to key codes.
func (t *Translator) Extended() bool {
	return t.extended
}

// Lookup returns the key codes for a single bracket notation, e.g. "<c-a>".
func (t *Translator) Lookup(notation string) (Sequence, bool) {
	keys, ok := t.byNotation[notation]
	if !ok {
		return nil, false
	}
	return keys.Clone(), true
}

// MustLookup is Lookup for notations known to be in the table.
// Use only in initialization code.
func (t *Translator) MustLookup(notation string) Sequence {
	keys, ok := t.Lookup(notation)
	if !ok {
		panic("unknown key notation: " + notation)
	}
	return keys
}

// Parse converts configuration text into a key sequence.
//
// Every "<...>" run found in the table is replaced by its codes; any other
// text, including bracket runs that are not in the table, is taken literally
// one code point at a time.
func (t *Translator) Parse(text string) Sequence {
	seq := make(Sequence, 0, len(text))
	for i := 0; i < len(text); {
		if text[i] == '<' {
			if end := strings.IndexByte(text[i:], '>'); end > 0 {
				if keys, ok := t.byNotation[text[i:i+end+1]]; ok {
					seq = append(seq, keys...)
					i += end + 1
					continue
				}
			}
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		seq = append(seq, r)
		i += size
	}
	return seq
}

// ParseStrict is like Parse but fails on empty input and on bracket runs
// that look like notation but are not in the table.
func (t *Translator) ParseStrict(text string) (Sequence, error) {
	if text == "" {
		return nil, ErrEmptyNotation
	}
	for i := 0; i < len(text); i++ {
		if text[i] != '<' {
			continue
		}
		end := strings.IndexByte(text[i:], '>')
		if end <= 1 {
			continue
		}
		inner := text[i+1 : i+end]
		if strings.ContainsAny(inner, "< ") {
			continue
		}
		if _, ok := t.byNotation[text[i:i+end+1]]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKey, text[i:i+end+1])
		}
		i += end
	}
	return t.Parse(text), nil
}

// Format renders a key sequence as configuration text such that
// Parse(Format(s)) equals s.
//
// At each position the longest table entry matching the codes wins, so
// "\x1ba" is written as "<a-a>" rather than "<c-[>a".
func (t *Translator) Format(seq Sequence) string {
	var sb strings.Builder
	for i := 0; i < len(seq); {
		if n, notation := t.longestAt(seq[i:]); n > 0 {
			sb.WriteString(notation)
			i += n
			continue
		}
		sb.WriteRune(seq[i])
		i++
	}
	return sb.String()
}

// longestAt finds the longest table entry that prefixes seq.
func (t *Translator) longestAt(seq Sequence) (int, string) {
	best, notation := 0, ""
	for _, p := range t.pairs {
		if len(p.keys) > best && seq.HasPrefix(p.keys) {
			best, notation = len(p.keys), p.notation
		}
	}
	return best, notation
}

// Notations returns every notation in table order.
func (t *Translator) Notations() []string {
	out := make([]string, len(t.pairs))
	for i, p := range t.pairs {
		out[i] = p.notation
	}
	return out
}

// buildTable assembles the notation table.
//
// Order matters for Format: the first entry for a given code sequence is the
// one written back, so the canonical spelling comes first (<cr> before <c-m>,
// <a-x> before <m-x>).
func buildTable(extended bool) []pair {
	pairs := make([]pair, 0, 256)
	add := func(notation string, keys ...rune) {
		if len(keys) > maxNotationCodes {
			panic("key notation too long: " + notation)
		}
		pairs = append(pairs, pair{notation: notation, keys: Sequence(keys)})
	}

	add("<cr>", KeyEnter)
	add("<esc>", KeyEscape)
	add("<space>", KeySpace)
	add("<tab>", KeyTab)
	add("<lt>", '<')

	for c := 'a'; c <= 'z'; c++ {
		add("<c-"+string(c)+">", c-'a'+1)
	}
	add("<c-[>", 0x1b)
	add("<c-\\>", 0x1c)
	add("<c-]>", 0x1d)
	add("<c-^>", 0x1e)
	add("<c-_>", 0x1f)
	if extended {
		add("<s-tab>", KeyBacktab)
	} else {
		add("<s-tab>", KeyEscape, '[', 'Z')
	}

	for c := 'a'; c <= 'z'; c++ {
		add("<a-"+string(c)+">", KeyEscape, c)
	}
	for c := 'a'; c <= 'z'; c++ {
		add("<m-"+string(c)+">", KeyEscape, c)
	}
	add("<del>", KeyDel)

	if !extended {
		return pairs
	}

	add("<home>", KeyHome)
	add("<end>", KeyEnd)
	add("<left>", KeyLeft)
	add("<right>", KeyRight)
	add("<up>", KeyUp)
	add("<down>", KeyDown)
	add("<bs>", KeyBackspace)
	add("<delete>", KeyDelete)
	add("<insert>", KeyInsert)
	add("<pageup>", KeyPageUp)
	add("<pagedown>", KeyPageDown)
	for n := 0; n <= MaxFunctionKey; n++ {
		add(fmt.Sprintf("<f%d>", n), F(n))
	}
	// Terminals report modified function keys as higher function keys.
	for n := 1; n <= 12; n++ {
		add(fmt.Sprintf("<s-f%d>", n), F(12+n))
	}
	for n := 1; n <= 12; n++ {
		add(fmt.Sprintf("<c-f%d>", n), F(24+n))
	}
	for n := 1; n <= 12; n++ {
		add(fmt.Sprintf("<a-f%d>", n), F(36+n))
	}
	return pairs
}
