package keymap

import (
	"strings"

	"github.com/dshills/keystroke/internal/input/key"
	"github.com/dshills/keystroke/internal/input/mode"
	"github.com/dshills/keystroke/internal/input/vim"
)

// remapTarget is a user remap reached while reading keys, with the keys
// that followed it. The dispatcher expands rhs+tail, so the tail takes part
// in the next lookup.
type remapTarget struct {
	binding *Binding
	tail    key.Sequence
}

// nextRemap returns the first user remap that reading seq would expand.
//
// seq is read the way the dispatcher reads input: an optional register, an
// optional count, then the longest user or builtin action. Selectors and
// multi-key arguments that follow an action are skipped. Foreign bindings
// are ignored because they can be removed at any time and expose the user
// binding below them.
func (t *table) nextRemap(seq key.Sequence) (remapTarget, bool) {
	user := t.tree(OriginUser, KindAction)
	builtin := t.tree(OriginBuiltin, KindAction)

	for pos := 0; pos < len(seq); {
		pos = t.skipPrefixes(seq, pos)
		if pos >= len(seq) {
			break
		}

		b, n, _ := user.longest(seq[pos:])
		if bb, bn, _ := builtin.longest(seq[pos:]); bn > n {
			b, n = bb, bn
		}
		if b == nil {
			pos++
			continue
		}
		pos += n
		if b.IsRemap() {
			return remapTarget{binding: b, tail: seq[pos:]}, true
		}

		switch b.Follow {
		case FollowSelector:
			pos = t.skipPrefixes(seq, pos)
			sel, sn, _ := t.tree(OriginBuiltin, KindSelector).longest(seq[pos:])
			switch {
			case sel == nil:
				pos++
			case sel.Follow == FollowMultiKey:
				pos += sn + 1
			default:
				pos += sn
			}
		case FollowMultiKey:
			pos++
		}
	}
	return remapTarget{}, false
}

// skipPrefixes skips a register and a count starting at pos.
func (t *table) skipPrefixes(seq key.Sequence, pos int) int {
	if t.mode.Has(mode.UsesRegs) && pos+1 < len(seq) && seq[pos] == '"' {
		pos += 2
	}
	if t.mode.Has(mode.UsesCount) && pos < len(seq) {
		_, n := vim.ParseCount(seq[pos:])
		pos += n
	}
	return pos
}

// findCycle searches the remap graph of the table and returns the keys of
// the first cycle found, or nil. A remap is followed into the rhs of the
// next remap it reaches together with the keys left after it, so "a" -> "b"
// and "bc" -> "ac" form a cycle through "bc".
func (t *table) findCycle() []key.Sequence {
	active := make(map[string]bool)
	done := make(map[string]bool)
	var stack []key.Sequence
	var cycle []key.Sequence

	var visit func(b *Binding, tail key.Sequence) bool
	visit = func(b *Binding, tail key.Sequence) bool {
		id := b.Keys.Key()
		if active[id] {
			// Report the cycle starting at the repeated binding.
			for i, seq := range stack {
				if seq.Equals(b.Keys) {
					cycle = append(append([]key.Sequence(nil), stack[i:]...), b.Keys)
					break
				}
			}
			return true
		}
		state := id + "\x00" + tail.Key()
		if done[state] {
			return false
		}

		active[id] = true
		stack = append(stack, b.Keys)
		if b.Flags&NoRemap == 0 {
			if next, ok := t.nextRemap(b.RHS.Concat(tail)); ok && visit(next.binding, next.tail) {
				return true
			}
		}
		stack = stack[:len(stack)-1]
		active[id] = false
		done[state] = true
		return false
	}

	found := false
	t.tree(OriginUser, KindAction).walk(func(b *Binding) {
		if found || !b.IsRemap() {
			return
		}
		found = visit(b, nil)
	})
	return cycle
}

func formatCycle(cycle []key.Sequence) string {
	parts := make([]string, len(cycle))
	for i, seq := range cycle {
		parts[i] = seq.String()
	}
	return strings.Join(parts, " -> ")
}
