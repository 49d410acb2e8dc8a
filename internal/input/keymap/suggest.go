package keymap

import (
	"sort"

	"github.com/dshills/keystroke/internal/input/key"
	"github.com/dshills/keystroke/internal/input/mode"
	"github.com/dshills/keystroke/internal/input/vim"
)

// Suggestion is one completion for a typed prefix.
type Suggestion struct {
	// Keys is the full sequence: the typed prefix and its completion.
	Keys key.Sequence

	// RHS is the right-hand side of a user remap, as configured.
	RHS key.Sequence

	// Description of the binding; empty for remaps.
	Description string

	// Origin of the suggested binding.
	Origin Origin
}

// SuggestOptions control Suggest.
type SuggestOptions struct {
	// Foreign includes plugin bindings.
	Foreign bool
}

// Suggest lists the bindings that can complete prefix in a mode.
//
// Every action whose keys start with prefix is listed once, using the
// binding that would run. Selectors are not listed by themselves; when the
// prefix passes through an action that waits for a selector ("d"), the rest
// of the prefix is completed against the selector namespace from its root,
// so "d" lists "dj", "dgg" and so on, but not "d" itself. A leading count or register in the
// prefix is kept in the suggested keys. The result is sorted by keys.
func (s *Store) Suggest(modeName string, prefix key.Sequence, opts SuggestOptions) ([]Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(modeName)
	if err != nil {
		return nil, err
	}

	start := t.skipPrefixes(prefix, 0)
	head, body := prefix[:start], prefix[start:]

	seen := make(map[string]bool)
	var out []Suggestion
	emit := func(keys key.Sequence, b *Binding) {
		id := keys.Key()
		if seen[id] {
			return
		}
		seen[id] = true
		sg := Suggestion{Keys: keys, Origin: b.Origin}
		if b.IsRemap() {
			sg.RHS = b.RHS
		} else {
			sg.Description = b.Description
		}
		out = append(out, sg)
	}

	// An operator typed in full is completed by its selectors below and
	// cannot run by itself.
	var operator *Binding
	if len(body) > 0 {
		if b := t.effectiveAction(body, opts.Foreign); b != nil && b.Follow == FollowSelector {
			operator = b
		}
	}

	for _, o := range layers {
		if o == OriginForeign && !opts.Foreign {
			continue
		}
		node := t.tree(o, KindAction).find(body)
		if node == nil {
			continue
		}
		node.walk(func(b *Binding) {
			if o == OriginBuiltin && b.SkipSuggestion {
				return
			}
			if operator != nil && b.Keys.Equals(body) {
				return
			}
			emit(head.Concat(b.Keys), b)
		})
	}

	// Selector completion for every action on the path that waits for one.
	for i := 1; i <= len(body); i++ {
		action := t.effectiveAction(body[:i], opts.Foreign)
		if action == nil || action.Follow != FollowSelector {
			continue
		}
		rest := body[i:]
		if t.mode.Has(mode.UsesCount) {
			_, n := vim.ParseCount(rest)
			rest = rest[n:]
		}
		selHead := head.Concat(body[:len(body)-len(rest)])
		for _, o := range layers {
			if o == OriginUser || (o == OriginForeign && !opts.Foreign) {
				continue
			}
			node := t.tree(o, KindSelector).find(rest)
			if node == nil {
				continue
			}
			node.walk(func(b *Binding) {
				if o == OriginBuiltin && b.SkipSuggestion {
					return
				}
				emit(selHead.Concat(b.Keys), b)
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Keys.Compare(out[j].Keys) < 0
	})
	return out, nil
}

// effectiveAction returns the action that runs for exactly seq.
func (t *table) effectiveAction(seq key.Sequence, foreign bool) *Binding {
	for _, o := range layers {
		if o == OriginForeign && !foreign {
			continue
		}
		if b := t.tree(o, KindAction).get(seq); b != nil {
			return b
		}
	}
	return nil
}
