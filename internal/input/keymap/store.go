package keymap

import (
	"fmt"
	"sync"

	"github.com/dshills/keystroke/internal/input/key"
	"github.com/dshills/keystroke/internal/input/mode"
)

// layers lists origins in lookup precedence order.
var layers = [...]Origin{OriginForeign, OriginUser, OriginBuiltin}

// table holds the trees of one mode, indexed by origin and kind.
type table struct {
	mode  mode.Mode
	trees [3][kindCount]*prefixTree
}

func newTable(m mode.Mode) *table {
	t := &table{mode: m}
	for o := range t.trees {
		for k := range t.trees[o] {
			t.trees[o][k] = newPrefixTree()
		}
	}
	return t
}

func (t *table) tree(o Origin, k Kind) *prefixTree {
	return t.trees[o][k]
}

// Store owns the bindings of every mode.
//
// All methods are safe for concurrent use. Handlers are never called by the
// store, so a handler may register or remove bindings while it runs.
type Store struct {
	mu     sync.RWMutex
	modes  *mode.Set
	tables map[string]*table
}

// NewStore creates an empty store for the given modes.
func NewStore(modes *mode.Set) *Store {
	s := &Store{
		modes:  modes,
		tables: make(map[string]*table, modes.Len()),
	}
	for _, name := range modes.Names() {
		m, _ := modes.Get(name)
		s.tables[name] = newTable(m)
	}
	return s
}

// Modes returns the modes the store was built with.
func (s *Store) Modes() *mode.Set {
	return s.modes
}

// Mode returns the mode with the given name.
func (s *Store) Mode(name string) (mode.Mode, error) {
	return s.modes.Lookup(name)
}

func (s *Store) table(modeName string) (*table, error) {
	t, ok := s.tables[modeName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, modeName)
	}
	return t, nil
}

// AddBuiltin registers a compiled-in binding.
// Adding the same keys twice to one namespace returns ErrDuplicateBuiltin.
func (s *Store) AddBuiltin(modeName string, b Binding) error {
	if err := validate(&b); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(modeName)
	if err != nil {
		return err
	}
	tree := t.tree(OriginBuiltin, b.Kind)
	if tree.get(b.Keys) != nil {
		return fmt.Errorf("%w: %s %s", ErrDuplicateBuiltin, modeName, b.Keys)
	}
	b.Origin = OriginBuiltin
	b.Keys = b.Keys.Clone()
	tree.insert(b.Keys, &b)
	return nil
}

// MustAddBuiltin is AddBuiltin for initialization code; it panics on error.
func (s *Store) MustAddBuiltin(modeName string, b Binding) {
	if err := s.AddBuiltin(modeName, b); err != nil {
		panic(err)
	}
}

// AddUser registers or replaces a user remap from lhs to rhs.
//
// The right-hand side is matched again when lhs fires; it may itself be
// user-bound. A mapping that would make a remap chain refer back to itself
// is rejected with ErrRemapCycle and leaves the store unchanged.
func (s *Store) AddUser(modeName string, lhs, rhs key.Sequence, flags Flags) error {
	if len(lhs) == 0 {
		return ErrEmptySequence
	}
	b := &Binding{
		Keys:   lhs.Clone(),
		Origin: OriginUser,
		Kind:   KindAction,
		RHS:    rhs.Clone(),
		Flags:  flags,
	}
	return s.addUser(modeName, b)
}

// AddUserHandler registers or replaces a user binding that calls h.
func (s *Store) AddUserHandler(modeName string, lhs key.Sequence, h Handler, descr string) error {
	if len(lhs) == 0 {
		return ErrEmptySequence
	}
	if h == nil {
		return ErrNilHandler
	}
	b := &Binding{
		Keys:        lhs.Clone(),
		Origin:      OriginUser,
		Kind:        KindAction,
		Handler:     h,
		Description: descr,
	}
	return s.addUser(modeName, b)
}

func (s *Store) addUser(modeName string, b *Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(modeName)
	if err != nil {
		return err
	}
	tree := t.tree(OriginUser, KindAction)
	old := tree.insert(b.Keys, b)
	if cycle := t.findCycle(); cycle != nil {
		if old != nil {
			tree.insert(b.Keys, old)
		} else {
			tree.remove(b.Keys)
		}
		return fmt.Errorf("%w: %s", ErrRemapCycle, formatCycle(cycle))
	}
	return nil
}

// AddForeign registers a plugin binding.
//
// The keys may not equal a builtin of the same namespace and neither may be
// a prefix of the other; such registrations fail with ErrBuiltinConflict
// and leave the store unchanged. A foreign action shadows a user binding of
// the same keys without removing it.
func (s *Store) AddForeign(modeName string, b Binding, isSelector bool) error {
	b.Kind = KindAction
	if isSelector {
		b.Kind = KindSelector
	}
	if err := validate(&b); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(modeName)
	if err != nil {
		return err
	}
	builtin := t.tree(OriginBuiltin, b.Kind)
	if builtin.get(b.Keys) != nil || builtin.hasPrefix(b.Keys) {
		return fmt.Errorf("%w: %s %s", ErrBuiltinConflict, modeName, b.Keys)
	}
	if p, _, _ := builtin.longest(b.Keys); p != nil {
		return fmt.Errorf("%w: %s %s starts with %s", ErrBuiltinConflict, modeName, b.Keys, p.Keys)
	}

	b.Origin = OriginForeign
	b.Keys = b.Keys.Clone()
	b.RHS = nil
	t.tree(OriginForeign, b.Kind).insert(b.Keys, &b)
	return nil
}

// RemoveUser deletes the user binding for lhs.
func (s *Store) RemoveUser(modeName string, lhs key.Sequence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(modeName)
	if err != nil {
		return err
	}
	if t.tree(OriginUser, KindAction).remove(lhs) == nil {
		return fmt.Errorf("%w: %s %s", ErrNotFound, modeName, lhs)
	}
	return nil
}

// RemoveForeign deletes a foreign binding. A user binding it shadowed
// becomes effective again.
func (s *Store) RemoveForeign(modeName string, seq key.Sequence, isSelector bool) error {
	k := KindAction
	if isSelector {
		k = KindSelector
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(modeName)
	if err != nil {
		return err
	}
	if t.tree(OriginForeign, k).remove(seq) == nil {
		return fmt.Errorf("%w: %s %s", ErrNotFound, modeName, seq)
	}
	return nil
}

// Foreign returns a copy of the foreign binding stored for seq.
func (s *Store) Foreign(modeName string, seq key.Sequence, isSelector bool) (Binding, bool) {
	k := KindAction
	if isSelector {
		k = KindSelector
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(modeName)
	if err != nil {
		return Binding{}, false
	}
	if b := t.tree(OriginForeign, k).get(seq); b != nil {
		return *b, true
	}
	return Binding{}, false
}

// ClearOwner removes every foreign binding registered by owner and returns
// how many were removed.
func (s *Store) ClearOwner(owner string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, t := range s.tables {
		for k := Kind(0); k < kindCount; k++ {
			tree := t.tree(OriginForeign, k)
			var doomed []key.Sequence
			tree.walk(func(b *Binding) {
				if b.Owner == owner {
					doomed = append(doomed, b.Keys)
				}
			})
			for _, seq := range doomed {
				tree.remove(seq)
				removed++
			}
		}
	}
	return removed
}

// ClearUser removes the user and foreign bindings of one mode.
func (s *Store) ClearUser(modeName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(modeName)
	if err != nil {
		return err
	}
	t.clearUser()
	return nil
}

// ClearUserAll removes the user and foreign bindings of every mode.
func (s *Store) ClearUserAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tables {
		t.clearUser()
	}
}

func (t *table) clearUser() {
	for k := Kind(0); k < kindCount; k++ {
		t.tree(OriginUser, k).clear()
		t.tree(OriginForeign, k).clear()
	}
}

// UserExists reports whether seq has a user binding or a foreign action in
// the mode. Unknown modes report false.
func (s *Store) UserExists(modeName string, seq key.Sequence) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(modeName)
	if err != nil {
		return false
	}
	return t.tree(OriginUser, KindAction).get(seq) != nil ||
		t.tree(OriginForeign, KindAction).get(seq) != nil
}

// LookupStatus classifies a partial sequence.
type LookupStatus uint8

const (
	// LookupNoMatch means no action starts with the sequence.
	LookupNoMatch LookupStatus = iota

	// LookupPrefix means longer actions start with the sequence but none
	// equals it.
	LookupPrefix

	// LookupExact means an action equals the sequence and none is longer.
	LookupExact

	// LookupConflict means an action equals the sequence and longer ones
	// start with it, so the caller has to wait or time out.
	LookupConflict
)

// String returns the status name.
func (s LookupStatus) String() string {
	switch s {
	case LookupNoMatch:
		return "no-match"
	case LookupPrefix:
		return "prefix"
	case LookupExact:
		return "exact"
	case LookupConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// LookupResult is the outcome of Lookup.
type LookupResult struct {
	Status LookupStatus

	// Binding is the effective action for an exact or conflicting match.
	Binding *Binding
}

// Lookup classifies partial against the actions of a mode across all three
// origins. The binding reported is the one that would run: foreign before
// user before builtin.
func (s *Store) Lookup(modeName string, partial key.Sequence) (LookupResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(modeName)
	if err != nil {
		return LookupResult{}, err
	}

	var exact *Binding
	prefix := false
	for _, o := range layers {
		tree := t.tree(o, KindAction)
		if exact == nil {
			exact = tree.get(partial)
		}
		if tree.hasPrefix(partial) {
			prefix = true
		}
	}

	switch {
	case exact != nil && prefix:
		return LookupResult{Status: LookupConflict, Binding: exact.clone()}, nil
	case exact != nil:
		return LookupResult{Status: LookupExact, Binding: exact.clone()}, nil
	case prefix:
		return LookupResult{Status: LookupPrefix}, nil
	default:
		return LookupResult{Status: LookupNoMatch}, nil
	}
}

// MatchOptions control Match.
type MatchOptions struct {
	// Kind selects the namespace to match in.
	Kind Kind

	// NoRemap restricts matching to builtin bindings.
	NoRemap bool
}

// MatchResult is the outcome of Match.
type MatchResult struct {
	// Binding is the longest complete match, nil if there is none.
	Binding *Binding

	// Len is the number of input codes Binding covers.
	Len int

	// More is set when the input ended while a longer binding is possible.
	More bool
}

// Match finds the longest binding that prefixes input, walking the origins
// in precedence order. When two origins bind the same keys the one earlier
// in the order wins.
func (s *Store) Match(modeName string, input key.Sequence, opts MatchOptions) (MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(modeName)
	if err != nil {
		return MatchResult{}, err
	}

	var res MatchResult
	for _, o := range layers {
		if opts.NoRemap && o != OriginBuiltin {
			continue
		}
		b, n, more := t.tree(o, opts.Kind).longest(input)
		if b != nil && n > res.Len {
			res.Binding, res.Len = b, n
		}
		res.More = res.More || more
	}
	if res.Binding != nil {
		res.Binding = res.Binding.clone()
	}
	return res, nil
}

// List returns the bindings of one origin in a mode, actions first, each
// namespace in code order.
func (s *Store) List(modeName string, origin Origin) ([]Binding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(modeName)
	if err != nil {
		return nil, err
	}

	var out []Binding
	for k := Kind(0); k < kindCount; k++ {
		t.tree(origin, k).walk(func(b *Binding) {
			out = append(out, *b)
		})
	}
	return out, nil
}

// Count returns the number of bindings of one origin in a mode.
func (s *Store) Count(modeName string, origin Origin) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(modeName)
	if err != nil {
		return 0
	}
	n := 0
	for k := Kind(0); k < kindCount; k++ {
		n += t.tree(origin, k).size
	}
	return n
}

// validate checks a builtin or foreign binding before insertion.
func validate(b *Binding) error {
	if len(b.Keys) == 0 {
		return ErrEmptySequence
	}
	if b.Handler == nil {
		return fmt.Errorf("%w: %s", ErrNilHandler, b.Keys)
	}
	if b.Kind >= kindCount {
		return fmt.Errorf("%w: %s: kind %d", ErrInvalidBinding, b.Keys, b.Kind)
	}
	if b.Kind == KindSelector && b.Follow == FollowSelector {
		return fmt.Errorf("%w: %s: a selector cannot wait for a selector", ErrInvalidBinding, b.Keys)
	}
	return nil
}
