package app

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
)

// DefaultRegister is used when no register is given.
const DefaultRegister = '"'

// ErrNoMark is returned when jumping to a mark that was never set.
var ErrNoMark = errors.New("mark not set")

// Pane is the file list the builtin keys act on. It only holds names;
// operations never touch the file system.
type Pane struct {
	mu sync.RWMutex

	dir     string
	entries []string
	cursor  int

	// anchor is where visual selection started, -1 outside visual mode.
	anchor int

	marks     map[rune]string
	registers map[rune][]string
}

// NewPane creates a pane listing entries.
func NewPane(dir string, entries []string) *Pane {
	return &Pane{
		dir:       dir,
		entries:   append([]string(nil), entries...),
		anchor:    -1,
		marks:     make(map[rune]string),
		registers: make(map[rune][]string),
	}
}

// ReadPane creates a pane listing the names in dir, directories first.
func ReadPane(dir string) (*Pane, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	sort.SliceStable(dirEntries, func(i, j int) bool {
		return dirEntries[i].IsDir() && !dirEntries[j].IsDir()
	})
	names := make([]string, 0, len(dirEntries))
	for _, e := range dirEntries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	return NewPane(dir, names), nil
}

// Dir returns the listed directory.
func (p *Pane) Dir() string {
	return p.dir
}

// Entries returns a copy of the listed names.
func (p *Pane) Entries() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.entries...)
}

// Len returns the number of entries.
func (p *Pane) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// Cursor returns the index of the current entry.
func (p *Pane) Cursor() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cursor
}

// Current returns the name under the cursor, "" for an empty pane.
func (p *Pane) Current() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.entries) == 0 {
		return ""
	}
	return p.entries[p.cursor]
}

func (p *Pane) clamp(i int) int {
	if i >= len(p.entries) {
		i = len(p.entries) - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Move moves the cursor by delta entries, stopping at the ends.
func (p *Pane) Move(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor = p.clamp(p.cursor + delta)
}

// GoTo moves the cursor to index i, clamped to the list.
func (p *Pane) GoTo(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor = p.clamp(i)
}

// Span returns the indexes from the cursor to target, clamped, in
// ascending order.
func (p *Pane) Span(target int) []int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.entries) == 0 {
		return nil
	}
	return span(p.cursor, p.clamp(target))
}

func span(a, b int) []int {
	if a > b {
		a, b = b, a
	}
	out := make([]int, 0, b-a+1)
	for i := a; i <= b; i++ {
		out = append(out, i)
	}
	return out
}

// StartSelection anchors a visual selection at the cursor.
func (p *Pane) StartSelection() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.anchor = p.cursor
}

// ClearSelection drops the visual selection.
func (p *Pane) ClearSelection() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.anchor = -1
}

// Selection returns the indexes between the anchor and the cursor, nil
// without a selection.
func (p *Pane) Selection() []int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.anchor < 0 || len(p.entries) == 0 {
		return nil
	}
	return span(p.clamp(p.anchor), p.cursor)
}

// Yank copies the entries at indexes into register reg.
func (p *Pane) Yank(reg rune, indexes []int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := p.pick(indexes)
	p.store(reg, names)
	return len(names)
}

// Delete removes the entries at indexes and keeps them in register reg.
func (p *Pane) Delete(reg rune, indexes []int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	names := p.pick(indexes)
	if len(names) == 0 {
		return 0
	}
	p.store(reg, names)

	doomed := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		doomed[i] = true
	}
	first := len(p.entries)
	kept := p.entries[:0]
	for i, name := range p.entries {
		if doomed[i] {
			first = min(first, i)
			continue
		}
		kept = append(kept, name)
	}
	p.entries = kept
	p.cursor = p.clamp(first)
	p.anchor = -1
	return len(names)
}

// Put inserts the contents of register reg after the cursor count times.
func (p *Pane) Put(reg rune, count int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	names := p.registers[register(reg)]
	if len(names) == 0 {
		return 0
	}
	var insert []string
	for range max(count, 1) {
		insert = append(insert, names...)
	}

	at := 0
	if len(p.entries) > 0 {
		at = p.cursor + 1
	}
	entries := make([]string, 0, len(p.entries)+len(insert))
	entries = append(entries, p.entries[:at]...)
	entries = append(entries, insert...)
	entries = append(entries, p.entries[at:]...)
	p.entries = entries
	p.cursor = at
	return len(insert)
}

// Register returns the names stored in reg.
func (p *Pane) Register(reg rune) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.registers[register(reg)]...)
}

// SetMark remembers the current entry under name.
func (p *Pane) SetMark(name rune) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.entries) > 0 {
		p.marks[name] = p.entries[p.cursor]
	}
}

// JumpToMark moves the cursor to the entry remembered under name.
func (p *Pane) JumpToMark(name rune) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	target, ok := p.marks[name]
	if !ok {
		return fmt.Errorf("%w: %c", ErrNoMark, name)
	}
	for i, e := range p.entries {
		if e == target {
			p.cursor = i
			return nil
		}
	}
	return fmt.Errorf("%w: %c (%s is gone)", ErrNoMark, name, target)
}

// pick returns the names at valid indexes. p.mu must be held.
func (p *Pane) pick(indexes []int) []string {
	names := make([]string, 0, len(indexes))
	for _, i := range indexes {
		if i >= 0 && i < len(p.entries) {
			names = append(names, p.entries[i])
		}
	}
	return names
}

// store fills a register. The unnamed register always gets a copy.
// p.mu must be held.
func (p *Pane) store(reg rune, names []string) {
	reg = register(reg)
	p.registers[reg] = names
	if reg != DefaultRegister {
		p.registers[DefaultRegister] = names
	}
}

func register(reg rune) rune {
	if reg == 0 {
		return DefaultRegister
	}
	return reg
}
