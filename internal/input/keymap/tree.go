package keymap

import (
	"sort"

	"github.com/dshills/keystroke/internal/input/key"
)

// prefixTree maps key sequences to bindings of one origin and kind.
type prefixTree struct {
	root *prefixNode
	size int
}

type prefixNode struct {
	children map[rune]*prefixNode
	entry    *Binding
}

func newPrefixTree() *prefixTree {
	return &prefixTree{
		root: &prefixNode{
			children: make(map[rune]*prefixNode),
		},
	}
}

// insert stores b under seq, returning the binding it replaced.
func (t *prefixTree) insert(seq key.Sequence, b *Binding) *Binding {
	node := t.root

	// Navigate/create path for each key in sequence
	for _, code := range seq {
		child, ok := node.children[code]
		if !ok {
			child = &prefixNode{
				children: make(map[rune]*prefixNode),
			}
			node.children[code] = child
		}
		node = child
	}

	old := node.entry
	node.entry = b
	if old == nil {
		t.size++
	}
	return old
}

// remove deletes the binding stored under seq and prunes empty nodes.
func (t *prefixTree) remove(seq key.Sequence) *Binding {
	if len(seq) == 0 {
		return nil
	}

	// Track path for pruning
	path := make([]*prefixNode, 0, len(seq)+1)
	path = append(path, t.root)

	node := t.root
	for _, code := range seq {
		child, ok := node.children[code]
		if !ok {
			return nil
		}
		path = append(path, child)
		node = child
	}

	old := node.entry
	if old == nil {
		return nil
	}
	node.entry = nil
	t.size--

	// Prune empty nodes from leaf to root
	for i := len(path) - 1; i > 0; i-- {
		current := path[i]
		if current.entry != nil || len(current.children) > 0 {
			break
		}
		delete(path[i-1].children, seq[i-1])
	}
	return old
}

// find returns the node reached by seq, or nil.
func (t *prefixTree) find(seq key.Sequence) *prefixNode {
	node := t.root
	for _, code := range seq {
		child, ok := node.children[code]
		if !ok {
			return nil
		}
		node = child
	}
	return node
}

// get returns the binding stored exactly under seq.
func (t *prefixTree) get(seq key.Sequence) *Binding {
	if node := t.find(seq); node != nil {
		return node.entry
	}
	return nil
}

// hasPrefix reports whether a binding strictly longer than seq starts with it.
func (t *prefixTree) hasPrefix(seq key.Sequence) bool {
	node := t.find(seq)
	return node != nil && len(node.children) > 0
}

// longest walks input and returns the longest stored binding that prefixes
// it. more is set when input ran out on a node that still has children.
func (t *prefixTree) longest(input key.Sequence) (b *Binding, n int, more bool) {
	node := t.root
	for i, code := range input {
		child, ok := node.children[code]
		if !ok {
			return b, n, false
		}
		node = child
		if node.entry != nil {
			b, n = node.entry, i+1
		}
	}
	return b, n, len(node.children) > 0
}

// walk calls fn for every binding under node in code order.
func (n *prefixNode) walk(fn func(b *Binding)) {
	if n.entry != nil {
		fn(n.entry)
	}
	codes := make([]rune, 0, len(n.children))
	for code := range n.children {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	for _, code := range codes {
		n.children[code].walk(fn)
	}
}

// walk calls fn for every binding in code order.
func (t *prefixTree) walk(fn func(b *Binding)) {
	t.root.walk(fn)
}

// clear drops every binding.
func (t *prefixTree) clear() {
	t.root = &prefixNode{children: make(map[rune]*prefixNode)}
	t.size = 0
}
