// Package calltree interns call-stack traces into a prefix-shared tree, the
// way record_reader.cpp's FrameTree does: each distinct (parent, frame_id)
// pair is stored once and referenced by a dense index, so two stacks that
// share a prefix share the nodes for that prefix.
package calltree

import (
	"github.com/memtrace/memtrace/frame"
	"github.com/memtrace/memtrace/mem"
)

// Index identifies a node in the tree, equivalently a unique stack content
// sequence. 0 is the empty trace and has no node record.
type Index uint64

type node struct {
	parent Index
	frame  frame.ID
}

// Tree is an append-only, interned call-stack tree. It is not safe for
// concurrent use; callers serialize access themselves.
type Tree struct {
	nodes mem.BucketSlice[node]
	index map[node]Index
}

// NewTree returns an empty Tree.
func NewTree() *Tree {
	return &Tree{
		index: make(map[node]Index),
	}
}

// GetTraceIndex folds stack from root to top, interning each (parent,
// frame) pair it hasn't seen before, and returns the index for the full
// sequence.
func (t *Tree) GetTraceIndex(stack []frame.ID) Index {
	cur := Index(0)
	for _, f := range stack {
		n := node{parent: cur, frame: f}
		if idx, ok := t.index[n]; ok {
			cur = idx
			continue
		}
		t.nodes.Append(n)
		// Node i (0-based) is stored at index i+1, reserving 0 for the
		// empty trace.
		idx := Index(t.nodes.Len())
		t.index[n] = idx
		cur = idx
	}
	return cur
}

// NextNode reverse-walks one step: given a non-zero index, it returns the
// frame id at that node and the index of its parent.
func (t *Tree) NextNode(idx Index) (frame.ID, Index) {
	n := t.nodes.Get(int(idx) - 1)
	return n.frame, n.parent
}
