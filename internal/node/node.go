// Package node models a scanned directory tree as files and directories
// carrying byte sizes.
package node

import (
	"sync"
)

// Kind distinguishes the two node variants.
type Kind uint8

const (
	// File is a leaf carrying its own size.
	File Kind = iota
	// Dir is a composite whose size is the sum of its descendants.
	Dir
)

// String returns the single-letter marker used in reports.
func (k Kind) String() string {
	if k == Dir {
		return "d"
	}

	return "f"
}

// Node is either a file or a directory.
//
// A directory's children are appended during tree construction, possibly by many
// goroutines, and are read-only afterwards. Its size is unset until Propagate runs.
type Node struct {
	// Kind tells files and directories apart.
	Kind Kind
	// Path is the filesystem path the node was discovered at.
	Path string

	size     int64
	computed bool

	mu       sync.Mutex // guards children during construction
	children []*Node
}

// NewFile returns a file node. Negative sizes are clamped to zero.
func NewFile(path string, size int64) *Node {
	return &Node{Kind: File, Path: path, size: max(size, 0), computed: true}
}

// NewDir returns an empty directory node.
func NewDir(path string) *Node {
	return &Node{Kind: Dir, Path: path}
}

// IsDir reports whether n is a directory.
func (n *Node) IsDir() bool {
	return n.Kind == Dir
}

// Merge appends a batch of children built privately by one worker.
// It is a no-op on files and on empty batches.
func (n *Node) Merge(batch []*Node) {
	if n.Kind != Dir || len(batch) == 0 {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.children = append(n.children, batch...)
}

// Children returns a snapshot of the node's children.
func (n *Node) Children() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]*Node, len(n.children))
	copy(out, n.children)

	return out
}

// Size returns the total size in bytes. For a directory it is zero until
// Propagate has run.
func (n *Node) Size() int64 {
	if !n.computed {
		return 0
	}

	return n.size
}

// Computed reports whether the size is final.
func (n *Node) Computed() bool {
	return n.computed
}

// Largest returns the largest file size at or beneath n.
// An empty directory reports zero.
func (n *Node) Largest() int64 {
	if n.Kind == File {
		return n.size
	}

	var largest int64

	for _, child := range n.children {
		largest = max(largest, child.Largest())
	}

	return largest
}

// Propagate computes the size of every directory beneath and including n,
// children before parents, and returns the largest file size in the tree.
// The tree must not change shape while it runs.
func (n *Node) Propagate() int64 {
	if n.Kind == File {
		return n.size
	}

	var total, largest int64

	for _, child := range n.children {
		largest = max(largest, child.Propagate())
		total += child.size
	}

	n.size = total
	n.computed = true

	return largest
}

// Count returns the number of files and directories beneath n, n excluded.
func (n *Node) Count() (files, dirs int) {
	for _, child := range n.children {
		if child.Kind == File {
			files++

			continue
		}

		f, d := child.Count()
		files += f
		dirs += d + 1
	}

	return files, dirs
}
