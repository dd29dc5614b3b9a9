package node

// Visit walks the tree top-down and calls fn for every node whose size is at
// least cutoff. A directory below cutoff is skipped together with its whole
// subtree; no descendant can be larger than the directory holding it.
//
// Sibling order follows the order children were merged in and is not stable
// across scans.
func (n *Node) Visit(cutoff int64, fn func(*Node)) {
	if n.Size() < cutoff {
		return
	}

	fn(n)

	if n.Kind == File {
		return
	}

	for _, child := range n.children {
		child.Visit(cutoff, fn)
	}
}
