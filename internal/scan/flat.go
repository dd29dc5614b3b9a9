package scan

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/idelchi/bigdu/internal/enumerate"
	"github.com/idelchi/bigdu/internal/node"
)

// collector gathers entries from concurrent fastwalk callbacks using a mutex.
type collector struct {
	mu      sync.Mutex
	entries []enumerate.Entry
}

// add records an entry. fastwalk calls the callback from multiple goroutines
// concurrently.
func (c *collector) add(entry enumerate.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, entry)
}

// BuildFlat produces the same tree as Build from a single flattened walk of
// root. Directory nodes are created for every directory the walk reports and
// entries are attached to their parents once the walk has finished.
func (b *Builder) BuildFlat(ctx context.Context, root string) (*node.Node, error) {
	root = filepath.Clean(root)

	c := &collector{}

	err := b.enum.Walk(ctx, root, b.rules, func(entry enumerate.Entry) error {
		if entry.Dir {
			b.dirs.Add(1)
		} else {
			b.files.Add(1)
			b.bytes.Add(entry.Size)
		}

		c.add(entry)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return assemble(root, c.entries), nil
}

// assemble links flattened entries into a tree rooted at root.
func assemble(root string, entries []enumerate.Entry) *node.Node {
	dirs := make(map[string]*node.Node, len(entries)/4+1)
	dirs[root] = node.NewDir(root)

	nodes := make([]*node.Node, len(entries))

	for i, entry := range entries {
		if entry.Dir {
			nodes[i] = node.NewDir(entry.Path)
			dirs[entry.Path] = nodes[i]
		} else {
			nodes[i] = node.NewFile(entry.Path, entry.Size)
		}
	}

	batches := make(map[*node.Node][]*node.Node, len(dirs))

	for _, n := range nodes {
		parent, ok := dirs[filepath.Dir(n.Path)]
		if !ok {
			continue
		}

		batches[parent] = append(batches[parent], n)
	}

	for parent, batch := range batches {
		parent.Merge(batch)
	}

	return dirs[root]
}
