package scan

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/idelchi/bigdu/internal/enumerate"
	"github.com/idelchi/bigdu/internal/ignore"
	"github.com/idelchi/bigdu/internal/node"
)

// Builder turns a directory on disk into a tree of nodes.
//
// Work fans out over a pool of at most Workers goroutines shared by the whole
// build. When every slot is taken, work runs inline on the goroutine that
// produced it, so deep trees never block waiting for a slot.
type Builder struct {
	enum    *enumerate.Enumerator
	rules   *ignore.Rules
	log     *slog.Logger
	workers int
	sem     *semaphore.Weighted

	dirs  atomic.Int64
	files atomic.Int64
	bytes atomic.Int64
}

// NewBuilder creates a Builder. rules may be nil to disable ignore handling,
// workers <= 0 selects GOMAXPROCS.
func NewBuilder(enum *enumerate.Enumerator, rules *ignore.Rules, workers int, log *slog.Logger) *Builder {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Builder{
		enum:    enum,
		rules:   rules,
		log:     log,
		workers: workers,
		sem:     semaphore.NewWeighted(int64(workers)),
	}
}

// Progress reports how much of the tree has been discovered so far.
func (b *Builder) Progress() Progress {
	return Progress{Dirs: b.dirs.Load(), Files: b.files.Load(), Bytes: b.bytes.Load()}
}

// Build lists root and everything beneath it, returning the populated root
// directory. Only a failure to list root itself is returned; errors below it
// are logged and skipped.
func (b *Builder) Build(ctx context.Context, root string) (*node.Node, error) {
	entries, err := b.enum.ReadDir(root, b.rules)
	if err != nil {
		return nil, err
	}

	dir := node.NewDir(root)

	b.fill(ctx, dir, entries, b.rules)

	return dir, ctx.Err()
}

// fill populates dir from its entries. The entries are split into up to
// b.workers chunks; each chunk is folded into a private slice, recursing into
// subdirectories, and merged into dir once.
func (b *Builder) fill(ctx context.Context, dir *node.Node, entries []enumerate.Entry, rules *ignore.Rules) {
	chunks := partition(entries, b.workers)

	var wg sync.WaitGroup

	for i, chunk := range chunks {
		// The last chunk always runs here; the others go to a free slot if any.
		if i < len(chunks)-1 && b.sem.TryAcquire(1) {
			wg.Add(1)

			go func() {
				defer wg.Done()
				defer b.sem.Release(1)

				dir.Merge(b.fold(ctx, chunk, rules))
			}()

			continue
		}

		dir.Merge(b.fold(ctx, chunk, rules))
	}

	wg.Wait()
}

// fold builds the nodes for one chunk of entries.
func (b *Builder) fold(ctx context.Context, chunk []enumerate.Entry, rules *ignore.Rules) []*node.Node {
	out := make([]*node.Node, 0, len(chunk))

	for _, entry := range chunk {
		if ctx.Err() != nil {
			return out
		}

		if !entry.Dir {
			b.files.Add(1)
			b.bytes.Add(entry.Size)

			out = append(out, node.NewFile(entry.Path, entry.Size))

			continue
		}

		b.dirs.Add(1)

		child := node.NewDir(entry.Path)
		childRules := rules.Descend(entry.Path)

		children, err := b.enum.ReadDir(entry.Path, childRules)
		if err != nil {
			b.log.Debug("skipping unreadable directory", "path", entry.Path, "error", err)
		} else {
			b.fill(ctx, child, children, childRules)
		}

		out = append(out, child)
	}

	return out
}

// partition splits entries into at most n contiguous chunks of near-equal size.
func partition(entries []enumerate.Entry, n int) [][]enumerate.Entry {
	if len(entries) == 0 {
		return nil
	}

	n = max(min(n, len(entries)), 1)

	chunks := make([][]enumerate.Entry, 0, n)
	size, rest := len(entries)/n, len(entries)%n

	for i, start := 0, 0; i < n; i++ {
		end := start + size
		if i < rest {
			end++
		}

		chunks = append(chunks, entries[start:end])
		start = end
	}

	return chunks
}
