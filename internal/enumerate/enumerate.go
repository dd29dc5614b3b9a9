// Package enumerate lists directory entries with the metadata a size scan
// needs, optionally filtered through ignore rules.
//
// Errors on individual entries are absorbed: the entry is skipped, counted
// and logged at debug level. Only a directory that cannot be listed at all
// surfaces an error to the caller.
package enumerate

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"emperror.dev/errors"
	"github.com/charlievieth/fastwalk"

	"github.com/idelchi/bigdu/internal/ignore"
)

// Entry is a file or directory found during enumeration.
type Entry struct {
	// Path is the entry's path, joined onto the directory it was listed from.
	Path string
	// Size is the file size in bytes; zero for directories.
	Size int64
	// Dir is true for directories.
	Dir bool
}

// Enumerator lists directories. It is safe for concurrent use.
type Enumerator struct {
	log     *slog.Logger
	skipped atomic.Int64
}

// New creates an Enumerator logging to log. A nil logger discards output.
func New(log *slog.Logger) *Enumerator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Enumerator{log: log}
}

// Skipped returns how many entries were left out because of errors,
// including directories that could not be listed.
func (e *Enumerator) Skipped() int64 {
	return e.skipped.Load()
}

// skip records an entry that could not be enumerated.
func (e *Enumerator) skip(path string, err error) {
	e.skipped.Add(1)
	e.log.Debug("skipping entry", "path", path, "error", err)
}

// classify turns a directory entry into an Entry. It returns false for
// entries that are ignored, unreadable, or neither regular files nor
// directories.
func (e *Enumerator) classify(path string, d fs.DirEntry, rules *ignore.Rules) (Entry, bool) {
	if rules.Ignored(path, d.IsDir()) {
		e.log.Debug("ignoring entry", "path", path)

		return Entry{}, false
	}

	if d.IsDir() {
		return Entry{Path: path, Dir: true}, true
	}

	if !d.Type().IsRegular() {
		e.log.Debug("skipping irregular entry", "path", path, "mode", d.Type().String())

		return Entry{}, false
	}

	info, err := d.Info()
	if err != nil {
		e.skip(path, err)

		return Entry{}, false
	}

	return Entry{Path: path, Size: info.Size()}, true
}

// ReadDir returns the immediate entries of dir that survive rules.
// Symlinks are not followed.
func (e *Enumerator) ReadDir(dir string, rules *ignore.Rules) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil && len(dirEntries) == 0 {
		e.skipped.Add(1)

		return nil, errors.WrapIf(err, "enumerate: reading directory")
	}

	if err != nil {
		// Partial listing: keep what was read.
		e.skip(dir, err)
	}

	entries := make([]Entry, 0, len(dirEntries))

	for _, d := range dirEntries {
		if entry, ok := e.classify(filepath.Join(dir, d.Name()), d, rules); ok {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// Walk enumerates every entry beneath root, across all depths, and calls fn
// for each one that survives rules. Ignored directories are not descended
// into. Symlinks are not followed.
//
// fn is called from multiple goroutines concurrently. Returning an error from
// fn aborts the walk.
func (e *Enumerator) Walk(ctx context.Context, root string, rules *ignore.Rules, fn func(Entry) error) error {
	root = filepath.Clean(root)

	// Rules per visited directory; a directory's rules are stored while its
	// own entry is handled, before fastwalk reads its contents.
	var levels sync.Map

	levels.Store(root, rules)

	rulesFor := func(dir string) *ignore.Rules {
		if v, ok := levels.Load(dir); ok {
			return v.(*ignore.Rules) //nolint:forcetypeassert // Only *ignore.Rules are stored
		}

		return rules
	}

	conf := &fastwalk.Config{
		Follow: false, // Don't follow symlinks
	}

	//nolint:varnamelen // d is standard for DirEntry
	walkErr := fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
		path = filepath.Clean(path)

		if err != nil {
			if path == root {
				return err
			}

			e.skip(path, err)

			return nil
		}

		if path == root {
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		parentRules := rulesFor(filepath.Dir(path))

		entry, ok := e.classify(path, d, parentRules)
		if !ok {
			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if entry.Dir {
			levels.Store(path, parentRules.Descend(path))
		}

		return fn(entry)
	})

	return errors.WrapIf(walkErr, "enumerate: walking directory")
}
