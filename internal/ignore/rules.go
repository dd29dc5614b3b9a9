// Package ignore decides which entries of a directory tree are excluded by
// ignore-file conventions: hidden names and patterns from .gitignore and
// .ignore files found along the way.
package ignore

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Files lists the ignore files honored in every directory, in load order.
//
//nolint:gochecknoglobals // Config constant
var Files = []string{".gitignore", ".ignore"}

// Rules is one level of a chain of ignore rules. Each level holds the
// patterns declared in a single directory; patterns are matched against
// paths relative to that directory.
//
// A nil *Rules ignores nothing.
type Rules struct {
	parent   *Rules
	dir      string
	matchers []gitignore.IgnoreParser
	log      *slog.Logger
}

// Load returns the rules in effect for root.
func Load(root string, log *slog.Logger) *Rules {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return (&Rules{dir: root, log: log}).Descend(root)
}

// Descend returns the rules in effect inside dir, a direct child of the
// directory r was built for. When dir declares no patterns r itself is
// returned.
func (r *Rules) Descend(dir string) *Rules {
	if r == nil {
		return nil
	}

	var matchers []gitignore.IgnoreParser

	for _, name := range Files {
		path := filepath.Join(dir, name)

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}

		matcher, err := gitignore.CompileIgnoreFile(path)
		if err != nil {
			r.log.Debug("skipping ignore file", "path", path, "error", err)

			continue
		}

		r.log.Debug("loaded ignore file", "path", path)

		matchers = append(matchers, matcher)
	}

	if len(matchers) == 0 {
		return r
	}

	return &Rules{parent: r, dir: dir, matchers: matchers, log: r.log}
}

// Ignored reports whether path should be left out of a scan.
func (r *Rules) Ignored(path string, isDir bool) bool {
	if r == nil {
		return false
	}

	if strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}

	for level := r; level != nil; level = level.parent {
		if level.matches(path, isDir) {
			return true
		}
	}

	return false
}

func (r *Rules) matches(path string, isDir bool) bool {
	if len(r.matchers) == 0 {
		return false
	}

	rel, err := filepath.Rel(r.dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}

	rel = filepath.ToSlash(rel)

	for _, m := range r.matchers {
		if m.MatchesPath(rel) {
			return true
		}

		// Patterns with a trailing slash only match directories.
		if isDir && m.MatchesPath(rel+"/") {
			return true
		}
	}

	return false
}
