package scan

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"emperror.dev/errors"

	"github.com/idelchi/bigdu/internal/enumerate"
	"github.com/idelchi/bigdu/internal/ignore"
)

// DefaultProgressInterval is the default interval for progress updates.
const DefaultProgressInterval = 500 * time.Millisecond

// reportProgress hands a Progress snapshot to hook on every tick until ctx is
// done.
func reportProgress(ctx context.Context, b *Builder, hook func(Progress), interval time.Duration) {
	if hook == nil {
		return
	}

	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hook(b.Progress())
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Run scans the directory tree at opt.Path and returns it with every
// directory size computed, together with the largest file size found.
//
// If opt.Ignore is true, hidden entries and entries matched by .gitignore or
// .ignore files are left out. Errors on individual entries are skipped and
// counted; only an unusable root aborts the scan.
//
// Progress updates are sent to progressHook if provided.
func Run(ctx context.Context, opt Options, progressHook func(Progress)) (*Result, error) {
	log := opt.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	if opt.Path == "" {
		opt.Path = "."
	}

	opt.Path = filepath.Clean(opt.Path)

	// validate path exists and is accessible
	if statInfo, err := os.Stat(opt.Path); err != nil {
		return nil, errors.Wrapf(err, "accessing path %q", opt.Path)
	} else if !statInfo.IsDir() {
		return nil, errors.Errorf("path %q is not a directory", opt.Path)
	}

	var rules *ignore.Rules
	if opt.Ignore {
		rules = ignore.Load(opt.Path, log)
	}

	enum := enumerate.New(log)
	builder := NewBuilder(enum, rules, opt.Workers, log)

	// Create child context to ensure progress reporter cleanup
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reportProgress(ctx, builder, progressHook, opt.ProgressInterval)

	start := time.Now()

	build := builder.Build
	if opt.Flat || opt.Ignore {
		build = builder.BuildFlat
	}

	log.Debug("scanning", "path", opt.Path, "ignore", opt.Ignore, "flat", opt.Flat || opt.Ignore)

	root, err := build(ctx, opt.Path)
	if err != nil {
		return nil, errors.WrapIff(err, "scanning %q", opt.Path)
	}

	largest := root.Propagate()
	files, dirs := root.Count()

	result := &Result{
		Root:    root,
		Total:   root.Size(),
		Largest: largest,
		Files:   files,
		Dirs:    dirs,
		Skipped: enum.Skipped(),
		Elapsed: time.Since(start),
	}

	log.Debug("scan finished",
		"files", result.Files,
		"dirs", result.Dirs,
		"skipped", result.Skipped,
		"elapsed", result.Elapsed,
	)

	return result, nil
}
