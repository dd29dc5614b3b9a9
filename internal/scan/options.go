package scan

import (
	"log/slog"
	"math"
	"time"

	"github.com/idelchi/bigdu/internal/node"
)

// Options configures a scan.
type Options struct {
	// Path is the directory to scan.
	Path string
	// Ignore enables hidden-file and ignore-file filtering.
	Ignore bool
	// Flat builds the tree from one flattened walk instead of per-directory
	// listings. Ignore mode implies it.
	Flat bool
	// Workers bounds the number of concurrent workers (0 = GOMAXPROCS).
	Workers int
	// ProgressInterval controls progress callback cadence.
	ProgressInterval time.Duration
	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Progress is a snapshot of a scan in flight.
type Progress struct {
	// Dirs is the number of directories entered so far.
	Dirs int64
	// Files is the number of files sized so far.
	Files int64
	// Bytes is the cumulative size of those files.
	Bytes int64
}

// Result is a finished, size-annotated scan.
type Result struct {
	// Root is the scanned directory with every size computed.
	Root *node.Node
	// Total is the cumulative size of all files in bytes.
	Total int64
	// Largest is the size of the largest single file in bytes.
	Largest int64
	// Files is the number of files in the tree.
	Files int
	// Dirs is the number of directories in the tree, root excluded.
	Dirs int
	// Skipped is the number of entries left out because of errors.
	Skipped int64
	// Elapsed is the total time taken by the scan.
	Elapsed time.Duration
}

// Cutoff returns the report threshold in bytes: percent of largest.
// Results beyond the int64 range saturate, a NaN percent gives 0.
func Cutoff(largest int64, percent float64) int64 {
	cutoff := float64(largest) * (percent / 100.0)

	switch {
	case math.IsNaN(cutoff) || cutoff <= 0:
		return 0
	case cutoff >= math.MaxInt64:
		return math.MaxInt64
	default:
		return int64(cutoff)
	}
}
