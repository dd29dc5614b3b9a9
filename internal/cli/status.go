package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/idelchi/bigdu/internal/scan"
)

// statusLine redraws a single terminal line with scan progress.
// Updates arriving after clear are dropped.
type statusLine struct {
	mu     sync.Mutex
	w      io.Writer
	root   string
	closed bool
}

func newStatusLine(w io.Writer, root string) *statusLine {
	// Hide cursor for in-place updates; clear restores it.
	fmt.Fprint(w, "\033[?25l")

	return &statusLine{w: w, root: root}
}

// update is a scan progress hook.
func (s *statusLine) update(p scan.Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	fmt.Fprintf(s.w, "\r\033[2K%s\r", describeProgress(s.root, p))
}

// clear erases the line and restores the cursor.
func (s *statusLine) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true

	fmt.Fprint(s.w, "\r\033[2K\r\033[?25h")
}

func describeProgress(root string, p scan.Progress) string {
	return fmt.Sprintf("sizing %s: %d dirs, %d files, %s so far",
		root, p.Dirs, p.Files, humanize.IBytes(uint64(p.Bytes))) //nolint:gosec // Bytes is always positive
}
