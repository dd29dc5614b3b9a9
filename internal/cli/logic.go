package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/idelchi/bigdu/internal/scan"
)

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func logic(ctx context.Context, options Options, stdout, stderr io.Writer) error {
	log := newLogger(stderr, options.Debug)

	var (
		progressHook func(scan.Progress)
		status       *statusLine
	)

	if !options.Debug && stderr == os.Stderr && isatty.IsTerminal(os.Stderr.Fd()) {
		status = newStatusLine(stderr, options.Path)
		defer status.clear()

		progressHook = status.update
	}

	result, err := scan.Run(ctx, scan.Options{
		Path:   options.Path,
		Ignore: options.Ignore,
		Logger: log,
	}, progressHook)

	// The report goes to the same terminal; drop the status line first.
	if status != nil {
		status.clear()
	}

	if err != nil {
		return err
	}

	if result.Skipped > 0 {
		log.Warn("some entries could not be read and were skipped", "count", result.Skipped)
	}

	return PrintReport(result, scan.Cutoff(result.Largest, options.Percent), stdout)
}
