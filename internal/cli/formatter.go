package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/idelchi/bigdu/internal/node"
	"github.com/idelchi/bigdu/internal/scan"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2
)

// PrintReport writes one line per node at or above cutoff, followed by the
// total size and the largest file size.
func PrintReport(result *scan.Result, cutoff int64, writer io.Writer) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	result.Root.Visit(cutoff, func(n *node.Node) {
		fmt.Fprintf(w, "%s\t%s\t%s\n", humanize.IBytes(uint64(n.Size())), n.Kind, n.Path) //nolint:gosec // Sizes are never negative
	})

	if err := w.Flush(); err != nil {
		return err
	}

	//nolint:gosec // Sizes are never negative
	if _, err := fmt.Fprintf(writer, "Total size: %s\nLargest child: %s\n",
		humanize.IBytes(uint64(result.Total)), humanize.IBytes(uint64(result.Largest))); err != nil {
		return err
	}

	return nil
}
