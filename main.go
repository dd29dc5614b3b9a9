// Command bigdu reports the largest files and directories in a tree.
package main

import (
	"fmt"
	"os"

	"github.com/idelchi/bigdu/internal/cli"
)

// version is set at build time.
//
//nolint:gochecknoglobals // Set via ldflags
var version = "unknown - unofficial build"

func main() {
	if err := cli.New(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
