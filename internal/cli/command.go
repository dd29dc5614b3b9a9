package cli

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// Options holds the parsed command line.
type Options struct {
	// Path is the directory to scan, after shell expansion.
	Path string
	// Percent is the report threshold as a percentage of the largest file.
	Percent float64
	// Ignore enables hidden-file and ignore-file filtering.
	Ignore bool
	// Debug enables debug logging.
	Debug bool
}

// DefaultPercent is the default report threshold.
const DefaultPercent = 50.0

// envFlags maps flag names to the environment variables that can set them.
//
//nolint:gochecknoglobals // Config constant
var envFlags = map[string]string{
	"percent": "PERCENT",
	"ignore":  "IGNORE",
}

// applyEnv sets every flag not given on the command line from its
// environment variable, if present. Values are parsed by the flag itself.
func applyEnv(flags *pflag.FlagSet) error {
	for name, env := range envFlags {
		value, ok := os.LookupEnv(env)
		if !ok || value == "" || flags.Changed(name) {
			continue
		}

		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("invalid %s=%q: %w", env, value, err)
		}
	}

	return nil
}

// Execute runs the CLI with the process arguments.
func (c CLI) Execute() error {
	return c.command().Execute()
}

func (c CLI) command() *cobra.Command {
	var options Options

	cmd := &cobra.Command{
		Use:   "bigdu [flags] <directory>",
		Short: "Report the files and directories that take up the most space",
		Long: heredoc.Doc(`
			bigdu scans a directory tree and reports every file and directory whose size
			is at least a given percentage of the single largest file found.

			Each reported line shows the size, 'f' for files or 'd' for directories, and
			the path. Directories below the threshold are not descended into.

			The directory argument may use '~' and environment variables.

			Environment:
			  PERCENT    default for --percent
			  IGNORE     default for --ignore
		`),
		Args:          cobra.ExactArgs(1),
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return applyEnv(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if options.Percent < 0 {
				return errors.New("percent cannot be negative")
			}

			if math.IsInf(options.Percent, 0) || math.IsNaN(options.Percent) {
				return fmt.Errorf("percent must be a finite number, got %v", options.Percent)
			}

			path, err := expandPath(args[0])
			if err != nil {
				return fmt.Errorf("expanding path %q: %w", args[0], err)
			}

			options.Path = path

			return logic(cmd.Context(), options, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.Float64VarP(&options.Percent, "percent", "p", DefaultPercent,
		"Show files and directories larger than this percentage of the largest file")
	flags.BoolVarP(&options.Ignore, "ignore", "i", false,
		"Skip hidden files and entries matched by .gitignore or .ignore files")
	flags.BoolVar(&options.Debug, "debug", false, "Enable debug output")
	flags.SortFlags = false

	return cmd
}
