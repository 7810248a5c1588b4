package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/mvp-joe/flowexport/internal/formatter"
	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	verbose      bool
	srcDir       string
	outDir       string
	workers      int
	noFormatFlag bool
	watchFlag    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flowexport",
	Short: "Regroup exported Python definitions into a package tree",
	Long: `flowexport reads a tree of Python sources, finds top-level functions and
classes decorated with the export marker (oneflow_export by default) and moves
them into generated modules named after their dotted export names.

For @oneflow_export("nn.functional.relu", "relu"):
  - the definition is written to <out_dir>/oneflow/nn/functional.py
  - <out_dir>/oneflow/__init__.py re-exports it with
    from oneflow.nn.functional import relu

Code without the marker is copied to the same relative path under
<out_dir>/oneflow/. Every output directory gets an __init__.py, and the tree is
cleaned with autoflake, isort and black.

The output directory is deleted and recreated on every run.

Examples:
  # Extract oneflow/python into python/
  flowexport

  # Explicit directories, with tool output
  flowexport --src_dir src/oneflow --out_dir build/python -v

  # Skip the formatting tools
  flowexport --no-format

  # Re-extract whenever a source file changes
  flowexport --watch
`,
	SilenceUsage: true,
	RunE:         runExtract,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitCode(err))
	}
}

// ExitCode maps a run error to the process exit status: a failing cleanup
// tool's own exit code, otherwise 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var toolErr *formatter.ToolError
	if errors.As(err, &toolErr) && toolErr.ExitCode > 0 {
		return toolErr.ExitCode
	}
	return 1
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./.flowexport.yml)")
	flags.StringVar(&srcDir, "src_dir", "oneflow/python", "source tree to extract from")
	flags.StringVar(&outDir, "out_dir", "python", "output directory (deleted and recreated)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "per-file logging and unquiet formatting tools")
	flags.IntVar(&workers, "workers", 0, "parallel parse workers (default: number of CPUs)")
	flags.BoolVar(&noFormatFlag, "no-format", false, "skip autoflake, isort and black")
	flags.BoolVarP(&watchFlag, "watch", "w", false, "re-extract when source files change")
}
