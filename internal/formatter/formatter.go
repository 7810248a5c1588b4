package formatter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
)

// ToolError reports a cleanup tool that exited unsuccessfully.
type ToolError struct {
	Tool     string
	ExitCode int
	Err      error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s failed with exit code %d: %v", e.Tool, e.ExitCode, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Tool is one Python module run as `python -m <Module> <args>`.
type Tool struct {
	Module string
	// Args returns the arguments after the module name. quiet is true unless
	// verbose output was requested.
	Args func(quiet bool) []string
}

// DefaultTools removes unused imports and variables, sorts imports, then formats.
var DefaultTools = []Tool{
	{
		Module: "autoflake",
		Args: func(quiet bool) []string {
			return []string{"--in-place", "--remove-unused-variables", "--recursive", "."}
		},
	},
	{
		Module: "isort",
		Args: func(quiet bool) []string {
			if quiet {
				return []string{".", "--quiet"}
			}
			return []string{"."}
		},
	},
	{
		Module: "black",
		Args: func(quiet bool) []string {
			if quiet {
				return []string{".", "--quiet"}
			}
			return []string{"."}
		},
	},
}

// Runner runs the cleanup tools in sequence over a directory.
type Runner struct {
	python  Interpreter
	tools   []Tool
	verbose bool
	stdout  io.Writer
	stderr  io.Writer
}

// NewRunner creates a runner for DefaultTools.
func NewRunner(python Interpreter, verbose bool) *Runner {
	return &Runner{
		python:  python,
		tools:   DefaultTools,
		verbose: verbose,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

// WithTools replaces the tool list.
func (r *Runner) WithTools(tools []Tool) *Runner {
	r.tools = tools
	return r
}

// WithOutput redirects tool output.
func (r *Runner) WithOutput(stdout, stderr io.Writer) *Runner {
	r.stdout = stdout
	r.stderr = stderr
	return r
}

// Format runs every tool with dir as the working directory. The first tool
// that fails stops the sequence.
func (r *Runner) Format(ctx context.Context, dir string) error {
	for _, tool := range r.tools {
		args := append([]string{"-m", tool.Module}, tool.Args(!r.verbose)...)

		cmd, err := r.python.Command(ctx, args...)
		if err != nil {
			return &ToolError{Tool: tool.Module, ExitCode: 1, Err: err}
		}
		cmd.Dir = dir
		cmd.Stdout = r.stdout
		cmd.Stderr = r.stderr

		if r.verbose {
			log.Printf("[format] %s", strings.Join(args, " "))
		}

		if err := cmd.Run(); err != nil {
			code := 1
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
				code = exitErr.ExitCode()
			}
			return &ToolError{Tool: tool.Module, ExitCode: code, Err: err}
		}
	}
	return nil
}
