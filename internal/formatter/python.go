package formatter

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kluctl/go-embed-python/python"
	"github.com/mvp-joe/flowexport/internal/config"
)

// Interpreter builds commands that run under a Python interpreter.
type Interpreter interface {
	// Command returns an unstarted command for `python args...`.
	Command(ctx context.Context, args ...string) (*exec.Cmd, error)
}

// NewInterpreter selects the interpreter named by cfg.Python.
func NewInterpreter(cfg config.FormatConfig) (Interpreter, error) {
	if cfg.Python == config.EmbeddedPython {
		return newEmbeddedInterpreter(cfg)
	}
	return &systemInterpreter{path: cfg.Python, pythonPath: cfg.PythonPath}, nil
}

// systemInterpreter runs an interpreter found on PATH or given by path.
type systemInterpreter struct {
	path       string
	pythonPath []string
}

func (s *systemInterpreter) Command(ctx context.Context, args ...string) (*exec.Cmd, error) {
	bin, err := exec.LookPath(s.path)
	if err != nil {
		return nil, fmt.Errorf("python interpreter %q not found: %w", s.path, err)
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	if len(s.pythonPath) > 0 {
		entries := append([]string(nil), s.pythonPath...)
		if existing := os.Getenv("PYTHONPATH"); existing != "" {
			entries = append(entries, existing)
		}
		cmd.Env = append(os.Environ(), "PYTHONPATH="+strings.Join(entries, string(os.PathListSeparator)))
	}
	return cmd, nil
}

// embeddedInterpreter runs the Python runtime bundled into the binary. The
// formatting tools themselves must be reachable through python_path.
type embeddedInterpreter struct {
	ep *python.EmbeddedPython
}

func newEmbeddedInterpreter(cfg config.FormatConfig) (*embeddedInterpreter, error) {
	runtimeDir := cfg.RuntimeDir
	if runtimeDir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate cache directory: %w", err)
		}
		runtimeDir = filepath.Join(cacheDir, "flowexport", "python")
	}

	// Hash suffix keeps runtimes of different versions apart
	ep, err := python.NewEmbeddedPythonWithTmpDir(runtimeDir, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded python: %w", err)
	}
	for _, p := range cfg.PythonPath {
		ep.AddPythonPath(p)
	}
	return &embeddedInterpreter{ep: ep}, nil
}

func (e *embeddedInterpreter) Command(ctx context.Context, args ...string) (*exec.Cmd, error) {
	cmd, err := e.ep.PythonCmd(args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create python command: %w", err)
	}
	return withContext(ctx, cmd), nil
}

// withContext rebuilds an unstarted command so that it is killed when ctx is
// done, keeping its environment and working directory.
func withContext(ctx context.Context, cmd *exec.Cmd) *exec.Cmd {
	bound := exec.CommandContext(ctx, cmd.Path, cmd.Args[1:]...)
	bound.Env = cmd.Env
	bound.Dir = cmd.Dir
	return bound
}
