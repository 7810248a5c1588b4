package config

import (
	"runtime"
)

// Config represents the complete flowexport configuration.
// It can be loaded from .flowexport.yml with environment variable and flag overrides.
type Config struct {
	SrcDir  string        `yaml:"src_dir" mapstructure:"src_dir"`   // source tree to extract from
	OutDir  string        `yaml:"out_dir" mapstructure:"out_dir"`   // output tree, deleted and recreated on every run
	Package string        `yaml:"package" mapstructure:"package"`   // root package directory under out_dir
	Marker  string        `yaml:"marker" mapstructure:"marker"`     // decorator name that marks an export
	Exclude []string      `yaml:"exclude" mapstructure:"exclude"`   // glob patterns for source paths to skip
	Workers int           `yaml:"workers" mapstructure:"workers"`   // parse pool size
	Verbose bool          `yaml:"verbose" mapstructure:"verbose"`   // per-file logging, formatters not quiet
	Merges  []MergeConfig `yaml:"merges" mapstructure:"merges"`     // source files folded into generated files
	Format  FormatConfig  `yaml:"format" mapstructure:"format"`     // external cleanup tools
}

// MergeConfig folds the statements of a source file into a generated file.
// To is relative to out_dir.
type MergeConfig struct {
	From string `yaml:"from" mapstructure:"from"`
	To   string `yaml:"to" mapstructure:"to"`
}

// FormatConfig configures the autoflake/isort/black pass over the output tree.
type FormatConfig struct {
	Enabled    bool     `yaml:"enabled" mapstructure:"enabled"`
	Python     string   `yaml:"python" mapstructure:"python"`           // interpreter path, or "embedded"
	PythonPath []string `yaml:"python_path" mapstructure:"python_path"` // extra PYTHONPATH entries for the tools
	RuntimeDir string   `yaml:"runtime_dir" mapstructure:"runtime_dir"` // extraction dir for the embedded runtime
}

// EmbeddedPython selects the bundled interpreter instead of one on PATH.
const EmbeddedPython = "embedded"

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		SrcDir:  "oneflow/python",
		OutDir:  "python",
		Package: "oneflow",
		Marker:  "oneflow_export",
		Exclude: []string{
			"**/python/test*/**",
			"**/__pycache__/**",
		},
		Workers: runtime.NumCPU(),
		Verbose: false,
		Merges:  []MergeConfig{},
		Format: FormatConfig{
			Enabled:    true,
			Python:     "python3",
			PythonPath: []string{},
			RuntimeDir: "", // Empty means os.UserCacheDir()/flowexport/python
		},
	}
}
