package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ConfigName is the base name of the optional config file (without extension).
const ConfigName = ".flowexport"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file, environment variables and flags.
	// Priority: defaults → config file → environment variables → flags (flags win)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
	flags      *pflag.FlagSet
}

// Option customizes a Loader.
type Option func(*loader)

// WithConfigFile reads the given file instead of searching rootDir.
func WithConfigFile(path string) Option {
	return func(l *loader) {
		l.configFile = path
	}
}

// WithFlags binds command-line flags whose names match config keys.
// Only flags explicitly set on the command line override lower layers.
func WithFlags(flags *pflag.FlagSet) Option {
	return func(l *loader) {
		l.flags = flags
	}
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string, opts ...Option) Loader {
	l := &loader{
		rootDir: rootDir,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// flagKeys maps config keys to the flag names that override them.
var flagKeys = map[string]string{
	"src_dir": "src_dir",
	"out_dir": "out_dir",
	"verbose": "verbose",
	"workers": "workers",
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Command-line flags
// 2. Environment variables (FLOWEXPORT_*)
// 3. Config file (.flowexport.yml or .flowexport.yaml)
// 4. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(l.rootDir)
	}

	v.SetEnvPrefix("FLOWEXPORT")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., FLOWEXPORT_FORMAT_PYTHON)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("src_dir")
	v.BindEnv("out_dir")
	v.BindEnv("package")
	v.BindEnv("marker")
	v.BindEnv("workers")
	v.BindEnv("verbose")
	v.BindEnv("format.enabled")
	v.BindEnv("format.python")
	v.BindEnv("format.runtime_dir")

	setDefaults(v)

	if l.flags != nil {
		for key, name := range flagKeys {
			flag := l.flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; an explicitly named one is not
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || l.configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("src_dir", defaults.SrcDir)
	v.SetDefault("out_dir", defaults.OutDir)
	v.SetDefault("package", defaults.Package)
	v.SetDefault("marker", defaults.Marker)
	v.SetDefault("exclude", defaults.Exclude)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("merges", defaults.Merges)

	v.SetDefault("format.enabled", defaults.Format.Enabled)
	v.SetDefault("format.python", defaults.Format.Python)
	v.SetDefault("format.python_path", defaults.Format.PythonPath)
	v.SetDefault("format.runtime_dir", defaults.Format.RuntimeDir)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}
