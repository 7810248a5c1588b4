package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gobwas/glob"
)

var (
	// ErrEmptyOutDir indicates a missing output directory
	ErrEmptyOutDir = errors.New("empty output directory")

	// ErrUnsafeOutDir indicates an output directory that must never be wiped
	ErrUnsafeOutDir = errors.New("unsafe output directory")

	// ErrEmptySrcDir indicates a missing source directory
	ErrEmptySrcDir = errors.New("empty source directory")

	// ErrInvalidPackage indicates a package name that is not a Python identifier
	ErrInvalidPackage = errors.New("invalid package name")

	// ErrEmptyMarker indicates a missing export decorator name
	ErrEmptyMarker = errors.New("empty export marker")

	// ErrInvalidWorkers indicates a non-positive parse pool size
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidPattern indicates an exclude glob that does not compile
	ErrInvalidPattern = errors.New("invalid exclude pattern")

	// ErrInvalidMerge indicates an incomplete merge entry
	ErrInvalidMerge = errors.New("invalid merge")

	// ErrEmptyPython indicates formatting is enabled without an interpreter
	ErrEmptyPython = errors.New("empty python interpreter")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateDirs(cfg); err != nil {
		errs = append(errs, err)
	}

	if err := validateExtraction(cfg); err != nil {
		errs = append(errs, err)
	}

	if err := validateFormat(&cfg.Format); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateDirs(cfg *Config) error {
	var errs []error

	if strings.TrimSpace(cfg.SrcDir) == "" {
		errs = append(errs, fmt.Errorf("%w: src_dir is required", ErrEmptySrcDir))
	}

	if err := ValidateOutDir(cfg.OutDir); err != nil {
		errs = append(errs, err)
	} else if strings.TrimSpace(cfg.SrcDir) != "" {
		if err := validateOutDirPlacement(cfg.OutDir, cfg.SrcDir); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// validateOutDirPlacement rejects an output directory that is the source
// directory or one of its ancestors, since resetting it would delete the
// sources. An output directory nested inside the sources is allowed.
func validateOutDirPlacement(outDir, srcDir string) error {
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafeOutDir, err)
	}
	absSrc, err := filepath.Abs(srcDir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafeOutDir, err)
	}

	if absSrc == absOut || strings.HasPrefix(absSrc, absOut+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s contains src_dir %s", ErrUnsafeOutDir, outDir, srcDir)
	}
	return nil
}

// ValidateOutDir rejects output directories that are empty, the filesystem
// root, or the user's home directory. The output directory is deleted on
// every run.
func ValidateOutDir(outDir string) error {
	if strings.TrimSpace(outDir) == "" {
		return fmt.Errorf("%w: out_dir is required", ErrEmptyOutDir)
	}

	if filepath.Clean(outDir) == "~" {
		return fmt.Errorf("%w: %s is the home directory", ErrUnsafeOutDir, outDir)
	}

	abs, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafeOutDir, err)
	}

	if abs == filepath.VolumeName(abs)+string(filepath.Separator) {
		return fmt.Errorf("%w: %s is the filesystem root", ErrUnsafeOutDir, outDir)
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		if abs == filepath.Clean(home) {
			return fmt.Errorf("%w: %s is the home directory", ErrUnsafeOutDir, outDir)
		}
	}

	return nil
}

func validateExtraction(cfg *Config) error {
	var errs []error

	if !IsIdentifier(cfg.Package) {
		errs = append(errs, fmt.Errorf("%w: %q is not an identifier", ErrInvalidPackage, cfg.Package))
	}

	if strings.TrimSpace(cfg.Marker) == "" {
		errs = append(errs, fmt.Errorf("%w: marker is required", ErrEmptyMarker))
	}

	if cfg.Workers <= 0 {
		errs = append(errs, fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidWorkers, cfg.Workers))
	}

	for _, pattern := range cfg.Exclude {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %v", ErrInvalidPattern, pattern, err))
		}
	}

	for i, m := range cfg.Merges {
		if strings.TrimSpace(m.From) == "" || strings.TrimSpace(m.To) == "" {
			errs = append(errs, fmt.Errorf("%w: merges[%d] needs both from and to", ErrInvalidMerge, i))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateFormat(cfg *FormatConfig) error {
	// Interpreter is only needed when the tools actually run
	if cfg.Enabled && strings.TrimSpace(cfg.Python) == "" {
		return fmt.Errorf("%w: format.python is required when formatting is enabled", ErrEmptyPython)
	}
	return nil
}

// IsIdentifier reports whether s is usable as a Python identifier: a letter
// or underscore followed by letters, digits or underscores.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

// joinErrors combines multiple errors into a single error with clear formatting.
// The result still matches every joined sentinel with errors.Is.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return &validationError{
		msg:  fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - ")),
		errs: errs,
	}
}

type validationError struct {
	msg  string
	errs []error
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() []error { return e.errs }
