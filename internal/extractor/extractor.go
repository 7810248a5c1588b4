package extractor

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/mvp-joe/flowexport/internal/config"
)

// Formatter post-processes the finished output tree.
type Formatter interface {
	Format(ctx context.Context, dir string) error
}

// Result describes a completed extraction run.
type Result struct {
	SourceFiles    int
	SkippedDirs    int
	Exported       int
	Aliases        int
	Mirrored       int
	Merged         int
	Files          int
	Bytes          int64
	MarkersCreated int
	Cycles         [][]string
	Paths          []string // generated files relative to the output directory
	Duration       time.Duration
}

// Extractor runs the discover → parse → route → save → format pipeline.
type Extractor struct {
	cfg       *config.Config
	parser    *Parser
	discovery *FileDiscovery
	formatter Formatter
	progress  ProgressReporter
	cache     *ParseCache
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithFormatter runs f over the output tree after it is written.
func WithFormatter(f Formatter) Option {
	return func(e *Extractor) {
		e.formatter = f
	}
}

// WithProgress reports progress to p.
func WithProgress(p ProgressReporter) Option {
	return func(e *Extractor) {
		e.progress = p
	}
}

// WithParseCache reuses parsed files across runs of the same Extractor.
func WithParseCache(c *ParseCache) Option {
	return func(e *Extractor) {
		e.cache = c
	}
}

// New creates an Extractor for a validated configuration.
func New(cfg *config.Config, opts ...Option) (*Extractor, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	discovery, err := NewFileDiscovery(cfg.SrcDir, cfg.Exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to compile exclude patterns: %w", err)
	}
	// The previous run's output must never be read back as source
	if err := discovery.SkipTree(cfg.OutDir); err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}

	e := &Extractor{
		cfg:       cfg,
		parser:    NewParser(),
		discovery: discovery,
		progress:  &NoOpProgressReporter{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.progress == nil {
		e.progress = &NoOpProgressReporter{}
	}
	return e, nil
}

// Discovery exposes the file discovery used by this extractor.
func (e *Extractor) Discovery() *FileDiscovery {
	return e.discovery
}

// Run performs one full extraction. Every error is fatal; files already
// written are left in place.
func (e *Extractor) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{}

	// Phase 1: discover and parse
	files, skipped, err := e.discovery.DiscoverFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to discover source files: %w", err)
	}
	result.SourceFiles = len(files)
	result.SkippedDirs = len(skipped)
	e.progress.OnDiscoveryComplete(len(files), skipped)

	e.progress.OnParseStart(len(files))
	units, err := ParseFiles(ctx, e.parser, e.discovery, files, e.cfg.Workers, e.cache, e.progress)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sources: %w", err)
	}
	e.progress.OnParseComplete()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 2: route every unit into the run's destination files
	dests := NewDestSet()
	modules := NewModuleGraph()
	router := NewRouter(e.cfg.Package, e.cfg.Marker, sourceBase(e.cfg.SrcDir), dests, modules)
	for _, unit := range units {
		if err := router.Route(unit); err != nil {
			return nil, err
		}
	}
	stats := router.Stats()
	result.Exported = stats.Exported
	result.Aliases = stats.Aliases
	result.Mirrored = stats.Mirrored

	for _, m := range e.cfg.Merges {
		unit, err := e.parser.ParseFile(ctx, m.From, filepath.Base(m.From))
		if err != nil {
			return nil, fmt.Errorf("failed to parse merge source: %w", err)
		}
		if err := dests.Merge(unit, filepath.ToSlash(m.To)); err != nil {
			return nil, err
		}
		result.Merged++
	}

	cycles, err := modules.Cycles()
	if err != nil {
		return nil, err
	}
	result.Cycles = cycles
	for _, c := range cycles {
		log.Printf("Warning: circular alias imports between %s", strings.Join(c, ", "))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 3: write the output tree
	if err := ResetOutDir(e.cfg.OutDir, e.cfg.Package); err != nil {
		return nil, err
	}

	e.progress.OnSaveStart(dests.Len())
	saved, err := dests.Save(e.cfg.OutDir, e.progress.OnFileSaved)
	if err != nil {
		return nil, err
	}
	result.Files = saved.Files
	result.Bytes = saved.Bytes
	result.Paths = dests.Paths()

	markers, err := EnsurePackageMarkers(e.cfg.OutDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create package markers: %w", err)
	}
	result.MarkersCreated = len(markers)

	if e.formatter != nil {
		if err := e.formatter.Format(ctx, e.cfg.OutDir); err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(start)
	e.progress.OnComplete(result)
	return result, nil
}

// sourceBase is the directory name of the source root kept in mirrored paths.
func sourceBase(srcDir string) string {
	abs, err := filepath.Abs(srcDir)
	if err != nil {
		return filepath.Base(filepath.Clean(srcDir))
	}
	return filepath.Base(abs)
}
