package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/mvp-joe/flowexport/internal/config"
	"github.com/mvp-joe/flowexport/internal/extractor"
	"github.com/mvp-joe/flowexport/internal/formatter"
	"github.com/spf13/cobra"
)

func runExtract(cmd *cobra.Command, args []string) error {
	// Set up context with cancellation for Ctrl+C
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	opts := []config.Option{config.WithFlags(cmd.Flags())}
	if cfgFile != "" {
		opts = append(opts, config.WithConfigFile(cfgFile))
	}
	cfg, err := config.NewLoader(rootDir, opts...).Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if noFormatFlag {
		cfg.Format.Enabled = false
	}

	ex, err := newExtractor(cfg, watchFlag)
	if err != nil {
		return err
	}

	result, err := ex.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("extraction cancelled")
		}
		return fmt.Errorf("extraction failed: %w", err)
	}

	if cfg.Verbose {
		if err := extractor.WriteTree(os.Stdout, cfg.OutDir, result.Paths); err != nil {
			return fmt.Errorf("failed to print output tree: %w", err)
		}
	}

	if !watchFlag {
		return nil
	}

	// Reruns report through the same progress reporter
	w, err := extractor.NewWatcher(ex, cfg.OutDir, nil)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	log.Printf("Watching %s for changes...", cfg.SrcDir)
	w.Start(ctx)
	<-ctx.Done()
	w.Stop()
	log.Println("Watch mode stopped")
	return nil
}

// newExtractor wires the formatter, progress reporting and, for watch mode,
// the parse cache into an Extractor.
func newExtractor(cfg *config.Config, watch bool) (*extractor.Extractor, error) {
	opts := []extractor.Option{
		extractor.WithProgress(NewCLIProgressReporter(cfg.Verbose)),
	}

	if cfg.Format.Enabled {
		python, err := formatter.NewInterpreter(cfg.Format)
		if err != nil {
			return nil, fmt.Errorf("failed to set up python interpreter: %w", err)
		}
		opts = append(opts, extractor.WithFormatter(formatter.NewRunner(python, cfg.Verbose)))
	}

	if watch {
		cache, err := extractor.NewParseCache(extractor.DefaultCacheCapacity)
		if err != nil {
			return nil, err
		}
		opts = append(opts, extractor.WithParseCache(cache))
	}

	ex, err := extractor.New(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}
	return ex, nil
}

func printSummary(r *extractor.Result) {
	fmt.Printf("✓ Extracted %s definitions from %s files into %s files (%s) in %.2fs\n",
		humanize.Comma(int64(r.Exported)),
		humanize.Comma(int64(r.SourceFiles)),
		humanize.Comma(int64(r.Files)),
		humanize.Bytes(uint64(r.Bytes)),
		r.Duration.Seconds())
}
