package extractor

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
)

// ParseFiles parses files with at most workers concurrent tasks and returns
// the units in the same order as files. It returns only after every task has
// finished. The first failure cancels the remaining tasks and is returned.
//
// cache may be nil. progress.OnFileParsed is called from worker goroutines.
func ParseFiles(
	ctx context.Context,
	parser *Parser,
	discovery *FileDiscovery,
	files []string,
	workers int,
	cache *ParseCache,
	progress ProgressReporter,
) ([]*SourceUnit, error) {
	if progress == nil {
		progress = &NoOpProgressReporter{}
	}
	if workers <= 0 {
		workers = 1
	}

	units := make([]*SourceUnit, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, file := range files {
		g.Go(func() error {
			unit, err := parseOne(gctx, parser, discovery, file, cache)
			if err != nil {
				return err
			}
			units[i] = unit
			progress.OnFileParsed(file)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}

func parseOne(ctx context.Context, parser *Parser, discovery *FileDiscovery, file string, cache *ParseCache) (*SourceUnit, error) {
	relPath, err := discovery.RelPath(file)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", file, err)
	}

	var info os.FileInfo
	if cache != nil {
		info, err = os.Stat(file)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", file, err)
		}
		if unit, ok := cache.Get(file, info); ok {
			return unit, nil
		}
	}

	unit, err := parser.ParseFile(ctx, file, relPath)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		cache.Put(file, info, unit)
	}
	return unit, nil
}
