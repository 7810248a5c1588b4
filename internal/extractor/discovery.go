package extractor

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// FileDiscovery finds the Python sources to extract, honoring exclude globs.
type FileDiscovery struct {
	rootDir         string
	excludePatterns []compiledPattern
	skipTrees       []string // absolute directories never walked
}

// NewFileDiscovery creates a new file discovery instance.
func NewFileDiscovery(rootDir string, excludePatterns []string) (*FileDiscovery, error) {
	fd := &FileDiscovery{
		rootDir: rootDir,
	}

	for _, pattern := range excludePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		fd.excludePatterns = append(fd.excludePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	return fd, nil
}

// SkipTree excludes dir and everything below it from discovery, whatever
// the exclude patterns say. Used for an output directory nested in the root.
func (fd *FileDiscovery) SkipTree(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	fd.skipTrees = append(fd.skipTrees, abs)
	return nil
}

// RootDir returns the directory being walked.
func (fd *FileDiscovery) RootDir() string {
	return fd.rootDir
}

// DiscoverFiles walks the directory tree and returns every .py file in
// lexical order, along with the directories that were skipped.
func (fd *FileDiscovery) DiscoverFiles() (files []string, skipped []string, err error) {
	files = []string{}

	err = filepath.Walk(fd.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if fd.inSkippedTree(path) {
				skipped = append(skipped, path)
				return filepath.SkipDir
			}
			if path != fd.rootDir && fd.ShouldExclude(path+"/") {
				skipped = append(skipped, path)
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) != ".py" || fd.ShouldExclude(path) {
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, skipped, err
}

func (fd *FileDiscovery) inSkippedTree(path string) bool {
	if len(fd.skipTrees) == 0 {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, dir := range fd.skipTrees {
		if abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// RelPath returns path relative to the root, slash-separated.
func (fd *FileDiscovery) RelPath(path string) (string, error) {
	rel, err := filepath.Rel(fd.rootDir, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// ShouldExclude checks a path, as walked, against the exclude patterns.
// The path is anchored with a leading slash so "**/x/**" also matches a
// leading "x/" component.
func (fd *FileDiscovery) ShouldExclude(path string) bool {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for _, cp := range fd.excludePatterns {
		if cp.glob.Match(p) {
			return true
		}
	}
	return false
}
