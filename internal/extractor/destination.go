package extractor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnknownDestination indicates a merge into a file no export created.
var ErrUnknownDestination = errors.New("unknown destination file")

// DestFile accumulates the imports and code segments of one generated file.
type DestFile struct {
	path     string
	imports  map[string]struct{}
	segments []string
}

func newDestFile(path string) *DestFile {
	return &DestFile{
		path:    path,
		imports: make(map[string]struct{}),
	}
}

// Path returns the file path relative to the output directory.
func (f *DestFile) Path() string {
	return f.path
}

// AppendImport adds an import line; duplicates collapse.
func (f *DestFile) AppendImport(line string) {
	f.imports[line] = struct{}{}
}

// AppendSegment adds a code segment after all previous ones.
func (f *DestFile) AppendSegment(seg string) {
	f.segments = append(f.segments, strings.TrimRight(seg, "\n"))
}

// Imports returns the deduplicated import lines in lexicographic order.
func (f *DestFile) Imports() []string {
	imports := make([]string, 0, len(f.imports))
	for line := range f.imports {
		imports = append(imports, line)
	}
	sort.Strings(imports)
	return imports
}

// Segments returns a copy of the code segments in append order.
func (f *DestFile) Segments() []string {
	return append([]string(nil), f.segments...)
}

// String renders the file: sorted imports, then segments separated by blank
// lines, then a single trailing newline.
func (f *DestFile) String() string {
	var b strings.Builder
	imports := f.Imports()
	b.WriteString(strings.Join(imports, "\n"))
	if len(imports) > 0 && len(f.segments) > 0 {
		b.WriteString("\n\n")
	}
	b.WriteString(strings.Join(f.segments, "\n\n"))
	b.WriteString("\n")
	return b.String()
}

// DestSet owns every DestFile of one extraction run, keyed by path.
type DestSet struct {
	files map[string]*DestFile
}

// NewDestSet creates an empty accumulator.
func NewDestSet() *DestSet {
	return &DestSet{files: make(map[string]*DestFile)}
}

// File returns the file at path, creating it on first reference.
func (s *DestSet) File(path string) *DestFile {
	f, ok := s.files[path]
	if !ok {
		f = newDestFile(path)
		s.files[path] = f
	}
	return f
}

// Lookup returns the file at path without creating it.
func (s *DestSet) Lookup(path string) (*DestFile, bool) {
	f, ok := s.files[path]
	return f, ok
}

// AppendImports merges import lines into the file at path.
func (s *DestSet) AppendImports(path string, imports []string) {
	f := s.File(path)
	for _, line := range imports {
		f.AppendImport(line)
	}
}

// AppendSegment appends a code segment to the file at path.
func (s *DestSet) AppendSegment(path, seg string) {
	s.File(path).AppendSegment(seg)
}

// Merge folds a whole parsed file into an existing destination: its imports
// join the import block and every other statement is appended in order.
func (s *DestSet) Merge(unit *SourceUnit, toPath string) error {
	f, ok := s.files[toPath]
	if !ok {
		return fmt.Errorf("%w: %s (merging %s)", ErrUnknownDestination, toPath, unit.Path)
	}
	for _, n := range unit.Nodes {
		if n.Kind.IsImport() {
			f.AppendImport(n.Text)
			continue
		}
		f.AppendSegment(definitionSegment(n, ""))
	}
	return nil
}

// Paths returns every destination path in lexicographic order.
func (s *DestSet) Paths() []string {
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of destination files.
func (s *DestSet) Len() int {
	return len(s.files)
}

// SaveStats summarizes a Save call.
type SaveStats struct {
	Files int
	Bytes int64
}

// Save writes every file under outDir, each exactly once, in path order.
// onSaved is called after each write and may be nil.
func (s *DestSet) Save(outDir string, onSaved func(path string)) (*SaveStats, error) {
	stats := &SaveStats{}
	for _, p := range s.Paths() {
		f := s.files[p]
		dst := filepath.Join(outDir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return stats, fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
		content := f.String()
		if err := os.WriteFile(dst, []byte(content), 0644); err != nil {
			return stats, fmt.Errorf("failed to write %s: %w", p, err)
		}
		stats.Files++
		stats.Bytes += int64(len(content))
		if onSaved != nil {
			onSaved(p)
		}
	}
	return stats, nil
}

// definitionSegment renders a node with its decorators, skipping any call to
// the export marker. An empty marker keeps every decorator.
func definitionSegment(n Node, marker string) string {
	var lines []string
	for _, d := range n.Decorators {
		if marker != "" && d.IsCallTo(marker) {
			continue
		}
		lines = append(lines, "@"+d.Text)
	}
	lines = append(lines, n.Text)
	return strings.Join(lines, "\n")
}
