package extractor

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ddddddO/gtree"
)

// ResetOutDir deletes outDir and recreates it, together with the package
// directory inside it.
func ResetOutDir(outDir, pkg string) error {
	if err := os.RemoveAll(outDir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", outDir, err)
	}
	if err := os.MkdirAll(filepath.Join(outDir, pkg), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}
	return nil
}

// EnsurePackageMarkers creates an empty __init__.py in every directory under
// outDir (outDir included) that lacks one. It returns the markers created.
func EnsurePackageMarkers(outDir string) ([]string, error) {
	var created []string
	err := filepath.Walk(outDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}

		marker := filepath.Join(p, PackageMarker)
		if _, err := os.Stat(marker); err == nil {
			return nil
		} else if !os.IsNotExist(err) {
			return err
		}

		if err := os.WriteFile(marker, nil, 0644); err != nil {
			return fmt.Errorf("failed to create %s: %w", marker, err)
		}
		created = append(created, marker)
		return nil
	})
	return created, err
}

// WriteTree prints paths (slash-separated, relative to root) as a tree.
func WriteTree(w io.Writer, root string, paths []string) error {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	top := gtree.NewRoot(root)
	dirs := map[string]*gtree.Node{"": top}

	for _, p := range sorted {
		parent := ""
		parts := strings.Split(p, "/")
		for i, part := range parts {
			key := path.Join(parent, part)
			node, ok := dirs[key]
			if !ok {
				node = dirs[parent].Add(part)
				if i < len(parts)-1 {
					dirs[key] = node
				}
			}
			parent = key
		}
	}

	return gtree.OutputFromRoot(w, top)
}
