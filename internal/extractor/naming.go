package extractor

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/mvp-joe/flowexport/internal/config"
)

// PackageMarker is the file that makes a directory an importable package.
const PackageMarker = "__init__.py"

// ErrInvalidExportName indicates an export name whose dotted components are
// not all Python identifiers.
var ErrInvalidExportName = errors.New("invalid export name")

// ValidateExportName checks that every dotted component of name is an
// identifier, which also keeps DestPath inside the output directory.
func ValidateExportName(name string) error {
	for _, part := range strings.Split(name, ".") {
		if !config.IsIdentifier(part) {
			return fmt.Errorf("%w: %q", ErrInvalidExportName, name)
		}
	}
	return nil
}

// splitExport splits "a.b.c" into its module prefix [a b] and item "c".
func splitExport(name string) ([]string, string) {
	parts := strings.Split(name, ".")
	return parts[:len(parts)-1], parts[len(parts)-1]
}

// DestPath maps an export name to the generated file that holds it, relative
// to the output directory. "Foo" lands in the package marker, "a.b.Foo" in a/b.py.
func DestPath(pkg, export string) string {
	prefix, _ := splitExport(export)
	if len(prefix) == 0 {
		return path.Join(pkg, PackageMarker)
	}
	return path.Join(pkg, path.Join(prefix...)+".py")
}

// ModuleName returns the dotted module that DestPath(pkg, export) defines.
func ModuleName(pkg, export string) string {
	prefix, _ := splitExport(export)
	return strings.Join(append([]string{pkg}, prefix...), ".")
}

// SameModule reports whether two export names resolve to the same generated module.
func SameModule(a, b string) bool {
	pa, _ := splitExport(a)
	pb, _ := splitExport(b)
	if len(pa) != len(pb) {
		return false
	}
	for i := range pa {
		if pa[i] != pb[i] {
			return false
		}
	}
	return true
}

// AliasSegment renders the statement that re-exports the primary export under
// alias. Within one module this is a plain binding; across modules it imports
// from the primary module. The second result is false when alias and primary
// are the same name and nothing needs to be written.
func AliasSegment(pkg, alias, primary string) (string, bool) {
	_, item0 := splitExport(primary)
	_, itemN := splitExport(alias)

	if SameModule(alias, primary) {
		if itemN == item0 {
			return "", false
		}
		return fmt.Sprintf("%s = %s", itemN, item0), true
	}

	module := ModuleName(pkg, primary)
	if item0 == itemN {
		return fmt.Sprintf("from %s import %s", module, item0), true
	}
	return fmt.Sprintf("from %s import %s as %s", module, item0, itemN), true
}

// MirrorPath is where un-annotated code from relPath is copied, relative to
// the output directory. The source root's own directory name is kept so the
// mirrored tree lines up with the package layout, e.g. python/nn/init.py.
func MirrorPath(pkg, srcBase, relPath string) string {
	return path.Join(pkg, srcBase, relPath)
}
