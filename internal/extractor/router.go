package extractor

import (
	"errors"
	"fmt"
)

// ErrMissingExportName indicates an export decorator called without any name.
var ErrMissingExportName = errors.New("export decorator has no name arguments")

// RouteStats counts what routing produced.
type RouteStats struct {
	Exported int // definitions moved to a primary destination
	Aliases  int // alias segments written
	Mirrored int // statements copied to a mirrored path
}

// Router classifies the statements of each SourceUnit and appends them to
// the destination files of one run. Units must be routed one at a time.
type Router struct {
	pkg     string
	marker  string
	srcBase string
	dests   *DestSet
	modules *ModuleGraph
	stats   RouteStats
}

// NewRouter creates a router writing into dests and recording cross-module
// aliases in modules. srcBase is the directory name kept in mirrored paths.
func NewRouter(pkg, marker, srcBase string, dests *DestSet, modules *ModuleGraph) *Router {
	return &Router{
		pkg:     pkg,
		marker:  marker,
		srcBase: srcBase,
		dests:   dests,
		modules: modules,
	}
}

// Stats returns the running totals.
func (r *Router) Stats() RouteStats {
	return r.stats
}

// Route distributes one parsed file.
func (r *Router) Route(unit *SourceUnit) error {
	imports := unit.Imports()

	for _, node := range unit.Nodes {
		exported := false
		if node.Kind.IsDefinition() {
			for _, d := range node.Decorators {
				if !d.IsCallTo(r.marker) {
					continue
				}
				exported = true
				if err := r.routeExport(unit, node, d, imports); err != nil {
					return err
				}
			}
		}
		if !exported {
			r.mirror(unit, node)
		}
	}
	return nil
}

func (r *Router) routeExport(unit *SourceUnit, node Node, d Decorator, imports []string) error {
	if len(d.Args) == 0 {
		return fmt.Errorf("%w: %s:%d: @%s on %s %s", ErrMissingExportName, unit.Path, d.Line, d.Text, node.Kind, node.Name)
	}

	names := make([]string, 0, len(d.Args))
	for _, a := range d.Args {
		if !a.Literal {
			return fmt.Errorf("%w: %s:%d: %s is not a string literal", ErrInvalidExportName, unit.Path, d.Line, a.Value)
		}
		if err := ValidateExportName(a.Value); err != nil {
			return fmt.Errorf("%s:%d: %w", unit.Path, d.Line, err)
		}
		names = append(names, a.Value)
	}

	primary := names[0]
	primaryPath := DestPath(r.pkg, primary)
	r.dests.AppendImports(primaryPath, imports)
	r.dests.AppendSegment(primaryPath, definitionSegment(node, r.marker))
	r.stats.Exported++

	for _, alias := range names[1:] {
		seg, ok := AliasSegment(r.pkg, alias, primary)
		if !ok {
			continue
		}
		r.dests.AppendSegment(DestPath(r.pkg, alias), seg)
		r.stats.Aliases++

		if !SameModule(alias, primary) {
			if err := r.modules.AddImport(ModuleName(r.pkg, alias), ModuleName(r.pkg, primary)); err != nil {
				return err
			}
		}
	}
	return nil
}

// mirror copies a statement that is not exported to the file mirroring its source.
func (r *Router) mirror(unit *SourceUnit, node Node) {
	r.dests.AppendSegment(MirrorPath(r.pkg, r.srcBase, unit.RelPath), definitionSegment(node, r.marker))
	r.stats.Mirrored++
}
