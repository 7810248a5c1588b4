package extractor

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
)

// ModuleGraph records which generated modules import from which, through
// cross-module aliases. A cycle here means the generated package will hit a
// circular import at load time.
type ModuleGraph struct {
	g graph.Graph[string, string]
}

// NewModuleGraph creates an empty directed module graph.
func NewModuleGraph() *ModuleGraph {
	return &ModuleGraph{
		g: graph.New(graph.StringHash, graph.Directed()),
	}
}

// AddImport records that module from imports a name from module to.
func (m *ModuleGraph) AddImport(from, to string) error {
	for _, v := range []string{from, to} {
		if err := m.g.AddVertex(v); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return fmt.Errorf("failed to add module %s: %w", v, err)
		}
	}
	if err := m.g.AddEdge(from, to); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return fmt.Errorf("failed to add import %s -> %s: %w", from, to, err)
	}
	return nil
}

// Modules returns the number of modules with at least one alias import edge.
func (m *ModuleGraph) Modules() int {
	n, err := m.g.Order()
	if err != nil {
		return 0
	}
	return n
}

// Imports returns the number of distinct module-to-module import edges.
func (m *ModuleGraph) Imports() int {
	n, err := m.g.Size()
	if err != nil {
		return 0
	}
	return n
}

// Cycles returns every group of modules that import each other circularly.
// Each group is sorted, and groups are ordered by their first module.
func (m *ModuleGraph) Cycles() ([][]string, error) {
	components, err := graph.StronglyConnectedComponents(m.g)
	if err != nil {
		return nil, fmt.Errorf("failed to compute import cycles: %w", err)
	}

	var cycles [][]string
	for _, c := range components {
		if len(c) < 2 {
			continue
		}
		sorted := append([]string(nil), c...)
		sort.Strings(sorted)
		cycles = append(cycles, sorted)
	}
	sort.Slice(cycles, func(i, j int) bool {
		return strings.Join(cycles[i], ",") < strings.Join(cycles[j], ",")
	})
	return cycles, nil
}
