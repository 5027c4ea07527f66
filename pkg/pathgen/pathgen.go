// Package pathgen enumerates candidate tool pipelines that chain a
// starting WorkflowType to a target WorkflowType using tools currently
// held by a Tool Registry.
package pathgen

import (
	"github.com/pr0ta9/Genesis-sub000/pkg/toolspec"
	"github.com/pr0ta9/Genesis-sub000/pkg/workflow"
)

// DefaultMaxDepth bounds the depth-first search to prevent pathological
// enumeration over large registries. Not documented in the distilled
// spec; fixed here at 6, matching the figure the spec itself floats as a
// reasonable default (see SPEC_FULL.md "Open Questions").
const DefaultMaxDepth = 6

// Lister is the subset of the Tool Registry the generator needs: given a
// WorkflowType tag, list every tool whose input_key resolves to it.
type Lister interface {
	ListByInputType(tag workflow.Type) []toolspec.ToolMetadata
}

// Generator enumerates candidate pipelines against a registry.
type Generator struct {
	registry Lister
	maxDepth int
}

// New builds a Generator bound to registry, using DefaultMaxDepth.
func New(registry Lister) *Generator {
	return &Generator{registry: registry, maxDepth: DefaultMaxDepth}
}

// NewWithDepth builds a Generator with an explicit depth bound.
func NewWithDepth(registry Lister, maxDepth int) *Generator {
	return &Generator{registry: registry, maxDepth: maxDepth}
}

// MaxDepth reports the bound this generator enforces.
func (g *Generator) MaxDepth() int { return g.maxDepth }

// FindAllPaths enumerates every ordered tool sequence whose chained
// input/output types transform inputType into targetType, depth-first,
// with no tool repeated within a single path. When inputType ==
// targetType, the empty path is not returned — a pipeline with at least
// one tool is always required. Results are ordered shortest-first, then
// by encounter order within the registry at each branching point.
func (g *Generator) FindAllPaths(inputType, targetType workflow.Type) [][]toolspec.ToolMetadata {
	var results [][]toolspec.ToolMetadata
	visited := map[string]bool{}
	var path []toolspec.ToolMetadata

	var walk func(current workflow.Type, depth int)
	walk = func(current workflow.Type, depth int) {
		if len(path) > 0 && current == targetType {
			cp := make([]toolspec.ToolMetadata, len(path))
			copy(cp, path)
			results = append(results, cp)
			// A path that already reached the target may still be
			// extended by further tools on longer routes, so we do not
			// return here — only the depth bound and cycle prevention
			// stop the walk.
		}
		if depth >= g.maxDepth {
			return
		}
		for _, tool := range g.registry.ListByInputType(current) {
			if visited[tool.Name] {
				continue
			}
			outType, err := tool.OutputType()
			if err != nil {
				continue
			}
			visited[tool.Name] = true
			path = append(path, tool)
			walk(outType, depth+1)
			path = path[:len(path)-1]
			visited[tool.Name] = false
		}
	}

	walk(inputType, 0)

	stableSortByLength(results)
	return results
}

// stableSortByLength orders paths by ascending length, preserving
// relative order (encounter order) among equal-length paths — a stable
// sort is required for the spec's "shortest first, then encounter order"
// tie-break.
func stableSortByLength(paths [][]toolspec.ToolMetadata) {
	// Simple stable insertion sort: path counts are small in practice
	// (bounded by DefaultMaxDepth and registry size) so this avoids
	// pulling in sort.SliceStable purely for a comparator this trivial.
	for i := 1; i < len(paths); i++ {
		j := i
		for j > 0 && len(paths[j-1]) > len(paths[j]) {
			paths[j-1], paths[j] = paths[j], paths[j-1]
			j--
		}
	}
}
