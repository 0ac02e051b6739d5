package schema

import (
	"fmt"
	"sort"
	"strings"
)

// color represents the state of a node during DFS cycle detection.
type color int

const (
	white color = iota // unvisited
	gray               // in current DFS path (cycle if revisited)
	black              // fully processed
)

// detectContainerCycles checks that no type is transitively its own
// container. Edges point from a part type to its container.
func detectContainerCycles(types map[string]*Type) error {
	graph := make(map[string][]string, len(types))
	for name, t := range types {
		if t.Container != "" {
			graph[name] = append(graph[name], t.Container)
		}
		for _, p := range t.Parts {
			if p.Type == name {
				graph[name] = append(graph[name], name)
			}
		}
	}
	if cycle := detectCycleInGraph(graph); cycle != nil {
		return fmt.Errorf("%w: container cycle: %s", ErrCyclicSchema, formatCycle(cycle))
	}
	return nil
}

// detectCycleInGraph uses DFS with three-color marking to detect cycles.
// Returns the cycle path if found, nil otherwise. Nodes are visited in
// sorted order so the reported cycle is stable.
func detectCycleInGraph(graph map[string][]string) []string {
	colors := make(map[string]color)
	parent := make(map[string]string)

	var dfs func(n string) []string
	dfs = func(n string) []string {
		colors[n] = gray

		for _, neighbor := range graph[n] {
			switch colors[neighbor] {
			case gray:
				return reconstructCycle(n, neighbor, parent)
			case white:
				parent[neighbor] = n
				if cycle := dfs(neighbor); cycle != nil {
					return cycle
				}
			}
		}

		colors[n] = black
		return nil
	}

	nodes := make([]string, 0, len(graph))
	for n := range graph {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	for _, n := range nodes {
		if colors[n] == white {
			if cycle := dfs(n); cycle != nil {
				return cycle
			}
		}
	}

	return nil
}

// reconstructCycle builds the cycle path from parent pointers.
// from is the node where we detected the back-edge, to is the node we're returning to.
func reconstructCycle(from, to string, parent map[string]string) []string {
	cycle := []string{to}
	for n := from; n != to; n = parent[n] {
		cycle = append([]string{n}, cycle...)
	}
	cycle = append([]string{to}, cycle...)
	return cycle
}

// formatCycle converts a cycle path to a human-readable string.
// Example: "Part → Container → Part"
func formatCycle(cycle []string) string {
	return strings.Join(cycle, " → ")
}
