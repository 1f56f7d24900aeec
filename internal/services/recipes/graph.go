package recipes

import (
	"slices"

	"github.com/prudhvimanvith/Gourmet/internal/repository"
)

// graph is the active recipe graph as output item -> component items.
type graph struct {
	components map[string][]string
	consumers  map[string][]string
}

// newGraph builds the graph from edges, leaving out the edges of skip.
func newGraph(edges []repository.Edge, skip string) *graph {
	g := &graph{
		components: make(map[string][]string),
		consumers:  make(map[string][]string),
	}
	for _, e := range edges {
		if e.OutputItemID == skip {
			continue
		}
		g.add(e.OutputItemID, e.ComponentItemID)
	}
	return g
}

func (g *graph) add(output, component string) {
	g.components[output] = append(g.components[output], component)
	g.consumers[component] = append(g.consumers[component], output)
}

// replace sets the components of output.
func (g *graph) replace(output string, components []string) {
	for _, c := range g.components[output] {
		g.consumers[c] = slices.DeleteFunc(g.consumers[c], func(s string) bool { return s == output })
	}
	delete(g.components, output)
	for _, c := range components {
		g.add(output, c)
	}
}

// cycleThrough returns a path from start back to itself along component
// edges, or nil when start is not on a cycle.
func (g *graph) cycleThrough(start string) []string {
	visited := make(map[string]bool)
	var path []string

	var visit func(id string) bool
	visit = func(id string) bool {
		path = append(path, id)
		for _, c := range g.components[id] {
			if c == start {
				path = append(path, c)
				return true
			}
			if visited[c] {
				continue
			}
			visited[c] = true
			if visit(c) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}

	if visit(start) {
		return path
	}
	return nil
}

// consumersInOrder returns every item that transitively consumes start,
// ordered so each item comes after all affected items it is made from. ok
// is false if the affected subgraph contains a cycle.
func (g *graph) consumersInOrder(start string) (order []string, ok bool) {
	affected := make(map[string]bool)
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, out := range g.consumers[id] {
			if !affected[out] {
				affected[out] = true
				queue = append(queue, out)
			}
		}
	}

	// Kahn over the affected outputs. Components outside the set are
	// already final.
	pending := make(map[string]int, len(affected))
	for out := range affected {
		seen := make(map[string]bool)
		for _, c := range g.components[out] {
			if affected[c] && !seen[c] {
				seen[c] = true
				pending[out]++
			}
		}
	}

	var ready []string
	for _, out := range g.consumers[start] {
		if pending[out] == 0 && !slices.Contains(ready, out) {
			ready = append(ready, out)
		}
	}

	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		seen := make(map[string]bool)
		for _, out := range g.consumers[id] {
			if !affected[out] || seen[out] {
				continue
			}
			seen[out] = true
			pending[out]--
			if pending[out] == 0 {
				ready = append(ready, out)
			}
		}
	}
	return order, len(order) == len(affected)
}
