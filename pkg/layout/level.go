package layout

import (
	"sort"

	"github.com/jzagalv/ssaa-designer/pkg/topo"
)

// Levels computes the topological level of every node in the layer's active
// sub-graph.
//
// Roots (source nodes and nodes with zero effective in-degree) sit at level
// 0; every other reachable node is pushed to one plus the maximum level of
// its parents, so feeds always point downward. Nodes trapped in a cycle or
// otherwise unreachable are appended at max level + 1 rather than dropped,
// keeping them visible for the user to fix.
//
// Self-loops and edges referencing missing nodes are ignored here; the
// validator reports them.
func Levels(l *topo.Layer, f topo.Filter) map[string]int {
	adj := make(map[string][]string)
	inDegree := make(map[string]int)

	nodes := l.Nodes()
	for _, n := range nodes {
		inDegree[n.ID] = 0
	}
	for _, e := range l.EdgesIn(f) {
		if e.Src == e.Dst {
			continue
		}
		if _, ok := l.Node(e.Src); !ok {
			continue
		}
		if _, ok := l.Node(e.Dst); !ok {
			continue
		}
		adj[e.Src] = append(adj[e.Src], e.Dst)
		inDegree[e.Dst]++
	}
	for id := range adj {
		sort.Strings(adj[id])
	}

	levels := make(map[string]int, len(nodes))
	var queue []string
	for _, n := range nodes { // Nodes() is ID-sorted, queue order is stable
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
			levels[n.ID] = 0
		}
	}

	remaining := make(map[string]int, len(inDegree))
	for id, d := range inDegree {
		remaining[id] = d
	}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, child := range adj[curr] {
			if lvl := levels[curr] + 1; lvl > levels[child] {
				levels[child] = lvl
			}
			remaining[child]--
			if remaining[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	maxLevel := 0
	visited := make(map[string]bool, len(levels))
	for _, n := range nodes {
		if inDegree[n.ID] == 0 || remaining[n.ID] == 0 {
			visited[n.ID] = true
			if levels[n.ID] > maxLevel {
				maxLevel = levels[n.ID]
			}
		}
	}
	for _, n := range nodes {
		if !visited[n.ID] {
			levels[n.ID] = maxLevel + 1
		}
	}
	return levels
}

// stableKey orders nodes within a level: external tag first, then id, so a
// re-run on an unchanged graph reproduces the exact same placement.
func stableKey(a, b *topo.Node) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}
