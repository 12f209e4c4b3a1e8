package validate

import (
	"fmt"
	"sort"

	"github.com/jzagalv/ssaa-designer/pkg/topo"
)

// Layer runs every structural check over the layer's active sub-graph and
// returns the findings in deterministic order. The layer is not modified.
func Layer(l *topo.Layer, f topo.Filter) []Issue {
	var issues []Issue
	issues = append(issues, edgeChecks(l, f)...)
	issues = append(issues, cycleCheck(l, f)...)
	issues = append(issues, nodeChecks(l, f)...)
	Sort(issues)
	return issues
}

// edgeChecks covers self-loops, duplicate connections and dangling endpoint
// references. Only the second and later occurrences of a duplicate are
// flagged so the first drawn edge stays clean.
func edgeChecks(l *topo.Layer, f topo.Filter) []Issue {
	var issues []Issue
	seen := make(map[[4]string]bool)

	for _, e := range l.EdgesIn(f) {
		if e.Src == e.Dst {
			issues = append(issues, Issue{
				Level:   LevelError,
				Code:    CodeEdgeSelfLoop,
				Message: fmt.Sprintf("edge %s connects node %s to itself", e.ID, e.Src),
				NodeID:  e.Src,
				EdgeID:  e.ID,
			})
		}

		key := [4]string{e.Src, e.Dst, string(e.Circuit), dcKey(e)}
		if seen[key] {
			issues = append(issues, Issue{
				Level:   LevelWarn,
				Code:    CodeEdgeDuplicate,
				Message: fmt.Sprintf("edge %s duplicates an existing connection %s -> %s", e.ID, e.Src, e.Dst),
				EdgeID:  e.ID,
			})
		}
		seen[key] = true

		for _, ref := range []string{e.Src, e.Dst} {
			if _, ok := l.Node(ref); !ok {
				issues = append(issues, Issue{
					Level:   LevelError,
					Code:    CodeEdgeDangling,
					Message: fmt.Sprintf("edge %s references missing node %s", e.ID, ref),
					NodeID:  ref,
					EdgeID:  e.ID,
				})
			}
		}
	}
	return issues
}

func dcKey(e *topo.Edge) string {
	if e.Circuit != topo.CircuitDC {
		return ""
	}
	if e.DCSystem == "" {
		return topo.DefaultDCSystem
	}
	return e.DCSystem
}

// cycleCheck runs an iterative three-color depth-first search over the
// active sub-graph. A back edge into a gray node implicates every node on
// the gray path from that node onward; each implicated node gets one error.
// Self-loops and dangling edges are excluded here, edgeChecks owns those.
func cycleCheck(l *topo.Layer, f topo.Filter) []Issue {
	adj := make(map[string][]string)
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
	}
	for id := range adj {
		sort.Strings(adj[id])
	}

	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int)
	inCycle := make(map[string]bool)

	type frame struct {
		id   string
		next int
	}

	for _, start := range l.Nodes() {
		if color[start.ID] != white {
			continue
		}
		stack := []frame{{id: start.ID}}
		path := []string{start.ID}
		color[start.ID] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			neighbors := adj[top.id]
			if top.next < len(neighbors) {
				next := neighbors[top.next]
				top.next++
				switch color[next] {
				case white:
					color[next] = gray
					stack = append(stack, frame{id: next})
					path = append(path, next)
				case gray:
					// Back edge: everything from next to the path tip is
					// part of the cycle.
					for i := len(path) - 1; i >= 0; i-- {
						inCycle[path[i]] = true
						if path[i] == next {
							break
						}
					}
				}
				continue
			}
			color[top.id] = black
			stack = stack[:len(stack)-1]
			path = path[:len(path)-1]
		}
	}

	ids := make([]string, 0, len(inCycle))
	for id := range inCycle {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	issues := make([]Issue, 0, len(ids))
	for _, id := range ids {
		issues = append(issues, Issue{
			Level:   LevelError,
			Code:    CodeGraphCycle,
			Message: fmt.Sprintf("node %s participates in a feed cycle", id),
			NodeID:  id,
		})
	}
	return issues
}

// nodeChecks covers orphan consumers, root boards with incoming edges,
// source incoming-edge violations and duplicate source identities.
func nodeChecks(l *topo.Layer, f topo.Filter) []Issue {
	var issues []Issue

	// Dangling edges are excluded from effective in-degree so an orphan is
	// still reported when its only feed points at a missing node.
	incoming := make(map[string]int)
	for _, e := range l.EdgesIn(f) {
		if e.Src == e.Dst {
			continue
		}
		if _, ok := l.Node(e.Src); !ok {
			continue
		}
		incoming[e.Dst]++
	}

	sourcesByKey := make(map[string][]string)

	for _, n := range l.Nodes() {
		if !f.AppliesTo(n) {
			continue
		}

		if n.IsTerminal() && n.HasPort(topo.DirIn) && incoming[n.ID] == 0 {
			issues = append(issues, Issue{
				Level:   LevelWarn,
				Code:    CodeNodeOrphan,
				Message: fmt.Sprintf("%s %s has no incoming feed", n.Kind, displayName(n)),
				NodeID:  n.ID,
			})
		}

		if n.Root && incoming[n.ID] > 0 {
			issues = append(issues, Issue{
				Level:   LevelError,
				Code:    CodeRootHasIncoming,
				Message: fmt.Sprintf("root board %s must not be fed by another node", displayName(n)),
				NodeID:  n.ID,
			})
		}

		if n.Kind == topo.KindSource {
			if incoming[n.ID] > 0 {
				issues = append(issues, Issue{
					Level:   LevelError,
					Code:    CodeSourceHasIncoming,
					Message: fmt.Sprintf("source %s must not have incoming edges", displayName(n)),
					NodeID:  n.ID,
				})
			}
			if n.ExternalKey != "" {
				sourcesByKey[n.ExternalKey] = append(sourcesByKey[n.ExternalKey], n.ID)
			}
		}
	}

	keys := make([]string, 0, len(sourcesByKey))
	for k := range sourcesByKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ids := sourcesByKey[k]
		sort.Strings(ids)
		for _, id := range ids[1:] {
			issues = append(issues, Issue{
				Level:   LevelWarn,
				Code:    CodeSourceDuplicate,
				Message: fmt.Sprintf("source %s duplicates external source %s", id, k),
				NodeID:  id,
			})
		}
	}
	return issues
}

func displayName(n *topo.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}
