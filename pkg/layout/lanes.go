package layout

import (
	"math"

	"github.com/jzagalv/ssaa-designer/pkg/topo"
)

// MinLaneGap is the step between candidate lane offsets for edges sharing a
// source node.
const MinLaneGap = 20.0

// AssignLanes gives every outgoing edge of each node a distinct vertical
// lane x near its source port, so parallel feeds never overlap when drawn
// with right-angle routing.
//
// A lane sticks once assigned: edges that already carry one are left alone
// (and their lane stays reserved) unless force is true, so manual edits do
// not perturb unrelated routing. Candidate offsets are searched outward from
// the port in MinLaneGap steps, alternating sides, first free wins.
func AssignLanes(l *topo.Layer, f topo.Filter, force bool) {
	for _, n := range l.Nodes() {
		edges := l.Outgoing(n.ID)
		used := make(map[float64]bool)

		if !force {
			for _, e := range edges {
				if f.Matches(e) && e.HasLane {
					used[e.Lane] = true
				}
			}
		}

		for _, e := range edges {
			if !f.Matches(e) {
				continue
			}
			if e.HasLane && !force {
				continue
			}
			base := portX(l, n, e.SrcPort)
			lane := base
			for step := 1; used[lane]; step++ {
				offset := float64((step+1)/2) * MinLaneGap
				if step%2 == 1 {
					lane = base + offset
				} else {
					lane = base - offset
				}
			}
			e.Lane = lane
			e.HasLane = true
			used[lane] = true
		}
	}
}

// ClearLanes drops every cached lane in the filter's sub-graph so the next
// AssignLanes pass recomputes routing from scratch.
func ClearLanes(l *topo.Layer, f topo.Filter) {
	for _, e := range l.EdgesIn(f) {
		e.Lane = 0
		e.HasLane = false
	}
}

// portX returns the scene x of the named port, falling back to the node
// center when the port is gone.
func portX(l *topo.Layer, n *topo.Node, portID string) float64 {
	if p, ok := n.Port(portID); ok {
		return math.Round(n.X + p.RelX*n.W)
	}
	return math.Round(n.X + n.W/2)
}
