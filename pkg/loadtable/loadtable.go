// Package loadtable aggregates downstream power per board sub-feeder.
//
// Each direct child of a board is a sub-feeder; loads fed in cascade below
// that child belong to the same sub-feeder. The table builder walks the
// active sub-graph and sums the power of terminal consumers, producing one
// row per sub-feeder for the load-table builder to consume.
package loadtable

import (
	"sort"

	"github.com/jzagalv/ssaa-designer/pkg/topo"
)

// Row is the aggregated demand of one board sub-feeder.
type Row struct {
	BoardID   string  `json:"board_id"`
	Slot      int     `json:"slot"`
	RootID    string  `json:"root_id"`
	RootName  string  `json:"root_name,omitempty"`
	FeederKey string  `json:"feeder_key,omitempty"`
	PowerW    float64 `json:"p_w"`
	Loads     int     `json:"loads"`
}

// Rows builds the load-table rows for one board in the active sub-graph.
//
// Sub-feeders are visited in OUT-slot order so row order is stable. When the
// graph reconverges (one load reachable from two sub-feeders), the load
// counts only toward the first sub-feeder that reaches it, matching how the
// physical circuit would actually be sized.
func Rows(l *topo.Layer, f topo.Filter, boardID string) []Row {
	board, ok := l.Node(boardID)
	if !ok || !board.IsBoard() {
		return nil
	}

	adj := adjacency(l, f)

	out := board.PortsByDirection(topo.DirOut)
	slotOf := make(map[string]int, len(out))
	for i, p := range out {
		slotOf[p.ID] = i
	}

	type subfeeder struct {
		slot int
		root string
	}
	var roots []subfeeder
	seenRoot := make(map[string]bool)
	for _, e := range l.Outgoing(boardID) {
		if !f.Matches(e) {
			continue
		}
		if _, ok := l.Node(e.Dst); !ok || e.Dst == boardID {
			continue
		}
		if seenRoot[e.Dst] {
			continue
		}
		seenRoot[e.Dst] = true
		roots = append(roots, subfeeder{slot: slotOf[e.SrcPort], root: e.Dst})
	}
	sort.Slice(roots, func(i, j int) bool {
		if roots[i].slot != roots[j].slot {
			return roots[i].slot < roots[j].slot
		}
		return roots[i].root < roots[j].root
	})

	claimed := make(map[string]bool)
	rows := make([]Row, 0, len(roots))
	for _, sf := range roots {
		row := Row{BoardID: boardID, Slot: sf.slot, RootID: sf.root}
		if root, ok := l.Node(sf.root); ok {
			row.RootName = root.Name
			row.FeederKey = root.FeederKey
		}

		for _, id := range reachable(adj, sf.root) {
			if claimed[id] {
				continue
			}
			claimed[id] = true
			n, ok := l.Node(id)
			if !ok {
				continue
			}
			if n.IsTerminal() {
				row.PowerW += n.PowerW
				row.Loads++
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// AllRows builds the rows of every board in the layer, in board-ID order.
func AllRows(l *topo.Layer, f topo.Filter) []Row {
	var rows []Row
	for _, n := range l.Nodes() {
		if n.IsBoard() {
			rows = append(rows, Rows(l, f, n.ID)...)
		}
	}
	return rows
}

// TotalPowerW sums the power of every terminal consumer applicable to the
// filter, regardless of connectivity. Useful as a sanity total next to the
// per-sub-feeder rows.
func TotalPowerW(l *topo.Layer, f topo.Filter) float64 {
	var total float64
	for _, n := range l.Nodes() {
		if n.IsTerminal() && f.AppliesTo(n) {
			total += n.PowerW
		}
	}
	return total
}

func adjacency(l *topo.Layer, f topo.Filter) map[string][]string {
	adj := make(map[string][]string)
	for _, e := range l.EdgesIn(f) {
		if e.Src == e.Dst {
			continue
		}
		adj[e.Src] = append(adj[e.Src], e.Dst)
	}
	for id := range adj {
		sort.Strings(adj[id])
	}
	return adj
}

// reachable returns the ids reachable from start, start included, in sorted
// order. Cycles are tolerated.
func reachable(adj map[string][]string, start string) []string {
	seen := map[string]bool{start: true}
	stack := []string{start}
	var out []string
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur)
		for _, next := range adj[cur] {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	sort.Strings(out)
	return out
}
