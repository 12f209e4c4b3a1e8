package layout

import (
	"math"
	"sort"

	"github.com/jzagalv/ssaa-designer/pkg/ports"
	"github.com/jzagalv/ssaa-designer/pkg/topo"
)

const (
	// Grid is the snap unit; every computed coordinate lands on it so manual
	// drags stay aligned with auto-placed nodes.
	Grid = 20.0
	// HPitch is the horizontal distance between adjacent nodes of one level.
	HPitch = ports.CardWidth + 2*ports.CardGap
	// VPitch is the vertical distance between levels.
	VPitch = 200.0
	// VertSpacing separates a board's bottom edge from its aligned children.
	VertSpacing = 60.0
	// StackSpacing separates children stacked in the same board slot.
	StackSpacing = 24.0
)

// MetaManualPos marks a node the user dragged by hand. Placement and
// alignment passes leave such nodes where they are.
const MetaManualPos = "manual_pos"

// Apply runs the full placement pipeline on the layer's active sub-graph:
// leveling, grid placement and board-children alignment. Lane assignment is
// separate, see AssignLanes.
func Apply(l *topo.Layer, f topo.Filter) {
	Place(l, f)
	AlignBoardChildren(l, f)
}

// Place positions nodes on a fixed grid: levels become rows, nodes within
// a level are laid out left to right in stable-key order. Nodes flagged as
// manually positioned keep their coordinates and occupy no grid slot.
func Place(l *topo.Layer, f topo.Filter) {
	levels := Levels(l, f)

	byLevel := make(map[int][]*topo.Node)
	for _, n := range l.Nodes() {
		byLevel[levels[n.ID]] = append(byLevel[levels[n.ID]], n)
	}

	rows := make([]int, 0, len(byLevel))
	for lvl := range byLevel {
		rows = append(rows, lvl)
	}
	sort.Ints(rows)

	for _, lvl := range rows {
		row := byLevel[lvl]
		sort.Slice(row, func(i, j int) bool { return stableKey(row[i], row[j]) })

		x := 0.0
		for _, n := range row {
			if pinned, _ := n.Meta[MetaManualPos].(bool); pinned {
				continue
			}
			n.X = Snap(x)
			n.Y = Snap(float64(lvl) * VPitch)
			x += n.W + (HPitch - ports.CardWidth)
		}
	}
}

// AlignBoardChildren centers each board child under the OUT port slot its
// edge binds to, stacking multiple children of one slot vertically. Children
// flagged as manually positioned keep their coordinates.
func AlignBoardChildren(l *topo.Layer, f topo.Filter) {
	for _, board := range l.Nodes() {
		if !board.IsBoard() {
			continue
		}
		out := board.PortsByDirection(topo.DirOut)
		if len(out) == 0 {
			continue
		}
		slotOf := make(map[string]int, len(out))
		for i, p := range out {
			slotOf[p.ID] = i
		}

		children := make(map[int][]*topo.Node)
		for _, e := range l.Outgoing(board.ID) {
			if !f.Matches(e) {
				continue
			}
			child, ok := l.Node(e.Dst)
			if !ok || child.ID == board.ID {
				continue
			}
			if pinned, _ := child.Meta[MetaManualPos].(bool); pinned {
				continue
			}
			slot, ok := slotOf[e.SrcPort]
			if !ok {
				slot = 0
			}
			children[slot] = append(children[slot], child)
		}

		boardBottom := board.Y + board.H
		for slot, kids := range children {
			sort.Slice(kids, func(i, j int) bool { return stableKey(kids[i], kids[j]) })
			cx := board.X + out[slot].RelX*board.W
			y := boardBottom + VertSpacing
			for _, child := range kids {
				child.X = Snap(cx - child.W/2)
				child.Y = Snap(y)
				y += child.H + StackSpacing
			}
		}
	}
}

// Snap rounds a coordinate to the nearest grid unit.
func Snap(v float64) float64 {
	return math.Round(v/Grid) * Grid
}
