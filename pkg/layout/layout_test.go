package layout

import (
	"math"
	"reflect"
	"testing"

	"github.com/jzagalv/ssaa-designer/pkg/ports"
	"github.com/jzagalv/ssaa-designer/pkg/topo"
)

var ac = topo.Filter{Circuit: topo.CircuitAC}

func buildChain(t *testing.T) *topo.Layer {
	t.Helper()
	l := topo.NewLayer()
	nodes := []topo.Node{
		{ID: "S", Kind: topo.KindSource, Name: "RED"},
		{ID: "B", Kind: topo.KindBoard, Name: "TGCA"},
		{ID: "L1", Kind: topo.KindLoad, Name: "F1"},
		{ID: "L2", Kind: topo.KindLoad, Name: "F2"},
	}
	for _, n := range nodes {
		if err := l.AddNode(n); err != nil {
			t.Fatalf("add node %s: %v", n.ID, err)
		}
	}
	for _, e := range []topo.Edge{
		{ID: "E1", Src: "S", Dst: "B", Circuit: topo.CircuitAC},
		{ID: "E2", Src: "B", Dst: "L1", Circuit: topo.CircuitAC},
		{ID: "E3", Src: "B", Dst: "L2", Circuit: topo.CircuitAC},
	} {
		if err := l.AddEdge(e); err != nil {
			t.Fatalf("add edge %s: %v", e.ID, err)
		}
	}
	return l
}

func TestLevels_Chain(t *testing.T) {
	l := buildChain(t)
	got := Levels(l, ac)
	want := map[string]int{"S": 0, "B": 1, "L1": 2, "L2": 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Levels() = %v, want %v", got, want)
	}
}

func TestLevels_EdgeDirectionHolds(t *testing.T) {
	l := buildChain(t)
	levels := Levels(l, ac)
	for _, e := range l.EdgesIn(ac) {
		if levels[e.Dst] < levels[e.Src]+1 {
			t.Errorf("edge %s: level(%s)=%d not below level(%s)=%d",
				e.ID, e.Dst, levels[e.Dst], e.Src, levels[e.Src])
		}
	}
}

func TestLevels_CycleNodesAppendedAfterMax(t *testing.T) {
	l := buildChain(t)
	// X and Y feed each other and are reachable from nothing else.
	for _, n := range []topo.Node{
		{ID: "X", Kind: topo.KindBoard},
		{ID: "Y", Kind: topo.KindBoard},
	} {
		if err := l.AddNode(n); err != nil {
			t.Fatalf("add node: %v", err)
		}
	}
	for _, e := range []topo.Edge{
		{ID: "E4", Src: "X", Dst: "Y", Circuit: topo.CircuitAC},
		{ID: "E5", Src: "Y", Dst: "X", Circuit: topo.CircuitAC},
	} {
		if err := l.AddEdge(e); err != nil {
			t.Fatalf("add edge: %v", e)
		}
	}

	levels := Levels(l, ac)
	if levels["X"] != 3 || levels["Y"] != 3 {
		t.Fatalf("cycle nodes at levels X=%d Y=%d, want both at max+1 = 3", levels["X"], levels["Y"])
	}
}

func TestPlace_SnapsToGridAndIsDeterministic(t *testing.T) {
	l := buildChain(t)
	ports.AllocateAll(l)

	Apply(l, ac)
	first := positions(l)

	for _, n := range l.Nodes() {
		if math.Mod(n.X, Grid) != 0 || math.Mod(n.Y, Grid) != 0 {
			t.Errorf("node %s at (%v,%v) off grid", n.ID, n.X, n.Y)
		}
	}

	Apply(l, ac)
	if second := positions(l); !reflect.DeepEqual(first, second) {
		t.Fatalf("placement drifted:\n%v\n%v", first, second)
	}
}

func TestPlace_EmptyLayerIsNoop(t *testing.T) {
	Apply(topo.NewLayer(), ac) // must not panic
}

func TestAlignBoardChildren_CentersUnderSlot(t *testing.T) {
	l := buildChain(t)
	ports.AllocateAll(l)
	Apply(l, ac)

	board, _ := l.Node("B")
	out := board.PortsByDirection(topo.DirOut)
	for _, e := range l.Outgoing("B") {
		child, _ := l.Node(e.Dst)
		var portX float64
		for _, p := range out {
			if p.ID == e.SrcPort {
				portX = board.X + p.RelX*board.W
			}
		}
		center := child.X + child.W/2
		if diff := math.Abs(center - portX); diff > Grid {
			t.Errorf("child %s center %v not under port x %v", child.ID, center, portX)
		}
		if child.Y < board.Y+board.H+VertSpacing-Grid {
			t.Errorf("child %s at y=%v overlaps its board", child.ID, child.Y)
		}
	}
}

func TestPlace_RespectsManualPosition(t *testing.T) {
	l := buildChain(t)
	ports.AllocateAll(l)
	pinned, _ := l.Node("L2")
	pinned.Meta = topo.Meta{MetaManualPos: true}
	pinned.X, pinned.Y = 555, 777

	Apply(l, ac)
	if pinned.X != 555 || pinned.Y != 777 {
		t.Fatalf("pinned node moved to (%v,%v)", pinned.X, pinned.Y)
	}
	free, _ := l.Node("L1")
	if free.X == 0 && free.Y == 0 {
		t.Fatalf("unpinned node was not placed")
	}
}

func TestAlignBoardChildren_RespectsManualPosition(t *testing.T) {
	l := buildChain(t)
	ports.AllocateAll(l)
	child, _ := l.Node("L1")
	child.Meta = topo.Meta{MetaManualPos: true}
	child.X, child.Y = 999, 999

	AlignBoardChildren(l, ac)
	if child.X != 999 || child.Y != 999 {
		t.Fatalf("pinned child moved to (%v,%v)", child.X, child.Y)
	}
}

func TestAssignLanes_DistinctAndSticky(t *testing.T) {
	l := buildChain(t)
	ports.AllocateAll(l)
	Apply(l, ac)

	AssignLanes(l, ac, false)
	lanes := make(map[float64]string)
	for _, e := range l.Outgoing("B") {
		if !e.HasLane {
			t.Fatalf("edge %s has no lane", e.ID)
		}
		if prev, dup := lanes[e.Lane]; dup {
			t.Fatalf("edges %s and %s share lane %v", prev, e.ID, e.Lane)
		}
		lanes[e.Lane] = e.ID
	}

	// A second pass without force must not move anything.
	before := lanesOf(l)
	AssignLanes(l, ac, false)
	if after := lanesOf(l); !reflect.DeepEqual(before, after) {
		t.Fatalf("lanes drifted: %v -> %v", before, after)
	}

	// Forcing recomputes but keeps uniqueness.
	AssignLanes(l, ac, true)
	seen := make(map[float64]bool)
	for _, e := range l.Outgoing("B") {
		if seen[e.Lane] {
			t.Fatalf("forced pass produced duplicate lane %v", e.Lane)
		}
		seen[e.Lane] = true
	}
}

func positions(l *topo.Layer) map[string][2]float64 {
	out := make(map[string][2]float64)
	for _, n := range l.Nodes() {
		out[n.ID] = [2]float64{n.X, n.Y}
	}
	return out
}

func lanesOf(l *topo.Layer) map[string]float64 {
	out := make(map[string]float64)
	for _, e := range l.Edges() {
		if e.HasLane {
			out[e.ID] = e.Lane
		}
	}
	return out
}
