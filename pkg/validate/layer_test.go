package validate

import (
	"reflect"
	"testing"

	"github.com/jzagalv/ssaa-designer/pkg/topo"
)

func chain(t *testing.T) *topo.Layer {
	t.Helper()
	l := topo.NewLayer()
	nodes := []topo.Node{
		{ID: "S", Kind: topo.KindSource, Name: "Red Externa"},
		{ID: "B", Kind: topo.KindBoard, Class: "TGCA"},
		{ID: "L1", Kind: topo.KindLoad},
		{ID: "L2", Kind: topo.KindLoad},
	}
	for _, n := range nodes {
		if err := l.AddNode(n); err != nil {
			t.Fatalf("add node %s: %v", n.ID, err)
		}
	}
	edges := []topo.Edge{
		{ID: "E1", Src: "S", Dst: "B", Circuit: topo.CircuitAC},
		{ID: "E2", Src: "B", Dst: "L1", Circuit: topo.CircuitAC},
		{ID: "E3", Src: "B", Dst: "L2", Circuit: topo.CircuitAC},
	}
	for _, e := range edges {
		if err := l.AddEdge(e); err != nil {
			t.Fatalf("add edge %s: %v", e.ID, err)
		}
	}
	return l
}

func codesOf(issues []Issue) []Code {
	out := make([]Code, len(issues))
	for i, is := range issues {
		out[i] = is.Code
	}
	return out
}

func TestLayer_CleanChainHasNoIssues(t *testing.T) {
	l := chain(t)
	if issues := Layer(l, topo.Filter{Circuit: topo.CircuitAC}); len(issues) != 0 {
		t.Fatalf("unexpected issues: %+v", issues)
	}
}

func TestLayer_CycleImplicatesGrayPath(t *testing.T) {
	l := chain(t)
	if err := l.AddEdge(topo.Edge{ID: "E4", Src: "L1", Dst: "S", Circuit: topo.CircuitAC}); err != nil {
		t.Fatalf("add edge: %v", err)
	}

	issues := Layer(l, topo.Filter{Circuit: topo.CircuitAC})

	var cycleNodes []string
	for _, is := range issues {
		if is.Code == CodeGraphCycle {
			if is.Level != LevelError {
				t.Errorf("cycle issue level = %s, want error", is.Level)
			}
			cycleNodes = append(cycleNodes, is.NodeID)
		}
	}
	want := []string{"B", "L1", "S"}
	if !reflect.DeepEqual(cycleNodes, want) {
		t.Fatalf("cycle nodes = %v, want %v", cycleNodes, want)
	}
	// L2 sits outside the cycle and must stay clean.
	for _, is := range issues {
		if is.NodeID == "L2" && is.Code == CodeGraphCycle {
			t.Error("L2 wrongly implicated in cycle")
		}
	}
	// Source-has-incoming also fires, the edge L1 -> S feeds a source.
	if !hasCode(issues, CodeSourceHasIncoming) {
		t.Error("missing SOURCE_HAS_INCOMING for fed source")
	}
}

func TestLayer_OrphanLoad(t *testing.T) {
	l := chain(t)
	if err := l.AddNode(topo.Node{ID: "L3", Kind: topo.KindLoad, Name: "Alumbrado"}); err != nil {
		t.Fatalf("add node: %v", err)
	}

	issues := Layer(l, topo.Filter{Circuit: topo.CircuitAC})
	var orphans []Issue
	for _, is := range issues {
		if is.Code == CodeNodeOrphan {
			orphans = append(orphans, is)
		}
	}
	if len(orphans) != 1 || orphans[0].NodeID != "L3" || orphans[0].Level != LevelWarn {
		t.Fatalf("orphans = %+v, want single warn on L3", orphans)
	}
}

func TestLayer_OrphanSkippedWhenBusMismatch(t *testing.T) {
	l := topo.NewLayer()
	// A B2 load inside a layer being validated against the B1 bus is not
	// applicable, so it must not be flagged.
	if err := l.AddNode(topo.Node{ID: "L", Kind: topo.KindLoad, DCSystem: "B2"}); err != nil {
		t.Fatalf("add node: %v", err)
	}
	issues := Layer(l, topo.Filter{Circuit: topo.CircuitDC, DCSystem: "B1"})
	if hasCode(issues, CodeNodeOrphan) {
		t.Fatalf("orphan flagged across bus mismatch: %+v", issues)
	}

	issues = Layer(l, topo.Filter{Circuit: topo.CircuitDC, DCSystem: "B2"})
	if !hasCode(issues, CodeNodeOrphan) {
		t.Fatalf("orphan missing on matching bus: %+v", issues)
	}
}

func TestLayer_EdgeChecks(t *testing.T) {
	tests := []struct {
		name string
		edge topo.Edge
		want Code
	}{
		{"self loop", topo.Edge{ID: "Ex", Src: "B", Dst: "B", Circuit: topo.CircuitAC}, CodeEdgeSelfLoop},
		{"duplicate", topo.Edge{ID: "Ex", Src: "B", Dst: "L1", Circuit: topo.CircuitAC}, CodeEdgeDuplicate},
		{"dangling dst", topo.Edge{ID: "Ex", Src: "B", Dst: "ghost", Circuit: topo.CircuitAC}, CodeEdgeDangling},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := chain(t)
			if err := l.AddEdge(tt.edge); err != nil {
				t.Fatalf("add edge: %v", err)
			}
			issues := Layer(l, topo.Filter{Circuit: topo.CircuitAC})
			found := false
			for _, is := range issues {
				if is.Code == tt.want && is.EdgeID == "Ex" {
					found = true
				}
			}
			if !found {
				t.Fatalf("missing %s for Ex, got %v", tt.want, codesOf(issues))
			}
		})
	}
}

func TestLayer_DuplicateFlagsSecondOccurrenceOnly(t *testing.T) {
	l := chain(t)
	if err := l.AddEdge(topo.Edge{ID: "E9", Src: "B", Dst: "L1", Circuit: topo.CircuitAC}); err != nil {
		t.Fatalf("add edge: %v", err)
	}
	issues := Layer(l, topo.Filter{Circuit: topo.CircuitAC})
	for _, is := range issues {
		if is.Code == CodeEdgeDuplicate && is.EdgeID != "E9" {
			t.Fatalf("first occurrence flagged: %+v", is)
		}
	}
}

func TestLayer_RootBoardWithIncoming(t *testing.T) {
	l := chain(t)
	if err := l.AddNode(topo.Node{ID: "R", Kind: topo.KindBoard, Root: true}); err != nil {
		t.Fatalf("add node: %v", err)
	}
	if err := l.AddEdge(topo.Edge{ID: "E5", Src: "B", Dst: "R", Circuit: topo.CircuitAC}); err != nil {
		t.Fatalf("add edge: %v", err)
	}
	issues := Layer(l, topo.Filter{Circuit: topo.CircuitAC})
	if !hasCode(issues, CodeRootHasIncoming) {
		t.Fatalf("missing ROOT_HAS_INCOMING, got %v", codesOf(issues))
	}
}

func TestLayer_DuplicateSources(t *testing.T) {
	l := topo.NewLayer()
	for _, id := range []string{"S1", "S2", "S3"} {
		n := topo.Node{ID: id, Kind: topo.KindSource, ExternalKey: "src:red"}
		if err := l.AddNode(n); err != nil {
			t.Fatalf("add node: %v", err)
		}
	}
	issues := Layer(l, topo.Filter{Circuit: topo.CircuitAC})
	var dups []string
	for _, is := range issues {
		if is.Code == CodeSourceDuplicate {
			dups = append(dups, is.NodeID)
		}
	}
	if want := []string{"S2", "S3"}; !reflect.DeepEqual(dups, want) {
		t.Fatalf("duplicate sources = %v, want %v", dups, want)
	}
}

func TestLayer_Deterministic(t *testing.T) {
	l := chain(t)
	if err := l.AddEdge(topo.Edge{ID: "E4", Src: "L2", Dst: "S", Circuit: topo.CircuitAC}); err != nil {
		t.Fatalf("add edge: %v", err)
	}
	f := topo.Filter{Circuit: topo.CircuitAC}
	first := Layer(l, f)
	second := Layer(l, f)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("runs differ:\n%+v\n%+v", first, second)
	}
}

func hasCode(issues []Issue, c Code) bool {
	for _, is := range issues {
		if is.Code == c {
			return true
		}
	}
	return false
}
