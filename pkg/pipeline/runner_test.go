package pipeline

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jzagalv/ssaa-designer/pkg/registry"
	"github.com/jzagalv/ssaa-designer/pkg/schema"
	"github.com/jzagalv/ssaa-designer/pkg/store"
	"github.com/jzagalv/ssaa-designer/pkg/topo"
	"github.com/jzagalv/ssaa-designer/pkg/validate"
)

func testSnapshot() *registry.Snapshot {
	return registry.NewSnapshot([]registry.Row{
		{Scope: "cabinet", CabinetRef: "G01", ComponentIndex: 2, Requirement: registry.ReqACEssential,
			Tag: "CAL-101", Description: "Calefaccion celda 101", PowerW: 1500, Selected: true},
		{Scope: "cabinet", CabinetRef: "G02", ComponentIndex: -1, Requirement: registry.ReqACEssential,
			Tag: "ILU-001", PowerW: 400, Selected: true},
		{Scope: "cabinet", CabinetRef: "G03", ComponentIndex: -1, Requirement: registry.ReqACEssential,
			Tag: "VEN-003", PowerW: 900, Selected: false},
		{Scope: "cabinet", CabinetRef: "G04", ComponentIndex: -1, Requirement: registry.ReqDCB1,
			Tag: "PCS-001", PowerW: 250, Selected: true},
		{CabinetRef: "TRAFO-SSAA", Requirement: registry.ReqACEssential, Tag: "T1", Selected: true, IsSource: true},
		{CabinetRef: "TGCA", Requirement: registry.ReqACEssential, Tag: "TGCA", Selected: true, IsBoard: true},
	})
}

func testRunner(t *testing.T) *Runner {
	t.Helper()
	r := NewRunner(store.NewMemory(), testSnapshot(), log.New(io.Discard))
	if err := r.Open(context.Background(), "SE Prueba"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return r
}

func hasIssue(issues []validate.Issue, code validate.Code) bool {
	for _, is := range issues {
		if is.Code == code {
			return true
		}
	}
	return false
}

func TestOpenMissingProjectStartsEmpty(t *testing.T) {
	r := testRunner(t)
	if got := len(r.Layers()); got != 0 {
		t.Fatalf("expected no layers in a fresh project, got %d", got)
	}
	l, err := r.Layer(registry.ReqACEssential)
	if err != nil {
		t.Fatalf("Layer: %v", err)
	}
	if l.NodeCount() != 0 {
		t.Fatalf("expected empty layer, got %d nodes", l.NodeCount())
	}
}

func TestLayerRejectsUnknownWorkspace(t *testing.T) {
	r := testRunner(t)
	if _, err := r.Layer("CA_XX"); err == nil {
		t.Fatal("expected error for unknown workspace key")
	}
}

func TestPlaceFeeder(t *testing.T) {
	r := testRunner(t)
	ctx := context.Background()

	res, err := r.PlaceFeeder(ctx, registry.ReqACEssential, "cabinet:G01:2:CA_ES", 100, 400)
	if err != nil {
		t.Fatalf("PlaceFeeder: %v", err)
	}
	if res.Stats.NodeCount != 1 {
		t.Fatalf("expected 1 node, got %d", res.Stats.NodeCount)
	}

	l, _ := r.Layer(registry.ReqACEssential)
	if !l.IsConsumed("cabinet:G01:2:CA_ES") {
		t.Error("feeder key not consumed")
	}
	n := l.Nodes()[0]
	if n.Kind != topo.KindLoad {
		t.Errorf("kind = %s, want load", n.Kind)
	}
	if n.Name != "CAL-101" {
		t.Errorf("name = %q, want tag", n.Name)
	}
	if n.PowerW != 1500 {
		t.Errorf("power = %v, want 1500", n.PowerW)
	}

	// An unconnected load is an orphan until it gets a feed.
	if !hasIssue(res.Issues, validate.CodeNodeOrphan) {
		t.Error("expected NODE_ORPHAN for an unconnected load")
	}
}

func TestPlaceFeederRejections(t *testing.T) {
	r := testRunner(t)
	ctx := context.Background()

	tests := []struct {
		name string
		key  registry.RequirementCode
		fk   string
	}{
		{"not in registry", registry.ReqACEssential, "cabinet:G99:none:CA_ES"},
		{"not selected", registry.ReqACEssential, "cabinet:G03:none:CA_ES"},
		{"wrong workspace", registry.ReqACEssential, "cabinet:G04:none:CC_B1"},
		{"malformed key", registry.ReqACEssential, "not a key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.PlaceFeeder(ctx, tt.key, tt.fk, 0, 0); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestPlaceFeederTwiceRejected(t *testing.T) {
	r := testRunner(t)
	ctx := context.Background()

	if _, err := r.PlaceFeeder(ctx, registry.ReqACEssential, "cabinet:G01:2:CA_ES", 0, 0); err != nil {
		t.Fatalf("first placement: %v", err)
	}
	if _, err := r.PlaceFeeder(ctx, registry.ReqACEssential, "cabinet:G01:2:CA_ES", 50, 50); err == nil {
		t.Fatal("expected duplicate placement to be rejected")
	}
}

func TestPlaceSourceAndBoard(t *testing.T) {
	r := testRunner(t)
	ctx := context.Background()

	if _, err := r.PlaceSource(ctx, registry.ReqACEssential, "src:TRAFO-SSAA", 0, 0); err != nil {
		t.Fatalf("PlaceSource: %v", err)
	}
	if _, err := r.PlaceBoard(ctx, registry.ReqACEssential, "board:TGCA", 0, 200, true); err != nil {
		t.Fatalf("PlaceBoard: %v", err)
	}

	l, _ := r.Layer(registry.ReqACEssential)
	src, ok := l.Node("src:TRAFO-SSAA:CA_ES")
	if !ok {
		t.Fatal("source node missing under its deterministic ID")
	}
	if src.HasPort(topo.DirIn) {
		t.Error("source must not carry an IN port")
	}
	board, ok := l.Node("board:TGCA:CA_ES")
	if !ok {
		t.Fatal("board node missing under its deterministic ID")
	}
	if !board.Root {
		t.Error("board should carry the root flag")
	}
	if !board.HasPort(topo.DirIn) {
		t.Error("board must carry an IN port")
	}

	// Same source again in the same layer is a duplicate.
	if _, err := r.PlaceSource(ctx, registry.ReqACEssential, "src:TRAFO-SSAA", 10, 10); err == nil {
		t.Fatal("expected duplicate source placement to be rejected")
	}
}

// buildChain draws source -> board -> load and returns the last result.
func buildChain(t *testing.T, r *Runner) *Result {
	t.Helper()
	ctx := context.Background()
	key := registry.ReqACEssential

	mustPlace := func(res *Result, err error) *Result {
		t.Helper()
		if err != nil {
			t.Fatalf("place: %v", err)
		}
		return res
	}
	mustPlace(r.PlaceSource(ctx, key, "src:TRAFO-SSAA", 0, 0))
	mustPlace(r.PlaceBoard(ctx, key, "board:TGCA", 0, 200, true))
	mustPlace(r.PlaceFeeder(ctx, key, "cabinet:G01:2:CA_ES", 0, 400))

	l, _ := r.Layer(key)
	src, _ := l.Node("src:TRAFO-SSAA:CA_ES")
	board, _ := l.Node("board:TGCA:CA_ES")
	var load *topo.Node
	for _, n := range l.Nodes() {
		if n.Kind == topo.KindLoad {
			load = n
		}
	}

	res, err := r.Connect(ctx, key,
		topo.PortRef{NodeID: src.ID, PortID: src.PortsByDirection(topo.DirOut)[0].ID},
		topo.PortRef{NodeID: board.ID, PortID: board.PortsByDirection(topo.DirIn)[0].ID})
	if err != nil {
		t.Fatalf("connect source->board: %v", err)
	}
	res, err = r.Connect(ctx, key,
		topo.PortRef{NodeID: board.ID, PortID: board.PortsByDirection(topo.DirOut)[0].ID},
		topo.PortRef{NodeID: load.ID, PortID: load.PortsByDirection(topo.DirIn)[0].ID})
	if err != nil {
		t.Fatalf("connect board->load: %v", err)
	}
	return res
}

func TestConnectClearsOrphans(t *testing.T) {
	r := testRunner(t)
	res := buildChain(t, r)

	if hasIssue(res.Issues, validate.CodeNodeOrphan) {
		t.Error("orphan warning should clear once the load is fed")
	}
	if res.Stats.EdgeCount != 2 {
		t.Errorf("edges = %d, want 2", res.Stats.EdgeCount)
	}
}

func TestMutationsPersistAcrossReopen(t *testing.T) {
	st := store.NewMemory()
	r := NewRunner(st, testSnapshot(), log.New(io.Discard))
	ctx := context.Background()
	if err := r.Open(ctx, "SE Prueba"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	buildChain(t, r)

	r2 := NewRunner(st, testSnapshot(), log.New(io.Discard))
	if err := r2.Open(ctx, "SE Prueba"); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	l, _ := r2.Layer(registry.ReqACEssential)
	if l.NodeCount() != 3 || l.EdgeCount() != 2 {
		t.Fatalf("reopened layer has %d nodes / %d edges, want 3 / 2", l.NodeCount(), l.EdgeCount())
	}
	if !l.IsConsumed("cabinet:G01:2:CA_ES") {
		t.Error("consumed feeder key lost across reopen")
	}
}

func TestDeleteReleasesFeederKey(t *testing.T) {
	r := testRunner(t)
	ctx := context.Background()
	buildChain(t, r)

	l, _ := r.Layer(registry.ReqACEssential)
	var loadID string
	for _, n := range l.Nodes() {
		if n.Kind == topo.KindLoad {
			loadID = n.ID
		}
	}

	res, err := r.Delete(ctx, registry.ReqACEssential, []string{loadID}, nil)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(res.Removed.Nodes) != 1 || len(res.Removed.Edges) != 1 {
		t.Fatalf("removed %d nodes / %d edges, want 1 / 1", len(res.Removed.Nodes), len(res.Removed.Edges))
	}
	if l.IsConsumed("cabinet:G01:2:CA_ES") {
		t.Error("feeder key should be released on delete")
	}

	// The released feeder can be drawn again.
	if _, err := r.PlaceFeeder(ctx, registry.ReqACEssential, "cabinet:G01:2:CA_ES", 0, 0); err != nil {
		t.Fatalf("re-place after delete: %v", err)
	}
}

func TestRelayoutPlacesByLevel(t *testing.T) {
	r := testRunner(t)
	ctx := context.Background()
	buildChain(t, r)

	if _, err := r.Relayout(ctx, registry.ReqACEssential, false); err != nil {
		t.Fatalf("Relayout: %v", err)
	}

	l, _ := r.Layer(registry.ReqACEssential)
	src, _ := l.Node("src:TRAFO-SSAA:CA_ES")
	board, _ := l.Node("board:TGCA:CA_ES")
	if !(src.Y < board.Y) {
		t.Errorf("source (y=%v) should sit above the board (y=%v)", src.Y, board.Y)
	}
	for _, e := range l.Edges() {
		if !e.HasLane {
			t.Errorf("edge %s has no lane after relayout", e.ID)
		}
	}
}

func TestIssuesWithoutMutationRunsValidation(t *testing.T) {
	r := testRunner(t)
	issues, err := r.Issues(context.Background(), registry.ReqACEssential)
	if err != nil {
		t.Fatalf("Issues: %v", err)
	}
	// Selected feeders exist but nothing is drawn.
	if !hasIssue(issues, validate.CodeFeedSelectedNotUsed) {
		t.Error("expected FEED_SELECTED_NOT_USED on an empty layer")
	}
	if !hasIssue(issues, validate.CodeSourceNotDrawn) {
		t.Error("expected SOURCE_NOT_DRAWN on an empty layer")
	}
}

func TestMutateErrorAbortsCycle(t *testing.T) {
	r := testRunner(t)
	ctx := context.Background()
	buildChain(t, r)
	before, _ := r.Issues(ctx, registry.ReqACEssential)

	_, err := r.Mutate(ctx, registry.ReqACEssential, OpEdit, MutateOptions{}, func(l *topo.Layer) error {
		return topo.ErrUnknownNode
	})
	if err == nil {
		t.Fatal("expected mutation error to propagate")
	}
	after, _ := r.Issues(ctx, registry.ReqACEssential)
	if len(before) != len(after) {
		t.Error("failed mutation should not refresh cached issues")
	}
}

// The HTTP server drives one runner from many handler goroutines; reads
// and update cycles must interleave safely (run under -race).
func TestConcurrentReadsAndMutations(t *testing.T) {
	r := testRunner(t)
	ctx := context.Background()
	buildChain(t, r)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				if _, err := r.Issues(ctx, registry.ReqACEssential); err != nil {
					t.Errorf("Issues: %v", err)
					return
				}
				r.Layers()
				if _, err := r.Layer(registry.ReqDCB1); err != nil {
					t.Errorf("Layer: %v", err)
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 25; j++ {
			if _, err := r.Validate(ctx, registry.ReqACEssential); err != nil {
				t.Errorf("Validate: %v", err)
				return
			}
		}
	}()
	wg.Wait()
}

func TestRefreshPicksUpExternalSave(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	viewer := NewRunner(st, testSnapshot(), log.New(io.Discard))
	if err := viewer.Open(ctx, "SE Prueba"); err != nil {
		t.Fatalf("Open viewer: %v", err)
	}

	editor := NewRunner(st, testSnapshot(), log.New(io.Discard))
	if err := editor.Open(ctx, "SE Prueba"); err != nil {
		t.Fatalf("Open editor: %v", err)
	}
	buildChain(t, editor)

	// Without a refresh interval the pass runs inline.
	if err := viewer.RequestRefresh(ctx); err != nil {
		t.Fatalf("RequestRefresh: %v", err)
	}
	l, _ := viewer.Layer(registry.ReqACEssential)
	if l.NodeCount() != 3 || l.EdgeCount() != 2 {
		t.Fatalf("refreshed layer has %d nodes / %d edges, want 3 / 2", l.NodeCount(), l.EdgeCount())
	}
	issues, err := viewer.Issues(ctx, registry.ReqACEssential)
	if err != nil {
		t.Fatalf("Issues: %v", err)
	}
	if hasIssue(issues, validate.CodeSourceNotDrawn) {
		t.Error("stale SOURCE_NOT_DRAWN after refresh: diagnostics were not recomputed")
	}
}

// countingStore counts Load calls so tests can observe refresh passes.
type countingStore struct {
	store.Store
	mu    sync.Mutex
	loads int
}

func (c *countingStore) Load(ctx context.Context, name string) (*schema.ProjectDocument, error) {
	c.mu.Lock()
	c.loads++
	c.mu.Unlock()
	return c.Store.Load(ctx, name)
}

func (c *countingStore) loadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}

func TestRequestRefreshCoalescesBursts(t *testing.T) {
	cs := &countingStore{Store: store.NewMemory()}
	r := NewRunner(cs, testSnapshot(), log.New(io.Discard))
	ctx := context.Background()
	if err := r.Open(ctx, "SE Prueba"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	r.SetRefreshInterval(20 * time.Millisecond)
	for i := 0; i < 10; i++ {
		if err := r.RequestRefresh(ctx); err != nil {
			t.Fatalf("RequestRefresh: %v", err)
		}
	}

	// Open loaded once; the burst must add exactly one more load.
	deadline := time.Now().Add(2 * time.Second)
	for cs.loadCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(60 * time.Millisecond)
	if got := cs.loadCount(); got != 2 {
		t.Fatalf("store loaded %d times, want 2 (open + one coalesced refresh)", got)
	}
}
