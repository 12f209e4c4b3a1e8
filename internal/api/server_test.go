package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/jzagalv/ssaa-designer/pkg/pipeline"
	"github.com/jzagalv/ssaa-designer/pkg/registry"
	"github.com/jzagalv/ssaa-designer/pkg/schema"
	"github.com/jzagalv/ssaa-designer/pkg/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	snap := registry.NewSnapshot([]registry.Row{
		{Scope: "cabinet", CabinetRef: "G01", ComponentIndex: 2, Requirement: registry.ReqACEssential,
			Tag: "CAL-101", PowerW: 1500, Selected: true},
		{CabinetRef: "TGCA", Requirement: registry.ReqACEssential, Tag: "TGCA", Selected: true, IsBoard: true},
	})
	r := pipeline.NewRunner(store.NewMemory(), snap, log.New(io.Discard))
	ctx := context.Background()
	if err := r.Open(ctx, "SE Prueba"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := r.PlaceBoard(ctx, registry.ReqACEssential, "board:TGCA", 0, 0, true); err != nil {
		t.Fatalf("PlaceBoard: %v", err)
	}
	if _, err := r.PlaceFeeder(ctx, registry.ReqACEssential, "cabinet:G01:2:CA_ES", 0, 200); err != nil {
		t.Fatalf("PlaceFeeder: %v", err)
	}
	return New(r, log.New(io.Discard))
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v\n%s", err, rec.Body.String())
	}
	return v
}

func TestHealth(t *testing.T) {
	rec := get(t, testServer(t), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["project"] != "SE Prueba" {
		t.Errorf("project = %q", body["project"])
	}
}

func TestListLayers(t *testing.T) {
	rec := get(t, testServer(t), "/layers")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	layers := decode[[]layerInfo](t, rec)
	if len(layers) != 1 {
		t.Fatalf("got %d layers, want 1", len(layers))
	}
	if layers[0].Key != "CA_ES" || !layers[0].Drawn || layers[0].Nodes != 2 {
		t.Errorf("unexpected layer info: %+v", layers[0])
	}
}

func TestGetLayer(t *testing.T) {
	rec := get(t, testServer(t), "/layers/CA_ES")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	layer := decode[schema.LayerRecord](t, rec)
	if len(layer.Nodes) != 2 {
		t.Errorf("got %d nodes, want 2", len(layer.Nodes))
	}
	if len(layer.UsedFeeders) != 1 || layer.UsedFeeders[0] != "cabinet:G01:2:CA_ES" {
		t.Errorf("used feeders = %v", layer.UsedFeeders)
	}
}

func TestGetLayerUnknownKey(t *testing.T) {
	rec := get(t, testServer(t), "/layers/CA_XX")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["code"] != "INVALID_LAYER_KEY" {
		t.Errorf("code = %q", body["code"])
	}
}

func TestGetIssues(t *testing.T) {
	rec := get(t, testServer(t), "/layers/CA_ES/issues")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[issuesResponse](t, rec)
	// The placed load is not connected yet, so at least the orphan warning
	// must be present.
	found := false
	for _, is := range resp.Issues {
		if is.Code == "NODE_ORPHAN" {
			found = true
		}
	}
	if !found {
		t.Errorf("issues missing NODE_ORPHAN: %+v", resp.Issues)
	}
	if resp.Summary == "" {
		t.Error("summary is empty")
	}
}

func TestGetLoadTable(t *testing.T) {
	rec := get(t, testServer(t), "/layers/CA_ES/loadtable")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[loadTableResponse](t, rec)
	// No edges drawn yet: no per-board rows, but the placed load still
	// counts toward the sanity total.
	if len(resp.Rows) != 0 {
		t.Errorf("rows = %+v, want none", resp.Rows)
	}
	if resp.TotalPowerW != 1500 {
		t.Errorf("total = %v, want 1500", resp.TotalPowerW)
	}
}

func TestGetDOT(t *testing.T) {
	rec := get(t, testServer(t), "/layers/CA_ES/dot")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "digraph ssaa {") {
		t.Errorf("body does not look like DOT:\n%s", rec.Body.String())
	}
}

// chi serves each request on its own goroutine, so handlers hitting the
// shared runner must tolerate parallel requests (run under -race).
func TestConcurrentRequests(t *testing.T) {
	s := testServer(t)
	paths := []string{"/layers", "/layers/CA_ES", "/layers/CA_ES/issues", "/layers/CC_B1/issues"}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				rec := get(t, s, paths[(i+j)%len(paths)])
				if rec.Code != http.StatusOK {
					t.Errorf("GET %s: status = %d", paths[(i+j)%len(paths)], rec.Code)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestPostRefresh(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	// The reload must serve the state last saved to the store.
	layers := decode[[]layerInfo](t, get(t, s, "/layers"))
	if len(layers) != 1 || layers[0].Nodes != 2 {
		t.Errorf("layers after refresh = %+v", layers)
	}
}

func TestIssuesEmptyLayerIsArray(t *testing.T) {
	// An unknown-but-valid workspace materializes empty on demand and must
	// serve an empty array, not null.
	rec := get(t, testServer(t), "/layers/CC_B2/issues")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `"issues":null`) {
		t.Errorf("issues serialized as null:\n%s", rec.Body.String())
	}
}
