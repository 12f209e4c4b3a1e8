package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/jzagalv/ssaa-designer/pkg/errors"
	"github.com/jzagalv/ssaa-designer/pkg/loadtable"
	"github.com/jzagalv/ssaa-designer/pkg/registry"
	"github.com/jzagalv/ssaa-designer/pkg/render"
	"github.com/jzagalv/ssaa-designer/pkg/schema"
	"github.com/jzagalv/ssaa-designer/pkg/validate"
)

type layerInfo struct {
	Key   string `json:"key"`
	Nodes int    `json:"nodes"`
	Edges int    `json:"edges"`
	Drawn bool   `json:"drawn"`
}

type issuesResponse struct {
	Issues  []validate.Issue `json:"issues"`
	Summary string           `json:"summary"`
}

type loadTableResponse struct {
	Rows        []loadtable.Row `json:"rows"`
	TotalPowerW float64         `json:"total_p_w"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"project": s.runner.Project(),
	})
}

// handleRefresh schedules a reload of the project from the store, for
// notifying the server that another process saved it. With a refresh
// debounce configured the reload is coalesced and the response reports it
// as scheduled; otherwise it completes before the response.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.RequestRefresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

// handleLayers lists every workspace the registry makes available, with
// counts for the ones that hold a drawing.
func (s *Server) handleLayers(w http.ResponseWriter, r *http.Request) {
	drawn := make(map[registry.RequirementCode]bool)
	for _, key := range s.runner.Layers() {
		drawn[key] = true
	}

	keys := s.runner.Snapshot().AvailableWorkspaces()
	for _, key := range s.runner.Layers() {
		if !containsKey(keys, key) {
			keys = append(keys, key)
		}
	}

	out := make([]layerInfo, 0, len(keys))
	for _, key := range keys {
		info := layerInfo{Key: string(key), Drawn: drawn[key]}
		if drawn[key] {
			l, err := s.runner.Layer(key)
			if err != nil {
				writeError(w, err)
				return
			}
			info.Nodes = l.NodeCount()
			info.Edges = l.EdgeCount()
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLayer(w http.ResponseWriter, r *http.Request) {
	key, err := layerKey(r)
	if err != nil {
		writeError(w, err)
		return
	}
	l, err := s.runner.Layer(key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema.FromLayer(l))
}

func (s *Server) handleIssues(w http.ResponseWriter, r *http.Request) {
	key, err := layerKey(r)
	if err != nil {
		writeError(w, err)
		return
	}
	issues, err := s.runner.Issues(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	if issues == nil {
		issues = []validate.Issue{}
	}
	writeJSON(w, http.StatusOK, issuesResponse{
		Issues:  issues,
		Summary: validate.Summary(issues),
	})
}

func (s *Server) handleLoadTable(w http.ResponseWriter, r *http.Request) {
	key, err := layerKey(r)
	if err != nil {
		writeError(w, err)
		return
	}
	l, err := s.runner.Layer(key)
	if err != nil {
		writeError(w, err)
		return
	}
	f := key.Filter()
	rows := loadtable.AllRows(l, f)
	if rows == nil {
		rows = []loadtable.Row{}
	}
	writeJSON(w, http.StatusOK, loadTableResponse{
		Rows:        rows,
		TotalPowerW: loadtable.TotalPowerW(l, f),
	})
}

func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	key, err := layerKey(r)
	if err != nil {
		writeError(w, err)
		return
	}
	l, err := s.runner.Layer(key)
	if err != nil {
		writeError(w, err)
		return
	}
	dot := render.ToDOT(l, key.Filter(), render.Options{Detailed: r.URL.Query().Get("detailed") == "true"})
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = w.Write([]byte(dot))
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	key, err := layerKey(r)
	if err != nil {
		writeError(w, err)
		return
	}
	l, err := s.runner.Layer(key)
	if err != nil {
		writeError(w, err)
		return
	}
	dot := render.ToDOT(l, key.Filter(), render.Options{})
	svg, err := render.SVG(r.Context(), dot)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "failed to render layer %s", key))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func layerKey(r *http.Request) (registry.RequirementCode, error) {
	key := registry.RequirementCode(chi.URLParam(r, "key"))
	if !key.Valid() {
		return "", apperrors.New(apperrors.ErrCodeInvalidLayerKey, "unknown workspace: %s", key)
	}
	return key, nil
}

func containsKey(keys []registry.RequirementCode, key registry.RequirementCode) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
