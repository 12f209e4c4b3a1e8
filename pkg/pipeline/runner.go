package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	apperrors "github.com/jzagalv/ssaa-designer/pkg/errors"
	"github.com/jzagalv/ssaa-designer/pkg/layout"
	"github.com/jzagalv/ssaa-designer/pkg/observability"
	"github.com/jzagalv/ssaa-designer/pkg/ports"
	"github.com/jzagalv/ssaa-designer/pkg/registry"
	"github.com/jzagalv/ssaa-designer/pkg/schema"
	"github.com/jzagalv/ssaa-designer/pkg/store"
	"github.com/jzagalv/ssaa-designer/pkg/topo"
	"github.com/jzagalv/ssaa-designer/pkg/validate"
)

// Runner owns the open project and drives the update sequence for its
// layers. CLI and API both go through a Runner so every entry point gets
// the same mutate → allocate → layout → validate → persist ordering.
//
// A Runner is bound to one store, one registry snapshot and one logger for
// its lifetime. Its methods are safe for concurrent use: a mutex serializes
// every update cycle, so callers observe one mutation at a time. Layers
// returned by Layer are owned by the runner and must only be mutated
// through Mutate.
type Runner struct {
	store  store.Store
	snap   *registry.Snapshot
	logger *log.Logger

	mu      sync.Mutex
	name    string
	doc     *schema.ProjectDocument
	layers  map[registry.RequirementCode]*topo.Layer
	issues  map[registry.RequirementCode][]validate.Issue
	refresh *Coalescer
}

// NewRunner creates a runner over the given store and registry snapshot.
// If st is nil, an in-memory store is used (persistence disabled).
// If snap is nil, an empty snapshot is used (cross-checks report nothing
// selected).
// If logger is nil, the default logger is used.
func NewRunner(st store.Store, snap *registry.Snapshot, logger *log.Logger) *Runner {
	if st == nil {
		st = store.NewMemory()
	}
	if snap == nil {
		snap = registry.NewSnapshot(nil)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		store:  st,
		snap:   snap,
		logger: logger,
		layers: make(map[registry.RequirementCode]*topo.Layer),
		issues: make(map[registry.RequirementCode][]validate.Issue),
	}
}

// Open loads the named project from the store and decodes its layers. A
// project that does not exist yet opens as an empty document; malformed
// layer records decode to empty layers rather than failing the open.
func (r *Runner) Open(ctx context.Context, name string) error {
	if err := apperrors.ValidateProjectName(name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open(ctx, name)
}

// open reloads the document from the store. Caller holds r.mu.
func (r *Runner) open(ctx context.Context, name string) error {
	doc, err := r.store.Load(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		doc = &schema.ProjectDocument{Name: name}
	case err != nil:
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "failed to load project %q", name)
	}
	doc.Migrate()

	r.name = name
	r.doc = doc
	r.layers = make(map[registry.RequirementCode]*topo.Layer)
	r.issues = make(map[registry.RequirementCode][]validate.Issue)

	for _, key := range registry.AllRequirements {
		rec, ok := doc.Layers[string(key)]
		if !ok {
			continue
		}
		r.layers[key] = schema.ToLayer(rec)
	}

	r.logger.Info("opened project", "name", name, "layers", len(r.layers))
	return nil
}

// Project returns the name of the open project.
func (r *Runner) Project() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.name
}

// Snapshot returns the registry snapshot the runner validates against. The
// snapshot is immutable after construction.
func (r *Runner) Snapshot() *registry.Snapshot { return r.snap }

// Layer returns the layer for the given workspace key, creating an empty
// one on first use.
func (r *Runner) Layer(key registry.RequirementCode) (*topo.Layer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.layer(key)
}

// layer returns or creates the keyed layer. Caller holds r.mu.
func (r *Runner) layer(key registry.RequirementCode) (*topo.Layer, error) {
	if !key.Valid() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidLayerKey, "unknown workspace: %s", key)
	}
	l, ok := r.layers[key]
	if !ok {
		l = topo.NewLayer()
		r.layers[key] = l
	}
	return l, nil
}

// Layers returns the workspace keys that currently hold a layer, in
// canonical order.
func (r *Runner) Layers() []registry.RequirementCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []registry.RequirementCode
	for _, key := range registry.AllRequirements {
		if _, ok := r.layers[key]; ok {
			out = append(out, key)
		}
	}
	return out
}

// Mutate applies fn to the keyed layer and runs the rest of the update
// sequence: port allocation, optional layout, validation, persist. The op
// string names the mutation for logging and observability hooks. An error
// from fn aborts the sequence before any of the follow-up stages run.
//
// fn runs with the runner's lock held and must not call back into the
// runner.
func (r *Runner) Mutate(ctx context.Context, key registry.RequirementCode, op string, opts MutateOptions, fn func(l *topo.Layer) error) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, err := r.layer(key)
	if err != nil {
		return nil, err
	}

	hooks := observability.Engine()
	hooks.OnMutation(ctx, string(key), op)

	if err := fn(l); err != nil {
		return nil, err
	}

	result := &Result{}
	result.Stats.PortsChanged = ports.AllocateAll(l)

	f := key.Filter()
	if opts.Relayout {
		layoutStart := time.Now()
		hooks.OnLayoutStart(ctx, string(key), l.NodeCount())
		layout.Apply(l, f)
		layout.AssignLanes(l, f, opts.ForceLanes)
		result.Stats.LayoutTime = time.Since(layoutStart)
		hooks.OnLayoutComplete(ctx, string(key), result.Stats.LayoutTime)
	} else if opts.ForceLanes {
		layout.AssignLanes(l, f, true)
	}

	validateStart := time.Now()
	hooks.OnValidateStart(ctx, string(key), l.NodeCount())
	issues := validate.Layer(l, f)
	issues = append(issues, validate.Cross(l, r.snap, key)...)
	validate.Sort(issues)
	result.Stats.ValidateTime = time.Since(validateStart)
	hooks.OnValidateComplete(ctx, string(key), len(issues), result.Stats.ValidateTime)
	r.issues[key] = issues

	result.Issues = issues
	result.Stats.NodeCount = l.NodeCount()
	result.Stats.EdgeCount = l.EdgeCount()

	if !opts.SkipSave {
		saveStart := time.Now()
		if err := r.save(ctx); err != nil {
			return nil, err
		}
		result.Stats.SaveTime = time.Since(saveStart)
	}

	r.logger.Debug("applied mutation",
		"op", op,
		"layer", key,
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"issues", len(issues))

	return result, nil
}

// Issues returns the diagnostics for the keyed layer. If no update cycle
// has run since the project was opened, validation runs first.
func (r *Runner) Issues(ctx context.Context, key registry.RequirementCode) ([]validate.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if issues, ok := r.issues[key]; ok {
		return issues, nil
	}
	return r.revalidate(ctx, key)
}

// Validate runs the structural and cross-consistency checks for the keyed
// layer without mutating or persisting anything.
func (r *Runner) Validate(ctx context.Context, key registry.RequirementCode) ([]validate.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revalidate(ctx, key)
}

// revalidate recomputes and caches the keyed layer's issues. Caller holds
// r.mu.
func (r *Runner) revalidate(ctx context.Context, key registry.RequirementCode) ([]validate.Issue, error) {
	l, err := r.layer(key)
	if err != nil {
		return nil, err
	}

	hooks := observability.Engine()
	start := time.Now()
	hooks.OnValidateStart(ctx, string(key), l.NodeCount())
	issues := validate.Layer(l, key.Filter())
	issues = append(issues, validate.Cross(l, r.snap, key)...)
	validate.Sort(issues)
	hooks.OnValidateComplete(ctx, string(key), len(issues), time.Since(start))

	r.issues[key] = issues
	return issues, nil
}

// Save encodes every layer into the project document and writes it to the
// store. The legacy single-topology field, if present, is left untouched.
func (r *Runner) Save(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(ctx)
}

// save writes the document. Caller holds r.mu.
func (r *Runner) save(ctx context.Context) error {
	if r.doc == nil {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "no project open")
	}
	for key, l := range r.layers {
		r.doc.Layers[string(key)] = schema.FromLayer(l)
	}
	r.doc.UpdatedAt = time.Now().UTC()
	if err := r.store.Save(ctx, r.name, r.doc); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "failed to save project %q", r.name)
	}
	return nil
}

// SetRefreshInterval arms burst coalescing for RequestRefresh: external
// change notifications arriving within the quiescent interval collapse into
// a single refresh pass.
func (r *Runner) SetRefreshInterval(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refresh != nil {
		r.refresh.Stop()
	}
	r.refresh = NewCoalescer(d, func() {
		if err := r.Refresh(context.Background()); err != nil {
			r.logger.Error("refresh failed", "error", err)
		}
	})
}

// RequestRefresh notes that the project changed outside this runner (the
// project file was rewritten, a section was edited elsewhere) and schedules
// a refresh pass. With a refresh interval set, bursts coalesce into one
// pass; without one, the pass runs inline on the caller's goroutine.
func (r *Runner) RequestRefresh(ctx context.Context) error {
	r.mu.Lock()
	c := r.refresh
	r.mu.Unlock()
	if c == nil {
		return r.Refresh(ctx)
	}
	c.Request()
	return nil
}

// Refresh reloads the open project from the store and revalidates every
// layer it holds, discarding cached diagnostics.
func (r *Runner) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.name == "" {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "no project open")
	}
	if err := r.open(ctx, r.name); err != nil {
		return err
	}
	for _, key := range registry.AllRequirements {
		if _, ok := r.layers[key]; !ok {
			continue
		}
		if _, err := r.revalidate(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// PlaceFeeder materializes the registry row behind feederKey as a load node
// at (x, y) in the keyed layer. The feeder must be selected upstream, must
// belong to the layer's requirement and must not be drawn yet.
func (r *Runner) PlaceFeeder(ctx context.Context, key registry.RequirementCode, feederKey string, x, y float64) (*Result, error) {
	return r.placeConsumer(ctx, key, OpPlaceFeeder, feederKey, topo.KindLoad, x, y)
}

// PlaceCharger materializes the registry row behind feederKey as a charger
// node. Chargers live on the AC side but feed a DC bus; like any other
// consumer they occupy their feeder key in the layer they are drawn in.
func (r *Runner) PlaceCharger(ctx context.Context, key registry.RequirementCode, feederKey string, x, y float64) (*Result, error) {
	return r.placeConsumer(ctx, key, OpPlaceCharger, feederKey, topo.KindCharger, x, y)
}

func (r *Runner) placeConsumer(ctx context.Context, key registry.RequirementCode, op, feederKey string, kind topo.NodeKind, x, y float64) (*Result, error) {
	if err := apperrors.ValidateFeederKey(feederKey); err != nil {
		return nil, err
	}
	row, ok := r.snap.Lookup(feederKey)
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "feeder %q is not in the registry", feederKey)
	}
	if !row.Selected {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "feeder %q is not selected for the SS/AA board", feederKey)
	}
	if row.Requirement != key {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "feeder %q belongs to workspace %s, not %s", feederKey, row.Requirement, key)
	}

	return r.Mutate(ctx, key, op, MutateOptions{}, func(l *topo.Layer) error {
		if l.IsConsumed(feederKey) {
			return apperrors.New(apperrors.ErrCodeInvalidInput, "feeder %q is already drawn in this layer", feederKey)
		}
		n := topo.Node{
			ID:        topo.NewID("CARGA"),
			Kind:      kind,
			Name:      rowName(row),
			X:         x,
			Y:         y,
			W:         ports.NodeWidth(kind, 1, 1),
			H:         ports.NodeHeight(kind),
			PowerW:    row.PowerW,
			FeederKey: feederKey,
			Meta: topo.Meta{
				"cabinet_ref": row.CabinetRef,
				"requirement": string(row.Requirement),
				"tag":         row.Tag,
				"description": row.Description,
			},
		}
		if f := key.Filter(); f.Circuit == topo.CircuitDC {
			n.DCSystem = f.DCSystem
		}
		return l.AddNode(n)
	})
}

// PlaceSource materializes a registry source row as a source node at
// (x, y). The node ID is deterministic per (source, workspace), so drawing
// the same source twice in one layer is rejected as a duplicate.
func (r *Runner) PlaceSource(ctx context.Context, key registry.RequirementCode, externalKey string, x, y float64) (*Result, error) {
	row, ok := r.snap.Source(externalKey)
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "source %q is not in the registry", externalKey)
	}

	return r.Mutate(ctx, key, OpPlaceSource, MutateOptions{}, func(l *topo.Layer) error {
		n := topo.Node{
			ID:          externalKey + ":" + string(key),
			Kind:        topo.KindSource,
			Name:        rowName(row),
			X:           x,
			Y:           y,
			W:           ports.SourceCardWidth,
			H:           ports.NodeHeight(topo.KindSource),
			ExternalKey: externalKey,
		}
		if err := l.AddNode(n); err != nil {
			if errors.Is(err, topo.ErrDuplicateNodeID) {
				return apperrors.New(apperrors.ErrCodeInvalidInput, "source %q is already drawn in this layer", externalKey)
			}
			return err
		}
		return nil
	})
}

// PlaceBoard materializes a registry board row as a board node at (x, y).
// root marks the board as the layer's origin: the validator then rejects
// any incoming edge on it.
func (r *Runner) PlaceBoard(ctx context.Context, key registry.RequirementCode, externalKey string, x, y float64, root bool) (*Result, error) {
	row, ok := r.snap.Board(externalKey)
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "board %q is not in the registry", externalKey)
	}

	return r.Mutate(ctx, key, OpPlaceBoard, MutateOptions{}, func(l *topo.Layer) error {
		n := topo.Node{
			ID:          externalKey + ":" + string(key),
			Kind:        topo.KindBoard,
			Name:        rowName(row),
			Class:       row.Tag,
			X:           x,
			Y:           y,
			W:           ports.NodeWidth(topo.KindBoard, 1, 1),
			H:           ports.NodeHeight(topo.KindBoard),
			ExternalKey: externalKey,
			Root:        root,
		}
		if err := l.AddNode(n); err != nil {
			if errors.Is(err, topo.ErrDuplicateNodeID) {
				return apperrors.New(apperrors.ErrCodeInvalidInput, "board %q is already drawn in this layer", externalKey)
			}
			return err
		}
		return nil
	})
}

// Connect commits an edge between two ports, running the same direction,
// duplicate and cycle pre-checks as the interactive two-click gesture.
func (r *Runner) Connect(ctx context.Context, key registry.RequirementCode, src, dst topo.PortRef) (*Result, error) {
	return r.Mutate(ctx, key, OpConnect, MutateOptions{}, func(l *topo.Layer) error {
		c := topo.NewConnector(l, key.Filter())
		if _, err := c.PortSelected(src.NodeID, src.PortID); err != nil {
			return err
		}
		edge, err := c.PortSelected(dst.NodeID, dst.PortID)
		if err != nil {
			return err
		}
		if edge == nil {
			return apperrors.New(apperrors.ErrCodeInvalidInput, "connection cancelled: both endpoints name the same port")
		}
		return nil
	})
}

// Delete removes the given nodes and edges from the keyed layer, cascading
// incident edges and releasing consumed feeder keys.
func (r *Runner) Delete(ctx context.Context, key registry.RequirementCode, nodeIDs, edgeIDs []string) (*Result, error) {
	var removed topo.Removed
	res, err := r.Mutate(ctx, key, OpDelete, MutateOptions{}, func(l *topo.Layer) error {
		removed = l.DeleteSelection(nodeIDs, edgeIDs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Removed = removed
	return res, nil
}

// Relayout reruns auto-placement and lane assignment for the keyed layer.
func (r *Runner) Relayout(ctx context.Context, key registry.RequirementCode, forceLanes bool) (*Result, error) {
	opts := MutateOptions{Relayout: true, ForceLanes: forceLanes}
	return r.Mutate(ctx, key, OpRelayout, opts, func(*topo.Layer) error { return nil })
}

// Close drops any pending refresh and releases the runner's store.
func (r *Runner) Close() error {
	r.mu.Lock()
	c := r.refresh
	r.mu.Unlock()
	if c != nil {
		c.Stop()
	}
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}

// rowName picks the display name for a materialized registry row: the tag
// when one exists, otherwise the description, otherwise the cabinet ref.
func rowName(row registry.Row) string {
	if row.Tag != "" {
		return row.Tag
	}
	if row.Description != "" {
		return row.Description
	}
	return row.CabinetRef
}
