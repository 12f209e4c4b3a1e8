// Package pipeline sequences the update cycle of the topology engine.
//
// Every mutation of a layer (placing a feeder, connecting ports, deleting a
// selection) runs through the same fixed sequence so the in-memory model,
// the diagnostics and the persisted document can never drift apart:
//
//  1. Mutate: apply the requested change to the layer
//  2. Allocate: resize and rebind board ports to match the new edge set
//  3. Layout: optional auto-placement and lane assignment
//  4. Validate: structural checks plus cross-checks against the registry,
//     after layout so diagnostics describe the state that gets persisted
//  5. Persist: encode every layer and save the project document
//
// # Usage
//
// Create a Runner bound to a store and a registry snapshot, open a project
// and mutate layers through it:
//
//	r := pipeline.NewRunner(st, snap, logger)
//	if err := r.Open(ctx, "SE Maitencillo"); err != nil {
//	    log.Fatal(err)
//	}
//	res, err := r.PlaceFeeder(ctx, registry.ReqACEssential, "cabinet:G01:2:CA_ES", 100, 200)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, issue := range res.Issues {
//	    fmt.Println(issue.Code, issue.Message)
//	}
//
// External change notifications are debounced through a [Coalescer]: a
// Runner with a refresh interval set folds RequestRefresh bursts into one
// reload-and-revalidate pass per quiescent interval.
package pipeline

import (
	"time"

	"github.com/jzagalv/ssaa-designer/pkg/topo"
	"github.com/jzagalv/ssaa-designer/pkg/validate"
)

// Mutation operation names reported to the observability hooks.
const (
	OpPlaceFeeder  = "place_feeder"
	OpPlaceCharger = "place_charger"
	OpPlaceSource  = "place_source"
	OpPlaceBoard   = "place_board"
	OpConnect      = "connect"
	OpDelete       = "delete"
	OpRelayout     = "relayout"
	OpEdit         = "edit"
)

// MutateOptions tunes the tail of the update sequence.
type MutateOptions struct {
	// Relayout runs the auto-layout pass after the mutation instead of
	// keeping existing positions.
	Relayout bool
	// ForceLanes recomputes every edge lane instead of only filling
	// missing ones. Implies lane assignment even without Relayout.
	ForceLanes bool
	// SkipSave leaves the project document unsaved. Used to batch several
	// mutations under one save.
	SkipSave bool
}

// Result reports what one update cycle produced.
type Result struct {
	// Issues is the full diagnostic set for the layer after the mutation,
	// deterministically ordered.
	Issues []validate.Issue

	// Removed lists what a delete mutation actually removed.
	Removed topo.Removed

	// Stats carries timing and size information for the cycle.
	Stats Stats
}

// Stats contains update cycle statistics.
type Stats struct {
	NodeCount    int
	EdgeCount    int
	PortsChanged bool
	ValidateTime time.Duration
	LayoutTime   time.Duration
	SaveTime     time.Duration
}
