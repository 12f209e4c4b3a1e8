// Package pkg provides the core libraries of the SS/AA topology designer.
//
// # Overview
//
// The designer models the auxiliary-services (SS/AA) single-line diagrams of
// a substation: which sources feed which distribution boards, and which
// boards feed which consumers, drawn once per workspace layer (essential AC,
// non-essential AC, and one layer per DC battery bus). The pkg directory is
// organized into four main areas:
//
//  1. Domain model ([topo], [ports], [registry]) - layers, nodes, edges,
//     port allocation and the external feeder registry
//  2. Engines ([validate], [layout], [loadtable]) - diagnostics,
//     auto-placement and power aggregation over a layer
//  3. Infrastructure ([schema], [store], [config], [errors],
//     [observability]) - persistence, configuration and ambient concerns
//  4. Orchestration ([pipeline], [render]) - the update sequence shared by
//     every entry point, and diagram export
//
// # Architecture
//
// The typical data flow through an update:
//
//	mutation (place / connect / delete)
//	         ↓
//	    [ports] package (board port allocation)
//	         ↓
//	    [layout] package (optional auto-placement + lanes)
//	         ↓
//	    [validate] package (structural + registry cross-checks)
//	         ↓
//	    [schema] + [store] packages (persist the project document)
//
// # Quick Start
//
// Open a project and place a feeder:
//
//	import (
//	    "context"
//	    "github.com/jzagalv/ssaa-designer/pkg/pipeline"
//	    "github.com/jzagalv/ssaa-designer/pkg/registry"
//	    "github.com/jzagalv/ssaa-designer/pkg/store"
//	)
//
//	st, _ := store.NewFile("")
//	snap, _ := registry.LoadSnapshot("rows.json")
//	r := pipeline.NewRunner(st, snap, nil)
//	_ = r.Open(context.Background(), "SE Maitencillo")
//	res, _ := r.PlaceFeeder(context.Background(), registry.ReqACEssential,
//	    "cabinet:G01:2:CA_ES", 100, 400)
//	for _, issue := range res.Issues {
//	    fmt.Println(issue.Code, issue.Message)
//	}
//
// # Main Packages
//
// [topo] - The layer model: nodes (source, board, load, charger), ports,
// edges, per-circuit sub-graph filtering, the feeder consumption set and
// the two-click connect state machine.
//
// [ports] - Board port allocation. Slots grow and shrink with the edge set
// while surviving ports keep their identity, and node geometry follows the
// slot count deterministically.
//
// [registry] - Snapshot of the externally owned feeder/source/board
// registry, feeder-key construction and the workspace-key mapping.
//
// [validate] - Structural diagnostics (self-loops, duplicates, dangling
// edges, cycles, orphans, source constraints) plus cross-checks against the
// registry snapshot. Deterministic issue ordering.
//
// [layout] - Auto-placement: longest-path leveling, grid placement,
// board-children alignment and edge lane assignment.
//
// [loadtable] - Downstream power aggregation per board sub-feeder.
//
// [schema] - Persisted record types (json+bson) and never-brick decoding:
// malformed layers degrade to empty instead of failing the open.
//
// [store] - Project persistence behind one interface with memory, file,
// Redis and MongoDB backends.
//
// [pipeline] - The update sequence (mutate → allocate → layout → validate →
// persist) used by CLI and API, plus refresh coalescing.
//
// [render] - DOT export and in-process SVG rendering of a layer.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...       # All tests
//	go test ./pkg/topo/...  # Specific package
//
// [topo]: https://pkg.go.dev/github.com/jzagalv/ssaa-designer/pkg/topo
// [ports]: https://pkg.go.dev/github.com/jzagalv/ssaa-designer/pkg/ports
// [registry]: https://pkg.go.dev/github.com/jzagalv/ssaa-designer/pkg/registry
// [validate]: https://pkg.go.dev/github.com/jzagalv/ssaa-designer/pkg/validate
// [layout]: https://pkg.go.dev/github.com/jzagalv/ssaa-designer/pkg/layout
// [loadtable]: https://pkg.go.dev/github.com/jzagalv/ssaa-designer/pkg/loadtable
// [schema]: https://pkg.go.dev/github.com/jzagalv/ssaa-designer/pkg/schema
// [store]: https://pkg.go.dev/github.com/jzagalv/ssaa-designer/pkg/store
// [config]: https://pkg.go.dev/github.com/jzagalv/ssaa-designer/pkg/config
// [errors]: https://pkg.go.dev/github.com/jzagalv/ssaa-designer/pkg/errors
// [observability]: https://pkg.go.dev/github.com/jzagalv/ssaa-designer/pkg/observability
// [pipeline]: https://pkg.go.dev/github.com/jzagalv/ssaa-designer/pkg/pipeline
// [render]: https://pkg.go.dev/github.com/jzagalv/ssaa-designer/pkg/render
package pkg
