// Package topo implements the per-layer topology model for the auxiliary
// services (SS/AA) architecture designer.
//
// A [Layer] is one acyclicity domain: it owns the nodes and directed feeder
// edges drawn for one (circuit, DC system) combination, plus the set of
// external feeder keys already materialized as load nodes. Layers never
// share node or edge maps, and nodes never move between layers.
//
// Nodes and edges are addressed by stable string IDs held in flat maps, so
// cross-references survive serialization and cannot form unmanaged object
// cycles. Node behavior is driven by a closed [NodeKind] enum; the free-form
// Meta map carries only cosmetic state (manual-position flags, display text)
// with no structural meaning to the engine.
//
// The package also provides the two-click connect state machine
// ([Connector]) used by the host UI to create edges between ports.
package topo
