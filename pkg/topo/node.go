package topo

import (
	"strings"

	"github.com/google/uuid"
)

// NodeKind distinguishes the structural role of a node. It is a closed set:
// engine behavior (port defaults, orphan rules, incoming-edge constraints)
// keys off the kind, never off free-form metadata.
type NodeKind string

const (
	// KindSource is a root node (utility feed, genset, battery bank output).
	// Sources must never have an incoming edge.
	KindSource NodeKind = "source"
	// KindBoard is an aggregating distribution board that fans out to
	// children through dynamically sized OUT ports.
	KindBoard NodeKind = "board"
	// KindLoad is a terminal consumer materialized from an external feeder
	// requirement.
	KindLoad NodeKind = "load"
	// KindCharger is a battery charger: a terminal consumer on the AC side
	// that also feeds the DC side.
	KindCharger NodeKind = "charger"
)

// Direction is the flow direction of a port.
type Direction string

const (
	DirIn  Direction = "IN"
	DirOut Direction = "OUT"
)

// Side is the node edge a port sits on. IN ports live on top, OUT ports on
// the bottom, matching the top-down single-line drawing convention.
type Side string

const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
)

// Port is a typed attachment point on a node. Identity is the ID; RelX is
// derived geometry in [0,1], recomputed by the port allocator whenever the
// port count changes.
type Port struct {
	ID        string
	Name      string
	Direction Direction
	Side      Side
	RelX      float64
}

// Meta stores cosmetic key-value state attached to nodes or edges (manual
// position flags, display hints). The engine never reads structure from it.
type Meta map[string]any

// Node is a vertex in a layer's topology. The zero value is not usable:
// ID and Kind must be set, and AddNode guarantees at least one port.
type Node struct {
	ID       string
	Kind     NodeKind
	Name     string
	Class    string // board subtype tag (TGCA, TDCC, ...) for display
	X, Y     float64
	W, H     float64
	DCSystem string
	PowerW   float64

	// FeederKey links a load node back to the external feeder registry row
	// it was materialized from. Empty for nodes created by hand.
	FeederKey string
	// ExternalKey identifies the registry entity behind a source or board
	// node ("src:<ref>" / "board:<ref>"). Empty for ad hoc nodes.
	ExternalKey string
	// Root marks a board that must act as the layer's origin and never be
	// a destination.
	Root bool

	Ports []Port
	Meta  Meta
}

// IsBoard reports whether the node aggregates feeders through slots.
func (n *Node) IsBoard() bool { return n.Kind == KindBoard }

// IsTerminal reports whether the node is a terminal consumer (load or
// charger) for orphan and load-table purposes.
func (n *Node) IsTerminal() bool { return n.Kind == KindLoad || n.Kind == KindCharger }

// Port returns the port with the given ID.
func (n *Node) Port(id string) (*Port, bool) {
	for i := range n.Ports {
		if n.Ports[i].ID == id {
			return &n.Ports[i], true
		}
	}
	return nil, false
}

// PortsByDirection returns the node's ports with the given direction, in
// declaration order.
func (n *Node) PortsByDirection(dir Direction) []Port {
	var out []Port
	for _, p := range n.Ports {
		if p.Direction == dir {
			out = append(out, p)
		}
	}
	return out
}

// HasPort reports whether the node declares at least one port with the
// given direction.
func (n *Node) HasPort(dir Direction) bool {
	for _, p := range n.Ports {
		if p.Direction == dir {
			return true
		}
	}
	return false
}

// DefaultPorts returns the initial port set for a node kind: sources carry a
// single OUT port, everything else one IN and one OUT.
func DefaultPorts(kind NodeKind) []Port {
	if kind == KindSource {
		return []Port{{ID: NewID("p"), Name: "OUT", Direction: DirOut, Side: SideBottom, RelX: 0.5}}
	}
	return []Port{
		{ID: NewID("p"), Name: "IN", Direction: DirIn, Side: SideTop, RelX: 0.5},
		{ID: NewID("p"), Name: "OUT", Direction: DirOut, Side: SideBottom, RelX: 0.5},
	}
}

// NewID returns a fresh prefixed identifier ("CARGA_3f9a04c1d2").
func NewID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}
