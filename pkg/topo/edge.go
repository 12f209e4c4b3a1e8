package topo

// Circuit is the electrical circuit family an edge belongs to. Wire values
// keep the Spanish abbreviations used by the persisted project format.
type Circuit string

const (
	CircuitAC Circuit = "CA"
	CircuitDC Circuit = "CC"
)

// DefaultDCSystem is assumed when a DC edge or filter omits the bus name.
const DefaultDCSystem = "B1"

// Edge is a directed feeder connection between two nodes of the same layer.
// SrcPort/DstPort bind the edge to specific ports; the port allocator keeps
// them pointing at stable slots. Lane is a cached horizontal routing offset
// near the source port, assigned once by the layout engine and used only
// for rendering.
type Edge struct {
	ID       string
	Src      string
	Dst      string
	Circuit  Circuit
	DCSystem string // set only for CC edges
	SrcPort  string
	DstPort  string
	Lane     float64
	HasLane  bool
	Meta     Meta
}

// Filter selects the active sub-graph of a layer: the edges belonging to one
// (circuit, DC system) combination. A layer may record edges for more than
// one DC bus, so validation and layout always run through a filter.
type Filter struct {
	Circuit  Circuit
	DCSystem string
}

// Matches reports whether the edge belongs to the filter's sub-graph.
func (f Filter) Matches(e *Edge) bool {
	ec := e.Circuit
	if ec == "" {
		ec = CircuitAC
	}
	fc := f.Circuit
	if fc == "" {
		fc = CircuitAC
	}
	if ec != fc {
		return false
	}
	if fc != CircuitDC {
		return true
	}
	return orDefault(e.DCSystem) == orDefault(f.DCSystem)
}

// AppliesTo reports whether a node participates in the filter's validation
// pass. Layer membership is authoritative; a node is skipped only when its
// own declared DC system explicitly contradicts a DC filter.
func (f Filter) AppliesTo(n *Node) bool {
	if f.Circuit != CircuitDC {
		return true
	}
	if n.DCSystem == "" {
		return true
	}
	return orDefault(n.DCSystem) == orDefault(f.DCSystem)
}

func orDefault(dc string) string {
	if dc == "" {
		return DefaultDCSystem
	}
	return dc
}
