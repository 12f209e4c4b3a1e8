package ports

import (
	"fmt"
	"slices"

	"github.com/jzagalv/ssaa-designer/pkg/topo"
)

// Meta keys for the user-declared minimum port counts. They are cosmetic
// state: the allocator honors them but the engine derives nothing else from
// them.
const (
	MetaMinInPorts  = "min_in_ports"
	MetaMinOutPorts = "min_out_ports"
)

// Allocate recomputes the port set of one board node so that every attached
// edge has a stable port to bind to.
//
// Neighbors already bound to a port keep their slot; unbound neighbors get
// the lowest free slot in edge-ID order. The required port count per
// direction is max(declared minimum, highest assigned slot + 1, 1). Ports
// that survive keep their IDs; the node width, port names and relative x
// positions are rewritten from the resulting counts, and the edges'
// SrcPort/DstPort are refreshed to the port at their neighbor's slot.
//
// Edges referencing a neighbor missing from the layer are ignored here; the
// validator reports them separately. Allocate returns whether the node or
// any edge was modified.
func Allocate(l *topo.Layer, nodeID string) (bool, error) {
	node, ok := l.Node(nodeID)
	if !ok {
		return false, fmt.Errorf("allocate ports: %w: %s", topo.ErrUnknownNode, nodeID)
	}
	if !node.IsBoard() {
		return false, nil
	}

	outSlots := assignSlots(l, node, topo.DirOut)
	inSlots := assignSlots(l, node, topo.DirIn)

	nOut := requiredCount(node, topo.DirOut, outSlots)
	nIn := requiredCount(node, topo.DirIn, inSlots)

	changed := rebuildPorts(node, nIn, nOut)

	if w := NodeWidth(node.Kind, nIn, nOut); node.W != w {
		node.W = w
		changed = true
	}
	if h := NodeHeight(node.Kind); node.H != h {
		node.H = h
		changed = true
	}
	if relayoutPorts(node) {
		changed = true
	}
	if rebindEdges(l, node, inSlots, outSlots) {
		changed = true
	}
	return changed, nil
}

// AllocateAll runs Allocate over every board node of the layer, in node-ID
// order, and reports whether anything changed.
func AllocateAll(l *topo.Layer) bool {
	changed := false
	for _, n := range l.Nodes() {
		if !n.IsBoard() {
			continue
		}
		if c, err := Allocate(l, n.ID); err == nil && c {
			changed = true
		}
	}
	return changed
}

// assignSlots maps each neighbor on the given direction to a slot index.
// Bindings recoverable from the current edge/port state are kept; remaining
// neighbors receive the lowest free slots in edge-ID order.
func assignSlots(l *topo.Layer, node *topo.Node, dir topo.Direction) map[string]int {
	slots := make(map[string]int)
	used := make(map[int]bool)

	group := node.PortsByDirection(dir)
	slotOf := make(map[string]int, len(group))
	for i, p := range group {
		slotOf[p.ID] = i
	}

	var edges []*topo.Edge
	if dir == topo.DirOut {
		edges = l.Outgoing(node.ID)
	} else {
		edges = l.Incoming(node.ID)
	}

	// First pass: keep existing bindings.
	for _, e := range edges {
		neighbor, portID := endpoint(e, dir)
		if _, ok := l.Node(neighbor); !ok {
			continue // dangling edge, validator territory
		}
		if _, seen := slots[neighbor]; seen {
			continue
		}
		if s, ok := slotOf[portID]; ok && !used[s] {
			slots[neighbor] = s
			used[s] = true
		}
	}

	// Second pass: next free slot for anything still unbound.
	for _, e := range edges {
		neighbor, _ := endpoint(e, dir)
		if _, ok := l.Node(neighbor); !ok {
			continue
		}
		if _, seen := slots[neighbor]; seen {
			continue
		}
		s := 0
		for used[s] {
			s++
		}
		slots[neighbor] = s
		used[s] = true
	}
	return slots
}

func endpoint(e *topo.Edge, dir topo.Direction) (neighbor, portID string) {
	if dir == topo.DirOut {
		return e.Dst, e.SrcPort
	}
	return e.Src, e.DstPort
}

func requiredCount(node *topo.Node, dir topo.Direction, slots map[string]int) int {
	n := declaredMin(node, dir)
	for _, s := range slots {
		if s+1 > n {
			n = s + 1
		}
	}
	return max(n, 1)
}

func declaredMin(node *topo.Node, dir topo.Direction) int {
	key := MetaMinOutPorts
	if dir == topo.DirIn {
		key = MetaMinInPorts
	}
	switch v := node.Meta[key].(type) {
	case int:
		return v
	case float64: // JSON round-trip
		return int(v)
	default:
		return 1
	}
}

// rebuildPorts grows or shrinks each direction group to the required count.
// Surviving ports keep their IDs so existing bindings remain valid.
func rebuildPorts(node *topo.Node, nIn, nOut int) bool {
	in := node.PortsByDirection(topo.DirIn)
	out := node.PortsByDirection(topo.DirOut)

	changed := len(in) != nIn || len(out) != nOut
	in = resizeGroup(in, nIn, topo.DirIn, topo.SideTop)
	out = resizeGroup(out, nOut, topo.DirOut, topo.SideBottom)

	rebuilt := make([]topo.Port, 0, len(in)+len(out))
	rebuilt = append(rebuilt, in...)
	rebuilt = append(rebuilt, out...)
	if !changed && !slices.Equal(node.Ports, rebuilt) {
		changed = true
	}
	node.Ports = rebuilt
	return changed
}

func resizeGroup(group []topo.Port, want int, dir topo.Direction, side topo.Side) []topo.Port {
	if len(group) > want {
		group = group[:want]
	}
	for len(group) < want {
		name := string(dir)
		if len(group) > 0 {
			name = fmt.Sprintf("%s%d", dir, len(group)+1)
		}
		group = append(group, topo.Port{
			ID:        topo.NewID("p"),
			Name:      name,
			Direction: dir,
			Side:      side,
		})
	}
	return group
}

// relayoutPorts recomputes RelX for both sides from the current width and
// counts. Returns whether any position moved.
func relayoutPorts(node *topo.Node) bool {
	changed := false
	for _, dir := range []topo.Direction{topo.DirIn, topo.DirOut} {
		group := node.PortsByDirection(dir)
		xs := RelativeX(len(group), node.W)
		gi := 0
		for i := range node.Ports {
			if node.Ports[i].Direction != dir {
				continue
			}
			if node.Ports[i].RelX != xs[gi] {
				node.Ports[i].RelX = xs[gi]
				changed = true
			}
			gi++
		}
	}
	return changed
}

// rebindEdges refreshes edge port references to the port now occupying each
// neighbor's slot.
func rebindEdges(l *topo.Layer, node *topo.Node, inSlots, outSlots map[string]int) bool {
	in := node.PortsByDirection(topo.DirIn)
	out := node.PortsByDirection(topo.DirOut)
	changed := false

	for _, e := range l.Outgoing(node.ID) {
		s, ok := outSlots[e.Dst]
		if !ok || s >= len(out) {
			continue
		}
		if e.SrcPort != out[s].ID {
			e.SrcPort = out[s].ID
			changed = true
		}
	}
	for _, e := range l.Incoming(node.ID) {
		s, ok := inSlots[e.Src]
		if !ok || s >= len(in) {
			continue
		}
		if e.DstPort != in[s].ID {
			e.DstPort = in[s].ID
			changed = true
		}
	}
	return changed
}

// Normalize enforces the kind-specific port invariants on one node: sources
// never carry IN ports (and always keep at least one OUT), boards always
// declare an IN port. Returns whether the port list was modified.
func Normalize(node *topo.Node) bool {
	changed := false
	switch node.Kind {
	case topo.KindSource:
		kept := slices.DeleteFunc(slices.Clone(node.Ports), func(p topo.Port) bool {
			return p.Direction == topo.DirIn
		})
		if len(kept) != len(node.Ports) {
			node.Ports = kept
			changed = true
		}
		if len(node.Ports) == 0 {
			node.Ports = topo.DefaultPorts(topo.KindSource)
			changed = true
		}
	case topo.KindBoard:
		if !node.HasPort(topo.DirIn) {
			in := topo.Port{ID: topo.NewID("p"), Name: "IN", Direction: topo.DirIn, Side: topo.SideTop, RelX: 0.5}
			node.Ports = append([]topo.Port{in}, node.Ports...)
			changed = true
		}
	}
	return changed
}
