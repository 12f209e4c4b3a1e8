package topo

import "errors"

var (
	// ErrSameSide is returned when both selected ports have the same
	// direction; connections always run OUT -> IN.
	ErrSameSide = errors.New("connection must run OUT -> IN")

	// ErrSelfConnection is returned when both ports belong to one node.
	ErrSelfConnection = errors.New("cannot connect a node to itself")

	// ErrDuplicateConnection is returned when an equivalent edge
	// (same source, destination, circuit and DC system) already exists.
	ErrDuplicateConnection = errors.New("connection already exists")

	// ErrWouldCycle is returned when committing the edge would close a
	// directed cycle in the active sub-graph.
	ErrWouldCycle = errors.New("connection would create a cycle")

	// ErrUnknownPort is returned when the clicked port is not declared on
	// the node.
	ErrUnknownPort = errors.New("unknown port")
)

// Connector is the two-click connect state machine: the first PortSelected
// call records the pending endpoint, the second validates and commits an
// edge. Clicking the pending port again cancels the gesture.
type Connector struct {
	layer   *Layer
	filter  Filter
	pending *PortRef
}

// PortRef identifies one clicked port.
type PortRef struct {
	NodeID string
	PortID string
}

// NewConnector creates a connector bound to one layer and active sub-graph.
func NewConnector(l *Layer, f Filter) *Connector {
	return &Connector{layer: l, filter: f}
}

// Pending returns the stored first endpoint, if any.
func (c *Connector) Pending() (PortRef, bool) {
	if c.pending == nil {
		return PortRef{}, false
	}
	return *c.pending, true
}

// Reset drops any pending endpoint and returns the machine to Idle.
func (c *Connector) Reset() { c.pending = nil }

// PortSelected feeds one port click into the state machine. On the first
// click it stores the endpoint and returns (nil, nil). On the second click
// it validates direction, duplicates and acyclicity, and on success commits
// and returns the new edge. Any validation failure returns the machine to
// Idle so a stale first click cannot poison later gestures.
func (c *Connector) PortSelected(nodeID, portID string) (*Edge, error) {
	node, ok := c.layer.Node(nodeID)
	if !ok {
		c.pending = nil
		return nil, ErrUnknownNode
	}
	if _, ok := node.Port(portID); !ok {
		c.pending = nil
		return nil, ErrUnknownPort
	}

	if c.pending == nil {
		c.pending = &PortRef{NodeID: nodeID, PortID: portID}
		return nil, nil
	}

	first := *c.pending
	c.pending = nil

	if first.NodeID == nodeID && first.PortID == portID {
		return nil, nil // second click on the same port cancels
	}

	src, dst := first, PortRef{NodeID: nodeID, PortID: portID}
	srcDir := c.portDirection(src)
	dstDir := c.portDirection(dst)
	if srcDir == dstDir {
		return nil, ErrSameSide
	}
	// Normalize so the OUT endpoint is the source regardless of click order.
	if srcDir != DirOut {
		src, dst = dst, src
	}
	if src.NodeID == dst.NodeID {
		return nil, ErrSelfConnection
	}
	if c.duplicateExists(src.NodeID, dst.NodeID) {
		return nil, ErrDuplicateConnection
	}
	if WouldCreateCycle(c.layer, c.filter, src.NodeID, dst.NodeID) {
		return nil, ErrWouldCycle
	}

	edge := Edge{
		ID:      NewID("E"),
		Src:     src.NodeID,
		Dst:     dst.NodeID,
		Circuit: c.filter.Circuit,
		SrcPort: src.PortID,
		DstPort: dst.PortID,
	}
	if c.filter.Circuit == CircuitDC {
		edge.DCSystem = orDefault(c.filter.DCSystem)
	}
	if err := c.layer.AddEdge(edge); err != nil {
		return nil, err
	}
	e, _ := c.layer.Edge(edge.ID)
	return e, nil
}

func (c *Connector) portDirection(ref PortRef) Direction {
	n, ok := c.layer.Node(ref.NodeID)
	if !ok {
		return ""
	}
	p, ok := n.Port(ref.PortID)
	if !ok {
		return ""
	}
	return p.Direction
}

func (c *Connector) duplicateExists(src, dst string) bool {
	for _, e := range c.layer.EdgesIn(c.filter) {
		if e.Src == src && e.Dst == dst {
			return true
		}
	}
	return false
}

// WouldCreateCycle reports whether adding src -> dst to the filter's active
// sub-graph would close a directed cycle, by checking whether src is
// reachable from dst over the existing filtered edges.
func WouldCreateCycle(l *Layer, f Filter, src, dst string) bool {
	if src == dst {
		return true
	}
	seen := make(map[string]struct{})
	stack := []string{dst}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		for _, e := range l.Outgoing(u) {
			if !f.Matches(e) {
				continue
			}
			if e.Dst == src {
				return true
			}
			stack = append(stack, e.Dst)
		}
	}
	return false
}
