package topo

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Layer.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Layer.AddNode] when a node with the
	// same ID already exists in the layer.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrInvalidEdgeID is returned by [Layer.AddEdge] when the edge ID is
	// empty.
	ErrInvalidEdgeID = errors.New("edge ID must not be empty")

	// ErrDuplicateEdgeID is returned by [Layer.AddEdge] when an edge with
	// the same ID already exists in the layer.
	ErrDuplicateEdgeID = errors.New("duplicate edge ID")

	// ErrUnknownNode is returned by lookups and connect operations when a
	// referenced node is not present in the layer.
	ErrUnknownNode = errors.New("unknown node")
)

// Layer owns one topology: the nodes, edges and consumed feeder keys drawn
// for one workspace. Loading malformed data degrades to an empty layer; a
// Layer is never nil-mapped after New.
//
// Layer is not safe for concurrent use: the designer mutates it from a
// single UI goroutine, one event at a time.
type Layer struct {
	nodes    map[string]*Node
	edges    map[string]*Edge
	consumed map[string]struct{}

	outgoing map[string][]string // node ID -> edge IDs leaving it
	incoming map[string][]string // node ID -> edge IDs entering it

	// DCSystems lists the DC buses the project declares for this layer's
	// circuit (typically ["B1"] or ["B1","B2"]).
	DCSystems []string
}

// NewLayer creates an empty layer.
func NewLayer() *Layer {
	return &Layer{
		nodes:     make(map[string]*Node),
		edges:     make(map[string]*Edge),
		consumed:  make(map[string]struct{}),
		outgoing:  make(map[string][]string),
		incoming:  make(map[string][]string),
		DCSystems: []string{DefaultDCSystem},
	}
}

// AddNode inserts a node into the layer. A node without ports receives the
// default port set for its kind, so every node has at least one port once
// created. Consuming the node's feeder key, if any, is recorded here so the
// consumption set can never lag behind the node map.
func (l *Layer) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := l.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if len(n.Ports) == 0 {
		n.Ports = DefaultPorts(n.Kind)
	}
	if n.Meta == nil {
		n.Meta = Meta{}
	}
	node := &n
	l.nodes[node.ID] = node
	if node.FeederKey != "" {
		l.Consume(node.FeederKey)
	}
	return nil
}

// AddEdge inserts an edge. Endpoints are not validated here: a loaded
// project may legitimately contain dangling or self-referential edges, which
// stay visible so the validator can report them and the user can delete
// them.
func (l *Layer) AddEdge(e Edge) error {
	if e.ID == "" {
		return ErrInvalidEdgeID
	}
	if _, exists := l.edges[e.ID]; exists {
		return ErrDuplicateEdgeID
	}
	if e.Meta == nil {
		e.Meta = Meta{}
	}
	edge := &e
	l.edges[edge.ID] = edge
	l.outgoing[edge.Src] = append(l.outgoing[edge.Src], edge.ID)
	l.incoming[edge.Dst] = append(l.incoming[edge.Dst], edge.ID)
	return nil
}

// Node returns the node with the given ID.
func (l *Layer) Node(id string) (*Node, bool) {
	n, ok := l.nodes[id]
	return n, ok
}

// Edge returns the edge with the given ID.
func (l *Layer) Edge(id string) (*Edge, bool) {
	e, ok := l.edges[id]
	return e, ok
}

// Nodes returns all nodes sorted by ID. Sorting keeps every consumer that
// iterates the layer (validators, layout, serialization) deterministic.
func (l *Layer) Nodes() []*Node {
	out := make([]*Node, 0, len(l.nodes))
	for _, n := range l.nodes {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b *Node) int { return compareStrings(a.ID, b.ID) })
	return out
}

// Edges returns all edges sorted by ID.
func (l *Layer) Edges() []*Edge {
	out := make([]*Edge, 0, len(l.edges))
	for _, e := range l.edges {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Edge) int { return compareStrings(a.ID, b.ID) })
	return out
}

// EdgesIn returns the edges of the filter's active sub-graph, sorted by ID.
func (l *Layer) EdgesIn(f Filter) []*Edge {
	var out []*Edge
	for _, e := range l.Edges() {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Outgoing returns the edges leaving the node, sorted by ID.
func (l *Layer) Outgoing(nodeID string) []*Edge { return l.edgesByID(l.outgoing[nodeID]) }

// Incoming returns the edges entering the node, sorted by ID.
func (l *Layer) Incoming(nodeID string) []*Edge { return l.edgesByID(l.incoming[nodeID]) }

// Incident returns every edge touching the node, sorted by ID.
func (l *Layer) Incident(nodeID string) []*Edge {
	ids := make([]string, 0, len(l.outgoing[nodeID])+len(l.incoming[nodeID]))
	ids = append(ids, l.outgoing[nodeID]...)
	for _, id := range l.incoming[nodeID] {
		if !slices.Contains(ids, id) { // self-loops appear in both indices
			ids = append(ids, id)
		}
	}
	return l.edgesByID(ids)
}

func (l *Layer) edgesByID(ids []string) []*Edge {
	out := make([]*Edge, 0, len(ids))
	for _, id := range ids {
		if e, ok := l.edges[id]; ok {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b *Edge) int { return compareStrings(a.ID, b.ID) })
	return out
}

// NodeCount returns the number of nodes in the layer.
func (l *Layer) NodeCount() int { return len(l.nodes) }

// EdgeCount returns the number of edges in the layer.
func (l *Layer) EdgeCount() int { return len(l.edges) }

// RemoveEdge deletes the edge with the given ID, if present.
func (l *Layer) RemoveEdge(id string) {
	e, ok := l.edges[id]
	if !ok {
		return
	}
	delete(l.edges, id)
	l.outgoing[e.Src] = slices.DeleteFunc(l.outgoing[e.Src], func(s string) bool { return s == id })
	l.incoming[e.Dst] = slices.DeleteFunc(l.incoming[e.Dst], func(s string) bool { return s == id })
}

// Removed reports what a DeleteSelection call actually deleted.
type Removed struct {
	Nodes []string
	Edges []string
	Keys  []string // feeder keys released back to the registry list
}

// DeleteSelection removes the given nodes and edges. Edges incident to a
// deleted node are cascade-deleted, and any feeder key a deleted node held
// is released from the consumption set in the same operation. IDs not
// present in the layer are ignored.
func (l *Layer) DeleteSelection(nodeIDs, edgeIDs []string) Removed {
	var rm Removed

	doomed := make(map[string]struct{}, len(edgeIDs))
	for _, id := range edgeIDs {
		if _, ok := l.edges[id]; ok {
			doomed[id] = struct{}{}
		}
	}
	for _, nid := range nodeIDs {
		if _, ok := l.nodes[nid]; !ok {
			continue
		}
		for _, e := range l.Incident(nid) {
			doomed[e.ID] = struct{}{}
		}
	}

	for id := range doomed {
		l.RemoveEdge(id)
		rm.Edges = append(rm.Edges, id)
	}

	for _, nid := range nodeIDs {
		n, ok := l.nodes[nid]
		if !ok {
			continue
		}
		if n.FeederKey != "" {
			if l.Release(n.FeederKey) {
				rm.Keys = append(rm.Keys, n.FeederKey)
			}
		}
		delete(l.nodes, nid)
		delete(l.outgoing, nid)
		delete(l.incoming, nid)
		rm.Nodes = append(rm.Nodes, nid)
	}

	slices.Sort(rm.Nodes)
	slices.Sort(rm.Edges)
	slices.Sort(rm.Keys)
	return rm
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
