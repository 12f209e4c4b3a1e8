package schema

import (
	"encoding/json"

	"github.com/jzagalv/ssaa-designer/pkg/topo"
)

// FromLayer snapshots a live layer into its wire form. Collections come out
// sorted by ID so repeated saves of an unchanged layer are byte-identical.
func FromLayer(l *topo.Layer) LayerRecord {
	rec := LayerRecord{
		Nodes:       []NodeRecord{},
		Edges:       []EdgeRecord{},
		UsedFeeders: l.ConsumedKeys(),
		DCSystems:   append([]string(nil), l.DCSystems...),
	}
	for _, n := range l.Nodes() {
		rec.Nodes = append(rec.Nodes, fromNode(n))
	}
	for _, e := range l.Edges() {
		rec.Edges = append(rec.Edges, fromEdge(e))
	}
	return rec
}

// ToLayer rebuilds a live layer from its wire form. The conversion never
// fails: nodes with unusable IDs are skipped, collections default to empty
// and duplicate IDs keep the first occurrence. The returned layer shares no
// state with the record.
func ToLayer(rec LayerRecord) *topo.Layer {
	l := topo.NewLayer()
	l.DCSystems = append([]string(nil), rec.DCSystems...)

	for _, nr := range rec.Nodes {
		n := toNode(nr)
		if n.ID == "" {
			continue
		}
		_ = l.AddNode(n) // duplicate IDs keep the first occurrence
	}
	for _, er := range rec.Edges {
		if er.ID == "" {
			continue
		}
		_ = l.AddEdge(toEdge(er))
	}
	for _, key := range rec.UsedFeeders {
		l.Consume(key)
	}
	return l
}

// DecodeLayer parses a persisted layer payload. Malformed data degrades to
// an empty record rather than failing, per the never-brick loading policy;
// the bool reports whether the payload parsed cleanly.
func DecodeLayer(data []byte) (LayerRecord, bool) {
	var rec LayerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return LayerRecord{Nodes: []NodeRecord{}, Edges: []EdgeRecord{}, UsedFeeders: []string{}}, false
	}
	if rec.Nodes == nil {
		rec.Nodes = []NodeRecord{}
	}
	if rec.Edges == nil {
		rec.Edges = []EdgeRecord{}
	}
	if rec.UsedFeeders == nil {
		rec.UsedFeeders = []string{}
	}
	return rec, true
}

// EncodeLayer renders a layer record as JSON.
func EncodeLayer(rec LayerRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func fromNode(n *topo.Node) NodeRecord {
	nr := NodeRecord{
		ID:          n.ID,
		Kind:        string(n.Kind),
		Name:        n.Name,
		Class:       n.Class,
		Pos:         XY{X: n.X, Y: n.Y},
		Size:        WH{W: n.W, H: n.H},
		DCSystem:    n.DCSystem,
		PowerW:      n.PowerW,
		FeederKey:   n.FeederKey,
		ExternalKey: n.ExternalKey,
		Root:        n.Root,
		Meta:        copyMeta(n.Meta),
	}
	for _, p := range n.Ports {
		nr.Ports = append(nr.Ports, PortRecord{
			ID:   p.ID,
			Name: p.Name,
			IO:   string(p.Direction),
			Side: string(p.Side),
			RelX: p.RelX,
		})
	}
	return nr
}

func toNode(nr NodeRecord) topo.Node {
	n := topo.Node{
		ID:          nr.ID,
		Kind:        nodeKind(nr.Kind),
		Name:        nr.Name,
		Class:       nr.Class,
		X:           nr.Pos.X,
		Y:           nr.Pos.Y,
		W:           nr.Size.W,
		H:           nr.Size.H,
		DCSystem:    nr.DCSystem,
		PowerW:      nr.PowerW,
		FeederKey:   nr.FeederKey,
		ExternalKey: nr.ExternalKey,
		Root:        nr.Root,
		Meta:        copyMeta(nr.Meta),
	}
	for _, pr := range nr.Ports {
		n.Ports = append(n.Ports, topo.Port{
			ID:        pr.ID,
			Name:      pr.Name,
			Direction: portDirection(pr.IO),
			Side:      portSide(pr.Side),
			RelX:      pr.RelX,
		})
	}
	return n
}

func fromEdge(e *topo.Edge) EdgeRecord {
	er := EdgeRecord{
		ID:       e.ID,
		Src:      e.Src,
		Dst:      e.Dst,
		Circuit:  string(e.Circuit),
		DCSystem: e.DCSystem,
		SrcPort:  e.SrcPort,
		DstPort:  e.DstPort,
		Meta:     copyMeta(e.Meta),
	}
	if e.HasLane {
		lane := e.Lane
		er.Lane = &lane
	}
	return er
}

func toEdge(er EdgeRecord) topo.Edge {
	e := topo.Edge{
		ID:       er.ID,
		Src:      er.Src,
		Dst:      er.Dst,
		Circuit:  circuit(er.Circuit),
		DCSystem: er.DCSystem,
		SrcPort:  er.SrcPort,
		DstPort:  er.DstPort,
		Meta:     copyMeta(er.Meta),
	}
	if er.Lane != nil {
		e.Lane = *er.Lane
		e.HasLane = true
	}
	return e
}

// nodeKind maps a wire kind onto the closed enum. Unknown kinds land on
// load, the least structurally privileged variant, so a newer project file
// still opens.
func nodeKind(s string) topo.NodeKind {
	switch topo.NodeKind(s) {
	case topo.KindSource, topo.KindBoard, topo.KindLoad, topo.KindCharger:
		return topo.NodeKind(s)
	default:
		return topo.KindLoad
	}
}

func circuit(s string) topo.Circuit {
	if topo.Circuit(s) == topo.CircuitDC {
		return topo.CircuitDC
	}
	return topo.CircuitAC
}

func portDirection(s string) topo.Direction {
	if topo.Direction(s) == topo.DirOut {
		return topo.DirOut
	}
	return topo.DirIn
}

func portSide(s string) topo.Side {
	if topo.Side(s) == topo.SideBottom {
		return topo.SideBottom
	}
	return topo.SideTop
}

func copyMeta(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
