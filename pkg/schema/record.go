package schema

import "time"

// PortRecord is one typed attachment point on a persisted node.
type PortRecord struct {
	ID   string  `json:"id" bson:"id"`
	Name string  `json:"name,omitempty" bson:"name,omitempty"`
	IO   string  `json:"io" bson:"io"`
	Side string  `json:"side,omitempty" bson:"side,omitempty"`
	RelX float64 `json:"rel_x" bson:"rel_x"`
}

// XY is a persisted position.
type XY struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// WH is a persisted size.
type WH struct {
	W float64 `json:"w" bson:"w"`
	H float64 `json:"h" bson:"h"`
}

// NodeRecord is the wire form of one topology node.
type NodeRecord struct {
	ID          string         `json:"id" bson:"id"`
	Kind        string         `json:"kind" bson:"kind"`
	Name        string         `json:"name,omitempty" bson:"name,omitempty"`
	Class       string         `json:"class,omitempty" bson:"class,omitempty"`
	Pos         XY             `json:"pos" bson:"pos"`
	Size        WH             `json:"size" bson:"size"`
	DCSystem    string         `json:"dc_system,omitempty" bson:"dc_system,omitempty"`
	PowerW      float64        `json:"p_w" bson:"p_w"`
	FeederKey   string         `json:"feeder_key,omitempty" bson:"feeder_key,omitempty"`
	ExternalKey string         `json:"external_key,omitempty" bson:"external_key,omitempty"`
	Root        bool           `json:"root,omitempty" bson:"root,omitempty"`
	Ports       []PortRecord   `json:"ports,omitempty" bson:"ports,omitempty"`
	Meta        map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// EdgeRecord is the wire form of one topology edge.
type EdgeRecord struct {
	ID       string         `json:"id" bson:"id"`
	Src      string         `json:"src" bson:"src"`
	Dst      string         `json:"dst" bson:"dst"`
	Circuit  string         `json:"circuit" bson:"circuit"`
	DCSystem string         `json:"dc_system,omitempty" bson:"dc_system,omitempty"`
	SrcPort  string         `json:"src_port,omitempty" bson:"src_port,omitempty"`
	DstPort  string         `json:"dst_port,omitempty" bson:"dst_port,omitempty"`
	Lane     *float64       `json:"lane_x,omitempty" bson:"lane_x,omitempty"`
	Meta     map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// LayerRecord is the persisted form of one workspace layer.
type LayerRecord struct {
	Nodes       []NodeRecord `json:"nodes" bson:"nodes"`
	Edges       []EdgeRecord `json:"edges" bson:"edges"`
	UsedFeeders []string     `json:"used_feeders" bson:"used_feeders"`
	DCSystems   []string     `json:"dc_systems,omitempty" bson:"dc_systems,omitempty"`
}

// ProjectDocument bundles every workspace layer of one project.
//
// LegacyTopology carries the pre-workspace single-layer format; Migrate
// folds it into Layers under the CA_ES key. The field is preserved on
// save so older tooling reading the same project keeps working.
type ProjectDocument struct {
	Name           string                 `json:"name,omitempty" bson:"name,omitempty"`
	Layers         map[string]LayerRecord `json:"ssaa_topology_layers" bson:"ssaa_topology_layers"`
	LegacyTopology *LayerRecord           `json:"ssaa_topology,omitempty" bson:"ssaa_topology,omitempty"`
	UpdatedAt      time.Time              `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// Migrate folds the legacy single-topology field into the layers map. The
// legacy payload becomes the essential-AC workspace unless one already
// exists. The original field is kept in place.
func (d *ProjectDocument) Migrate() {
	if d.Layers == nil {
		d.Layers = make(map[string]LayerRecord)
	}
	if d.LegacyTopology == nil {
		return
	}
	if _, ok := d.Layers["CA_ES"]; !ok {
		d.Layers["CA_ES"] = *d.LegacyTopology
	}
}
