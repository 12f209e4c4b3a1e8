package registry

import (
	"fmt"
	"sort"

	"github.com/jzagalv/ssaa-designer/pkg/topo"
)

// RequirementCode classifies a feeder requirement and doubles as the
// workspace (layer) key the requirement belongs to.
type RequirementCode string

const (
	ReqACEssential    RequirementCode = "CA_ES"
	ReqACNonEssential RequirementCode = "CA_NOES"
	ReqDCB1           RequirementCode = "CC_B1"
	ReqDCB2           RequirementCode = "CC_B2"
)

// AllRequirements lists every requirement code in canonical workspace order.
var AllRequirements = []RequirementCode{ReqACEssential, ReqACNonEssential, ReqDCB1, ReqDCB2}

// Valid reports whether the code is one of the four known requirements.
func (r RequirementCode) Valid() bool {
	switch r {
	case ReqACEssential, ReqACNonEssential, ReqDCB1, ReqDCB2:
		return true
	}
	return false
}

// Filter returns the (circuit, DC system) sub-graph filter matching the
// requirement's workspace.
func (r RequirementCode) Filter() topo.Filter {
	switch r {
	case ReqDCB1:
		return topo.Filter{Circuit: topo.CircuitDC, DCSystem: "B1"}
	case ReqDCB2:
		return topo.Filter{Circuit: topo.CircuitDC, DCSystem: "B2"}
	default:
		return topo.Filter{Circuit: topo.CircuitAC}
	}
}

// Row is one feeder requirement declared upstream of the designer: a cabinet
// (or one indexed component inside it) asking to be fed on a given circuit.
type Row struct {
	Scope          string          `json:"scope,omitempty"`
	CabinetRef     string          `json:"cabinet_ref"`
	ComponentIndex int             `json:"component_index"` // -1 when the requirement covers the whole cabinet
	Requirement    RequirementCode `json:"requirement"`
	Tag            string          `json:"tag,omitempty"`
	Description    string          `json:"description,omitempty"`
	PowerW         float64         `json:"p_w,omitempty"`

	// Selected mirrors the upstream "feed this from the SS/AA board" flag.
	// Only selected rows are offered for drawing.
	Selected bool `json:"selected,omitempty"`
	// IsSource marks the row as an energy source rather than a consumer.
	IsSource bool `json:"is_source,omitempty"`
	// IsBoard marks the row as a distribution board to materialize.
	IsBoard bool `json:"is_board,omitempty"`
}

// FeederKey builds the stable identity key for the row, the same string the
// layer stores in its consumed set and on materialized load nodes.
func (r Row) FeederKey() string {
	idx := "none"
	if r.ComponentIndex >= 0 {
		idx = fmt.Sprintf("%d", r.ComponentIndex)
	}
	return fmt.Sprintf("%s:%s:%s:%s", r.Scope, r.CabinetRef, idx, r.Requirement)
}

// SourceKey builds the external identity key used on source nodes.
func (r Row) SourceKey() string { return "src:" + r.CabinetRef }

// BoardKey builds the external identity key used on board nodes.
func (r Row) BoardKey() string { return "board:" + r.CabinetRef }

// Snapshot is an immutable view over the registry rows, indexed for the
// lookups the validators and materializers need.
type Snapshot struct {
	rows []Row

	byKey     map[string]Row
	sourceKey map[string]Row
	boardKey  map[string]Row
}

// NewSnapshot indexes the given rows. Rows with an unknown requirement code
// are kept (they still occupy their feeder key) so a newer project file does
// not lose data when opened here.
func NewSnapshot(rows []Row) *Snapshot {
	s := &Snapshot{
		rows:      append([]Row(nil), rows...),
		byKey:     make(map[string]Row, len(rows)),
		sourceKey: make(map[string]Row),
		boardKey:  make(map[string]Row),
	}
	for _, r := range s.rows {
		s.byKey[r.FeederKey()] = r
		if r.IsSource {
			s.sourceKey[r.SourceKey()] = r
		}
		if r.IsBoard {
			s.boardKey[r.BoardKey()] = r
		}
	}
	return s
}

// Rows returns the snapshot's rows in their declared order.
func (s *Snapshot) Rows() []Row { return s.rows }

// RowsFor returns the selected consumer rows belonging to one workspace, in
// declared order. Source and board rows are excluded.
func (s *Snapshot) RowsFor(req RequirementCode) []Row {
	var out []Row
	for _, r := range s.rows {
		if r.Requirement == req && r.Selected && !r.IsSource && !r.IsBoard {
			out = append(out, r)
		}
	}
	return out
}

// Lookup returns the row owning the feeder key.
func (s *Snapshot) Lookup(key string) (Row, bool) {
	r, ok := s.byKey[key]
	return r, ok
}

// Selected reports whether the feeder key exists upstream and is still
// flagged for feeding.
func (s *Snapshot) Selected(key string) bool {
	r, ok := s.byKey[key]
	return ok && r.Selected
}

// Source returns the source row behind an external key ("src:<ref>").
func (s *Snapshot) Source(externalKey string) (Row, bool) {
	r, ok := s.sourceKey[externalKey]
	return r, ok
}

// Board returns the board row behind an external key ("board:<ref>").
func (s *Snapshot) Board(externalKey string) (Row, bool) {
	r, ok := s.boardKey[externalKey]
	return r, ok
}

// Sources returns the declared source rows for one workspace, in declared
// order.
func (s *Snapshot) Sources(req RequirementCode) []Row {
	var out []Row
	for _, r := range s.rows {
		if r.IsSource && r.Requirement == req {
			out = append(out, r)
		}
	}
	return out
}

// Boards returns the declared board rows for one workspace, in declared
// order.
func (s *Snapshot) Boards(req RequirementCode) []Row {
	var out []Row
	for _, r := range s.rows {
		if r.IsBoard && r.Requirement == req {
			out = append(out, r)
		}
	}
	return out
}

// SelectedKeys returns the feeder keys of every selected consumer row in the
// workspace, sorted.
func (s *Snapshot) SelectedKeys(req RequirementCode) []string {
	var keys []string
	for _, r := range s.RowsFor(req) {
		keys = append(keys, r.FeederKey())
	}
	sort.Strings(keys)
	return keys
}

// AvailableWorkspaces returns the workspace keys that have at least one row,
// in canonical order. Drawing tabs exist only for populated workspaces.
func (s *Snapshot) AvailableWorkspaces() []RequirementCode {
	present := make(map[RequirementCode]bool)
	for _, r := range s.rows {
		present[r.Requirement] = true
	}
	var out []RequirementCode
	for _, req := range AllRequirements {
		if present[req] {
			out = append(out, req)
		}
	}
	return out
}
