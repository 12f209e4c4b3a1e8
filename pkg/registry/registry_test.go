package registry

import (
	"reflect"
	"testing"

	"github.com/jzagalv/ssaa-designer/pkg/topo"
)

func TestRowFeederKey(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		want string
	}{
		{
			name: "indexed component",
			row:  Row{Scope: "cabinet", CabinetRef: "G01", ComponentIndex: 2, Requirement: ReqACEssential},
			want: "cabinet:G01:2:CA_ES",
		},
		{
			name: "whole cabinet",
			row:  Row{Scope: "cabinet", CabinetRef: "G02", ComponentIndex: -1, Requirement: ReqDCB1},
			want: "cabinet:G02:none:CC_B1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.row.FeederKey(); got != tt.want {
				t.Errorf("FeederKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequirementFilter(t *testing.T) {
	tests := []struct {
		req  RequirementCode
		want topo.Filter
	}{
		{ReqACEssential, topo.Filter{Circuit: topo.CircuitAC}},
		{ReqACNonEssential, topo.Filter{Circuit: topo.CircuitAC}},
		{ReqDCB1, topo.Filter{Circuit: topo.CircuitDC, DCSystem: "B1"}},
		{ReqDCB2, topo.Filter{Circuit: topo.CircuitDC, DCSystem: "B2"}},
	}
	for _, tt := range tests {
		if got := tt.req.Filter(); got != tt.want {
			t.Errorf("%s.Filter() = %+v, want %+v", tt.req, got, tt.want)
		}
	}
}

func TestSnapshotLookups(t *testing.T) {
	rows := []Row{
		{Scope: "cabinet", CabinetRef: "G01", ComponentIndex: -1, Requirement: ReqACEssential, Selected: true},
		{Scope: "cabinet", CabinetRef: "G02", ComponentIndex: -1, Requirement: ReqACEssential, Selected: false},
		{Scope: "cabinet", CabinetRef: "RED", ComponentIndex: -1, Requirement: ReqACEssential, IsSource: true},
		{Scope: "cabinet", CabinetRef: "TG", ComponentIndex: -1, Requirement: ReqACEssential, IsBoard: true},
		{Scope: "cabinet", CabinetRef: "G03", ComponentIndex: -1, Requirement: ReqDCB2, Selected: true},
	}
	s := NewSnapshot(rows)

	if !s.Selected("cabinet:G01:none:CA_ES") {
		t.Error("G01 should be selected")
	}
	if s.Selected("cabinet:G02:none:CA_ES") {
		t.Error("G02 is not flagged and must not read as selected")
	}
	if s.Selected("cabinet:NOPE:none:CA_ES") {
		t.Error("unknown key must not read as selected")
	}
	if _, ok := s.Source("src:RED"); !ok {
		t.Error("source row not indexed")
	}
	if _, ok := s.Board("board:TG"); !ok {
		t.Error("board row not indexed")
	}

	if got := s.SelectedKeys(ReqACEssential); !reflect.DeepEqual(got, []string{"cabinet:G01:none:CA_ES"}) {
		t.Errorf("SelectedKeys = %v", got)
	}
	if got := len(s.RowsFor(ReqACEssential)); got != 1 {
		t.Errorf("RowsFor(CA_ES) = %d rows, want 1 (sources/boards/unselected excluded)", got)
	}
}

func TestAvailableWorkspaces(t *testing.T) {
	s := NewSnapshot([]Row{
		{Requirement: ReqDCB2},
		{Requirement: ReqACEssential},
	})
	got := s.AvailableWorkspaces()
	want := []RequirementCode{ReqACEssential, ReqDCB2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AvailableWorkspaces() = %v, want %v", got, want)
	}
}
