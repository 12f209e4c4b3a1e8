package ports

import "github.com/jzagalv/ssaa-designer/pkg/topo"

// Card geometry shared by the allocator and the layout engine. Values are
// scene units on the designer grid.
const (
	// CardWidth is the fixed width of load cards and of one board slot.
	CardWidth = 300.0
	// SourceCardWidth is the fixed width of source cards.
	SourceCardWidth = 200.0
	// ChargerCardWidth is the fixed width of charger cards.
	ChargerCardWidth = 280.0
	// BoardMinWidth is the floor for board width regardless of slot count.
	BoardMinWidth = 220.0
	// CardGap is the horizontal gap between adjacent board slots.
	CardGap = 40.0
	// SidePadding is the horizontal padding inside board cards.
	SidePadding = 20.0
)

// Default card heights per kind.
const (
	sourceHeight  = 90.0
	loadHeight    = 110.0
	chargerHeight = 100.0
	boardHeight   = 110.0
)

// NodeWidth returns the deterministic width for a node given its port
// counts. Boards widen one slot pitch at a time; every other kind has a
// fixed card width.
func NodeWidth(kind topo.NodeKind, nIn, nOut int) float64 {
	switch kind {
	case topo.KindSource:
		return SourceCardWidth
	case topo.KindCharger:
		return ChargerCardWidth
	case topo.KindBoard:
		slots := max(nIn, nOut, 1)
		w := float64(slots)*CardWidth + float64(slots-1)*CardGap + 2*SidePadding
		return max(w, BoardMinWidth)
	default:
		return CardWidth
	}
}

// NodeHeight returns the fixed card height for a node kind.
func NodeHeight(kind topo.NodeKind) float64 {
	switch kind {
	case topo.KindSource:
		return sourceHeight
	case topo.KindCharger:
		return chargerHeight
	case topo.KindBoard:
		return boardHeight
	default:
		return loadHeight
	}
}

// RelativeX returns the relative x position (in [0,1]) for each of n ports
// on a node of the given width. A single port sits centered; multiple ports
// are spread on the slot pitch, compressed when the pitch would overflow the
// usable width.
func RelativeX(n int, width float64) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 || width <= 0 {
		return centered(n)
	}
	pitch := CardWidth + CardGap
	total := pitch * float64(n-1)
	usable := width - 2*SidePadding
	if total > usable {
		pitch = max(usable/float64(n-1), 1.0)
		total = pitch * float64(n-1)
	}
	start := (width - total) / 2
	out := make([]float64, n)
	for i := range out {
		out[i] = clamp01((start + float64(i)*pitch) / width)
	}
	return out
}

func centered(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
