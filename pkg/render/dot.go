package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jzagalv/ssaa-designer/pkg/topo"
)

// Options configures diagram generation.
type Options struct {
	// Detailed includes power and feeder keys in node labels. When false,
	// only the display name is shown.
	Detailed bool
}

// ToDOT converts one layer's active sub-graph to Graphviz DOT source. The
// result can be rendered with [SVG] or fed to external Graphviz tooling.
//
// Node shapes follow kind: sources are houses, boards wide boxes, chargers
// dashed boxes, loads plain boxes. DC edges render dashed with the bus name
// as label. Edges whose endpoints are missing still emit, so a dangling
// edge stays visible in the export just as it does on the canvas.
func ToDOT(l *topo.Layer, f topo.Filter, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph ssaa {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	for _, n := range l.Nodes() {
		if !f.AppliesTo(n) {
			continue
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, opts), ", "))
	}

	buf.WriteString("\n")
	for _, e := range l.EdgesIn(f) {
		attrs := edgeAttrs(e)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Src, e.Dst)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Src, e.Dst, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n *topo.Node, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", nodeLabel(n, opts))}
	switch n.Kind {
	case topo.KindSource:
		attrs = append(attrs, "shape=house", "fillcolor=lightyellow")
	case topo.KindBoard:
		attrs = append(attrs, "fillcolor=lightgrey")
		if n.Root {
			attrs = append(attrs, "penwidth=2")
		}
	case topo.KindCharger:
		attrs = append(attrs, `style="rounded,filled,dashed"`)
	}
	return attrs
}

func nodeLabel(n *topo.Node, opts Options) string {
	name := n.Name
	if name == "" {
		name = n.ID
	}
	if !opts.Detailed {
		return name
	}
	parts := []string{name}
	if n.PowerW > 0 {
		parts = append(parts, fmt.Sprintf("%.0f W", n.PowerW))
	}
	if n.FeederKey != "" {
		parts = append(parts, n.FeederKey)
	}
	if n.DCSystem != "" {
		parts = append(parts, "bus "+n.DCSystem)
	}
	return strings.Join(parts, "\n")
}

func edgeAttrs(e *topo.Edge) []string {
	var attrs []string
	if e.Circuit == topo.CircuitDC {
		attrs = append(attrs, "style=dashed", fmt.Sprintf("label=%q", e.DCSystem))
	}
	return attrs
}
