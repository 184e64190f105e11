// Package render produces debug visualizations of a process graph.
//
// This is a development aid for inspecting layout decisions, not a BPMN
// painter: the DOT view shows lanes as clusters and ranks as node labels so
// a layout bug can be spotted without opening the XML in a modeler.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/laneflow/laneflow/pkg/layout"
	"github.com/laneflow/laneflow/pkg/process"
)

// Options configures debug rendering.
type Options struct {
	// Detailed includes the resolved (column, row) cell in node labels.
	Detailed bool

	// Ranks supplies the cells for detailed labels. Ignored when Detailed
	// is false.
	Ranks *layout.Ranks
}

// ToDOT converts a process graph to Graphviz DOT format. Each lane becomes a
// cluster, node shapes follow the element kind, and transitions become
// directed edges. The resulting string renders with [RenderSVG].
func ToDOT(g *process.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=filled, fillcolor=white, fontsize=12];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")

	for i, lane := range g.Lanes {
		fmt.Fprintf(&buf, "\n  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", lane.Name)
		buf.WriteString("    style=dashed;\n")
		for j := range g.Spec.Nodes {
			n := &g.Spec.Nodes[j]
			if n.LaneID != lane.ID {
				continue
			}
			fmt.Fprintf(&buf, "    %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, opts), ", "))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, tr := range g.Transitions {
		fmt.Fprintf(&buf, "  %q -> %q;\n", tr.Source, tr.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n *process.Node, opts Options) []string {
	label := n.Name
	if opts.Detailed && opts.Ranks != nil {
		if pos, ok := opts.Ranks.Positions[n.ID]; ok {
			label = fmt.Sprintf("%s\ncell: (%d,%d)", n.Name, pos.Column, pos.Row)
		}
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}

	switch kind := n.Kind(); {
	case kind.IsEvent():
		attrs = append(attrs, "shape=circle")
	case kind.IsGateway():
		attrs = append(attrs, "shape=diamond", "fillcolor=lightyellow")
	default:
		attrs = append(attrs, "shape=box", "style=\"rounded,filled\"")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
