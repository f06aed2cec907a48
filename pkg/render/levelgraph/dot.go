package levelgraph

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/rowstamp/pkg/level"
)

// Options configures level diagram rendering.
type Options struct {
	// Detailed includes each row's lanes in its label.
	Detailed bool

	// Delays, when set, labels each cluster with its trigger delay. Index i
	// belongs to the i-th row group.
	Delays []time.Duration
}

// ToDOT converts a level to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
func ToDOT(l *level.Level, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"monospace\", fontsize=14];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.25;\n")
	if l.Name != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", l.Name)
		buf.WriteString("  labelloc=t;\n")
	}
	buf.WriteString("\n")

	gens := l.Generations()
	groups := l.Groups()

	for _, g := range groups {
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", g.Index)
		fmt.Fprintf(&buf, "    label=%q;\n", clusterLabel(g, opts.Delays))
		buf.WriteString("    style=\"rounded\";\n")
		buf.WriteString("    color=grey;\n")

		for i := g.Start; i < g.End; i++ {
			label := fmtLabel(i, l.Rows[i], gens[i], opts.Detailed)
			attrs := fmtAttrs(l.Rows[i], label)
			fmt.Fprintf(&buf, "    %s [%s];\n", nodeID(i), strings.Join(attrs, ", "))
		}
		if !g.Complete {
			fmt.Fprintf(&buf, "    %s [label=\"missing row\", shape=octagon, fillcolor=\"#ffd6d6\", color=red];\n", missingID(g.Index))
		}

		for i := g.Start; i+1 < g.End; i++ {
			fmt.Fprintf(&buf, "    %s -> %s%s;\n", nodeID(i), nodeID(i+1), chainAttrs(l.Rows[i]))
		}
		if !g.Complete && g.End > g.Start {
			fmt.Fprintf(&buf, "    %s -> %s [color=red];\n", nodeID(g.End-1), missingID(g.Index))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for i := 0; i+1 < len(groups); i++ {
		fmt.Fprintf(&buf, "  %s -> %s [style=dotted, color=grey, ltail=cluster_%d, lhead=cluster_%d];\n",
			nodeID(groups[i].Start), nodeID(groups[i+1].Start), groups[i].Index, groups[i+1].Index)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(row int) string { return "r" + strconv.Itoa(row) }

func missingID(group int) string { return "missing" + strconv.Itoa(group) }

func clusterLabel(g level.Group, delays []time.Duration) string {
	if g.Index < len(delays) {
		return fmt.Sprintf("trigger %d @ %s", g.Index, delays[g.Index])
	}
	return fmt.Sprintf("trigger %d", g.Index)
}

func fmtLabel(i int, row level.ObstacleRow, gen int, detailed bool) string {
	label := fmt.Sprintf("row %d\ngen %d", i, gen)
	if !detailed {
		return label
	}
	return label + "\n" + Lanes(row)
}

// Lanes renders a row as one glyph per lane, "." for an empty lane.
func Lanes(row level.ObstacleRow) string {
	var sb strings.Builder
	for i, c := range row.Obstacles {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if c == level.Nothing {
			sb.WriteByte('.')
			continue
		}
		sb.WriteByte(c.String()[0])
	}
	return sb.String()
}

func fmtAttrs(row level.ObstacleRow, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if row.IsParent {
		attrs = append(attrs, "fillcolor=\"#e8f0ff\"")
	}
	if row.Empty() {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fontcolor=grey40")
	}
	return attrs
}

// chainAttrs styles the edge leaving a parent row. OffsetChild bumps the
// generation, so those edges are dashed and marked.
func chainAttrs(from level.ObstacleRow) string {
	if from.OffsetChild {
		return " [style=dashed, label=\"offset\"]"
	}
	return ""
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
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
