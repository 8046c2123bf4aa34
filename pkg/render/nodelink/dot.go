package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/Qefaraki/treescape/pkg/tree"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes generation and status in node labels.
	// When false, only the display name is shown.
	Detailed bool
}

// ToDOT converts a node set to Graphviz DOT format. Nodes of the same
// generation share a rank so the diagram reads top-down like the
// interactive view. Deceased members are rendered with a grey fill,
// members with a photo reference with a doubled outline.
//
// The resulting DOT string can be rendered with [RenderSVG].
func ToDOT(nodes []tree.Node, opts Options) string {
	sorted := make([]tree.Node, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Generation != sorted[j].Generation {
			return sorted[i].Generation < sorted[j].Generation
		}
		return sorted[i].ID < sorted[j].ID
	})

	var buf bytes.Buffer
	buf.WriteString("digraph tree {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	byGeneration := make(map[int][]string)
	for _, n := range sorted {
		label := fmtLabel(n, opts.Detailed)
		attrs := fmtAttrs(n, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
		byGeneration[n.Generation] = append(byGeneration[n.Generation], n.ID)
	}

	buf.WriteString("\n")
	present := make(map[string]bool, len(sorted))
	for _, n := range sorted {
		present[n.ID] = true
	}
	for _, n := range sorted {
		if n.ParentID != "" && present[n.ParentID] {
			fmt.Fprintf(&buf, "  %q -> %q;\n", n.ParentID, n.ID)
		}
	}

	buf.WriteString("\n")
	gens := make([]int, 0, len(byGeneration))
	for g := range byGeneration {
		gens = append(gens, g)
	}
	sort.Ints(gens)
	for _, g := range gens {
		ids := byGeneration[g]
		quoted := make([]string, len(ids))
		for i, id := range ids {
			quoted[i] = strconv.Quote(id)
		}
		fmt.Fprintf(&buf, "  { rank=same; %s }\n", strings.Join(quoted, "; "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n tree.Node, detailed bool) string {
	name := n.Name
	if name == "" {
		name = n.ID
	}
	if !detailed {
		return name
	}

	parts := []string{fmt.Sprintf("generation: %d", n.Generation)}
	if n.Status != "" {
		parts = append(parts, "status: "+n.Status)
	}
	return name + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n tree.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.Deceased() {
		attrs = append(attrs, "fillcolor=lightgrey")
	}
	if n.PhotoRef != "" {
		attrs = append(attrs, "peripheries=2")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or embedding.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
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
