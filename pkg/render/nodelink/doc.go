// Package nodelink renders the resident genealogy tree as a node-link
// diagram.
//
// # Overview
//
// This is the offline, whole-tree counterpart to the interactive frame
// pipeline: every resident node appears as a box, every parent link as an
// edge, laid out by Graphviz instead of the tidy-tree engine. It exists
// for inspection and sharing, not for the 60fps path.
//
// # Usage
//
// Convert nodes to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(nodes, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source that can be:
//
//   - Rendered directly via [RenderSVG]
//   - Saved and processed with external Graphviz tools
//   - Customized before rendering
//
// The generated DOT uses top-to-bottom layout (rankdir=TB), one rank per
// generation, matching the on-screen orientation of the tree.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
