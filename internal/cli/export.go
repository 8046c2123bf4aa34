package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Qefaraki/treescape/pkg/camera"
	"github.com/Qefaraki/treescape/pkg/geom"
	"github.com/Qefaraki/treescape/pkg/render"
	"github.com/Qefaraki/treescape/pkg/render/nodelink"
	"github.com/Qefaraki/treescape/pkg/render/snapshot"
	"github.com/Qefaraki/treescape/pkg/store"
	"github.com/Qefaraki/treescape/pkg/tree"
	"github.com/Qefaraki/treescape/pkg/viewport"
)

// Export output formats.
const (
	formatPNG = "png"
	formatSVG = "svg"
	formatDOT = "dot"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		format  string
		output  string
		width   int
		height  int
		scale   float64
		center  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "export [tree]",
		Short: "Export a tree as PNG, SVG, or DOT",
		Long: `Export renders a tree outside the interactive view.

PNG runs the real frame pipeline - culling, tier classification, connector
routing - for one camera framing and rasterizes the result. SVG and DOT
lay the whole tree out as a node-link diagram via Graphviz.

The tree argument is a JSON file, a server base URL, or "demo".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := "demo"
			if len(args) > 0 {
				arg = args[0]
			}

			src, err := c.newSource(cmd.Context(), arg, noCache)
			if err != nil {
				return err
			}

			nodes, err := fetchAll(cmd.Context(), src)
			if err != nil {
				return fmt.Errorf("load tree: %w", err)
			}
			if len(nodes) == 0 {
				return fmt.Errorf("tree is empty")
			}

			prog := newProgress(c.Logger)
			sp := newSpinner(fmt.Sprintf("Rendering %s...", format))
			sp.Start()

			var data []byte
			switch format {
			case formatPNG:
				data, err = c.exportPNG(nodes, width, height, scale, center)
			case formatSVG:
				data, err = nodelink.RenderSVG(nodelink.ToDOT(nodes, nodelink.Options{}))
			case formatDOT:
				data = []byte(nodelink.ToDOT(nodes, nodelink.Options{Detailed: true}))
			default:
				err = fmt.Errorf("unknown format %q (png, svg, dot)", format)
			}
			if err != nil {
				sp.StopWithError("Render failed")
				return err
			}
			sp.Stop()

			if output == "" {
				output = "tree." + format
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			prog.done(fmt.Sprintf("Exported %d nodes", len(nodes)))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatPNG, "output format: png, svg, dot")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default tree.<format>)")
	cmd.Flags().IntVar(&width, "width", 1200, "PNG width in pixels")
	cmd.Flags().IntVar(&height, "height", 1600, "PNG height in pixels")
	cmd.Flags().Float64Var(&scale, "scale", 1.0, "PNG camera zoom")
	cmd.Flags().StringVar(&center, "center", "", "node ID to center on (default root)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the region response cache")
	return cmd
}

// exportPNG runs the frame pipeline for one camera framing and
// rasterizes the result.
func (c *CLI) exportPNG(nodes []tree.Node, width, height int, scale float64, center string) ([]byte, error) {
	rctx, err := render.NewContext(render.Config{Tier: c.Config.TierConfig()})
	if err != nil {
		return nil, err
	}
	rctx.SetNodes(nodes)

	if center == "" {
		for _, n := range nodes {
			if n.IsRoot() {
				center = n.ID
				break
			}
		}
	}
	bounds, ok := rctx.NodeBounds(center)
	if !ok {
		return nil, fmt.Errorf("center node %q not in the tree", center)
	}
	ctr := bounds.Center()

	w, h := float64(width), float64(height)
	view := viewport.Viewport{
		Screen: geom.Size{W: w, H: h},
		Camera: camera.Camera{TX: w/2 - ctr.X*scale, TY: h/2 - ctr.Y*scale, Scale: scale},
	}

	frame := rctx.BuildFrame(view, time.Now())
	return snapshot.RenderPNG(frame, snapshot.DefaultOptions())
}

// exportGenerations is how deep fetchAll asks the source to go. It
// matches the server's generation window ceiling.
const exportGenerations = 10

// fetchAll pulls the default root and a deep generation window, the whole
// tree for any fixture of sane depth.
func fetchAll(ctx context.Context, src store.NodeSource) ([]tree.Node, error) {
	return src.FetchInitial(ctx, "", exportGenerations)
}
