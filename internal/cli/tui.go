package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Qefaraki/treescape/pkg/camera"
	"github.com/Qefaraki/treescape/pkg/geom"
	"github.com/Qefaraki/treescape/pkg/lod"
	"github.com/Qefaraki/treescape/pkg/render"
	"github.com/Qefaraki/treescape/pkg/store"
	"github.com/Qefaraki/treescape/pkg/viewport"
)

// Terminal cells are not square; map each cell to a world-point rect so
// the aspect ratio of the tree survives.
const (
	cellW = 8.0
	cellH = 16.0

	panStep   = 48.0 // world points per keypress
	zoomStep  = 1.15
	tickEvery = 50 * time.Millisecond
)

// Viewer styles.
var (
	tuiCardStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	tuiChipStyle   = lipgloss.NewStyle().Foreground(colorDim)
	tuiStatusStyle = lipgloss.NewStyle().Foreground(colorGray)
)

// tuiCommand creates the interactive terminal viewer command.
func (c *CLI) tuiCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "tui [tree]",
		Short: "Explore a tree interactively in the terminal",
		Long: `Tui opens a pan/zoom terminal viewer running the real engine:
spatial culling, tier classification, connector routing, and progressive
loading all behave exactly as they do behind a graphics canvas.

Keys: arrows/hjkl pan, +/- zoom, 0 reset, q quit.`,
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

			m, err := c.newViewerModel(cmd.Context(), src)
			if err != nil {
				return err
			}

			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the region response cache")
	return cmd
}

// tickMsg drives the frame clock.
type tickMsg time.Time

// viewerModel is the bubbletea model for the tree viewer.
type viewerModel struct {
	rctx   *render.Context
	cam    *camera.Controller
	loader *viewport.Loader
	src    store.NodeSource

	width  int // terminal cells
	height int

	frame render.Frame
}

func (c *CLI) newViewerModel(ctx context.Context, src store.NodeSource) (*viewerModel, error) {
	rctx, err := render.NewContext(render.Config{Tier: c.Config.TierConfig()})
	if err != nil {
		return nil, err
	}

	ldr := viewport.NewLoader(src, c.Config.LoaderConfig(), c.Logger)
	ldr.SetOnMerge(rctx.SetNodes)
	ldr.SetPositioner(rctx.NodeBounds)
	if err := ldr.InitialLoad(ctx, ""); err != nil {
		return nil, fmt.Errorf("initial load: %w", err)
	}

	m := &viewerModel{
		rctx:   rctx,
		loader: ldr,
		src:    src,
		width:  80,
		height: 24,
	}
	m.cam = camera.NewController(c.Config.CameraConfig(), m.homeCamera())
	return m, nil
}

// homeCamera centers the first resident root at scale 1.
func (m *viewerModel) homeCamera() camera.Camera {
	cam := camera.Camera{Scale: 1}
	for _, n := range m.loader.Resident() {
		if n.IsRoot() {
			if b, ok := m.rctx.NodeBounds(n.ID); ok {
				ctr := b.Center()
				sc := m.screen()
				cam.TX = sc.W/2 - ctr.X
				cam.TY = sc.H/2 - ctr.Y
			}
			break
		}
	}
	return cam
}

// screen maps the terminal grid to world-point screen dimensions. The
// bottom row is reserved for the status line.
func (m *viewerModel) screen() geom.Size {
	return geom.Size{W: float64(m.width) * cellW, H: float64(m.height-1) * cellH}
}

func (m *viewerModel) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.cam.OnPanUpdate(panStep, 0)
		case "right", "l":
			m.cam.OnPanUpdate(-panStep, 0)
		case "up", "k":
			m.cam.OnPanUpdate(0, panStep)
		case "down", "j":
			m.cam.OnPanUpdate(0, -panStep)
		case "+", "=":
			sc := m.screen()
			m.cam.OnPinchUpdate(zoomStep, sc.W/2, sc.H/2)
			m.cam.OnPinchEnd(time.Now())
		case "-", "_":
			sc := m.screen()
			m.cam.OnPinchUpdate(1/zoomStep, sc.W/2, sc.H/2)
			m.cam.OnPinchEnd(time.Now())
		case "0":
			m.cam = camera.NewController(m.cam.Config(), m.homeCamera())
		}
		return m, nil

	case tickMsg:
		now := time.Time(msg)
		cam := m.cam.Step(now)
		view := viewport.Viewport{Screen: m.screen(), Camera: cam}

		m.loader.Observe(view, m.cam.Velocity(now), now)
		var fetch tea.Cmd
		if req := m.loader.Tick(now); req != nil {
			fetch = m.fetchCmd(req)
		}

		m.frame = m.rctx.BuildFrame(view, now)
		m.touchVisible(now)
		return m, tea.Batch(tick(), fetch)
	}
	return m, nil
}

// fetchCmd runs one region fetch off the UI loop.
func (m *viewerModel) fetchCmd(req *viewport.Request) tea.Cmd {
	return func() tea.Msg {
		nodes, err := m.src.FetchRegion(context.Background(), req.Bounds, req.MaxDepth)
		m.loader.Apply(req, nodes, err, time.Now())
		return nil
	}
}

// touchVisible protects this frame's nodes from eviction.
func (m *viewerModel) touchVisible(now time.Time) {
	ids := make([]string, 0, len(m.frame.Calls))
	for _, call := range m.frame.Calls {
		ids = append(ids, call.NodeID)
	}
	m.loader.Touch(ids, now)
}

func (m *viewerModel) View() string {
	grid := newCellGrid(m.width, m.height-1)

	tf := m.frame.View.Camera.Transform()
	for _, batch := range m.frame.Connectors {
		for _, path := range batch {
			for _, seg := range path.Segments {
				grid.line(tf.Apply(seg.From), tf.Apply(seg.To))
			}
		}
	}
	for _, call := range m.frame.Calls {
		grid.card(call)
	}

	status := fmt.Sprintf(" %d visible · %d resident · scale %.2f · %s ",
		len(m.frame.Calls), m.loader.ResidentCount(),
		m.frame.View.Camera.Scale, m.loader.State())
	return grid.String() + "\n" + tuiStatusStyle.Render(status)
}

// =============================================================================
// cellGrid - Character Canvas
// =============================================================================

// cellGrid is the character canvas a frame is drawn onto. Cards paint
// over connectors, later draw calls over earlier ones, matching the
// painter's order of the frame itself.
type cellGrid struct {
	w, h  int
	runes [][]rune
	dim   [][]bool
}

func newCellGrid(w, h int) *cellGrid {
	g := &cellGrid{w: w, h: h, runes: make([][]rune, h), dim: make([][]bool, h)}
	for y := range g.runes {
		g.runes[y] = make([]rune, w)
		g.dim[y] = make([]bool, w)
		for x := range g.runes[y] {
			g.runes[y][x] = ' '
		}
	}
	return g
}

func (g *cellGrid) set(x, y int, r rune, dim bool) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return
	}
	g.runes[y][x] = r
	g.dim[y][x] = dim
}

// line draws an axis-aligned connector segment given in screen points.
func (g *cellGrid) line(a, b geom.Point) {
	ax, ay := int(a.X/cellW), int(a.Y/cellH)
	bx, by := int(b.X/cellW), int(b.Y/cellH)
	if ax == bx {
		if ay > by {
			ay, by = by, ay
		}
		for y := ay; y <= by; y++ {
			g.set(ax, y, '│', true)
		}
		return
	}
	if ax > bx {
		ax, bx = bx, ax
	}
	for x := ax; x <= bx; x++ {
		g.set(x, ay, '─', true)
	}
}

// card draws a draw call as a bordered box with a centered label.
func (g *cellGrid) card(call render.DrawCall) {
	r := call.Screen
	x0, y0 := int(r.MinX/cellW), int(r.MinY/cellH)
	x1, y1 := int(r.MaxX/cellW), int(r.MaxY/cellH)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}

	chip := call.Tier == lod.TierChip
	for x := x0; x <= x1; x++ {
		g.set(x, y0, '─', chip)
		g.set(x, y1, '─', chip)
	}
	for y := y0; y <= y1; y++ {
		g.set(x0, y, '│', chip)
		g.set(x1, y, '│', chip)
	}
	g.set(x0, y0, '┌', chip)
	g.set(x1, y0, '┐', chip)
	g.set(x0, y1, '└', chip)
	g.set(x1, y1, '┘', chip)

	label := cardLabel(call)
	maxLen := x1 - x0 - 1
	if maxLen <= 0 {
		return
	}
	runes := []rune(label)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}
	ly := (y0 + y1) / 2
	lx := x0 + 1 + (maxLen-len(runes))/2
	for i, ch := range runes {
		g.set(lx+i, ly, ch, chip)
	}
}

func cardLabel(call render.DrawCall) string {
	if call.Tier == lod.TierChip {
		return fmt.Sprintf("+%d", call.ChipCount)
	}
	if call.Text == nil || len(call.Text.Lines) == 0 {
		return call.NodeID
	}
	return call.Text.Lines[0].Text
}

func (g *cellGrid) String() string {
	var sb strings.Builder
	for y := 0; y < g.h; y++ {
		run := make([]rune, 0, g.w)
		runDim := false
		flush := func() {
			if len(run) == 0 {
				return
			}
			s := string(run)
			if runDim {
				sb.WriteString(tuiChipStyle.Render(s))
			} else {
				sb.WriteString(tuiCardStyle.Render(s))
			}
			run = run[:0]
		}
		for x := 0; x < g.w; x++ {
			if len(run) > 0 && g.dim[y][x] != runDim {
				flush()
			}
			runDim = g.dim[y][x]
			run = append(run, g.runes[y][x])
		}
		flush()
		if y < g.h-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
