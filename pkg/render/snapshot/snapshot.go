// Package snapshot rasterizes a built frame to PNG.
//
// It is a reference canvas backend for [render.Frame]: the exporter and
// tests use it to see exactly what the engine decided to draw, without a
// GPU or a platform view. Drawing order matches the engine contract -
// connectors behind cards, cards in draw-call order.
package snapshot

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/Qefaraki/treescape/pkg/fonts"
	"github.com/Qefaraki/treescape/pkg/lod"
	"github.com/Qefaraki/treescape/pkg/render"
)

// Options controls the raster style.
type Options struct {
	Background  color.Color
	CardFill    color.Color
	CardStroke  color.Color
	ChipFill    color.Color
	Connector   color.Color
	Text        color.Color
	LabelSizePx float64
}

// DefaultOptions returns a neutral light style.
func DefaultOptions() Options {
	return Options{
		Background:  color.White,
		CardFill:    color.RGBA{R: 0xF7, G: 0xF4, B: 0xEE, A: 0xFF},
		CardStroke:  color.RGBA{R: 0x8A, G: 0x7B, B: 0x66, A: 0xFF},
		ChipFill:    color.RGBA{R: 0xD9, G: 0xCF, B: 0xBE, A: 0xFF},
		Connector:   color.RGBA{R: 0xB0, G: 0xA4, B: 0x90, A: 0xFF},
		Text:        color.RGBA{R: 0x2B, G: 0x25, B: 0x1D, A: 0xFF},
		LabelSizePx: 13,
	}
}

// RenderPNG draws the frame at its own screen size and returns PNG bytes.
func RenderPNG(f render.Frame, opts Options) ([]byte, error) {
	w, h := int(f.View.Screen.W), int(f.View.Screen.H)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("frame screen size %dx%d", w, h)
	}

	dc := gg.NewContext(w, h)
	dc.SetColor(opts.Background)
	dc.Clear()

	face, err := fonts.Face(opts.LabelSizePx)
	if err != nil {
		return nil, fmt.Errorf("load label face: %w", err)
	}
	dc.SetFontFace(face)

	drawConnectors(dc, f, opts)
	for _, call := range f.Calls {
		drawCall(dc, call, opts)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawConnectors(dc *gg.Context, f render.Frame, opts Options) {
	tf := f.View.Camera.Transform()
	dc.SetColor(opts.Connector)
	dc.SetLineWidth(1.5)
	for _, batch := range f.Connectors {
		for _, path := range batch {
			for _, seg := range path.Segments {
				a := tf.Apply(seg.From)
				b := tf.Apply(seg.To)
				dc.DrawLine(a.X, a.Y, b.X, b.Y)
			}
		}
		dc.Stroke()
	}
}

func drawCall(dc *gg.Context, call render.DrawCall, opts Options) {
	r := call.Screen
	switch call.Tier {
	case lod.TierChip:
		// Capsule with the collapsed count.
		dc.SetColor(opts.ChipFill)
		dc.DrawRoundedRectangle(r.MinX, r.MinY, r.W(), r.H(), r.H()/2)
		dc.Fill()
		dc.SetColor(opts.Text)
		dc.DrawStringAnchored(fmt.Sprintf("%d", call.ChipCount), r.MinX+r.W()/2, r.MinY+r.H()/2, 0.5, 0.35)

	case lod.TierCompact:
		dc.SetColor(opts.CardFill)
		dc.DrawRoundedRectangle(r.MinX, r.MinY, r.W(), r.H(), 4)
		dc.Fill()
		dc.SetColor(opts.CardStroke)
		dc.DrawRoundedRectangle(r.MinX, r.MinY, r.W(), r.H(), 4)
		dc.Stroke()
		drawLabel(dc, call, opts, r.MinY+r.H()/2)

	default: // TierFull
		dc.SetColor(opts.CardFill)
		dc.DrawRoundedRectangle(r.MinX, r.MinY, r.W(), r.H(), 6)
		dc.Fill()
		dc.SetColor(opts.CardStroke)
		dc.DrawRoundedRectangle(r.MinX, r.MinY, r.W(), r.H(), 6)
		dc.Stroke()

		// Photo area: a circle in the upper half, hatched when the
		// asset is a placeholder.
		cx, cy := r.MinX+r.W()/2, r.MinY+r.H()*0.32
		radius := r.W() * 0.28
		if call.Placeholder {
			dc.SetColor(opts.ChipFill)
		} else {
			dc.SetColor(opts.CardStroke)
		}
		dc.DrawCircle(cx, cy, radius)
		dc.Fill()

		drawLabel(dc, call, opts, r.MinY+r.H()*0.78)
	}
}

func drawLabel(dc *gg.Context, call render.DrawCall, opts Options, baselineY float64) {
	if call.Text == nil {
		return
	}
	dc.SetColor(opts.Text)
	cx := call.Screen.MinX + call.Screen.W()/2
	y := baselineY
	for _, line := range call.Text.Lines {
		dc.DrawStringAnchored(line.Text, cx, y, 0.5, 0.35)
		y += call.Text.HeightPx / float64(len(call.Text.Lines))
	}
}
