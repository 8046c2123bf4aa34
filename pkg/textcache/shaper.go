// Package textcache caches shaped, measured text blocks for the render
// path.
//
// Text shaping (font fallback, bidi direction, line breaking, measurement)
// is far too expensive to run per frame, so shaped results are cached in a
// bounded LRU keyed by text + style + wrap width. The hit path does no
// shaping and allocates nothing beyond the lookup, which is what lets the
// renderer consult the cache for every visible label on every frame.
package textcache

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	pkgerrors "github.com/Qefaraki/treescape/pkg/errors"
)

// StyleKey identifies a text style for shaping and cache keying.
type StyleKey struct {
	Family string  // logical family name ("regular", "bold")
	SizePx float64 // em size in pixels
}

// Line is a single laid-out line of text.
type Line struct {
	Text    string
	WidthPx float64
}

// ShapedText is a measured, line-broken block of text ready for drawing.
type ShapedText struct {
	Lines    []Line
	WidthPx  float64 // widest line
	HeightPx float64 // line count x line height
	RTL      bool    // paragraph direction
}

// cost approximates the entry's memory footprint for cache accounting.
func (s *ShapedText) cost() int {
	c := 64
	for _, l := range s.Lines {
		c += len(l.Text) + 24
	}
	return c
}

// Shaper produces ShapedText from raw text. Implementations must be
// deterministic for a given (text, style, maxWidth) triple.
type Shaper interface {
	Shape(text string, style StyleKey, maxWidth float64) (*ShapedText, error)
}

// =============================================================================
// FontShaper - opentype-backed shaping with a fallback chain
// =============================================================================

// FontShaper shapes text using x/image opentype faces. Families resolve
// through a fallback chain: a glyph missing from the first face is measured
// against the next. Arabic and Hebrew text is tagged right-to-left so the
// renderer can mirror alignment.
type FontShaper struct {
	chains map[string][]*opentype.Font
	faces  map[faceKey]font.Face
	// lineHeightFactor converts em size to line advance.
	lineHeightFactor float64
}

type faceKey struct {
	family string
	index  int
	sizePx float64
}

// NewFontShaper creates a shaper with the embedded Go fonts as the default
// "regular" and "bold" families. Additional families can be registered
// with AddFamily.
func NewFontShaper() (*FontShaper, error) {
	reg, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &FontShaper{
		chains: map[string][]*opentype.Font{
			"regular": {reg},
			"bold":    {bold, reg},
		},
		faces:            make(map[faceKey]font.Face),
		lineHeightFactor: 1.3,
	}, nil
}

// AddFamily registers a fallback chain under a family name, replacing any
// existing chain. The first font that can render a rune wins. The name
// becomes a face-cache key, so it must pass
// [pkgerrors.ValidateFontFamily].
func (fs *FontShaper) AddFamily(name string, chain ...*opentype.Font) error {
	if err := pkgerrors.ValidateFontFamily(name); err != nil {
		return err
	}
	fs.chains[name] = chain
	return nil
}

// Shape lays out text into lines no wider than maxWidth pixels.
// Words longer than maxWidth occupy their own overflowing line rather than
// being broken mid-word; truncation is a rendering decision, not a shaping
// one.
func (fs *FontShaper) Shape(text string, style StyleKey, maxWidth float64) (*ShapedText, error) {
	chain, ok := fs.chains[style.Family]
	if !ok || len(chain) == 0 {
		chain, ok = fs.chains["regular"]
		if !ok {
			return nil, fmt.Errorf("no font chain for family %q", style.Family)
		}
	}

	out := &ShapedText{RTL: isRTL(text)}
	lineH := style.SizePx * fs.lineHeightFactor

	var line strings.Builder
	lineW := 0.0
	flush := func() {
		if line.Len() == 0 {
			return
		}
		out.Lines = append(out.Lines, Line{Text: line.String(), WidthPx: lineW})
		if lineW > out.WidthPx {
			out.WidthPx = lineW
		}
		line.Reset()
		lineW = 0
	}

	for _, word := range strings.Fields(text) {
		ww, err := fs.measure(style, chain, word)
		if err != nil {
			return nil, err
		}
		sw, err := fs.measure(style, chain, " ")
		if err != nil {
			return nil, err
		}

		switch {
		case line.Len() == 0:
			line.WriteString(word)
			lineW = ww
		case maxWidth <= 0 || lineW+sw+ww <= maxWidth:
			line.WriteString(" ")
			line.WriteString(word)
			lineW += sw + ww
		default:
			flush()
			line.WriteString(word)
			lineW = ww
		}
	}
	flush()

	out.HeightPx = float64(len(out.Lines)) * lineH
	return out, nil
}

// measure returns the advance width of s in pixels, walking the fallback
// chain per rune.
func (fs *FontShaper) measure(style StyleKey, chain []*opentype.Font, s string) (float64, error) {
	total := 0.0
	for _, r := range s {
		adv, err := fs.runeAdvance(style, chain, r)
		if err != nil {
			return 0, err
		}
		total += adv
	}
	return total, nil
}

func (fs *FontShaper) runeAdvance(style StyleKey, chain []*opentype.Font, r rune) (float64, error) {
	for i := range chain {
		face, err := fs.face(style, chain, i)
		if err != nil {
			return 0, err
		}
		if adv, ok := face.GlyphAdvance(r); ok {
			return fixedToFloat(adv), nil
		}
	}
	// No face in the chain covers the rune: fall back to the first face's
	// notdef advance so measurement stays monotone.
	face, err := fs.face(style, chain, 0)
	if err != nil {
		return 0, err
	}
	adv, _ := face.GlyphAdvance('�')
	return fixedToFloat(adv), nil
}

func (fs *FontShaper) face(style StyleKey, chain []*opentype.Font, idx int) (font.Face, error) {
	k := faceKey{family: style.Family, index: idx, sizePx: style.SizePx}
	if f, ok := fs.faces[k]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(chain[idx], &opentype.FaceOptions{
		Size:    style.SizePx,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face %s/%d@%.1f: %w", style.Family, idx, style.SizePx, err)
	}
	fs.faces[k] = f
	return f, nil
}

// fixedToFloat converts a 26.6 fixed-point advance to pixels.
func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// isRTL reports whether the first strong-direction rune is right-to-left.
func isRTL(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Arabic, r) || unicode.Is(unicode.Hebrew, r) {
			return true
		}
		if unicode.IsLetter(r) {
			return false
		}
	}
	return false
}
