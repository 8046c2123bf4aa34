// Package fonts provides the embedded fallback fonts used for label
// shaping and raster export.
//
// The Go fonts ship as Go source, so the binary needs no font files on
// disk. Parsed fonts and faces are cached after first use.
package fonts

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	regularOnce sync.Once
	regularFont *truetype.Font
	regularErr  error

	boldOnce sync.Once
	boldFont *truetype.Font
	boldErr  error
)

// Regular returns the parsed regular-weight fallback font.
func Regular() (*truetype.Font, error) {
	regularOnce.Do(func() {
		regularFont, regularErr = truetype.Parse(goregular.TTF)
	})
	return regularFont, regularErr
}

// Bold returns the parsed bold-weight fallback font.
func Bold() (*truetype.Font, error) {
	boldOnce.Do(func() {
		boldFont, boldErr = truetype.Parse(gobold.TTF)
	})
	return boldFont, boldErr
}

// Face returns a regular face at the given pixel size, for raster export.
func Face(sizePx float64) (font.Face, error) {
	f, err := Regular()
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// BoldFace returns a bold face at the given pixel size.
func BoldFace(sizePx float64) (font.Face, error) {
	f, err := Bold()
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}
