package render

import (
	"bytes"
	"fmt"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/harfbuzz"
	"golang.org/x/image/font/sfnt"
)

// GlyphID is a glyph index within a font.
type GlyphID uint32

// Face is a font that can both shape text and rasterize the resulting glyphs.
type Face interface {
	Shaper
	Rasterizer
}

// Font is a parsed SFNT font. Shaping goes through go-text's HarfBuzz port;
// outlines and glyph names come from x/image/font/sfnt. A Font is not safe
// for concurrent use.
type Font struct {
	// hb is the HarfBuzz font used for shaping.
	hb *harfbuzz.Font
	// outlines is the same font parsed for glyph outlines and names.
	outlines *sfnt.Font
	// buf is reused across sfnt calls; results are invalid after the next call.
	buf sfnt.Buffer
	// upem is the design units-per-em.
	upem int
}

// LoadFont parses raw TTF/OTF data. WOFF and WOFF2 data must be converted to
// SFNT first (see the fontsrc package).
func LoadFont(data []byte) (*Font, error) {
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse font for shaping: %w", err)
	}
	outlines, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font outlines: %w", err)
	}
	upem := int(outlines.UnitsPerEm())
	if upem <= 0 {
		return nil, fmt.Errorf("invalid units-per-em %d", upem)
	}
	return &Font{
		hb:       harfbuzz.NewFont(face),
		outlines: outlines,
		upem:     upem,
	}, nil
}

// UnitsPerEm returns the font's design units-per-em.
func (f *Font) UnitsPerEm() int { return f.upem }

// NumGlyphs returns the number of glyphs in the font.
func (f *Font) NumGlyphs() int { return f.outlines.NumGlyphs() }
