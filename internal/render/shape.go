package render

import (
	"github.com/go-text/typesetting/harfbuzz"

	"tools.zach/dev/avatargen/internal/features"
)

// ShapedGlyph is one glyph of shaper output. Advances and offsets are in font
// design units with y pointing up, as HarfBuzz reports them when the font
// scale equals units-per-em.
type ShapedGlyph struct {
	ID       GlyphID
	XAdvance float64
	YAdvance float64
	XOffset  float64
	YOffset  float64
}

// Shaper maps text and a feature selection to positioned glyphs.
type Shaper interface {
	// Shape shapes text with all of feats applied to the whole string.
	Shape(text string, feats features.Set) []ShapedGlyph
	// UnitsPerEm is the design scale that Shape's positions are expressed in.
	UnitsPerEm() int
}

// Shape implements [Shaper]. Script, direction and language are guessed from
// the text.
func (f *Font) Shape(text string, feats features.Set) []ShapedGlyph {
	f.hb.XScale = int32(f.upem)
	f.hb.YScale = int32(f.upem)

	buf := harfbuzz.NewBuffer()
	buf.AddRunes([]rune(text), 0, -1)
	buf.GuessSegmentProperties()
	buf.Shape(f.hb, feats.HarfBuzz())

	out := make([]ShapedGlyph, len(buf.Info))
	for i, info := range buf.Info {
		pos := buf.Pos[i]
		out[i] = ShapedGlyph{
			ID:       GlyphID(info.Glyph),
			XAdvance: float64(pos.XAdvance),
			YAdvance: float64(pos.YAdvance),
			XOffset:  float64(pos.XOffset),
			YOffset:  float64(pos.YOffset),
		}
	}
	return out
}
