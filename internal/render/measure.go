package render

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"tools.zach/dev/avatargen/internal/features"
)

// ErrNoDrawableGlyphs is returned when every shaped glyph has an empty bitmap
// (empty text, whitespace only).
var ErrNoDrawableGlyphs = errors.New("no drawable glyphs after shaping")

// GlyphPlacement is a rasterized glyph positioned in text-run space: y grows
// downward and the baseline sits at y = 0.
type GlyphPlacement struct {
	X, Y     float64
	Width    int
	Height   int
	Coverage []byte
}

// BoundingBox is the union of all non-empty glyph bitmaps in a run.
type BoundingBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width is the horizontal extent of the box.
func (b BoundingBox) Width() float64 { return b.MaxX - b.MinX }

// Height is the vertical extent of the box.
func (b BoundingBox) Height() float64 { return b.MaxY - b.MinY }

// Run is a shaped, rasterized line of text at one pixel size.
type Run struct {
	PixelSize  int
	Box        BoundingBox
	Placements []GlyphPlacement
	GlyphNames []string
}

// Measure shapes text with feats at px pixels per em, rasterizes every glyph
// and reports where each lands along with their combined ink bounds. Glyph
// order is shaper output order.
func Measure(sh Shaper, rz Rasterizer, text string, feats features.Set, px int) (Run, error) {
	glyphs := sh.Shape(text, feats)
	scale := float64(px) / float64(sh.UnitsPerEm())

	run := Run{
		PixelSize:  px,
		Placements: make([]GlyphPlacement, 0, len(glyphs)),
		GlyphNames: make([]string, 0, len(glyphs)),
	}
	box := BoundingBox{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	drawable := false

	var penX float64
	for _, g := range glyphs {
		bm, err := rz.Rasterize(g.ID, px)
		if err != nil {
			return Run{}, fmt.Errorf("rasterize: %w", err)
		}
		x, y := toImageSpace(penX, g.XOffset*scale, g.YOffset*scale, bm.Left, bm.Top)
		if bm.Width > 0 && bm.Height > 0 {
			drawable = true
			box.MinX = min(box.MinX, x)
			box.MinY = min(box.MinY, y)
			box.MaxX = max(box.MaxX, x+float64(bm.Width))
			box.MaxY = max(box.MaxY, y+float64(bm.Height))
		}
		run.Placements = append(run.Placements, GlyphPlacement{
			X:        x,
			Y:        y,
			Width:    bm.Width,
			Height:   bm.Height,
			Coverage: bm.Coverage,
		})
		run.GlyphNames = append(run.GlyphNames, glyphName(rz, g.ID))
		penX += g.XAdvance * scale
	}

	if !drawable {
		return Run{}, ErrNoDrawableGlyphs
	}
	run.Box = box
	return run, nil
}

// toImageSpace converts a glyph's pen position, scaled shaper offsets
// (y up) and bitmap bearings into the top-left corner of its bitmap in
// y-down image coordinates. A positive yOff raises the glyph.
func toImageSpace(penX, xOff, yOff float64, left, top int) (x, y float64) {
	return penX + xOff + float64(left), -yOff - float64(top)
}

// glyphName falls back to the decimal glyph ID when the font has no name.
func glyphName(rz Rasterizer, gid GlyphID) string {
	if name, ok := rz.GlyphName(gid); ok {
		return name
	}
	return strconv.FormatUint(uint64(gid), 10)
}
