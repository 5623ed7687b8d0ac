package render

import (
	"image"
	"image/draw"
	"math"
)

// TextMask composites placements into a single-channel mask sized to box.
// Dimensions and glyph offsets are rounded half-to-even and the mask is never
// smaller than 1x1. Overlapping glyphs are combined with Porter-Duff over, so
// a later glyph's full coverage always wins.
func TextMask(box BoundingBox, placements []GlyphPlacement) *image.Alpha {
	w := max(1, int(math.RoundToEven(box.Width())))
	h := max(1, int(math.RoundToEven(box.Height())))
	mask := image.NewAlpha(image.Rect(0, 0, w, h))

	for _, p := range placements {
		if p.Width <= 0 || p.Height <= 0 {
			continue
		}
		glyph := &image.Alpha{
			Pix:    p.Coverage,
			Stride: p.Width,
			Rect:   image.Rect(0, 0, p.Width, p.Height),
		}
		at := image.Pt(
			int(math.RoundToEven(p.X-box.MinX)),
			int(math.RoundToEven(p.Y-box.MinY)),
		)
		draw.DrawMask(mask, glyph.Rect.Add(at), glyph, image.Point{}, glyph, image.Point{}, draw.Over)
	}
	return mask
}
