package render

import (
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Bitmap is a rasterized glyph. Left is the distance from the glyph origin to
// the bitmap's left edge and Top the distance from the baseline up to its top
// edge (FreeType's bitmap_left / bitmap_top).
type Bitmap struct {
	Width    int
	Height   int
	Left     int
	Top      int
	Coverage []byte // row-major, len == Width*Height
}

// Rasterizer renders glyphs to anti-aliased coverage bitmaps.
type Rasterizer interface {
	// Rasterize renders gid at a square pixel size of px pixels per em.
	Rasterize(gid GlyphID, px int) (Bitmap, error)
	// GlyphName reports the font's name for gid, if it has one.
	GlyphName(gid GlyphID) (string, bool)
}

// Rasterize implements [Rasterizer]. Glyphs without an outline (space) yield a
// zero-size Bitmap.
func (f *Font) Rasterize(gid GlyphID, px int) (Bitmap, error) {
	segs, err := f.outlines.LoadGlyph(&f.buf, sfnt.GlyphIndex(gid), fixed.I(px), nil)
	if err != nil {
		return Bitmap{}, fmt.Errorf("load glyph %d at %dpx: %w", gid, px, err)
	}
	if len(segs) == 0 {
		return Bitmap{}, nil
	}

	// sfnt segments are y-down, so Min.Y is the top of the ink.
	b := segs.Bounds()
	minX, minY := b.Min.X.Floor(), b.Min.Y.Floor()
	w, h := b.Max.X.Ceil()-minX, b.Max.Y.Ceil()-minY
	if w <= 0 || h <= 0 {
		return Bitmap{}, nil
	}

	dx, dy := float32(-minX), float32(-minY)
	pt := func(p fixed.Point26_6) (float32, float32) {
		return dx + float32(p.X)/64, dy + float32(p.Y)/64
	}

	r := vector.NewRasterizer(w, h)
	r.DrawOp = draw.Src
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			r.MoveTo(pt(seg.Args[0]))
		case sfnt.SegmentOpLineTo:
			r.LineTo(pt(seg.Args[0]))
		case sfnt.SegmentOpQuadTo:
			x1, y1 := pt(seg.Args[0])
			x2, y2 := pt(seg.Args[1])
			r.QuadTo(x1, y1, x2, y2)
		case sfnt.SegmentOpCubeTo:
			x1, y1 := pt(seg.Args[0])
			x2, y2 := pt(seg.Args[1])
			x3, y3 := pt(seg.Args[2])
			r.CubeTo(x1, y1, x2, y2, x3, y3)
		}
	}
	r.ClosePath()

	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	r.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})

	return Bitmap{
		Width:    w,
		Height:   h,
		Left:     minX,
		Top:      -minY,
		Coverage: dst.Pix,
	}, nil
}

// GlyphName implements [Rasterizer] using the font's post/CFF glyph names.
func (f *Font) GlyphName(gid GlyphID) (string, bool) {
	name, err := f.outlines.GlyphName(&f.buf, sfnt.GlyphIndex(gid))
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}
