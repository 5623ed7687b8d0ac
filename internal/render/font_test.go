// font_test.go tests shaping and rasterization against the Go fonts.

package render

import (
	"testing"

	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"tools.zach/dev/avatargen/internal/features"
)

func loadTestFont(t *testing.T, data []byte) *Font {
	t.Helper()
	f, err := LoadFont(data)
	if err != nil {
		t.Fatalf("LoadFont() error: %v", err)
	}
	return f
}

func TestLoadFontInvalid(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("not a font"), make([]byte, 64)} {
		if _, err := LoadFont(data); err == nil {
			t.Errorf("LoadFont(%d bytes) expected error, got nil", len(data))
		}
	}
}

func TestShape(t *testing.T) {
	f := loadTestFont(t, goregular.TTF)
	if f.UnitsPerEm() <= 0 {
		t.Fatalf("UnitsPerEm() = %d", f.UnitsPerEm())
	}

	glyphs := f.Shape("{0xB}", features.Set{"kern": 1})
	if len(glyphs) != 5 {
		t.Fatalf("Shape() returned %d glyphs, want 5", len(glyphs))
	}
	for i, g := range glyphs {
		if g.ID == 0 {
			t.Errorf("glyph %d is .notdef", i)
		}
		if g.XAdvance <= 0 {
			t.Errorf("glyph %d XAdvance = %v, want > 0", i, g.XAdvance)
		}
	}
}

func TestShapeMonospaceAdvances(t *testing.T) {
	f := loadTestFont(t, gomono.TTF)
	glyphs := f.Shape("iWm", nil)
	if len(glyphs) != 3 {
		t.Fatalf("Shape() returned %d glyphs, want 3", len(glyphs))
	}
	for _, g := range glyphs[1:] {
		if g.XAdvance != glyphs[0].XAdvance {
			t.Errorf("advance %v differs from %v in a monospace font", g.XAdvance, glyphs[0].XAdvance)
		}
	}
}

func TestRasterize(t *testing.T) {
	f := loadTestFont(t, goregular.TTF)
	glyphs := f.Shape("A g", nil)
	if len(glyphs) != 3 {
		t.Fatalf("Shape() returned %d glyphs, want 3", len(glyphs))
	}

	a, err := f.Rasterize(glyphs[0].ID, 100)
	if err != nil {
		t.Fatalf("Rasterize(A) error: %v", err)
	}
	if a.Width <= 0 || a.Height <= 0 {
		t.Fatalf("Rasterize(A) = %dx%d, want non-empty", a.Width, a.Height)
	}
	if len(a.Coverage) != a.Width*a.Height {
		t.Errorf("len(Coverage) = %d, want %d", len(a.Coverage), a.Width*a.Height)
	}
	if a.Top <= 0 || a.Top > 100 {
		t.Errorf("A Top = %d, want a cap height within the em", a.Top)
	}
	var ink int
	for _, c := range a.Coverage {
		ink += int(c)
	}
	if ink == 0 {
		t.Error("A has no coverage")
	}

	space, err := f.Rasterize(glyphs[1].ID, 100)
	if err != nil {
		t.Fatalf("Rasterize(space) error: %v", err)
	}
	if space.Width != 0 || space.Height != 0 {
		t.Errorf("Rasterize(space) = %dx%d, want empty", space.Width, space.Height)
	}

	g, err := f.Rasterize(glyphs[2].ID, 100)
	if err != nil {
		t.Fatalf("Rasterize(g) error: %v", err)
	}
	// The descender reaches below the baseline.
	if g.Height <= g.Top {
		t.Errorf("g Height = %d, Top = %d, want descender below baseline", g.Height, g.Top)
	}
}

func TestRasterizeScales(t *testing.T) {
	f := loadTestFont(t, goregular.TTF)
	gid := f.Shape("H", nil)[0].ID

	small, err := f.Rasterize(gid, 50)
	if err != nil {
		t.Fatal(err)
	}
	large, err := f.Rasterize(gid, 200)
	if err != nil {
		t.Fatal(err)
	}
	if large.Height < 3*small.Height {
		t.Errorf("200px height %d not ~4x the 50px height %d", large.Height, small.Height)
	}
}

func TestGlyphNameFallback(t *testing.T) {
	f := loadTestFont(t, goregular.TTF)
	gid := f.Shape("B", nil)[0].ID
	if name := glyphName(f, gid); name == "" {
		t.Error("glyphName() returned an empty string")
	}
}
