// avatar_test.go tests option validation, compositing and the full build.

package render

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font/gofont/goregular"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		field  string
	}{
		{"defaults", func(*Options) {}, ""},
		{"square ignores margin", func(o *Options) { o.Shape = ShapeSquare; o.Margin = 5000 }, ""},
		{"jpeg output", func(o *Options) { o.Output = "out.jpg" }, ""},
		{"empty text", func(o *Options) { o.Text = "" }, "text"},
		{"bad shape", func(o *Options) { o.Shape = "hexagon" }, "shape"},
		{"zero size", func(o *Options) { o.Size = 0 }, "size"},
		{"negative margin", func(o *Options) { o.Margin = -1 }, "margin"},
		{"margin swallows circle", func(o *Options) { o.Size = 100; o.Margin = 50 }, "margin"},
		{"zero width ratio", func(o *Options) { o.FitWidthRatio = 0 }, "fit-width-ratio"},
		{"negative height ratio", func(o *Options) { o.FitHeightRatio = -0.5 }, "fit-height-ratio"},
		{"negative blur", func(o *Options) { o.GlowBlur = -1 }, "glow-blur"},
		{"unknown extension", func(o *Options) { o.Output = "avatar.webp" }, "output"},
		{"no extension", func(o *Options) { o.Output = "avatar" }, "output"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			err := opts.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() error: %v", err)
				}
				return
			}
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("Validate() error = %v, want *ConfigError", err)
			}
			if cerr.Field != tt.field {
				t.Errorf("ConfigError.Field = %q, want %q", cerr.Field, tt.field)
			}
		})
	}
}

func TestComposeCircle(t *testing.T) {
	opts := DefaultOptions()
	opts.Size = 256
	opts.Margin = 24
	opts.Background = color.NRGBA{R: 0x0F, G: 0x11, B: 0x15, A: 0xFF}

	img := Compose(opts, image.NewAlpha(image.Rect(0, 0, 1, 1)))
	if b := img.Bounds(); b.Dx() != 256 || b.Dy() != 256 {
		t.Fatalf("bounds = %v, want 256x256", b)
	}

	for _, p := range []image.Point{{0, 0}, {255, 0}, {0, 255}, {255, 255}, {10, 128}} {
		if a := img.RGBAAt(p.X, p.Y).A; a != 0 {
			t.Errorf("alpha at %v = %d, want 0 outside the circle", p, a)
		}
	}
	want := color.RGBA{R: 0x0F, G: 0x11, B: 0x15, A: 0xFF}
	for _, p := range []image.Point{{128, 128}, {128, 30}, {40, 128}} {
		if got := img.RGBAAt(p.X, p.Y); got != want {
			t.Errorf("pixel at %v = %v, want background %v", p, got, want)
		}
	}
}

func TestComposeSquare(t *testing.T) {
	opts := DefaultOptions()
	opts.Shape = ShapeSquare
	opts.Size = 64
	opts.Background = color.NRGBA{R: 10, G: 20, B: 30, A: 0xFF}

	img := Compose(opts, image.NewAlpha(image.Rect(0, 0, 1, 1)))
	want := color.RGBA{R: 10, G: 20, B: 30, A: 0xFF}
	for _, p := range []image.Point{{0, 0}, {63, 63}, {32, 32}} {
		if got := img.RGBAAt(p.X, p.Y); got != want {
			t.Errorf("pixel at %v = %v, want %v", p, got, want)
		}
	}
}

// halfMask is a 20x20 mask whose left half is fully covered.
func halfMask() *image.Alpha {
	m := image.NewAlpha(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 10; x++ {
			m.SetAlpha(x, y, color.Alpha{A: 0xFF})
		}
	}
	return m
}

func TestComposeCentersText(t *testing.T) {
	opts := DefaultOptions()
	opts.Shape = ShapeSquare
	opts.Size = 100
	opts.GlowBlur = 0
	opts.Foreground = color.NRGBA{R: 0xFF, A: 0xFF}
	opts.Background = color.NRGBA{B: 0xFF, A: 0xFF}

	img := Compose(opts, halfMask())
	// The mask lands at (40, 40); its opaque half spans x 40..49.
	red := color.RGBA{R: 0xFF, A: 0xFF}
	blue := color.RGBA{B: 0xFF, A: 0xFF}
	cases := map[image.Point]color.RGBA{
		{40, 40}: red,
		{49, 59}: red,
		{39, 45}: blue,
		{50, 45}: blue,
		{45, 60}: blue,
	}
	for p, want := range cases {
		if got := img.RGBAAt(p.X, p.Y); got != want {
			t.Errorf("pixel at %v = %v, want %v", p, got, want)
		}
	}
}

func TestComposeGlow(t *testing.T) {
	opts := DefaultOptions()
	opts.Shape = ShapeSquare
	opts.Size = 100
	opts.Background = color.NRGBA{A: 0xFF}
	opts.Glow = color.NRGBA{G: 0xFF, A: 0xFF}
	opts.GlowBlur = 3

	// Just right of the opaque half, inside the mask box.
	probe := image.Pt(52, 50)

	lit := Compose(opts, halfMask()).RGBAAt(probe.X, probe.Y)
	if lit.G == 0 {
		t.Errorf("pixel at %v = %v, want glow", probe, lit)
	}

	for _, disable := range []func(*Options){
		func(o *Options) { o.GlowBlur = 0 },
		func(o *Options) { o.Glow.A = 0 },
	} {
		off := opts
		disable(&off)
		got := Compose(off, halfMask()).RGBAAt(probe.X, probe.Y)
		if want := (color.RGBA{A: 0xFF}); got != want {
			t.Errorf("pixel at %v without glow = %v, want background %v", probe, got, want)
		}
	}
}

func TestComposeOversizedMaskIsClipped(t *testing.T) {
	opts := DefaultOptions()
	opts.Shape = ShapeSquare
	opts.Size = 10
	opts.GlowBlur = 0
	opts.Foreground = color.NRGBA{R: 0xFF, A: 0xFF}

	mask := image.NewAlpha(image.Rect(0, 0, 31, 31))
	mask.SetAlpha(15, 15, color.Alpha{A: 0xFF})

	// floor((10-31)/2) = -11, so mask (15,15) lands on canvas (4,4).
	img := Compose(opts, mask)
	if got := img.RGBAAt(4, 4); got.R != 0xFF {
		t.Errorf("pixel at (4,4) = %v, want foreground", got)
	}
}

func TestFloorDiv(t *testing.T) {
	tests := []struct{ a, b, want int }{
		{7, 2, 3},
		{-7, 2, -4},
		{-21, 2, -11},
		{-4, 2, -2},
		{0, 2, 0},
	}
	for _, tt := range tests {
		if got := floorDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestBuild(t *testing.T) {
	f := loadTestFont(t, goregular.TTF)
	opts := DefaultOptions()
	opts.Size = 512
	opts.Margin = 36
	opts.Output = filepath.Join(t.TempDir(), "nested", "avatar.png")

	res, err := Build(f, opts)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if res.Output != opts.Output {
		t.Errorf("Output = %q, want %q", res.Output, opts.Output)
	}
	if len(res.GlyphNames) != 5 {
		t.Errorf("GlyphNames = %v, want 5 entries", res.GlyphNames)
	}
	if res.Fallback {
		t.Error("Fallback = true, want a fitting size")
	}
	if res.PixelSize < 64 || res.PixelSize > 358 {
		t.Errorf("PixelSize = %d, want within the candidate range", res.PixelSize)
	}

	img, err := imaging.Open(opts.Output)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 512 || b.Dy() != 512 {
		t.Errorf("output bounds = %v, want 512x512", b)
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Errorf("corner alpha = %d, want transparent", a)
	}
}

func TestBuildFailureWritesNothing(t *testing.T) {
	f := loadTestFont(t, goregular.TTF)
	dir := t.TempDir()

	tests := []struct {
		name   string
		modify func(*Options)
		check  func(error) bool
	}{
		{
			"spaces only",
			func(o *Options) { o.Text = "   " },
			func(err error) bool { return errors.Is(err, ErrNoDrawableGlyphs) },
		},
		{
			"empty text",
			func(o *Options) { o.Text = "" },
			func(err error) bool {
				var cerr *ConfigError
				return errors.As(err, &cerr) && cerr.Field == "text"
			},
		},
		{
			"bad shape",
			func(o *Options) { o.Shape = "triangle" },
			func(err error) bool {
				var cerr *ConfigError
				return errors.As(err, &cerr)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Size = 128
			opts.Margin = 8
			opts.Output = filepath.Join(dir, tt.name+".png")
			tt.modify(&opts)

			_, err := Build(f, opts)
			if err == nil || !tt.check(err) {
				t.Fatalf("Build() error = %v", err)
			}
			if _, statErr := os.Stat(opts.Output); !os.IsNotExist(statErr) {
				t.Errorf("output exists after failed build: %v", statErr)
			}
		})
	}
}

func TestBuildSquareScenario(t *testing.T) {
	f := loadTestFont(t, goregular.TTF)
	opts := DefaultOptions()
	opts.Shape = ShapeSquare
	opts.Size = 512
	opts.Text = "A"
	opts.Background = color.NRGBA{A: 0xFF}
	opts.Foreground = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	opts.GlowBlur = 0
	opts.Output = filepath.Join(t.TempDir(), "a.png")

	res, err := Build(f, opts)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if res.PixelSize < 64 || res.PixelSize > 358 {
		t.Errorf("PixelSize = %d, want within 64..358", res.PixelSize)
	}

	img, err := imaging.Open(opts.Output)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	nrgba := imaging.Clone(img)
	var white int
	for y := 0; y < 512; y++ {
		for x := 0; x < 512; x++ {
			c := nrgba.NRGBAAt(x, y)
			if c.A != 0xFF {
				t.Fatalf("pixel (%d,%d) alpha = %d, want opaque", x, y, c.A)
			}
			if c.R == 0xFF && c.G == 0xFF && c.B == 0xFF {
				white++
			}
		}
	}
	if white == 0 {
		t.Error("no fully covered text pixels")
	}
	// The glyph stays inside the centered target box.
	for _, p := range []image.Point{{0, 0}, {511, 511}, {256, 10}, {10, 256}} {
		if c := nrgba.NRGBAAt(p.X, p.Y); c.R != 0 {
			t.Errorf("pixel at %v = %v, want background", p, c)
		}
	}
}
