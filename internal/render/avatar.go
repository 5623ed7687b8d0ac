// Package render turns a short text string into an avatar image: it shapes
// the text with OpenType features, searches for the largest pixel size that
// fits the canvas, rasterizes the glyphs into a mask and composites the mask
// over a circle or square background with an optional glow.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"log/slog"

	"github.com/disintegration/imaging"
	"golang.org/x/image/vector"

	"tools.zach/dev/avatargen/internal/atomicfile"
	"tools.zach/dev/avatargen/internal/features"
	"tools.zach/dev/avatargen/internal/hexcolor"
)

// ///////////////////////////////////////////////
// Options
// ///////////////////////////////////////////////

// Shape is the background shape of the avatar.
type Shape string

const (
	ShapeCircle Shape = "circle"
	ShapeSquare Shape = "square"
)

// Options controls a single avatar render.
type Options struct {
	// Output is the destination path; its extension selects the encoder.
	Output string
	// Text is the string to render, e.g. "{0xB}".
	Text string
	// Features are applied to the whole string during shaping.
	Features features.Set
	// Shape selects the background.
	Shape Shape
	// Size is the canvas width and height in pixels.
	Size int
	// Margin insets the circle from the canvas edge. Ignored for squares.
	Margin int
	// FitWidthRatio and FitHeightRatio bound the text box as a fraction of Size.
	FitWidthRatio  float64
	FitHeightRatio float64
	// Background fills the shape.
	Background color.NRGBA
	// Foreground colors the text.
	Foreground color.NRGBA
	// Glow colors the blurred halo under the text; alpha 0 disables it.
	Glow color.NRGBA
	// GlowBlur is the Gaussian sigma of the halo in pixels; 0 disables it.
	GlowBlur float64
}

// DefaultOptions returns the command-line defaults.
func DefaultOptions() Options {
	feats, _ := features.Parse(features.Default)
	return Options{
		Output:         "avatar-0xB-nord.png",
		Text:           "{0xB}",
		Features:       feats,
		Shape:          ShapeCircle,
		Size:           1024,
		Margin:         72,
		FitWidthRatio:  0.72,
		FitHeightRatio: 0.36,
		Background:     hexcolor.MustParseHex("#2E3440"),
		Foreground:     hexcolor.MustParseHex("#88C0D0"),
		Glow:           color.NRGBA{R: 0x5E, G: 0x81, B: 0xAC, A: 190},
		GlowBlur:       8,
	}
}

// ConfigError reports an invalid option.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Validate checks the options before any rendering work happens.
func (o Options) Validate() error {
	switch {
	case o.Text == "":
		return &ConfigError{"text", o.Text, "must not be empty"}
	case o.Shape != ShapeCircle && o.Shape != ShapeSquare:
		return &ConfigError{"shape", string(o.Shape), "must be circle or square"}
	case o.Size <= 0:
		return &ConfigError{"size", fmt.Sprint(o.Size), "must be positive"}
	case o.Shape == ShapeCircle && (o.Margin < 0 || 2*o.Margin >= o.Size):
		return &ConfigError{"margin", fmt.Sprint(o.Margin), "must be >= 0 and less than half the size"}
	case o.FitWidthRatio <= 0:
		return &ConfigError{"fit-width-ratio", fmt.Sprint(o.FitWidthRatio), "must be positive"}
	case o.FitHeightRatio <= 0:
		return &ConfigError{"fit-height-ratio", fmt.Sprint(o.FitHeightRatio), "must be positive"}
	case o.GlowBlur < 0:
		return &ConfigError{"glow-blur", fmt.Sprint(o.GlowBlur), "must be >= 0"}
	}
	if _, err := imaging.FormatFromFilename(o.Output); err != nil {
		return &ConfigError{"output", o.Output, "unsupported image format"}
	}
	return nil
}

// ///////////////////////////////////////////////
// Build
// ///////////////////////////////////////////////

// Result summarizes a written avatar.
type Result struct {
	Output     string
	PixelSize  int
	GlyphNames []string
	Fallback   bool
}

// Build validates opts, fits the text, composes the avatar and writes it to
// opts.Output atomically. Nothing is written on error.
func Build(face Face, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	fitted, err := Fit(face, face, opts)
	if err != nil {
		return Result{}, fmt.Errorf("fit text: %w", err)
	}

	mask := TextMask(fitted.Box, fitted.Placements)
	img := Compose(opts, mask)

	var buf bytes.Buffer
	if err := Encode(&buf, img, opts.Output); err != nil {
		return Result{}, err
	}
	if err := atomicfile.Write(opts.Output, buf.Bytes(), 0o644); err != nil {
		return Result{}, fmt.Errorf("write %s: %w", opts.Output, err)
	}

	slog.Info("avatar written",
		"output", opts.Output,
		"px", fitted.PixelSize,
		"glyphs", len(fitted.GlyphNames),
		"fallback", fitted.Fallback,
	)
	return Result{
		Output:     opts.Output,
		PixelSize:  fitted.PixelSize,
		GlyphNames: fitted.GlyphNames,
		Fallback:   fitted.Fallback,
	}, nil
}

// Encode writes img in the format implied by path's extension.
func Encode(w io.Writer, img image.Image, path string) error {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return fmt.Errorf("output format for %s: %w", path, err)
	}
	if err := imaging.Encode(w, img, format); err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	return nil
}

// ///////////////////////////////////////////////
// Compositing
// ///////////////////////////////////////////////

// Compose draws the avatar: a transparent canvas, the background shape, the
// glow (when enabled) and then the text mask centered on the canvas. Text
// larger than the canvas is clipped.
func Compose(opts Options, mask *image.Alpha) *image.RGBA {
	size := opts.Size
	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	bg := image.NewUniform(opts.Background)

	switch opts.Shape {
	case ShapeCircle:
		inset := float32(opts.Margin)
		disc := ellipseMask(size, inset, inset, float32(size)-inset, float32(size)-inset)
		draw.DrawMask(canvas, canvas.Bounds(), bg, image.Point{}, disc, image.Point{}, draw.Over)
	default:
		draw.Draw(canvas, canvas.Bounds(), bg, image.Point{}, draw.Src)
	}

	mb := mask.Bounds()
	at := image.Pt(floorDiv(size-mb.Dx(), 2), floorDiv(size-mb.Dy(), 2))
	dst := image.Rectangle{Min: at, Max: at.Add(mb.Size())}

	if opts.GlowBlur > 0 && opts.Glow.A > 0 {
		halo := imaging.Blur(mask, opts.GlowBlur)
		draw.DrawMask(canvas, dst, image.NewUniform(opts.Glow), image.Point{}, halo, halo.Bounds().Min, draw.Over)
	}
	draw.DrawMask(canvas, dst, image.NewUniform(opts.Foreground), image.Point{}, mask, mb.Min, draw.Over)
	return canvas
}

// kappa places cubic control points for a quarter-ellipse approximation.
const kappa = 0.5522847498307936

// ellipseMask returns a size x size anti-aliased mask of the ellipse
// inscribed in the box (x0, y0)-(x1, y1).
func ellipseMask(size int, x0, y0, x1, y1 float32) *image.Alpha {
	cx, cy := (x0+x1)/2, (y0+y1)/2
	rx, ry := (x1-x0)/2, (y1-y0)/2
	kx, ky := rx*kappa, ry*kappa

	r := vector.NewRasterizer(size, size)
	r.MoveTo(cx+rx, cy)
	r.CubeTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
	r.CubeTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
	r.CubeTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
	r.CubeTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	r.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, size, size))
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// floorDiv divides rounding toward negative infinity so oversized text stays
// centered.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
