package render

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/text/unicode/norm"

	"tools.zach/dev/avatargen/internal/logger"
)

// FallbackPixelSize is used when no candidate size fits the target box.
const FallbackPixelSize = 220

// Candidates returns the pixel sizes tried for a canvas of the given size, in
// descending order. The range always starts at 220 or above, bottoms out at
// 64 or above, and steps by at least 2.
func Candidates(size int) []int {
	maxPx := max(220, int(float64(size)*0.70))
	minPx := max(64, int(float64(size)*0.08))
	step := max(2, int(float64(size)/170))

	var out []int
	for px := maxPx; px >= minPx; px -= step {
		out = append(out, px)
	}
	return out
}

// Fitted is the outcome of [Fit].
type Fitted struct {
	Run
	// Fallback is set when no candidate fit and FallbackPixelSize was used.
	Fallback bool
	// Attempts is the number of candidate sizes measured.
	Attempts int
}

// Fit picks the largest candidate pixel size whose text bounds fit within
// FitWidthRatio and FitHeightRatio of opts.Size. The text is NFC-normalized
// before shaping. Sizes where nothing is drawable are skipped. If nothing
// fits, the run is measured at FallbackPixelSize and used even when it
// overflows the canvas; ErrNoDrawableGlyphs is returned only if that run is
// empty too.
func Fit(sh Shaper, rz Rasterizer, opts Options) (Fitted, error) {
	text := norm.NFC.String(opts.Text)
	maxW := float64(opts.Size) * opts.FitWidthRatio
	maxH := float64(opts.Size) * opts.FitHeightRatio

	attempts := 0
	for _, px := range Candidates(opts.Size) {
		attempts++
		run, err := Measure(sh, rz, text, opts.Features, px)
		if errors.Is(err, ErrNoDrawableGlyphs) {
			logger.Trace(slog.Default(), "fit candidate empty", "px", px)
			continue
		}
		if err != nil {
			return Fitted{}, err
		}
		logger.Trace(slog.Default(), "fit candidate",
			"px", px, "width", run.Box.Width(), "height", run.Box.Height())
		if run.Box.Width() <= maxW && run.Box.Height() <= maxH {
			slog.Debug("text fits", "px", px, "attempts", attempts)
			return Fitted{Run: run, Attempts: attempts}, nil
		}
	}

	slog.Warn("no candidate size fits, using fallback",
		"px", FallbackPixelSize, "size", opts.Size, "attempts", attempts)
	run, err := Measure(sh, rz, text, opts.Features, FallbackPixelSize)
	if err != nil {
		return Fitted{}, fmt.Errorf("text %q: %w", text, err)
	}
	return Fitted{Run: run, Fallback: true, Attempts: attempts}, nil
}
