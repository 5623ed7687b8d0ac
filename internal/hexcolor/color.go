// Package hexcolor parses the hex color strings accepted on the command line and
// in preset files.
package hexcolor

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseHex parses a "#RRGGBB" (or bare "RRGGBB") hex color into a
// color.NRGBA carrying the given alpha. Surrounding whitespace is ignored.
func ParseHex(s string, alpha uint8) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: must be 6 hex digits", s)
	}
	var ch [3]uint8
	for i := range ch {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		ch[i] = uint8(v)
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: alpha}, nil
}

// MustParseHex is like [ParseHex] with full alpha but panics on error.
// Intended for package-level defaults.
func MustParseHex(s string) color.NRGBA {
	c, err := ParseHex(s, 255)
	if err != nil {
		panic(err)
	}
	return c
}

// ClampAlpha clamps an integer alpha to [0, 255].
func ClampAlpha(a int) uint8 {
	return uint8(max(0, min(255, a)))
}

// Hex formats c as "#RRGGBB", dropping alpha.
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
