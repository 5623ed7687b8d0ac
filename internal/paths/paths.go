// Package paths centralizes file and directory names used across the project.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ///////////////////////////////////////////////
// Constants
// ///////////////////////////////////////////////

const (
	BinaryName    = "avatargen"
	ConfigFile    = "avatargen.toml"
	FontsDir      = "fonts"
	CachedFontExt = ".ttf"
)

// GoogleFontFile returns the cache file name for a Google Fonts download.
// For example, GoogleFontFile("JetBrains Mono", "800") returns
// "JetBrains_Mono-800.ttf". Characters that are unsafe in file names become
// underscores.
func GoogleFontFile(family, weight string) string {
	return sanitize(family) + "-" + sanitize(weight) + CachedFontExt
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}

// ///////////////////////////////////////////////
// FontCache
// ///////////////////////////////////////////////

// FontCache provides path construction rooted at a font cache directory.
type FontCache struct {
	Root string
}

// Google returns the full path of a cached Google Fonts download.
func (c FontCache) Google(family, weight string) string {
	return filepath.Join(c.Root, GoogleFontFile(family, weight))
}

// DefaultFontCacheDir returns <user cache dir>/avatargen/fonts.
func DefaultFontCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("user cache dir: %w", err)
	}
	return filepath.Join(dir, BinaryName, FontsDir), nil
}
