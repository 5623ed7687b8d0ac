// Package fontsrc resolves a font argument to SFNT bytes.
//
// A font argument is either a local file path or a Google Fonts spec of the
// form "google:FAMILY:WEIGHT" (e.g. "google:JetBrains Mono:800"). WOFF and
// WOFF2 data, local or downloaded, is converted to SFNT before it is returned.
// Downloads are cached so later runs work offline.
package fontsrc

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tdewolff/font"

	"tools.zach/dev/avatargen/internal/atomicfile"
	"tools.zach/dev/avatargen/internal/paths"
)

// ///////////////////////////////////////////////
// Errors
// ///////////////////////////////////////////////

// NotFoundError reports a local font path that does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("font not found: %s", e.Path)
}

// ///////////////////////////////////////////////
// HTTP Client
// ///////////////////////////////////////////////

var (
	httpClient     *retryablehttp.Client
	httpClientOnce sync.Once
)

// getHTTPClient returns the shared retryable HTTP client, initializing it on
// first call.
func getHTTPClient() *retryablehttp.Client {
	httpClientOnce.Do(func() {
		httpClient = retryablehttp.NewClient()
		httpClient.RetryMax = 2
		httpClient.HTTPClient.Timeout = 15 * time.Second
		httpClient.Logger = nil // suppress retryablehttp's default logging
	})
	return httpClient
}

// ///////////////////////////////////////////////
// Resolver
// ///////////////////////////////////////////////

// DefaultCSSURL is the Google Fonts CSS API endpoint.
const DefaultCSSURL = "https://fonts.googleapis.com/css2"

// userAgent makes Google serve WOFF2 URLs, which ToSFNT can convert.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"

const (
	maxCSSBytes  = 1 << 20
	maxFontBytes = 10 << 20
)

// fontURLRe extracts the first font file URL from a CSS response, e.g.
// url(https://fonts.gstatic.com/s/inter/v18/xxx.woff2).
var fontURLRe = regexp.MustCompile(`url\((https?://[^)\s]+)\)`)

// Resolver loads fonts from disk or Google Fonts.
type Resolver struct {
	// CacheDir holds downloaded fonts. Empty disables caching.
	CacheDir string
	// CSSURL overrides DefaultCSSURL.
	CSSURL string
	// Client overrides the shared retrying HTTP client.
	Client *retryablehttp.Client
}

// Load returns SFNT bytes for spec. A missing local file yields a
// *NotFoundError.
func (r *Resolver) Load(spec string) ([]byte, error) {
	if family, weight, ok := ParseGoogleSpec(spec); ok {
		return r.fetchGoogle(family, weight)
	}

	data, err := os.ReadFile(spec)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: spec}
		}
		return nil, fmt.Errorf("read font %s: %w", spec, err)
	}
	slog.Debug("font loaded", "path", spec, "bytes", len(data))
	return toSFNT(spec, data)
}

// ParseGoogleSpec splits "google:FAMILY:WEIGHT". Both parts must be
// non-empty and the weight numeric.
func ParseGoogleSpec(spec string) (family, weight string, ok bool) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 || parts[0] != "google" {
		return "", "", false
	}
	family, weight = strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
	if family == "" || weight == "" || strings.Trim(weight, "0123456789") != "" {
		return "", "", false
	}
	return family, weight, true
}

func (r *Resolver) fetchGoogle(family, weight string) ([]byte, error) {
	var cacheFile string
	if r.CacheDir != "" {
		cacheFile = paths.FontCache{Root: r.CacheDir}.Google(family, weight)
		if data, err := os.ReadFile(cacheFile); err == nil {
			slog.Debug("font cache hit", "path", cacheFile)
			return data, nil
		}
	}

	base := r.CSSURL
	if base == "" {
		base = DefaultCSSURL
	}
	cssURL := fmt.Sprintf("%s?family=%s:wght@%s", base, url.QueryEscape(family), weight)

	css, err := r.get(cssURL, maxCSSBytes)
	if err != nil {
		return nil, fmt.Errorf("google fonts css for %s wght@%s: %w", family, weight, err)
	}
	m := fontURLRe.FindSubmatch(css)
	if m == nil {
		return nil, fmt.Errorf("no font URL in google fonts css for %s wght@%s", family, weight)
	}
	fontURL := string(m[1])

	data, err := r.get(fontURL, maxFontBytes)
	if err != nil {
		return nil, fmt.Errorf("download font: %w", err)
	}
	if data, err = toSFNT(fontURL, data); err != nil {
		return nil, err
	}

	if cacheFile != "" {
		if err := atomicfile.Write(cacheFile, data, 0o644); err != nil {
			slog.Warn("failed to cache font", "path", cacheFile, "error", err)
		} else {
			slog.Info("font cached", "family", family, "weight", weight, "path", cacheFile)
		}
	}
	return data, nil
}

// get fetches u with the resolver's client and returns at most limit bytes.
func (r *Resolver) get(u string, limit int64) ([]byte, error) {
	client := r.Client
	if client == nil {
		client = getHTTPClient()
	}

	req, err := retryablehttp.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", u, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", u, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", u, limit)
	}
	return body, nil
}

// ///////////////////////////////////////////////
// Web Font Conversion
// ///////////////////////////////////////////////

// IsWebFont reports whether data is WOFF or WOFF2, by name extension or by
// magic bytes ("wOFF" / "wOF2").
func IsWebFont(name string, data []byte) bool {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".woff") || strings.HasSuffix(lower, ".woff2") {
		return true
	}
	if len(data) >= 4 {
		switch string(data[:4]) {
		case "wOFF", "wOF2":
			return true
		}
	}
	return false
}

// toSFNT converts web fonts and passes anything else through unchanged.
func toSFNT(name string, data []byte) ([]byte, error) {
	if !IsWebFont(name, data) {
		return data, nil
	}
	out, err := font.ToSFNT(data)
	if err != nil {
		return nil, fmt.Errorf("convert %s to sfnt: %w", name, err)
	}
	slog.Debug("converted web font", "name", name, "from", len(data), "to", len(out))
	return out, nil
}
