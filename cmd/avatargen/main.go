// Package main implements avatargen, which renders a short string such as
// "{0xB}" into a circle or square avatar image.
//
// Without --config a single avatar is built from the flags. With --config
// every preset in the TOML file is rendered, each inheriting from the flags
// and the file's [defaults] table.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"

	"tools.zach/dev/avatargen/internal/config"
	"tools.zach/dev/avatargen/internal/features"
	"tools.zach/dev/avatargen/internal/fontsrc"
	"tools.zach/dev/avatargen/internal/logger"
	"tools.zach/dev/avatargen/internal/paths"
	"tools.zach/dev/avatargen/internal/render"
)

// ///////////////////////////////////////////////
// Version
// ///////////////////////////////////////////////

// version is set at build time via ldflags (-X main.version=0.1.0). Bare
// go builds fall back to the VCS info embedded by the toolchain.
var version = "dev"

// resolveVersion returns [version] when it was set via ldflags, otherwise a
// "dev+<hash>" tag built from the embedded VCS revision.
func resolveVersion() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	hash := revision[:min(7, len(revision))]
	if dirty {
		return "dev+" + hash + ".dirty"
	}
	return "dev+" + hash
}

// ///////////////////////////////////////////////
// Flags
// ///////////////////////////////////////////////

// DefaultFont is the font used when --font is not given.
const DefaultFont = "/var/lib/fonts/monolisa/ttf/MonoLisa-Bold.ttf"

// cliFlags holds everything parsed from the command line.
type cliFlags struct {
	base config.Preset

	configPath string
	initConfig bool
	only       string
	fontCache  string
	logLevel   string
	logFile    string
	version    bool

	// set records which flags were given explicitly.
	set map[string]bool
}

// parseFlags parses args into cliFlags. The avatar flags become the base
// preset that [config.Config.Resolve] layers presets over.
func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	def := render.DefaultOptions()
	fs := flag.NewFlagSet(paths.BinaryName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		font        = fs.String("font", DefaultFont, "font file (TTF, OTF, WOFF, WOFF2) or google:FAMILY:WEIGHT")
		output      = fs.String("output", def.Output, "output image path (.png, .jpg, .gif, .tif, .bmp)")
		text        = fs.String("text", def.Text, "text to render")
		feats       = fs.String("features", features.Default, "OpenType features, e.g. calt=1,liga=0,ss02")
		shape       = fs.String("shape", string(def.Shape), "background shape: circle or square")
		size        = fs.Int("size", def.Size, "canvas side in pixels")
		margin      = fs.Int("margin", def.Margin, "circle inset from the canvas edge")
		widthRatio  = fs.Float64("fit-width-ratio", def.FitWidthRatio, "target text width as a fraction of size")
		heightRatio = fs.Float64("fit-height-ratio", def.FitHeightRatio, "target text height as a fraction of size")
		bg          = fs.String("bg", "#2E3440", "background color (#RRGGBB)")
		fg          = fs.String("fg", "#88C0D0", "text color (#RRGGBB)")
		glow        = fs.String("glow", "#5E81AC", "glow color (#RRGGBB)")
		glowAlpha   = fs.Int("glow-alpha", int(def.Glow.A), "glow alpha, clamped to 0-255")
		glowBlur    = fs.Float64("glow-blur", def.GlowBlur, "glow blur radius in pixels; 0 disables the glow")
	)

	c := &cliFlags{set: map[string]bool{}}
	fs.StringVar(&c.configPath, "config", "", "TOML preset file; renders every preset instead of the flag-defined avatar")
	fs.BoolVar(&c.initConfig, "init-config", false, "write an annotated example preset file to --config (default "+paths.ConfigFile+") and exit")
	fs.StringVar(&c.only, "only", "", "glob selecting preset names, e.g. 'nord*' (with --config)")
	fs.StringVar(&c.fontCache, "font-cache", "", "cache directory for downloaded fonts (default <user cache dir>/avatargen/fonts)")
	fs.StringVar(&c.logLevel, "log-level", "warn", "log level: trace, debug, info, warn, error, fail")
	fs.StringVar(&c.logFile, "log-file", "", "write logs to a rotating file instead of stderr")
	fs.BoolVar(&c.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	fs.Visit(func(f *flag.Flag) { c.set[f.Name] = true })

	c.base = config.Preset{
		Font:           *font,
		Text:           *text,
		Output:         *output,
		Features:       feats,
		Shape:          *shape,
		Size:           size,
		Margin:         margin,
		FitWidthRatio:  widthRatio,
		FitHeightRatio: heightRatio,
		BG:             *bg,
		FG:             *fg,
		Glow:           *glow,
		GlowAlpha:      glowAlpha,
		GlowBlur:       glowBlur,
	}
	return c, nil
}

// ///////////////////////////////////////////////
// Jobs
// ///////////////////////////////////////////////

// job is one avatar ready to render.
type job struct {
	// name is the preset name; empty in single-avatar mode.
	name string
	font string
	opts render.Options
}

// planJobs resolves and validates every avatar before anything is rendered
// so a bad preset fails the run without leaving partial output behind.
func planJobs(c *cliFlags, cfg *config.Config) ([]job, error) {
	if cfg == nil {
		opts, err := c.base.Options()
		if err != nil {
			return nil, err
		}
		if err := opts.Validate(); err != nil {
			return nil, err
		}
		return []job{{font: c.base.Font, opts: opts}}, nil
	}

	names, err := cfg.Select(c.only)
	if err != nil {
		return nil, err
	}
	jobs := make([]job, 0, len(names))
	for _, name := range names {
		p := cfg.Resolve(name, c.base)
		opts, err := p.Options()
		if err != nil {
			return nil, fmt.Errorf("avatar %q: %w", name, err)
		}
		if err := opts.Validate(); err != nil {
			return nil, fmt.Errorf("avatar %q: %w", name, err)
		}
		jobs = append(jobs, job{name: name, font: p.Font, opts: opts})
	}
	return jobs, nil
}

// loadFaces loads each distinct font named by jobs once.
func loadFaces(resolver *fontsrc.Resolver, jobs []job) (map[string]*render.Font, error) {
	faces := make(map[string]*render.Font)
	for _, j := range jobs {
		if _, ok := faces[j.font]; ok {
			continue
		}
		data, err := resolver.Load(j.font)
		if err != nil {
			return nil, err
		}
		face, err := render.LoadFont(data)
		if err != nil {
			return nil, fmt.Errorf("load font %s: %w", j.font, err)
		}
		slog.Debug("font ready", "font", j.font, "glyphs", face.NumGlyphs(), "upem", face.UnitsPerEm())
		faces[j.font] = face
	}
	return faces, nil
}

// printResult writes the summary block for one rendered avatar.
func printResult(w io.Writer, j job, res render.Result) {
	if j.name != "" {
		fmt.Fprintf(w, "[%s]\n", j.name)
	}
	fmt.Fprintf(w, "wrote: %s\n", res.Output)
	fmt.Fprintf(w, "font_px: %d\n", res.PixelSize)
	fmt.Fprintf(w, "features: %s\n", j.opts.Features)
	fmt.Fprintf(w, "glyphs: [%s]\n", strings.Join(res.GlyphNames, ", "))
}

// ///////////////////////////////////////////////
// Main
// ///////////////////////////////////////////////

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	c, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "fatal: %v\n", err)
		return 2
	}
	if c.version {
		fmt.Fprintf(stdout, "%s %s\n", paths.BinaryName, resolveVersion())
		return 0
	}
	if c.initConfig {
		path := c.configPath
		if path == "" {
			path = paths.ConfigFile
		}
		return initConfig(path, stdout, stderr)
	}

	var cfg *config.Config
	if c.configPath != "" {
		if cfg, err = config.Load(c.configPath); err != nil {
			fmt.Fprintf(stderr, "fatal: %v\n", err)
			return 1
		}
	} else if c.only != "" {
		fmt.Fprintln(stderr, "fatal: --only requires --config")
		return 2
	}

	closer, err := setupLogging(c, cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "fatal: init logger: %v\n", err)
		return 1
	}
	defer closer.Close()

	if err := renderAll(c, cfg, stdout); err != nil {
		logger.Fail(slog.Default(), "render failed", "error", err)
		fmt.Fprintf(stderr, "fatal: %v\n", err)
		return 1
	}
	return 0
}

// setupLogging applies the [log] table of a preset file, with explicit
// --log-level and --log-file flags taking precedence.
func setupLogging(c *cliFlags, cfg *config.Config, stderr io.Writer) (io.Closer, error) {
	level, file, maxSize := c.logLevel, c.logFile, config.DefaultConfig().Log.MaxSizeMB
	if cfg != nil {
		if !c.set["log-level"] {
			level = cfg.Log.Level
		}
		if !c.set["log-file"] {
			file = cfg.Log.File
		}
		maxSize = cfg.Log.MaxSizeMB
	}
	_, closer, err := logger.Setup(level, file, stderr, maxSize)
	return closer, err
}

// renderAll plans, loads fonts for, and renders every avatar in order.
func renderAll(c *cliFlags, cfg *config.Config, stdout io.Writer) error {
	jobs, err := planJobs(c, cfg)
	if err != nil {
		return err
	}

	cacheDir := c.fontCache
	if cacheDir == "" {
		if cacheDir, err = paths.DefaultFontCacheDir(); err != nil {
			slog.Warn("font cache disabled", "error", err)
		}
	}
	faces, err := loadFaces(&fontsrc.Resolver{CacheDir: cacheDir}, jobs)
	if err != nil {
		return err
	}

	for _, j := range jobs {
		res, err := render.Build(faces[j.font], j.opts)
		if err != nil {
			if j.name != "" {
				return fmt.Errorf("avatar %q: %w", j.name, err)
			}
			return err
		}
		printResult(stdout, j, res)
	}
	return nil
}

// initConfig writes the annotated example preset file. An existing file is
// never overwritten.
func initConfig(path string, stdout, stderr io.Writer) int {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(stderr, "fatal: %s already exists\n", path)
		return 1
	}
	if err := config.ExampleConfig().Save(path); err != nil {
		fmt.Fprintf(stderr, "fatal: write %s: %v\n", path, err)
		return 1
	}
	fmt.Fprintf(stdout, "wrote: %s\n", path)
	return 0
}
