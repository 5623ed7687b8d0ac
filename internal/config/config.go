// Package config loads TOML preset files for batch avatar rendering.
//
// A preset file names any number of avatars under [avatars.<name>]. Each
// avatar inherits from [defaults], which in turn inherits from the values
// given on the command line. Numeric fields are pointers so that an explicit
// zero (glow_blur = 0.0) overrides an inherited non-zero value.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"

	"tools.zach/dev/avatargen/internal/atomicfile"
	"tools.zach/dev/avatargen/internal/features"
	"tools.zach/dev/avatargen/internal/hexcolor"
	"tools.zach/dev/avatargen/internal/logger"
	"tools.zach/dev/avatargen/internal/render"
)

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents a preset file.
type Config struct {
	// Log holds logging settings.
	Log LogConfig `toml:"log"`
	// Defaults is inherited by every avatar.
	Defaults Preset `toml:"defaults"`
	// Avatars maps preset names to their overrides.
	Avatars map[string]Preset `toml:"avatars"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error, fail).
	Level string `toml:"level"`
	// File sends logs to a rotating file instead of stderr.
	File string `toml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
}

// Preset describes one avatar. Empty strings and nil pointers mean "inherit".
type Preset struct {
	// Font is a local path or a google:FAMILY:WEIGHT spec.
	Font string `toml:"font,omitempty"`
	// Text is the string to render.
	Text string `toml:"text,omitempty"`
	// Output is the image path; its extension selects the format.
	Output string `toml:"output,omitempty"`
	// Features is an OpenType feature spec. An explicit "" disables all.
	Features *string `toml:"features,omitempty"`
	// Shape is "circle" or "square".
	Shape string `toml:"shape,omitempty"`
	// Size is the canvas side in pixels.
	Size *int `toml:"size,omitempty"`
	// Margin insets the circle.
	Margin *int `toml:"margin,omitempty"`
	// FitWidthRatio bounds the text width as a fraction of Size.
	FitWidthRatio *float64 `toml:"fit_width_ratio,omitempty"`
	// FitHeightRatio bounds the text height as a fraction of Size.
	FitHeightRatio *float64 `toml:"fit_height_ratio,omitempty"`
	// BG, FG and Glow are hex colors.
	BG   string `toml:"bg,omitempty"`
	FG   string `toml:"fg,omitempty"`
	Glow string `toml:"glow,omitempty"`
	// GlowAlpha is clamped to 0..255.
	GlowAlpha *int `toml:"glow_alpha,omitempty"`
	// GlowBlur is the halo radius; 0 disables the glow.
	GlowBlur *float64 `toml:"glow_blur,omitempty"`
}

// ///////////////////////////////////////////////
// Defaults
// ///////////////////////////////////////////////

// DefaultConfig returns a Config with default log settings and no avatars.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:     "warn",
			MaxSizeMB: 10,
		},
		Avatars: map[string]Preset{},
	}
}

// ExampleConfig returns the preset file written by --init-config. Its
// [defaults] table spells out the built-in render defaults.
func ExampleConfig() *Config {
	def := render.DefaultOptions()
	cfg := DefaultConfig()
	cfg.Defaults = Preset{
		Features:       ptr(features.Default),
		Shape:          string(def.Shape),
		Size:           ptr(def.Size),
		Margin:         ptr(def.Margin),
		FitWidthRatio:  ptr(def.FitWidthRatio),
		FitHeightRatio: ptr(def.FitHeightRatio),
		BG:             hexcolor.Hex(def.Background),
		FG:             hexcolor.Hex(def.Foreground),
		Glow:           hexcolor.Hex(def.Glow),
		GlowAlpha:      ptr(int(def.Glow.A)),
		GlowBlur:       ptr(def.GlowBlur),
	}
	cfg.Avatars["nord"] = Preset{Text: "{0xB}", Output: "out/avatar-0xB-nord.png"}
	cfg.Avatars["snow"] = Preset{
		Text:     "{0xB}",
		Output:   "out/avatar-0xB-snow.png",
		BG:       "#ECEFF4",
		FG:       "#2E3440",
		GlowBlur: ptr(0.0),
	}
	cfg.Avatars["nord-square"] = Preset{
		Text:   "{0xB}",
		Output: "out/avatar-0xB-nord-square.png",
		Shape:  string(render.ShapeSquare),
	}
	return cfg
}

func ptr[T any](v T) *T { return &v }

// ///////////////////////////////////////////////
// Loading and Saving
// ///////////////////////////////////////////////

// Load reads, parses and validates the preset file at path. Unlike an
// implicit config, a missing file is an error because it was asked for.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parse config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk as annotated TOML using atomic file write.
func (c *Config) Save(path string) error {
	data, err := c.Annotated()
	if err != nil {
		return err
	}
	return atomicfile.Write(path, data, 0o644)
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// Validate checks file-level settings. Per-avatar rendering options are
// checked by render.Options.Validate once inheritance has been applied.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	if c.Log.MaxSizeMB < 0 {
		return fmt.Errorf("log.max_size_mb must be >= 0, got %d", c.Log.MaxSizeMB)
	}
	if len(c.Avatars) == 0 {
		return fmt.Errorf("no avatars defined: add at least one [avatars.<name>] table")
	}
	if c.Defaults.Output != "" {
		return fmt.Errorf("defaults.output is not allowed: every avatar needs its own output")
	}
	for _, name := range c.Names() {
		a := c.Avatars[name]
		if strings.TrimSpace(a.Output) == "" {
			return fmt.Errorf("avatar %q: output is required", name)
		}
		if err := validateShape(a.Shape); err != nil {
			return fmt.Errorf("avatar %q: %w", name, err)
		}
	}
	return validateShape(c.Defaults.Shape)
}

func validateShape(shape string) error {
	switch render.Shape(shape) {
	case "", render.ShapeCircle, render.ShapeSquare:
		return nil
	default:
		return fmt.Errorf("invalid shape %q: must be circle or square", shape)
	}
}

// ///////////////////////////////////////////////
// Selection and Inheritance
// ///////////////////////////////////////////////

// Names returns the avatar names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Avatars))
	for name := range c.Avatars {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Select returns the sorted avatar names matching a doublestar pattern such
// as "nord*" or "{nord,snow}". An empty pattern selects everything. Matching
// nothing is an error.
func (c *Config) Select(pattern string) ([]string, error) {
	if pattern == "" {
		return c.Names(), nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid --only pattern %q", pattern)
	}
	var out []string
	for _, name := range c.Names() {
		if ok, _ := doublestar.Match(pattern, name); ok {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no avatars match %q (have: %s)", pattern, strings.Join(c.Names(), ", "))
	}
	return out, nil
}

// Resolve returns the effective preset for name with all inheritance
// applied: base -> [defaults] -> [avatars.name].
func (c *Config) Resolve(name string, base Preset) Preset {
	p := base
	mergePreset(&p, c.Defaults)
	if a, ok := c.Avatars[name]; ok {
		mergePreset(&p, a)
	}
	return p
}

// mergePreset copies every set field of src over dst.
func mergePreset(dst *Preset, src Preset) {
	mergeString(&dst.Font, src.Font)
	mergeString(&dst.Text, src.Text)
	mergeString(&dst.Output, src.Output)
	mergeString(&dst.Shape, src.Shape)
	mergeString(&dst.BG, src.BG)
	mergeString(&dst.FG, src.FG)
	mergeString(&dst.Glow, src.Glow)
	mergePtr(&dst.Features, src.Features)
	mergePtr(&dst.Size, src.Size)
	mergePtr(&dst.Margin, src.Margin)
	mergePtr(&dst.FitWidthRatio, src.FitWidthRatio)
	mergePtr(&dst.FitHeightRatio, src.FitHeightRatio)
	mergePtr(&dst.GlowAlpha, src.GlowAlpha)
	mergePtr(&dst.GlowBlur, src.GlowBlur)
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func mergePtr[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

// ///////////////////////////////////////////////
// Conversion
// ///////////////////////////////////////////////

// Options converts a fully resolved preset into render options. Colors and
// features are parsed here; the rest is checked by render.Options.Validate.
// Unset fields take render.DefaultOptions values.
func (p Preset) Options() (render.Options, error) {
	opts := render.DefaultOptions()
	if p.Text != "" {
		opts.Text = p.Text
	}
	if p.Output != "" {
		opts.Output = p.Output
	}
	if p.Shape != "" {
		opts.Shape = render.Shape(p.Shape)
	}
	if p.Features != nil {
		feats, err := features.Parse(*p.Features)
		if err != nil {
			return render.Options{}, err
		}
		opts.Features = feats
	}
	setIf(&opts.Size, p.Size)
	setIf(&opts.Margin, p.Margin)
	setIf(&opts.FitWidthRatio, p.FitWidthRatio)
	setIf(&opts.FitHeightRatio, p.FitHeightRatio)
	setIf(&opts.GlowBlur, p.GlowBlur)

	var err error
	if p.BG != "" {
		if opts.Background, err = hexcolor.ParseHex(p.BG, 255); err != nil {
			return render.Options{}, fmt.Errorf("bg: %w", err)
		}
	}
	if p.FG != "" {
		if opts.Foreground, err = hexcolor.ParseHex(p.FG, 255); err != nil {
			return render.Options{}, fmt.Errorf("fg: %w", err)
		}
	}
	alpha := opts.Glow.A
	if p.GlowAlpha != nil {
		alpha = hexcolor.ClampAlpha(*p.GlowAlpha)
	}
	if p.Glow != "" {
		if opts.Glow, err = hexcolor.ParseHex(p.Glow, alpha); err != nil {
			return render.Options{}, fmt.Errorf("glow: %w", err)
		}
	}
	opts.Glow.A = alpha
	return opts, nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
