package config

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// ///////////////////////////////////////////////
// Documentation Types
// ///////////////////////////////////////////////

// FieldDoc holds documentation and alternative examples for a single config field.
type FieldDoc struct {
	// Comment is shown as a header comment above the field in the example config.
	Comment string

	// Alternatives are shown as commented-out lines below the active value.
	Alternatives []string
}

// ///////////////////////////////////////////////
// Field Documentation Map
// ///////////////////////////////////////////////

// ConfigDocs maps TOML field paths (e.g. "defaults.glow_blur") to their
// [FieldDoc] entries. Avatar tables are left unannotated.
var ConfigDocs = map[string]FieldDoc{
	// ── Log ──────────────────────────────────────────────────────
	"log": {
		Comment: "Logging. Logs go to stderr unless file is set.",
	},
	"log.level": {
		Comment:      "Minimum level: trace, debug, info, warn, error, fail",
		Alternatives: []string{`level = "debug"`},
	},
	"log.file": {
		Comment:      "Rotating log file; leave unset to log to stderr",
		Alternatives: []string{`file = "avatargen.log"`},
	},
	"log.max_size_mb": {
		Comment: "Rotate the log file after this many megabytes",
	},

	// ── Defaults ─────────────────────────────────────────────────
	"defaults": {
		Comment: "Inherited by every avatar. Unset keys keep the command-line values.",
	},
	"defaults.font": {
		Comment: "Font file (TTF, OTF, WOFF, WOFF2) or a Google Fonts spec",
		Alternatives: []string{
			`font = "/var/lib/fonts/monolisa/ttf/MonoLisa-Bold.ttf"`,
			`font = "google:JetBrains Mono:800"`,
		},
	},
	"defaults.text": {
		Comment:      "Text to render",
		Alternatives: []string{`text = "{0xB}"`},
	},
	"defaults.output": {
		Comment: "output is never inherited; set it in each [avatars.<name>] table",
	},
	"defaults.features": {
		Comment:      "OpenType features: tag=value or a bare tag (means 1), comma separated",
		Alternatives: []string{`features = ""  # no features`},
	},
	"defaults.shape": {
		Comment:      "Background shape",
		Alternatives: []string{`shape = "square"`},
	},
	"defaults.size": {
		Comment: "Canvas width and height in pixels",
	},
	"defaults.margin": {
		Comment: "Circle inset from the canvas edge (ignored for squares)",
	},
	"defaults.fit_width_ratio": {
		Comment: "Largest text box allowed, as a fraction of size",
	},
	"defaults.fit_height_ratio": {},
	"defaults.bg": {
		Comment: "Hex colors (#RRGGBB)",
	},
	"defaults.fg":   {},
	"defaults.glow": {},
	"defaults.glow_alpha": {
		Comment: "Glow opacity, clamped to 0-255",
	},
	"defaults.glow_blur": {
		Comment:      "Glow blur radius in pixels; 0 disables the glow",
		Alternatives: []string{"glow_blur = 0.0"},
	},

	// ── Avatars ──────────────────────────────────────────────────
	"avatars": {
		Comment: "One table per avatar. Render a subset with --only '<glob>'.",
	},
}

// docFor looks up the documentation for key in section.
func docFor(section []string, key string) (FieldDoc, bool) {
	doc, ok := ConfigDocs[strings.Join(append(slices.Clone(section), key), ".")]
	return doc, ok
}

// ///////////////////////////////////////////////
// Annotated Output
// ///////////////////////////////////////////////

// Annotated encodes c as TOML with [ConfigDocs] comments injected. Documented
// [log] and [defaults] keys that the encoder omitted are listed as comments
// so every option appears in the file.
func (c *Config) Annotated() ([]byte, error) {
	var raw bytes.Buffer
	if err := toml.NewEncoder(&raw).Encode(c); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}

	out := []string{
		"# ///////////////////////////////////////////////",
		"# avatargen presets",
		"# ///////////////////////////////////////////////",
	}
	comment := func(text string) {
		for _, cl := range strings.Split(text, "\n") {
			out = append(out, "# "+cl)
		}
	}

	var section []string
	emitted := map[string]bool{}
	firstAvatar := true

	for _, line := range strings.Split(raw.String(), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "[") {
			injectOmitted(&out, section, emitted)
			name := strings.Trim(trimmed, "[] ")
			section = strings.Split(name, ".")

			out = append(out, "")
			switch {
			case section[0] == "avatars" && firstAvatar:
				firstAvatar = false
				out = append(out, "# ///// Avatars /////", "")
				comment(ConfigDocs["avatars"].Comment)
			case section[0] != "avatars":
				out = append(out, fmt.Sprintf("# ///// %s /////", sectionTitle(name)), "")
				if doc, ok := ConfigDocs[name]; ok && doc.Comment != "" {
					comment(doc.Comment)
				}
			}
			out = append(out, trimmed)
			continue
		}

		key := strings.TrimSpace(strings.SplitN(trimmed, "=", 2)[0])
		doc, ok := docFor(section, key)
		emitted[strings.Join(append(slices.Clone(section), key), ".")] = true
		if !ok {
			out = append(out, trimmed)
			continue
		}
		if doc.Comment != "" {
			comment(doc.Comment)
		}
		out = append(out, trimmed)
		for _, alt := range doc.Alternatives {
			out = append(out, "# "+alt)
		}
	}
	injectOmitted(&out, section, emitted)

	return []byte(strings.Join(out, "\n") + "\n"), nil
}

// injectOmitted appends commented-out entries for documented keys of the
// current section that the encoder skipped (nil pointers and empty strings).
// Keys are sorted for deterministic output.
func injectOmitted(out *[]string, section []string, emitted map[string]bool) {
	if len(section) != 1 || section[0] == "avatars" {
		return
	}
	prefix := section[0] + "."

	var omitted []string
	for path := range ConfigDocs {
		if strings.HasPrefix(path, prefix) && !emitted[path] {
			omitted = append(omitted, path)
		}
	}
	slices.Sort(omitted)

	for _, path := range omitted {
		doc := ConfigDocs[path]
		if doc.Comment == "" && len(doc.Alternatives) == 0 {
			continue
		}
		*out = append(*out, "")
		if doc.Comment != "" {
			for _, cl := range strings.Split(doc.Comment, "\n") {
				*out = append(*out, "# "+cl)
			}
		}
		for _, alt := range doc.Alternatives {
			*out = append(*out, "# "+alt)
		}
		emitted[path] = true
	}
}

// sectionTitle capitalizes the last segment of a section name.
func sectionTitle(section string) string {
	parts := strings.Split(section, ".")
	last := parts[len(parts)-1]
	if last == "" {
		return ""
	}
	return strings.ToUpper(last[:1]) + last[1:]
}
