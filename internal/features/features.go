// Package features parses OpenType feature selections of the form
// "calt=1,liga=0,ss02" into a [Set] and converts them for the shaper.
package features

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/harfbuzz"
)

// Default is the feature selection used when none is given.
const Default = "calt=1,liga=0,ss02=1,zero=1,ss07=1,aalt=1"

// Set maps an OpenType feature tag to its value. A bare tag means 1.
type Set map[string]int

// Parse parses a comma-separated feature spec. Tokens are either "tag" or
// "tag=value"; empty tokens are ignored, so Parse("") returns an empty Set.
// A repeated tag keeps the last value.
func Parse(spec string) (Set, error) {
	set := Set{}
	for _, item := range strings.Split(spec, ",") {
		token := strings.TrimSpace(item)
		if token == "" {
			continue
		}
		tag, raw, hasValue := strings.Cut(token, "=")
		tag = strings.TrimSpace(tag)
		if err := validateTag(tag); err != nil {
			return nil, fmt.Errorf("invalid feature %q: %w", token, err)
		}
		if !hasValue {
			set[tag] = 1
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid feature %q: value must be an integer", token)
		}
		if v < 0 {
			return nil, fmt.Errorf("invalid feature %q: value must be >= 0", token)
		}
		set[tag] = v
	}
	return set, nil
}

// validateTag checks that tag is 1-4 printable ASCII characters.
func validateTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("empty tag")
	}
	if len(tag) > 4 {
		return fmt.Errorf("tag %q longer than 4 characters", tag)
	}
	for i := 0; i < len(tag); i++ {
		if tag[i] < 0x21 || tag[i] > 0x7E {
			return fmt.Errorf("tag %q contains non-printable or non-ASCII characters", tag)
		}
	}
	return nil
}

// Tags returns the feature tags in sorted order.
func (s Set) Tags() []string {
	tags := make([]string, 0, len(s))
	for tag := range s {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// HarfBuzz converts the set into globally-applied shaper features. Short
// tags are padded with spaces as OpenType requires.
func (s Set) HarfBuzz() []harfbuzz.Feature {
	out := make([]harfbuzz.Feature, 0, len(s))
	for _, tag := range s.Tags() {
		padded := tag + strings.Repeat(" ", 4-len(tag))
		out = append(out, harfbuzz.Feature{
			Tag:   ot.NewTag(padded[0], padded[1], padded[2], padded[3]),
			Value: uint32(s[tag]),
			Start: harfbuzz.FeatureGlobalStart,
			End:   harfbuzz.FeatureGlobalEnd,
		})
	}
	return out
}

// String renders the set as "{tag: value, ...}" in tag order.
func (s Set) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, tag := range s.Tags() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %d", tag, s[tag])
	}
	b.WriteByte('}')
	return b.String()
}
