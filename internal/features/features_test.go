package features

import (
	"reflect"
	"testing"

	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/harfbuzz"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want Set
	}{
		{"empty", "", Set{}},
		{"only commas", ",,, ,", Set{}},
		{"bare tag", "liga", Set{"liga": 1}},
		{"explicit values", "calt=1,liga=0", Set{"calt": 1, "liga": 0}},
		{"whitespace", " ss02 = 1 , zero ", Set{"ss02": 1, "zero": 1}},
		{"consecutive commas", "calt,,liga=0", Set{"calt": 1, "liga": 0}},
		{"last wins", "liga=1,liga=0", Set{"liga": 0}},
		{"alternate index", "aalt=3", Set{"aalt": 3}},
		{
			"default spec",
			Default,
			Set{"calt": 1, "liga": 0, "ss02": 1, "zero": 1, "ss07": 1, "aalt": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.spec)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.spec, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	invalid := []string{
		"liga=on",
		"calt=1.5",
		"=1",
		"toolong=1",
		"ss01=-1",
		"li\tga",
	}
	for _, spec := range invalid {
		if _, err := Parse(spec); err == nil {
			t.Errorf("Parse(%q) expected error, got nil", spec)
		}
	}
}

func TestHarfBuzz(t *testing.T) {
	set := Set{"liga": 0, "kern": 1, "cv": 2}
	got := set.HarfBuzz()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}

	want := []harfbuzz.Feature{
		{Tag: ot.NewTag('c', 'v', ' ', ' '), Value: 2, Start: harfbuzz.FeatureGlobalStart, End: harfbuzz.FeatureGlobalEnd},
		{Tag: ot.NewTag('k', 'e', 'r', 'n'), Value: 1, Start: harfbuzz.FeatureGlobalStart, End: harfbuzz.FeatureGlobalEnd},
		{Tag: ot.NewTag('l', 'i', 'g', 'a'), Value: 0, Start: harfbuzz.FeatureGlobalStart, End: harfbuzz.FeatureGlobalEnd},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("HarfBuzz() = %+v, want %+v", got, want)
	}
}

func TestString(t *testing.T) {
	set, err := Parse("zero,calt=1,liga=0")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := set.String(), "{calt: 1, liga: 0, zero: 1}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := (Set{}).String(); got != "{}" {
		t.Errorf("empty String() = %q, want {}", got)
	}
}
