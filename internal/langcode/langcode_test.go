package langcode_test

import (
	"testing"

	"hbwrap/internal/langcode"
)

func TestISO3(t *testing.T) {
	cases := []struct {
		input string
		want  string
		ok    bool
	}{
		{"en", "eng", true},
		{"eng", "eng", true},
		{"English", "eng", true},
		{"german", "deu", true},
		{"ja", "jpn", true},
		{"  fr  ", "fra", true},
		{"", "", false},
		{"not-a-language", "", false},
	}
	for _, tc := range cases {
		got, ok := langcode.ISO3(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ISO3(%q) = %q, %v; want %q, %v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNameResolvesCodes(t *testing.T) {
	if got := langcode.Name("eng"); got != "English" {
		t.Fatalf("Name(eng) = %q, want English", got)
	}
	if got := langcode.Name("???"); got != "???" {
		t.Fatalf("Name should pass through unresolved input, got %q", got)
	}
}
