// Package langcode normalizes language identifiers to the ISO 639-2 codes
// HandBrakeCLI's language-list flags expect.
package langcode

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// English language names are not BCP 47 tags, so language.Parse rejects
// them; the common ones are mapped here before parsing.
var wordForms = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
	"finnish":    "fi",
}

// ISO3 normalizes a language identifier ("en", "eng", "English") to its
// ISO 639-2/T three-letter code. The second return reports whether the
// input could be resolved.
func ISO3(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}
	if code, ok := wordForms[strings.ToLower(input)]; ok {
		input = code
	}
	tag, err := language.Parse(input)
	if err != nil {
		return "", false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", false
	}
	return base.ISO3(), true
}

// Name returns the English display name for a language identifier, or the
// input unchanged when it cannot be resolved.
func Name(input string) string {
	code, ok := ISO3(input)
	if !ok {
		return input
	}
	tag, err := language.Parse(code)
	if err != nil {
		return input
	}
	return display.English.Languages().Name(tag)
}
