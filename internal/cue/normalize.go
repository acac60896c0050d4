package cue

import (
	"regexp"
	"strings"
)

var markupPattern = regexp.MustCompile(`<[^>]*>`)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Normalize removes markup tags such as <b> or <c.yellow> and replaces each
// embedded line break with a single space. All other whitespace and
// punctuation is left untouched.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	return lineBreaks.Replace(markupPattern.ReplaceAllString(raw, ""))
}
