package textformat

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Collapse squashes runs of whitespace into single spaces and trims
// the ends, keeping prompt context compact.
func Collapse(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// Truncate shortens text to at most limit runes, appending an ellipsis
// when it cuts. Limits are rune counts, not bytes; history records mix
// scripts freely.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	cut := limit - 1
	if cut < 0 {
		cut = 0
	}
	return strings.TrimRight(string(runes[:cut]), " ") + "…"
}
