// Package textfilter scans text against forbidden-word lists carried
// in preset fragments.
package textfilter

import (
	"regexp"
	"strings"
)

// ParseWordList extracts individual forbidden words from fragment
// content. Authors write one word per line or separate them with
// commas; both ASCII and CJK punctuation appear in the wild. Lines
// starting with # are comments.
func ParseWordList(content string) []string {
	fields := strings.FieldsFunc(content, func(r rune) bool {
		switch r {
		case '\n', '\r', ',', '，', '、', ';', '；':
			return true
		}
		return false
	})

	seen := make(map[string]bool, len(fields))
	var words []string
	for _, f := range fields {
		w := strings.TrimSpace(f)
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		if !seen[w] {
			seen[w] = true
			words = append(words, w)
		}
	}
	return words
}

// Scanner matches a fixed word list against arbitrary text. ASCII
// words match case-insensitively on word boundaries; CJK words have no
// word boundaries, so they match as plain substrings.
type Scanner struct {
	words    []string
	patterns map[string]*regexp.Regexp
}

// NewScanner compiles a scanner for the given word list.
func NewScanner(words []string) *Scanner {
	s := &Scanner{
		words:    words,
		patterns: make(map[string]*regexp.Regexp, len(words)),
	}
	for _, w := range words {
		if isASCIIWord(w) {
			s.patterns[w] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
		}
	}
	return s
}

// Matches returns the forbidden words present in text, in word-list
// order. A word is reported at most once.
func (s *Scanner) Matches(text string) []string {
	var found []string
	for _, w := range s.words {
		if re, ok := s.patterns[w]; ok {
			if re.MatchString(text) {
				found = append(found, w)
			}
			continue
		}
		if strings.Contains(text, w) {
			found = append(found, w)
		}
	}
	return found
}

// Contains reports whether text carries any forbidden word.
func (s *Scanner) Contains(text string) bool {
	for _, w := range s.words {
		if re, ok := s.patterns[w]; ok {
			if re.MatchString(text) {
				return true
			}
			continue
		}
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func isASCIIWord(w string) bool {
	for _, r := range w {
		if r > 127 {
			return false
		}
	}
	return true
}
