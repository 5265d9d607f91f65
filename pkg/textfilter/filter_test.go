package textfilter

import (
	"reflect"
	"testing"
)

func TestParseWordList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "one word per line",
			input:    "foo\nbar\nbaz",
			expected: []string{"foo", "bar", "baz"},
		},
		{
			name:     "comma separated",
			input:    "foo, bar,baz",
			expected: []string{"foo", "bar", "baz"},
		},
		{
			name:     "cjk separators",
			input:    "傻瓜、笨蛋，混蛋",
			expected: []string{"傻瓜", "笨蛋", "混蛋"},
		},
		{
			name:     "comments and blanks skipped",
			input:    "# banned terms\nfoo\n\nbar",
			expected: []string{"foo", "bar"},
		},
		{
			name:     "duplicates collapse",
			input:    "foo\nfoo\nbar",
			expected: []string{"foo", "bar"},
		},
		{
			name:     "empty content",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseWordList(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ParseWordList(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestScanner_Matches(t *testing.T) {
	s := NewScanner([]string{"moist", "傻瓜", "darn"})

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "ascii word boundary match",
			input:    "The cake was moist.",
			expected: []string{"moist"},
		},
		{
			name:     "ascii case insensitive",
			input:    "MOIST towelettes",
			expected: []string{"moist"},
		},
		{
			name:     "partial ascii word does not match",
			input:    "moisture in the air",
			expected: nil,
		},
		{
			name:     "cjk substring match",
			input:    "你这个傻瓜！",
			expected: []string{"傻瓜"},
		},
		{
			name:     "multiple hits in list order",
			input:    "darn, what a moist day",
			expected: []string{"moist", "darn"},
		},
		{
			name:     "clean text",
			input:    "a perfectly ordinary sentence",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Matches(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Matches(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestScanner_Contains(t *testing.T) {
	s := NewScanner([]string{"darn"})

	if !s.Contains("well darn it") {
		t.Error("expected Contains to report a hit")
	}
	if s.Contains("darning needles") {
		t.Error("expected word boundary to block partial match")
	}
}
