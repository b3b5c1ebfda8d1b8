package dataprocessing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	bracketNote  = regexp.MustCompile(`【.*?】`)
	numericRange = regexp.MustCompile(`(\d)\s*([-~])\s*(\d)`)
)

// CleanHeader strips 【...】 annotations, joins multi-line headers with a
// space and collapses runs of whitespace. Full-width characters are kept;
// FoldKey folds them when columns are compared.
func CleanHeader(h string) string {
	h = bracketNote.ReplaceAllString(h, "")
	h = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

// FoldKey folds width variants and drops all whitespace. Two headers that
// fold to the same key name the same column.
func FoldKey(h string) string {
	h = norm.NFKC.String(CleanHeader(h))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, h)
}

// NormalizeAnswer folds full-width characters, trims every line and drops
// blank lines. Line breaks separate multi-select options and are kept.
// Numeric answers lose a trailing 人 unit and the spaces inside ranges.
func NormalizeAnswer(v string) string {
	v = norm.NFKC.String(v)
	v = strings.ReplaceAll(v, "\r\n", "\n")
	v = strings.ReplaceAll(v, "\r", "\n")

	lines := strings.Split(v, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	if len(kept) != 1 {
		return strings.Join(kept, "\n")
	}

	single := numericRange.ReplaceAllString(kept[0], "$1$2$3")
	if trimmed := strings.TrimSpace(strings.TrimSuffix(single, "人")); trimmed != single {
		if _, ok := ParseNumber(trimmed); ok {
			return trimmed
		}
	}
	return single
}

// ParseNumber parses a numeric answer. Thousands separators and a trailing
// percent sign are accepted; the percent value is returned unscaled.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
