package analysis

import (
	"strings"

	"surveycli/internal/dataprocessing"
	"surveycli/pkg/contracts/domain"
)

// OptionSeparator splits the options of a multi-select answer
const OptionSeparator = "\n"

// DefaultNumericThreshold is the share of parseable answers above which a
// question counts as numeric
const DefaultNumericThreshold = 0.7

// Classify decides the answer type of a question from its non-empty values
func Classify(values []string, numericThreshold float64) domain.AnswerType {
	if numericThreshold <= 0 || numericThreshold > 1 {
		numericThreshold = DefaultNumericThreshold
	}

	nonEmpty := 0
	numeric := 0
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		nonEmpty++
		if strings.Contains(v, OptionSeparator) {
			return domain.AnswerMultiSelect
		}
		if _, ok := dataprocessing.ParseNumber(v); ok {
			numeric++
		}
	}

	switch {
	case nonEmpty == 0:
		return domain.AnswerEmpty
	case float64(numeric)/float64(nonEmpty) > numericThreshold:
		return domain.AnswerNumeric
	default:
		return domain.AnswerCategorical
	}
}

// SplitOptions splits a multi-select answer into its distinct options
func SplitOptions(value string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(value, OptionSeparator) {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}
