package exporter

import (
	"math"
	"strconv"
	"strings"

	"surveycli/pkg/contracts/domain"
)

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatPValue keeps four decimals so small p-values stay distinguishable
func formatPValue(p float64, ok bool) string {
	if !ok || math.IsNaN(p) {
		return ""
	}
	return strconv.FormatFloat(p, 'f', 4, 64)
}

// formatPercent renders a 0..1 rate as a percentage with one decimal
func formatPercent(rate float64) string {
	return strconv.FormatFloat(rate*100, 'f', 1, 64) + "%"
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatBool formats a boolean value the way the reports print it
func formatBool(b bool) string {
	if b {
		return "是"
	}
	return "否"
}

// formatTest flattens a test result to method label, statistic and p-value cells
func formatTest(t *domain.TestResult) (method, statistic, p string) {
	if t == nil {
		return "", "", ""
	}
	return t.Method.Label(), formatFloat(t.Statistic), formatPValue(t.PValue, true)
}

func joinSources(q domain.MergedQuestion) string {
	return strings.Join(q.Sources(), "; ")
}
