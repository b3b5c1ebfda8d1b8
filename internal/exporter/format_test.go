package exporter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"surveycli/pkg/contracts/domain"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "zero value", input: 0, expected: "0.00"},
		{name: "rounds half up", input: 3.456, expected: "3.46"},
		{name: "negative", input: -1.5, expected: "-1.50"},
		{name: "NaN is blank", input: math.NaN(), expected: ""},
		{name: "infinity is blank", input: math.Inf(1), expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFloat(tt.input))
		})
	}
}

func TestFormatPValue(t *testing.T) {
	assert.Equal(t, "0.0012", formatPValue(0.00123, true))
	assert.Equal(t, "1.0000", formatPValue(1, true))
	assert.Equal(t, "", formatPValue(0.01, false))
	assert.Equal(t, "", formatPValue(math.NaN(), true))
}

func TestFormatPercentIntBool(t *testing.T) {
	assert.Equal(t, "12.5%", formatPercent(0.125))
	assert.Equal(t, "0.0%", formatPercent(0))
	assert.Equal(t, "42", formatInt(42))
	assert.Equal(t, "是", formatBool(true))
	assert.Equal(t, "否", formatBool(false))
}

func TestFormatTest(t *testing.T) {
	method, statistic, p := formatTest(nil)
	assert.Empty(t, method+statistic+p)

	method, statistic, p = formatTest(&domain.TestResult{Method: domain.MethodChiSquare, Statistic: 6.6351, PValue: 0.01})
	assert.Equal(t, domain.MethodChiSquare.Label(), method)
	assert.Equal(t, "6.64", statistic)
	assert.Equal(t, "0.0100", p)
}
