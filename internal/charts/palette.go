package charts

import (
	"errors"
	"image/color"
	"unicode/utf8"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"surveycli/pkg/contracts/domain"
)

// ErrNoData is returned when a chart would have nothing to draw
var ErrNoData = errors.New("no data to chart")

const (
	companyHex  = "1f77b4"
	investorHex = "ff7f0e"
)

// phasePalette is the ten-colour categorical palette used for phases and
// any other open-ended grouping
var phasePalette = []string{
	"1f77b4", "ff7f0e", "2ca02c", "d62728", "9467bd",
	"8c564b", "e377c2", "7f7f7f", "bcbd22", "17becf",
}

// GroupColor returns the hex colour (with leading #) of a crosstab group.
// Respondent groups have fixed colours, everything else cycles the palette.
func GroupColor(group string, index int) string {
	return "#" + groupHex(group, index)
}

func groupHex(group string, index int) string {
	switch domain.RespondentType(group) {
	case domain.RespondentCompany:
		return companyHex
	case domain.RespondentInvestor:
		return investorHex
	}
	return phasePalette[index%len(phasePalette)]
}

func groupColor(group string, index int) color.Color {
	return drawing.ColorFromHex(groupHex(group, index))
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

func chartTitle(q domain.MergedQuestion) string {
	return q.ID + " " + truncate(q.Text, 28)
}
