package matcher

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"surveycli/internal/dataprocessing"
)

var (
	levenshtein  = metrics.NewLevenshtein()
	sorensenDice = metrics.NewSorensenDice()

	// markers that never change what a question asks
	keyMarkers = []string{"(可複選)", "(複選)", "(單選)"}
)

// Key reduces a header to the text used for matching: width folded,
// whitespace free, without selection markers or trailing punctuation.
func Key(text string) string {
	key := dataprocessing.FoldKey(text)
	for _, marker := range keyMarkers {
		key = strings.ReplaceAll(key, marker, "")
	}
	return strings.TrimRight(key, ":?.。")
}

// Similarity scores two keys in [0,1] as the larger of the normalized
// Levenshtein and the Sørensen–Dice bigram similarity.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	lev := strutil.Similarity(a, b, levenshtein)
	dice := strutil.Similarity(a, b, sorensenDice)
	if dice > lev {
		return dice
	}
	return lev
}
