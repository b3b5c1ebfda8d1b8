package stats

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	classPercent = iota
	classYears
	classMoney
	classMonths
	classPeople
	classFrequency
	classPhase
	classYesNo
	classNumber
	classText = 10
)

var (
	quantityPattern = regexp.MustCompile(`^(未滿|少於|低於|小於)?\s*(\d+(?:\.\d+)?)\s*(萬|億)?\s*(?:[-~到至]\s*(\d+(?:\.\d+)?)\s*)?(%|年|萬|億|個月|月|人)?\s*(以上|以下|以內|以外)?`)
	plainNumber     = regexp.MustCompile(`^\d+(?:\.\d+)?$`)

	frequencyOrder = []string{"每週", "每月", "每季", "每半年", "每年", "不定期", "無"}
	phaseOrder     = map[string]float64{"第一階段": 1, "階段1": 1, "第二階段": 2, "階段2": 2, "第三階段": 3, "階段3": 3}
	yesWords       = map[string]bool{"是": true, "Yes": true, "yes": true, "有": true}
	noWords        = map[string]bool{"否": true, "No": true, "no": true}
)

type categoryKey struct {
	class int
	value float64
	text  string
}

// SortCategories orders answer categories for display: percentages,
// year, money, month and people ranges by their lower bound, then
// frequency words, phases, yes before no, plain numbers, and finally
// everything else alphabetically. The input is not modified.
func SortCategories(labels []string) []string {
	out := append([]string(nil), labels...)
	keys := make(map[string]categoryKey, len(out))
	for _, l := range out {
		keys[l] = categorize(l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := keys[out[i]], keys[out[j]]
		if a.class != b.class {
			return a.class < b.class
		}
		if a.value != b.value {
			return a.value < b.value
		}
		return a.text < b.text
	})
	return out
}

func categorize(label string) categoryKey {
	s := strings.TrimSpace(label)
	key := categoryKey{class: classText, text: s}

	if m := quantityPattern.FindStringSubmatch(s); m != nil && (m[5] != "" || m[3] != "") {
		lower, _ := strconv.ParseFloat(m[2], 64)
		unit := m[5]
		if unit == "" {
			unit = m[3]
		}
		if m[3] == "億" || (m[3] == "" && unit == "億") {
			lower *= 10000
		}
		switch {
		case m[1] != "" || m[6] == "以下" || m[6] == "以內":
			lower -= 0.5
		case m[6] == "以上" || m[6] == "以外":
			lower += 0.5
		}
		key.value = lower

		switch unit {
		case "%":
			key.class = classPercent
		case "年":
			key.class = classYears
		case "萬", "億":
			key.class = classMoney
		case "個月", "月":
			key.class = classMonths
		case "人":
			key.class = classPeople
		}
		return key
	}

	for i, word := range frequencyOrder {
		if strings.Contains(s, word) {
			key.class = classFrequency
			key.value = float64(i)
			return key
		}
	}
	for word, order := range phaseOrder {
		if strings.Contains(s, word) {
			key.class = classPhase
			key.value = order
			return key
		}
	}
	if yesWords[s] {
		return categoryKey{class: classYesNo, value: 1, text: s}
	}
	if noWords[s] {
		return categoryKey{class: classYesNo, value: 2, text: s}
	}
	if plainNumber.MatchString(s) {
		v, _ := strconv.ParseFloat(s, 64)
		return categoryKey{class: classNumber, value: v, text: s}
	}
	return key
}
