package dataprocessing

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"surveycli/internal/config"
	"surveycli/pkg/contracts/domain"
)

var phasePattern = regexp.MustCompile(`第[一二三]階段`)

// Tagger assigns respondent type and phase from file names and answers
type Tagger struct {
	respondentCodes   map[string]domain.RespondentType
	phaseCodes        map[string]domain.Phase
	codes             []string
	defaultRespondent domain.RespondentType
}

// NewTagger builds a tagger from the ingest configuration
func NewTagger(cfg config.IngestConfig) *Tagger {
	t := &Tagger{
		respondentCodes:   make(map[string]domain.RespondentType),
		phaseCodes:        make(map[string]domain.Phase),
		defaultRespondent: domain.RespondentCompany,
	}
	if r, ok := domain.ParseRespondentType(cfg.DefaultRespondent); ok {
		t.defaultRespondent = r
	}

	seen := make(map[string]bool)
	for code, label := range cfg.RespondentCodes {
		if r, ok := domain.ParseRespondentType(label); ok {
			t.respondentCodes[code] = r
			seen[code] = true
		}
	}
	for code, label := range cfg.PhaseCodes {
		if p, ok := domain.ParsePhase(label); ok {
			t.phaseCodes[code] = p
			seen[code] = true
		}
	}
	for code := range seen {
		t.codes = append(t.codes, code)
	}
	// longer codes first so one code never shadows another it contains
	sort.Slice(t.codes, func(i, j int) bool {
		if len(t.codes[i]) != len(t.codes[j]) {
			return len(t.codes[i]) > len(t.codes[j])
		}
		return t.codes[i] < t.codes[j]
	})
	return t
}

// InferRespondent tags a file by its export code, then by keyword.
// 投資 is checked before 公司 since investor file names contain both.
func (t *Tagger) InferRespondent(filename string) domain.RespondentType {
	base := filepath.Base(filename)
	for _, code := range t.codes {
		if r, ok := t.respondentCodes[code]; ok && strings.Contains(base, code) {
			return r
		}
	}
	switch {
	case strings.Contains(base, "投資"):
		return domain.RespondentInvestor
	case strings.Contains(base, "公司"):
		return domain.RespondentCompany
	}
	return t.defaultRespondent
}

// InferPhase tags a file by its export code, then by a 第N階段 marker in
// the name. Files covering several phases return PhaseUnspecified.
func (t *Tagger) InferPhase(filename string) domain.Phase {
	base := filepath.Base(filename)
	for _, code := range t.codes {
		if p, ok := t.phaseCodes[code]; ok && strings.Contains(base, code) {
			return p
		}
	}
	return ExtractPhase(base)
}

// ExtractPhase returns the first phase label found in s
func ExtractPhase(s string) domain.Phase {
	if m := phasePattern.FindString(s); m != "" {
		p, _ := domain.ParsePhase(m)
		return p
	}
	return domain.PhaseUnspecified
}
