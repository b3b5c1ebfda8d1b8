package matcher

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"surveycli/internal/config"
	apperrors "surveycli/internal/errors"
	"surveycli/pkg/contracts/domain"
)

// DefaultThreshold is the similarity at which two questions are merged
const DefaultThreshold = 0.85

type aliasMatcher struct {
	canonical string
	patterns  []*regexp.Regexp
	literals  []string
}

func (a aliasMatcher) matches(header, key string) bool {
	for _, re := range a.patterns {
		if re.MatchString(header) {
			return true
		}
	}
	for _, lit := range a.literals {
		if key == lit || strings.Contains(key, lit) {
			return true
		}
	}
	return false
}

// Matcher groups raw question columns into merged questions
type Matcher struct {
	threshold float64
	aliases   []aliasMatcher
	logger    *slog.Logger
}

// New builds a matcher. Literal alias patterns are compared on matching
// keys; regex patterns run against the cleaned header.
func New(cfg config.MatcherConfig, rules []config.AliasRule, logger *slog.Logger) (*Matcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	threshold := cfg.SimilarityThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}

	m := &Matcher{threshold: threshold, logger: logger}
	for _, rule := range rules {
		a := aliasMatcher{canonical: rule.Canonical}
		for _, p := range rule.Patterns {
			if !rule.Regex {
				a.literals = append(a.literals, Key(p))
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, apperrors.NewConfigError(fmt.Sprintf("invalid alias pattern %q", p), err)
			}
			a.patterns = append(a.patterns, re)
		}
		m.aliases = append(m.aliases, a)
	}
	return m, nil
}

// Threshold returns the similarity threshold in use
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

type group struct {
	key       string
	canonical string
	aliased   bool
	members   []domain.RawColumn
	sources   map[string]bool
}

func newGroup(key string) *group {
	return &group{key: key, sources: make(map[string]bool)}
}

func (g *group) add(c domain.RawColumn) {
	g.members = append(g.members, c)
	g.sources[c.Source] = true
}

func (g *group) sharesSource(other *group) bool {
	for s := range other.sources {
		if g.sources[s] {
			return true
		}
	}
	return false
}

// Merge groups columns into merged questions. Alias rules win, then
// identical keys, then a greedy fuzzy pass that folds each group into the
// most similar earlier group at or above the threshold. Two columns from
// the same file are never merged by key or similarity.
func (m *Matcher) Merge(columns []domain.RawColumn) []domain.MergedQuestion {
	var groups []*group
	byAlias := make(map[string]*group)
	byKey := make(map[string][]*group)

	for _, c := range columns {
		key := Key(c.Header)

		if canonical, ok := m.alias(c.Header, key); ok {
			g := byAlias[canonical]
			if g == nil {
				g = newGroup(Key(canonical))
				g.canonical = canonical
				g.aliased = true
				byAlias[canonical] = g
				groups = append(groups, g)
			}
			g.add(c)
			continue
		}

		var target *group
		for _, g := range byKey[key] {
			if !g.sources[c.Source] {
				target = g
				break
			}
		}
		if target == nil {
			target = newGroup(key)
			byKey[key] = append(byKey[key], target)
			groups = append(groups, target)
		}
		target.add(c)
	}

	merged := m.fuzzyMerge(groups)

	out := make([]domain.MergedQuestion, 0, len(merged))
	for i, g := range merged {
		out = append(out, domain.MergedQuestion{
			ID:      fmt.Sprintf("Q%03d", i+1),
			Text:    g.text(),
			Members: g.members,
			Aliased: g.aliased,
		})
	}

	m.logger.Info("Questions merged",
		slog.Int("columns", len(columns)),
		slog.Int("exact_groups", len(groups)),
		slog.Int("questions", len(out)),
		slog.Float64("threshold", m.threshold))
	return out
}

func (m *Matcher) fuzzyMerge(groups []*group) []*group {
	var kept []*group
	for _, g := range groups {
		if g.aliased || g.key == "" {
			kept = append(kept, g)
			continue
		}

		var best *group
		bestScore := 0.0
		for _, k := range kept {
			if k.key == "" || k.sharesSource(g) {
				continue
			}
			if score := Similarity(g.key, k.key); score >= m.threshold && score > bestScore {
				best, bestScore = k, score
			}
		}

		if best == nil {
			kept = append(kept, g)
			continue
		}
		m.logger.Debug("Fuzzy merged question",
			slog.String("into", best.key),
			slog.String("from", g.key),
			slog.Float64("similarity", bestScore))
		for _, c := range g.members {
			best.add(c)
		}
	}
	return kept
}

func (m *Matcher) alias(header, key string) (string, bool) {
	for _, a := range m.aliases {
		if a.matches(header, key) {
			return a.canonical, true
		}
	}
	return "", false
}

// text is the alias canonical, else the most frequent member header.
// Ties go to the header seen first.
func (g *group) text() string {
	if g.canonical != "" {
		return g.canonical
	}
	counts := make(map[string]int)
	for _, c := range g.members {
		counts[c.Header]++
	}
	best, bestCount := "", 0
	for _, c := range g.members {
		if counts[c.Header] > bestCount {
			best, bestCount = c.Header, counts[c.Header]
		}
	}
	return best
}
