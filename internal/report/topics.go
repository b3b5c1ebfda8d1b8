package report

import (
	"fmt"

	"surveycli/internal/config"
	"surveycli/internal/matcher"
	"surveycli/pkg/contracts/domain"
)

// FallbackDimension names the section used when no catalogue topic matches
const FallbackDimension = "重點議題"

// TopicEntry is one report topic bound to its analysis
type TopicEntry struct {
	Number      string
	Title       string
	Description string
	Analysis    domain.QuestionAnalysis
	Score       float64
}

// Section groups the topics of one governance dimension
type Section struct {
	Name    string
	Summary string
	Topics  []TopicEntry
}

// SelectTopics binds catalogue topics to analysed questions. A topic
// matches the question whose text or member header is most similar to the
// topic column, when that similarity reaches threshold. When nothing
// matches, the top fallback recommendations form a single section.
func SelectTopics(cat *config.TopicCatalogue, in *Input, threshold float64, fallback int) ([]Section, bool) {
	if cat != nil {
		var sections []Section
		matched := 0
		for _, dim := range cat.Dimensions {
			sec := Section{Name: dim.Name, Summary: dim.Summary}
			for _, t := range cat.TopicsIn(dim.ID) {
				a, score, ok := bestMatch(t.Column, in.Analyses, threshold)
				if !ok {
					continue
				}
				sec.Topics = append(sec.Topics, TopicEntry{
					Number:      t.ID,
					Title:       t.Title,
					Description: t.Description,
					Analysis:    a,
					Score:       score,
				})
			}
			matched += len(sec.Topics)
			if len(sec.Topics) > 0 {
				sections = append(sections, sec)
			}
		}
		if matched > 0 {
			return sections, true
		}
	}
	return fallbackSection(in, fallback), false
}

func bestMatch(column string, analyses []domain.QuestionAnalysis, threshold float64) (domain.QuestionAnalysis, float64, bool) {
	want := matcher.Key(column)
	best, bestScore := -1, 0.0
	for i, a := range analyses {
		if a.Failed() || a.Type == domain.AnswerEmpty {
			continue
		}
		score := matcher.Similarity(want, matcher.Key(a.Question.Text))
		for _, m := range a.Question.Members {
			score = max(score, matcher.Similarity(want, matcher.Key(m.Header)))
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore < threshold {
		return domain.QuestionAnalysis{}, 0, false
	}
	return analyses[best], bestScore, true
}

func fallbackSection(in *Input, n int) []Section {
	sec := Section{Name: FallbackDimension, Summary: "依推薦分數排序之前段議題。"}
	for _, rec := range in.Recommendations {
		if len(sec.Topics) >= n {
			break
		}
		a, ok := in.Analysis(rec.QuestionID)
		if !ok || a.Failed() || a.Type == domain.AnswerEmpty {
			continue
		}
		sec.Topics = append(sec.Topics, TopicEntry{
			Number:      fmt.Sprintf("%d", len(sec.Topics)+1),
			Title:       rec.Text,
			Description: fmt.Sprintf("推薦分數 %.2f（%s）。", rec.Score, rec.Tier.Label()),
			Analysis:    a,
			Score:       rec.Score,
		})
	}
	if len(sec.Topics) == 0 {
		return nil
	}
	return []Section{sec}
}
