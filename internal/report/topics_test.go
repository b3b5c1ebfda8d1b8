package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveycli/internal/config"
)

func boardCatalogue(columns ...string) *config.TopicCatalogue {
	cat := &config.TopicCatalogue{
		Dimensions: []config.Dimension{
			{ID: "board", Name: "董事會治理機制", Summary: "董事會運作。"},
			{ID: "control", Name: "內部控制與風險管理"},
		},
	}
	for i, c := range columns {
		cat.Topics = append(cat.Topics, config.Topic{
			ID:        string(rune('A' + i)),
			Title:     "議題 " + c,
			Column:    c,
			Dimension: "board",
		})
	}
	return cat
}

func TestSelectTopics_Catalogue(t *testing.T) {
	in := fixtureInput(t, t.TempDir())
	cat := boardCatalogue("請問公司董事會是否設置獨立董事", "完全無關的題目文字內容")

	sections, fromCatalogue := SelectTopics(cat, in, 0.8, 20)
	assert.True(t, fromCatalogue)
	require.Len(t, sections, 1, "dimensions without matches are dropped")
	assert.Equal(t, "董事會治理機制", sections[0].Name)
	require.Len(t, sections[0].Topics, 1)
	topic := sections[0].Topics[0]
	assert.Equal(t, "Q001", topic.Analysis.Question.ID)
	assert.Equal(t, "A", topic.Number)
	assert.InDelta(t, 1.0, topic.Score, 1e-9)
}

func TestSelectTopics_Fallback(t *testing.T) {
	in := fixtureInput(t, t.TempDir())

	tests := []struct {
		name string
		cat  *config.TopicCatalogue
		n    int
		want []string
	}{
		{name: "no catalogue", cat: nil, n: 20, want: []string{"Q001", "Q002"}},
		{name: "nothing matches", cat: boardCatalogue("完全無關的題目文字內容"), n: 20, want: []string{"Q001", "Q002"}},
		{name: "limited", cat: nil, n: 1, want: []string{"Q001"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sections, fromCatalogue := SelectTopics(tt.cat, in, 0.8, tt.n)
			assert.False(t, fromCatalogue)
			require.Len(t, sections, 1)
			assert.Equal(t, FallbackDimension, sections[0].Name)
			var ids []string
			for _, topic := range sections[0].Topics {
				ids = append(ids, topic.Analysis.Question.ID)
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, "1", sections[0].Topics[0].Number)
		})
	}
}

func TestSelectTopics_NothingToReport(t *testing.T) {
	sections, fromCatalogue := SelectTopics(nil, &Input{}, 0.8, 20)
	assert.False(t, fromCatalogue)
	assert.Empty(t, sections)
}
