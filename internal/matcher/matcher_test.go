package matcher

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveycli/internal/config"
	"surveycli/pkg/contracts/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func col(source, header string) domain.RawColumn {
	return domain.RawColumn{Source: source, Header: header}
}

func newMatcher(t *testing.T, rules []config.AliasRule) *Matcher {
	t.Helper()
	m, err := New(config.MatcherConfig{SimilarityThreshold: 0.85}, rules, quietLogger())
	require.NoError(t, err)
	return m
}

func TestKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"公司定期性董事會的議事內容，通常包含以下哪些項目？ (可複選)", "公司定期性董事會的議事內容,通常包含以下哪些項目"},
		{"董事會結構與運作 - 召開頻率為何？：", "董事會結構與運作-召開頻率為何"},
		{"【必填】公司規模？", "公司規模"},
		{"ＩＰ 紀錄", "IP紀錄"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Key(tt.in), tt.in)
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("abc", "abc"))
	assert.Equal(t, 0.0, Similarity("", "abc"))

	near := Similarity(Key("請問貴公司董事會的召開頻率為何？"), Key("請問公司董事會的召開頻率為何？"))
	assert.GreaterOrEqual(t, near, 0.85)

	far := Similarity(Key("請問公司規模？"), Key("請問公司是否設置審計委員會？"))
	assert.Less(t, far, 0.85)
}

func TestMerge(t *testing.T) {
	rules := []config.AliasRule{{
		Canonical: "請問公司大股東（持股5%以上）合計持股比例為多少？",
		Regex:     true,
		Patterns:  []string{`大股東.*合計持股比例`},
	}}

	tests := []struct {
		name    string
		columns []domain.RawColumn
		want    map[string][]string // text -> member sources
		aliased []string
	}{
		{
			name: "identical keys across files",
			columns: []domain.RawColumn{
				col("a.csv", "公司規模？"),
				col("b.csv", "公司規模?"),
				col("c.csv", "【必填】公司規模？"),
			},
			want: map[string][]string{"公司規模？": {"a.csv", "b.csv", "c.csv"}},
		},
		{
			name: "fuzzy match merges rewording",
			columns: []domain.RawColumn{
				col("a.csv", "請問公司董事會的召開頻率為何？"),
				col("b.csv", "請問貴公司董事會的召開頻率為何？"),
			},
			want: map[string][]string{"請問公司董事會的召開頻率為何？": {"a.csv", "b.csv"}},
		},
		{
			name: "same file never merges",
			columns: []domain.RawColumn{
				col("a.csv", "公司規模？"),
				col("a.csv", "公司規模？ (2)"),
				col("a.csv", "公司規模?"),
			},
			want: map[string][]string{
				"公司規模？":     {"a.csv"},
				"公司規模？ (2)": {"a.csv"},
				"公司規模?":     {"a.csv"},
			},
		},
		{
			name: "alias rule groups investor wording",
			columns: []domain.RawColumn{
				col("a.csv", "請問公司大股東（持股5%以上）合計持股比例為多少？"),
				col("b.csv", "請問被投資公司之大股東合計持股比例約為？"),
				col("c.csv", "公司是否設置審計委員會？"),
			},
			want: map[string][]string{
				"請問公司大股東（持股5%以上）合計持股比例為多少？": {"a.csv", "b.csv"},
				"公司是否設置審計委員會？":              {"c.csv"},
			},
			aliased: []string{"請問公司大股東（持股5%以上）合計持股比例為多少？"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			questions := newMatcher(t, rules).Merge(tt.columns)

			got := make(map[string][]string)
			var aliased []string
			total := 0
			for _, q := range questions {
				got[q.Text] = q.Sources()
				total += len(q.Members)
				if q.Aliased {
					aliased = append(aliased, q.Text)
				}
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.aliased, aliased)
			assert.Equal(t, len(tt.columns), total, "every column belongs to exactly one question")
		})
	}
}

func TestMerge_IDsAndCanonicalText(t *testing.T) {
	m := newMatcher(t, nil)
	questions := m.Merge([]domain.RawColumn{
		col("a.csv", "公司規模?"),
		col("b.csv", "是否有獨立董事？"),
		col("c.csv", "公司規模？"),
		col("d.csv", "公司規模？"),
	})

	require.Len(t, questions, 2)
	assert.Equal(t, "Q001", questions[0].ID)
	assert.Equal(t, "公司規模？", questions[0].Text, "most frequent header wins")
	assert.Equal(t, "Q002", questions[1].ID)

	again := m.Merge([]domain.RawColumn{
		col("a.csv", "公司規模?"),
		col("b.csv", "是否有獨立董事？"),
		col("c.csv", "公司規模？"),
		col("d.csv", "公司規模？"),
	})
	assert.Equal(t, questions, again)
}

func TestNew_InvalidAlias(t *testing.T) {
	_, err := New(config.MatcherConfig{}, []config.AliasRule{{Canonical: "x", Regex: true, Patterns: []string{"("}}}, nil)
	assert.Error(t, err)

	m, err := New(config.MatcherConfig{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultThreshold, m.Threshold())
}

func TestMerge_LiteralAlias(t *testing.T) {
	m := newMatcher(t, []config.AliasRule{{Canonical: "董事會召開頻率", Patterns: []string{"董事會開會次數"}}})
	questions := m.Merge([]domain.RawColumn{
		col("a.csv", "過去一年董事會開會次數？"),
		col("b.csv", "董事會召開頻率"),
	})
	require.Len(t, questions, 1)
	assert.True(t, questions[0].Aliased)
	assert.Equal(t, []string{"a.csv", "b.csv"}, questions[0].Sources())
}

func TestProject(t *testing.T) {
	ds := &domain.Dataset{
		Responses: []domain.Response{
			{ID: "a#1", SourceFile: "a.csv", Respondent: domain.RespondentCompany, Phase: domain.PhaseFirst, Answers: map[string]string{"規模": "10"}},
			{ID: "a#2", SourceFile: "a.csv", Respondent: domain.RespondentCompany, Phase: domain.PhaseFirst, Answers: map[string]string{}},
			{ID: "b#1", SourceFile: "b.csv", Respondent: domain.RespondentInvestor, Phase: domain.PhaseSecond, Answers: map[string]string{"規模？": "20"}},
			{ID: "c#1", SourceFile: "c.csv", Respondent: domain.RespondentInvestor, Answers: map[string]string{"other": "x"}},
		},
	}
	q := domain.MergedQuestion{Members: []domain.RawColumn{col("a.csv", "規模"), col("b.csv", "規模？")}}

	answers := Project(ds, q)
	require.Len(t, answers, 4)
	assert.Equal(t, "10", answers[0].Value)
	assert.True(t, answers[1].Applicable)
	assert.Empty(t, answers[1].Value)
	assert.Equal(t, "20", answers[2].Value)
	assert.Equal(t, domain.PhaseSecond, answers[2].Phase)
	assert.False(t, answers[3].Applicable)
}
