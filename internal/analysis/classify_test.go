package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"surveycli/pkg/contracts/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   domain.AnswerType
	}{
		{name: "no values", values: nil, want: domain.AnswerEmpty},
		{name: "only blanks", values: []string{"", "  "}, want: domain.AnswerEmpty},
		{name: "newline means multi-select", values: []string{"是", "財務\n稽核"}, want: domain.AnswerMultiSelect},
		{name: "mostly numbers", values: []string{"10", "1,200", "35%", "12", "不知道"}, want: domain.AnswerNumeric},
		{name: "exactly at threshold is categorical", values: []string{"1", "2", "3", "4", "5", "6", "7", "a", "b", "c"}, want: domain.AnswerCategorical},
		{name: "text answers", values: []string{"是", "否", "是"}, want: domain.AnswerCategorical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.values, 0.7))
		})
	}
}

func TestClassify_DefaultThreshold(t *testing.T) {
	assert.Equal(t, domain.AnswerNumeric, Classify([]string{"1", "2", "3", "x"}, 0))
}

func TestSplitOptions(t *testing.T) {
	assert.Equal(t, []string{"財務報告", "內部控制"}, SplitOptions("財務報告\n 內部控制 \n\n財務報告"))
	assert.Nil(t, SplitOptions(""))
}
