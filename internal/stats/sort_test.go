package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortCategories(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "percentage ranges",
			in:   []string{"50%以上", "10-20%", "未滿10%", "20-50%"},
			want: []string{"未滿10%", "10-20%", "20-50%", "50%以上"},
		},
		{
			name: "money with 億 scaling",
			in:   []string{"1億以上", "500萬以下", "5000萬-1億", "500-5000萬"},
			want: []string{"500萬以下", "500-5000萬", "5000萬-1億", "1億以上"},
		},
		{
			name: "people and years",
			in:   []string{"50人以上", "10-49人", "未滿10人"},
			want: []string{"未滿10人", "10-49人", "50人以上"},
		},
		{
			name: "frequency words",
			in:   []string{"不定期", "每年", "每季", "每月"},
			want: []string{"每月", "每季", "每年", "不定期"},
		},
		{
			name: "yes before no",
			in:   []string{"否", "是"},
			want: []string{"是", "否"},
		},
		{
			name: "phases then text",
			in:   []string{"其他", "第三階段", "第一階段"},
			want: []string{"第一階段", "第三階段", "其他"},
		},
		{
			name: "plain numbers numerically",
			in:   []string{"10", "3", "2.5"},
			want: []string{"2.5", "3", "10"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := append([]string(nil), tt.in...)
			assert.Equal(t, tt.want, SortCategories(tt.in))
			assert.Equal(t, in, tt.in, "input must not be modified")
		})
	}
}
