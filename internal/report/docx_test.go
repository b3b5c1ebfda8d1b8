package report

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_Write(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "chart.png")
	writePNG(t, img, 200, 100)

	doc, err := NewDocument()
	require.NoError(t, err)
	doc.Title("問卷報告")
	doc.Heading(1, "一、前言")
	doc.Heading(9, "深層標題")
	doc.Paragraph("第一行\n第二行 <b>")
	doc.Bullet("要點")
	doc.Styled("", Run{Text: "題目：", Bold: true}, Run{Text: "是否設置獨董"})
	doc.Table([]string{"選項", "公司方"}, [][]string{{"是", "3 (75.0%)"}, {"合計", "4"}}, true)
	require.NoError(t, doc.Image(img, 10))
	doc.Caption("圖 1")
	doc.PageBreak()
	assert.Equal(t, 1, doc.Images())
	assert.Error(t, doc.Image(filepath.Join(dir, "missing.png"), 3))
	assert.Equal(t, 1, doc.Images(), "failed images are not counted")

	var buf bytes.Buffer
	require.NoError(t, doc.Write(&buf))
	path := filepath.Join(dir, "out.docx")
	require.NoError(t, writeFile(path, buf.Bytes()))

	assert.Len(t, zipParts(t, path, "word/media/"), 1)
	body := readZipPart(t, path, "word/document.xml")
	requireWellFormed(t, body)

	tests := []struct {
		name string
		want string
	}{
		{"title", "問卷報告"},
		{"heading level is clamped", `w:val="Heading3"`},
		{"lines become paragraphs", "第一行"},
		{"text is escaped", "第二行 &lt;b&gt;"},
		{"bullet style", `w:val="ListBullet"`},
		{"table style", `w:val="TableGrid"`},
		{"table cells", "3 (75.0%)"},
		{"caption style", `w:val="Caption"`},
		{"page break", `w:type="page"`},
		{"inline picture", "<wp:inline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, body, tt.want)
		})
	}
	assert.Regexp(t, `<w:b( w:val="(true|1|on)")?/>`, body)
}

func TestDocument_ImageKeepsAspectRatio(t *testing.T) {
	dir := t.TempDir()
	// extents are in EMU, 914400 per inch
	tests := []struct {
		name       string
		w, h       int
		width      float64
		wantExtent string
	}{
		{"wide chart capped at six inches", 200, 100, 10, `cx="5486400" cy="2743200"`},
		{"requested width kept", 100, 100, 4, `cx="3657600" cy="3657600"`},
		{"zero width uses the maximum", 300, 100, 0, `cx="5486400" cy="1828800"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := filepath.Join(dir, tt.name+".png")
			writePNG(t, img, tt.w, tt.h)

			doc, err := NewDocument()
			require.NoError(t, err)
			require.NoError(t, doc.Image(img, tt.width))

			var buf bytes.Buffer
			require.NoError(t, doc.Write(&buf))
			path := filepath.Join(dir, tt.name+".docx")
			require.NoError(t, writeFile(path, buf.Bytes()))
			assert.Contains(t, readZipPart(t, path, "word/document.xml"), tt.wantExtent)
		})
	}
}
