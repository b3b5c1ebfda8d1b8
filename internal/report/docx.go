package report

import (
	"fmt"
	"image"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/common/units"
	"github.com/gomutex/godocx/docx"
)

const maxImageWidth = 6.0

// Run is a span of text sharing one format
type Run struct {
	Text string
	Bold bool
}

// Document is the report body built on the godocx default template, whose
// Title, Heading, Caption, ListBullet and TableGrid styles it uses
type Document struct {
	root   *docx.RootDoc
	images int
}

// NewDocument starts an empty document
func NewDocument() (*Document, error) {
	root, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("open docx template: %w", err)
	}
	return &Document{root: root}, nil
}

// Styled adds one paragraph in style made of runs. An empty style is Normal.
func (d *Document) Styled(style string, runs ...Run) {
	p := d.root.AddParagraph("")
	if style != "" {
		p.Style(style)
	}
	for _, r := range runs {
		run := p.AddText(r.Text)
		if r.Bold {
			run.Bold(true)
		}
	}
}

// Title adds the cover title
func (d *Document) Title(text string) {
	if _, err := d.root.AddHeading(text, 0); err != nil {
		d.Styled("Title", Run{Text: text})
	}
}

// Subtitle adds a cover subtitle line
func (d *Document) Subtitle(text string) {
	d.Styled("Subtitle", Run{Text: text})
}

// Heading adds a heading of level 1 to 3
func (d *Document) Heading(level int, text string) {
	level = min(max(level, 1), 3)
	if _, err := d.root.AddHeading(text, uint(level)); err != nil {
		d.Styled(fmt.Sprintf("Heading%d", level), Run{Text: text})
	}
}

// Paragraph adds plain text, one paragraph per line
func (d *Document) Paragraph(text string) {
	for _, line := range strings.Split(text, "\n") {
		d.root.AddParagraph(line)
	}
}

// Bullet adds a bulleted line
func (d *Document) Bullet(text string) {
	d.Styled("ListBullet", Run{Text: text})
}

// Caption adds a figure or table caption
func (d *Document) Caption(text string) {
	d.Styled("Caption", Run{Text: text})
}

// PageBreak starts a new page
func (d *Document) PageBreak() {
	d.root.AddPageBreak()
}

// Table adds a bordered table. The header row is bold, and so is the last
// row when boldLast is set (for total rows).
func (d *Document) Table(header []string, rows [][]string, boldLast bool) {
	tbl := d.root.AddTable()
	tbl.Style("TableGrid")
	tableRow(tbl, header, true)
	for i, row := range rows {
		tableRow(tbl, row, boldLast && i == len(rows)-1)
	}
	// Word merges adjacent tables without a paragraph in between
	d.root.AddParagraph("")
}

func tableRow(tbl *docx.Table, cells []string, bold bool) {
	row := tbl.AddRow()
	for _, c := range cells {
		run := row.AddCell().AddParagraph("").AddText(c)
		if bold {
			run.Bold(true)
		}
	}
}

// Image embeds the PNG at path, scaled to widthInches (at most 6) with its
// aspect ratio kept
func (d *Document) Image(path string, widthInches float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	cfg, _, err := image.DecodeConfig(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if widthInches <= 0 || widthInches > maxImageWidth {
		widthInches = maxImageWidth
	}
	height := widthInches * float64(cfg.Height) / float64(max(cfg.Width, 1))

	if _, err := d.root.AddPicture(path, units.Inch(widthInches), units.Inch(height)); err != nil {
		return fmt.Errorf("embed %s: %w", filepath.Base(path), err)
	}
	d.images++
	return nil
}

// Images reports how many images were embedded
func (d *Document) Images() int {
	return d.images
}

// Write packages the document as a .docx zip archive
func (d *Document) Write(w io.Writer) error {
	return d.root.Write(w)
}
