package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"

	apperrors "surveycli/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a raw survey export: one header row and the data rows under it.
// Every row has exactly len(Header) cells.
type Table struct {
	Header   []string
	Rows     [][]string
	Encoding string
	Sheet    string
}

// ReadTable reads a CSV or XLSX survey export. fallbackEncoding names the
// legacy encoding (an htmlindex label such as "big5") tried when a CSV is
// not valid UTF-8.
func ReadTable(path, fallbackEncoding string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return parseCSV(data, fallbackEncoding)
	case ".xlsx":
		return readWorkbook(path)
	default:
		return nil, apperrors.NewParsingError(path, apperrors.ErrUnsupportedFormat)
	}
}

func parseCSV(data []byte, fallbackEncoding string) (*Table, error) {
	label := "utf-8"
	switch {
	case bytes.HasPrefix(data, utf8BOM):
		data = data[len(utf8BOM):]
		label = "utf-8-bom"
	case !utf8.Valid(data):
		enc, name := legacyEncoding(fallbackEncoding)
		decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
		if err != nil {
			return nil, apperrors.NewParsingError("failed to decode "+name, err)
		}
		data = decoded
		label = name
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("malformed csv", err)
		}
		records = append(records, record)
	}

	table, err := newTable(records)
	if err != nil {
		return nil, err
	}
	table.Encoding = label
	return table, nil
}

// legacyEncoding resolves an htmlindex label, defaulting to Big5
func legacyEncoding(label string) (encoding.Encoding, string) {
	if label != "" {
		if enc, err := htmlindex.Get(label); err == nil {
			name, _ := htmlindex.Name(enc)
			return enc, name
		}
	}
	return traditionalchinese.Big5, "big5"
}

func readWorkbook(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, apperrors.NewParsingError("failed to read sheet "+sheet, err)
		}
		if len(rows) == 0 || isBlankRow(rows[0]) {
			continue
		}
		table, err := newTable(rows)
		if err != nil {
			return nil, err
		}
		table.Encoding = "xlsx"
		table.Sheet = sheet
		return table, nil
	}
	return nil, apperrors.NewParsingError(path, apperrors.ErrEmptyHeader)
}

// newTable pads ragged rows to the header width and drops blank rows.
// Cells beyond the header are discarded.
func newTable(records [][]string) (*Table, error) {
	if len(records) == 0 || isBlankRow(records[0]) {
		return nil, apperrors.ErrEmptyHeader
	}

	header := records[0]
	width := len(header)
	table := &Table{Header: header}

	for _, record := range records[1:] {
		if isBlankRow(record) {
			continue
		}
		row := make([]string, width)
		copy(row, record)
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
