package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// Respondent codes the default configuration maps to a side and phase
const (
	CompanyFirstPhase  = "8RG8Y"
	CompanySecondPhase = "7RGxP"
	InvestorFirstPhase = "NwNYM"
)

// SurveyFileName names an export the way the survey platform does, so the
// loader tags its rows from the code
func SurveyFileName(code, label string) string {
	return "STANDARD_" + code + "_" + label + ".csv"
}

// WriteSurveyCSV writes a UTF-8 survey export into dir and returns its path
func WriteSurveyCSV(t *testing.T, dir, name string, header []string, rows [][]string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("create %s: %v", dir, err)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	return path
}

// YesNoRows builds n rows of two columns: the first yes answers are 是, the
// rest 否, and the second column counts up from base by step
func YesNoRows(n, yes, base, step int) [][]string {
	rows := make([][]string, n)
	for i := range rows {
		answer := "否"
		if i < yes {
			answer = "是"
		}
		rows[i] = []string{answer, strconv.Itoa(base + i*step)}
	}
	return rows
}
