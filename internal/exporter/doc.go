// Package exporter writes the tabular survey artifacts.
//
// CSVWriter is the low-level writer: atomic whole-file writes, appends and a
// streaming writer, all UTF-8 with an optional BOM so spreadsheet tools pick
// up the Chinese headers.
//
// SurveyExporter builds on it to write recommendations.csv, questions.csv and
// analysis.csv. WorkbookWriter writes the same tables plus a run summary as
// an xlsx workbook.
//
//	exp := exporter.NewSurveyExporter(paths.OutputDir, logger)
//	if err := exp.ExportRecommendations(paths.RecommendationsCSV, recs); err != nil {
//		return err
//	}
package exporter
