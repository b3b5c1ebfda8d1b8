// Package dataprocessing turns survey exports into a tagged in-memory Dataset.
//
// # Reading
//
// ReadTable reads CSV (UTF-8, UTF-8 with BOM, or a legacy encoding such as
// Big5) and XLSX exports into a rectangular Table.
//
// # Tagging
//
// Every row is tagged with a respondent type (公司方 or 投資方) and a phase.
// The file name decides both through the configured export codes or
// keywords; a phase column inside the file overrides the file-level phase
// row by row.
//
//	loader := dataprocessing.NewLoader(cfg.Ingest, logger)
//	ds, err := loader.Load(ctx, paths)
//
// # Normalisation
//
// Headers lose 【...】 annotations and line breaks (CleanHeader). Answers
// are width-folded and trimmed line by line (NormalizeAnswer); line breaks
// inside an answer separate multi-select options.
package dataprocessing
