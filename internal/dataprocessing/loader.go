package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"surveycli/internal/config"
	apperrors "surveycli/internal/errors"
	"surveycli/internal/validation"
	"surveycli/pkg/contracts/domain"
)

// SourceFileColumn is the pseudo column naming the file a row came from
const SourceFileColumn = "_source_file"

// Loader reads survey exports into a tagged Dataset
type Loader struct {
	cfg       config.IngestConfig
	tagger    *Tagger
	validator *validation.FileValidator
	excluded  map[string]bool
	phaseKey  string
	logger    *slog.Logger
}

// NewLoader creates a loader for the given ingest configuration
func NewLoader(cfg config.IngestConfig, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	excluded := make(map[string]bool, len(cfg.ExcludedColumns))
	for _, c := range cfg.ExcludedColumns {
		excluded[FoldKey(c)] = true
	}
	excluded[FoldKey(SourceFileColumn)] = true

	return &Loader{
		cfg:       cfg,
		tagger:    NewTagger(cfg),
		validator: validation.NewFileValidator(logger),
		excluded:  excluded,
		phaseKey:  FoldKey(cfg.PhaseColumn),
		logger:    logger,
	}
}

// Load reads every path. Files that fail validation or parsing are logged
// and skipped; the load fails only when nothing could be read.
func (l *Loader) Load(ctx context.Context, paths []string) (*domain.Dataset, error) {
	if len(paths) == 0 {
		return nil, apperrors.ErrNoInputFiles
	}

	ds := &domain.Dataset{}
	names := make(map[string]int)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := l.validator.ValidateSurveyFile(path); err != nil {
			l.logger.WarnContext(ctx, "Skipping survey file",
				slog.String("file", path),
				slog.String("error", err.Error()))
			continue
		}

		table, err := ReadTable(path, l.cfg.Encoding)
		if err != nil {
			l.logger.WarnContext(ctx, "Skipping unreadable survey file",
				slog.String("file", path),
				slog.String("error", err.Error()))
			continue
		}

		name := uniqueName(filepath.Base(path), names)
		if err := l.addTable(ctx, ds, name, path, table); err != nil {
			l.logger.WarnContext(ctx, "Skipping survey file",
				slog.String("file", path),
				slog.String("error", err.Error()))
			continue
		}
	}

	if len(ds.Files) == 0 {
		return nil, apperrors.NewParsingError("no survey file could be loaded", apperrors.ErrNoInputFiles)
	}
	if len(ds.Responses) == 0 {
		return nil, apperrors.ErrNoResponses
	}

	l.logger.InfoContext(ctx, "Survey data loaded",
		slog.Int("files", len(ds.Files)),
		slog.Int("responses", len(ds.Responses)),
		slog.Int("columns", len(ds.Columns)))
	return ds, nil
}

func (l *Loader) addTable(ctx context.Context, ds *domain.Dataset, name, path string, table *Table) error {
	header := make([]string, len(table.Header))
	for i, h := range table.Header {
		header[i] = CleanHeader(h)
	}

	report, err := l.validator.ValidateHeader(name, header)
	if err != nil {
		return err
	}
	header = disambiguate(header, report)

	respondent := l.tagger.InferRespondent(name)
	filePhase := l.tagger.InferPhase(name)

	phaseIdx := -1
	var columns []domain.RawColumn
	for i, h := range header {
		if h == "" {
			continue
		}
		key := FoldKey(h)
		if key == l.phaseKey {
			phaseIdx = i
			continue
		}
		if l.excluded[key] {
			continue
		}
		columns = append(columns, domain.RawColumn{
			Header:     h,
			Source:     name,
			Respondent: respondent,
			Phase:      filePhase,
			Index:      i,
		})
	}

	responses := make([]domain.Response, 0, len(table.Rows))
	for rowIdx, row := range table.Rows {
		phase := filePhase
		if phaseIdx >= 0 {
			if p := ExtractPhase(row[phaseIdx]); p != domain.PhaseUnspecified {
				phase = p
			}
		}

		answers := make(map[string]string, len(columns))
		for _, c := range columns {
			if v := NormalizeAnswer(row[c.Index]); v != "" {
				answers[c.Header] = v
			}
		}

		responses = append(responses, domain.Response{
			ID:         fmt.Sprintf("%s#%d", name, rowIdx+1),
			SourceFile: name,
			Respondent: respondent,
			Phase:      phase,
			Answers:    answers,
		})
	}

	file := domain.SourceFile{
		Name:       name,
		Path:       path,
		Respondent: respondent,
		Phase:      filePhase,
		Rows:       len(responses),
		Encoding:   table.Encoding,
	}
	for _, c := range columns {
		file.Columns = append(file.Columns, c.Header)
	}

	ds.Files = append(ds.Files, file)
	ds.Columns = append(ds.Columns, columns...)
	ds.Responses = append(ds.Responses, responses...)

	l.logger.DebugContext(ctx, "Loaded survey file",
		slog.String("file", name),
		slog.String("respondent", string(respondent)),
		slog.String("phase", string(filePhase)),
		slog.String("encoding", table.Encoding),
		slog.Int("rows", len(responses)),
		slog.Int("columns", len(columns)),
		slog.Bool("phase_column", phaseIdx >= 0))
	return nil
}

// disambiguate suffixes repeated headers with (2), (3)... so every column
// of one file has a distinct name
func disambiguate(header []string, report validation.HeaderReport) []string {
	for h, idx := range report.Duplicates {
		for n, i := range idx[1:] {
			header[i] = fmt.Sprintf("%s (%d)", h, n+2)
		}
	}
	return header
}

func uniqueName(base string, seen map[string]int) string {
	seen[base]++
	if n := seen[base]; n > 1 {
		return fmt.Sprintf("%s (%d)", base, n)
	}
	return base
}
