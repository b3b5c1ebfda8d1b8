package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "surveycli/internal/errors"
	"surveycli/internal/files"
)

// FileValidator checks survey inputs and report destinations before a run
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return apperrors.NewNotFoundError(path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return apperrors.NewValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateSurveyFile checks that path is a readable, non-empty CSV or XLSX
// export that is not an Office lock file.
func (v *FileValidator) ValidateSurveyFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Skipping temporary Excel file",
			slog.String("file", path))
		return apperrors.NewValidationError(fmt.Sprintf("file %s is a temporary Excel file", path))
	}
	if !files.IsSurveyFile(base) {
		return apperrors.NewAppError(apperrors.ErrTypeValidation,
			fmt.Sprintf("file %s has extension %q", path, filepath.Ext(path)),
			apperrors.ErrUnsupportedFormat)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.Size() == 0 {
		return apperrors.NewAppError(apperrors.ErrTypeValidation,
			fmt.Sprintf("file %s is empty", path), apperrors.ErrEmptyHeader)
	}
	return nil
}

// ValidateInputFiles returns the paths that pass ValidateSurveyFile, in
// order. It fails only when none does; rejected files are logged.
func (v *FileValidator) ValidateInputFiles(paths []string) ([]string, error) {
	valid := make([]string, 0, len(paths))
	for _, path := range paths {
		if err := v.ValidateSurveyFile(path); err != nil {
			v.logger.Warn("Rejected survey input",
				slog.String("file", path),
				slog.String("error", err.Error()))
			continue
		}
		valid = append(valid, path)
	}
	if len(valid) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrTypeValidation,
			fmt.Sprintf("none of %d input files is a readable survey export", len(paths)),
			apperrors.ErrNoInputFiles)
	}
	return valid, nil
}

// ValidateOutputDirectory ensures output directory exists and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// HeaderReport summarises problems found in a header row
type HeaderReport struct {
	Blank      []int
	Duplicates map[string][]int
}

// Clean reports whether the header has no blank or repeated cells
func (r HeaderReport) Clean() bool {
	return len(r.Blank) == 0 && len(r.Duplicates) == 0
}

// ValidateHeader inspects a cleaned header row. A row without any non-blank
// cell is an error; blank or repeated cells are reported and logged so the
// loader can disambiguate them.
func (v *FileValidator) ValidateHeader(source string, header []string) (HeaderReport, error) {
	report := HeaderReport{Duplicates: make(map[string][]int)}

	positions := make(map[string][]int)
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			report.Blank = append(report.Blank, i)
			continue
		}
		positions[h] = append(positions[h], i)
	}
	if len(positions) == 0 {
		return report, apperrors.NewParsingError(source, apperrors.ErrEmptyHeader)
	}

	for h, idx := range positions {
		if len(idx) > 1 {
			report.Duplicates[h] = idx
		}
	}

	if !report.Clean() {
		v.logger.Warn("Header has blank or repeated columns",
			slog.String("file", source),
			slog.Int("blank", len(report.Blank)),
			slog.Int("duplicated", len(report.Duplicates)))
	}
	return report, nil
}
