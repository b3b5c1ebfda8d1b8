package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains every path a report run reads from or writes to.
// Relative configured paths are resolved against BaseDir.
type Paths struct {
	BaseDir   string
	InputDir  string
	OutputDir string
	ChartsDir string
	LogsDir   string

	// Well-known output files
	ReportDocx         string
	BriefDocx          string
	GovernmentMarkdown string
	GovernmentHTML     string
	InteractiveHTML    string
	InteractivePNG     string
	WorkbookXLSX       string
	RecommendationsCSV string
	QuestionsCSV       string
	AnalysisCSV        string
	MetricsFile        string
}

// ResolvePaths resolves the configured paths. An empty BaseDir means the
// current working directory.
func ResolvePaths(cfg PathsConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}

	out := resolve(cfg.OutputDir)
	paths := &Paths{
		BaseDir:   base,
		InputDir:  resolve(cfg.InputDir),
		OutputDir: out,
		ChartsDir: filepath.Join(out, "charts"),
		LogsDir:   resolve(cfg.LogsDir),

		ReportDocx:         filepath.Join(out, "問卷描述性統計報告.docx"),
		BriefDocx:          filepath.Join(out, "重點議題摘要.docx"),
		GovernmentMarkdown: filepath.Join(out, "統計應用分析報告.md"),
		GovernmentHTML:     filepath.Join(out, "統計應用分析報告.html"),
		InteractiveHTML:    filepath.Join(out, "interactive_charts.html"),
		InteractivePNG:     filepath.Join(out, "interactive_charts.png"),
		WorkbookXLSX:       filepath.Join(out, "survey_analysis.xlsx"),
		RecommendationsCSV: filepath.Join(out, "recommendations.csv"),
		QuestionsCSV:       filepath.Join(out, "questions.csv"),
		AnalysisCSV:        filepath.Join(out, "analysis.csv"),
		MetricsFile:        filepath.Join(out, "metrics.prom"),
	}
	return paths, nil
}

// WithOutputDir returns a copy of the paths writing into dir instead.
func (p *Paths) WithOutputDir(dir string) (*Paths, error) {
	return ResolvePaths(PathsConfig{
		BaseDir:   p.BaseDir,
		InputDir:  p.InputDir,
		OutputDir: dir,
		LogsDir:   p.LogsDir,
	})
}

// EnsureDirectories creates the output directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.OutputDir,
		p.ChartsDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("input", p.InputDir),
			slog.String("output", p.OutputDir),
			slog.String("charts", p.ChartsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("report_files",
			slog.String("docx", p.ReportDocx),
			slog.String("markdown", p.GovernmentMarkdown),
			slog.String("workbook", p.WorkbookXLSX),
		))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
