package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"surveycli/internal/config"
	"surveycli/internal/dataprocessing"
	"surveycli/internal/exporter"
	"surveycli/internal/files"
	"surveycli/internal/infrastructure"
	"surveycli/internal/matcher"
	"surveycli/internal/operations"
	"surveycli/pkg/contracts/domain"
)

// maxTextWidth bounds the question column of the console table, in runes
const maxTextWidth = 40

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("questionindex", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "comma separated survey files or directories (defaults to the configured input directory)")
	out := fs.String("out", "", "questions CSV path (defaults to questions.csv in the output directory)")
	configFile := fs.String("config", "", "YAML configuration file")
	shared := fs.Bool("shared", false, "only list questions asked in more than one file")
	logLevel := fs.String("log-level", "warn", "debug | info | warn | error")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(stderr, "Failed to load configuration:", err)
		return 1
	}
	cfg.Logging.Level = *logLevel

	logger, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "Failed to initialize logger:", err)
		return 1
	}
	infrastructure.SetLogger(logger)
	ctx = infrastructure.WithComponentContext(ctx, "questionindex")
	defer infrastructure.CloseLogFile()

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		logger.Error("Failed to resolve paths", slog.String("error", err.Error()))
		return 1
	}
	csvPath := *out
	if csvPath == "" {
		csvPath = paths.QuestionsCSV
	}

	inputs := append(splitList(*in), fs.Args()...)
	if len(inputs) == 0 {
		inputs = []string{paths.InputDir}
	}

	manager, err := newIndexManager(cfg, paths, logger)
	if err != nil {
		logger.Error("Failed to build pipeline", slog.String("error", err.Error()))
		return 1
	}

	resp, err := manager.Execute(ctx, operations.OperationRequest{
		Parameters: map[string]interface{}{operations.ParamInputs: inputs},
	})
	if err != nil {
		color.New(color.FgRed).Fprintln(stderr, "Question index failed:", err)
		return 1
	}

	questions := resp.Results.Questions
	if *shared {
		questions = sharedQuestions(questions)
	}

	if err := exporter.NewSurveyExporter(paths.OutputDir, logger).ExportQuestions(csvPath, questions); err != nil {
		logger.Error("Failed to write questions CSV", slog.String("error", err.Error()))
		return 1
	}

	printQuestions(stdout, resp.Results.Dataset, questions)
	color.New(color.FgGreen).Fprintf(stdout, "\n%d questions written to %s\n", len(questions), csvPath)
	return 0
}

// newIndexManager runs only ingest and match
func newIndexManager(cfg *config.Config, paths *config.Paths, logger *slog.Logger) (*operations.Manager, error) {
	rules, err := config.LoadAliases(cfg.Matcher.AliasFile)
	if err != nil {
		return nil, err
	}
	m, err := matcher.New(cfg.Matcher, rules, logger)
	if err != nil {
		return nil, err
	}

	manager := operations.NewManager(operations.NewRegistry(), nil, logger)
	steps := []operations.Step{
		operations.NewIngestStep(files.NewDiscovery(paths.BaseDir), dataprocessing.NewLoader(cfg.Ingest, logger), nil, logger),
		operations.NewMatchStep(m, nil),
	}
	for _, step := range steps {
		if err := manager.RegisterStep(step); err != nil {
			return nil, err
		}
	}
	return manager, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func sharedQuestions(questions []domain.MergedQuestion) []domain.MergedQuestion {
	var out []domain.MergedQuestion
	for _, q := range questions {
		if len(q.Sources()) > 1 {
			out = append(out, q)
		}
	}
	return out
}

func printQuestions(w io.Writer, ds *domain.Dataset, questions []domain.MergedQuestion) {
	if ds != nil {
		color.New(color.FgCyan, color.Bold).Fprintf(w, "%d files, %d responses\n\n", len(ds.Files), len(ds.Responses))
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Question", "Files", "Columns", "Alias"})
	table.SetAutoWrapText(false)
	for _, q := range questions {
		alias := ""
		if q.Aliased {
			alias = "✓"
		}
		table.Append([]string{
			q.ID,
			truncate(q.Text, maxTextWidth),
			strconv.Itoa(len(q.Sources())),
			strconv.Itoa(len(q.Members)),
			alias,
		})
	}
	table.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
