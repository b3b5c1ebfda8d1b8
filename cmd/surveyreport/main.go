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
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"surveycli/internal/config"
	"surveycli/internal/infrastructure"
	"surveycli/internal/operations"
	"surveycli/internal/ranking"
	"surveycli/pkg/contracts"
	"surveycli/pkg/contracts/domain"
)

type options struct {
	inputs     []string
	outputDir  string
	configFile string
	respondent string
	phase      string
	title      string
	logLevel   string
	chromePath string
	step       string
	rasterize  bool
	version    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("surveyreport", flag.ContinueOnError)
	fs.SetOutput(stderr)

	in := fs.String("in", "", "comma separated survey files or directories (defaults to the configured input directory)")
	fs.StringVar(&opts.outputDir, "out", "", "output directory (defaults to the configured output directory)")
	fs.StringVar(&opts.configFile, "config", "", "YAML configuration file")
	fs.StringVar(&opts.respondent, "respondent", "", "comma separated respondent types to keep: company, investor (default both)")
	fs.StringVar(&opts.phase, "phase", "", "comma separated phases to keep: 1, 2, 3 (default all)")
	fs.StringVar(&opts.title, "title", "", "report title")
	fs.StringVar(&opts.logLevel, "log-level", "", "debug | info | warn | error")
	fs.StringVar(&opts.chromePath, "chrome", "", "Chrome executable used with -rasterize")
	fs.StringVar(&opts.step, "step", "", "run a single pipeline step")
	fs.BoolVar(&opts.rasterize, "rasterize", false, "render the interactive page to PNG with headless Chrome")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts.inputs = append(splitList(*in), fs.Args()...)
	return opts, nil
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

// selection turns the -respondent and -phase flags into a dataset selection
func (o *options) selection() (domain.Selection, error) {
	var sel domain.Selection
	for _, s := range splitList(o.respondent) {
		r, ok := domain.ParseRespondentType(s)
		if !ok {
			return sel, fmt.Errorf("unknown respondent type %q", s)
		}
		sel.Respondents = append(sel.Respondents, r)
	}
	for _, s := range splitList(o.phase) {
		p, ok := domain.ParsePhase(s)
		if !ok {
			return sel, fmt.Errorf("unknown phase %q", s)
		}
		sel.Phases = append(sel.Phases, p)
	}
	return sel, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return 0
	}

	sel, err := opts.selection()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		fmt.Fprintln(stderr, "Failed to load configuration:", err)
		return 1
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.title != "" {
		cfg.Report.Title = opts.title
	}

	logger, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "Failed to initialize logger:", err)
		return 1
	}
	infrastructure.SetLogger(logger)
	ctx = infrastructure.WithComponentContext(ctx, "surveyreport")
	defer infrastructure.CloseLogFile()

	paths, err := config.ResolvePaths(cfg.Paths)
	if err == nil && opts.outputDir != "" {
		paths, err = paths.WithOutputDir(opts.outputDir)
	}
	if err != nil {
		logger.Error("Failed to resolve paths", slog.String("error", err.Error()))
		return 1
	}
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("Failed to create required directories", slog.String("error", err.Error()))
		return 1
	}
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, stderr, logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.CreateSurveyMetrics(providers.Meter)
	if err != nil {
		logger.Error("Failed to create metrics", slog.String("error", err.Error()))
		return 1
	}

	manager, err := operations.NewPipeline(cfg, paths, operations.PipelineOptions{
		Tracer:     providers.Tracer,
		Metrics:    metrics,
		Rasterize:  opts.rasterize,
		ChromePath: opts.chromePath,
		Title:      opts.title,
	}, logger)
	if err != nil {
		logger.Error("Failed to build pipeline", slog.String("error", err.Error()))
		return 1
	}

	inputs := opts.inputs
	if len(inputs) == 0 {
		inputs = []string{paths.InputDir}
	}

	ctx = infrastructure.EnsureRunID(ctx)
	logger.InfoContext(ctx, "Starting survey report",
		slog.Any("inputs", inputs),
		slog.String("selection", sel.Label()),
		slog.String("output_dir", paths.OutputDir),
		slog.String("version", contracts.Version))

	params := map[string]interface{}{
		operations.ParamInputs:    inputs,
		operations.ParamSelection: sel,
	}
	if opts.step != "" {
		params[operations.ParamStep] = opts.step
	}

	resp, runErr := manager.Execute(ctx, operations.OperationRequest{Parameters: params})

	if err := providers.WriteMetrics(paths.MetricsFile); err != nil {
		logger.WarnContext(ctx, "Failed to write metrics", slog.String("error", err.Error()))
	}

	printSummary(stdout, resp, paths.OutputDir)
	if runErr != nil {
		logger.ErrorContext(ctx, "Survey report failed", slog.String("error", runErr.Error()))
		return 1
	}
	return 0
}

var stepOrder = []string{
	operations.StepIDIngest,
	operations.StepIDMatch,
	operations.StepIDClassify,
	operations.StepIDStatistics,
	operations.StepIDRank,
	operations.StepIDRender,
}

func printSummary(w io.Writer, resp *operations.OperationResponse, outputDir string) {
	if resp == nil {
		return
	}

	status := color.New(color.FgGreen, color.Bold)
	if resp.Status != operations.OperationStatusCompleted {
		status = color.New(color.FgRed, color.Bold)
	}
	status.Fprintf(w, "\nRun %s %s in %s\n", resp.ID, resp.Status, resp.Duration.Round(time.Millisecond))
	if resp.Error != "" {
		color.New(color.FgRed).Fprintln(w, resp.Error)
	}

	steps := tablewriter.NewWriter(w)
	steps.SetHeader([]string{"Step", "Status", "Duration", "Message"})
	steps.SetAutoWrapText(false)
	for _, id := range stepOrder {
		s, ok := resp.Steps[id]
		if !ok {
			continue
		}
		steps.Append([]string{s.Name, string(s.GetStatus()), s.Duration().Round(time.Millisecond).String(), s.Message})
	}
	steps.Render()

	if resp.Results == nil {
		return
	}
	printPriorities(w, resp.Results.Recommendations)
	if len(resp.Results.Artifacts) == 0 {
		return
	}

	color.New(color.FgCyan).Fprintln(w, "\nArtifacts")
	artifacts := tablewriter.NewWriter(w)
	artifacts.SetHeader([]string{"Kind", "Path"})
	artifacts.SetAutoWrapText(false)
	for _, a := range resp.Results.ArtifactPaths() {
		path := a.Path
		if rel, err := filepath.Rel(outputDir, a.Path); err == nil {
			path = rel
		}
		artifacts.Append([]string{a.Kind, path})
	}
	artifacts.Render()
}

// topPriorities is how many recommendations the console summary lists
const topPriorities = 5

func printPriorities(w io.Writer, recs []domain.Recommendation) {
	if len(recs) == 0 {
		return
	}

	color.New(color.FgCyan).Fprintln(w, "\nTop priorities")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Question", "Score", "Tier", "p"})
	table.SetAutoWrapText(false)
	for _, r := range ranking.Top(recs, topPriorities) {
		p := "-"
		if r.HasPValue {
			p = fmt.Sprintf("%.4f", r.PValue)
		}
		table.Append([]string{r.QuestionID, shorten(r.Text, 30), fmt.Sprintf("%.1f", r.Score), r.Tier.Label(), p})
	}
	table.Render()
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
