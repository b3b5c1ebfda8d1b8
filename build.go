//go:build ignore

// build.go - survey analyzer build script
// Usage: go run build.go [-target=TARGET]
// Targets: all, surveyreport, questionindex, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	version = "0.3.0"
	module  = "surveycli"
)

// BuildContext holds configuration for the build process
type BuildContext struct {
	Verbose bool
	Race    bool
	GOOS    string
	GOARCH  string
}

var (
	rootDir string
	distDir string

	// key = directory under cmd/, value = output binary name without extension
	executables = map[string]string{
		"surveyreport":  "surveyreport",
		"questionindex": "questionindex",
	}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current directory: %v", err))
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); os.IsNotExist(err) {
		panic(fmt.Sprintf("go.mod not found in %s; run the build from the repository root", rootDir))
	}
}

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	race := flag.Bool("race", false, "Run tests with the race detector")
	goos := flag.String("goos", "", "Target operating system (default: host)")
	goarch := flag.String("goarch", "", "Target architecture (default: host)")
	flag.Parse()

	if runtime.GOOS == "windows" {
		enableWindowsColors()
	}

	printHeader()
	startTime := time.Now()

	ctx := &BuildContext{
		Verbose: *verbose,
		Race:    *race,
		GOOS:    *goos,
		GOARCH:  *goarch,
	}

	switch *target {
	case "all":
		buildAll(ctx)
	case "surveyreport", "questionindex":
		prepareDirectories(ctx.Verbose)
		buildExecutable(*target, ctx)
	case "test":
		runTests(ctx)
	case "clean":
		clean(ctx.Verbose)
	case "release":
		buildRelease(ctx)
	default:
		showHelp()
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "     Governance Survey - Build System      " + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARNING]%s %s\n", colorYellow, colorReset, msg)
}

func enableWindowsColors() {
	cmd := exec.Command("cmd", "/c", "echo", "")
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	cmd.Run()
}

func buildAll(ctx *BuildContext) {
	printInfo("Building all commands...")

	if err := checkPrerequisites(); err != nil {
		printError(fmt.Sprintf("Prerequisites check failed: %v", err))
		os.Exit(1)
	}

	prepareDirectories(ctx.Verbose)
	for name := range executables {
		buildExecutable(name, ctx)
	}
	copyConfigFiles(ctx.Verbose)
}

func buildExecutable(name string, ctx *BuildContext) {
	exeName, ok := executables[name]
	if !ok {
		printError(fmt.Sprintf("Unknown executable: %s", name))
		os.Exit(1)
	}
	if targetOS(ctx) == "windows" {
		exeName += ".exe"
	}

	printInfo(fmt.Sprintf("Building %s...", name))

	outputPath := filepath.Join(distDir, exeName)
	ldflags := fmt.Sprintf("-s -w -X %s/pkg/contracts.BuildTime=%s -X %s/pkg/contracts.GitCommit=%s",
		module, time.Now().Format(time.RFC3339), module, gitCommit())

	args := []string{"build"}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, "-trimpath", "-ldflags", ldflags, "-o", outputPath, "./cmd/"+name)

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Env = buildEnv(ctx)
	if ctx.Verbose {
		fmt.Printf("Running from %s: go %s\n", rootDir, strings.Join(args, " "))
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", name, err))
		os.Exit(1)
	}

	if info, err := os.Stat(outputPath); err == nil {
		sizeMB := float64(info.Size()) / 1024 / 1024
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", exeName, sizeMB))
	}
}

func buildEnv(ctx *BuildContext) []string {
	env := append(os.Environ(), "CGO_ENABLED=0")
	if ctx.GOOS != "" {
		env = append(env, "GOOS="+ctx.GOOS)
	}
	if ctx.GOARCH != "" {
		env = append(env, "GOARCH="+ctx.GOARCH)
	}
	return env
}

func targetOS(ctx *BuildContext) string {
	if ctx.GOOS != "" {
		return ctx.GOOS
	}
	return runtime.GOOS
}

func gitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func runTests(ctx *BuildContext) {
	printInfo("Running Go tests...")

	args := []string{"test"}
	if ctx.Race {
		args = append(args, "-race")
	}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
	printSuccess("All tests passed")
}

func clean(verbose bool) {
	printInfo("Cleaning build artifacts...")

	if err := cleanDir(distDir); err != nil {
		printError(fmt.Sprintf("Failed to clean dist directory: %v", err))
	}

	// Run output left behind by local runs from the repository root
	for _, dir := range []string{"output", "logs"} {
		path := filepath.Join(rootDir, dir)
		if verbose {
			printInfo("Removing " + path)
		}
		if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
			printError(fmt.Sprintf("Failed to clean %s: %v", dir, err))
		}
	}

	printSuccess("Build artifacts cleaned")
}

func buildRelease(ctx *BuildContext) {
	printInfo("Building release version...")

	clean(ctx.Verbose)
	runTests(ctx)
	buildAll(ctx)

	versionFile := filepath.Join(distDir, "VERSION.txt")
	content := fmt.Sprintf("surveycli v%s\nBuilt: %s\nCommit: %s\n",
		version, time.Now().Format("2006-01-02 15:04:05"), gitCommit())
	if err := os.WriteFile(versionFile, []byte(content), 0644); err != nil {
		printWarning(fmt.Sprintf("Failed to write %s: %v", versionFile, err))
	}

	printSuccess("Release build completed")
}

func checkPrerequisites() error {
	if _, err := exec.LookPath("go"); err != nil {
		return fmt.Errorf("go toolchain not found in PATH")
	}
	return nil
}

func prepareDirectories(verbose bool) {
	if err := os.MkdirAll(distDir, 0755); err != nil {
		printError(fmt.Sprintf("Failed to create %s: %v", distDir, err))
		os.Exit(1)
	}
	if verbose {
		printInfo("Output directory: " + distDir)
	}
}

// copyConfigFiles ships the default catalogues next to the binaries so they
// can be edited and passed back in with SURVEY_ANALYSIS_TOPICS_FILE and
// SURVEY_ANALYSIS_ALIASES_FILE.
func copyConfigFiles(verbose bool) {
	configs := map[string]string{
		filepath.Join("internal", "config", "topics.yaml"):  filepath.Join(distDir, "topics.yaml"),
		filepath.Join("internal", "config", "aliases.yaml"): filepath.Join(distDir, "aliases.yaml"),
	}

	for src, dest := range configs {
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := copyFile(src, dest); err != nil {
			printWarning(fmt.Sprintf("Failed to copy %s: %v", src, err))
		} else if verbose {
			printInfo("Copied " + src)
		}
	}
}

func copyFile(src, dest string) error {
	input, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	return os.WriteFile(dest, input, 0644)
}

func cleanDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v] [-race] [-goos=OS] [-goarch=ARCH]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all            Build surveyreport and questionindex (default)")
	fmt.Println("  surveyreport   Build the analysis and report command")
	fmt.Println("  questionindex  Build the question index command")
	fmt.Println("  test           Run Go tests")
	fmt.Println("  clean          Remove build artifacts and local run output")
	fmt.Println("  release        Clean, test, build and write VERSION.txt")
}
