package charts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	apperrors "surveycli/internal/errors"
	"surveycli/internal/files"
)

// ChromeRasterizer screenshots an HTML page with headless Chrome
type ChromeRasterizer struct {
	timeout  time.Duration
	execPath string
	files    *files.Manager
	logger   *slog.Logger
}

// NewChromeRasterizer creates a rasterizer. execPath may be empty to let
// chromedp locate the browser.
func NewChromeRasterizer(timeout time.Duration, execPath string, logger *slog.Logger) *ChromeRasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChromeRasterizer{
		timeout:  timeout,
		execPath: execPath,
		files:    files.NewManager("", logger),
		logger:   logger,
	}
}

// Rasterize loads htmlPath and writes a full-page PNG screenshot to pngPath
func (c *ChromeRasterizer) Rasterize(ctx context.Context, htmlPath, pngPath string) error {
	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		return apperrors.NewRenderError("interactive page not found", err).WithContext("path", abs)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(1280, 900),
	)
	if c.execPath != "" {
		opts = append(opts, chromedp.ExecPath(c.execPath))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	start := time.Now()
	var png []byte
	if err := chromedp.Run(browserCtx,
		chromedp.Navigate("file://"+filepath.ToSlash(abs)),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// echarts animates its first paint
		chromedp.Sleep(1500*time.Millisecond),
		chromedp.FullScreenshot(&png, 90),
	); err != nil {
		return apperrors.NewRenderError("failed to rasterize interactive page", err).WithContext("path", abs)
	}

	if err := c.files.WriteFile(pngPath, png); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	c.logger.InfoContext(ctx, "Interactive page rasterized",
		slog.String("path", pngPath),
		slog.Int("bytes", len(png)),
		slog.Duration("duration", time.Since(start)))
	return nil
}
