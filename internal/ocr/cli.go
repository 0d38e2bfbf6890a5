package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// CLIRunner rasterizes with pdftoppm and recognizes each page with tesseract.
type CLIRunner struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewCLIRunner(cfg Config, runner Runner, logger *slog.Logger) *CLIRunner {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = NewExecRunner(logger)
	}
	return &CLIRunner{cfg: cfg.withDefaults(5), runner: runner, logger: logger}
}

// WithTools returns a copy that invokes the binaries resolved by a Probe.
func (c *CLIRunner) WithTools(a Availability) *CLIRunner {
	cp := *c
	if a.Pdftoppm != "" {
		cp.cfg.Pdftoppm = a.Pdftoppm
	}
	if a.Tesseract != "" {
		cp.cfg.Tesseract = a.Tesseract
	}
	return &cp
}

func (c *CLIRunner) Name() string { return "cli-ocr" }

func (c *CLIRunner) RecognizePDF(ctx context.Context, pdfPath string) (string, error) {
	ctx, cancel := withTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	tmpDir, err := os.MkdirTemp("", "ca-pp-*")
	if err != nil {
		return "", err
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			c.logger.Warn("ocr.cleanup.failed", "dir", path, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -png -r 300 -f 1 -l 5 <in.pdf> <tmp/page>
	_, errb, err := c.runner.Run(ctx, c.cfg.Pdftoppm,
		"-png", "-r", strconv.Itoa(c.cfg.DPI),
		"-f", "1", "-l", strconv.Itoa(c.cfg.MaxPages),
		pdfPath, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %w: %s", err, stderrSummary(errb, 512))
	}

	// prefix-1.png, prefix-2.png, ... (zero padded on longer documents)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", errors.New("pdftoppm produced no images")
	}

	pages := make([]string, 0, len(matches))
	for _, img := range matches {
		txt, err := c.tesseract(ctx, img)
		if err != nil {
			c.logger.Warn("ocr.page.failed", "runner", c.Name(), "image", filepath.Base(img), "error", err)
			continue
		}
		pages = append(pages, txt)
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("tesseract produced no text for %d pages", len(matches))
	}
	c.logger.Debug("ocr.cli.ok", "path", pdfPath, "pages", len(pages))
	return joinPages(pages), nil
}

func (c *CLIRunner) tesseract(ctx context.Context, img string) (string, error) {
	// tesseract <img> stdout --oem 1 --psm 3 -l eng
	args := []string{img, "stdout",
		"--oem", strconv.Itoa(c.cfg.OEM),
		"--psm", strconv.Itoa(c.cfg.PSM),
		"-l", c.cfg.TesseractLang,
	}
	if c.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", c.cfg.TessdataDir)
	}
	out, errb, err := c.runner.Run(ctx, c.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, stderrSummary(errb, 512))
	}
	return string(out), nil
}
