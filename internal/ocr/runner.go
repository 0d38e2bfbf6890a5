package ocr

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Runner executes one OCR tool invocation. CLIRunner goes through it so tests
// can stand in for pdftoppm and tesseract.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs the poppler and tesseract binaries as child processes.
type ExecRunner struct {
	logger *slog.Logger
}

func NewExecRunner(logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecRunner{logger: logger}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	logger := r.logger.With("tool", filepath.Base(name), "elapsed_ms", time.Since(start).Milliseconds())
	if err != nil {
		logger.Warn("ocr.tool.failed",
			"exit_code", exitCode(err),
			"input", lastInput(args),
			"error", err,
			"stderr", stderrSummary(stderr.Bytes(), 2<<10),
		)
		return stdout.Bytes(), stderr.Bytes(), err
	}
	logger.Debug("ocr.tool.ok", "input", lastInput(args), "stdout_bytes", stdout.Len())
	return stdout.Bytes(), stderr.Bytes(), nil
}

// exitCode is the process exit status, or -1 when the tool never ran.
func exitCode(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

// lastInput picks the page image or PDF an invocation works on.
func lastInput(args []string) string {
	for i := len(args) - 1; i >= 0; i-- {
		switch strings.ToLower(filepath.Ext(args[i])) {
		case ".pdf", ".png":
			return filepath.Base(args[i])
		}
	}
	return ""
}

// stderrSummary keeps the last max bytes of a tool's stderr, where poppler and
// tesseract print the actual failure.
func stderrSummary(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
