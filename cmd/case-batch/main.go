package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/case-analyzer/internal/app"
	"github.com/joseph-ayodele/case-analyzer/internal/async"
	"github.com/joseph-ayodele/case-analyzer/internal/common"
	"github.com/joseph-ayodele/case-analyzer/internal/entity"
	"github.com/joseph-ayodele/case-analyzer/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir        = flag.String("dir", "", "directory of case documents to analyze (required)")
		out        = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		exts       = flag.String("ext", "pdf,txt", "comma-separated extensions to include")
		skipHidden = flag.Bool("skip-hidden", true, "skip hidden files and directories")
		fromStr    = flag.String("from", "", "export from date YYYY-MM-DD")
		toStr      = flag.String("to", "", "export to date YYYY-MM-DD")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "cases.xlsx")
	}
	from, err := parseDate(*fromStr)
	if err != nil {
		printError("Error: invalid --from date format, use YYYY-MM-DD: %v\n", err)
		os.Exit(1)
	}
	to, err := parseDate(*toStr)
	if err != nil {
		printError("Error: invalid --to date format, use YYYY-MM-DD: %v\n", err)
		os.Exit(1)
	}

	_ = godotenv.Load()
	logger := app.NewLogger()
	cfg := common.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	var mu sync.Mutex
	var ok, failed int
	queue := async.NewProcessorQueue(a.Cases, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.JobTimeout),
		async.WithMetrics(a.Metrics),
		async.WithResultFunc(func(job async.Job, rec entity.AnalysisRecord, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				printError("FAIL %s: %v\n", job.Path, err)
				return
			}
			ok++
			fmt.Printf("OK   %s -> %s (%s, %d%%)\n", job.Path, rec.CaseID, rec.Recommendation, rec.SuccessProbability)
		}),
	)

	start := time.Now()
	_, stats, err := ingest.SubmitDirectory(ctx, queue, *dir, strings.Split(*exts, ","), *skipHidden)
	queue.Shutdown(context.Background())
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("batch complete",
		"matched", stats.Matched,
		"submitted", stats.Submitted,
		"ok", ok,
		"failed", failed+int(stats.Failed),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	b, err := a.Cases.Export(ctx, from, to)
	if err != nil {
		printError("Error: export: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, b, 0o644); err != nil {
		printError("Error: write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("Exported %d analyzed cases to %s\n", ok, *out)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
