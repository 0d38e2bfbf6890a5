package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/case-analyzer/internal/app"
	"github.com/joseph-ayodele/case-analyzer/internal/common"
)

func main() {
	var (
		persist = flag.Bool("save", false, "persist the record to the configured store")
		timeout = flag.Duration("timeout", 5*time.Minute, "overall timeout")
	)
	flag.Parse()

	_ = godotenv.Load()
	logger := app.NewLogger()

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "analyze [-save] <document>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	a, err := app.New(ctx, common.LoadConfig(), logger)
	if err != nil {
		logger.Error("setup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	var analyze = a.Processor.AnalyzeCase
	if *persist {
		analyze = a.Cases.AnalyzeFile
	}
	rec, err := analyze(ctx, path)
	if err != nil {
		logger.Error("analysis failed", "path", path, "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		logger.Error("encode failed", "error", err)
		os.Exit(1)
	}
}
