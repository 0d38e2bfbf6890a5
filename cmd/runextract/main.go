package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/case-analyzer/internal/app"
	"github.com/joseph-ayodele/case-analyzer/internal/common"
)

func main() {
	var (
		printText = flag.Bool("print", false, "print the extracted text")
		timeout   = flag.Duration("timeout", 3*time.Minute, "overall timeout")
	)
	flag.Parse()

	_ = godotenv.Load()
	logger := app.NewLogger()

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "runextract [-print] <document.pdf|.txt>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ex, err := app.NewExtraction(ctx, common.LoadConfig(), nil, logger)
	if err != nil {
		logger.Error("setup failed", "error", err)
		os.Exit(1)
	}
	defer ex.Close()

	res, err := ex.Chain.Extract(ctx, path)
	if err != nil {
		logger.Error("text extraction failed", "path", path, "error", err)
		os.Exit(1)
	}

	logger.Info("text extraction OK",
		"path", path,
		"source", res.Source,
		"chars", res.CharacterCount,
		"cached", res.Cached,
		"duration_ms", res.Duration.Milliseconds(),
	)
	if *printText || res.Degraded() {
		fmt.Println(res.Text)
	}
}
