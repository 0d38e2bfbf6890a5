package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/case-analyzer/internal/app"
	"github.com/joseph-ayodele/case-analyzer/internal/common"
	"github.com/joseph-ayodele/case-analyzer/internal/repository"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()
	logger := app.NewLogger()
	cfg := common.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exit := 0

	ex, err := app.NewExtraction(ctx, cfg, nil, logger)
	if err != nil {
		logger.Error("cache backend unavailable", "backend", cfg.Cache.Backend, "error", err)
		return 1
	}
	defer ex.Close()
	logger.Info("cache backend OK", "backend", cfg.Cache.Backend)

	tools := ex.Probe.Check(ctx)
	fmt.Printf("pdftoppm:  %s\n", orMissing(tools.Pdftoppm))
	fmt.Printf("tesseract: %s\n", orMissing(tools.Tesseract))
	fmt.Printf("cli-ocr:   %t\n", tools.Available)
	if !tools.Available {
		exit = 3
	}

	if cfg.Cache.Backend == common.CacheBackendSQLite {
		db, err := repository.OpenSQLite(ctx, cfg.Cache.SQLitePath, logger)
		if err != nil {
			logger.Error("sqlite health failed", "error", err)
			return 1
		}
		defer repository.Close(db, logger)
		if err := repository.HealthCheck(ctx, db, 2*time.Second, logger); err != nil {
			logger.Error("sqlite ping failed", "path", cfg.Cache.SQLitePath, "error", err)
			exit = 1
		}
	}

	if err := cfg.Validate(); err != nil {
		logger.Warn("config invalid for serving", "error", err)
		exit = 2
	}
	return exit
}

func orMissing(p string) string {
	if p == "" {
		return "missing"
	}
	return p
}
