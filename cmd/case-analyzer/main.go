package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/case-analyzer/internal/app"
	"github.com/joseph-ayodele/case-analyzer/internal/async"
	"github.com/joseph-ayodele/case-analyzer/internal/common"
	"github.com/joseph-ayodele/case-analyzer/internal/ingest"
	"github.com/joseph-ayodele/case-analyzer/internal/server"
)

func main() {
	// a missing .env is fine; the environment may already be set
	_ = godotenv.Load()
	logger := app.NewLogger()
	gin.SetMode(gin.ReleaseMode)

	cfg := common.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("close failed", "error", err)
		}
	}()

	tools := a.Probe.Check(ctx)
	logger.Info("ocr tools", "available", tools.Available, "pdftoppm", tools.Pdftoppm, "tesseract", tools.Tesseract)

	handler := server.New(a.Cases,
		server.WithGatherer(a.Registry),
		server.WithMaxUpload(cfg.Server.MaxUploadBytes),
		server.WithLogger(logger),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.NewServer(cfg.Server.HTTPAddr, handler, logger).Run(gctx)
	})

	if cfg.Server.GRPCAddr != "" {
		grpcSrv := server.NewGRPC(logger)
		grpcSrv.SetServing(true)
		g.Go(func() error { return grpcSrv.Serve(gctx, cfg.Server.GRPCAddr) })
	}

	if cfg.Server.WatchDir != "" {
		queue := async.NewProcessorQueue(a.Cases, logger,
			async.WithWorkers(cfg.Queue.Workers),
			async.WithQueueSize(cfg.Queue.Size),
			async.WithProcessTimeout(cfg.Queue.JobTimeout),
			async.WithMetrics(a.Metrics),
		)
		g.Go(func() error {
			err := ingest.RunInbox(gctx, cfg.Server.WatchDir, queue, logger)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			queue.Shutdown(shutdownCtx)
			return err
		})
	}

	logger.Info("case-analyzer started",
		"http", cfg.Server.HTTPAddr,
		"grpc", cfg.Server.GRPCAddr,
		"provider", cfg.LLM.Provider,
		"storage", cfg.Storage.Type,
		"cache", cfg.Cache.Backend,
	)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}
