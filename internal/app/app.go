// Package app wires configuration into the running components shared by the binaries.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/joseph-ayodele/case-analyzer/internal/cache"
	"github.com/joseph-ayodele/case-analyzer/internal/common"
	"github.com/joseph-ayodele/case-analyzer/internal/export"
	"github.com/joseph-ayodele/case-analyzer/internal/extract"
	"github.com/joseph-ayodele/case-analyzer/internal/llm"
	"github.com/joseph-ayodele/case-analyzer/internal/llm/provider"
	"github.com/joseph-ayodele/case-analyzer/internal/metrics"
	"github.com/joseph-ayodele/case-analyzer/internal/ocr"
	processor "github.com/joseph-ayodele/case-analyzer/internal/pipeline"
	"github.com/joseph-ayodele/case-analyzer/internal/repository"
	"github.com/joseph-ayodele/case-analyzer/internal/services/cases"
	"github.com/joseph-ayodele/case-analyzer/internal/similar"
)

// Extraction is the text side only; it needs no model credentials.
type Extraction struct {
	Cache *cache.Cache
	Probe *ocr.Probe
	Chain *extract.Chain
	db    *sql.DB
}

// App is the full analysis stack.
type App struct {
	*Extraction
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry
	Processor *processor.Processor
	Store     repository.CaseStore
	Exporter  *export.Service
	Cases     *cases.Service

	closers []func() error
}

// NewExtraction builds the cache (dir or sqlite backend), tool probe and strategy chain.
func NewExtraction(ctx context.Context, cfg *common.Config, m *metrics.Metrics, logger *slog.Logger) (*Extraction, error) {
	var store cache.Store
	var db *sql.DB
	switch cfg.Cache.Backend {
	case common.CacheBackendSQLite:
		var err error
		db, err = repository.OpenSQLite(ctx, cfg.Cache.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		s, err := cache.NewSQLiteStore(ctx, db)
		if err != nil {
			repository.Close(db, logger)
			return nil, err
		}
		store = s
	default:
		s, err := cache.NewDirStore(cfg.Cache.Dir)
		if err != nil {
			return nil, err
		}
		store = s
	}
	c := cache.New(store, cache.WithMetrics(m), cache.WithLogger(logger))

	ocrCfg := ocr.Config{
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.Lang,
		DPI:           cfg.OCR.DPI,
		TessdataDir:   cfg.OCR.TessdataDir,
		Timeout:       cfg.OCR.Timeout,
	}
	probe := ocr.NewProbe(cfg.OCR.Pdftoppm, cfg.OCR.Tesseract, ocr.WithProbeLogger(logger))

	cliCfg := ocrCfg
	cliCfg.MaxPages = cfg.OCR.CLIMaxPages
	cli := ocr.NewCLIRunner(cliCfg, ocr.NewExecRunner(logger), logger)

	libCfg := ocrCfg
	libCfg.MaxPages = cfg.OCR.LibMaxPages
	lib := ocr.NewLibraryRunner(libCfg, logger)

	chain := extract.NewChain(c, extract.DefaultPDFStrategies(probe, cli, lib),
		extract.WithMetrics(m), extract.WithLogger(logger))

	return &Extraction{Cache: c, Probe: probe, Chain: chain, db: db}, nil
}

// Close releases the sqlite handle, if any.
func (e *Extraction) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

// New wires every component from cfg. Callers must Close the result.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ex, err := NewExtraction(ctx, cfg, m, logger)
	if err != nil {
		return nil, fmt.Errorf("extraction: %w", err)
	}
	a := &App{Extraction: ex, Metrics: m, Registry: reg}
	a.closers = append(a.closers, ex.Close)

	analyzer, closeLLM, err := provider.NewAnalyzer(ctx, cfg.LLM, logger, llm.WithAnalyzerMetrics(m))
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("llm: %w", err)
	}
	a.closers = append(a.closers, closeLLM)

	a.Processor = processor.NewProcessor(logger,
		processor.NewExtractStage(ex.Chain, logger),
		processor.NewAnalysisStage(logger, llm.PromptSource{Path: cfg.LLM.PromptPath}, analyzer),
		m,
	)

	a.Store, err = repository.NewCaseStore(ctx, cfg.Storage, logger)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}
	a.Exporter = export.NewService(a.Store, logger)

	a.Cases, err = cases.NewService(cases.Config{
		UploadDir:      cfg.Server.UploadDir,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}, a.Processor, similar.NewFinder(cfg.Similar.CaseFilesDir, similar.WithLogger(logger)), a.Store, a.Exporter, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewLogger builds the slog handler the binaries share: JSON by default, text when
// LOG_FORMAT=text. LOG_LEVEL=debug enables debug output.
func NewLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if os.Getenv("LOG_FORMAT") == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}
