package ocr

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
)

// Rasterizer renders the first maxPages pages of a PDF to PNG files in outDir.
// Pages that fail to render are left out of the returned paths and reported
// in the error; the paths that were written are still returned.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath, outDir string, maxPages, dpi int) ([]string, error)
}

// Recognizer is an OCR engine instance. One is created per document and closed after it.
type Recognizer interface {
	Recognize(imagePath string) (string, error)
	Close() error
}

type RecognizerFactory func(cfg Config) (Recognizer, error)

// LibraryRunner does OCR in-process: go-fitz for pages, gosseract for text.
type LibraryRunner struct {
	cfg           Config
	rasterizer    Rasterizer
	newRecognizer RecognizerFactory
	logger        *slog.Logger
}

type LibraryOption func(*LibraryRunner)

func WithRasterizer(r Rasterizer) LibraryOption {
	return func(l *LibraryRunner) { l.rasterizer = r }
}

func WithRecognizerFactory(f RecognizerFactory) LibraryOption {
	return func(l *LibraryRunner) { l.newRecognizer = f }
}

func NewLibraryRunner(cfg Config, logger *slog.Logger, opts ...LibraryOption) *LibraryRunner {
	if logger == nil {
		logger = slog.Default()
	}
	l := &LibraryRunner{
		cfg:           cfg.withDefaults(3),
		rasterizer:    FitzRasterizer{},
		newRecognizer: NewGosseract,
		logger:        logger,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *LibraryRunner) Name() string { return "library-ocr" }

func (l *LibraryRunner) RecognizePDF(ctx context.Context, pdfPath string) (string, error) {
	ctx, cancel := withTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	tmpDir, err := os.MkdirTemp("", "ca-fitz-*")
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			l.logger.Warn("ocr.cleanup.failed", "dir", tmpDir, "error", err)
		}
	}()

	images, err := l.rasterizer.Rasterize(ctx, pdfPath, tmpDir, l.cfg.MaxPages, l.cfg.DPI)
	if cerr := ctx.Err(); cerr != nil {
		return "", cerr
	}
	if len(images) == 0 {
		if err != nil {
			return "", fmt.Errorf("rasterize: %w", err)
		}
		return "", errors.New("rasterize produced no images")
	}
	if err != nil {
		l.logger.Warn("ocr.rasterize.partial", "path", pdfPath, "pages", len(images), "error", err)
	}

	engine, err := l.newRecognizer(l.cfg)
	if err != nil {
		return "", fmt.Errorf("ocr engine: %w", err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			l.logger.Warn("ocr.engine.close_failed", "error", err)
		}
	}()

	pages := make([]string, 0, len(images))
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		txt, err := engine.Recognize(img)
		if err != nil {
			l.logger.Warn("ocr.page.failed", "runner", l.Name(), "image", filepath.Base(img), "error", err)
			continue
		}
		pages = append(pages, txt)
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("ocr produced no text for %d pages", len(images))
	}
	l.logger.Debug("ocr.library.ok", "path", pdfPath, "pages", len(pages))
	return joinPages(pages), nil
}

// FitzRasterizer renders pages with MuPDF through go-fitz.
type FitzRasterizer struct{}

func (FitzRasterizer) Rasterize(ctx context.Context, pdfPath, outDir string, maxPages, dpi int) ([]string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	n := doc.NumPage()
	if maxPages > 0 && n > maxPages {
		n = maxPages
	}
	out := make([]string, 0, n)
	var errs []error
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}
		p := filepath.Join(outDir, fmt.Sprintf("page-%03d.png", i+1))
		if err := renderPage(doc, i, dpi, p); err != nil {
			errs = append(errs, fmt.Errorf("page %d: %w", i+1, err))
			continue
		}
		out = append(out, p)
	}
	return out, errors.Join(errs...)
}

func renderPage(doc *fitz.Document, i, dpi int, path string) error {
	img, err := doc.ImageDPI(i, float64(dpi))
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = png.Encode(f, img)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

type gosseractEngine struct {
	client *gosseract.Client
}

// NewGosseract starts a tesseract engine through the gosseract bindings.
func NewGosseract(cfg Config) (Recognizer, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(cfg.TesseractLang); err != nil {
		_ = client.Close()
		return nil, err
	}
	if cfg.PSM > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.PSM)); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	return &gosseractEngine{client: client}, nil
}

func (g *gosseractEngine) Recognize(imagePath string) (string, error) {
	if err := g.client.SetImage(imagePath); err != nil {
		return "", err
	}
	return g.client.Text()
}

func (g *gosseractEngine) Close() error {
	return g.client.Close()
}
