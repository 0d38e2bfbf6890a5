// Package ocr recovers text from image-only PDFs, either through the pdftoppm and
// tesseract binaries or in-process with go-fitz and gosseract.
package ocr

import (
	"context"
	"strings"
	"time"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI, default 300
	MaxPages      int    // pages rasterized per document

	TessdataDir string

	PSM int // page segmentation mode, default 3
	OEM int // 1 = LSTM

	Timeout time.Duration // whole-document budget; 0 = none
}

func (c Config) withDefaults(maxPages int) Config {
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.TesseractLang == "" {
		c.TesseractLang = "eng"
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	if c.MaxPages <= 0 {
		c.MaxPages = maxPages
	}
	if c.PSM <= 0 {
		c.PSM = 3
	}
	if c.OEM <= 0 {
		c.OEM = 1
	}
	return c
}

// OCRRunner turns the first pages of a PDF into text.
type OCRRunner interface {
	Name() string
	RecognizePDF(ctx context.Context, pdfPath string) (string, error)
}

// joinPages normalizes each page and drops the ones left empty.
func joinPages(pages []string) string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		if p = Normalize(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}
