package extract

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	lineBreakThreshold = 1.0
	wordGapThreshold   = 2.0
)

// EnhancedText rebuilds each page from glyph coordinates, which keeps reading
// order on PDFs whose content stream is not laid out top to bottom.
func EnhancedText(ctx context.Context, path string) (string, error) {
	return eachPage(ctx, path, func(p pdf.Page) (string, error) {
		return layoutGlyphs(p.Content().Text), nil
	})
}

// PlainText returns the text layer as the PDF content stream orders it.
func PlainText(ctx context.Context, path string) (string, error) {
	return eachPage(ctx, path, func(p pdf.Page) (string, error) {
		return p.GetPlainText(nil)
	})
}

func eachPage(ctx context.Context, path string, fn func(pdf.Page) (string, error)) (out string, err error) {
	// the pdf reader panics on some malformed documents
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf %q: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	n := r.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := fn(p)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), nil
}

func layoutGlyphs(glyphs []pdf.Text) string {
	items := make([]pdf.Text, len(glyphs))
	copy(items, glyphs)
	sort.SliceStable(items, func(i, j int) bool {
		if math.Abs(items[i].Y-items[j].Y) < lineBreakThreshold {
			return items[i].X < items[j].X
		}
		return items[i].Y > items[j].Y
	})

	var b strings.Builder
	var lastY, lastX float64
	haveY, haveX := false, false
	for _, t := range items {
		if haveY && math.Abs(t.Y-lastY) > lineBreakThreshold {
			b.WriteByte('\n')
			haveX = false
		}
		if haveX && t.X-lastX > wordGapThreshold {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		lastY, haveY = t.Y, true
		lastX, haveX = t.X+t.W, true
	}
	return b.String()
}
