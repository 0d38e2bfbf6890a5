package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner emulates pdftoppm by writing empty PNGs next to the requested prefix,
// and tesseract by returning canned text per image.
type fakeRunner struct {
	pages    int
	failOn   map[string]bool
	calls    []string
	tmpDirs  []string
	pdftoErr error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, name+" "+strings.Join(args, " "))
	switch name {
	case "pdftoppm":
		if f.pdftoErr != nil {
			return nil, []byte("bad pdf"), f.pdftoErr
		}
		prefix := args[len(args)-1]
		f.tmpDirs = append(f.tmpDirs, filepath.Dir(prefix))
		for i := 1; i <= f.pages; i++ {
			if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), nil, 0o644); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		img := filepath.Base(args[0])
		if f.failOn[img] {
			return nil, []byte("read error"), errors.New("exit status 1")
		}
		return []byte("text of " + img), nil, nil
	}
	return nil, nil, fmt.Errorf("unexpected command %s", name)
}

func TestCLIRunnerJoinsPagesAndSkipsFailures(t *testing.T) {
	fr := &fakeRunner{pages: 3, failOn: map[string]bool{"page-2.png": true}}
	r := NewCLIRunner(Config{}, fr, nil)

	text, err := r.RecognizePDF(context.Background(), "/docs/scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "text of page-1.png\n\ntext of page-3.png", text)

	require.NotEmpty(t, fr.calls)
	assert.Contains(t, fr.calls[0], "pdftoppm -png -r 300 -f 1 -l 5 /docs/scan.pdf")
	assert.Contains(t, fr.calls[1], "stdout --oem 1 --psm 3 -l eng")

	for _, d := range fr.tmpDirs {
		assert.NoDirExists(t, d)
	}
}

func TestCLIRunnerErrors(t *testing.T) {
	t.Run("no page text", func(t *testing.T) {
		fr := &fakeRunner{pages: 1, failOn: map[string]bool{"page-1.png": true}}
		_, err := NewCLIRunner(Config{}, fr, nil).RecognizePDF(context.Background(), "x.pdf")
		assert.Error(t, err)
	})
	t.Run("no images", func(t *testing.T) {
		fr := &fakeRunner{pages: 0}
		_, err := NewCLIRunner(Config{}, fr, nil).RecognizePDF(context.Background(), "x.pdf")
		assert.ErrorContains(t, err, "no images")
	})
	t.Run("pdftoppm fails", func(t *testing.T) {
		fr := &fakeRunner{pdftoErr: errors.New("exit status 99")}
		_, err := NewCLIRunner(Config{}, fr, nil).RecognizePDF(context.Background(), "x.pdf")
		assert.ErrorContains(t, err, "pdftoppm")
		for _, d := range fr.tmpDirs {
			assert.NoDirExists(t, d)
		}
	})
}

func TestCLIRunnerWithTools(t *testing.T) {
	fr := &fakeRunner{pages: 1}
	r := NewCLIRunner(Config{}, fr, nil).WithTools(Availability{Available: true, Pdftoppm: "/opt/bin/pdftoppm"})
	_, _ = r.RecognizePDF(context.Background(), "x.pdf")
	require.NotEmpty(t, fr.calls)
	assert.True(t, strings.HasPrefix(fr.calls[0], "/opt/bin/pdftoppm "))
}

func TestToolAvailabilityMemoized(t *testing.T) {
	calls := 0
	tools := map[string]string{"pdftoppm": "/usr/bin/pdftoppm"}
	lookup := func(name string) (string, error) {
		calls++
		if p, ok := tools[name]; ok {
			return p, nil
		}
		return "", errors.New("executable file not found in $PATH")
	}
	p := NewProbe("", "", WithLookup(lookup))

	a := p.Check(context.Background())
	assert.False(t, a.Available)
	assert.Equal(t, "/usr/bin/pdftoppm", a.Pdftoppm)
	assert.Empty(t, a.Tesseract)

	p.Check(context.Background())
	assert.Equal(t, 2, calls, "result is memoized")

	tools["tesseract"] = "/usr/bin/tesseract"
	a = p.Refresh(context.Background())
	assert.True(t, a.Available)
	assert.Equal(t, 4, calls)
}

func TestCancelledAvailabilityCheckNotRemembered(t *testing.T) {
	calls := 0
	p := NewProbe("", "", WithLookup(func(name string) (string, error) {
		calls++
		return "/usr/bin/" + name, nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, p.Check(ctx).Available)
	assert.Zero(t, calls)

	a := p.Check(context.Background())
	assert.True(t, a.Available)
	assert.Equal(t, "/usr/bin/tesseract", a.Tesseract)
	assert.Equal(t, 2, calls)

	p.Check(ctx)
	assert.Equal(t, 2, calls, "completed result is kept even for a cancelled caller")
}

type fakeRasterizer struct {
	pages      int
	dir        string
	renderFail map[int]bool
}

func (f *fakeRasterizer) Rasterize(_ context.Context, _, outDir string, maxPages, _ int) ([]string, error) {
	f.dir = outDir
	n := f.pages
	if n > maxPages {
		n = maxPages
	}
	var out []string
	var errs []error
	for i := 1; i <= n; i++ {
		if f.renderFail[i] {
			errs = append(errs, fmt.Errorf("page %d: render failed", i))
			continue
		}
		p := filepath.Join(outDir, fmt.Sprintf("page-%03d.png", i))
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, errors.Join(errs...)
}

type fakeRecognizer struct {
	fail   map[string]bool
	closed bool
	seen   int
}

func (f *fakeRecognizer) Recognize(p string) (string, error) {
	f.seen++
	if f.fail[filepath.Base(p)] {
		return "", errors.New("engine failure")
	}
	return "ocr " + filepath.Base(p), nil
}

func (f *fakeRecognizer) Close() error {
	f.closed = true
	return nil
}

func TestLibraryRunner(t *testing.T) {
	rast := &fakeRasterizer{pages: 5}
	engine := &fakeRecognizer{fail: map[string]bool{"page-002.png": true}}
	r := NewLibraryRunner(Config{}, nil,
		WithRasterizer(rast),
		WithRecognizerFactory(func(Config) (Recognizer, error) { return engine, nil }),
	)

	text, err := r.RecognizePDF(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "ocr page-001.png\n\nocr page-003.png", text)
	assert.Equal(t, 3, engine.seen, "library OCR stops at three pages")
	assert.True(t, engine.closed)
	assert.NoDirExists(t, rast.dir)
}

func TestLibraryRunnerKeepsPagesRenderedBeforeAFailure(t *testing.T) {
	engine := &fakeRecognizer{}
	r := NewLibraryRunner(Config{}, nil,
		WithRasterizer(&fakeRasterizer{pages: 3, renderFail: map[int]bool{3: true}}),
		WithRecognizerFactory(func(Config) (Recognizer, error) { return engine, nil }),
	)

	text, err := r.RecognizePDF(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "ocr page-001.png\n\nocr page-002.png", text)
	assert.Equal(t, 2, engine.seen)
}

func TestLibraryRunnerSkipsUnrenderablePage(t *testing.T) {
	engine := &fakeRecognizer{}
	r := NewLibraryRunner(Config{}, nil,
		WithRasterizer(&fakeRasterizer{pages: 3, renderFail: map[int]bool{2: true}}),
		WithRecognizerFactory(func(Config) (Recognizer, error) { return engine, nil }),
	)

	text, err := r.RecognizePDF(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "ocr page-001.png\n\nocr page-003.png", text)
}

func TestLibraryRunnerFailsWhenNoPageRenders(t *testing.T) {
	created := false
	r := NewLibraryRunner(Config{}, nil,
		WithRasterizer(&fakeRasterizer{pages: 2, renderFail: map[int]bool{1: true, 2: true}}),
		WithRecognizerFactory(func(Config) (Recognizer, error) {
			created = true
			return &fakeRecognizer{}, nil
		}),
	)

	_, err := r.RecognizePDF(context.Background(), "scan.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 2: render failed")
	assert.False(t, created)
}

func TestLibraryRunnerClosesEngineOnTotalFailure(t *testing.T) {
	engine := &fakeRecognizer{fail: map[string]bool{"page-001.png": true}}
	r := NewLibraryRunner(Config{}, nil,
		WithRasterizer(&fakeRasterizer{pages: 1}),
		WithRecognizerFactory(func(Config) (Recognizer, error) { return engine, nil }),
	)
	_, err := r.RecognizePDF(context.Background(), "scan.pdf")
	assert.Error(t, err)
	assert.True(t, engine.closed)
}

func TestNormalize(t *testing.T) {
	in := "Order  of\tthe Tribunal\r\n\r\n\r\n\r\n_______\nSection 271(1)(c)   \n\f"
	assert.Equal(t, "Order of the Tribunal\n\nSection 271(1)(c)", Normalize(in))
	assert.Equal(t, "", Normalize("  \n\n "))
	assert.Equal(t, "a\n\nb", joinPages([]string{"a ", "   ", "b\n"}))
}

func TestExecRunnerMissingTool(t *testing.T) {
	_, _, err := NewExecRunner(nil).Run(context.Background(), filepath.Join(t.TempDir(), "no-such-tesseract"), "page-1.png", "stdout")
	require.Error(t, err)
	assert.Equal(t, -1, exitCode(err))
}

func TestRunnerHelpers(t *testing.T) {
	assert.Equal(t, "page-3.png", lastInput([]string{"/tmp/x/page-3.png", "stdout", "-l", "eng"}))
	assert.Equal(t, "order.pdf", lastInput([]string{"-png", "-r", "300", "/docs/order.pdf", "/tmp/page"}))
	assert.Empty(t, lastInput([]string{"--version"}))

	assert.Equal(t, "short", stderrSummary([]byte("  short \n"), 10))
	assert.Equal(t, "...Error: bad xref", stderrSummary([]byte("warning: junk\nError: bad xref"), 15))
}
