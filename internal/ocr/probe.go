package ocr

import (
	"context"
	"log/slog"
	"os/exec"
	"sync"
)

// Availability is the outcome of looking up the OCR binaries on PATH.
type Availability struct {
	Available bool
	Pdftoppm  string
	Tesseract string
}

// LookupFunc resolves a binary name to an absolute path.
type LookupFunc func(name string) (string, error)

// Probe checks whether pdftoppm and tesseract can be executed and remembers
// the first completed answer.
type Probe struct {
	pdftoppm  string
	tesseract string
	lookup    LookupFunc
	logger    *slog.Logger

	mu     sync.Mutex
	done   bool
	result Availability
}

type ProbeOption func(*Probe)

func WithLookup(fn LookupFunc) ProbeOption { return func(p *Probe) { p.lookup = fn } }

func WithProbeLogger(l *slog.Logger) ProbeOption { return func(p *Probe) { p.logger = l } }

func NewProbe(pdftoppm, tesseract string, opts ...ProbeOption) *Probe {
	if pdftoppm == "" {
		pdftoppm = "pdftoppm"
	}
	if tesseract == "" {
		tesseract = "tesseract"
	}
	p := &Probe{
		pdftoppm:  pdftoppm,
		tesseract: tesseract,
		lookup:    exec.LookPath,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Check returns the memoized availability. It never fails; a missing tool is
// reported as Available=false. A probe cut short by ctx is returned but not
// remembered, so the next call looks again.
func (p *Probe) Check(ctx context.Context) Availability {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return p.result
	}
	res, ok := p.probe(ctx)
	if ok {
		p.result, p.done = res, true
	}
	return res
}

// Refresh discards the memoized result and probes again.
func (p *Probe) Refresh(ctx context.Context) Availability {
	p.mu.Lock()
	p.done = false
	p.mu.Unlock()
	return p.Check(ctx)
}

func (p *Probe) probe(ctx context.Context) (Availability, bool) {
	var res Availability
	if ctx.Err() != nil {
		p.logger.Warn("ocr.probe.cancelled", "error", ctx.Err())
		return res, false
	}
	pp, err := p.lookup(p.pdftoppm)
	if err != nil {
		p.logger.Info("ocr.probe.missing", "tool", p.pdftoppm, "error", err)
	}
	ts, err2 := p.lookup(p.tesseract)
	if err2 != nil {
		p.logger.Info("ocr.probe.missing", "tool", p.tesseract, "error", err2)
	}
	res.Pdftoppm = pp
	res.Tesseract = ts
	res.Available = err == nil && err2 == nil && pp != "" && ts != ""
	p.logger.Info("ocr.probe.done", "available", res.Available, "pdftoppm", pp, "tesseract", ts)
	return res, true
}
