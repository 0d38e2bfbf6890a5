// Package similar samples reference cases from a tiered directory tree.
// It is a stand-in for real similarity search: cases are picked at random
// from the folder matching the court tier.
package similar

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"

	"github.com/joseph-ayodele/case-analyzer/constants"
	"github.com/joseph-ayodele/case-analyzer/internal/common"
)

// Finder looks in <Root>/level-<tier>/<subdir>/ for sample cases.
type Finder struct {
	root   string
	intn   func(n int) int
	logger *slog.Logger
}

type Option func(*Finder)

// WithRand replaces the subdirectory picker; intn must return a value in [0, n).
func WithRand(intn func(n int) int) Option { return func(f *Finder) { f.intn = intn } }

func WithLogger(l *slog.Logger) Option { return func(f *Finder) { f.logger = l } }

func NewFinder(root string, opts ...Option) *Finder {
	f := &Finder{root: root, intn: rand.IntN, logger: slog.Default()}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Find returns up to limit entry paths from one random subdirectory of the tier
// folder, in name order. Any failure yields an empty slice.
func (f *Finder) Find(ctx context.Context, tier constants.Tier, limit int) []string {
	logger := common.LoggerFrom(ctx, f.logger)
	if limit <= 0 || !tier.Valid() {
		return []string{}
	}

	levelDir := filepath.Join(f.root, fmt.Sprintf("level-%d", tier))
	subdirs, err := dirs(levelDir)
	if err != nil {
		logger.Debug("similar.level.unreadable", "dir", levelDir, "err", err)
		return []string{}
	}
	if len(subdirs) == 0 {
		return []string{}
	}

	pick := filepath.Join(levelDir, subdirs[f.intn(len(subdirs))])
	entries, err := os.ReadDir(pick)
	if err != nil {
		logger.Warn("similar.dir.unreadable", "dir", pick, "err", err)
		return []string{}
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if len(names) > limit {
		names = names[:limit]
	}

	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, filepath.Join(pick, n))
	}
	logger.Debug("similar.found", "tier", int(tier), "dir", pick, "count", len(out))
	return out
}

func dirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
