package similar

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/case-analyzer/constants"
)

func seed(t *testing.T, root string, files map[string][]string) {
	t.Helper()
	for dir, names := range files {
		full := filepath.Join(root, dir)
		require.NoError(t, os.MkdirAll(full, 0o755))
		for _, n := range names {
			require.NoError(t, os.WriteFile(filepath.Join(full, n), []byte("case"), 0o644))
		}
	}
}

func TestFindPicksSubdirAndLimits(t *testing.T) {
	root := t.TempDir()
	seed(t, root, map[string][]string{
		"level-2/alpha": {"c.pdf", "a.pdf", "b.pdf"},
		"level-2/beta":  {"z.pdf"},
	})

	f := NewFinder(root, WithRand(func(n int) int { return 0 }))
	got := f.Find(context.Background(), constants.TierTribunal, 2)
	assert.Equal(t, []string{
		filepath.Join(root, "level-2", "alpha", "a.pdf"),
		filepath.Join(root, "level-2", "alpha", "b.pdf"),
	}, got)

	f = NewFinder(root, WithRand(func(n int) int { return n - 1 }))
	got = f.Find(context.Background(), constants.TierTribunal, 2)
	assert.Equal(t, []string{filepath.Join(root, "level-2", "beta", "z.pdf")}, got)
}

func TestFindEmptyCases(t *testing.T) {
	root := t.TempDir()
	seed(t, root, map[string][]string{"level-1": {"loose.pdf"}})
	f := NewFinder(root)
	ctx := context.Background()

	assert.Empty(t, f.Find(ctx, constants.TierCommissioner, 2), "no subdirectories")
	assert.NotNil(t, f.Find(ctx, constants.TierCommissioner, 2))
	assert.Empty(t, f.Find(ctx, constants.TierSupremeCourt, 2), "missing level dir")
	assert.Empty(t, f.Find(ctx, constants.Tier(9), 2))
	assert.Empty(t, f.Find(ctx, constants.TierCommissioner, 0))
	assert.Empty(t, NewFinder(filepath.Join(root, "nope")).Find(ctx, constants.TierHighCourt, 2))
}
