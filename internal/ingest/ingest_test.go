package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/case-analyzer/internal/async"
)

type recordingSubmitter struct {
	mu    sync.Mutex
	paths []string
	fail  string
}

func (r *recordingSubmitter) Enqueue(_ context.Context, job async.Job) error {
	if filepath.Base(job.Path) == r.fail {
		return errors.New("full")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, job.Path)
	return nil
}

func (r *recordingSubmitter) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.paths...)
	sort.Strings(out)
	return out
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestSubmitDirectory(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.pdf"))
	touch(t, filepath.Join(root, "nested", "b.TXT"))
	touch(t, filepath.Join(root, "nested", "c.docx"))
	touch(t, filepath.Join(root, ".hidden", "d.pdf"))
	touch(t, filepath.Join(root, "e.pdf"))

	sub := &recordingSubmitter{fail: "e.pdf"}
	results, stats, err := SubmitDirectory(context.Background(), sub, root, nil, true)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(root, "a.pdf"), filepath.Join(root, "nested", "b.TXT")}, sub.snapshot())
	assert.EqualValues(t, 3, stats.Matched)
	assert.EqualValues(t, 2, stats.Submitted)
	assert.EqualValues(t, 1, stats.Failed)
	assert.Len(t, results, 3)

	sub = &recordingSubmitter{}
	_, stats, err = SubmitDirectory(context.Background(), sub, root, []string{".docx"}, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Submitted)

	_, _, err = SubmitDirectory(context.Background(), sub, " ", nil, false)
	assert.Error(t, err)
}

func TestExtSet(t *testing.T) {
	assert.Equal(t, DefaultExts(), ExtSet(nil))
	assert.Equal(t, map[string]struct{}{"pdf": {}, "doc": {}}, ExtSet([]string{" .PDF", "doc", ""}))
	assert.True(t, IsHidden("/x/.git"))
	assert.False(t, IsHidden("."))
}

func TestStartWatcherEmitsNewFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "existing.pdf"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true})
	require.NoError(t, err)

	seen := map[string]bool{}
	wait := func(name string) {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for !seen[name] {
			select {
			case p := <-events:
				seen[filepath.Base(p)] = true
			case <-deadline:
				t.Fatalf("no event for %s", name)
			}
		}
	}
	wait("existing.pdf")

	touch(t, filepath.Join(root, "new.txt"))
	touch(t, filepath.Join(root, "ignored.png"))
	wait("new.txt")
	assert.False(t, seen["ignored.png"])

	cancel()
	for range events {
	}
}

func TestStartWatcherRequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}
