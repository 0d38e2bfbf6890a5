package repository

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/case-analyzer/constants"
	"github.com/joseph-ayodele/case-analyzer/internal/common"
	"github.com/joseph-ayodele/case-analyzer/internal/entity"
)

func record(id, ts string) entity.AnalysisRecord {
	return entity.AnalysisRecord{
		CaseID:              id,
		Title:               "Title " + id,
		KeyIssues:           []string{"penalty"},
		StatutoryProvisions: []string{},
		SuccessProbability:  60,
		Recommendation:      constants.RecommendAppeal,
		AnalysisTimestamp:   ts,
		SimilarCases:        []string{},
	}
}

func uploadFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

// storeContract runs the same expectations against every backend.
func storeContract(t *testing.T, s CaseStore) {
	ctx := context.Background()

	_, err := s.GetRecord(ctx, "CASE-1-aaaa")
	assert.True(t, errors.Is(err, common.ErrNotFound))
	_, err = s.FindDocument(ctx, "CASE-1-aaaa")
	assert.True(t, errors.Is(err, common.ErrNotFound))

	require.NoError(t, s.SaveRecord(ctx, record("CASE-1-aaaa", "2024-01-01T00:00:00.000Z")))
	require.NoError(t, s.SaveRecord(ctx, record("CASE-2-bbbb", "2024-02-01T00:00:00.000Z")))

	got, err := s.GetRecord(ctx, "CASE-1-aaaa")
	require.NoError(t, err)
	assert.Equal(t, record("CASE-1-aaaa", "2024-01-01T00:00:00.000Z"), got)

	src := uploadFile(t, "1700-Order.PDF", "%PDF-1.4")
	loc, err := s.PutDocument(ctx, "CASE-1-aaaa", src)
	require.NoError(t, err)
	assert.NotEmpty(t, loc)
	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err), "upload is moved, not copied")

	name, err := s.FindDocument(ctx, "CASE-1-aaaa")
	require.NoError(t, err)
	assert.Equal(t, "CASE-1-aaaa.pdf", name)

	recs, err := s.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "CASE-2-bbbb", recs[0].CaseID)

	_, err = s.GetRecord(ctx, "../etc/passwd")
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, nil)
	require.NoError(t, err)
	storeContract(t, s)

	b, err := os.ReadFile(filepath.Join(dir, "CASE-2-bbbb.json"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"caseId": "CASE-2-bbbb"`)
}

func TestLocalStoreSkipsCorruptRecords(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CASE-9-bad.json"), []byte("{not json"), 0o644))
	require.NoError(t, s.SaveRecord(context.Background(), record("CASE-3-cccc", "2024-03-01T00:00:00.000Z")))

	recs, err := s.ListRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "CASE-3-cccc", recs[0].CaseID)
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = b
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestS3Store(t *testing.T) {
	fake := newFakeS3()
	s := NewS3StoreWithClient(fake, "bucket", nil)
	storeContract(t, s)

	assert.Equal(t, "application/pdf", fake.types["cases/CASE-1-aaaa.pdf"])
	assert.Equal(t, "application/json", fake.types["cases/CASE-1-aaaa.json"])
}

func TestNewCaseStoreSelectsBackend(t *testing.T) {
	ctx := context.Background()
	s, err := NewCaseStore(ctx, common.StorageConfig{Type: common.StorageLocal, LocalPath: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, s)

	_, err = NewCaseStore(ctx, common.StorageConfig{Type: common.StorageS3}, nil)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))

	_, err = NewCaseStore(ctx, common.StorageConfig{Type: "ftp"}, nil)
	assert.Error(t, err)
}
