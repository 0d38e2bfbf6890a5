package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/case-analyzer/constants"
	"github.com/joseph-ayodele/case-analyzer/internal/common"
	"github.com/joseph-ayodele/case-analyzer/internal/extract"
	"github.com/joseph-ayodele/case-analyzer/internal/llm"
	"github.com/joseph-ayodele/case-analyzer/internal/metrics"
)

type fakeAnalyst struct {
	out    string
	docs   []string
	system string
}

func (f *fakeAnalyst) Analyze(_ context.Context, doc, system string) string {
	f.docs = append(f.docs, doc)
	f.system = system
	return f.out
}

func newProcessor(t *testing.T, an Analyst, prompt llm.PromptSource, m *metrics.Metrics) *Processor {
	t.Helper()
	chain := extract.NewChain(nil, nil)
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	stage := NewAnalysisStage(nil, prompt, an,
		llm.WithClock(func() time.Time { return fixed }),
		llm.WithIDGenerator(func(time.Time) string { return "CASE-1-abcdef12" }),
	)
	return NewProcessor(nil, NewExtractStage(chain, nil), stage, m)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestAnalyzeCaseText(t *testing.T) {
	body := strings.Repeat("The assessee appealed the order of the Commissioner. ", 5)
	path := writeFile(t, "order-77.txt", body)
	an := &fakeAnalyst{out: `{"caseTitle":"X v. ITO","courtLevel":"ITAT Mumbai","successProbability":72,"recommendation":"Appeal"}`}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	rec, err := newProcessor(t, an, llm.PromptSource{}, m).AnalyzeCase(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, an.docs, 1)
	assert.Equal(t, body, an.docs[0])
	assert.Equal(t, llm.DefaultSystemPrompt(), an.system)

	assert.Equal(t, "CASE-1-abcdef12", rec.CaseID)
	assert.Equal(t, "X v. ITO", rec.Title)
	assert.Equal(t, "order-77.txt", rec.FileName)
	assert.Equal(t, 72, rec.SuccessProbability)
	assert.Equal(t, constants.RecommendAppeal, rec.Recommendation)
	assert.Equal(t, constants.TierTribunal, rec.CaseTier())
	assert.Equal(t, "2024-03-01T10:00:00.000Z", rec.AnalysisTimestamp)
	assert.Equal(t, an.out, rec.RawAnalysis)

	n, err := testutil.GatherAndCount(reg, "case_analyzer_analyses_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAnalyzeCaseCustomPrompt(t *testing.T) {
	promptPath := writeFile(t, "prompt.md", "custom system prompt")
	path := writeFile(t, "a.txt", strings.Repeat("x", 200))
	an := &fakeAnalyst{out: "{}"}

	_, err := newProcessor(t, an, llm.PromptSource{Path: promptPath}, nil).AnalyzeCase(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "custom system prompt", an.system)

	_, err = newProcessor(t, an, llm.PromptSource{Path: promptPath + ".missing"}, nil).AnalyzeCase(context.Background(), path)
	assert.Error(t, err)
}

func TestAnalyzeCaseExtractionErrors(t *testing.T) {
	an := &fakeAnalyst{out: "{}"}
	p := newProcessor(t, an, llm.PromptSource{}, nil)
	ctx := context.Background()

	_, err := p.AnalyzeCase(ctx, filepath.Join(t.TempDir(), "gone.pdf"))
	assert.True(t, errors.Is(err, common.ErrNotFound))

	_, err = p.AnalyzeCase(ctx, writeFile(t, "brief.docx", "binary"))
	assert.True(t, errors.Is(err, common.ErrUnsupportedType))

	_, err = p.AnalyzeCase(ctx, writeFile(t, "empty.txt", "  \n "))
	assert.True(t, errors.Is(err, common.ErrNoText))

	assert.Empty(t, an.docs)
}

func TestAnalyzeCaseShortTextStillNormalizes(t *testing.T) {
	path := writeFile(t, "short.txt", "tiny order")
	an := &fakeAnalyst{out: llm.EmptyDocumentPayload()}

	rec, err := newProcessor(t, an, llm.PromptSource{}, nil).AnalyzeCase(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Document Analysis Error", rec.Title)
	assert.Equal(t, 50, rec.SuccessProbability)
	assert.Equal(t, constants.RecommendReview, rec.Recommendation)
}
