package llm

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/case-analyzer/constants"
)

var fixedNow = time.Date(2024, 3, 5, 10, 20, 30, 123_000_000, time.FixedZone("IST", 19800))

func fixed() []NormalizeOption {
	return []NormalizeOption{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func(time.Time) string { return "CASE-1-deadbeef" }),
	}
}

func TestNormalizeJSON(t *testing.T) {
	raw := `{"caseTitle":"ACIT v. Sharma","caseNumber":"ITA 12/Del/2023","courtLevel":"ITAT",
	"keyIssues":["Section 68 addition", 4, ""],"successProbability":142.6,
	"recommendation":"APPEAL","reasoning":"Cash credits unexplained"}`
	rec := Normalize(raw, "/tmp/uploads/order.pdf", fixed()...)

	assert.Equal(t, "CASE-1-deadbeef", rec.CaseID)
	assert.Equal(t, "order.pdf", rec.FileName)
	assert.Equal(t, "ACIT v. Sharma", rec.Title)
	assert.Equal(t, rec.Title, rec.CaseTitle)
	assert.Equal(t, "ITA 12/Del/2023", rec.CaseNumber)
	assert.Equal(t, "N/A", rec.DateOfOrder)
	assert.Equal(t, []string{"Section 68 addition", ""}, rec.KeyIssues)
	assert.NotNil(t, rec.StatutoryProvisions)
	assert.Empty(t, rec.StatutoryProvisions)
	assert.Equal(t, 100, rec.SuccessProbability)
	assert.Equal(t, constants.RecommendAppeal, rec.Recommendation)
	assert.Equal(t, "", rec.PrecedentAnalysis)
	assert.Equal(t, raw, rec.RawAnalysis)
	assert.Equal(t, "2024-03-05T04:50:30.123Z", rec.AnalysisTimestamp)
	assert.Equal(t, constants.TierTribunal, rec.CaseTier())
}

func TestNormalizeKeepsSchemaValidJSONVerbatim(t *testing.T) {
	raw := `{"caseTitle":" CIT v. Mehta ","caseNumber":"ITA 7/2020","courtLevel":"High Court",
	"dateOfOrder":"2021-04-01","keyIssues":["Issue one ","","x"],
	"statutoryProvisions":["  s. 147","s. 148 "],"successProbability":61,"recommendation":"review",
	"reasoning":"  Facts:\n  indented\n","precedentAnalysis":" p ","potentialOutcome":"o\n"}`
	require.NoError(t, ValidateAnalysis([]byte(raw)))

	rec := Normalize(raw, "order.pdf", fixed()...)
	assert.Equal(t, " CIT v. Mehta ", rec.CaseTitle)
	assert.Equal(t, rec.CaseTitle, rec.Title)
	assert.Equal(t, "ITA 7/2020", rec.CaseNumber)
	assert.Equal(t, "High Court", rec.CourtLevel)
	assert.Equal(t, "2021-04-01", rec.DateOfOrder)
	assert.Equal(t, []string{"Issue one ", "", "x"}, rec.KeyIssues)
	assert.Equal(t, []string{"  s. 147", "s. 148 "}, rec.StatutoryProvisions)
	assert.Equal(t, 61, rec.SuccessProbability)
	assert.Equal(t, constants.RecommendReview, rec.Recommendation)
	assert.Equal(t, "  Facts:\n  indented\n", rec.Reasoning)
	assert.Equal(t, " p ", rec.PrecedentAnalysis)
	assert.Equal(t, "o\n", rec.PotentialOutcome)
}

func TestNormalizeDefaults(t *testing.T) {
	rec := Normalize(`{"title":"","successProbability":"80","recommendation":"maybe"}`, "brief.txt", fixed()...)
	assert.Equal(t, "brief", rec.Title)
	assert.Equal(t, 50, rec.SuccessProbability)
	assert.Equal(t, constants.RecommendReview, rec.Recommendation)
	assert.Equal(t, "No detailed reasoning provided.", rec.Reasoning)
	assert.Equal(t, "N/A", rec.CaseNumber)
	assert.Equal(t, "N/A", rec.CourtLevel)
}

func TestNormalizeFencedJSON(t *testing.T) {
	raw := "Here is my analysis:\n```json   \n{\"title\":\"Fenced\",\"successProbability\":35,\"recommendation\":\"dont-appeal\"}\n```\nThanks"
	rec := Normalize(raw, "x.pdf", fixed()...)
	assert.Equal(t, "Fenced", rec.Title)
	assert.Equal(t, 35, rec.SuccessProbability)
	assert.Equal(t, constants.RecommendDontAppeal, rec.Recommendation)
	assert.Equal(t, raw, rec.RawAnalysis)
}

func TestNormalizeRegexFallback(t *testing.T) {
	raw := `The success probability is about 65 percent. My recommendation: appeal.
reasoning: "The tribunal ignored binding precedent."`
	rec := Normalize(raw, "/cases/Order 7.pdf", fixed()...)

	assert.Equal(t, "Order 7", rec.Title)
	assert.Equal(t, 65, rec.SuccessProbability)
	assert.Equal(t, constants.RecommendAppeal, rec.Recommendation)
	assert.Equal(t, "The tribunal ignored binding precedent.", rec.Reasoning)
	assert.Equal(t, "N/A", rec.CaseNumber)
	assert.Empty(t, rec.KeyIssues)
	assert.NotNil(t, rec.KeyIssues)
}

func TestRegexFallbackExcerpt(t *testing.T) {
	raw := strings.Repeat("é", 800)
	rec := regexFallback(raw, "doc.pdf")
	assert.Equal(t, strings.Repeat("é", 500)+"...", rec.Reasoning)
	assert.Equal(t, 50, rec.SuccessProbability)
	assert.Equal(t, constants.RecommendReview, rec.Recommendation)

	assert.Equal(t, "Analysis parsing failed. Please review the raw analysis.", regexFallback("", "doc.pdf").Reasoning)
	assert.Equal(t, 100, regexFallback("success probability 250", "d.pdf").SuccessProbability)
}

func TestNormalizeNeverPanics(t *testing.T) {
	for _, raw := range []string{"", "null", "[]", "{", "```json\n{broken\n```", `{"keyIssues":"not a list"}`} {
		require.NotPanics(t, func() { Normalize(raw, "a.pdf") }, raw)
	}
}

func TestNewCaseID(t *testing.T) {
	id := NewCaseID(time.UnixMilli(1712345678901))
	assert.Regexp(t, `^CASE-1712345678901-[0-9a-f]{8}$`, id)
	assert.NotEqual(t, id, NewCaseID(time.UnixMilli(1712345678901)))
}

func TestTruncationBudget(t *testing.T) {
	b := TruncationBudget{}
	assert.Equal(t, 64000, b.Limit())
	assert.Equal(t, 40000, b.Head())
	assert.Equal(t, 24000, b.Tail())

	exact := strings.Repeat("x", 64000)
	out, truncated := b.Truncate(exact)
	assert.False(t, truncated)
	assert.Equal(t, exact, out)

	small := TruncationBudget{MaxTokens: 10}
	out, truncated = small.Truncate(strings.Repeat("ä", 41))
	assert.True(t, truncated)
	assert.Equal(t, strings.Repeat("ä", 25)+TruncationMarker+strings.Repeat("ä", 15), out)
}

func TestPromptSource(t *testing.T) {
	p, err := PromptSource{}.Load()
	require.NoError(t, err)
	assert.Contains(t, p, "successProbability")

	_, err = PromptSource{Path: "/nonexistent/prompt.md"}.Load()
	assert.Error(t, err)
}

func TestValidateAnalysis(t *testing.T) {
	assert.NoError(t, ValidateAnalysis([]byte(`{"successProbability":40,"recommendation":"review","reasoning":"ok"}`)))
	assert.Error(t, ValidateAnalysis([]byte(`{"successProbability":400,"recommendation":"review","reasoning":"ok"}`)))
	assert.Error(t, ValidateAnalysis([]byte(`{"recommendation":"sue"}`)))
}
