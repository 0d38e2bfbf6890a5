package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/case-analyzer/constants"
	"github.com/joseph-ayodele/case-analyzer/internal/entity"
)

const (
	notAvailable        = "N/A"
	defaultProbability  = 50
	defaultReasoning    = "No detailed reasoning provided."
	fallbackReasoning   = "Analysis parsing failed. Please review the raw analysis."
	fallbackExcerptRune = 500
	timestampLayout     = "2006-01-02T15:04:05.000Z07:00"
)

var (
	reFencedJSON      = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")
	reProbability     = regexp.MustCompile(`(?i)success(?:.*?)probability(?:.*?)([0-9]+)`)
	reRecommendation  = regexp.MustCompile(`(?i)recommendation(?:.*?)(appeal|dont-appeal|review)`)
	reReasoningQuoted = regexp.MustCompile(`(?i)reasoning(?:.*?)"([\s\S]*?)"`)
)

type normalizer struct {
	now    func() time.Time
	newID  func(time.Time) string
	logger *slog.Logger
}

type NormalizeOption func(*normalizer)

// WithClock fixes the time used for the timestamp and case id.
func WithClock(now func() time.Time) NormalizeOption {
	return func(n *normalizer) { n.now = now }
}

// WithIDGenerator replaces NewCaseID.
func WithIDGenerator(fn func(time.Time) string) NormalizeOption {
	return func(n *normalizer) { n.newID = fn }
}

func WithNormalizeLogger(l *slog.Logger) NormalizeOption {
	return func(n *normalizer) { n.logger = l }
}

// NewCaseID returns CASE-<unixMillis>-<8 hex chars>.
func NewCaseID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("CASE-%d-%s", now.UnixMilli(), suffix)
}

// Normalize turns a raw model response into an AnalysisRecord. It tries a bare JSON
// object, then a ```json fenced block, then regex scraping, and never fails.
func Normalize(raw, sourcePath string, opts ...NormalizeOption) entity.AnalysisRecord {
	n := normalizer{now: time.Now, newID: NewCaseID, logger: slog.Default()}
	for _, o := range opts {
		o(&n)
	}
	now := n.now()
	fileName := filepath.Base(sourcePath)

	var rec entity.AnalysisRecord
	if data, ok := n.decode(raw); ok {
		rec = coerce(data, fileName)
	} else {
		n.logger.Warn("llm.normalize.regex_fallback", "file", fileName, "raw_chars", len(raw))
		rec = regexFallback(raw, fileName)
	}

	rec.CaseID = n.newID(now)
	rec.FileName = fileName
	rec.RawAnalysis = raw
	rec.AnalysisTimestamp = now.UTC().Format(timestampLayout)
	if rec.SimilarCases == nil {
		rec.SimilarCases = []string{}
	}
	return rec
}

func (n normalizer) decode(raw string) (map[string]any, bool) {
	candidates := []string{strings.TrimSpace(raw)}
	if m := reFencedJSON.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, m[1])
	}
	for i, c := range candidates {
		var data map[string]any
		if err := json.Unmarshal([]byte(c), &data); err != nil || data == nil {
			continue
		}
		if err := ValidateAnalysis([]byte(c)); err != nil {
			n.logger.Warn("llm.normalize.schema_mismatch", "error", err)
		}
		if i > 0 {
			n.logger.Info("llm.normalize.fenced_json")
		}
		return data, true
	}
	return nil, false
}

func coerce(m map[string]any, fileName string) entity.AnalysisRecord {
	title := firstString(m, "caseTitle", "title")
	if title == "" {
		title = stripExt(fileName)
	}
	return entity.AnalysisRecord{
		Title:               title,
		CaseTitle:           title,
		CaseNumber:          stringOr(m, "caseNumber", notAvailable),
		CourtLevel:          stringOr(m, "courtLevel", notAvailable),
		DateOfOrder:         stringOr(m, "dateOfOrder", notAvailable),
		KeyIssues:           stringList(m["keyIssues"]),
		StatutoryProvisions: stringList(m["statutoryProvisions"]),
		SuccessProbability:  probability(m["successProbability"]),
		Recommendation:      recommendation(m["recommendation"]),
		Reasoning:           stringOr(m, "reasoning", defaultReasoning),
		PrecedentAnalysis:   stringOr(m, "precedentAnalysis", ""),
		PotentialOutcome:    stringOr(m, "potentialOutcome", ""),
	}
}

// regexFallback scrapes what it can from a response that is not JSON at all.
func regexFallback(raw, fileName string) entity.AnalysisRecord {
	title := stripExt(fileName)
	rec := entity.AnalysisRecord{
		Title:               title,
		CaseTitle:           title,
		CaseNumber:          notAvailable,
		CourtLevel:          notAvailable,
		DateOfOrder:         notAvailable,
		KeyIssues:           []string{},
		StatutoryProvisions: []string{},
		SuccessProbability:  defaultProbability,
		Recommendation:      constants.RecommendReview,
		Reasoning:           fallbackReasoning,
	}

	if m := reProbability.FindStringSubmatch(raw); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			rec.SuccessProbability = clampProbability(float64(v))
		} else {
			// digit run too long for int
			rec.SuccessProbability = 100
		}
	}
	if m := reRecommendation.FindStringSubmatch(raw); m != nil {
		rec.Recommendation = constants.ParseRecommendation(m[1])
	}
	if m := reReasoningQuoted.FindStringSubmatch(raw); m != nil && strings.TrimSpace(m[1]) != "" {
		rec.Reasoning = strings.TrimSpace(m[1])
	} else if raw != "" {
		rec.Reasoning = excerpt(raw, fallbackExcerptRune) + "..."
	}
	return rec
}

// firstString returns the first key holding a non-empty string, unchanged.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func stringOr(m map[string]any, key, def string) string {
	if s := firstString(m, key); s != "" {
		return s
	}
	return def
}

// stringList keeps string elements in order and as given; other element types are dropped.
func stringList(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func probability(v any) int {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) {
		return defaultProbability
	}
	return clampProbability(f)
}

func clampProbability(f float64) int {
	switch {
	case f < 0:
		return 0
	case f > 100:
		return 100
	default:
		return int(math.Round(f))
	}
}

func recommendation(v any) constants.Recommendation {
	s, _ := v.(string)
	return constants.ParseRecommendation(s)
}

func stripExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
