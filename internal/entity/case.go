package entity

import "github.com/joseph-ayodele/case-analyzer/constants"

// AnalysisRecord is the normalized result of analyzing one case document.
type AnalysisRecord struct {
	CaseID              string                   `json:"caseId"`
	FileName            string                   `json:"fileName"`
	Title               string                   `json:"title"`
	CaseTitle           string                   `json:"caseTitle"`
	CaseNumber          string                   `json:"caseNumber"`
	CourtLevel          string                   `json:"courtLevel"`
	DateOfOrder         string                   `json:"dateOfOrder"`
	KeyIssues           []string                 `json:"keyIssues"`
	StatutoryProvisions []string                 `json:"statutoryProvisions"`
	SuccessProbability  int                      `json:"successProbability"`
	Recommendation      constants.Recommendation `json:"recommendation"`
	Reasoning           string                   `json:"reasoning"`
	PrecedentAnalysis   string                   `json:"precedentAnalysis"`
	PotentialOutcome    string                   `json:"potentialOutcome"`
	RawAnalysis         string                   `json:"rawAnalysis"`
	AnalysisTimestamp   string                   `json:"analysisTimestamp"`
	SimilarCases        []string                 `json:"similarCases"`
	OriginalPath        string                   `json:"originalPath,omitempty"`
}

// CaseTier is the court tier implied by the record's court level.
func (r AnalysisRecord) CaseTier() constants.Tier {
	return constants.CourtTier(r.CourtLevel)
}
