package llm

// AnalysisJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// Normalization validates model output against it but only logs mismatches.
func AnalysisJSONSchema() map[string]any {
	str := map[string]any{"type": "string"}
	strList := map[string]any{"type": "array", "items": str}
	props := map[string]any{
		"caseTitle":           str,
		"title":               str,
		"caseNumber":          str,
		"courtLevel":          str,
		"dateOfOrder":         str,
		"keyIssues":           strList,
		"statutoryProvisions": strList,
		"successProbability":  map[string]any{"type": "number", "minimum": 0, "maximum": 100},
		"recommendation": map[string]any{
			"type": "string",
			"enum": []string{"appeal", "dont-appeal", "review"},
		},
		"reasoning":         str,
		"precedentAnalysis": str,
		"potentialOutcome":  str,
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   []string{"successProbability", "recommendation", "reasoning"},
	}
}
