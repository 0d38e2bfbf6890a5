package constants

import (
	"strings"
)

// Tier groups court levels for the sample-case lookup. Values run 1..4.
type Tier int

const (
	TierCommissioner Tier = 1
	TierTribunal     Tier = 2
	TierHighCourt    Tier = 3
	TierSupremeCourt Tier = 4
)

var allTiers = []Tier{TierCommissioner, TierTribunal, TierHighCourt, TierSupremeCourt}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	for _, v := range allTiers {
		if v == t {
			return true
		}
	}
	return false
}

// first match wins, in this order.
var tierKeywords = []struct {
	keyword string
	tier    Tier
}{
	{"commissioner", TierCommissioner},
	{"tribunal", TierTribunal},
	{"itat", TierTribunal},
	{"cestat", TierTribunal},
	{"high", TierHighCourt},
	{"supreme", TierSupremeCourt},
}

// CourtTier maps a free-text court level (as written by the model) onto a Tier.
// Unknown or empty input defaults to TierCommissioner.
func CourtTier(courtLevel string) Tier {
	normalized := strings.ToLower(strings.TrimSpace(courtLevel))
	if normalized == "" {
		return TierCommissioner
	}
	for _, k := range tierKeywords {
		if strings.Contains(normalized, k.keyword) {
			return k.tier
		}
	}
	return TierCommissioner
}

// NormalizeToken lowercases and trims a model-provided enum token.
func NormalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
