package domain

// SubscriptionTier is the billing plan a user is on. Payment handling lives
// outside this service; only the quota each tier grants is modelled here.
type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "free"
	TierBasic      SubscriptionTier = "basic"
	TierPro        SubscriptionTier = "pro"
	TierEnterprise SubscriptionTier = "enterprise"
)

// FreeTierAnalyses is the lifetime analysis allowance of the free tier
const FreeTierAnalyses = 3

// Valid reports whether t is a known tier
func (t SubscriptionTier) Valid() bool {
	switch t {
	case TierFree, TierBasic, TierPro, TierEnterprise:
		return true
	}
	return false
}

// AnalysisLimit returns the number of analyses allowed, -1 for unlimited.
// Unknown tiers are treated as free.
func (t SubscriptionTier) AnalysisLimit() int {
	switch t {
	case TierBasic, TierPro, TierEnterprise:
		return -1
	default:
		return FreeTierAnalyses
	}
}

// AllowsAnalysis reports whether another analysis fits the tier given used so far
func (t SubscriptionTier) AllowsAnalysis(used int) bool {
	limit := t.AnalysisLimit()
	return limit < 0 || used < limit
}
