package models

import "time"

// Discovery is the persisted synthesis record written at the end of a run.
type Discovery struct {
	ID                 string    `json:"id,omitempty"`
	TitleAr            string    `json:"title_ar"`
	DescriptionAr      string    `json:"description_ar"`
	Category           string    `json:"category"`
	Discipline         string    `json:"discipline,omitempty"`
	VerseKeys          []string  `json:"verse_keys,omitempty"`
	ConfidenceTier     Tier      `json:"confidence_tier"`
	ConfidenceScore    float64   `json:"confidence_score"`
	VerificationStatus string    `json:"verification_status"`
	Source             string    `json:"discovery_source"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
}

// Discovery defaults.
const (
	DiscoveryCategoryScientific = "scientific"
	DiscoveryStatusPending      = "pending"
	DiscoverySourceAutonomous   = "ai_autonomous"
)

// DiscoveryFromState builds the persisted record for a terminal state.
func DiscoveryFromState(s DiscoveryState) Discovery {
	keys := make([]string, 0, len(s.Verses))
	for _, v := range s.Verses {
		keys = append(keys, v.Key())
	}
	tier := s.ConfidenceTier
	if !ValidTier(tier) {
		tier = TierTwo
	}
	return Discovery{
		TitleAr:            s.Query,
		DescriptionAr:      s.Synthesis,
		Category:           DiscoveryCategoryScientific,
		VerseKeys:          keys,
		ConfidenceTier:     tier,
		ConfidenceScore:    s.QualityScore,
		VerificationStatus: DiscoveryStatusPending,
		Source:             DiscoverySourceAutonomous,
	}
}
