package models

// Finding is one correlation produced by the science or humanities stages.
// Science findings carry MainObjection and ConfidenceTier; humanities
// findings carry CorrelationType and HonestyNote. Both travel through the
// same type because the client event contract does not distinguish them.
type Finding struct {
	VerseKey        string `json:"verse_key"`
	Discipline      string `json:"discipline"`
	Claim           string `json:"claim"`
	Evidence        string `json:"evidence,omitempty"`
	MainObjection   string `json:"main_objection,omitempty"`
	ConfidenceTier  Tier   `json:"confidence_tier,omitempty"`
	CorrelationType string `json:"correlation_type,omitempty"`
	HonestyNote     string `json:"intellectual_honesty_note,omitempty"`
}

// LinguisticAnalysis holds morphology, root, and rhetoric extraction over
// the retrieved verses.
type LinguisticAnalysis struct {
	Roots             []string          `json:"roots"`
	Morphology        map[string]string `json:"morphology,omitempty"`
	RhetoricalDevices []string          `json:"rhetorical_devices,omitempty"`
	Summary           string            `json:"summary,omitempty"`
}

// TafseerDifference records one scholarly disagreement on a verse.
type TafseerDifference struct {
	VerseKey string `json:"verse_key"`
	Scholar  string `json:"scholar"`
	Opinion  string `json:"opinion"`
	Evidence string `json:"evidence,omitempty"`
}

// TafseerDetail is the per-verse breakdown of each book's interpretation.
type TafseerDetail struct {
	VerseKey string            `json:"verse_key"`
	Tafseers map[string]string `json:"tafseers"`
}

// TafseerFindings is the aligned multi-source exegesis comparison.
type TafseerFindings struct {
	ConsensusView string              `json:"consensus_view"`
	Differences   []TafseerDifference `json:"differences"`
	ShaarawyNote  string              `json:"shaarawy_linguistic_note"`
	Details       []TafseerDetail     `json:"tafseer_details"`
}
