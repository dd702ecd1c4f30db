// Package models defines the discovery state record threaded through the
// stage DAG, the partial updates stages return, and the persisted discovery
// shape.
//
// The state is a closed record whose fields are all optional: stages receive
// an immutable snapshot and return a StateUpdate touching only the fields
// they own. The engine is the single writer; it applies updates between
// super-steps. The progress log (Updates) is the one field with append
// semantics — everything else is assign-on-write.
package models

// Mode selects how broadly the pipeline explores.
type Mode string

const (
	ModeGuided      Mode = "guided"
	ModeAutonomous  Mode = "autonomous"
	ModeCrossDomain Mode = "cross_domain"
)

// Tier is the three-level confidence classification of a synthesis.
type Tier string

const (
	TierOne   Tier = "tier_1"
	TierTwo   Tier = "tier_2"
	TierThree Tier = "tier_3"
)

// ValidTier reports whether t is one of the three literal tiers.
func ValidTier(t Tier) bool {
	return t == TierOne || t == TierTwo || t == TierThree
}

// ProgressRecord is one entry in the append-only progress log. It carries
// no ownership; stages emit it by value and the engine copies it into the
// state. Stage-specific fields are optional.
type ProgressRecord struct {
	Stage        string  `json:"stage"`
	Status       string  `json:"status"`
	Route        string  `json:"route,omitempty"`
	Source       string  `json:"source,omitempty"`
	VerseCount   int     `json:"verse_count,omitempty"`
	FindingCount int     `json:"finding_count,omitempty"`
	QualityScore float64 `json:"quality_score,omitempty"`
	ShouldDeepen bool    `json:"should_deepen,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Progress statuses.
const (
	StatusDone  = "done"
	StatusError = "error"
)

// DiscoveryState is the record owned by one session's engine task.
// streaming_updates is never exposed on the wire; it feeds the event
// adapter only.
type DiscoveryState struct {
	// Inputs, written once.
	Query       string   `json:"query"`
	Disciplines []string `json:"disciplines,omitempty"`
	Mode        Mode     `json:"mode,omitempty"`

	// Retrieved artifacts.
	Verses         []VerseRecord `json:"verses,omitempty"`
	TafseerContext string        `json:"tafseer_context,omitempty"`

	// Per-stage findings.
	Linguistic         *LinguisticAnalysis `json:"linguistic_analysis,omitempty"`
	ScienceFindings    []Finding           `json:"science_findings,omitempty"`
	TafseerFindings    *TafseerFindings    `json:"tafseer_findings,omitempty"`
	HumanitiesFindings []Finding           `json:"humanities_findings,omitempty"`

	// Terminal outputs.
	Synthesis      string   `json:"synthesis,omitempty"`
	ConfidenceTier Tier     `json:"confidence_tier,omitempty"`
	QualityScore   float64  `json:"quality_score,omitempty"`
	QualityIssues  []string `json:"quality_issues,omitempty"`
	DiscoveryID    string   `json:"discovery_id,omitempty"`

	// Control.
	ShouldDeepen   bool `json:"should_deepen,omitempty"`
	IterationCount int  `json:"iteration_count"`

	// Append-only progress log.
	Updates []ProgressRecord `json:"-"`
}

// StateUpdate is a partial update: nil pointer fields are untouched,
// non-nil fields overwrite. Updates is the appended tail of progress
// records. SynthesisFragments is transient — it carries per-token LLM
// output to the stream adapter and is not merged into the state.
type StateUpdate struct {
	Disciplines        *[]string
	Mode               *Mode
	IterationCount     *int
	Verses             *[]VerseRecord
	TafseerContext     *string
	Linguistic         *LinguisticAnalysis
	ScienceFindings    *[]Finding
	TafseerFindings    *TafseerFindings
	HumanitiesFindings *[]Finding
	Synthesis          *string
	ConfidenceTier     *Tier
	QualityScore       *float64
	QualityIssues      *[]string
	DiscoveryID        *string
	ShouldDeepen       *bool

	Updates []ProgressRecord

	SynthesisFragments []string
}

// Apply merges a partial update into the state. Assign-on-write for every
// field except Updates, which is concatenated. Applying the same update
// twice is equivalent to applying it once for all assigned fields; the
// Updates append is idempotent up to record equality only.
func (s *DiscoveryState) Apply(u StateUpdate) {
	if u.Disciplines != nil {
		s.Disciplines = *u.Disciplines
	}
	if u.Mode != nil {
		s.Mode = *u.Mode
	}
	if u.IterationCount != nil {
		s.IterationCount = *u.IterationCount
	}
	if u.Verses != nil {
		s.Verses = *u.Verses
	}
	if u.TafseerContext != nil {
		s.TafseerContext = *u.TafseerContext
	}
	if u.Linguistic != nil {
		s.Linguistic = u.Linguistic
	}
	if u.ScienceFindings != nil {
		s.ScienceFindings = *u.ScienceFindings
	}
	if u.TafseerFindings != nil {
		s.TafseerFindings = u.TafseerFindings
	}
	if u.HumanitiesFindings != nil {
		s.HumanitiesFindings = *u.HumanitiesFindings
	}
	if u.Synthesis != nil {
		s.Synthesis = *u.Synthesis
	}
	if u.ConfidenceTier != nil {
		s.ConfidenceTier = *u.ConfidenceTier
	}
	if u.QualityScore != nil {
		s.QualityScore = *u.QualityScore
	}
	if u.QualityIssues != nil {
		s.QualityIssues = *u.QualityIssues
	}
	if u.DiscoveryID != nil {
		s.DiscoveryID = *u.DiscoveryID
	}
	if u.ShouldDeepen != nil {
		s.ShouldDeepen = *u.ShouldDeepen
	}
	s.Updates = append(s.Updates, u.Updates...)
}

// Clone returns a deep copy safe to hand to a concurrently running stage.
func (s DiscoveryState) Clone() DiscoveryState {
	out := s
	out.Disciplines = append([]string(nil), s.Disciplines...)
	out.Verses = cloneVerses(s.Verses)
	out.ScienceFindings = append([]Finding(nil), s.ScienceFindings...)
	out.HumanitiesFindings = append([]Finding(nil), s.HumanitiesFindings...)
	out.QualityIssues = append([]string(nil), s.QualityIssues...)
	out.Updates = append([]ProgressRecord(nil), s.Updates...)
	if s.Linguistic != nil {
		l := *s.Linguistic
		l.Roots = append([]string(nil), s.Linguistic.Roots...)
		l.RhetoricalDevices = append([]string(nil), s.Linguistic.RhetoricalDevices...)
		if s.Linguistic.Morphology != nil {
			l.Morphology = make(map[string]string, len(s.Linguistic.Morphology))
			for k, v := range s.Linguistic.Morphology {
				l.Morphology[k] = v
			}
		}
		out.Linguistic = &l
	}
	if s.TafseerFindings != nil {
		t := *s.TafseerFindings
		t.Differences = append([]TafseerDifference(nil), s.TafseerFindings.Differences...)
		t.Details = append([]TafseerDetail(nil), s.TafseerFindings.Details...)
		out.TafseerFindings = &t
	}
	return out
}

func cloneVerses(verses []VerseRecord) []VerseRecord {
	if verses == nil {
		return nil
	}
	out := make([]VerseRecord, len(verses))
	for i, v := range verses {
		out[i] = v
		out[i].Tafseers = append([]TafseerEntry(nil), v.Tafseers...)
	}
	return out
}

// Pointer helpers for building StateUpdate literals.

func Ptr[T any](v T) *T { return &v }
