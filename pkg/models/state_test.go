package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyAssignsOnlyTouchedFields(t *testing.T) {
	state := DiscoveryState{Query: "water", Mode: ModeGuided}

	state.Apply(StateUpdate{
		Verses:         &[]VerseRecord{{SurahNumber: 21, VerseNumber: 30, VerseKey: "21:30"}},
		TafseerContext: Ptr("context"),
	})

	assert.Equal(t, "water", state.Query)
	assert.Equal(t, ModeGuided, state.Mode)
	require.Len(t, state.Verses, 1)
	assert.Equal(t, "21:30", state.Verses[0].VerseKey)
	assert.Equal(t, "context", state.TafseerContext)
	assert.Empty(t, state.Synthesis)
}

func TestApplyAppendsProgressRecords(t *testing.T) {
	state := DiscoveryState{}

	state.Apply(StateUpdate{Updates: []ProgressRecord{{Stage: "route_query", Status: StatusDone}}})
	state.Apply(StateUpdate{Updates: []ProgressRecord{
		{Stage: "quran_rag", Status: StatusDone},
		{Stage: "linguistic", Status: StatusDone},
	}})

	require.Len(t, state.Updates, 3)
	assert.Equal(t, "route_query", state.Updates[0].Stage)
	assert.Equal(t, "quran_rag", state.Updates[1].Stage)
	assert.Equal(t, "linguistic", state.Updates[2].Stage)
}

func TestApplyTwiceIsIdempotentForAssignedFields(t *testing.T) {
	update := StateUpdate{
		Synthesis:      Ptr("text"),
		ConfidenceTier: Ptr(TierTwo),
		QualityScore:   Ptr(0.8),
	}

	var once, twice DiscoveryState
	once.Apply(update)
	twice.Apply(update)
	twice.Apply(update)

	assert.Equal(t, once.Synthesis, twice.Synthesis)
	assert.Equal(t, once.ConfidenceTier, twice.ConfidenceTier)
	assert.Equal(t, once.QualityScore, twice.QualityScore)
}

func TestCloneIsDeep(t *testing.T) {
	state := DiscoveryState{
		Verses: []VerseRecord{{VerseKey: "21:30", Tafseers: []TafseerEntry{{Slug: "ibn_kathir"}}}},
		Linguistic: &LinguisticAnalysis{
			Roots:      []string{"م و ه"},
			Morphology: map[string]string{"الماء": "اسم"},
		},
		ScienceFindings: []Finding{{VerseKey: "21:30"}},
		Updates:         []ProgressRecord{{Stage: "quran_rag"}},
	}

	clone := state.Clone()
	clone.Verses[0].VerseKey = "2:255"
	clone.Verses[0].Tafseers[0].Slug = "tabari"
	clone.Linguistic.Roots[0] = "changed"
	clone.Linguistic.Morphology["الماء"] = "changed"
	clone.ScienceFindings[0].VerseKey = "changed"
	clone.Updates[0].Stage = "changed"

	assert.Equal(t, "21:30", state.Verses[0].VerseKey)
	assert.Equal(t, "ibn_kathir", state.Verses[0].Tafseers[0].Slug)
	assert.Equal(t, "م و ه", state.Linguistic.Roots[0])
	assert.Equal(t, "اسم", state.Linguistic.Morphology["الماء"])
	assert.Equal(t, "21:30", state.ScienceFindings[0].VerseKey)
	assert.Equal(t, "quran_rag", state.Updates[0].Stage)
}

func TestValidTier(t *testing.T) {
	assert.True(t, ValidTier(TierOne))
	assert.True(t, ValidTier(TierTwo))
	assert.True(t, ValidTier(TierThree))
	assert.False(t, ValidTier(""))
	assert.False(t, ValidTier(Tier("tier_4")))
}

func TestDiscoveryFromState(t *testing.T) {
	state := DiscoveryState{
		Query:     "الماء في القرآن",
		Synthesis: "توليف",
		Verses: []VerseRecord{
			{SurahNumber: 21, VerseNumber: 30},
			{SurahNumber: 2, VerseNumber: 255, VerseKey: "2:255"},
		},
		ConfidenceTier: TierOne,
		QualityScore:   0.9,
	}

	d := DiscoveryFromState(state)
	assert.Equal(t, "الماء في القرآن", d.TitleAr)
	assert.Equal(t, "توليف", d.DescriptionAr)
	assert.Equal(t, []string{"21:30", "2:255"}, d.VerseKeys)
	assert.Equal(t, TierOne, d.ConfidenceTier)
	assert.Equal(t, 0.9, d.ConfidenceScore)
	assert.Equal(t, DiscoveryStatusPending, d.VerificationStatus)

	// An invalid tier defaults to tier_2 at persist time.
	state.ConfidenceTier = ""
	assert.Equal(t, TierTwo, DiscoveryFromState(state).ConfidenceTier)
}
