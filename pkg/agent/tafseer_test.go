package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quranlabs/tadabbur/pkg/models"
	"github.com/quranlabs/tadabbur/pkg/services"
)

func TestTafseerEmptyVersesYieldEmptyFindings(t *testing.T) {
	stage := NewTafseerStage(services.NullCorpus{}, services.NullLLM{})
	update, err := stage.Run(context.Background(), models.DiscoveryState{})
	require.NoError(t, err)

	require.NotNil(t, update.TafseerFindings)
	assert.Empty(t, update.TafseerFindings.ConsensusView)
	assert.Empty(t, update.TafseerFindings.Details)
}

func TestTafseerPrefersAttachedExegesis(t *testing.T) {
	verses := []models.VerseRecord{{
		ID: 7, VerseKey: "21:30",
		Tafseers: []models.TafseerEntry{
			{Slug: "ibn_kathir", Text: "أصل الأحياء من الماء"},
			{Slug: "shaarawy", Text: "الجَعل تصيير وتحويل"},
		},
	}}
	stage := NewTafseerStage(services.NullCorpus{}, services.NullLLM{})

	update, err := stage.Run(context.Background(), models.DiscoveryState{Verses: verses})
	require.NoError(t, err)

	findings := update.TafseerFindings
	require.NotNil(t, findings)
	assert.Contains(t, findings.ConsensusView, "أصل الأحياء")
	assert.Contains(t, findings.ShaarawyNote, "تصيير")
	require.Len(t, findings.Details, 1)
	assert.Equal(t, "21:30", findings.Details[0].VerseKey)
	assert.Len(t, findings.Details[0].Tafseers, 2)
}

func TestTafseerFetchesWhenNotAttached(t *testing.T) {
	corpus := fakeCorpus{exegesis: map[int][]models.TafseerEntry{
		7: {{VerseID: 7, Slug: "tabari", Text: "كل ما فيه روح فأصله من الماء"}},
	}}
	stage := NewTafseerStage(corpus, services.NullLLM{})

	update, err := stage.Run(context.Background(), models.DiscoveryState{
		Verses: []models.VerseRecord{{ID: 7, VerseKey: "21:30"}},
	})
	require.NoError(t, err)
	assert.Contains(t, update.TafseerFindings.ConsensusView, "فأصله من الماء")
	// No Shaarawy passage in the corpus for this verse.
	assert.Equal(t, "لا يتوفر تفسير الشعراوي لهذه الآيات", update.TafseerFindings.ShaarawyNote)
}

func TestTafseerMockCarriesSevenBooks(t *testing.T) {
	stage := NewTafseerStage(services.NullCorpus{}, services.NullLLM{})
	update, err := stage.Run(context.Background(), models.DiscoveryState{
		Verses: []models.VerseRecord{{VerseKey: "21:30", TextUthmani: "نص"}},
	})
	require.NoError(t, err)

	findings := update.TafseerFindings
	require.NotNil(t, findings)
	assert.NotEmpty(t, findings.ConsensusView)
	assert.NotEmpty(t, findings.ShaarawyNote)
	require.Len(t, findings.Details, 1)
	assert.Len(t, findings.Details[0].Tafseers, 7)
}

func TestHumanitiesDisciplineFilter(t *testing.T) {
	assert.Equal(t, []string{"psychology"}, humanitiesOf([]string{"physics", "biology", "psychology"}))
	assert.Equal(t, []string{"psychology", "sociology"}, humanitiesOf([]string{"physics"}))
	assert.Equal(t, []string{"economics", "ethics"}, humanitiesOf([]string{"economics", "ethics"}))
}
