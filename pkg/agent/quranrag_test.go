package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quranlabs/tadabbur/pkg/models"
	"github.com/quranlabs/tadabbur/pkg/services"
)

type fakeCorpus struct {
	byVector []models.VerseRecord
	byText   []models.VerseRecord
	exegesis map[int][]models.TafseerEntry
}

func (f fakeCorpus) SearchByVector(ctx context.Context, vec []float32, topK int, threshold float64) ([]models.VerseRecord, error) {
	if f.byVector == nil {
		return nil, services.ErrUnavailable
	}
	return f.byVector, nil
}

func (f fakeCorpus) SearchByText(ctx context.Context, query string, topK int) ([]models.VerseRecord, error) {
	if f.byText == nil {
		return nil, services.ErrUnavailable
	}
	return f.byText, nil
}

func (f fakeCorpus) FetchExegesisFor(ctx context.Context, verseIDs []int) (map[int][]models.TafseerEntry, error) {
	if f.exegesis == nil {
		return nil, services.ErrUnavailable
	}
	return f.exegesis, nil
}

func TestFullyMockedRunFallsBackToWaterVerses(t *testing.T) {
	stage := NewQuranRAGStage(services.NullCorpus{}, services.NullEmbeddings{}, services.NullLLM{})

	update, err := stage.Run(context.Background(), models.DiscoveryState{Query: "الماء"})
	require.NoError(t, err)

	require.NotNil(t, update.Verses)
	require.Len(t, *update.Verses, 1)
	assert.Equal(t, "21:30", (*update.Verses)[0].VerseKey)
	require.NotNil(t, update.TafseerContext)
	assert.NotEmpty(t, *update.TafseerContext)

	require.Len(t, update.Updates, 1)
	assert.Equal(t, SourceMock, update.Updates[0].Source)
	assert.Equal(t, 1, update.Updates[0].VerseCount)
}

func TestTextSearchWhenEmbeddingsAbsent(t *testing.T) {
	corpus := fakeCorpus{
		byText: []models.VerseRecord{{ID: 7, SurahNumber: 21, VerseNumber: 30, VerseKey: "21:30", TextSimple: "نص"}},
		exegesis: map[int][]models.TafseerEntry{
			7: {{VerseID: 7, Slug: "ibn_kathir", Name: "تفسير ابن كثير", Text: "أصل الأحياء من الماء"}},
		},
	}
	stage := NewQuranRAGStage(corpus, services.NullEmbeddings{}, services.NullLLM{})

	update, err := stage.Run(context.Background(), models.DiscoveryState{Query: "الماء"})
	require.NoError(t, err)

	assert.Equal(t, SourceDatabase, update.Updates[0].Source)
	require.Len(t, *update.Verses, 1)
	assert.Equal(t, "ibn_kathir", (*update.Verses)[0].Tafseers[0].Slug)
	assert.Contains(t, *update.TafseerContext, "تفسير ابن كثير")
}

func TestVectorSearchPreferred(t *testing.T) {
	corpus := fakeCorpus{
		byVector: []models.VerseRecord{{ID: 1, SurahNumber: 2, VerseNumber: 255, VerseKey: "2:255", Similarity: 0.91}},
		byText:   []models.VerseRecord{{ID: 2, SurahNumber: 1, VerseNumber: 1, VerseKey: "1:1"}},
		exegesis: map[int][]models.TafseerEntry{},
	}
	embeddings := fakeEmbeddings{vector: []float32{0.1, 0.2}}
	stage := NewQuranRAGStage(corpus, embeddings, services.NullLLM{})

	update, err := stage.Run(context.Background(), models.DiscoveryState{Query: "q"})
	require.NoError(t, err)
	require.Len(t, *update.Verses, 1)
	assert.Equal(t, "2:255", (*update.Verses)[0].VerseKey)
	assert.Equal(t, SourceDatabase, update.Updates[0].Source)
}

func TestLLMRetrievalPath(t *testing.T) {
	llm := fakeLLM{response: `{"verses": [{"surah_number": 16, "verse_number": 69, "text_uthmani": "نص", "text_simple": "نص"}]}`}
	stage := NewQuranRAGStage(services.NullCorpus{}, services.NullEmbeddings{}, llm)

	update, err := stage.Run(context.Background(), models.DiscoveryState{Query: "العسل"})
	require.NoError(t, err)
	assert.Equal(t, SourceLLM, update.Updates[0].Source)
	require.Len(t, *update.Verses, 1)
	assert.Equal(t, "16:69", (*update.Verses)[0].VerseKey)
}

type fakeEmbeddings struct {
	vector []float32
}

func (f fakeEmbeddings) Embed(ctx context.Context, query string) ([]float32, error) {
	if f.vector == nil {
		return nil, services.ErrUnavailable
	}
	return f.vector, nil
}
