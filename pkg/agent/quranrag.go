package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quranlabs/tadabbur/pkg/engine"
	"github.com/quranlabs/tadabbur/pkg/models"
	"github.com/quranlabs/tadabbur/pkg/services"
)

// Retrieval sources reported in the progress record.
const (
	SourceDatabase = "database"
	SourceLLM      = "llm"
	SourceMock     = "mock"
)

const (
	ragTopK      = 10
	ragThreshold = 0.3
)

// QuranRAGStage retrieves relevant verses and their exegesis. Three paths,
// tried in order: vector search (when embeddings are available), text
// search, and an LLM retrieval that itself degrades to a static mock.
type QuranRAGStage struct {
	corpus     services.CorpusSearch
	embeddings services.Embeddings
	llm        services.LLM
}

func NewQuranRAGStage(corpus services.CorpusSearch, embeddings services.Embeddings, llm services.LLM) *QuranRAGStage {
	return &QuranRAGStage{corpus: corpus, embeddings: embeddings, llm: llm}
}

func (s *QuranRAGStage) Name() string { return engine.StageQuranRAG }

func (s *QuranRAGStage) Run(ctx context.Context, state models.DiscoveryState) (models.StateUpdate, error) {
	verses, source := s.search(ctx, state.Query)
	if ctx.Err() != nil {
		return models.StateUpdate{}, ctx.Err()
	}

	if source == SourceDatabase {
		s.attachExegesis(ctx, verses)
	}

	return models.StateUpdate{
		Verses:         &verses,
		TafseerContext: models.Ptr(summariseVerses(verses)),
		Updates: []models.ProgressRecord{{
			Stage:      engine.StageQuranRAG,
			Status:     models.StatusDone,
			Source:     source,
			VerseCount: len(verses),
		}},
	}, nil
}

func (s *QuranRAGStage) search(ctx context.Context, query string) ([]models.VerseRecord, string) {
	if vec, err := s.embeddings.Embed(ctx, query); err == nil {
		verses, err := s.corpus.SearchByVector(ctx, vec, ragTopK, ragThreshold)
		if err == nil && len(verses) > 0 {
			return verses, SourceDatabase
		}
		if err != nil && ctx.Err() == nil {
			slog.Warn("Vector search failed, trying text search", "error", err)
		}
	}

	verses, err := s.corpus.SearchByText(ctx, query, ragTopK)
	if err == nil && len(verses) > 0 {
		return verses, SourceDatabase
	}
	if err != nil && ctx.Err() == nil {
		slog.Warn("Text search failed, falling back to LLM retrieval", "error", err)
	}

	if verses, ok := s.searchLLM(ctx, query); ok {
		return verses, SourceLLM
	}
	return mockWaterVerses(), SourceMock
}

func (s *QuranRAGStage) searchLLM(ctx context.Context, query string) ([]models.VerseRecord, bool) {
	prompt := "ابحث عن أهم الآيات القرآنية المتعلقة بـ: " + query + "\n\n" +
		"أعد JSON بالشكل:\n" +
		`{"verses": [{"surah_number": N, "verse_number": N, ` +
		`"verse_key": "S:V", "text_uthmani": "...", ` +
		`"text_simple": "..."}], ` +
		`"tafseer_context": "ملخص التفسير"}`

	text, err := s.llm.Complete(ctx, quranScholarSystemPrompt, prompt, 2048, 0.3)
	if err != nil {
		return nil, false
	}
	var parsed struct {
		Verses []models.VerseRecord `json:"verses"`
	}
	if err := decodeJSONBlock(text, &parsed); err != nil || len(parsed.Verses) == 0 {
		return nil, false
	}
	for i := range parsed.Verses {
		parsed.Verses[i].VerseKey = parsed.Verses[i].Key()
	}
	return parsed.Verses, true
}

func (s *QuranRAGStage) attachExegesis(ctx context.Context, verses []models.VerseRecord) {
	if len(verses) == 0 {
		return
	}
	ids := make([]int, 0, len(verses))
	for _, v := range verses {
		if v.ID != 0 {
			ids = append(ids, v.ID)
		}
	}
	byVerse, err := s.corpus.FetchExegesisFor(ctx, ids)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("Exegesis fetch failed, verses carry no tafseers", "error", err)
		}
		return
	}
	for i := range verses {
		verses[i].Tafseers = byVerse[verses[i].ID]
	}
}

// summariseVerses builds the compact context string downstream prompts
// embed: up to five verses, each with a preview of its primary tafseer.
func summariseVerses(verses []models.VerseRecord) string {
	var parts []string
	for _, v := range verses {
		if len(parts) == 5 {
			break
		}
		line := fmt.Sprintf("%s: %s", v.Key(), v.TextSimple)
		if len(v.Tafseers) > 0 {
			first := v.Tafseers[0]
			line += fmt.Sprintf(" [%s]: %s", first.Name, truncateRunes(first.Text, 200))
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, "\n")
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
