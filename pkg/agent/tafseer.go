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

// TafseerStage aligns the seven canonical exegesis references for the
// retrieved verses, with Al-Shaarawy's linguistic notes called out
// separately. Prefers tafseers already attached by retrieval, then a
// direct corpus fetch, then the LLM, then the static mock.
type TafseerStage struct {
	corpus services.CorpusSearch
	llm    services.LLM
}

func NewTafseerStage(corpus services.CorpusSearch, llm services.LLM) *TafseerStage {
	return &TafseerStage{corpus: corpus, llm: llm}
}

func (s *TafseerStage) Name() string { return engine.StageTafseer }

func (s *TafseerStage) Run(ctx context.Context, state models.DiscoveryState) (models.StateUpdate, error) {
	findings := s.analyze(ctx, state.Verses)
	if ctx.Err() != nil {
		return models.StateUpdate{}, ctx.Err()
	}
	return models.StateUpdate{
		TafseerFindings: findings,
		Updates: []models.ProgressRecord{{
			Stage:  engine.StageTafseer,
			Status: models.StatusDone,
		}},
	}, nil
}

func (s *TafseerStage) analyze(ctx context.Context, verses []models.VerseRecord) *models.TafseerFindings {
	if len(verses) == 0 {
		return &models.TafseerFindings{
			Differences: []models.TafseerDifference{},
			Details:     []models.TafseerDetail{},
		}
	}

	if !hasTafseers(verses) {
		s.fetchTafseers(ctx, verses)
	}
	if hasTafseers(verses) {
		return alignFromCorpus(verses)
	}

	if findings, ok := s.analyzeLLM(ctx, verses); ok {
		return findings
	}
	return mockTafseerFindings()
}

func hasTafseers(verses []models.VerseRecord) bool {
	for _, v := range verses {
		if len(v.Tafseers) > 0 {
			return true
		}
	}
	return false
}

func (s *TafseerStage) fetchTafseers(ctx context.Context, verses []models.VerseRecord) {
	var ids []int
	for _, v := range verses {
		if v.ID != 0 {
			ids = append(ids, v.ID)
		}
	}
	if len(ids) == 0 {
		return
	}
	byVerse, err := s.corpus.FetchExegesisFor(ctx, ids)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("Tafseer fetch failed", "error", err)
		}
		return
	}
	for i := range verses {
		verses[i].Tafseers = byVerse[verses[i].ID]
	}
}

// alignFromCorpus builds the comparison from tafseers already in hand: per
// verse details, a consensus built from the primary reference of each
// verse, and Shaarawy's passages collected as the linguistic note.
func alignFromCorpus(verses []models.VerseRecord) *models.TafseerFindings {
	var details []models.TafseerDetail
	var consensusParts []string
	var shaarawyNotes []string

	for i, v := range verses {
		if i == 5 {
			break
		}
		vk := v.Key()
		detail := models.TafseerDetail{VerseKey: vk, Tafseers: map[string]string{}}
		for _, t := range v.Tafseers {
			detail.Tafseers[t.Slug] = t.Text
			if strings.Contains(strings.ToLower(t.Slug), "shaarawy") {
				shaarawyNotes = append(shaarawyNotes, fmt.Sprintf("%s: %s", vk, truncateRunes(t.Text, 500)))
			}
		}
		details = append(details, detail)
		if len(v.Tafseers) > 0 {
			consensusParts = append(consensusParts, fmt.Sprintf("%s: %s", vk, truncateRunes(v.Tafseers[0].Text, 200)))
		}
	}

	shaarawy := strings.Join(shaarawyNotes, "\n")
	if shaarawy == "" {
		shaarawy = "لا يتوفر تفسير الشعراوي لهذه الآيات"
	}
	return &models.TafseerFindings{
		ConsensusView: strings.Join(consensusParts, "\n"),
		Differences:   []models.TafseerDifference{},
		ShaarawyNote:  shaarawy,
		Details:       details,
	}
}

func (s *TafseerStage) analyzeLLM(ctx context.Context, verses []models.VerseRecord) (*models.TafseerFindings, bool) {
	var sb strings.Builder
	for i, v := range verses {
		if i == 5 {
			break
		}
		fmt.Fprintf(&sb, "%s: %s\n", v.Key(), v.TextUthmani)
	}
	prompt := "قارن بين تفاسير العلماء السبعة المعتمدين للآيات التالية:\n\n" +
		sb.String() + "\n" +
		"المطلوب:\n" +
		"1. consensus_view: الرأي المشترك بين المفسرين\n" +
		"2. differences: الاختلافات مع ذكر اسم المفسر\n" +
		"3. shaarawy_linguistic_note: ملاحظة الشعراوي اللغوية الدقيقة\n" +
		"4. tafseer_details: تفصيل كل مفسر لكل آية\n\n" +
		"أعد JSON بالشكل:\n" +
		`{"consensus_view": "...", ` +
		`"differences": [{"verse_key": "...", "scholar": "...", "opinion": "...", "evidence": "..."}], ` +
		`"shaarawy_linguistic_note": "...", ` +
		`"tafseer_details": [{"verse_key": "...", "tafseers": {"slug": "text"}}]}`

	text, err := s.llm.Complete(ctx, quranScholarSystemPrompt, prompt, 3000, 0.3)
	if err != nil {
		return nil, false
	}
	var findings models.TafseerFindings
	if err := decodeJSONBlock(text, &findings); err != nil || findings.ConsensusView == "" {
		return nil, false
	}
	return &findings, true
}
