package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/quranlabs/tadabbur/pkg/engine"
	"github.com/quranlabs/tadabbur/pkg/models"
	"github.com/quranlabs/tadabbur/pkg/services"
)

// LinguisticStage extracts roots, morphology, and rhetorical devices from
// the retrieved verses.
type LinguisticStage struct {
	llm services.LLM
}

func NewLinguisticStage(llm services.LLM) *LinguisticStage {
	return &LinguisticStage{llm: llm}
}

func (s *LinguisticStage) Name() string { return engine.StageLinguistic }

func (s *LinguisticStage) Run(ctx context.Context, state models.DiscoveryState) (models.StateUpdate, error) {
	analysis, ok := s.analyzeLLM(ctx, state.Verses)
	if ctx.Err() != nil {
		return models.StateUpdate{}, ctx.Err()
	}
	if !ok {
		analysis = mockLinguistic()
	}
	return models.StateUpdate{
		Linguistic: analysis,
		Updates: []models.ProgressRecord{{
			Stage:  engine.StageLinguistic,
			Status: models.StatusDone,
		}},
	}, nil
}

func (s *LinguisticStage) analyzeLLM(ctx context.Context, verses []models.VerseRecord) (*models.LinguisticAnalysis, bool) {
	if len(verses) == 0 {
		return nil, false
	}

	var sb strings.Builder
	for i, v := range verses {
		if i == 5 {
			break
		}
		fmt.Fprintf(&sb, "%s: %s\n", v.Key(), v.TextUthmani)
	}
	prompt := "حلّل الآيات التالية لغوياً:\n\n" + sb.String() + "\n" +
		"المطلوب: الجذور، الصرف، الأساليب البلاغية، وملخص موجز.\n\n" +
		"أعد JSON بالشكل:\n" +
		`{"roots": ["..."], "morphology": {"كلمة": "إعرابها"}, ` +
		`"rhetorical_devices": ["..."], "summary": "..."}`

	text, err := s.llm.Complete(ctx, quranScholarSystemPrompt, prompt, 2048, 0.3)
	if err != nil {
		return nil, false
	}
	var analysis models.LinguisticAnalysis
	if err := decodeJSONBlock(text, &analysis); err != nil || len(analysis.Roots) == 0 {
		return nil, false
	}
	return &analysis, true
}
