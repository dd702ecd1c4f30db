package agent

import (
	"context"
	"log/slog"

	"github.com/quranlabs/tadabbur/pkg/engine"
	"github.com/quranlabs/tadabbur/pkg/models"
	"github.com/quranlabs/tadabbur/pkg/services"
)

// Valid correlation types for humanities findings.
var correlationTypes = map[string]bool{
	"intersecting":  true,
	"parallel":      true,
	"inspirational": true,
}

// HumanitiesStage finds psychology, sociology, economics, and leadership
// connections. Same fan-out shape as ScienceStage, but every finding
// carries a correlation type and an intellectual-honesty note instead of
// an objection and tier.
type HumanitiesStage struct {
	llm services.LLM
}

func NewHumanitiesStage(llm services.LLM) *HumanitiesStage {
	return &HumanitiesStage{llm: llm}
}

func (s *HumanitiesStage) Name() string { return engine.StageHumanities }

func (s *HumanitiesStage) Run(ctx context.Context, state models.DiscoveryState) (models.StateUpdate, error) {
	disciplines := humanitiesOf(state.Disciplines)

	findings := exploreDisciplines(ctx, disciplines, func(ctx context.Context, discipline string) []models.Finding {
		return s.analyze(ctx, state, discipline)
	})
	if ctx.Err() != nil {
		return models.StateUpdate{}, ctx.Err()
	}

	return models.StateUpdate{
		HumanitiesFindings: &findings,
		Updates: []models.ProgressRecord{{
			Stage:        engine.StageHumanities,
			Status:       models.StatusDone,
			FindingCount: len(findings),
		}},
	}, nil
}

// humanitiesOf keeps the humanities entries from the session disciplines,
// defaulting to psychology and sociology when none are present.
func humanitiesOf(disciplines []string) []string {
	var out []string
	for _, d := range disciplines {
		if humanitiesDisciplines[d] {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		out = []string{"psychology", "sociology"}
	}
	return out
}

func (s *HumanitiesStage) analyze(ctx context.Context, state models.DiscoveryState, discipline string) []models.Finding {
	prompt := "ابحث عن ارتباطات إنسانية بين الآيات التالية وتخصص " + discipline + ":\n\n" +
		summariseVerses(state.Verses) + "\n\n" +
		"السياق التفسيري:\n" + truncateRunes(state.TafseerContext, 1000) + "\n\n" +
		"لكل ارتباط: الادعاء، نوع الارتباط (intersecting/parallel/inspirational)، " +
		"وملاحظة أمانة علمية صريحة.\n" +
		"أعد JSON بالشكل:\n" +
		`{"findings": [{"verse_key": "S:V", "discipline": "...", "claim": "...", ` +
		`"correlation_type": "parallel", "intellectual_honesty_note": "..."}]}`

	text, err := s.llm.Complete(ctx, humanitiesScholarSystemPrompt, prompt, 2048, 0.5)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		slog.Warn("Humanities analysis fell back to mock", "discipline", discipline, "error", err)
		return mockHumanitiesFindings([]string{discipline})
	}
	var parsed struct {
		Findings []models.Finding `json:"findings"`
	}
	if err := decodeJSONBlock(text, &parsed); err != nil {
		return mockHumanitiesFindings([]string{discipline})
	}
	for i := range parsed.Findings {
		if parsed.Findings[i].Discipline == "" {
			parsed.Findings[i].Discipline = discipline
		}
		if !correlationTypes[parsed.Findings[i].CorrelationType] {
			parsed.Findings[i].CorrelationType = "parallel"
		}
	}
	return parsed.Findings
}
