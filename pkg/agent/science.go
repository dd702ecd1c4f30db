package agent

import (
	"context"
	"log/slog"

	"github.com/quranlabs/tadabbur/pkg/engine"
	"github.com/quranlabs/tadabbur/pkg/models"
	"github.com/quranlabs/tadabbur/pkg/services"
)

// ScienceStage explores scientific correlations per discipline. One task
// per discipline runs concurrently; findings are concatenated in the input
// discipline order so repeat runs are deterministic.
type ScienceStage struct {
	llm services.LLM
}

func NewScienceStage(llm services.LLM) *ScienceStage {
	return &ScienceStage{llm: llm}
}

func (s *ScienceStage) Name() string { return engine.StageScience }

func (s *ScienceStage) Run(ctx context.Context, state models.DiscoveryState) (models.StateUpdate, error) {
	disciplines := state.Disciplines
	if len(disciplines) == 0 {
		disciplines = []string{"physics", "biology"}
	}

	findings := exploreDisciplines(ctx, disciplines, func(ctx context.Context, discipline string) []models.Finding {
		return s.explore(ctx, state, discipline)
	})
	if ctx.Err() != nil {
		return models.StateUpdate{}, ctx.Err()
	}

	return models.StateUpdate{
		ScienceFindings: &findings,
		Updates: []models.ProgressRecord{{
			Stage:        engine.StageScience,
			Status:       models.StatusDone,
			FindingCount: len(findings),
		}},
	}, nil
}

func (s *ScienceStage) explore(ctx context.Context, state models.DiscoveryState, discipline string) []models.Finding {
	prompt := "ابحث عن ارتباطات علمية بين الآيات التالية وتخصص " + discipline + ":\n\n" +
		summariseVerses(state.Verses) + "\n\n" +
		"السياق التفسيري:\n" + truncateRunes(state.TafseerContext, 1000) + "\n\n" +
		"لكل ارتباط: الادعاء، الدليل، الاعتراض الرئيسي، ومستوى الثقة (tier_1/tier_2/tier_3).\n" +
		"أعد JSON بالشكل:\n" +
		`{"findings": [{"verse_key": "S:V", "discipline": "...", "claim": "...", ` +
		`"evidence": "...", "main_objection": "...", "confidence_tier": "tier_2"}]}`

	text, err := s.llm.Complete(ctx, scienceExplorerSystemPrompt, prompt, 2048, 0.5)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		slog.Warn("Science exploration fell back to mock", "discipline", discipline, "error", err)
		return mockScienceFindings([]string{discipline})
	}
	var parsed struct {
		Findings []models.Finding `json:"findings"`
	}
	if err := decodeJSONBlock(text, &parsed); err != nil {
		return mockScienceFindings([]string{discipline})
	}
	for i := range parsed.Findings {
		if parsed.Findings[i].Discipline == "" {
			parsed.Findings[i].Discipline = discipline
		}
	}
	return parsed.Findings
}

// exploreDisciplines fans out one task per discipline and concatenates the
// results in input order.
func exploreDisciplines(ctx context.Context, disciplines []string, explore func(context.Context, string) []models.Finding) []models.Finding {
	results := make([][]models.Finding, len(disciplines))
	done := make(chan int, len(disciplines))
	for i, d := range disciplines {
		go func(i int, d string) {
			results[i] = explore(ctx, d)
			done <- i
		}(i, d)
	}
	for range disciplines {
		<-done
	}

	var findings []models.Finding
	for _, r := range results {
		findings = append(findings, r...)
	}
	return findings
}
