package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/quranlabs/tadabbur/pkg/engine"
	"github.com/quranlabs/tadabbur/pkg/models"
	"github.com/quranlabs/tadabbur/pkg/services"
)

// SynthesisStage merges every upstream result into one academic report.
// When the provider supports streaming, the raw fragments travel to the
// event adapter through the transient SynthesisFragments field.
type SynthesisStage struct {
	llm services.LLM
}

func NewSynthesisStage(llm services.LLM) *SynthesisStage {
	return &SynthesisStage{llm: llm}
}

func (s *SynthesisStage) Name() string { return engine.StageSynthesis }

func (s *SynthesisStage) Run(ctx context.Context, state models.DiscoveryState) (models.StateUpdate, error) {
	text, fragments := s.synthesize(ctx, state)
	if ctx.Err() != nil {
		return models.StateUpdate{}, ctx.Err()
	}
	if text == "" {
		text = mockSynthesis()
		fragments = nil
	}

	return models.StateUpdate{
		Synthesis:          &text,
		ConfidenceTier:     models.Ptr(tierOf(text)),
		SynthesisFragments: fragments,
		Updates: []models.ProgressRecord{{
			Stage:  engine.StageSynthesis,
			Status: models.StatusDone,
		}},
	}, nil
}

func (s *SynthesisStage) synthesize(ctx context.Context, state models.DiscoveryState) (string, []string) {
	prompt := s.buildPrompt(state)

	if ch, err := s.llm.StreamComplete(ctx, synthesisSystemPrompt, prompt, 4096, 0.5); err == nil {
		var sb strings.Builder
		var fragments []string
		for fragment := range ch {
			sb.WriteString(fragment)
			fragments = append(fragments, fragment)
		}
		return sb.String(), fragments
	}

	text, err := s.llm.Complete(ctx, synthesisSystemPrompt, prompt, 4096, 0.5)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("Synthesis fell back to mock", "error", err)
		}
		return "", nil
	}
	return text, nil
}

func (s *SynthesisStage) buildPrompt(state models.DiscoveryState) string {
	var sb strings.Builder
	sb.WriteString("اكتب توليفاً بحثياً متكاملاً للاستعلام: ")
	sb.WriteString(state.Query)
	sb.WriteString("\n\nالآيات:\n")
	sb.WriteString(summariseVerses(state.Verses))

	if state.Linguistic != nil {
		sb.WriteString("\n\nالتحليل اللغوي:\n")
		sb.WriteString("الجذور: " + strings.Join(state.Linguistic.Roots, "، ") + "\n")
		sb.WriteString(state.Linguistic.Summary)
	}
	if len(state.ScienceFindings) > 0 {
		sb.WriteString("\n\nالارتباطات العلمية:\n")
		writeFindings(&sb, state.ScienceFindings)
	}
	if state.TafseerFindings != nil {
		sb.WriteString("\n\nالرأي التفسيري المشترك:\n")
		sb.WriteString(truncateRunes(state.TafseerFindings.ConsensusView, 1000))
		sb.WriteString("\n\nملاحظة الشعراوي:\n")
		sb.WriteString(truncateRunes(state.TafseerFindings.ShaarawyNote, 500))
	}
	if len(state.HumanitiesFindings) > 0 {
		sb.WriteString("\n\nالارتباطات الإنسانية:\n")
		writeFindings(&sb, state.HumanitiesFindings)
	}

	sb.WriteString("\n\nالمطلوب: سرد موحّد يُدرج الاعتراضات بجانب كل ادعاء، " +
		"ويختم بمستوى الثقة الإجمالي بصيغة حرفية واحدة: tier_1 أو tier_2 أو tier_3.")
	return sb.String()
}

func writeFindings(sb *strings.Builder, findings []models.Finding) {
	for i, f := range findings {
		if i == 10 {
			break
		}
		sb.WriteString("- [" + f.VerseKey + "/" + f.Discipline + "] " + truncateRunes(f.Claim, 300))
		if f.MainObjection != "" {
			sb.WriteString(" (اعتراض: " + truncateRunes(f.MainObjection, 200) + ")")
		}
		if f.HonestyNote != "" {
			sb.WriteString(" (أمانة: " + truncateRunes(f.HonestyNote, 200) + ")")
		}
		sb.WriteString("\n")
	}
}

// tierOf extracts the confidence tier by substring scan. tier_2 is the
// default when the text names neither extreme.
func tierOf(text string) models.Tier {
	for _, t := range []models.Tier{models.TierOne, models.TierThree} {
		if strings.Contains(text, string(t)) {
			return t
		}
	}
	return models.TierTwo
}
