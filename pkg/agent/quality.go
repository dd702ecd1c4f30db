package agent

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/quranlabs/tadabbur/pkg/engine"
	"github.com/quranlabs/tadabbur/pkg/models"
	"github.com/quranlabs/tadabbur/pkg/services"
)

// QualityGateThreshold is the score below which the gate requests another
// retrieval pass. Changing it is a behavior change, not a tuning knob.
const QualityGateThreshold = 0.6

// issueWeight is the per-issue penalty applied to the rule score.
const issueWeight = 0.15

// QualityStage is the academic quality gate. Deterministic rule checks
// run first; the LLM second opinion, when available, is averaged in.
// The stage owns the iteration counter and forces the deepen flag off at
// the bound.
type QualityStage struct {
	llm services.LLM
}

func NewQualityStage(llm services.LLM) *QualityStage {
	return &QualityStage{llm: llm}
}

func (s *QualityStage) Name() string { return engine.StageQualityReview }

func (s *QualityStage) Run(ctx context.Context, state models.DiscoveryState) (models.StateUpdate, error) {
	issues := ruleChecks(state)
	ruleScore := math.Max(0, 1-float64(len(issues))*issueWeight)

	score := ruleScore
	if llmScore, llmIssues, ok := s.llmReview(ctx, state); ok {
		issues = append(issues, llmIssues...)
		score = (ruleScore + llmScore) / 2
	}
	if ctx.Err() != nil {
		return models.StateUpdate{}, ctx.Err()
	}

	score = math.Round(math.Max(0, math.Min(1, score))*100) / 100
	iteration := state.IterationCount + 1
	deepen := score < QualityGateThreshold && iteration < engine.MaxIterations

	return models.StateUpdate{
		QualityScore:   &score,
		QualityIssues:  &issues,
		ShouldDeepen:   &deepen,
		IterationCount: &iteration,
		Updates: []models.ProgressRecord{{
			Stage:        engine.StageQualityReview,
			Status:       models.StatusDone,
			QualityScore: score,
			ShouldDeepen: deepen,
		}},
	}, nil
}

// ruleChecks applies the deterministic quality rules. Issue text stays in
// Arabic; it travels verbatim into quality_issues on the wire.
func ruleChecks(state models.DiscoveryState) []string {
	issues := []string{}

	for _, f := range state.ScienceFindings {
		if f.MainObjection == "" {
			issues = append(issues, fmt.Sprintf("ارتباط علمي بدون اعتراض رئيسي: %s", verseKeyOr(f.VerseKey)))
		}
		if !models.ValidTier(f.ConfidenceTier) {
			issues = append(issues, fmt.Sprintf("مستوى ثقة غير صالح: %s", f.ConfidenceTier))
		}
	}

	for _, f := range state.HumanitiesFindings {
		if f.HonestyNote == "" {
			issues = append(issues, fmt.Sprintf("ارتباط إنساني بدون ملاحظة أمانة علمية: %s", verseKeyOr(f.VerseKey)))
		}
		if !correlationTypes[f.CorrelationType] {
			issues = append(issues, fmt.Sprintf("نوع ارتباط غير صالح: %s", f.CorrelationType))
		}
	}

	if state.TafseerFindings != nil {
		if state.TafseerFindings.ConsensusView == "" {
			issues = append(issues, "لا يوجد رأي إجماعي في التفسير")
		}
		if state.TafseerFindings.ShaarawyNote == "" {
			issues = append(issues, "لا توجد ملاحظة لغوية من الشعراوي")
		}
	}

	switch {
	case state.Synthesis == "":
		issues = append(issues, "لا يوجد توليف بحثي")
	case !strings.Contains(state.Synthesis, "tier_"):
		issues = append(issues, "التوليف لا يتضمن مستوى الثقة الإجمالي")
	}

	if state.Linguistic == nil || len(state.Linguistic.Roots) == 0 {
		issues = append(issues, "لا توجد جذور لغوية في التحليل")
	}
	if len(state.Verses) == 0 {
		issues = append(issues, "لم يتم العثور على آيات")
	}

	return issues
}

func verseKeyOr(vk string) string {
	if vk == "" {
		return "?"
	}
	return vk
}

func (s *QualityStage) llmReview(ctx context.Context, state models.DiscoveryState) (float64, []string, bool) {
	if state.Synthesis == "" {
		return 0, nil, false
	}

	prompt := "راجع جودة هذا التقرير البحثي:\n\n" +
		"التوليف:\n" + truncateRunes(state.Synthesis, 2000) + "\n\n" +
		fmt.Sprintf("عدد الارتباطات العلمية: %d\n", len(state.ScienceFindings)) +
		fmt.Sprintf("عدد الارتباطات الإنسانية: %d\n\n", len(state.HumanitiesFindings)) +
		"قيّم:\n" +
		"1. هل الاعتراضات مذكورة بشكل كافٍ؟\n" +
		"2. هل مستويات الثقة مُسندة بأدلة؟\n" +
		"3. هل المعرفة السابقة للإسلام مُعالجة؟\n" +
		"4. هل الأمانة العلمية متحققة؟\n\n" +
		"أعد JSON:\n" +
		`{"quality_score": 0.0-1.0, "quality_issues": ["..."], "should_deepen": true/false}`

	text, err := s.llm.Complete(ctx, "", prompt, 1024, 0.3)
	if err != nil {
		return 0, nil, false
	}
	var parsed struct {
		QualityScore  float64  `json:"quality_score"`
		QualityIssues []string `json:"quality_issues"`
	}
	if err := decodeJSONBlock(text, &parsed); err != nil {
		return 0, nil, false
	}
	return parsed.QualityScore, parsed.QualityIssues, true
}
