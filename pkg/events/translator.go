package events

import (
	"github.com/quranlabs/tadabbur/pkg/engine"
	"github.com/quranlabs/tadabbur/pkg/models"
)

// Translator converts one session's step emissions into outgoing events.
// It is owned by a single stream goroutine and is not safe for concurrent
// use. The seen set survives loop-back: a repeat stage execution never
// re-emits events the client already received.
type Translator struct {
	sessionID string
	seen      map[string]bool
}

// NewTranslator creates a translator for one session.
func NewTranslator(sessionID string) *Translator {
	return &Translator{sessionID: sessionID, seen: make(map[string]bool)}
}

// Start returns the opening event.
func (t *Translator) Start() Outgoing {
	return Outgoing{Event: EventSessionStart, Payload: map[string]any{"session_id": t.sessionID}}
}

// Translate maps one engine step to zero or more outgoing events.
func (t *Translator) Translate(ev engine.StepEvent) []Outgoing {
	if ev.Err != nil {
		return []Outgoing{t.Error(ev.Err)}
	}

	var out []Outgoing
	emitOnce := func(name string, payload any) {
		if t.seen[name] {
			return
		}
		t.seen[name] = true
		out = append(out, Outgoing{Event: name, Payload: payload})
	}

	switch ev.Stage {
	case engine.StageRouteQuery:
		emitOnce(EventQuranSearch, progressPayload(ev.Update))

	case engine.StageQuranRAG:
		emitOnce(EventQuranSearch, progressPayload(ev.Update))
		if ev.Update.Verses != nil && len(*ev.Update.Verses) > 0 {
			emitOnce(EventQuranFound, map[string]any{
				"verses": *ev.Update.Verses,
				"count":  len(*ev.Update.Verses),
			})
		}

	case engine.StageLinguistic:
		emitOnce(EventLinguistic, progressPayload(ev.Update))

	case engine.StageScience:
		if !t.seen["stage:"+engine.StageScience] {
			t.seen["stage:"+engine.StageScience] = true
			if ev.Update.ScienceFindings != nil {
				for _, f := range *ev.Update.ScienceFindings {
					out = append(out, Outgoing{Event: EventFinding, Payload: f})
				}
			}
		}

	case engine.StageHumanities:
		if !t.seen["stage:"+engine.StageHumanities] {
			t.seen["stage:"+engine.StageHumanities] = true
			if ev.Update.HumanitiesFindings != nil {
				for _, f := range *ev.Update.HumanitiesFindings {
					out = append(out, Outgoing{Event: EventFinding, Payload: f})
				}
			}
		}

	case engine.StageTafseer:
		emitOnce(EventTafseer, progressPayload(ev.Update))

	case engine.StageSynthesis:
		if !t.seen["stage:"+engine.StageSynthesis] {
			t.seen["stage:"+engine.StageSynthesis] = true
			out = append(out, t.synthesisTokens(ev.Update)...)
		}

	case engine.StageQualityReview:
		if ev.Update.QualityScore != nil {
			emitOnce(EventQualityDone, map[string]any{"score": *ev.Update.QualityScore})
		}
	}
	return out
}

// synthesisTokens emits one token per LLM fragment when the provider
// streamed, otherwise a single token carrying the full text.
func (t *Translator) synthesisTokens(update models.StateUpdate) []Outgoing {
	if len(update.SynthesisFragments) > 0 {
		out := make([]Outgoing, 0, len(update.SynthesisFragments))
		for _, fragment := range update.SynthesisFragments {
			out = append(out, Outgoing{Event: EventSynthesisToken, Payload: map[string]any{"token": fragment}})
		}
		return out
	}
	if update.Synthesis != nil {
		return []Outgoing{{Event: EventSynthesisToken, Payload: map[string]any{"token": *update.Synthesis}}}
	}
	return nil
}

// Complete builds the terminal summary event from the final state.
func (t *Translator) Complete(state models.DiscoveryState) Outgoing {
	payload := map[string]any{
		"session_id":                t.sessionID,
		"synthesis":                 state.Synthesis,
		"confidence_tier":           string(state.ConfidenceTier),
		"quality_score":             state.QualityScore,
		"quality_issues":            issuesOrEmpty(state.QualityIssues),
		"verses_count":              len(state.Verses),
		"science_findings_count":    len(state.ScienceFindings),
		"humanities_findings_count": len(state.HumanitiesFindings),
	}
	if state.DiscoveryID != "" {
		payload["discovery_id"] = state.DiscoveryID
	}
	return Outgoing{Event: EventComplete, Payload: payload}
}

// Error builds the terminal error event.
func (t *Translator) Error(err error) Outgoing {
	return Outgoing{Event: EventError, Payload: map[string]any{"error": err.Error()}}
}

// progressPayload returns the stage's progress record, the payload used by
// the stage-level announcement events.
func progressPayload(update models.StateUpdate) any {
	if len(update.Updates) > 0 {
		return update.Updates[0]
	}
	return map[string]any{"status": models.StatusDone}
}

func issuesOrEmpty(issues []string) []string {
	if issues == nil {
		return []string{}
	}
	return issues
}
