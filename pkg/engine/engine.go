// Package engine executes the discovery DAG for one session at a time,
// many sessions in parallel.
//
// The topology never varies at runtime, so it is written out as straight
// code rather than configured as a graph:
//
//	route_query → quran_rag → linguistic → {humanities, science, tafseer}
//	                                         all three → synthesis → quality_review
//	quality_review --deepen--> quran_rag    (bounded loop-back)
//	quality_review --complete--> kg_update → END
//
// Execution proceeds in super-steps: all ready stages launch concurrently,
// the engine waits for every branch at a barrier, merges their partial
// updates deterministically, then moves on. The engine goroutine is the
// only writer to the state; fan-out branches receive deep-copied snapshots
// and report back over a channel.
package engine

import (
	"context"
	"log/slog"
	"sort"

	"github.com/quranlabs/tadabbur/pkg/models"
	"github.com/quranlabs/tadabbur/pkg/session"
)

// MaxIterations bounds the quality-gate deepen loop. Changing it is a
// behavior change, not a tuning knob.
const MaxIterations = 3

// StepEvent is one incremental emission: a stage completed and its update
// was merged. State is the snapshot after the whole super-step merged.
// A non-nil Err is terminal (cancellation or an engine-level failure);
// no further events follow it.
type StepEvent struct {
	Stage  string
	Update models.StateUpdate
	State  models.DiscoveryState
	Err    error
}

// Engine drives sessions through the DAG.
type Engine struct {
	registry    *Registry
	checkpoints *session.Checkpointer
}

// New creates an engine over the given stage registry and checkpointer.
func New(registry *Registry, checkpoints *session.Checkpointer) *Engine {
	return &Engine{registry: registry, checkpoints: checkpoints}
}

// Run starts the session and returns the incremental emission channel. The
// channel is closed when the run terminates (complete, cancelled, or
// failed); the terminal state is always retrievable from the checkpointer.
// Run rejects a second in-flight orchestration for the same session id.
func (e *Engine) Run(ctx context.Context, sessionID string, initial models.DiscoveryState) (<-chan StepEvent, error) {
	if err := e.checkpoints.Begin(sessionID, initial); err != nil {
		return nil, err
	}
	ch := make(chan StepEvent)
	go e.run(ctx, sessionID, initial, ch)
	return ch, nil
}

func (e *Engine) run(ctx context.Context, sessionID string, initial models.DiscoveryState, ch chan<- StepEvent) {
	defer close(ch)
	defer e.checkpoints.End(sessionID)

	state := initial

	if !e.step(ctx, sessionID, &state, ch, StageRouteQuery) {
		return
	}
	for {
		if !e.step(ctx, sessionID, &state, ch, StageQuranRAG) {
			return
		}
		if !e.step(ctx, sessionID, &state, ch, StageLinguistic) {
			return
		}
		if !e.fanOut(ctx, sessionID, &state, ch, FanOutStages) {
			return
		}
		if !e.step(ctx, sessionID, &state, ch, StageSynthesis) {
			return
		}
		if !e.step(ctx, sessionID, &state, ch, StageQualityReview) {
			return
		}
		if !(state.ShouldDeepen && state.IterationCount < MaxIterations) {
			break
		}
		slog.Info("Quality gate requested deepening",
			"session_id", sessionID,
			"iteration", state.IterationCount,
			"quality_score", state.QualityScore)
	}
	e.step(ctx, sessionID, &state, ch, StageKGUpdate)
}

// step runs a single-stage super-step. It returns false when the run must
// stop (cancellation); stage failures are tolerated and return true.
func (e *Engine) step(ctx context.Context, sessionID string, state *models.DiscoveryState, ch chan<- StepEvent, name string) bool {
	if ctx.Err() != nil {
		e.emitCancelled(ctx, sessionID, *state, ch)
		return false
	}

	update := e.runStage(ctx, sessionID, *state, name)
	if ctx.Err() != nil {
		e.emitCancelled(ctx, sessionID, *state, ch)
		return false
	}

	state.Apply(update)
	e.checkpoints.Put(sessionID, *state)
	ch <- StepEvent{Stage: name, Update: update, State: state.Clone()}
	return true
}

// fanOut runs one super-step of concurrent branches. Every branch receives
// the same pre-step snapshot; updates are merged in lexicographic stage
// order and emitted in that order.
func (e *Engine) fanOut(ctx context.Context, sessionID string, state *models.DiscoveryState, ch chan<- StepEvent, names []string) bool {
	if ctx.Err() != nil {
		e.emitCancelled(ctx, sessionID, *state, ch)
		return false
	}

	type branchResult struct {
		name   string
		update models.StateUpdate
	}

	results := make(chan branchResult, len(names))
	for _, name := range names {
		snapshot := state.Clone()
		go func(name string) {
			results <- branchResult{name: name, update: e.runStage(ctx, sessionID, snapshot, name)}
		}(name)
	}

	// Super-step barrier: all branches complete before any merge.
	updates := make(map[string]models.StateUpdate, len(names))
	for range names {
		r := <-results
		updates[r.name] = r.update
	}

	if ctx.Err() != nil {
		e.emitCancelled(ctx, sessionID, *state, ch)
		return false
	}

	ordered := append([]string(nil), names...)
	sort.Strings(ordered)
	for _, name := range ordered {
		state.Apply(updates[name])
	}
	e.checkpoints.Put(sessionID, *state)

	snapshot := state.Clone()
	for _, name := range ordered {
		ch <- StepEvent{Stage: name, Update: updates[name], State: snapshot}
	}
	return true
}

// runStage executes one stage and maps failure to the tolerate-and-continue
// policy: log, record an error progress entry, return empty defaults for
// the stage's output keys.
func (e *Engine) runStage(ctx context.Context, sessionID string, snapshot models.DiscoveryState, name string) models.StateUpdate {
	stage, err := e.registry.Get(name)
	if err != nil {
		slog.Error("Stage lookup failed", "session_id", sessionID, "stage", name, "error", err)
		return errorUpdate(name, err)
	}

	update, err := stage.Run(ctx, snapshot)
	if err != nil {
		if ctx.Err() != nil {
			return models.StateUpdate{}
		}
		slog.Error("Stage failed, continuing with empty defaults",
			"session_id", sessionID, "stage", name, "error", err)
		return errorUpdate(name, err)
	}
	return update
}

func errorUpdate(stage string, err error) models.StateUpdate {
	return models.StateUpdate{
		Updates: []models.ProgressRecord{{
			Stage:  stage,
			Status: models.StatusError,
			Error:  err.Error(),
		}},
	}
}

func (e *Engine) emitCancelled(ctx context.Context, sessionID string, state models.DiscoveryState, ch chan<- StepEvent) {
	slog.Info("Session cancelled", "session_id", sessionID, "cause", context.Cause(ctx))
	e.checkpoints.Put(sessionID, state)
	ch <- StepEvent{State: state, Err: ctx.Err()}
}
