// Package orchestrator is the single entry point binding the external
// adapters into stages and exposing the invoke and stream shapes over the
// engine.
package orchestrator

import (
	"context"
	"log/slog"

	"github.com/quranlabs/tadabbur/pkg/agent"
	"github.com/quranlabs/tadabbur/pkg/engine"
	"github.com/quranlabs/tadabbur/pkg/events"
	"github.com/quranlabs/tadabbur/pkg/models"
	"github.com/quranlabs/tadabbur/pkg/services"
	"github.com/quranlabs/tadabbur/pkg/session"
)

// Orchestrator runs discovery sessions. Constructed once per process; safe
// for concurrent use across sessions.
type Orchestrator struct {
	engine      *engine.Engine
	checkpoints *session.Checkpointer
	store       services.DiscoveryStore
}

// New wires the adapter set into the nine stages and builds the engine.
// Nil adapters become null objects, so a Set{} yields a fully mocked run.
func New(svcs services.Set, checkpoints *session.Checkpointer) *Orchestrator {
	svcs = svcs.FillNulls()
	registry := engine.NewRegistry()
	agent.RegisterStages(registry, svcs)
	return &Orchestrator{
		engine:      engine.New(registry, checkpoints),
		checkpoints: checkpoints,
		store:       svcs.Store,
	}
}

// Checkpoints exposes the session checkpointer for result retrieval.
func (o *Orchestrator) Checkpoints() *session.Checkpointer {
	return o.checkpoints
}

// Invoke runs the session to completion and returns the terminal state.
func (o *Orchestrator) Invoke(ctx context.Context, sessionID string, initial models.DiscoveryState) (models.DiscoveryState, error) {
	ch, err := o.engine.Run(ctx, sessionID, initial)
	if err != nil {
		return models.DiscoveryState{}, err
	}

	var runErr error
	for ev := range ch {
		if ev.Err != nil {
			runErr = ev.Err
		}
	}

	state, err := o.checkpoints.Get(sessionID)
	if err != nil {
		return models.DiscoveryState{}, err
	}
	if runErr != nil {
		return state, runErr
	}
	return o.persist(ctx, sessionID, state), nil
}

// Stream runs the session and yields translated events, from session_start
// through complete or error. The channel closes after the terminal event.
func (o *Orchestrator) Stream(ctx context.Context, sessionID string, initial models.DiscoveryState) (<-chan events.Outgoing, error) {
	ch, err := o.engine.Run(ctx, sessionID, initial)
	if err != nil {
		return nil, err
	}

	out := make(chan events.Outgoing, 16)
	go func() {
		defer close(out)
		translator := events.NewTranslator(sessionID)

		send := func(ev events.Outgoing) {
			select {
			case out <- ev:
			case <-ctx.Done():
				// The reader drains the channel after cancellation;
				// keep the remaining frames available without blocking.
				select {
				case out <- ev:
				default:
				}
			}
		}

		send(translator.Start())

		var runErr error
		for ev := range ch {
			if ev.Err != nil {
				runErr = ev.Err
			}
			for _, outgoing := range translator.Translate(ev) {
				send(outgoing)
			}
		}
		if runErr != nil {
			// Translate already emitted the terminal error event.
			return
		}

		state, err := o.checkpoints.Get(sessionID)
		if err != nil {
			send(translator.Error(err))
			return
		}
		state = o.persist(ctx, sessionID, state)
		send(translator.Complete(state))
	}()
	return out, nil
}

// persist writes the discovery record for a completed run. Failures are
// swallowed; discovery_id is simply absent from the terminal payload.
func (o *Orchestrator) persist(ctx context.Context, sessionID string, state models.DiscoveryState) models.DiscoveryState {
	if state.Synthesis == "" {
		return state
	}
	id, err := o.store.Save(ctx, models.DiscoveryFromState(state))
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("Discovery persist failed", "session_id", sessionID, "error", err)
		}
		return state
	}
	state.DiscoveryID = id
	o.checkpoints.Put(sessionID, state)
	slog.Info("Discovery persisted", "session_id", sessionID, "discovery_id", id)
	return state
}
