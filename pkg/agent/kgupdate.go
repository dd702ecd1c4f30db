package agent

import (
	"context"

	"github.com/quranlabs/tadabbur/pkg/engine"
	"github.com/quranlabs/tadabbur/pkg/models"
)

// KGUpdateStage is the terminal placeholder reserved for a knowledge-graph
// writer. It only emits the final progress record.
type KGUpdateStage struct{}

func NewKGUpdateStage() *KGUpdateStage { return &KGUpdateStage{} }

func (s *KGUpdateStage) Name() string { return engine.StageKGUpdate }

func (s *KGUpdateStage) Run(ctx context.Context, state models.DiscoveryState) (models.StateUpdate, error) {
	return models.StateUpdate{
		Updates: []models.ProgressRecord{{
			Stage:  engine.StageKGUpdate,
			Status: models.StatusDone,
		}},
	}, nil
}
