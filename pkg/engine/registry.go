package engine

import (
	"context"
	"fmt"

	"github.com/quranlabs/tadabbur/pkg/models"
)

// Stage is one named unit of work in the DAG. Run receives an immutable
// snapshot of the session state and returns a partial update touching only
// the fields the stage owns. Stages must be safe for concurrent use across
// sessions.
type Stage interface {
	Name() string
	Run(ctx context.Context, snapshot models.DiscoveryState) (models.StateUpdate, error)
}

// Stage names, in dependency order.
const (
	StageRouteQuery    = "route_query"
	StageQuranRAG      = "quran_rag"
	StageLinguistic    = "linguistic"
	StageScience       = "science"
	StageTafseer       = "tafseer"
	StageHumanities    = "humanities"
	StageSynthesis     = "synthesis"
	StageQualityReview = "quality_review"
	StageKGUpdate      = "kg_update"
)

// FanOutStages are the branches launched concurrently after linguistic,
// listed in lexicographic order (the deterministic tie-break used for
// merging and emission).
var FanOutStages = []string{StageHumanities, StageScience, StageTafseer}

// Registry holds the named stages the engine executes.
type Registry struct {
	stages map[string]Stage
}

// NewRegistry creates an empty stage registry.
func NewRegistry() *Registry {
	return &Registry{stages: make(map[string]Stage)}
}

// Register adds a stage under its declared name. Registering the same name
// twice is a programmer error.
func (r *Registry) Register(s Stage) error {
	name := s.Name()
	if _, ok := r.stages[name]; ok {
		return fmt.Errorf("stage already registered: %s", name)
	}
	r.stages[name] = s
	return nil
}

// MustRegister registers a stage and panics on duplicates. Used at
// construction time where a duplicate means a wiring bug.
func (r *Registry) MustRegister(s Stage) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// Get returns the stage registered under name.
func (r *Registry) Get(name string) (Stage, error) {
	s, ok := r.stages[name]
	if !ok {
		return nil, fmt.Errorf("unknown stage: %s", name)
	}
	return s, nil
}
