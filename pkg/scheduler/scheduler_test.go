package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quranlabs/tadabbur/pkg/orchestrator"
	"github.com/quranlabs/tadabbur/pkg/services"
	"github.com/quranlabs/tadabbur/pkg/session"
)

func TestSeedQueriesRotate(t *testing.T) {
	s := New(orchestrator.New(services.Set{}, session.NewCheckpointer(10)))

	var seen []string
	for i := 0; i < len(seedQueries)*2; i++ {
		seen = append(seen, s.nextQuery())
	}
	// Full pass, then the same order again.
	assert.Equal(t, seedQueries, seen[:len(seedQueries)])
	assert.Equal(t, seedQueries, seen[len(seedQueries):])
}

func TestTickRunsAutonomousDiscovery(t *testing.T) {
	checkpoints := session.NewCheckpointer(10)
	s := New(orchestrator.New(services.Set{}, checkpoints))

	s.tick("test")

	require.Equal(t, 1, checkpoints.Len())
	// The guard is released once the run finishes.
	assert.True(t, s.tryAcquire())
	s.release()
}

func TestOverlappingTickIsSkipped(t *testing.T) {
	checkpoints := session.NewCheckpointer(10)
	s := New(orchestrator.New(services.Set{}, checkpoints))

	require.True(t, s.tryAcquire())
	s.tick("overlap")
	assert.Equal(t, 0, checkpoints.Len())
	s.release()

	// The query index did not advance on the skipped tick.
	assert.Equal(t, seedQueries[0], s.nextQuery())
}
