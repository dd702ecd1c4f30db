package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quranlabs/tadabbur/pkg/models"
	"github.com/quranlabs/tadabbur/pkg/services"
)

// fakeLLM returns a fixed completion, or ErrUnavailable when response is
// empty. Streaming yields the fragments when set.
type fakeLLM struct {
	response  string
	fragments []string
}

func (f fakeLLM) Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	if f.response == "" {
		return "", services.ErrUnavailable
	}
	return f.response, nil
}

func (f fakeLLM) StreamComplete(ctx context.Context, system, user string, maxTokens int, temperature float64) (<-chan string, error) {
	if len(f.fragments) == 0 {
		return nil, services.ErrUnavailable
	}
	ch := make(chan string, len(f.fragments))
	for _, fragment := range f.fragments {
		ch <- fragment
	}
	close(ch)
	return ch, nil
}

func routeOf(t *testing.T, state models.DiscoveryState) string {
	t.Helper()
	update, err := NewRouterStage(services.NullLLM{}).Run(context.Background(), state)
	require.NoError(t, err)
	require.Len(t, update.Updates, 1)
	return update.Updates[0].Route
}

func TestRouterFillsDefaults(t *testing.T) {
	update, err := NewRouterStage(services.NullLLM{}).Run(context.Background(), models.DiscoveryState{Query: "x"})
	require.NoError(t, err)

	require.NotNil(t, update.Disciplines)
	assert.Equal(t, []string{"physics", "biology", "psychology"}, *update.Disciplines)
	require.NotNil(t, update.Mode)
	assert.Equal(t, models.ModeGuided, *update.Mode)
	require.NotNil(t, update.IterationCount)
	assert.Equal(t, 0, *update.IterationCount)
}

func TestRouterKeepsProvidedInputs(t *testing.T) {
	update, err := NewRouterStage(services.NullLLM{}).Run(context.Background(), models.DiscoveryState{
		Query:       "x",
		Disciplines: []string{"physics"},
		Mode:        models.ModeAutonomous,
	})
	require.NoError(t, err)
	assert.Nil(t, update.Disciplines)
	assert.Nil(t, update.Mode)
}

func TestAutonomousModeAlwaysRoutesParallel(t *testing.T) {
	assert.Equal(t, RouteParallel, routeOf(t, models.DiscoveryState{Query: "x", Mode: models.ModeAutonomous}))
	assert.Equal(t, RouteParallel, routeOf(t, models.DiscoveryState{Query: "تفسير سورة الكهف", Mode: models.ModeCrossDomain}))
}

func TestDisciplineHintsDriveRouting(t *testing.T) {
	assert.Equal(t, RouteScience, routeOf(t, models.DiscoveryState{
		Query: "x", Disciplines: []string{"physics", "chemistry"},
	}))
	assert.Equal(t, RouteHumanities, routeOf(t, models.DiscoveryState{
		Query: "x", Disciplines: []string{"psychology", "economics"},
	}))
}

func TestKeywordRouting(t *testing.T) {
	assert.Equal(t, RouteScience, routeOf(t, models.DiscoveryState{
		Query: "الجبال في القرآن", Disciplines: []string{"physics", "psychology"},
	}))
	assert.Equal(t, RouteHumanities, routeOf(t, models.DiscoveryState{
		Query: "الصبر والطمأنينة", Disciplines: []string{"physics", "psychology"},
	}))
	assert.Equal(t, RouteTafseer, routeOf(t, models.DiscoveryState{
		Query: "تفسير الشعراوي للبلاغة", Disciplines: []string{"physics", "psychology"},
	}))
}

func TestNoSignalFallsBackToParallel(t *testing.T) {
	assert.Equal(t, RouteParallel, routeOf(t, models.DiscoveryState{
		Query: "xyz", Disciplines: []string{"physics", "psychology"},
	}))
}

func TestLLMClassifierRefinesAmbiguousQuery(t *testing.T) {
	stage := NewRouterStage(fakeLLM{response: `{"route": "tafseer"}`})
	update, err := stage.Run(context.Background(), models.DiscoveryState{
		Query: "xyz", Disciplines: []string{"physics", "psychology"},
	})
	require.NoError(t, err)
	assert.Equal(t, RouteTafseer, update.Updates[0].Route)
}

func TestLLMClassifierRejectsUnknownRoute(t *testing.T) {
	stage := NewRouterStage(fakeLLM{response: `{"route": "everything"}`})
	update, err := stage.Run(context.Background(), models.DiscoveryState{
		Query: "xyz", Disciplines: []string{"physics", "psychology"},
	})
	require.NoError(t, err)
	assert.Equal(t, RouteParallel, update.Updates[0].Route)
}
