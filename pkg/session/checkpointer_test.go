package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quranlabs/tadabbur/pkg/models"
)

func TestBeginRejectsInFlightDuplicate(t *testing.T) {
	c := NewCheckpointer(10)

	require.NoError(t, c.Begin("s1", models.DiscoveryState{Query: "a"}))
	err := c.Begin("s1", models.DiscoveryState{Query: "b"})
	require.ErrorIs(t, err, ErrInFlight)

	// After the run ends the id can be reused.
	c.End("s1")
	require.NoError(t, c.Begin("s1", models.DiscoveryState{Query: "c"}))
}

func TestPutAndGetReturnCopies(t *testing.T) {
	c := NewCheckpointer(10)
	require.NoError(t, c.Begin("s1", models.DiscoveryState{}))

	c.Put("s1", models.DiscoveryState{Verses: []models.VerseRecord{{VerseKey: "21:30"}}})

	got, err := c.Get("s1")
	require.NoError(t, err)
	got.Verses[0].VerseKey = "mutated"

	again, err := c.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "21:30", again.Verses[0].VerseKey)
}

func TestGetUnknownSession(t *testing.T) {
	c := NewCheckpointer(10)
	_, err := c.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLRUEvictionSkipsRunningSessions(t *testing.T) {
	c := NewCheckpointer(2)

	require.NoError(t, c.Begin("running", models.DiscoveryState{}))
	require.NoError(t, c.Begin("finished", models.DiscoveryState{}))
	c.End("finished")

	// Third session exceeds capacity; the finished one must go, not the
	// running one.
	require.NoError(t, c.Begin("new", models.DiscoveryState{}))

	_, err := c.Get("finished")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Get("running")
	assert.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestFinalBlocksUntilEnd(t *testing.T) {
	c := NewCheckpointer(10)
	require.NoError(t, c.Begin("s1", models.DiscoveryState{}))

	done := make(chan models.DiscoveryState, 1)
	go func() {
		state, err := c.Final(context.Background(), "s1")
		require.NoError(t, err)
		done <- state
	}()

	select {
	case <-done:
		t.Fatal("Final returned before End")
	case <-time.After(20 * time.Millisecond):
	}

	c.Put("s1", models.DiscoveryState{Synthesis: "final"})
	c.End("s1")

	select {
	case state := <-done:
		assert.Equal(t, "final", state.Synthesis)
	case <-time.After(time.Second):
		t.Fatal("Final did not return after End")
	}
}

func TestFinalHonorsContext(t *testing.T) {
	c := NewCheckpointer(10)
	require.NoError(t, c.Begin("s1", models.DiscoveryState{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Final(ctx, "s1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClear(t *testing.T) {
	c := NewCheckpointer(10)
	require.NoError(t, c.Begin("s1", models.DiscoveryState{}))
	c.End("s1")

	c.Clear("s1")
	_, err := c.Get("s1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, c.Len())
}
