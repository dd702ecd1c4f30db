// Package session provides the in-memory checkpointer: the per-session
// store of the last fully-merged discovery state. It is the source of truth
// the stream adapter consults after the engine finishes.
package session

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/quranlabs/tadabbur/pkg/models"
)

// DefaultCapacity bounds the number of retained sessions; the least
// recently used finished session is evicted beyond it.
const DefaultCapacity = 1000

var (
	// ErrInFlight is returned by Begin when an orchestration for the
	// session id is already running.
	ErrInFlight = errors.New("session already in flight")

	// ErrNotFound is returned for unknown or evicted sessions.
	ErrNotFound = errors.New("session not found")
)

type entry struct {
	id      string
	state   models.DiscoveryState
	running bool
	done    chan struct{}
	elem    *list.Element
}

// Checkpointer is a process-wide session-id → state map with single-flight
// admission and LRU eviction of finished sessions.
type Checkpointer struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*entry
	order    *list.List // front = most recently used
}

// NewCheckpointer creates a checkpointer with the given capacity
// (DefaultCapacity when <= 0).
func NewCheckpointer(capacity int) *Checkpointer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Checkpointer{
		capacity: capacity,
		entries:  make(map[string]*entry),
		order:    list.New(),
	}
}

// Begin admits a new orchestration for the session id. Only one run per id
// may be in flight; a second attempt is rejected with ErrInFlight.
func (c *Checkpointer) Begin(id string, initial models.DiscoveryState) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok && e.running {
		return fmt.Errorf("%w: %s", ErrInFlight, id)
	}

	e := &entry{
		id:      id,
		state:   initial.Clone(),
		running: true,
		done:    make(chan struct{}),
	}
	if old, ok := c.entries[id]; ok {
		c.order.Remove(old.elem)
	}
	e.elem = c.order.PushFront(e)
	c.entries[id] = e

	c.evictLocked()
	return nil
}

// Put records the latest fully-merged state for the session.
func (c *Checkpointer) Put(id string, state models.DiscoveryState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return
	}
	e.state = state.Clone()
	c.order.MoveToFront(e.elem)
}

// Get returns a copy of the current state for the session.
func (c *Checkpointer) Get(id string) (models.DiscoveryState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return models.DiscoveryState{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c.order.MoveToFront(e.elem)
	return e.state.Clone(), nil
}

// End marks the session's run as finished, releasing Final waiters and the
// single-flight guard. The terminal state remains readable until evicted.
func (c *Checkpointer) End(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok || !e.running {
		return
	}
	e.running = false
	close(e.done)
}

// Final blocks until the session's run ends (or ctx is cancelled) and
// returns the terminal state.
func (c *Checkpointer) Final(ctx context.Context, id string) (models.DiscoveryState, error) {
	c.mu.Lock()
	e, ok := c.entries[id]
	c.mu.Unlock()
	if !ok {
		return models.DiscoveryState{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	select {
	case <-e.done:
		return c.Get(id)
	case <-ctx.Done():
		return models.DiscoveryState{}, ctx.Err()
	}
}

// Clear removes the session outright.
func (c *Checkpointer) Clear(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok {
		c.order.Remove(e.elem)
		delete(c.entries, id)
	}
}

// Len returns the number of retained sessions.
func (c *Checkpointer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictLocked drops least-recently-used finished sessions beyond capacity.
// In-flight sessions are never evicted.
func (c *Checkpointer) evictLocked() {
	for len(c.entries) > c.capacity {
		evicted := false
		for el := c.order.Back(); el != nil; el = el.Prev() {
			e := el.Value.(*entry)
			if e.running {
				continue
			}
			c.order.Remove(el)
			delete(c.entries, e.id)
			evicted = true
			break
		}
		if !evicted {
			return
		}
	}
}
