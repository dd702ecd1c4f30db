// Package scheduler runs the discovery pipeline on a recurring schedule:
// autonomous explorations over a rotating list of seeded queries.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/quranlabs/tadabbur/pkg/models"
	"github.com/quranlabs/tadabbur/pkg/orchestrator"
)

// jobTimeout bounds one scheduled exploration.
const jobTimeout = 10 * time.Minute

// seedQueries is the rotating exploration list. The round-robin index
// lives in memory only; a restart begins again at the top.
var seedQueries = []string{
	"الماء في القرآن الكريم",
	"مراحل خلق الجنين في القرآن",
	"الجبال ووظيفتها في القرآن",
	"العسل والشفاء في القرآن",
	"الحديد في القرآن الكريم",
	"نشأة الكون في القرآن",
}

// Schedules for the four fixed jobs.
const (
	scheduleHourly    = "@hourly"
	scheduleSixHourly = "@every 6h"
	scheduleDaily     = "0 2 * * *"
	scheduleWeekly    = "@weekly"
)

// Scheduler drives periodic autonomous discoveries. Jobs never overlap: a
// tick that fires while the previous exploration is still running is
// skipped with a warning.
type Scheduler struct {
	orch *orchestrator.Orchestrator
	cron *cron.Cron

	mu      sync.Mutex
	running bool
	next    int
}

// New creates a scheduler over the shared orchestrator.
func New(orch *orchestrator.Orchestrator) *Scheduler {
	return &Scheduler{
		orch: orch,
		cron: cron.New(cron.WithLocation(time.UTC)),
	}
}

// Start registers the four fixed jobs and begins ticking.
func (s *Scheduler) Start() error {
	jobs := []struct {
		name string
		spec string
	}{
		{"hourly", scheduleHourly},
		{"six_hourly", scheduleSixHourly},
		{"daily", scheduleDaily},
		{"weekly", scheduleWeekly},
	}
	for _, job := range jobs {
		name := job.name
		if _, err := s.cron.AddFunc(job.spec, func() { s.tick(name) }); err != nil {
			return err
		}
	}
	s.cron.Start()
	slog.Info("Background scheduler started", "jobs", len(jobs))
	return nil
}

// Stop halts ticking and waits for a running job, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		slog.Warn("Scheduler shutdown timed out with a job still running")
	}
}

func (s *Scheduler) tick(job string) {
	if !s.tryAcquire() {
		slog.Warn("Skipping scheduled discovery, previous run still in progress", "job", job)
		return
	}
	defer s.release()

	query := s.nextQuery()
	sessionID := uuid.New().String()
	slog.Info("Starting scheduled discovery", "job", job, "session_id", sessionID, "query", query)

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	state, err := s.orch.Invoke(ctx, sessionID, models.DiscoveryState{
		Query: query,
		Mode:  models.ModeAutonomous,
	})
	if err != nil {
		slog.Error("Scheduled discovery failed", "job", job, "session_id", sessionID, "error", err)
		return
	}
	slog.Info("Scheduled discovery complete",
		"job", job,
		"session_id", sessionID,
		"quality_score", state.QualityScore,
		"confidence_tier", state.ConfidenceTier,
		"discovery_id", state.DiscoveryID)
}

func (s *Scheduler) tryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Scheduler) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// nextQuery advances the round-robin seed index.
func (s *Scheduler) nextQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	query := seedQueries[s.next%len(seedQueries)]
	s.next++
	return query
}
