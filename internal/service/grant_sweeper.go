package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/talent-pool-api/pkg/config"
	"github.com/noah-isme/talent-pool-api/pkg/jobs"
)

const grantSweepJobType = "grant_sweep"

type expiredGrantSweeper interface {
	SweepExpired(ctx context.Context, before time.Time) (int64, error)
}

// GrantSweeper periodically removes grants that expired more than the grace period ago.
// Authorization never depends on it; expired grants are already ignored.
type GrantSweeper struct {
	grants   expiredGrantSweeper
	queue    *jobs.Queue
	interval time.Duration
	grace    time.Duration
	logger   *zap.Logger
}

// NewGrantSweeper builds a sweeper backed by a single-worker job queue.
func NewGrantSweeper(grants expiredGrantSweeper, cfg config.GrantSweepConfig, logger *zap.Logger) *GrantSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Grace < 0 {
		cfg.Grace = 0
	}
	s := &GrantSweeper{grants: grants, interval: cfg.Interval, grace: cfg.Grace, logger: logger}
	s.queue = jobs.NewQueue("grant-sweep", s.handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 1,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.Interval / 10,
		Logger:     logger,
	})
	return s
}

// Start launches the worker and the schedule.
func (s *GrantSweeper) Start(ctx context.Context) error {
	s.queue.Start(ctx)
	if err := s.queue.Every(s.interval, s.job); err != nil {
		s.queue.Stop()
		return err
	}
	return nil
}

// SweepNow enqueues an immediate sweep.
func (s *GrantSweeper) SweepNow() error {
	return s.queue.TryEnqueue(s.job(time.Now()))
}

// Stop waits for in-flight sweeps to finish.
func (s *GrantSweeper) Stop() {
	s.queue.Stop()
}

func (s *GrantSweeper) job(now time.Time) jobs.Job {
	return jobs.Job{
		ID:      uuid.NewString(),
		Type:    grantSweepJobType,
		Payload: now.Add(-s.grace).UTC(),
	}
}

func (s *GrantSweeper) handle(ctx context.Context, job jobs.Job) error {
	cutoff, ok := job.Payload.(time.Time)
	if !ok {
		return fmt.Errorf("grant sweep job %s: unexpected payload %T", job.ID, job.Payload)
	}
	removed, err := s.grants.SweepExpired(ctx, cutoff)
	if err != nil {
		return err
	}
	s.logger.Debug("grant sweep finished", zap.String("job_id", job.ID), zap.Int64("removed", removed))
	return nil
}
