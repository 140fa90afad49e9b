package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/talent-pool-api/pkg/config"
)

type sweepStub struct {
	mu      sync.Mutex
	cutoffs []time.Time
	fail    int
}

func (s *sweepStub) SweepExpired(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cutoffs = append(s.cutoffs, before)
	if s.fail > 0 {
		s.fail--
		return 0, errors.New("db unavailable")
	}
	return 1, nil
}

func (s *sweepStub) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cutoffs)
}

func TestGrantSweeperAppliesGrace(t *testing.T) {
	stub := &sweepStub{}
	sweeper := NewGrantSweeper(stub, config.GrantSweepConfig{Interval: time.Hour, Grace: 24 * time.Hour}, nil)
	require.NoError(t, sweeper.Start(context.Background()))
	defer sweeper.Stop()

	before := time.Now()
	require.NoError(t, sweeper.SweepNow())
	require.Eventually(t, func() bool { return stub.calls() == 1 }, time.Second, 10*time.Millisecond)

	stub.mu.Lock()
	cutoff := stub.cutoffs[0]
	stub.mu.Unlock()
	assert.WithinDuration(t, before.Add(-24*time.Hour), cutoff, time.Second)
}

func TestGrantSweeperRunsOnScheduleAndRetries(t *testing.T) {
	stub := &sweepStub{fail: 1}
	sweeper := NewGrantSweeper(stub, config.GrantSweepConfig{Interval: 20 * time.Millisecond, Retries: 1}, nil)
	require.NoError(t, sweeper.Start(context.Background()))

	require.Eventually(t, func() bool { return stub.calls() >= 2 }, 2*time.Second, 10*time.Millisecond)
	sweeper.Stop()
}
