package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingJob struct {
	runs  atomic.Int32
	err   error
	delay time.Duration
}

func (j *countingJob) Run(_ context.Context) error {
	j.runs.Add(1)
	time.Sleep(j.delay)
	return j.err
}

func (j *countingJob) Name() string { return "counting" }

func TestScheduler_RunsJobOnSchedule(t *testing.T) {
	s := New(zap.NewNop().Sugar())
	job := &countingJob{}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	assert.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_RejectsBadSchedule(t *testing.T) {
	s := New(zap.NewNop().Sugar())
	assert.Error(t, s.AddJob("every now and then", &countingJob{}))
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zap.NewNop().Sugar())
	job := &countingJob{err: errors.New("boom")}

	err := s.RunNow(context.Background(), job)
	assert.EqualError(t, err, "boom")
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestScheduler_StopWaitsForRunningJob(t *testing.T) {
	s := New(zap.NewNop().Sugar())
	job := &countingJob{delay: 300 * time.Millisecond}
	require.NoError(t, s.AddJob("@every 1s", job))
	s.Start()

	require.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}
