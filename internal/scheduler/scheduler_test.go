package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	failures int32 // fail this many times before succeeding
	err      error // returned while failing, default a fetch error
	calls    int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.calls, 1)
	if n <= j.failures {
		if j.err != nil {
			return j.err
		}
		return &contracts.FetchError{Symbol: "VOO", Err: errors.New("throttled")}
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(logger.Nop()).WithRetry(2, time.Millisecond).WithTimeout(time.Second)
}

func TestScheduler_AddRemove(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.Add(&countingJob{name: "b", schedule: "0 30 6 * * 2-6"}))
	require.NoError(t, s.Add(&countingJob{name: "a", schedule: "@daily"}))
	assert.Error(t, s.Add(&countingJob{name: "a", schedule: "@daily"}), "duplicate name")
	assert.Error(t, s.Add(&countingJob{name: "c", schedule: "not a schedule"}))

	assert.Equal(t, []string{"a", "b"}, s.Jobs())

	require.NoError(t, s.Remove("a"))
	assert.Error(t, s.Remove("a"))
	assert.Equal(t, []string{"b"}, s.Jobs())

	_, err := s.History("a")
	assert.Error(t, err)
}

func TestScheduler_TriggerRetriesFetchErrors(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "flaky", schedule: "@daily", failures: 2}
	require.NoError(t, s.Add(job))

	run, err := s.Trigger(context.Background(), "flaky")
	require.NoError(t, err)
	assert.True(t, run.OK())
	assert.Equal(t, 3, run.Attempts)
	assert.Equal(t, int32(3), atomic.LoadInt32(&job.calls))

	status := s.Status()
	require.Len(t, status, 1)
	assert.Equal(t, 1, status[0].Runs)
	assert.Equal(t, 0, status[0].Failures)
	require.NotNil(t, status[0].Last)
	assert.True(t, status[0].Last.OK())
}

func TestScheduler_TriggerGivesUp(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "broken", schedule: "@daily", failures: 100}
	require.NoError(t, s.Add(job))

	run, err := s.Trigger(context.Background(), "broken")
	require.NoError(t, err)
	assert.False(t, run.OK())
	assert.Equal(t, contracts.KindFetch, run.Kind)
	assert.Contains(t, run.Error, "throttled")
	assert.Equal(t, 3, run.Attempts, "first attempt plus two retries")

	history, err := s.History("broken")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "broken", history[0].Job)

	_, err = s.Trigger(context.Background(), "missing")
	assert.Error(t, err)
}

func TestScheduler_DataErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind string
	}{
		{"out of range", &contracts.OutOfRangeError{Symbol: "VEU", Reason: "no trading day"}, contracts.KindOutOfRange},
		{"division", &contracts.DivisionError{Field: contracts.FieldAdjustedClose}, contracts.KindDivision},
		{"missing series", errors.New("no price series loaded for VEU"), contracts.KindInternal},
		{"iteration limit", contracts.ErrIterationLimit, contracts.KindIterationLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScheduler()
			job := &countingJob{name: "signal", schedule: "@daily", failures: 100, err: tt.err}
			require.NoError(t, s.Add(job))

			run, err := s.Trigger(context.Background(), "signal")
			require.NoError(t, err)
			assert.Equal(t, 1, run.Attempts)
			assert.Equal(t, tt.kind, run.Kind)
			assert.Equal(t, int32(1), atomic.LoadInt32(&job.calls))
		})
	}
}

func TestScheduler_TriggerStopsRetryingOnCancel(t *testing.T) {
	s := New(logger.Nop()).WithRetry(5, time.Hour)
	job := &countingJob{name: "slow", schedule: "@daily", failures: 100}
	require.NoError(t, s.Add(job))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	run, err := s.Trigger(ctx, "slow")
	require.NoError(t, err)
	assert.False(t, run.OK())
	assert.Equal(t, 1, run.Attempts)
	assert.Equal(t, context.Canceled.Error(), run.Error)
}

func TestScheduler_StartStop(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Add(&countingJob{name: "daily", schedule: "@daily"}))

	s.Start()
	status := s.Status()
	s.Stop()

	require.Len(t, status, 1)
	require.NotNil(t, status[0].NextRun)
	assert.True(t, status[0].NextRun.After(time.Now()))
	assert.Nil(t, status[0].Last)
}

func TestRunLog(t *testing.T) {
	l := &runLog{}
	_, ok := l.last()
	assert.False(t, ok)

	for i := 0; i < runLogSize+10; i++ {
		r := Run{Job: "x", Attempts: i}
		if i%2 == 1 {
			r.Error = "failed"
		}
		l.add(r)
	}

	assert.Len(t, l.runs, runLogSize)
	assert.Equal(t, runLogSize/2, l.failures())

	last, ok := l.last()
	require.True(t, ok)
	assert.Equal(t, runLogSize+9, last.Attempts)

	snap := l.snapshot()
	snap[0].Job = "changed"
	assert.Equal(t, "x", l.runs[0].Job)
}
