package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/pkg/logger"
)

// Scheduler runs rotation jobs on cron schedules
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger

	mu      sync.RWMutex
	jobs    map[string]Job
	entries map[string]cron.EntryID
	logs    map[string]*runLog

	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
}

// JobStatus summarizes one registered job
type JobStatus struct {
	Name     string     `json:"name"`
	Schedule string     `json:"schedule"`
	Runs     int        `json:"runs"`
	Failures int        `json:"failures"`
	Last     *Run       `json:"last,omitempty"`
	NextRun  *time.Time `json:"next_run,omitempty"`
}

// New creates a scheduler. Overlapping runs of the same job are skipped.
func New(log *logger.Logger) *Scheduler {
	log = log.Component("scheduler")
	cl := cronLogger{log: log}

	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:     log,
		jobs:       make(map[string]Job),
		entries:    make(map[string]cron.EntryID),
		logs:       make(map[string]*runLog),
		maxRetries: 3,
		retryDelay: time.Minute,
		timeout:    10 * time.Minute,
	}
}

// WithRetry sets retry attempts and the delay between them
func (s *Scheduler) WithRetry(maxRetries int, delay time.Duration) *Scheduler {
	s.maxRetries = maxRetries
	s.retryDelay = delay
	return s
}

// WithTimeout bounds a single attempt
func (s *Scheduler) WithTimeout(timeout time.Duration) *Scheduler {
	s.timeout = timeout
	return s
}

// Add registers a job on its schedule
func (s *Scheduler) Add(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() {
		s.execute(context.Background(), job)
	})
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}

	s.jobs[name] = job
	s.entries[name] = id
	s.logs[name] = &runLog{}

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// Remove unschedules a job; its run log is dropped
func (s *Scheduler) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.entries[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.cron.Remove(id)
	delete(s.jobs, name)
	delete(s.entries, name)
	delete(s.logs, name)
	s.logger.WithField("job", name).Info("Job removed from scheduler")

	return nil
}

// Start starts the cron loop in the background
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop stops the cron loop and waits for running jobs
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// Trigger runs a job now, outside its schedule, and waits for the result
func (s *Scheduler) Trigger(ctx context.Context, name string) (Run, error) {
	s.mu.RLock()
	job, exists := s.jobs[name]
	s.mu.RUnlock()

	if !exists {
		return Run{}, fmt.Errorf("job %s not found", name)
	}
	return s.execute(ctx, job), nil
}

// execute runs a job, retrying errors that may clear up (fetch failures).
// Every other kind fails the same way on a second attempt and is reported at once.
func (s *Scheduler) execute(ctx context.Context, job Job) Run {
	name := job.Name()
	run := Run{Job: name, Started: time.Now()}
	log := s.logger.WithField("job", name)

	log.Info("Job started")

	var err error
	for {
		run.Attempts++
		if err = s.attempt(ctx, job); err == nil {
			break
		}

		kind := contracts.Kind(err)
		entry := log.WithFields(map[string]interface{}{
			"attempt": run.Attempts,
			"kind":    kind,
			"error":   err.Error(),
		})
		if !retryable(kind) || run.Attempts > s.maxRetries {
			entry.Warn("Job attempt failed")
			break
		}
		entry.Warn("Job attempt failed, retrying")

		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(s.retryDelay):
			continue
		}
		break
	}

	run.Duration = time.Since(run.Started)
	if err != nil {
		run.Error = err.Error()
		run.Kind = contracts.Kind(err)
	}

	s.mu.Lock()
	if l, ok := s.logs[name]; ok {
		l.add(run)
	}
	s.mu.Unlock()

	if run.OK() {
		log.WithField("duration", run.Duration).Info("Job completed successfully")
	} else {
		log.WithFields(map[string]interface{}{
			"duration": run.Duration,
			"attempts": run.Attempts,
			"kind":     run.Kind,
		}).Error("Job failed")
	}

	return run
}

func (s *Scheduler) attempt(ctx context.Context, job Job) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return job.Run(ctx)
}

func retryable(kind string) bool {
	return kind == contracts.KindFetch
}

// Jobs returns the registered job names, sorted
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// History returns the recorded runs of a job, oldest first
func (s *Scheduler) History(name string) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, exists := s.logs[name]
	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}
	return l.snapshot(), nil
}

// Status summarizes every registered job, sorted by name
func (s *Scheduler) Status() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for name, job := range s.jobs {
		l := s.logs[name]
		st := JobStatus{
			Name:     name,
			Schedule: job.Schedule(),
			Runs:     len(l.runs),
			Failures: l.failures(),
		}
		if last, ok := l.last(); ok {
			st.Last = &last
		}
		if next := s.cron.Entry(s.entries[name]).Next; !next.IsZero() {
			st.NextRun = &next
		}
		out = append(out, st)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// cronLogger routes robfig/cron's own messages into zerolog
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithFields(kvFields(keysAndValues)).Error(msg)
}

func kvFields(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
