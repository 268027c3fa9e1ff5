package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/internal/decision"
	"github.com/wonny/gem/pkg/logger"
)

// SignalJob re-evaluates the rotation on fresh data every market morning
// ⭐ SSOT: 일일 시그널 재평가 스케줄은 이 Job에서만
type SignalJob struct {
	service  *decision.Service
	schedule string
	logger   *logger.Logger

	mu   sync.RWMutex
	last *decision.Decision
}

// NewSignalJob creates a new signal job. An empty schedule runs Tue-Sat 06:30.
func NewSignalJob(service *decision.Service, schedule string, log *logger.Logger) *SignalJob {
	if schedule == "" {
		schedule = "0 30 6 * * 2-6"
	}
	return &SignalJob{
		service:  service,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *SignalJob) Name() string {
	return "rotation_signal"
}

// Schedule returns the cron schedule
func (j *SignalJob) Schedule() string {
	return j.schedule
}

// Run evaluates today's decision
func (j *SignalJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled rotation signal")

	d, err := j.service.Decide(ctx, time.Time{})
	if err != nil {
		return fmt.Errorf("rotation signal: %w", err)
	}

	j.mu.Lock()
	prev := j.last
	j.last = d
	j.mu.Unlock()

	entry := j.logger.WithFields(map[string]interface{}{
		"date":       contracts.DateKey(d.Date),
		"instrument": d.Instrument,
		"reason":     d.Reason,
	})
	if prev != nil && prev.Instrument != d.Instrument {
		entry.WithField("previous", prev.Instrument).Warn("Rotation signal changed")
	} else {
		entry.Info("Rotation signal unchanged")
	}

	return nil
}

// Last returns the most recent decision, nil before the first run
func (j *SignalJob) Last() *decision.Decision {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.last
}
