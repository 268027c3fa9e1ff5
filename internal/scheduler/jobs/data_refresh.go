package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/internal/marketdata"
	"github.com/wonny/gem/pkg/logger"
)

// DataRefreshJob copies provider history into the local store daily
// ⭐ SSOT: 데이터 수집 스케줄은 이 Job에서만
type DataRefreshJob struct {
	refresher *marketdata.Refresher
	universe  contracts.Universe
	logger    *logger.Logger
}

// NewDataRefreshJob creates a new data refresh job
func NewDataRefreshJob(refresher *marketdata.Refresher, universe contracts.Universe, log *logger.Logger) *DataRefreshJob {
	return &DataRefreshJob{
		refresher: refresher,
		universe:  universe,
		logger:    log,
	}
}

// Name returns the job name
func (j *DataRefreshJob) Name() string {
	return "data_refresh"
}

// Schedule returns the cron schedule (Tue-Sat 06:00, before the signal)
func (j *DataRefreshJob) Schedule() string {
	return "0 0 6 * * 2-6"
}

// Run executes the refresh
func (j *DataRefreshJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled data refresh")

	report, err := j.refresher.Refresh(ctx, j.universe)
	if err != nil {
		return fmt.Errorf("refresh series: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"instruments": len(report.Records),
		"duration":    report.Duration,
	}).Info("Scheduled data refresh completed successfully")
	return nil
}
