package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/pkg/logger"
)

// Refresher copies the provider history of the universe into a local store
type Refresher struct {
	loader *Loader
	store  contracts.SeriesStore
	logger *logger.Logger
}

// RefreshReport summarizes one refresh
type RefreshReport struct {
	Records  map[contracts.Instrument]int       `json:"records"`
	Latest   map[contracts.Instrument]time.Time `json:"latest"`
	Duration time.Duration                      `json:"duration"`
}

// NewRefresher creates a refresher writing into store
func NewRefresher(loader *Loader, store contracts.SeriesStore, log *logger.Logger) *Refresher {
	return &Refresher{
		loader: loader,
		store:  store,
		logger: log.Component("refresher"),
	}
}

// Refresh fetches every instrument and stores the full series
func (r *Refresher) Refresh(ctx context.Context, universe contracts.Universe) (*RefreshReport, error) {
	start := time.Now()

	set, err := r.loader.LoadAll(ctx, universe)
	if err != nil {
		return nil, err
	}

	report := &RefreshReport{
		Records: make(map[contracts.Instrument]int, len(set)),
		Latest:  make(map[contracts.Instrument]time.Time, len(set)),
	}
	for _, inst := range universe.All() {
		series := set[inst]
		if err := r.store.StoreSeries(ctx, series); err != nil {
			return nil, fmt.Errorf("store %s: %w", inst, err)
		}
		report.Records[inst] = series.Len()
		report.Latest[inst] = series.Latest()

		r.logger.WithFields(map[string]interface{}{
			"symbol":  inst,
			"records": series.Len(),
			"latest":  contracts.DateKey(series.Latest()),
		}).Info("Series stored")
	}
	report.Duration = time.Since(start)

	return report, nil
}
