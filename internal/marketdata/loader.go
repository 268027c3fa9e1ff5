package marketdata

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/pkg/logger"
)

// Loader fetches the whole universe before any computation starts
// ⭐ SSOT: 유니버스 시계열 일괄 수집은 여기서만
type Loader struct {
	fetcher contracts.SeriesFetcher
	logger  *logger.Logger
}

// NewLoader creates a universe loader
func NewLoader(fetcher contracts.SeriesFetcher, log *logger.Logger) *Loader {
	return &Loader{
		fetcher: fetcher,
		logger:  log.Component("loader"),
	}
}

// LoadAll fetches every instrument of the universe concurrently.
// The first failure cancels the rest and is returned as *contracts.FetchError.
func (l *Loader) LoadAll(ctx context.Context, universe contracts.Universe) (contracts.SeriesSet, error) {
	start := time.Now()
	instruments := universe.All()
	results := make([]*contracts.PriceSeries, len(instruments))

	g, gctx := errgroup.WithContext(ctx)
	for i, inst := range instruments {
		i, inst := i, inst
		g.Go(func() error {
			series, err := l.fetcher.FetchDailySeries(gctx, inst)
			if err != nil {
				var fetchErr *contracts.FetchError
				if !errors.As(err, &fetchErr) {
					err = &contracts.FetchError{Symbol: inst, Err: err}
				}
				return err
			}
			results[i] = series
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		l.logger.WithError(err).Error("Universe fetch failed")
		return nil, err
	}

	set := make(contracts.SeriesSet, len(instruments))
	for i, inst := range instruments {
		set[inst] = results[i]
	}

	l.logger.WithFields(map[string]interface{}{
		"instruments": len(set),
		"duration":    time.Since(start),
	}).Info("Universe series loaded")

	return set, nil
}
