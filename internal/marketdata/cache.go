package marketdata

import (
	"context"
	"time"

	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/pkg/logger"
	"github.com/wonny/gem/pkg/redis"
)

// CachedFetcher serves series from Redis and falls back to an upstream fetcher.
// Cache failures are logged and never fail the fetch.
type CachedFetcher struct {
	upstream contracts.SeriesFetcher
	cache    *redis.Cache
	ttl      time.Duration
	logger   *logger.Logger
}

// NewCachedFetcher wraps upstream with a series cache
func NewCachedFetcher(upstream contracts.SeriesFetcher, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedFetcher {
	if ttl <= 0 {
		ttl = redis.TTLDaily
	}
	return &CachedFetcher{
		upstream: upstream,
		cache:    cache,
		ttl:      ttl,
		logger:   log.Component("series_cache"),
	}
}

// FetchDailySeries implements contracts.SeriesFetcher
func (f *CachedFetcher) FetchDailySeries(ctx context.Context, symbol contracts.Instrument) (*contracts.PriceSeries, error) {
	key := redis.SeriesKey(symbol.String())

	var cached []contracts.DailyRecord
	storedAt, found, err := f.cache.Get(ctx, key, &cached)
	if err != nil {
		f.logger.WithError(err).WithField("symbol", symbol).Warn("Series cache read failed")
	}
	if found && len(cached) > 0 {
		if series, err := contracts.NewPriceSeries(symbol, cached); err == nil {
			f.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"age":    time.Since(storedAt).Round(time.Second).String(),
			}).Debug("Series cache hit")
			return series, nil
		}
	}

	series, err := f.upstream.FetchDailySeries(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if err := f.cache.Set(ctx, key, series.Records(), f.ttl); err != nil {
		f.logger.WithError(err).WithField("symbol", symbol).Warn("Series cache write failed")
	}

	return series, nil
}

// Invalidate drops the cached series of every instrument in the universe
func (f *CachedFetcher) Invalidate(ctx context.Context, universe contracts.Universe) error {
	keys := make([]string, 0, 4)
	for _, inst := range universe.All() {
		keys = append(keys, redis.SeriesKey(inst.String()))
	}
	return f.cache.Delete(ctx, keys...)
}
