package contracts

import (
	"context"
)

// SeriesFetcher returns the complete daily history of one instrument
// ⭐ SSOT: 시장 데이터 수집 인터페이스
type SeriesFetcher interface {
	FetchDailySeries(ctx context.Context, symbol Instrument) (*PriceSeries, error)
}

// SeriesFetcherFunc adapts a function to SeriesFetcher
type SeriesFetcherFunc func(ctx context.Context, symbol Instrument) (*PriceSeries, error)

// FetchDailySeries calls f
func (f SeriesFetcherFunc) FetchDailySeries(ctx context.Context, symbol Instrument) (*PriceSeries, error) {
	return f(ctx, symbol)
}

// SeriesStore keeps fetched raw daily bars for later runs
type SeriesStore interface {
	StoreSeries(ctx context.Context, series *PriceSeries) error
}
