package momentum

import (
	"fmt"
	"time"

	"github.com/wonny/gem/internal/contracts"
)

// DefaultMaxOffset bounds the nearest-date search.
// Weekends plus the longest exchange closures stay well below it.
const DefaultMaxOffset = 10

// Resolver maps a calendar date to the closest market day of a series
// ⭐ SSOT: 최근접 거래일 탐색은 여기서만
type Resolver struct {
	maxOffset int
}

// NewResolver creates a resolver searching at most maxOffset days each way
func NewResolver(maxOffset int) *Resolver {
	if maxOffset <= 0 {
		maxOffset = DefaultMaxOffset
	}
	return &Resolver{maxOffset: maxOffset}
}

// MaxOffset returns the search radius in days
func (r *Resolver) MaxOffset() int {
	return r.maxOffset
}

// Resolve returns the record closest to target and the date it was found at.
// Targets before the earliest key fail; at equal distance the later day wins.
func (r *Resolver) Resolve(target time.Time, series *contracts.PriceSeries) (contracts.DailyRecord, time.Time, error) {
	if series == nil || series.Len() == 0 {
		return contracts.DailyRecord{}, time.Time{}, fmt.Errorf("resolve %s: empty series", contracts.DateKey(target))
	}

	target = contracts.Day(target)
	earliest := series.Earliest()
	if target.Before(earliest) {
		return contracts.DailyRecord{}, time.Time{}, &contracts.OutOfRangeError{
			Symbol:   series.Symbol(),
			Target:   target,
			Earliest: earliest,
			Reason:   "lookback extends before available data",
		}
	}

	if rec, ok := series.Lookup(target); ok {
		return rec, target, nil
	}

	for offset := 1; offset <= r.maxOffset; offset++ {
		later := target.AddDate(0, 0, offset)
		if rec, ok := series.Lookup(later); ok {
			return rec, later, nil
		}
		prior := target.AddDate(0, 0, -offset)
		if rec, ok := series.Lookup(prior); ok {
			return rec, prior, nil
		}
	}

	return contracts.DailyRecord{}, time.Time{}, &contracts.OutOfRangeError{
		Symbol:   series.Symbol(),
		Target:   target,
		Earliest: earliest,
		Reason:   fmt.Sprintf("no market day within %d days", r.maxOffset),
	}
}
