package momentum

import (
	"fmt"
	"time"

	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/pkg/logger"
)

// DefaultLookbackDays is the trailing window of the signal
const DefaultLookbackDays = 365

// Engine computes the trailing-return snapshot of the universe
// ⭐ SSOT: 모멘텀 시그널 계산은 여기서만
type Engine struct {
	resolver *Resolver
	universe contracts.Universe
	field    contracts.PriceField
	logger   *logger.Logger
}

// NewEngine creates a signal engine. An empty field means adjusted close.
func NewEngine(resolver *Resolver, universe contracts.Universe, field contracts.PriceField, log *logger.Logger) *Engine {
	if field == "" {
		field = contracts.DefaultPriceField
	}
	return &Engine{
		resolver: resolver,
		universe: universe,
		field:    field,
		logger:   log,
	}
}

// Universe returns the instruments the engine evaluates
func (e *Engine) Universe() contracts.Universe {
	return e.universe
}

// Resolver returns the nearest-date resolver in use
func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

// Field returns the price field returns are computed on
func (e *Engine) Field() contracts.PriceField {
	return e.field
}

// Evaluate computes the trailing returns of cash, domestic and international
// equity between now-lookbackDays and now.
func (e *Engine) Evaluate(now time.Time, lookbackDays int, series contracts.SeriesSet) (*contracts.SignalSnapshot, error) {
	if lookbackDays < 0 {
		return nil, fmt.Errorf("lookback must not be negative: %d", lookbackDays)
	}

	now = contracts.Day(now)
	snapshot := &contracts.SignalSnapshot{
		Date:         now,
		LookbackDays: lookbackDays,
	}

	slots := []struct {
		inst contracts.Instrument
		dst  *contracts.ReturnResult
	}{
		{e.universe.Cash, &snapshot.Cash},
		{e.universe.Domestic, &snapshot.Domestic},
		{e.universe.International, &snapshot.International},
	}

	for _, slot := range slots {
		s, err := series.Get(slot.inst)
		if err != nil {
			return nil, err
		}
		res, err := e.TrailingReturn(now, lookbackDays, s)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s at %s: %w", slot.inst, contracts.DateKey(now), err)
		}
		*slot.dst = res
	}

	e.logger.WithFields(map[string]interface{}{
		"date":          contracts.DateKey(now),
		"lookback_days": lookbackDays,
		"cash":          snapshot.Cash.Value,
		"domestic":      snapshot.Domestic.Value,
		"international": snapshot.International.Value,
	}).Debug("Evaluated momentum snapshot")

	return snapshot, nil
}

// TrailingReturn resolves both ends of the window in one series and
// returns the percent change with the dates actually used.
func (e *Engine) TrailingReturn(now time.Time, lookbackDays int, series *contracts.PriceSeries) (contracts.ReturnResult, error) {
	fromRec, fromDate, err := e.resolver.Resolve(now.AddDate(0, 0, -lookbackDays), series)
	if err != nil {
		return contracts.ReturnResult{}, err
	}
	toRec, toDate, err := e.resolver.Resolve(now, series)
	if err != nil {
		return contracts.ReturnResult{}, err
	}

	value, err := ComputeReturn(fromRec, toRec, e.field)
	if err != nil {
		return contracts.ReturnResult{}, err
	}

	return contracts.ReturnResult{
		Instrument: series.Symbol(),
		Value:      value,
		TimeRange:  contracts.DateRange{From: fromDate, To: toDate},
	}, nil
}
