package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/internal/momentum"
	"github.com/wonny/gem/pkg/logger"
)

var (
	dataStart = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	dataEnd   = time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
)

func day(s string) time.Time {
	t, err := contracts.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// weekdaySeries builds a market-day-only series; price gets the day index since dataStart
func weekdaySeries(t *testing.T, symbol contracts.Instrument, price func(n int) float64) *contracts.PriceSeries {
	t.Helper()
	var records []contracts.DailyRecord
	for d, n := dataStart, 0; !d.After(dataEnd); d, n = d.AddDate(0, 0, 1), n+1 {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		p := decimal.NewFromFloat(price(n)).Round(4)
		records = append(records, contracts.DailyRecord{
			Date: d, Open: p, High: p, Low: p, Close: p, AdjustedClose: p,
		})
	}
	s, err := contracts.NewPriceSeries(symbol, records)
	require.NoError(t, err)
	return s
}

// regimeSet: VOO rallies through 2021 then sells off, VEU grinds up, BIL and BND creep.
func regimeSet(t *testing.T) contracts.SeriesSet {
	t.Helper()
	const rallyDays = 731 // 2020-01-01 .. 2021-12-31
	return contracts.SeriesSet{
		"BIL": weekdaySeries(t, "BIL", func(n int) float64 { return 100 + 0.003*float64(n) }),
		"VOO": weekdaySeries(t, "VOO", func(n int) float64 {
			if n <= rallyDays {
				return 100 + 0.14*float64(n)
			}
			return 100 + 0.14*rallyDays - 0.25*float64(n-rallyDays)
		}),
		"VEU": weekdaySeries(t, "VEU", func(n int) float64 { return 50 + 0.02*float64(n) }),
		"BND": weekdaySeries(t, "BND", func(n int) float64 { return 80 + 0.005*float64(n) }),
	}
}

func newTestEngine() *Engine {
	log := logger.Nop()
	resolver := momentum.NewResolver(momentum.DefaultMaxOffset)
	universe := contracts.DefaultUniverse()
	return NewEngine(
		momentum.NewEngine(resolver, universe, contracts.FieldAdjustedClose, log),
		momentum.NewPolicy(universe),
		NewSimulator(resolver, contracts.FieldAdjustedClose, log),
		log,
	)
}

func mustRange(t *testing.T, from, to string) contracts.DateRange {
	t.Helper()
	r, err := contracts.NewDateRange(day(from), day(to))
	require.NoError(t, err)
	return r
}

func TestEngine_IterationCount(t *testing.T) {
	set := regimeSet(t)

	tests := []struct {
		name     string
		from, to string
		want     int
		lastDate string
	}{
		{"empty range", "2022-01-01", "2022-01-01", 0, ""},
		{"exactly one interval", "2022-01-01", "2022-01-31", 1, "2022-01-01"},
		{"one day past an interval", "2022-01-01", "2022-02-01", 2, "2022-01-31"},
		{"partial interval", "2022-01-01", "2022-01-10", 1, "2022-01-01"},
		{"one year", "2022-01-01", "2022-12-31", 13, "2022-12-27"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Range:        mustRange(t, tt.from, tt.to),
				LookbackDays: momentum.DefaultLookbackDays,
				IntervalDays: 30,
			}

			result, err := newTestEngine().Run(context.Background(), cfg, set)
			require.NoError(t, err)

			assert.Equal(t, tt.want, result.Iterations)
			require.Len(t, result.Revalidations, tt.want)
			if tt.want == 0 {
				assert.Equal(t, contracts.Instrument("BIL"), result.Wallet.HeldInstrument)
				assert.Equal(t, 0, result.Wallet.TransactionCount)
				return
			}

			assert.Equal(t, tt.from, contracts.DateKey(result.Revalidations[0].Date))
			assert.Equal(t, tt.lastDate, contracts.DateKey(result.Revalidations[tt.want-1].Date))
			assert.Equal(t, tt.lastDate, contracts.DateKey(result.Wallet.LastRevalidation))
			for i := 1; i < len(result.Revalidations); i++ {
				gap := result.Revalidations[i].Date.Sub(result.Revalidations[i-1].Date)
				assert.Equal(t, 30*24*time.Hour, gap)
			}
		})
	}
}

func TestEngine_RotatesThroughRegimes(t *testing.T) {
	cfg := Config{
		Range:          mustRange(t, "2021-01-04", "2022-12-30"),
		LookbackDays:   momentum.DefaultLookbackDays,
		IntervalDays:   DefaultIntervalDays,
		InitialCapital: decimal.NewFromInt(10000),
	}

	result, err := newTestEngine().Run(context.Background(), cfg, regimeSet(t))
	require.NoError(t, err)
	require.NotEmpty(t, result.Revalidations)
	assert.NotEmpty(t, result.RunID)

	first := result.Revalidations[0]
	last := result.Revalidations[len(result.Revalidations)-1]
	assert.Equal(t, contracts.Instrument("VOO"), first.Decision, "rally leads with domestic equity")
	assert.Equal(t, contracts.Instrument("BND"), last.Decision, "sell-off rotates to bonds")

	held := contracts.Instrument("BIL")
	switches := 0
	for _, r := range result.Revalidations {
		assert.Equal(t, r.Decision != held, r.Switched, "switch flag on %s", contracts.DateKey(r.Date))
		if r.Switched {
			switches++
		}
		held = r.Decision
		assert.True(t, r.Equity.IsPositive())
	}

	assert.Equal(t, switches, result.Wallet.TransactionCount)
	assert.Len(t, result.Trades, switches)
	assert.Equal(t, contracts.Instrument("BND"), result.Wallet.HeldInstrument)
	assert.True(t, result.Wallet.HeldVolume.IsPositive())
	assert.True(t, result.FinalEquity.IsPositive())
	assert.Equal(t, "10000", result.Revalidations[0].Equity.String())
}

func TestEngine_WithoutCapital(t *testing.T) {
	cfg := Config{
		Range:        mustRange(t, "2021-01-04", "2022-12-30"),
		LookbackDays: momentum.DefaultLookbackDays,
	}

	result, err := newTestEngine().Run(context.Background(), cfg, regimeSet(t))
	require.NoError(t, err)

	assert.Equal(t, DefaultIntervalDays, result.Config.IntervalDays)
	assert.True(t, result.Wallet.HeldVolume.IsZero())
	assert.True(t, result.FinalEquity.IsZero())
	assert.Empty(t, result.Trades)
	assert.Positive(t, result.Wallet.TransactionCount)
	assert.Zero(t, result.TotalReturn)
}

func TestEngine_IterationLimit(t *testing.T) {
	cfg := Config{
		Range:         mustRange(t, "2022-01-01", "2022-12-31"),
		LookbackDays:  momentum.DefaultLookbackDays,
		IntervalDays:  30,
		MaxIterations: 3,
	}

	_, err := newTestEngine().Run(context.Background(), cfg, regimeSet(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrIterationLimit)
	assert.Equal(t, "iteration_limit", contracts.Kind(err))
}

func TestEngine_PropagatesOutOfRange(t *testing.T) {
	cfg := Config{
		Range:        mustRange(t, "2020-06-01", "2021-06-01"),
		LookbackDays: momentum.DefaultLookbackDays,
	}

	_, err := newTestEngine().Run(context.Background(), cfg, regimeSet(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrOutOfRange)

	var oor *contracts.OutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, contracts.Instrument("BIL"), oor.Symbol)
	assert.Equal(t, "2019-06-02", contracts.DateKey(oor.Target))
}

func TestEngine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{
		Range:        mustRange(t, "2022-01-01", "2022-12-31"),
		LookbackDays: momentum.DefaultLookbackDays,
	}

	_, err := newTestEngine().Run(ctx, cfg, regimeSet(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_InvalidConfig(t *testing.T) {
	r := mustRange(t, "2022-01-01", "2022-12-31")

	_, err := newTestEngine().Run(context.Background(), Config{Range: r, LookbackDays: -1}, regimeSet(t))
	assert.Error(t, err)

	_, err = newTestEngine().Run(context.Background(), Config{Range: r, InitialCapital: decimal.NewFromInt(-1)}, regimeSet(t))
	assert.Error(t, err)
}

func TestMaxDrawdown(t *testing.T) {
	curve := func(values ...int64) []decimal.Decimal {
		out := make([]decimal.Decimal, 0, len(values))
		for _, v := range values {
			out = append(out, decimal.NewFromInt(v))
		}
		return out
	}

	tests := []struct {
		name  string
		curve []decimal.Decimal
		want  float64
	}{
		{"empty", nil, 0},
		{"only up", curve(100, 110, 120), 0},
		{"single dip", curve(100, 80, 120), 20},
		{"deepest after new peak", curve(100, 90, 200, 150, 210), 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, maxDrawdown(tt.curve), 1e-9)
		})
	}
}
