package backtest

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/internal/momentum"
	"github.com/wonny/gem/pkg/logger"
)

func flatSeries(t *testing.T, symbol contracts.Instrument, prices map[string]string) *contracts.PriceSeries {
	t.Helper()
	var records []contracts.DailyRecord
	for d, p := range prices {
		v := decimal.RequireFromString(p)
		records = append(records, contracts.DailyRecord{Date: day(d), Close: v, AdjustedClose: v})
	}
	s, err := contracts.NewPriceSeries(symbol, records)
	require.NoError(t, err)
	return s
}

func TestSimulator_Rotate(t *testing.T) {
	set := contracts.SeriesSet{
		"VOO": flatSeries(t, "VOO", map[string]string{"2023-01-03": "100", "2023-02-02": "120"}),
		"BND": flatSeries(t, "BND", map[string]string{"2023-01-03": "50", "2023-02-02": "40"}),
	}
	sim := NewSimulator(momentum.NewResolver(0), "", logger.Nop())
	sim.Initialize(decimal.NewFromInt(1000))
	require.True(t, sim.Enabled())

	r, err := contracts.NewDateRange(day("2023-01-03"), day("2023-03-01"))
	require.NoError(t, err)
	w := contracts.NewWalletState(r, 30, "BIL")

	// uninvested capital buys 10 VOO
	value, switched, err := sim.Rotate(&w, "VOO", day("2023-01-03"), set)
	require.NoError(t, err)
	assert.True(t, switched)
	assert.Equal(t, "1000", value.String())
	assert.Equal(t, "10", w.HeldVolume.String())

	// 10 VOO at 120 = 1200 -> 30 BND at 40
	value, switched, err = sim.Rotate(&w, "BND", day("2023-02-02"), set)
	require.NoError(t, err)
	assert.True(t, switched)
	assert.Equal(t, "1200", value.String())
	assert.Equal(t, "30", w.HeldVolume.String())

	// holding again does not count as a transaction; Feb 1 resolves to Feb 2
	equity, err := sim.Equity(&w, day("2023-02-01"), set)
	require.NoError(t, err)
	assert.Equal(t, "1200", equity.String())

	_, switched, err = sim.Rotate(&w, "BND", day("2023-02-02"), set)
	require.NoError(t, err)
	assert.False(t, switched)

	assert.Equal(t, 2, w.TransactionCount)
	require.Len(t, sim.Trades(), 2)
	assert.Equal(t, contracts.Instrument("VOO"), sim.Trades()[1].From)
}

func TestSimulator_TotalLossStaysLost(t *testing.T) {
	set := contracts.SeriesSet{
		"VOO": flatSeries(t, "VOO", map[string]string{"2023-01-03": "100", "2023-02-02": "0"}),
		"BND": flatSeries(t, "BND", map[string]string{"2023-01-03": "50", "2023-02-02": "50", "2023-03-03": "55"}),
	}
	sim := NewSimulator(momentum.NewResolver(0), "", logger.Nop())
	sim.Initialize(decimal.NewFromInt(10000))

	r, err := contracts.NewDateRange(day("2023-01-03"), day("2023-04-01"))
	require.NoError(t, err)
	w := contracts.NewWalletState(r, 30, "BIL")

	_, _, err = sim.Rotate(&w, "VOO", day("2023-01-03"), set)
	require.NoError(t, err)
	assert.Equal(t, "100", w.HeldVolume.String())

	// VOO went to zero: nothing left to move into BND
	value, switched, err := sim.Rotate(&w, "BND", day("2023-02-02"), set)
	require.NoError(t, err)
	assert.True(t, switched)
	assert.True(t, value.IsZero())
	assert.True(t, w.HeldVolume.IsZero())

	equity, err := sim.Equity(&w, day("2023-03-03"), set)
	require.NoError(t, err)
	assert.True(t, equity.IsZero(), "got %s", equity)

	// a fresh run starts from capital again
	sim.Initialize(decimal.NewFromInt(10000))
	w = contracts.NewWalletState(r, 30, "BIL")
	equity, err = sim.Equity(&w, day("2023-03-03"), set)
	require.NoError(t, err)
	assert.Equal(t, "10000", equity.String())
}

func TestSimulator_Errors(t *testing.T) {
	set := contracts.SeriesSet{
		"VOO": flatSeries(t, "VOO", map[string]string{"2023-01-03": "0"}),
	}
	sim := NewSimulator(momentum.NewResolver(0), contracts.FieldAdjustedClose, logger.Nop())
	sim.Initialize(decimal.NewFromInt(1000))

	w := contracts.WalletState{HeldInstrument: "BIL"}

	_, _, err := sim.Rotate(&w, "VOO", day("2023-01-03"), set)
	assert.ErrorIs(t, err, contracts.ErrDivision)

	_, _, err = sim.Rotate(&w, "BND", day("2023-01-03"), set)
	assert.ErrorContains(t, err, "BND")
	assert.Equal(t, contracts.Instrument("BIL"), w.HeldInstrument)
}

func TestSimulator_Disabled(t *testing.T) {
	sim := NewSimulator(momentum.NewResolver(0), "", logger.Nop())
	sim.Initialize(decimal.Zero)
	assert.False(t, sim.Enabled())

	w := contracts.WalletState{HeldInstrument: "BIL"}
	value, switched, err := sim.Rotate(&w, "VEU", day("2023-01-03"), contracts.SeriesSet{})
	require.NoError(t, err)
	assert.True(t, switched)
	assert.True(t, value.IsZero())
	assert.Empty(t, sim.Trades())
}
