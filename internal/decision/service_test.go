package decision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/internal/momentum"
	"github.com/wonny/gem/pkg/logger"
)

type stubLoader struct {
	set   contracts.SeriesSet
	err   error
	calls int
}

func (l *stubLoader) LoadAll(ctx context.Context, universe contracts.Universe) (contracts.SeriesSet, error) {
	l.calls++
	return l.set, l.err
}

func twoPoint(t *testing.T, symbol contracts.Instrument, start, end string) *contracts.PriceSeries {
	t.Helper()
	rec := func(day, price string) contracts.DailyRecord {
		d, err := contracts.ParseDate(day)
		require.NoError(t, err)
		p := decimal.RequireFromString(price)
		return contracts.DailyRecord{Date: d, Close: p, AdjustedClose: p}
	}
	s, err := contracts.NewPriceSeries(symbol, []contracts.DailyRecord{
		rec("2023-06-15", start),
		rec("2024-06-14", end),
	})
	require.NoError(t, err)
	return s
}

func newService(loader UniverseLoader) *Service {
	log := logger.Nop()
	universe := contracts.DefaultUniverse()
	svc := NewService(
		loader,
		momentum.NewEngine(momentum.NewResolver(0), universe, "", log),
		momentum.NewPolicy(universe),
		365,
		log,
	)
	svc.now = func() time.Time { return time.Date(2024, 6, 14, 22, 0, 0, 0, time.UTC) }
	return svc
}

func TestService_Decide(t *testing.T) {
	loader := &stubLoader{set: contracts.SeriesSet{
		"BIL": twoPoint(t, "BIL", "100", "105"),
		"VOO": twoPoint(t, "VOO", "100", "101"),
		"VEU": twoPoint(t, "VEU", "100", "120"),
	}}

	d, err := newService(loader).Decide(context.Background(), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 1, loader.calls)
	assert.Equal(t, "2024-06-14", contracts.DateKey(d.Date))
	assert.Equal(t, contracts.Instrument("BND"), d.Instrument)
	assert.Equal(t, contracts.RoleBond, d.Role)
	assert.NotEmpty(t, d.Reason)
	assert.InDelta(t, 5.0, d.Snapshot.Cash.Value, 1e-9)
}

func TestService_DecideExplicitDate(t *testing.T) {
	loader := &stubLoader{set: contracts.SeriesSet{
		"BIL": twoPoint(t, "BIL", "100", "101"),
		"VOO": twoPoint(t, "VOO", "100", "130"),
		"VEU": twoPoint(t, "VEU", "100", "120"),
	}}

	// Sunday resolves back to Friday's bar
	d, err := newService(loader).Decide(context.Background(), time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, contracts.Instrument("VOO"), d.Instrument)
	assert.Equal(t, contracts.RoleDomestic, d.Role)
	assert.Equal(t, "2024-06-14", contracts.DateKey(d.Snapshot.Domestic.TimeRange.To))
}

func TestService_Errors(t *testing.T) {
	fetchErr := &contracts.FetchError{Symbol: "VOO", Err: errors.New("throttled")}
	_, err := newService(&stubLoader{err: fetchErr}).Decide(context.Background(), time.Time{})
	assert.ErrorIs(t, err, contracts.ErrFetch)

	loader := &stubLoader{set: contracts.SeriesSet{
		"BIL": twoPoint(t, "BIL", "100", "101"),
		"VOO": twoPoint(t, "VOO", "100", "130"),
		"VEU": twoPoint(t, "VEU", "100", "120"),
	}}
	_, err = newService(loader).Decide(context.Background(), time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, contracts.ErrOutOfRange)
	assert.Contains(t, err.Error(), "decide 2023-01-02")
}
