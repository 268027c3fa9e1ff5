package backtest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/internal/momentum"
	"github.com/wonny/gem/pkg/logger"
)

// Simulator values the wallet on paper. No orders are placed.
// ⭐ SSOT: 백테스팅 평가액 계산은 여기서만
type Simulator struct {
	resolver *momentum.Resolver
	field    contracts.PriceField
	logger   *logger.Logger

	capital  decimal.Decimal
	invested bool
	trades   []Trade
}

// Trade records one rotation from one instrument into another
type Trade struct {
	Date   time.Time            `json:"date"`
	From   contracts.Instrument `json:"from"`
	To     contracts.Instrument `json:"to"`
	Price  decimal.Decimal      `json:"price"`
	Volume decimal.Decimal      `json:"volume"`
	Value  decimal.Decimal      `json:"value"`
}

// NewSimulator creates a paper simulator pricing on field
func NewSimulator(resolver *momentum.Resolver, field contracts.PriceField, log *logger.Logger) *Simulator {
	if field == "" {
		field = contracts.DefaultPriceField
	}
	return &Simulator{
		resolver: resolver,
		field:    field,
		logger:   log,
		trades:   make([]Trade, 0),
	}
}

// Initialize resets the simulator with initial capital
func (s *Simulator) Initialize(capital decimal.Decimal) {
	s.capital = capital
	s.invested = false
	s.trades = make([]Trade, 0)
}

// Enabled reports whether the wallet is valued at all
func (s *Simulator) Enabled() bool {
	return s.capital.IsPositive()
}

// Trades returns the rotations executed so far
func (s *Simulator) Trades() []Trade {
	return s.trades
}

// Equity marks the wallet to market at date.
// Before the first rotation the wallet is worth the initial capital;
// afterwards it is HeldVolume at the resolved price, zero included.
func (s *Simulator) Equity(w *contracts.WalletState, date time.Time, series contracts.SeriesSet) (decimal.Decimal, error) {
	if !s.Enabled() {
		return decimal.Zero, nil
	}
	if !s.invested {
		return s.capital, nil
	}

	price, err := s.price(w.HeldInstrument, date, series)
	if err != nil {
		return decimal.Zero, err
	}
	return w.HeldVolume.Mul(price), nil
}

// Rotate moves the whole wallet into choice at date and returns the
// equity after the move and whether the held instrument changed.
func (s *Simulator) Rotate(w *contracts.WalletState, choice contracts.Instrument, date time.Time, series contracts.SeriesSet) (decimal.Decimal, bool, error) {
	if !s.Enabled() {
		return decimal.Zero, w.Hold(choice, decimal.Zero), nil
	}

	value, err := s.Equity(w, date, series)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("value %s: %w", w.HeldInstrument, err)
	}

	price, err := s.price(choice, date, series)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("price %s: %w", choice, err)
	}
	if price.IsZero() {
		return decimal.Zero, false, &contracts.DivisionError{Date: date, Field: s.field, Price: price}
	}

	from := w.HeldInstrument
	volume := value.Div(price)
	switched := w.Hold(choice, volume)
	s.invested = true

	if switched {
		s.trades = append(s.trades, Trade{
			Date:   date,
			From:   from,
			To:     choice,
			Price:  price,
			Volume: volume,
			Value:  value,
		})
		s.logger.WithDate("date", date).WithFields(map[string]interface{}{
			"from":   from,
			"to":     choice,
			"price":  price.String(),
			"volume": volume.StringFixed(6),
		}).Debug("Paper rotation")
	}

	return value, switched, nil
}

// price resolves the nearest market day of inst and reads the configured field
func (s *Simulator) price(inst contracts.Instrument, date time.Time, series contracts.SeriesSet) (decimal.Decimal, error) {
	ps, err := series.Get(inst)
	if err != nil {
		return decimal.Zero, err
	}
	rec, _, err := s.resolver.Resolve(date, ps)
	if err != nil {
		return decimal.Zero, err
	}
	return rec.Price(s.field)
}
