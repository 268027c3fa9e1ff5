package contracts

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the day-granularity key format of a series
const DateLayout = "2006-01-02"

// Day truncates t to its calendar day in UTC
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats t as a series key
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date in UTC
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// PriceField selects one price of a daily record
type PriceField string

const (
	FieldOpen          PriceField = "open"
	FieldHigh          PriceField = "high"
	FieldLow           PriceField = "low"
	FieldClose         PriceField = "close"
	FieldAdjustedClose PriceField = "adjusted_close"
)

// DefaultPriceField is the basis for every return calculation unless overridden
const DefaultPriceField = FieldAdjustedClose

// ParsePriceField parses a field name; accepts "adjusted-close" and "adj_close" too
func ParsePriceField(s string) (PriceField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open":
		return FieldOpen, nil
	case "high":
		return FieldHigh, nil
	case "low":
		return FieldLow, nil
	case "close":
		return FieldClose, nil
	case "adjusted_close", "adjusted-close", "adj_close", "adjclose":
		return FieldAdjustedClose, nil
	default:
		return "", fmt.Errorf("unknown price field %q", s)
	}
}

// DailyRecord is one market day of an instrument
type DailyRecord struct {
	Date          time.Time       `json:"date"`
	Open          decimal.Decimal `json:"open"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Close         decimal.Decimal `json:"close"`
	AdjustedClose decimal.Decimal `json:"adjusted_close"`
	Volume        int64           `json:"volume"`
}

// Price returns the value of the selected field
func (r DailyRecord) Price(field PriceField) (decimal.Decimal, error) {
	switch field {
	case FieldOpen:
		return r.Open, nil
	case FieldHigh:
		return r.High, nil
	case FieldLow:
		return r.Low, nil
	case FieldClose:
		return r.Close, nil
	case FieldAdjustedClose:
		return r.AdjustedClose, nil
	default:
		return decimal.Zero, fmt.Errorf("unknown price field %q", field)
	}
}

// PriceSeries is an immutable, sparse day -> record mapping of one instrument
// ⭐ SSOT: 가격 시계열 타입은 여기서만
type PriceSeries struct {
	symbol  Instrument
	records map[string]DailyRecord
	dates   []time.Time // ascending
}

// NewPriceSeries builds a series from records in any order.
// Dates are truncated to the day; a later duplicate replaces an earlier one.
func NewPriceSeries(symbol Instrument, records []DailyRecord) (*PriceSeries, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("series %s: no records", symbol)
	}

	s := &PriceSeries{
		symbol:  symbol,
		records: make(map[string]DailyRecord, len(records)),
	}
	for _, r := range records {
		r.Date = Day(r.Date)
		key := DateKey(r.Date)
		if _, exists := s.records[key]; !exists {
			s.dates = append(s.dates, r.Date)
		}
		s.records[key] = r
	}
	sort.Slice(s.dates, func(i, j int) bool { return s.dates[i].Before(s.dates[j]) })

	return s, nil
}

// Symbol returns the instrument of the series
func (s *PriceSeries) Symbol() Instrument {
	return s.symbol
}

// Len returns the number of market days
func (s *PriceSeries) Len() int {
	return len(s.dates)
}

// Lookup returns the record stored for exactly that day
func (s *PriceSeries) Lookup(day time.Time) (DailyRecord, bool) {
	r, ok := s.records[DateKey(Day(day))]
	return r, ok
}

// Earliest returns the oldest available date
func (s *PriceSeries) Earliest() time.Time {
	return s.dates[0]
}

// Latest returns the newest available date
func (s *PriceSeries) Latest() time.Time {
	return s.dates[len(s.dates)-1]
}

// Records returns a copy of all records in ascending date order
func (s *PriceSeries) Records() []DailyRecord {
	out := make([]DailyRecord, 0, len(s.dates))
	for _, d := range s.dates {
		out = append(out, s.records[DateKey(d)])
	}
	return out
}

// SeriesSet holds one series per instrument, fetched up front
type SeriesSet map[Instrument]*PriceSeries

// Get returns the series of an instrument or an error naming it
func (ss SeriesSet) Get(i Instrument) (*PriceSeries, error) {
	s, ok := ss[i]
	if !ok || s == nil {
		return nil, fmt.Errorf("no price series loaded for %s", i)
	}
	return s, nil
}
