package contracts

import (
	"fmt"
	"time"
)

// DateRange is an inclusive [From, To] window of days
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewDateRange truncates both ends to the day and checks From <= To
func NewDateRange(from, to time.Time) (DateRange, error) {
	r := DateRange{From: Day(from), To: Day(to)}
	if r.To.Before(r.From) {
		return DateRange{}, fmt.Errorf("invalid date range: %s is after %s", DateKey(r.From), DateKey(r.To))
	}
	return r, nil
}

// Days returns the number of calendar days between From and To
func (r DateRange) Days() int {
	return int(r.To.Sub(r.From).Hours() / 24)
}

// String formats the range as "from ~ to"
func (r DateRange) String() string {
	return fmt.Sprintf("%s ~ %s", DateKey(r.From), DateKey(r.To))
}

// ReturnResult is the trailing return of one instrument.
// TimeRange holds the resolved dates, which may differ from the requested ones.
type ReturnResult struct {
	Instrument Instrument `json:"instrument"`
	Value      float64    `json:"value"` // percent, e.g. 10.0 = +10%
	TimeRange  DateRange  `json:"time_range"`
}

// SignalSnapshot holds the trailing returns of the three risk-bearing instruments
// ⭐ SSOT: 모멘텀 엔진 → 로테이션 정책 전달
type SignalSnapshot struct {
	Date          time.Time    `json:"date"`
	LookbackDays  int          `json:"lookback_days"`
	Cash          ReturnResult `json:"cash"`
	Domestic      ReturnResult `json:"domestic"`
	International ReturnResult `json:"international"`
}

// Returns exposes the snapshot as instrument -> result
func (s *SignalSnapshot) Returns() map[Instrument]ReturnResult {
	return map[Instrument]ReturnResult{
		s.Cash.Instrument:          s.Cash,
		s.Domestic.Instrument:      s.Domestic,
		s.International.Instrument: s.International,
	}
}
