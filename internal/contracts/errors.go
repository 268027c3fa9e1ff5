package contracts

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Error kinds. Match with errors.Is; use errors.As on the typed errors for context.
var (
	ErrOutOfRange     = errors.New("out of range")
	ErrDivision       = errors.New("division by zero price")
	ErrFetch          = errors.New("fetch failed")
	ErrIterationLimit = errors.New("revalidation iteration limit reached")
)

// OutOfRangeError reports a target date that cannot be resolved in a series
type OutOfRangeError struct {
	Symbol   Instrument
	Target   time.Time
	Earliest time.Time
	Reason   string
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s: %s at %s (earliest %s)",
		e.Symbol, e.Reason, DateKey(e.Target), DateKey(e.Earliest))
}

// Is reports ErrOutOfRange
func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// DivisionError reports a zero denominator in a return calculation
type DivisionError struct {
	Date  time.Time
	Field PriceField
	Price decimal.Decimal
}

func (e *DivisionError) Error() string {
	return fmt.Sprintf("cannot compute return: %s price on %s is %s", e.Field, DateKey(e.Date), e.Price.String())
}

// Is reports ErrDivision
func (e *DivisionError) Is(target error) bool {
	return target == ErrDivision
}

// FetchError wraps a failure of the market-data collaborator
type FetchError struct {
	Symbol Instrument
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Symbol, e.Err)
}

// Unwrap returns the collaborator error
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports ErrFetch
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// Values returned by Kind
const (
	KindOutOfRange     = "out_of_range"
	KindDivision       = "division"
	KindFetch          = "fetch"
	KindIterationLimit = "iteration_limit"
	KindInternal       = "internal"
)

// Kind names the error kind for user-facing reports
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrOutOfRange):
		return KindOutOfRange
	case errors.Is(err, ErrDivision):
		return KindDivision
	case errors.Is(err, ErrFetch):
		return KindFetch
	case errors.Is(err, ErrIterationLimit):
		return KindIterationLimit
	default:
		return KindInternal
	}
}
