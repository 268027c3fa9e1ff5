package momentum

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/gem/internal/contracts"
)

var hundred = decimal.NewFromInt(100)

// ComputeReturn returns the percent change of field from one record to another:
// (to / from) * 100 - 100
func ComputeReturn(from, to contracts.DailyRecord, field contracts.PriceField) (float64, error) {
	fromPrice, err := from.Price(field)
	if err != nil {
		return 0, err
	}
	toPrice, err := to.Price(field)
	if err != nil {
		return 0, err
	}

	if fromPrice.IsZero() {
		return 0, &contracts.DivisionError{Date: from.Date, Field: field, Price: fromPrice}
	}

	ret := toPrice.Div(fromPrice).Mul(hundred).Sub(hundred)
	value, _ := ret.Float64()
	return value, nil
}
