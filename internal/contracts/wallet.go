package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletState is the scheduler-owned holding record; never persisted
type WalletState struct {
	LastRevalidation time.Time       `json:"last_revalidation"`
	HeldInstrument   Instrument      `json:"held_instrument"`
	HeldVolume       decimal.Decimal `json:"held_volume"`
	TransactionCount int             `json:"transaction_count"`
}

// NewWalletState returns a fully initialized wallet holding the cash instrument.
// LastRevalidation starts one interval before the range so the first
// revalidation falls on range.From.
func NewWalletState(r DateRange, intervalDays int, cash Instrument) WalletState {
	return WalletState{
		LastRevalidation: r.From.AddDate(0, 0, -intervalDays),
		HeldInstrument:   cash,
		HeldVolume:       decimal.Zero,
		TransactionCount: 0,
	}
}

// Hold switches the wallet to inst with the given units.
// The transaction counter only moves when the instrument changes.
func (w *WalletState) Hold(inst Instrument, volume decimal.Decimal) bool {
	switched := inst != w.HeldInstrument
	if switched {
		w.TransactionCount++
	}
	w.HeldInstrument = inst
	w.HeldVolume = volume
	return switched
}
