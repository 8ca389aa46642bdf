package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConversionRecord is one journaled conversion.
type ConversionRecord struct {
	ID           int64
	FromCurrency string
	ToCurrency   string
	Amount       decimal.Decimal
	Converted    decimal.Decimal
	Rate         decimal.Decimal
	Stale        bool
	// RatesAsOf is nil for same-currency conversions, which use no snapshot.
	RatesAsOf *time.Time
	Source    string
	CreatedAt time.Time
}
