package fetcher

import (
	"context"
	"time"
)

// Snapshot is the set of rates quoted against a single base currency.
// Rates maps a currency code to units of that currency per one unit of Base.
// Snapshots are replaced wholesale and must not be mutated once published.
type Snapshot struct {
	Base      string
	Rates     map[string]float64
	UpdatedAt time.Time
}

// Rate returns the multiplier for code.
func (s Snapshot) Rate(code string) (float64, bool) {
	rate, ok := s.Rates[code]
	return rate, ok
}

// RatesFetcher retrieves a full rate snapshot for a base currency.
type RatesFetcher interface {
	FetchRates(ctx context.Context, base string) (Snapshot, error)
}

// FetcherFunc adapts a function to RatesFetcher.
type FetcherFunc func(ctx context.Context, base string) (Snapshot, error)

// FetchRates calls f.
func (f FetcherFunc) FetchRates(ctx context.Context, base string) (Snapshot, error) {
	return f(ctx, base)
}
