package converter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"fxconvert/internal/currency"
	"fxconvert/internal/ratecache"
)

var (
	// ErrInvalidAmount indicates a non-positive or non-finite amount.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrAmountOutOfRange indicates a converted amount too large to represent.
	ErrAmountOutOfRange = errors.New("converted amount out of range")
	// ErrRateNotFound indicates the base snapshot has no rate for the target.
	ErrRateNotFound = errors.New("exchange rate not found")
	// ErrUnsupportedCurrency indicates a code outside the registry.
	ErrUnsupportedCurrency = currency.ErrUnsupported
	// ErrRatesUnavailable indicates no snapshot could be obtained for the base.
	ErrRatesUnavailable = ratecache.ErrRatesUnavailable
)

// RateSource yields cached rate entries per base currency.
type RateSource interface {
	Lookup(ctx context.Context, base string, now time.Time) (ratecache.Entry, error)
}

// Result is the outcome of a single conversion.
type Result struct {
	From      string
	To        string
	Amount    float64
	Converted float64
	// Rate is the snapshot multiplier used; 1 for same-currency conversions.
	Rate      float64
	RatesAsOf time.Time
	Stale     bool
}

// Engine validates requests, acquires rates and performs conversions.
type Engine struct {
	registry *currency.Registry
	rates    RateSource
	logger   zerolog.Logger
}

// New constructs a conversion engine.
func New(registry *currency.Registry, rates RateSource, logger zerolog.Logger) *Engine {
	return &Engine{
		registry: registry,
		rates:    rates,
		logger:   logger.With().Str("component", "converter").Logger(),
	}
}

// Registry exposes the currency table the engine validates against.
func (e *Engine) Registry() *currency.Registry {
	return e.registry
}

// Convert converts amount from one currency into another, rounding the result
// half-to-even to two decimal places.
func (e *Engine) Convert(ctx context.Context, amount float64, from, to string, now time.Time) (Result, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}

	from = currency.Normalize(from)
	to = currency.Normalize(to)

	if from == to {
		return Result{
			From:      from,
			To:        to,
			Amount:    amount,
			Converted: Round(amount, 2),
			Rate:      1.0,
		}, nil
	}

	entry, rate, err := e.lookup(ctx, from, to, now)
	if err != nil {
		return Result{}, err
	}

	converted := decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(rate)).
		RoundBank(2).
		InexactFloat64()
	if math.IsInf(converted, 0) || math.IsNaN(converted) {
		return Result{}, fmt.Errorf("%w: %v %s to %s", ErrAmountOutOfRange, amount, from, to)
	}

	e.logger.Debug().Str("from", from).
		Str("to", to).
		Float64("amount", amount).
		Float64("converted", converted).
		Bool("stale", entry.Stale).
		Msg("conversion computed")

	return Result{
		From:      from,
		To:        to,
		Amount:    amount,
		Converted: converted,
		Rate:      rate,
		RatesAsOf: entry.FetchedAt,
		Stale:     entry.Stale,
	}, nil
}

// Rate returns the current multiplier from one currency to another.
func (e *Engine) Rate(ctx context.Context, from, to string, now time.Time) (float64, error) {
	from = currency.Normalize(from)
	to = currency.Normalize(to)
	if from == to {
		return 1.0, nil
	}
	_, rate, err := e.lookup(ctx, from, to, now)
	return rate, err
}

func (e *Engine) lookup(ctx context.Context, from, to string, now time.Time) (ratecache.Entry, float64, error) {
	if !e.registry.IsSupported(from) {
		return ratecache.Entry{}, 0, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, from)
	}
	if !e.registry.IsSupported(to) {
		return ratecache.Entry{}, 0, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, to)
	}

	entry, err := e.rates.Lookup(ctx, from, now)
	if err != nil {
		return ratecache.Entry{}, 0, err
	}

	rate, ok := entry.Snapshot.Rate(to)
	if !ok {
		return ratecache.Entry{}, 0, fmt.Errorf("%w: %s to %s", ErrRateNotFound, from, to)
	}
	return entry, rate, nil
}

// EffectiveRate derives the reported rate from an already-rounded result.
// It can differ from the snapshot rate by up to about 1e-4. Zero or
// non-finite inputs yield 0.
func EffectiveRate(amount, converted float64) float64 {
	if amount == 0 || !finite(amount) || !finite(converted) {
		return 0
	}
	return decimal.NewFromFloat(converted).
		Div(decimal.NewFromFloat(amount)).
		RoundBank(4).
		InexactFloat64()
}

// Round rounds v half-to-even to the given number of places.
func Round(v float64, places int32) float64 {
	if !finite(v) {
		return v
	}
	return decimal.NewFromFloat(v).RoundBank(places).InexactFloat64()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
