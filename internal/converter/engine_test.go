package converter

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"fxconvert/internal/currency"
	"fxconvert/internal/fetcher"
	"fxconvert/internal/ratecache"
)

type countingFetcher struct {
	mu    sync.Mutex
	calls int
	rates map[string]float64
	err   error
}

func (f *countingFetcher) FetchRates(ctx context.Context, base string) (fetcher.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return fetcher.Snapshot{}, f.err
	}
	return fetcher.Snapshot{Base: base, Rates: f.rates}, nil
}

var now = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func newEngine(f *countingFetcher) *Engine {
	reg := currency.NewRegistry()
	cache := ratecache.New(f, reg, ratecache.Options{TTL: time.Hour}, zerolog.Nop())
	return New(reg, cache, zerolog.Nop())
}

func TestConvertSameCurrencyShortCircuits(t *testing.T) {
	f := &countingFetcher{err: errors.New("provider down")}
	e := newEngine(f)

	for _, code := range currency.NewRegistry().Codes() {
		res, err := e.Convert(context.Background(), 123.456, code, code, now)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", code, err)
		}
		if res.Converted != 123.46 || res.Rate != 1.0 {
			t.Fatalf("%s: expected 123.46 at rate 1, got %v at %v", code, res.Converted, res.Rate)
		}
	}

	res, err := e.Convert(context.Background(), 10, "usd", " USD ", now)
	if err != nil || res.Converted != 10 {
		t.Fatalf("codes should be normalised before comparison: %+v %v", res, err)
	}
	if f.calls != 0 {
		t.Fatalf("same-currency conversion must not touch the provider, calls=%d", f.calls)
	}
}

func TestConvertRejectsNonPositiveAmounts(t *testing.T) {
	f := &countingFetcher{rates: map[string]float64{"EUR": 0.9}}
	e := newEngine(f)

	for _, amount := range []float64{0, -1, -0.01, math.NaN(), math.Inf(1)} {
		if _, err := e.Convert(context.Background(), amount, "USD", "EUR", now); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %v: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
	if f.calls != 0 {
		t.Fatalf("invalid amounts must not reach the provider, calls=%d", f.calls)
	}
}

func TestConvertRejectsUnsupportedCurrencies(t *testing.T) {
	f := &countingFetcher{rates: map[string]float64{"EUR": 0.9}}
	e := newEngine(f)

	if _, err := e.Convert(context.Background(), 100, "XYZ", "USD", now); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Fatalf("expected ErrUnsupportedCurrency for source, got %v", err)
	}
	if _, err := e.Convert(context.Background(), 100, "USD", "INVALID", now); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Fatalf("expected ErrUnsupportedCurrency for target, got %v", err)
	}
	if f.calls != 0 {
		t.Fatalf("unsupported codes must not reach the provider, calls=%d", f.calls)
	}
}

func TestConvertUsesCachedRate(t *testing.T) {
	f := &countingFetcher{rates: map[string]float64{"EUR": 0.92, "JPY": 151.37}}
	e := newEngine(f)

	res, err := e.Convert(context.Background(), 100, "usd", "eur", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Converted != 92 || res.Rate != 0.92 {
		t.Fatalf("expected 92 at 0.92, got %v at %v", res.Converted, res.Rate)
	}
	if res.From != "USD" || res.To != "EUR" {
		t.Fatalf("codes should be normalised in the result: %+v", res)
	}
	if !res.RatesAsOf.Equal(now) || res.Stale {
		t.Fatalf("unexpected freshness metadata: %+v", res)
	}

	res, err = e.Convert(context.Background(), 12.5, "USD", "JPY", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 1892.125 is a tie and rounds to the even neighbour
	if res.Converted != 1892.12 {
		t.Fatalf("expected 1892.12, got %v", res.Converted)
	}
	if f.calls != 1 {
		t.Fatalf("second conversion should hit the cache, calls=%d", f.calls)
	}
}

func TestConvertRoundsHalfToEven(t *testing.T) {
	f := &countingFetcher{rates: map[string]float64{"EUR": 0.125, "GBP": 0.135}}
	e := newEngine(f)

	res, err := e.Convert(context.Background(), 1, "USD", "EUR", now)
	if err != nil {
		t.Fatal(err)
	}
	if res.Converted != 0.12 {
		t.Fatalf("0.125 should round to 0.12, got %v", res.Converted)
	}
	res, err = e.Convert(context.Background(), 1, "USD", "GBP", now)
	if err != nil {
		t.Fatal(err)
	}
	if res.Converted != 0.14 {
		t.Fatalf("0.135 should round to 0.14, got %v", res.Converted)
	}
}

func TestConvertRateNotFound(t *testing.T) {
	f := &countingFetcher{rates: map[string]float64{"EUR": 0.9}}
	e := newEngine(f)

	if _, err := e.Convert(context.Background(), 100, "USD", "GBP", now); !errors.Is(err, ErrRateNotFound) {
		t.Fatalf("expected ErrRateNotFound, got %v", err)
	}
}

func TestConvertRatesUnavailable(t *testing.T) {
	f := &countingFetcher{err: &fetcher.DecodeError{Base: "USD", Err: errors.New("bad json")}}
	e := newEngine(f)

	_, err := e.Convert(context.Background(), 100, "USD", "EUR", now)
	if !errors.Is(err, ErrRatesUnavailable) {
		t.Fatalf("expected ErrRatesUnavailable, got %v", err)
	}
}

func TestConvertReportsStaleRates(t *testing.T) {
	f := &countingFetcher{rates: map[string]float64{"EUR": 0.9}}
	e := newEngine(f)

	if _, err := e.Convert(context.Background(), 1, "USD", "EUR", now); err != nil {
		t.Fatal(err)
	}
	f.err = errors.New("provider down")

	res, err := e.Convert(context.Background(), 10, "USD", "EUR", now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("stale rates should still convert: %v", err)
	}
	if !res.Stale || !res.RatesAsOf.Equal(now) || res.Converted != 9 {
		t.Fatalf("unexpected stale result: %+v", res)
	}
}

func TestRate(t *testing.T) {
	f := &countingFetcher{rates: map[string]float64{"EUR": 0.9}}
	e := newEngine(f)

	rate, err := e.Rate(context.Background(), "USD", "EUR", now)
	if err != nil || rate != 0.9 {
		t.Fatalf("expected 0.9, got %v (%v)", rate, err)
	}
	rate, err = e.Rate(context.Background(), "EUR", "eur", now)
	if err != nil || rate != 1 {
		t.Fatalf("identity rate should be 1, got %v (%v)", rate, err)
	}
	if _, err := e.Rate(context.Background(), "USD", "XYZ", now); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Fatalf("expected ErrUnsupportedCurrency, got %v", err)
	}
}

func TestEffectiveRateTolerance(t *testing.T) {
	cases := []struct {
		amount, rate float64
	}{
		{100, 0.92},
		{3, 0.333333},
		{1234.56, 1.0873},
		{50, 151.3742},
	}
	for _, tc := range cases {
		converted := Round(tc.amount*tc.rate, 2)
		eff := EffectiveRate(tc.amount, converted)
		if math.Abs(eff-tc.rate) > 0.0001+1e-9 {
			t.Fatalf("amount %v rate %v: effective %v outside tolerance", tc.amount, tc.rate, eff)
		}
	}
	if EffectiveRate(0, 10) != 0 {
		t.Fatal("zero amount should yield zero effective rate")
	}
}

func TestConvertRejectsOverflowingResult(t *testing.T) {
	f := &countingFetcher{rates: map[string]float64{"JPY": 151.37}}
	e := newEngine(f)

	_, err := e.Convert(context.Background(), 1e308, "USD", "JPY", now)
	if !errors.Is(err, ErrAmountOutOfRange) {
		t.Fatalf("expected ErrAmountOutOfRange, got %v", err)
	}

	res, err := e.Convert(context.Background(), 1e308, "JPY", "JPY", now)
	if err != nil {
		t.Fatalf("same-currency conversion of a finite amount should succeed: %v", err)
	}
	if math.IsInf(res.Converted, 0) {
		t.Fatal("same-currency result should stay finite")
	}
}

func TestNonFiniteHelpers(t *testing.T) {
	if EffectiveRate(10, math.Inf(1)) != 0 || EffectiveRate(math.NaN(), 1) != 0 {
		t.Fatal("non-finite inputs should yield a zero effective rate")
	}
	if !math.IsInf(Round(math.Inf(1), 2), 1) {
		t.Fatal("Round should pass infinities through")
	}
}
