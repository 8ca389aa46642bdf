package history

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SyntheticNotice accompanies every historical series shown to users.
const SyntheticNotice = "Historical rates are synthetic: generated from the current rate with random variation of up to ±5% and are for illustration only."

const (
	// MaxVariation bounds the relative deviation of each point from the current rate.
	MaxVariation = 0.05

	DefaultDays = 30
	MinDays     = 2
	MaxDays     = 365
)

// ErrInvalidDays indicates a non-positive day count.
var ErrInvalidDays = errors.New("days must be at least 1")

// Point is one day of an estimated series.
type Point struct {
	Date time.Time
	Rate float64
}

// RateSource yields the current rate between two currencies.
type RateSource interface {
	Rate(ctx context.Context, from, to string, now time.Time) (float64, error)
}

// Random yields uniform values in [0, 1).
type Random interface {
	Float64() float64
}

// Estimator synthesizes historical series around the current rate.
type Estimator struct {
	rates  RateSource
	logger zerolog.Logger

	mu  sync.Mutex
	rnd Random
}

// NewEstimator constructs an estimator. A nil rnd uses a time-seeded source.
func NewEstimator(rates RateSource, rnd Random, logger zerolog.Logger) *Estimator {
	if rnd == nil {
		seed := uint64(time.Now().UnixNano())
		rnd = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Estimator{
		rates:  rates,
		rnd:    rnd,
		logger: logger.With().Str("component", "history").Logger(),
	}
}

// Estimate returns days points in ascending date order, the last one dated
// today in now's location. Each rate is the current rate scaled by an
// independent uniform factor in [1-MaxVariation, 1+MaxVariation].
func (e *Estimator) Estimate(ctx context.Context, from, to string, days int, now time.Time) ([]Point, error) {
	if days < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDays, days)
	}

	rate, err := e.rates.Rate(ctx, from, to, now)
	if err != nil {
		return nil, err
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	base := decimal.NewFromFloat(rate)

	e.mu.Lock()
	defer e.mu.Unlock()

	points := make([]Point, days)
	for i := 0; i < days; i++ {
		u := (e.rnd.Float64()*2 - 1) * MaxVariation
		points[i] = Point{
			Date: today.AddDate(0, 0, i-days+1),
			Rate: base.Mul(decimal.NewFromFloat(1 + u)).RoundBank(4).InexactFloat64(),
		}
	}

	e.logger.Debug().Str("from", from).
		Str("to", to).
		Int("days", days).
		Float64("rate", rate).
		Msg("synthetic series generated")

	return points, nil
}

// ClampDays bounds a requested day count to [MinDays, MaxDays].
func ClampDays(days int) int {
	if days < MinDays {
		return MinDays
	}
	if days > MaxDays {
		return MaxDays
	}
	return days
}
