package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"fxconvert/internal/converter"
	"fxconvert/internal/scheduler"
	"fxconvert/internal/storage"
)

// Warmer refreshes cached rates for a set of bases.
type Warmer interface {
	Warm(ctx context.Context, bases []string, now time.Time) error
}

// Options tune the background service.
type Options struct {
	WarmBases      []string
	JournalTimeout time.Duration
}

// Service keeps the rate cache warm and journals completed conversions.
type Service struct {
	warmer    Warmer
	scheduler *scheduler.Scheduler
	journal   storage.ConversionJournal
	bases     []string
	timeout   time.Duration
	logger    zerolog.Logger
}

// New constructs the service. sched and journal may be nil.
func New(warmer Warmer, sched *scheduler.Scheduler, journal storage.ConversionJournal, opts Options, logger zerolog.Logger) *Service {
	timeout := opts.JournalTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{
		warmer:    warmer,
		scheduler: sched,
		journal:   journal,
		bases:     opts.WarmBases,
		timeout:   timeout,
		logger:    logger.With().Str("component", "service").Logger(),
	}
}

// Run starts the warming loop and blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.WarmTick)
}

// WarmTick refreshes every configured base.
func (s *Service) WarmTick(ctx context.Context, at time.Time) error {
	if len(s.bases) == 0 {
		return nil
	}
	if err := s.warmer.Warm(ctx, s.bases, at); err != nil {
		return fmt.Errorf("warm rates: %w", err)
	}
	s.logger.Debug().Strs("bases", s.bases).Time("at", at).Msg("rates warmed")
	return nil
}

// RecordConversion appends res to the journal. Failures are logged and never
// surface to the caller.
func (s *Service) RecordConversion(ctx context.Context, res converter.Result, source string) {
	if s.journal == nil {
		return
	}

	rec := storage.ConversionRecord{
		FromCurrency: res.From,
		ToCurrency:   res.To,
		Amount:       decimal.NewFromFloat(res.Amount),
		Converted:    decimal.NewFromFloat(res.Converted),
		Rate:         decimal.NewFromFloat(res.Rate),
		Stale:        res.Stale,
		Source:       source,
	}
	if !res.RatesAsOf.IsZero() {
		asOf := res.RatesAsOf.UTC()
		rec.RatesAsOf = &asOf
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	saved, err := s.journal.InsertConversion(ctx, rec)
	if err != nil {
		s.logger.Error().Err(err).
			Str("from", res.From).
			Str("to", res.To).
			Msg("failed to journal conversion")
		return
	}
	s.logger.Debug().Int64("id", saved.ID).Str("source", source).Msg("conversion journaled")
}
