package ratecache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"fxconvert/internal/currency"
	"fxconvert/internal/fetcher"
)

const (
	// DefaultTTL is the freshness window used when none is configured.
	DefaultTTL = time.Hour
	// DefaultFetchTimeout bounds a shared refresh once it is detached from
	// the caller that started it.
	DefaultFetchTimeout = 30 * time.Second
)

// ErrRatesUnavailable means no snapshot, fresh or stale, could be obtained.
var ErrRatesUnavailable = errors.New("exchange rates unavailable")

// Entry is the cached snapshot for one base currency.
type Entry struct {
	Base      string
	Snapshot  fetcher.Snapshot
	FetchedAt time.Time
	// Stale is set on entries returned after a failed refresh.
	Stale bool
}

// Observer receives cache outcome signals.
type Observer interface {
	CacheHit(base string)
	CacheRefreshed(base string)
	StaleServed(base string, fetchedAt time.Time, cause error)
	Unavailable(base string, cause error)
}

// Options tune cache behaviour.
type Options struct {
	TTL          time.Duration
	FetchTimeout time.Duration
	Observer     Observer
}

// Cache holds one entry per base currency for the process lifetime.
type Cache struct {
	fetcher      fetcher.RatesFetcher
	registry     *currency.Registry
	ttl          time.Duration
	fetchTimeout time.Duration
	observer     Observer
	logger       zerolog.Logger

	entries sync.Map // base code -> *Entry
	flights singleflight.Group
}

// New constructs a cache in front of f.
func New(f fetcher.RatesFetcher, registry *currency.Registry, opts Options, logger zerolog.Logger) *Cache {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	fetchTimeout := opts.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &Cache{
		fetcher:      f,
		registry:     registry,
		ttl:          ttl,
		fetchTimeout: fetchTimeout,
		observer:     observer,
		logger:       logger.With().Str("component", "rate_cache").Logger(),
	}
}

// TTL returns the configured freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// GetRates returns the snapshot for base, refreshing it when older than the TTL.
func (c *Cache) GetRates(ctx context.Context, base string, now time.Time) (fetcher.Snapshot, error) {
	entry, err := c.Lookup(ctx, base, now)
	if err != nil {
		return fetcher.Snapshot{}, err
	}
	return entry.Snapshot, nil
}

// Lookup is GetRates but also reports when and whether the entry is stale.
func (c *Cache) Lookup(ctx context.Context, base string, now time.Time) (Entry, error) {
	base = currency.Normalize(base)
	if !c.registry.IsSupported(base) {
		return Entry{}, fmt.Errorf("%w: %s", currency.ErrUnsupported, base)
	}

	current := c.load(base)
	if current != nil && now.Sub(current.FetchedAt) < c.ttl {
		c.observer.CacheHit(base)
		return *current, nil
	}

	fresh, err := c.refresh(ctx, base, now)
	if err == nil {
		c.observer.CacheRefreshed(base)
		return *fresh, nil
	}
	// the caller gave up; the provider did not fail
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return Entry{}, fmt.Errorf("rates for %s: %w", base, err)
	}

	// refresh may have raced with a successful flight for the same base
	if latest := c.load(base); latest != nil {
		current = latest
	}
	if current != nil {
		c.logger.Warn().Err(err).
			Str("base", base).
			Time("fetched_at", current.FetchedAt).
			Dur("age", now.Sub(current.FetchedAt)).
			Msg("rate refresh failed; serving stale rates")
		c.observer.StaleServed(base, current.FetchedAt, err)
		stale := *current
		stale.Stale = true
		return stale, nil
	}

	c.logger.Error().Err(err).Str("base", base).Msg("rate refresh failed and no cached rates exist")
	c.observer.Unavailable(base, err)
	return Entry{}, fmt.Errorf("%w for %s: %w", ErrRatesUnavailable, base, err)
}

// Warm runs the lookup path for each base so later requests hit a fresh
// entry. Failures for individual bases are joined.
func (c *Cache) Warm(ctx context.Context, bases []string, now time.Time) error {
	var errs []error
	for _, base := range bases {
		if _, err := c.Lookup(ctx, base, now); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Peek returns the cached entry for base without refreshing it.
func (c *Cache) Peek(base string) (Entry, bool) {
	entry := c.load(currency.Normalize(base))
	if entry == nil {
		return Entry{}, false
	}
	return *entry, true
}

func (c *Cache) load(base string) *Entry {
	v, ok := c.entries.Load(base)
	if !ok {
		return nil
	}
	return v.(*Entry)
}

// refresh joins or starts the single in-flight fetch for base. The fetch runs
// detached from ctx so one cancelled caller cannot fail the others sharing
// it; each caller still stops waiting when its own ctx is done.
func (c *Cache) refresh(ctx context.Context, base string, now time.Time) (*Entry, error) {
	results := c.flights.DoChan(base, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		snap, err := c.fetcher.FetchRates(fetchCtx, base)
		if err != nil {
			return nil, err
		}
		entry := &Entry{
			Base:      base,
			Snapshot:  c.sanitize(base, snap),
			FetchedAt: now,
		}
		c.entries.Store(base, entry)
		c.logger.Info().Str("base", base).
			Int("rates", len(entry.Snapshot.Rates)).
			Msg("rates refreshed")
		return entry, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug().Str("base", base).Msg("joined in-flight refresh")
		}
		return res.Val.(*Entry), nil
	}
}

// sanitize keeps registry currencies with positive rates and pins the base
// rate to 1.
func (c *Cache) sanitize(base string, snap fetcher.Snapshot) fetcher.Snapshot {
	rates := make(map[string]float64, len(snap.Rates)+1)
	for code, rate := range snap.Rates {
		code = currency.Normalize(code)
		if !c.registry.IsSupported(code) || rate <= 0 {
			continue
		}
		rates[code] = rate
	}
	rates[base] = 1.0
	return fetcher.Snapshot{Base: base, Rates: rates, UpdatedAt: snap.UpdatedAt}
}

type nopObserver struct{}

func (nopObserver) CacheHit(string)                      {}
func (nopObserver) CacheRefreshed(string)                {}
func (nopObserver) StaleServed(string, time.Time, error) {}
func (nopObserver) Unavailable(string, error)            {}

// Observers fans signals out to several observers.
type Observers []Observer

func (o Observers) CacheHit(base string) {
	for _, obs := range o {
		obs.CacheHit(base)
	}
}

func (o Observers) CacheRefreshed(base string) {
	for _, obs := range o {
		obs.CacheRefreshed(base)
	}
}

func (o Observers) StaleServed(base string, fetchedAt time.Time, cause error) {
	for _, obs := range o {
		obs.StaleServed(base, fetchedAt, cause)
	}
}

func (o Observers) Unavailable(base string, cause error) {
	for _, obs := range o {
		obs.Unavailable(base, cause)
	}
}
