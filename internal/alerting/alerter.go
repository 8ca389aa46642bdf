package alerting

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"fxconvert/internal/ratecache"
)

// AlerterOptions tune the stale-rate alerter.
type AlerterOptions struct {
	// Cooldown is the minimum gap between alerts for one base.
	Cooldown time.Duration
	// Timeout bounds each delivery.
	Timeout time.Duration
	Now     func() time.Time
}

// StaleAlerter turns cache degradation signals into notifications. Delivery
// is asynchronous so lookups never wait on it.
type StaleAlerter struct {
	notifier Notifier
	cooldown time.Duration
	timeout  time.Duration
	now      func() time.Time
	logger   zerolog.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time
	wg       sync.WaitGroup
}

// NewStaleAlerter constructs an alerter delivering through notifier.
func NewStaleAlerter(notifier Notifier, opts AlerterOptions, logger zerolog.Logger) *StaleAlerter {
	if opts.Cooldown <= 0 {
		opts.Cooldown = 30 * time.Minute
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &StaleAlerter{
		notifier: notifier,
		cooldown: opts.Cooldown,
		timeout:  opts.Timeout,
		now:      opts.Now,
		logger:   logger.With().Str("component", "stale_alerter").Logger(),
		lastSent: make(map[string]time.Time),
	}
}

func (a *StaleAlerter) CacheHit(string)       {}
func (a *StaleAlerter) CacheRefreshed(string) {}

func (a *StaleAlerter) StaleServed(base string, fetchedAt time.Time, cause error) {
	a.dispatch(Notification{Kind: KindStale, Base: base, FetchedAt: fetchedAt, Cause: errText(cause)})
}

func (a *StaleAlerter) Unavailable(base string, cause error) {
	a.dispatch(Notification{Kind: KindUnavailable, Base: base, Cause: errText(cause)})
}

// Send delivers note synchronously, bypassing the cooldown.
func (a *StaleAlerter) Send(ctx context.Context, note Notification) error {
	if note.At.IsZero() {
		note.At = a.now()
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.notifier.Notify(ctx, note)
}

// Wait blocks until in-flight deliveries finish.
func (a *StaleAlerter) Wait() {
	a.wg.Wait()
}

func (a *StaleAlerter) dispatch(note Notification) {
	now := a.now()
	if !a.claim(note.Base, now) {
		a.logger.Debug().Str("base", note.Base).Msg("alert suppressed by cooldown")
		return
	}
	note.At = now

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.Send(context.Background(), note); err != nil {
			a.logger.Error().Err(err).
				Str("base", note.Base).
				Str("kind", string(note.Kind)).
				Msg("failed to send alert")
		}
	}()
}

func (a *StaleAlerter) claim(base string, now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if last, ok := a.lastSent[base]; ok && now.Sub(last) < a.cooldown {
		return false
	}
	a.lastSent[base] = now
	return true
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

var _ ratecache.Observer = (*StaleAlerter)(nil)
