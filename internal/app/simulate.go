package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fxconvert/internal/alerting"
	"fxconvert/internal/currency"
)

// SimulateAlert sends a stale-rate alert for base through the configured
// channels without touching the provider.
func (a *App) SimulateAlert(ctx context.Context, base string) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting is not enabled")
	}

	alerter := a.newAlerter()
	if alerter == nil {
		return errors.New("no alert channel configured")
	}

	registry := currency.NewRegistry()
	base = currency.Normalize(base)
	if !registry.IsSupported(base) {
		return fmt.Errorf("%w: %s", currency.ErrUnsupported, base)
	}

	now := a.Now()
	note := alerting.Notification{
		Kind:          alerting.KindStale,
		Base:          base,
		At:            now,
		FetchedAt:     now.Add(-(a.Config.CacheTTL() + time.Minute)),
		Cause:         "simulated provider failure",
		AdditionalMsg: "This is a test alert.",
	}
	if err := alerter.Send(ctx, note); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "simulated stale alert sent for %s\n", base)
	return nil
}
