package app

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"fxconvert/internal/currency"
)

// Probe performs one uncached provider round trip for base and prints the
// registry currencies it returned.
func (a *App) Probe(ctx context.Context, base string) error {
	registry := currency.NewRegistry()
	base = currency.Normalize(base)
	if !registry.IsSupported(base) {
		return fmt.Errorf("%w: %s", currency.ErrUnsupported, base)
	}

	provider := a.newProvider()
	start := time.Now()
	snap, err := provider.FetchRates(ctx, base)
	elapsed := time.Since(start)
	if err != nil {
		errorColor.Fprintf(a.Out, "provider check failed after %s: %v\n", elapsed.Truncate(time.Millisecond), err)
		return err
	}

	resultColor.Fprintf(a.Out, "provider OK: %d rates for %s in %s\n", len(snap.Rates), base, elapsed.Truncate(time.Millisecond))
	if !snap.UpdatedAt.IsZero() {
		fmt.Fprintf(a.Out, "provider last updated: %s\n", snap.UpdatedAt.UTC().Format(time.RFC3339))
	}

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Code\tRate")
	missing := 0
	for _, cur := range registry.List() {
		rate, ok := snap.Rate(cur.Code)
		if !ok {
			missing++
			continue
		}
		fmt.Fprintf(writer, "%s\t%.6f\n", cur.Code, rate)
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	if missing > 0 {
		warnColor.Fprintf(a.Out, "%d supported currencies missing from the response\n", missing)
	}
	return nil
}
