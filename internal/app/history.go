package app

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"
)

// History prints the most recent journaled conversions.
func (a *App) History(ctx context.Context, opts HistoryOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show conversion history")
	}
	defer closeStore()

	if opts.PruneOlderThan > 0 {
		cutoff := a.Now().Add(-opts.PruneOlderThan)
		deleted, err := store.DeleteConversionsBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		a.Logger.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("journal pruned")
		fmt.Fprintf(a.Out, "pruned %d conversions older than %s\n", deleted, cutoff.UTC().Format(time.RFC3339))
	}

	records, err := store.ListRecentConversions(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(a.Out, "no conversions recorded")
		return nil
	}

	total, err := store.CountConversions(ctx)
	if err != nil {
		return err
	}
	headerColor.Fprintf(a.Out, "showing %d of %d conversions\n", len(records), total)

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tFrom\tTo\tAmount\tConverted\tRate\tStale\tSource")
	for _, rec := range records {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
			rec.CreatedAt.UTC().Format(time.RFC3339),
			rec.FromCurrency,
			rec.ToCurrency,
			rec.Amount.String(),
			rec.Converted.StringFixed(2),
			rec.Rate.String(),
			rec.Stale,
			rec.Source,
		)
	}
	return writer.Flush()
}
