package app

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"fxconvert/internal/currency"
	"fxconvert/internal/history"
	"fxconvert/internal/report"
)

// Trend prints a synthetic historical series and optionally exports it.
func (a *App) Trend(ctx context.Context, opts TrendOptions) error {
	c := a.build()

	from := currency.Normalize(opts.From)
	to := currency.Normalize(opts.To)
	days := history.ClampDays(a.Config.ResolveDays(opts.Days))

	points, err := c.estimator.Estimate(ctx, from, to, days, a.Now())
	if err != nil {
		return err
	}
	trend := report.Trend{From: from, To: to, Points: points}

	warnColor.Fprintln(a.Out, history.SyntheticNotice)

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Date\t%s/%s\n", from, to)
	for _, p := range points {
		fmt.Fprintf(writer, "%s\t%.4f\n", p.Date.Format(time.DateOnly), p.Rate)
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	if opts.CSVPath != "" {
		if err := report.WriteCSVFile(opts.CSVPath, trend); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		a.Logger.Info().Str("path", opts.CSVPath).Int("points", len(points)).Msg("trend csv written")
	}
	if opts.PNGPath != "" {
		if err := report.WritePNGFile(opts.PNGPath, trend, a.Config.Chart.Width, a.Config.Chart.Height); err != nil {
			return fmt.Errorf("write png: %w", err)
		}
		a.Logger.Info().Str("path", opts.PNGPath).Int("points", len(points)).Msg("trend chart written")
	}
	return nil
}
