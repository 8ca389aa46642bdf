package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"fxconvert/internal/converter"
	"fxconvert/internal/service"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	resultColor = color.New(color.FgGreen, color.Bold)
	warnColor   = color.New(color.FgYellow)
	errorColor  = color.New(color.FgRed)
)

// Convert performs a single conversion and prints the result.
func (a *App) Convert(ctx context.Context, opts ConvertOptions) error {
	c := a.build()
	svc, closeService, err := a.newService(ctx, c, false)
	if err != nil {
		return err
	}
	defer closeService()

	res, err := a.convertOnce(ctx, c, svc, opts.Amount, opts.From, opts.To)
	if err != nil {
		return err
	}
	a.printResult(c, res)
	return nil
}

func (a *App) convertOnce(ctx context.Context, c *components, svc *service.Service, amount float64, from, to string) (converter.Result, error) {
	res, err := c.engine.Convert(ctx, amount, from, to, a.Now())
	if err != nil {
		return converter.Result{}, err
	}
	svc.RecordConversion(ctx, res, "cli")
	if c.alerter != nil {
		c.alerter.Wait()
	}
	return res, nil
}

func (a *App) printResult(c *components, res converter.Result) {
	resultColor.Fprintf(a.Out, "%s = %s\n",
		c.formatter.Format(res.Amount, res.From),
		c.formatter.Format(res.Converted, res.To))
	fmt.Fprintf(a.Out, "1 %s = %.4f %s\n", res.From, converter.EffectiveRate(res.Amount, res.Converted), res.To)
	if res.Stale {
		warnColor.Fprintf(a.Out, "warning: provider unavailable, using rates fetched %s\n",
			res.RatesAsOf.UTC().Format(time.RFC3339))
	}
}

// Interactive runs the prompt loop: amount, source and target currency,
// then whether to continue.
func (a *App) Interactive(ctx context.Context) error {
	c := a.build()
	svc, closeService, err := a.newService(ctx, c, false)
	if err != nil {
		return err
	}
	defer closeService()

	headerColor.Fprintln(a.Out, "=== Currency Converter ===")
	fmt.Fprintln(a.Out, "Supported currencies:")
	for _, cur := range c.registry.List() {
		fmt.Fprintf(a.Out, "  %s: %s\n", cur.Code, cur.Name)
	}
	fmt.Fprintln(a.Out)

	scanner := bufio.NewScanner(a.In)
	prompt := func(label string) (string, bool) {
		fmt.Fprint(a.Out, label)
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, ok := prompt("Enter amount: ")
		if !ok {
			break
		}
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errorColor.Fprintln(a.Out, "Invalid amount. Please enter a valid number.")
			continue
		}
		from, ok := prompt("From currency (e.g., USD): ")
		if !ok {
			break
		}
		to, ok := prompt("To currency (e.g., EUR): ")
		if !ok {
			break
		}

		res, err := a.convertOnce(ctx, c, svc, amount, from, to)
		fmt.Fprintln(a.Out)
		if err != nil {
			errorColor.Fprintf(a.Out, "Conversion failed: %v\n", err)
		} else {
			a.printResult(c, res)
		}

		again, ok := prompt("\nConvert another amount? (y/n): ")
		if !ok || !strings.EqualFold(again, "y") {
			break
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return err
	}
	fmt.Fprintln(a.Out, "\nGoodbye!")
	return nil
}

// Currencies prints the registry in its fixed order.
func (a *App) Currencies() error {
	c := a.build()

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Code\tName\tSymbol\tDecimals")
	for _, cur := range c.registry.List() {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%d\n", cur.Code, cur.Name, cur.Symbol, cur.Decimals)
	}
	return writer.Flush()
}
