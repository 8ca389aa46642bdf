package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"fxconvert/internal/history"
)

// ErrTooFewPoints is returned when a chart would have no visible line.
var ErrTooFewPoints = errors.New("at least two points are required to draw a chart")

// Trend describes a series to export.
type Trend struct {
	From   string
	To     string
	Points []history.Point
}

// WriteCSV writes the series as date,rate rows.
func WriteCSV(w io.Writer, trend Trend) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"date", "rate"}); err != nil {
		return err
	}
	for _, p := range trend.Points {
		record := []string{
			p.Date.Format(time.DateOnly),
			strconv.FormatFloat(p.Rate, 'f', 4, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WritePNG renders the series as a line chart.
func WritePNG(w io.Writer, trend Trend, width, height int) error {
	if len(trend.Points) < 2 {
		return ErrTooFewPoints
	}

	x := make([]time.Time, len(trend.Points))
	y := make([]float64, len(trend.Points))
	for i, p := range trend.Points {
		x[i] = p.Date
		y[i] = p.Rate
	}

	rateFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.4f")
	}
	graph := chart.Chart{
		Title:  fmt.Sprintf("%s/%s (synthetic)", trend.From, trend.To),
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           fmt.Sprintf("Rate (%s per %s)", trend.To, trend.From),
			ValueFormatter: rateFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    trend.From + "/" + trend.To,
				XValues: x,
				YValues: y,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

// WriteCSVFile writes the CSV export to path, creating parent directories.
func WriteCSVFile(path string, trend Trend) error {
	return writeFile(path, func(w io.Writer) error { return WriteCSV(w, trend) })
}

// WritePNGFile writes the chart export to path, creating parent directories.
func WritePNGFile(path string, trend Trend, width, height int) error {
	return writeFile(path, func(w io.Writer) error { return WritePNG(w, trend, width, height) })
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
