package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fxconvert/internal/history"
)

func sampleTrend() Trend {
	start := time.Date(2025, 2, 27, 0, 0, 0, 0, time.UTC)
	rates := []float64{0.9123, 0.95, 0.8876}
	points := make([]history.Point, len(rates))
	for i, r := range rates {
		points[i] = history.Point{Date: start.AddDate(0, 0, i), Rate: r}
	}
	return Trend{From: "USD", To: "EUR", Points: points}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleTrend()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "date,rate\n2025-02-27,0.9123\n2025-02-28,0.9500\n2025-03-01,0.8876\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, sampleTrend(), 640, 360); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatal("output is not a PNG")
	}
}

func TestWritePNGNeedsTwoPoints(t *testing.T) {
	trend := sampleTrend()
	trend.Points = trend.Points[:1]
	if err := WritePNG(&bytes.Buffer{}, trend, 640, 360); !errors.Is(err, ErrTooFewPoints) {
		t.Fatalf("expected ErrTooFewPoints, got %v", err)
	}
}

func TestWriteFilesCreateDirectories(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "out", "trend.csv")
	pngPath := filepath.Join(dir, "out", "charts", "trend.png")

	if err := WriteCSVFile(csvPath, sampleTrend()); err != nil {
		t.Fatalf("csv: %v", err)
	}
	if err := WritePNGFile(pngPath, sampleTrend(), 320, 200); err != nil {
		t.Fatalf("png: %v", err)
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "date,rate\n") {
		t.Fatalf("unexpected csv header: %q", data)
	}
	if info, err := os.Stat(pngPath); err != nil || info.Size() == 0 {
		t.Fatalf("png not written: %v", err)
	}
}
