package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"fxconvert/internal/fetcher"
)

func TestObserverCountsOutcomes(t *testing.T) {
	m := New()

	m.CacheHit("USD")
	m.CacheHit("USD")
	m.CacheRefreshed("USD")
	m.StaleServed("EUR", time.Now(), errors.New("down"))
	m.Unavailable("GBP", errors.New("down"))

	checks := []struct {
		base, outcome string
		want          float64
	}{
		{"USD", "hit", 2},
		{"USD", "refresh", 1},
		{"EUR", "stale", 1},
		{"GBP", "unavailable", 1},
	}
	for _, c := range checks {
		got := testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues(c.base, c.outcome))
		if got != c.want {
			t.Errorf("%s/%s: got %v, want %v", c.base, c.outcome, got, c.want)
		}
	}
}

func TestInstrumentFetcherClassifiesResults(t *testing.T) {
	m := New()

	var next error
	inner := fetcher.FetcherFunc(func(ctx context.Context, base string) (fetcher.Snapshot, error) {
		if next != nil {
			return fetcher.Snapshot{}, next
		}
		return fetcher.Snapshot{Base: base}, nil
	})
	f := m.InstrumentFetcher(inner)

	if _, err := f.FetchRates(context.Background(), "USD"); err != nil {
		t.Fatal(err)
	}
	next = &fetcher.NetworkError{Base: "USD", Err: errors.New("refused")}
	if _, err := f.FetchRates(context.Background(), "USD"); !fetcher.IsNetworkError(err) {
		t.Fatalf("errors should pass through unchanged, got %v", err)
	}
	next = &fetcher.DecodeError{Base: "USD", Err: errors.New("bad json")}
	_, _ = f.FetchRates(context.Background(), "USD")

	for result, want := range map[string]float64{"success": 1, "network_error": 1, "decode_error": 1} {
		if got := testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("USD", result)); got != want {
			t.Errorf("%s: got %v, want %v", result, got, want)
		}
	}
	if n := testutil.CollectAndCount(m.ProviderRequestDuration); n != 1 {
		t.Fatalf("expected one duration series, got %d", n)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RecordConversion("USD", "EUR", "ok")
	m.RecordHTTPRequest(http.MethodPost, "/convert", "200", 15*time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, name := range []string{
		`fxconvert_conversions_total{from="USD",outcome="ok",to="EUR"} 1`,
		`fxconvert_http_requests_total{method="POST",route="/convert",status="200"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("exposition missing %q", name)
		}
	}
}
