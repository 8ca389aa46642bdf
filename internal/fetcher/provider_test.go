package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestProviderFetchSuccess(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"USD","date":"2025-01-01","time_last_updated":1735689600,"rates":{"USD":1,"EUR":0.92,"jpy":151.2}}`))
	}))
	defer srv.Close()

	p := NewProvider(ProviderOptions{BaseURL: srv.URL + "/", APIKey: "secret", Timeout: time.Second}, noopLogger())
	snap, err := p.FetchRates(context.Background(), "usd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/USD" {
		t.Fatalf("expected path /USD, got %s", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("api key should be sent as bearer token, got %q", gotAuth)
	}
	if snap.Base != "USD" {
		t.Fatalf("expected base USD, got %s", snap.Base)
	}
	if rate, ok := snap.Rate("EUR"); !ok || rate != 0.92 {
		t.Fatalf("expected EUR 0.92, got %v (%v)", rate, ok)
	}
	if _, ok := snap.Rate("JPY"); !ok {
		t.Fatal("codes should be upper-cased")
	}
	if snap.UpdatedAt.Unix() != 1735689600 {
		t.Fatalf("unexpected updated at %v", snap.UpdatedAt)
	}
}

func TestProviderOmitsAuthWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("authorization header should be omitted")
		}
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "fxconvert/") {
			t.Errorf("default user agent should identify the binary, got %q", ua)
		}
		_, _ = w.Write([]byte(`{"rates":{"EUR":0.9}}`))
	}))
	defer srv.Close()

	p := NewProvider(ProviderOptions{BaseURL: srv.URL}, noopLogger())
	if _, err := p.FetchRates(context.Background(), "USD"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProviderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"error","error-type":"unsupported-code"}`))
	}))
	defer srv.Close()

	p := NewProvider(ProviderOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	_, err := p.FetchRates(context.Background(), "USD")

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if netErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", netErr.StatusCode)
	}
	if netErr.Err.Error() != "unsupported-code" {
		t.Fatalf("provider error text should be surfaced, got %q", netErr.Err.Error())
	}
}

func TestProviderDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"malformed":   `{"rates":`,
		"no rates":    `{"base":"USD"}`,
		"not object":  `{"rates":[1,2]}`,
		"non numeric": `{"rates":{"EUR":"0.9"}}`,
		"error body":  `{"result":"error","error-type":"invalid-key"}`,
	}

	for name, body := range cases {
		body := body
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			p := NewProvider(ProviderOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
			_, err := p.FetchRates(context.Background(), "USD")
			if !IsDecodeError(err) {
				t.Fatalf("expected DecodeError, got %v", err)
			}
			if IsNetworkError(err) {
				t.Fatal("decode failures must not be reported as network errors")
			}
		})
	}
}

func TestProviderTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p := NewProvider(ProviderOptions{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, noopLogger())
	_, err := p.FetchRates(context.Background(), "USD")
	if !IsNetworkError(err) {
		t.Fatalf("timeout should surface as NetworkError, got %v", err)
	}
}

func TestProviderConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewProvider(ProviderOptions{BaseURL: url, Timeout: time.Second}, noopLogger())
	if _, err := p.FetchRates(context.Background(), "USD"); !IsNetworkError(err) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}
