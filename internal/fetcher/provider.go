package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"fxconvert/internal/version"
)

const (
	defaultProviderURL = "https://api.exchangerate-api.com/v4/latest"
	defaultTimeout     = 10 * time.Second
	maxBodyBytes       = 1 << 20
)

// ProviderOptions parameterise the exchange-rate API client.
type ProviderOptions struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
}

// Provider fetches rate snapshots from an ExchangeRate-API compatible service.
type Provider struct {
	opts    ProviderOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewProvider constructs a provider client.
func NewProvider(opts ProviderOptions, logger zerolog.Logger) *Provider {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultProviderURL
	}

	return &Provider{
		opts:    opts,
		logger:  logger.With().Str("component", "rate_provider").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchRates performs a single GET for base and decodes its rates object.
func (p *Provider) FetchRates(ctx context.Context, base string) (Snapshot, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		return Snapshot{}, &NetworkError{Err: errors.New("base currency required")}
	}

	endpoint := p.baseURL + "/" + base
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Snapshot{}, &NetworkError{Base: base, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(p.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", version.UserAgent())
	}
	if p.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.opts.APIKey)
	}

	started := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return Snapshot{}, &NetworkError{Base: base, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Snapshot{}, &NetworkError{Base: base, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Snapshot{}, &NetworkError{Base: base, StatusCode: resp.StatusCode, Err: parseHTTPError(payload)}
	}

	snap, err := decodeSnapshot(base, payload)
	if err != nil {
		return Snapshot{}, err
	}

	p.logger.Debug().Str("base", base).
		Int("rates", len(snap.Rates)).
		Dur("latency", time.Since(started)).
		Msg("rates fetched")
	return snap, nil
}

func decodeSnapshot(base string, payload []byte) (Snapshot, error) {
	if !gjson.ValidBytes(payload) {
		return Snapshot{}, &DecodeError{Base: base, Err: errors.New("response is not valid json")}
	}

	if result := gjson.GetBytes(payload, "result"); result.Exists() && result.String() == "error" {
		return Snapshot{}, &DecodeError{Base: base, Err: fmt.Errorf("provider reported error: %s", providerErrorText(payload))}
	}

	rates := gjson.GetBytes(payload, "rates")
	if !rates.IsObject() {
		return Snapshot{}, &DecodeError{Base: base, Err: errors.New("rates object missing")}
	}

	snap := Snapshot{Base: base, Rates: make(map[string]float64)}
	var decodeErr error
	rates.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.Number {
			decodeErr = fmt.Errorf("rate for %s is not numeric", key.String())
			return false
		}
		snap.Rates[strings.ToUpper(key.String())] = value.Float()
		return true
	})
	if decodeErr != nil {
		return Snapshot{}, &DecodeError{Base: base, Err: decodeErr}
	}

	if updated := gjson.GetBytes(payload, "time_last_updated"); updated.Type == gjson.Number {
		snap.UpdatedAt = time.Unix(updated.Int(), 0).UTC()
	}

	return snap, nil
}

func providerErrorText(payload []byte) string {
	for _, path := range []string{"error-type", "error", "message"} {
		if v := gjson.GetBytes(payload, path); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return "unknown"
}

func parseHTTPError(payload []byte) error {
	if gjson.ValidBytes(payload) {
		if text := providerErrorText(payload); text != "unknown" {
			return errors.New(text)
		}
	}
	if len(payload) > 0 {
		return errors.New(strings.TrimSpace(string(payload)))
	}
	return errors.New("unexpected status")
}

var _ RatesFetcher = (*Provider)(nil)
