package app

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"fxconvert/internal/alerting"
	"fxconvert/internal/config"
	"fxconvert/internal/converter"
	"fxconvert/internal/currency"
	"fxconvert/internal/fetcher"
	"fxconvert/internal/format"
	"fxconvert/internal/history"
	"fxconvert/internal/metrics"
	"fxconvert/internal/ratecache"
	"fxconvert/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	// Out and In back the CLI's user-facing output and prompts.
	Out io.Writer
	In  io.Reader
	Now func() time.Time
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config: cfg,
		Logger: logger.With().Str("component", "app").Logger(),
		Out:    os.Stdout,
		In:     os.Stdin,
		Now:    time.Now,
	}
}

// components is the object graph shared by every command.
type components struct {
	registry  *currency.Registry
	provider  *fetcher.Provider
	metrics   *metrics.RateMetrics
	cache     *ratecache.Cache
	engine    *converter.Engine
	formatter *format.Formatter
	estimator *history.Estimator
	alerter   *alerting.StaleAlerter
}

func (a *App) newProvider() *fetcher.Provider {
	return fetcher.NewProvider(fetcher.ProviderOptions{
		BaseURL:   a.Config.Provider.BaseURL,
		APIKey:    a.Config.Provider.APIKey,
		Timeout:   a.Config.Provider.RequestTimeout,
		UserAgent: a.Config.Provider.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, a.Config.Alerting.Timeout, a.Logger)
	}
	return nil
}

func (a *App) newAlerter() *alerting.StaleAlerter {
	if !a.Config.Alerting.Enabled {
		return nil
	}
	notifier := a.newNotifier()
	if notifier == nil {
		return nil
	}
	return alerting.NewStaleAlerter(notifier, alerting.AlerterOptions{
		Cooldown: a.Config.Alerting.Cooldown,
		Timeout:  a.Config.Alerting.Timeout,
	}, a.Logger)
}

func (a *App) build() *components {
	c := &components{
		registry: currency.NewRegistry(),
		provider: a.newProvider(),
		metrics:  metrics.New(),
		alerter:  a.newAlerter(),
	}

	observers := ratecache.Observers{c.metrics}
	if c.alerter != nil {
		observers = append(observers, c.alerter)
	}

	c.cache = ratecache.New(c.metrics.InstrumentFetcher(c.provider), c.registry, ratecache.Options{
		TTL:          a.Config.CacheTTL(),
		FetchTimeout: a.Config.Provider.RequestTimeout,
		Observer:     observers,
	}, a.Logger)
	c.engine = converter.New(c.registry, c.cache, a.Logger)
	c.formatter = format.New(c.registry)
	c.estimator = history.NewEstimator(c.engine, nil, a.Logger)
	return c
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	store, err := storage.Open(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

// ConvertOptions configure a one-shot conversion.
type ConvertOptions struct {
	Amount float64
	From   string
	To     string
}

// TrendOptions configure the trend command.
type TrendOptions struct {
	From    string
	To      string
	Days    int
	CSVPath string
	PNGPath string
}

// HistoryOptions configure the history command.
type HistoryOptions struct {
	Limit int
	// PruneOlderThan deletes journal rows older than this age before listing.
	PruneOlderThan time.Duration
}
