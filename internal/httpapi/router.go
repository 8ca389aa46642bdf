package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"fxconvert/internal/converter"
	"fxconvert/internal/currency"
	"fxconvert/internal/format"
	"fxconvert/internal/history"
	"fxconvert/internal/metrics"
)

// Recorder receives every successful conversion served by the API.
type Recorder interface {
	RecordConversion(ctx context.Context, res converter.Result, source string)
}

// Options wire the API's collaborators.
type Options struct {
	Engine    *converter.Engine
	Formatter *format.Formatter
	Estimator *history.Estimator
	Registry  *currency.Registry
	// Recorder and Metrics are optional.
	Recorder Recorder
	Metrics  *metrics.RateMetrics

	CORSOrigins []string
	// RateLimit is a limiter formatted rate such as "120-M"; empty disables it.
	RateLimit   string
	DefaultDays int
	ChartWidth  int
	ChartHeight int
	Now         func() time.Time
}

type handler struct {
	opts   Options
	logger zerolog.Logger
}

// NewRouter builds the gin engine serving the conversion API.
func NewRouter(opts Options, logger zerolog.Logger) (*gin.Engine, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultDays <= 0 {
		opts.DefaultDays = history.DefaultDays
	}
	if opts.ChartWidth <= 0 {
		opts.ChartWidth = 1280
	}
	if opts.ChartHeight <= 0 {
		opts.ChartHeight = 720
	}
	if err := registerValidators(); err != nil {
		return nil, err
	}

	logger = logger.With().Str("component", "http").Logger()
	h := &handler{opts: opts, logger: logger}

	r := gin.New()
	if err := r.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	r.Use(RequestLogger(logger), Recovery(logger))
	if opts.Metrics != nil {
		r.Use(Instrument(opts.Metrics))
	}
	r.Use(CORS(opts.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	api := r.Group("/")
	if opts.RateLimit != "" {
		rate, err := limiter.NewRateFromFormatted(opts.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("parse http.rate_limit: %w", err)
		}
		api.Use(RateLimit(limiter.New(memory.NewStore(), rate)))
	}

	api.GET("/currencies", h.listCurrencies)
	api.POST("/convert", h.convert)
	api.GET("/format", h.format)
	api.GET("/historical", h.historical)
	api.GET("/historical/chart.png", h.historicalChart)

	return r, nil
}
