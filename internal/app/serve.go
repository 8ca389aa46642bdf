package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"fxconvert/internal/httpapi"
	"fxconvert/internal/scheduler"
	"fxconvert/internal/service"
	"fxconvert/internal/storage"
)

// Serve runs the HTTP API until SIGINT or SIGTERM.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := a.build()
	svc, closeService, err := a.newService(ctx, c, true)
	if err != nil {
		return err
	}
	defer closeService()

	router, err := a.newRouter(c, svc)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.Config.HTTP.Addr,
		Handler:           router,
		ReadTimeout:       a.Config.HTTP.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      a.Config.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if a.Config.Cache.WarmInterval > 0 {
		g.Go(func() error {
			if err := svc.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.HTTP.ShutdownTimeout)
		defer cancel()
		a.Logger.Info().Msg("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if c.alerter != nil {
		c.alerter.Wait()
	}
	if err != nil {
		a.Logger.Error().Err(err).Msg("server terminated with error")
		return err
	}

	a.Logger.Info().Msg("server stopped")
	return nil
}

func (a *App) newRouter(c *components, svc *service.Service) (*gin.Engine, error) {
	if a.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return httpapi.NewRouter(httpapi.Options{
		Engine:      c.engine,
		Formatter:   c.formatter,
		Estimator:   c.estimator,
		Registry:    c.registry,
		Recorder:    svc,
		Metrics:     c.metrics,
		CORSOrigins: a.Config.HTTP.CORSOrigins,
		RateLimit:   a.Config.HTTP.RateLimit,
		DefaultDays: a.Config.History.DefaultDays,
		ChartWidth:  a.Config.Chart.Width,
		ChartHeight: a.Config.Chart.Height,
		Now:         a.Now,
	}, a.Logger)
}

// newService wires the journal and, when warm is set and an interval is
// configured, the cache warming scheduler.
func (a *App) newService(ctx context.Context, c *components, warm bool) (*service.Service, func(), error) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	var journal storage.ConversionJournal
	if store != nil {
		journal = store
	} else {
		a.Logger.Debug().Msg("database.dsn not configured; conversion journal disabled")
	}

	var sched *scheduler.Scheduler
	if warm && a.Config.Cache.WarmInterval > 0 {
		sched, err = scheduler.New(scheduler.Options{
			Interval:   a.Config.Cache.WarmInterval,
			RunOnStart: true,
		}, a.Logger)
		if err != nil {
			if closeStore != nil {
				closeStore()
			}
			return nil, nil, err
		}
	}

	svc := service.New(c.cache, sched, journal, service.Options{
		WarmBases:      a.Config.Cache.WarmBases,
		JournalTimeout: a.Config.Database.WriteTimeout,
	}, a.Logger)

	closer := func() {
		if closeStore != nil {
			closeStore()
		}
	}
	return svc, closer, nil
}
