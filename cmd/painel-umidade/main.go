package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/brclima/painel-umidade/internal/api/http"
	"github.com/brclima/painel-umidade/internal/config"
	"github.com/brclima/painel-umidade/internal/geo"
	"github.com/brclima/painel-umidade/internal/humidity"
	"github.com/brclima/painel-umidade/internal/humidity/providers"
	"github.com/brclima/painel-umidade/internal/municipality"
	"github.com/brclima/painel-umidade/internal/observability"
	"github.com/brclima/painel-umidade/internal/scheduler"
	"github.com/brclima/painel-umidade/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Reference data is a startup requirement: no municipalities, no service.
	munis, err := municipality.Load(cfg.AttrXLSXPath, cfg.RowLimit)
	if err != nil {
		log.Error("failed to load municipality table", "error", err)
		os.Exit(1)
	}
	log.Info("municipality table loaded", "count", len(munis), "path", cfg.AttrXLSXPath)

	overlay := geo.LoadOverlay(cfg.GeoJSONPath, log)

	// Shared HTTP client for outbound forecast calls; the timeout here is the
	// only cancellation in the pipeline.
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	inmet := providers.NewINMETClient(httpClient, cfg.ForecastURLTemplate, log, metrics)
	collector := humidity.NewCollector(inmet, cfg.Workers, clock, cfg.Timezone, log, metrics)

	build := func(ctx context.Context) ([]humidity.Sample, []string, error) {
		samples, dates := collector.Collect(ctx, munis)
		return samples, dates, nil
	}

	dailyStore := store.NewDailyStore(clock, cfg.Timezone, build, log, metrics)

	// Warm the cache in the background so the first request doesn't pay for
	// a full country-wide collection run.
	go func() {
		if _, err := dailyStore.Get(context.Background(), false); err != nil {
			log.Error("initial dataset build failed", "error", err)
		}
	}()

	if cfg.ScheduleEnabled {
		sched := scheduler.New(cfg.Timezone, dailyStore, log)
		if err := sched.Start(); err != nil {
			log.Error("failed to start scheduler", "error", err)
			os.Exit(1)
		}
		defer sched.Stop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "painel-umidade",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "painel-umidade",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpapi.RegisterRoutes(app, dailyStore, overlay, cfg.RefreshToken)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
}

func newLogger(format string) *slog.Logger {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}
