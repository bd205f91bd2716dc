// Command athena runs the hotel operations hub.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	cfhttp "github.com/Strob0t/athena/internal/adapter/http"
	cfnats "github.com/Strob0t/athena/internal/adapter/nats"
	cfotel "github.com/Strob0t/athena/internal/adapter/otel"
	"github.com/Strob0t/athena/internal/adapter/reputation"
	"github.com/Strob0t/athena/internal/adapter/ristretto"
	"github.com/Strob0t/athena/internal/adapter/ws"
	"github.com/Strob0t/athena/internal/config"
	"github.com/Strob0t/athena/internal/domain/booking"
	"github.com/Strob0t/athena/internal/logger"
	"github.com/Strob0t/athena/internal/middleware"
	"github.com/Strob0t/athena/internal/port/broadcast"
	"github.com/Strob0t/athena/internal/resilience"
	"github.com/Strob0t/athena/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	lg, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(lg)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"hotel", cfg.Hotel.Name,
		"departments", len(cfg.Hotel.Departments),
		"refresh_interval", cfg.Refresh.Interval,
		"nats", cfg.NATS.URL != "",
		"otel", cfg.OTEL.Endpoint != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---

	shutdownOTEL, err := cfotel.Setup(ctx, cfg.OTEL, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTEL(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---

	snapshotCache, err := ristretto.New(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer snapshotCache.Close()

	var refresher *service.Refresher
	viewers := ws.NewHub(func(ctx context.Context) (ws.Message, error) {
		return refresher.Welcome(ctx)
	})
	defer viewers.Close()

	listeners := []broadcast.Broadcaster{viewers}
	if cfg.NATS.URL != "" {
		pub, err := cfnats.Connect(ctx, cfg.NATS.URL, cfg.NATS.SubjectPrefix, cfg.Hotel.Name)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = pub.Close() }()
		listeners = append(listeners, pub)
	}
	events := broadcast.NewFanout(listeners...)

	// --- Services ---

	hub := service.NewHub(cfg.Hotel,
		service.WithBroadcaster(events),
		service.WithMetrics(metrics),
	)
	refresher = service.NewRefresher(hub, viewers, snapshotCache, metrics, cfg.Refresh.Interval, cfg.Cache.SnapshotTTL)
	upsell := service.NewUpsellService(hub, booking.NewDirectory(cfg.Hotel.Bookings))
	reviews := service.NewReviewSyncService(hub,
		reputation.FromConfig(cfg.Reputation),
		resilience.NewBreaker("reputation", cfg.Reputation.BreakerFails, cfg.Reputation.BreakerTimeout),
		metrics,
	)

	// --- HTTP ---

	handlers := &cfhttp.Handlers{
		Hub:               hub,
		Upsell:            upsell,
		Reviews:           reviews,
		Refresher:         refresher,
		RecentAlertsLimit: cfg.Hotel.RecentAlertsLimit,
		Viewers:           viewers.ConnectionCount,
	}

	limiter := middleware.NewRateLimiter(cfg.Rate)

	r := chi.NewRouter()
	r.Use(cfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(cfhttp.SecurityHeaders)
	r.Use(cfhttp.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.ViewerID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(limiter.Handler)
	r.Use(cfotel.HTTPMiddleware(cfg.Logging.Service))

	r.Get("/ws", viewers.HandleWS)
	cfhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return refresher.Run(gctx)
	})
	g.Go(func() error {
		limiter.Run(gctx, cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		viewers.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
