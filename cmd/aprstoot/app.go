package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"aprstoot/internal/aprs"
	"aprstoot/internal/bridge"
	"aprstoot/internal/config"
	"aprstoot/internal/constants"
	"aprstoot/internal/dedup"
	"aprstoot/internal/logger"
	"aprstoot/internal/publisher"
	"aprstoot/pkg/health"
	"aprstoot/pkg/metrics"
)

type App struct {
	Config *config.Config
	Logger logger.Logger

	repo   *dedup.SQLiteRepository
	bridge *bridge.Bridge
	server *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("aprstoot")
	}
	return &App{
		Config: cfg,
		Logger: log,
	}
}

func (a *App) Initialize(ctx context.Context) error {
	metrics.RegisterBridgeMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	dedupSvc, err := a.initStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dedup store: %w", err)
	}

	pub, err := a.initPublisher(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize publisher: %w", err)
	}

	a.bridge = bridge.New(a.Config, dedupSvc, pub, a.Logger)

	if err := a.initHTTPServer(); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	return nil
}

func (a *App) initStore(ctx context.Context) (*dedup.Service, error) {
	repo, err := dedup.NewSQLiteRepository(ctx, a.Config.Storage.Path)
	if err != nil {
		return nil, err
	}
	a.repo = repo

	svc := dedup.NewService(repo, dedup.NewHasher(a.Config.Storage.HashAlgorithm), a.Logger)
	if err := svc.InitMetrics(ctx); err != nil {
		return nil, err
	}

	a.Logger.Infow("Dedup store opened", "path", a.Config.Storage.Path)
	return svc, nil
}

func (a *App) initPublisher(ctx context.Context) (publisher.Publisher, error) {
	client := publisher.NewMastodonClient(a.Config.Mastodon, a.Logger)

	if err := client.EnsureRegistered(ctx); err != nil {
		return nil, err
	}
	if err := client.Login(ctx); err != nil {
		return nil, err
	}

	var pub publisher.Publisher = client
	pub = publisher.NewCircuitBreakerPublisher(pub, a.Config.CircuitBreaker)
	pub = publisher.NewRateLimitedPublisher(pub, a.Config.RateLimit)
	return pub, nil
}

func (a *App) initHTTPServer() error {
	mux := http.NewServeMux()

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewSQLChecker("dedup-store", a.repo.DB()))
	healthRegistry.Register(health.NewFuncChecker("feed", func(ctx context.Context) error {
		if state := a.bridge.ConnectionState(); state != aprs.StateStreaming {
			return fmt.Errorf("feed connection is %s", state)
		}
		return nil
	}))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h := healthRegistry.Check(r.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprintf(w, `{"status":"%s","timestamp":"%s"}`, h.Status, h.Timestamp.Format(time.RFC3339))
	})

	mux.Handle("/metrics", promhttp.Handler())

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      mux,
		ReadTimeout:  a.Config.Server.ReadTimeoutSeconds,
		WriteTimeout: a.Config.Server.WriteTimeoutSeconds,
	}

	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	if a.server != nil {
		g.Go(func() error {
			a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
			if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			return a.server.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		return a.bridge.Run(gCtx)
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("Shutting down bridge...")

	var errs []error

	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("dedup store close error: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	a.Logger.Info("Bridge exited successfully")
	return nil
}
