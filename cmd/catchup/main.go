package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/catchup/internal/config"
	"github.com/pribylovaa/catchup/internal/feed"
	"github.com/pribylovaa/catchup/internal/metrics"
	logctx "github.com/pribylovaa/catchup/internal/pkg/log"
	"github.com/pribylovaa/catchup/internal/remote/hackernews"
	"github.com/pribylovaa/catchup/internal/remote/rss"
	"github.com/pribylovaa/catchup/internal/service"
	"github.com/pribylovaa/catchup/internal/storage"
	"github.com/pribylovaa/catchup/internal/storage/memory"
	"github.com/pribylovaa/catchup/internal/storage/postgres"
	"github.com/pribylovaa/catchup/internal/storage/redis"
	grpctransport "github.com/pribylovaa/catchup/internal/transport/grpc"
	httptransport "github.com/pribylovaa/catchup/internal/transport/http"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting catchup-service",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage.Driver),
	)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()
	rootCtx = logctx.Into(rootCtx, log)

	store, err := openStorage(rootCtx, cfg)
	if err != nil {
		log.Error("storage_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer store.Close()
	log.Info("storage_initialized", slog.String("driver", cfg.Storage.Driver))

	m := metrics.New(prometheus.DefaultRegisterer)
	sources := buildSources(cfg, m)

	var grpcSrv *grpctransport.Server

	svc := service.New(*cfg, store, sources, service.Options{
		Recorder: m,
		OnWarmup: func(serviceType string, err error) {
			grpcSrv.ReportFeed(serviceType, err)
		},
	})
	log.Info("service_initialized", slog.Any("services", svc.Services()))

	grpcSrv = grpctransport.New(grpctransport.Options{
		Logger:     log,
		Timeout:    cfg.Timeouts.Service,
		Reflection: cfg.Env == envLocal || cfg.Env == envDev,
		Metrics:    true,
		Feeds:      svc.Services(),
	})

	// HTTP: API + readiness/liveness/metrics.
	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", httptransport.NewRouter(svc, httptransport.Options{
		Logger:     log,
		Timeout:    cfg.Timeouts.Service,
		BasePath:   "/api/v1",
		Registerer: prometheus.DefaultRegisterer,
	}))

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	httpLn, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}
	log.Info("http_listen_start", slog.String("addr", httpAddr))

	grpcAddr := cfg.GRPC.Addr()
	grpcLn, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		log.Error("grpc_listen_failed", slog.String("addr", grpcAddr), slog.String("err", err.Error()))
		_ = httpLn.Close()
		os.Exit(1)
	}
	log.Info("grpc_listen_start", slog.String("addr", grpcAddr))

	serveErrCh := make(chan error, 2)
	go func() {
		if err := httpSrv.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- fmt.Errorf("http: %w", err)
		}
	}()
	go func() {
		if err := grpcSrv.Serve(grpcLn); err != nil {
			serveErrCh <- fmt.Errorf("grpc: %w", err)
		}
	}()

	go svc.StartWarmup(rootCtx)

	grpcSrv.SetServing(true)
	atomic.StoreInt32(&ready, 1)
	log.Info("service_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		log.Error("serve_failed", slog.String("err", err.Error()))
	}

	atomic.StoreInt32(&ready, 0)
	grpcSrv.SetServing(false)
	rootCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	grpcSrv.Shutdown(shutdownCtx)

	log.Info("service_stopped")
}

// openStorage открывает локальное хранилище по storage.driver.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.Storage.PostgresURL)
	case config.DriverRedis:
		return redis.New(ctx, cfg.Storage.RedisURL, cfg.Storage.RedisPrefix, cfg.Storage.RedisTTL)
	case config.DriverMemory:
		return memory.New(cfg.Storage.MemorySize)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// buildSources создаёт источники из конфига; каждый обёрнут метриками.
func buildSources(cfg *config.Config, m *metrics.Metrics) map[string]feed.Source {
	client := &http.Client{Timeout: cfg.Timeouts.Upstream}
	sources := make(map[string]feed.Source, len(cfg.Sources.RSS)+1)

	if cfg.Sources.HackerNews.Enabled {
		sources[hackernews.ServiceType] = m.InstrumentSource(hackernews.New(client, hackernews.Options{
			BaseURL:       cfg.Sources.HackerNews.BaseURL,
			PageSize:      cfg.Sources.PageSize,
			MaxConcurrent: cfg.Sources.MaxConcurrent,
			RatePerSecond: cfg.Sources.RatePerSecond,
		}))
	}

	for _, f := range cfg.Sources.RSS {
		sources[f.Type] = m.InstrumentSource(rss.New(client, f.URL, cfg.Sources.PageSize))
	}

	return sources
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
