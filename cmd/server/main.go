package main

import (
	"context"
	"errors"
	_ "expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nulzo/prism-local/cmd"
	"github.com/nulzo/prism-local/internal/analytics"
	"github.com/nulzo/prism-local/internal/cli"
	"github.com/nulzo/prism-local/internal/config"
	"github.com/nulzo/prism-local/internal/gateway"
	"github.com/nulzo/prism-local/internal/inference"
	"github.com/nulzo/prism-local/internal/platform/logger"
	"github.com/nulzo/prism-local/internal/platform/otel"
	"github.com/nulzo/prism-local/internal/registry"
	"github.com/nulzo/prism-local/internal/server"
	"github.com/nulzo/prism-local/internal/store"
	"github.com/nulzo/prism-local/internal/store/cache"
	"github.com/nulzo/prism-local/internal/store/sqlite"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	configFile := pflag.StringP("config", "c", "", "path to config file")
	config.RegisterFlags(pflag.CommandLine)
	showVersion := pflag.BoolP("version", "v", false, "print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println(cmd.AppVersion)
		return
	}

	cfg, err := config.LoadConfig(*configFile, pflag.CommandLine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Initialize(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		EnableColor: cli.Enabled(),
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
	})
	defer logger.Sync()
	log := logger.Get()

	if cfg.Log.Format != "json" {
		fmt.Println(cli.Banner("prism local") + " " + cli.Style(cmd.AppVersion, cli.DimCode))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.UpdateCheck.Enabled {
		go checkForUpdates(ctx, cfg.UpdateCheck.Repo, log)
	}

	if cfg.Tracing.Enabled {
		shutdown, err := otel.InitTracer(ctx, cfg.Tracing.ServiceName, cmd.AppVersion, log, os.Stdout)
		if err != nil {
			log.Fatal("failed to init tracing", zap.Error(err))
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(flushCtx)
		}()
	}

	// request history, optional
	var repo store.Repository
	ingestor := analytics.NewNopIngestor()
	if cfg.Database.Enabled {
		if err := os.MkdirAll(cfg.Data.Root, 0o755); err != nil {
			log.Fatal("failed to create data root", zap.String("path", cfg.Data.Root), zap.Error(err))
		}
		repo, err = sqlite.NewSQLiteStorage(cfg.Database.Path, log)
		if err != nil {
			log.Fatal("failed to open database", zap.String("path", cfg.Database.Path), zap.Error(err))
		}
		defer func() {
			_ = repo.Close()
		}()
		ingestor = analytics.NewIngestor(log, repo)
		// stopped explicitly below, not by the signal context
		ingestor.Start(context.Background())
	}

	usageCache := newCache(ctx, cfg.Redis, log)

	loader := registry.NewLoader(afero.NewOsFs(), cfg.Data.Root, log)
	runtime := inference.NewClient(inference.Config{
		BaseURL:               cfg.Runtime.BaseURL,
		ChatPath:              cfg.Runtime.ChatPath,
		HealthPath:            cfg.Runtime.HealthPath,
		DialTimeout:           cfg.Runtime.DialTimeout,
		ResponseHeaderTimeout: cfg.Runtime.ResponseHeaderTimeout,
	}, nil)

	svc := gateway.NewService(log, loader, runtime, cfg.Data.Models(), gateway.EngineConfig{
		LocalEngine: cfg.Runtime.LocalEngine,
		BackendTag:  cfg.Runtime.BackendTag,
	})

	log.Info("scanning models", zap.String("dir", loader.Dir(cfg.Data.Models())))
	gateway.Bootstrap(ctx, svc, runtime.ChatURL(), log)

	srv := server.New(cfg, log, server.Dependencies{
		Gateway:   svc,
		Analytics: analytics.NewService(log, repo, usageCache),
		Ingestor:  ingestor,
		Auditor:   analytics.NewAuditor(log, repo),
	})
	srv.Run(ctx)

	if cfg.Server.DebugAddr != "" {
		go func() {
			log.Info("debug server listening", zap.String("addr", cfg.Server.DebugAddr))
			if err := http.ListenAndServe(cfg.Server.DebugAddr, http.DefaultServeMux); err != nil {
				log.Warn("debug server stopped", zap.Error(err))
			}
		}()
	}

	httpServer := srv.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		log.Info(fmt.Sprintf("%s listening on http://%s", cli.Arrow(), httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Error("server failed", zap.Error(err))
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown timed out", zap.Error(err))
	}

	ingestor.Stop()
}

func newCache(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) cache.CacheService {
	if !cfg.Enabled {
		return cache.NewMemoryCache()
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	client, err := cache.Connect(pingCtx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		log.Warn("redis unavailable, using in-memory cache", zap.Error(err))
		return cache.NewMemoryCache()
	}

	log.Info("redis cache connected", zap.String("addr", cfg.Addr))
	return cache.NewRedisCache(client, cfg.Prefix)
}

func checkForUpdates(ctx context.Context, repo string, log *zap.Logger) {
	info, err := cmd.CheckForUpdates(ctx, repo)
	if err != nil {
		log.Debug("update check failed", zap.Error(err))
		return
	}
	if info.Outdated {
		log.Warn(fmt.Sprintf("%s a newer version is available", cli.WarningSign()),
			zap.String("current", info.Current),
			zap.String("latest", info.Latest),
		)
	}
}
