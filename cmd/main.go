package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"registry-report/internal/clients"
	"registry-report/internal/config"
	"registry-report/internal/metrics"
	"registry-report/internal/repository"
	"registry-report/internal/service"
	"registry-report/internal/transport/auth"
	"registry-report/internal/transport/rest"
	"registry-report/internal/transport/websocket"
	"registry-report/pkg/cache/redis"
	"registry-report/pkg/database/postgres"
	"registry-report/pkg/database/sqlite"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const (
	archiveMaxAge   = 30 * time.Minute
	cleanupInterval = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Info("no .env file found, using system env or defaults")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, dialect := mustInitDatabase(ctx, logger, cfg.Database)
	defer func() { _ = db.Close() }()

	var history service.HistoryStore
	if redisClient := initRedis(ctx, logger, cfg.Redis); redisClient != nil {
		defer redisClient.Close()
		history = redisClient
	}

	var (
		archiver service.Archiver
		local    *clients.LocalArchive
	)
	switch cfg.Archive.Backend {
	case "":
	case "local":
		a, err := clients.NewLocalArchive(cfg.Archive.ExportDir, cfg.Archive.FilesPublicPrefix, cfg.Archive.ExternalURL)
		if err != nil {
			fatal(logger, "archive init error", err)
		}
		local, archiver = a, a
	case "s3":
		s3, err := clients.NewS3Archive(clients.S3Config{
			Endpoint:        cfg.Archive.S3.Endpoint,
			AccessKeyID:     cfg.Archive.S3.AccessKeyID,
			SecretAccessKey: cfg.Archive.S3.SecretAccessKey,
			Bucket:          cfg.Archive.S3.Bucket,
			UseSSL:          cfg.Archive.S3.UseSSL,
			Region:          cfg.Archive.S3.Region,
			Prefix:          cfg.Archive.S3.Prefix,
			URLTTL:          time.Duration(cfg.Archive.S3.URLTTLMinutes) * time.Minute,
		})
		if err != nil {
			fatal(logger, "s3 init error", err)
		}
		if err := s3.EnsureBucket(ctx, cfg.Archive.S3.Region); err != nil {
			fatal(logger, "s3 bucket error", err)
		}
		archiver = s3
	default:
		fatal(logger, "unknown archive backend", errors.New(cfg.Archive.Backend))
	}

	wsHub := websocket.NewHub(logger)
	wsClient := clients.NewWebSocketClient(wsHub)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reportMetrics := metrics.New(registry)

	entryRepo := repository.NewEntryRepository(db, dialect)
	tokenRepo := repository.NewPersonalAccessTokenRepository(db, dialect)

	reportSvc := service.NewReportService(entryRepo, service.ReportConfig{
		AppName:        cfg.AppName,
		CurrencySymbol: cfg.Report.CurrencySymbol,
		Location:       cfg.Report.Location,
	}, reportMetrics, logger)
	historySvc := service.NewHistoryService(history, archiver, wsClient,
		time.Duration(cfg.Report.HistoryTTLMinutes)*time.Minute, logger)

	authenticator := auth.NewAuthenticator(tokenRepo, cfg.JWTSecret, logger)

	handler := rest.NewHandler(reportSvc, historySvc, logger).WithWebSocket(wsHub)
	if local != nil {
		handler.WithFiles(local)
	}
	router := handler.InitRouterWithAuth(authenticator.Middleware)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      withCORS(router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		wsHub.Run(gctx)
		return nil
	})

	if local != nil {
		g.Go(func() error {
			ticker := time.NewTicker(cleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case now := <-ticker.C:
					removed, err := local.Prune(now, archiveMaxAge)
					if err != nil {
						logger.Warn("archive prune failed", "error", err)
					} else if removed > 0 {
						logger.Info("archive pruned", "removed", removed)
					}
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
		return
	}
	logger.Info("shutdown complete")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

func mustInitDatabase(ctx context.Context, logger *slog.Logger, cfg config.DatabaseConfig) (*sql.DB, repository.Dialect) {
	switch repository.Dialect(cfg.Driver) {
	case repository.DialectSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			fatal(logger, "sqlite init error", err)
		}
		return db, repository.DialectSQLite
	case repository.DialectPostgres:
		db, err := postgres.NewPostgresConnection(ctx, postgres.ConnectionInfo{
			Host:         cfg.Postgres.Host,
			Port:         cfg.Postgres.Port,
			Username:     cfg.Postgres.User,
			DBName:       cfg.Postgres.DBName,
			SSLMode:      cfg.Postgres.SSLMode,
			Password:     cfg.Postgres.Password,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
		})
		if err != nil {
			fatal(logger, "postgres init error", err)
		}
		return db, repository.DialectPostgres
	default:
		fatal(logger, "unknown database driver", errors.New(cfg.Driver))
		return nil, ""
	}
}

// initRedis returns nil when redis is disabled or unreachable; report
// history is optional.
func initRedis(ctx context.Context, logger *slog.Logger, cfg config.RedisConfig) *clients.RedisClient {
	if !cfg.Enabled {
		return nil
	}
	client, err := clients.NewRedisClient(ctx, clients.RedisConfig{
		Config: redis.Config{
			URL:         cfg.URL,
			Addr:        cfg.Addr,
			Password:    cfg.Password,
			DB:          cfg.DB,
			MaxRetries:  cfg.MaxRetries,
			PoolSize:    cfg.PoolSize,
			DialTimeout: time.Duration(cfg.DialTimeout) * time.Second,
			Timeout:     time.Duration(cfg.Timeout) * time.Second,
		},
		Prefix: cfg.Prefix,
	})
	if err != nil {
		logger.Warn("redis unavailable, report history disabled", "error", err)
		return nil
	}
	return client
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")

			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Report-Id")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
