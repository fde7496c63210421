// Package main is the entrypoint for the Local Library catalog API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/locallibrary/catalog/internal/activity"
	"github.com/locallibrary/catalog/internal/auth"
	"github.com/locallibrary/catalog/internal/cache"
	"github.com/locallibrary/catalog/internal/config"
	"github.com/locallibrary/catalog/internal/handler"
	"github.com/locallibrary/catalog/internal/metrics"
	"github.com/locallibrary/catalog/internal/middleware"
	"github.com/locallibrary/catalog/internal/renewal"
	"github.com/locallibrary/catalog/internal/repository"
	"github.com/locallibrary/catalog/internal/server"
	"github.com/locallibrary/catalog/internal/service"
)

const (
	retentionInterval = time.Hour
	janitorInterval   = time.Minute
	limiterIdleTTL    = 10 * time.Minute
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid library timezone", "error", err)
		os.Exit(1)
	}

	// Database
	if cfg.RunMigrations {
		if err := repository.Migrate(ctx, cfg.DatabaseURL); err != nil {
			logger.Error("failed to apply migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL, cache.Options{
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	recorder := metrics.NewPrometheus()

	// Activity stream
	events := repository.NewCatalogEventRepository(repo)
	publisher := activity.NewPublisher(cacheClient.Client(), logger, recorder)
	activitySvc := service.NewActivityService(events, cfg.ActivityRetention, logger)

	// Services
	fx := service.Effects{
		Cache:   cacheClient,
		Events:  publisher,
		Metrics: recorder,
		Logger:  logger,
	}
	clock := renewal.NewClock(loc, time.Now)
	catalogSvc := service.NewCatalogService(repo, cacheClient, cacheClient, recorder, logger,
		cfg.SummaryGenreKeyword, cfg.SummaryTitleKeyword)
	authorSvc := service.NewAuthorService(repo, fx, cfg.AuthorPageSize)
	bookSvc := service.NewBookService(repo, fx, cfg.BookPageSize)
	taxonomySvc := service.NewTaxonomyService(repo, fx)
	loanSvc := service.NewLoanService(repo, clock, publisher, recorder, cfg.LoanPageSize)

	keyEnv := auth.EnvTest
	if cfg.IsProduction() {
		keyEnv = auth.EnvLive
	}

	handlers := server.Handlers{
		Root:     handler.New(),
		Health:   handler.NewHealthHandler(repo, cacheClient, logger),
		Catalog:  handler.NewCatalogHandler(catalogSvc, logger),
		Authors:  handler.NewAuthorHandler(authorSvc, logger),
		Books:    handler.NewBookHandler(bookSvc, loanSvc, logger),
		Taxonomy: handler.NewTaxonomyHandler(taxonomySvc, logger),
		Loans:    handler.NewLoanHandler(loanSvc, logger),
		Activity: handler.NewActivityHandler(activitySvc, logger),
		APIKeys:  handler.NewAPIKeyHandler(logger, repo, keyEnv),
		Metrics:  recorder.Handler(),
	}

	fallback := cache.NewLocalLimiter(limiterIdleTTL)
	fallback.StartJanitor(ctx, janitorInterval)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	r := server.NewRouter(handlers, server.RouterConfig{
		Logger: logger,
		Auth: middleware.AuthConfig{
			Logger: logger,
			Keys:   repo,
			Cache:  cacheClient,
		},
		RateLimit: middleware.RateLimitConfig{
			Logger:        logger,
			Limiter:       cacheClient,
			Fallback:      fallback,
			APIEnabled:    cfg.RateLimitAPIEnabled,
			PublicEnabled: cfg.RateLimitPublicEnabled,
			PublicRPS:     cfg.RateLimitPublicRPS,
			PublicBurst:   cfg.RateLimitPublicBurst,
		},
		CORS:          corsCfg,
		IsDevelopment: cfg.IsDevelopment(),
		MaxBodyBytes:  cfg.MaxRequestBodySize,
		SecureCookies: !cfg.IsDevelopment(),
	})

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Background components stop after the HTTP server, worker last.
	if cfg.ActivityWorkerEnabled {
		worker := activity.NewWorker(cacheClient.Client(), events, logger, activity.NewConsumerID(), recorder)
		go func() {
			if err := worker.Run(ctx); err != nil {
				logger.Error("activity worker stopped", "error", err)
			}
		}()
		srv.OnShutdown("activity-worker", worker.Shutdown)
	}

	retentionCtx, stopRetention := context.WithCancel(ctx)
	go activitySvc.RunRetention(retentionCtx, retentionInterval)
	srv.OnShutdown("activity-retention", func(context.Context) error {
		stopRetention()
		return nil
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"library_timezone", loc.String(),
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "catalog")
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

// redactURL drops the password from a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

// sanitizeError replaces every secret in err's message with its redacted form.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
