package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/novaflow/console/pkg/api"
	"github.com/novaflow/console/pkg/audit"
	"github.com/novaflow/console/pkg/auth"
	"github.com/novaflow/console/pkg/config"
	"github.com/novaflow/console/pkg/domains"
	"github.com/novaflow/console/pkg/observability"
	"github.com/novaflow/console/pkg/rbac"
	"github.com/novaflow/console/pkg/resources"
	"github.com/novaflow/console/pkg/session"
	"github.com/novaflow/console/pkg/upstream"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional, env vars override)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.LogLevel(), os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Config hot reload for the reloadable subset
	if *configPath != "" {
		watcher, err := config.NewWatcher(*configPath, func(reloaded *config.Config) {
			logger.WithField("log_level", reloaded.Observability.LogLevel).Info("configuration reloaded")
		})
		if err != nil {
			log.Fatalf("Failed to watch config file: %v", err)
		}
		if err := watcher.Start(ctx); err != nil {
			log.Fatalf("Failed to start config watcher: %v", err)
		}
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	if otelProviders != nil {
		defer otelProviders.Shutdown(context.Background())
		logrus.WithField("endpoint", cfg.Observability.OTelEndpoint).Info("Tracing enabled")
	}

	// Session store: Redis when configured, in-memory with a cron sweeper
	// otherwise.
	var (
		store       session.Store
		redisClient *redis.Client
	)
	if cfg.Session.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Session.RedisURL)
		if err != nil {
			log.Fatalf("Invalid Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		store = session.NewRedisStore(redisClient)
		logrus.Info("Session store: redis")
	} else {
		memStore := session.NewMemoryStore()
		sweeper := session.NewSweeper(memStore, cfg.Session.SweepInterval, logger)
		if err := sweeper.Start(); err != nil {
			log.Fatalf("Failed to start session sweeper: %v", err)
		}
		defer sweeper.Stop()
		store = memStore
		logrus.Warn("Session store: in-memory (sessions are lost on restart)")
	}

	// Audit trail: Postgres when configured
	var (
		db          *sql.DB
		recorder    audit.Recorder = audit.NopRecorder{}
		auditSearch *audit.Store
	)
	if cfg.Audit.PostgresURL != "" {
		db, err = sql.Open("postgres", cfg.Audit.PostgresURL)
		if err != nil {
			log.Fatalf("Failed to open audit database: %v", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("Failed to ping audit database: %v", err)
		}
		auditStore := audit.NewStore(db, logger)
		if err := auditStore.Migrate(ctx); err != nil {
			log.Fatalf("Failed to migrate audit schema: %v", err)
		}
		recorder = auditStore
		auditSearch = auditStore
		logrus.Info("Audit trail: postgres")
	} else {
		logrus.Warn("Audit trail disabled (no Postgres URL configured)")
	}

	// Google sign-in: optional in dev mode, required otherwise (enforced by
	// config validation).
	var google *auth.GoogleProvider
	if cfg.Google.ClientID != "" {
		google, err = auth.NewGoogleProvider(ctx, auth.GoogleConfig{
			IssuerURL:    cfg.Google.IssuerURL,
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
			Scopes:       cfg.Google.Scopes,
		})
		if err != nil {
			log.Fatalf("Failed to initialize Google sign-in: %v", err)
		}
	} else {
		logrus.Warn("Google sign-in disabled, demo login only")
	}

	base, err := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, metrics)
	if err != nil {
		log.Fatalf("Failed to create upstream client: %v", err)
	}
	clients := upstream.NewClients(base)

	minter, err := session.NewMinter(cfg.Session.SigningSecret, cfg.Session.TTL)
	if err != nil {
		log.Fatalf("Failed to create session minter: %v", err)
	}
	cookies := session.NewCookieWriter(cfg.Session.CookieName, cfg.Session.CookieSecure)
	platform := auth.NewPlatformClient(base)
	gateway := auth.NewGateway(google, platform, minter, store, cookies, logger, cfg.DevMode)

	checker, err := rbac.NewChecker(0, metrics)
	if err != nil {
		log.Fatalf("Failed to create permission checker: %v", err)
	}

	server := api.NewServer(api.Deps{
		Config:         cfg,
		Logger:         logger,
		Metrics:        metrics,
		PromRegistry:   registry,
		Gateway:        gateway,
		Cookies:        cookies,
		Domains:        domains.NewService(store, domains.NewBus(), logger, metrics),
		Checker:        checker,
		Resources:      resources.NewRegistry(clients, logger, recorder),
		Audit:          recorder,
		AuditSearch:    auditSearch,
		Health:         observability.NewHealthChecker(db, redisClient),
		TracingEnabled: otelProviders != nil,
	})

	logrus.WithFields(logrus.Fields{
		"port":     cfg.Server.Port,
		"dev_mode": cfg.DevMode,
	}).Info("Starting NovaFlow console")

	if err := server.Run(ctx); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
	logrus.Info("Shutdown complete")
}
