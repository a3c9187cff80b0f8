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

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"consentadmin/internal/audit"
	"consentadmin/internal/consent"
	"consentadmin/internal/fingerprint"
	"consentadmin/internal/identity"
	"consentadmin/internal/metadata"
	"consentadmin/internal/platform/config"
	"consentadmin/internal/platform/httpserver"
	"consentadmin/internal/platform/logger"
	"consentadmin/internal/platform/metrics"
	platformredis "consentadmin/internal/platform/redis"
	"consentadmin/internal/reconcile"
	"consentadmin/internal/release"
	"consentadmin/internal/session"
	httptransport "consentadmin/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	store, cleanup, err := newConsentStore(cfg)
	if err != nil {
		log.Error("consent store init failed", "backend", cfg.StoreBackend, "error", err.Error())
		os.Exit(1)
	}
	defer cleanup()

	provider, err := metadata.NewFileProvider(cfg.MetadataPath)
	if err != nil {
		log.Error("metadata load failed", "path", cfg.MetadataPath, "error", err.Error())
		os.Exit(1)
	}

	publisher := newAuditPipeline(cfg, log)
	defer publisher.Close()

	m := metrics.New()
	calc := fingerprint.NewCalculator(cfg.SecretSalt)
	simulator := release.NewSimulator(release.NewChain(
		release.AttributeLimit{},
		release.ConsentPrompt{},
	))
	engineCfg := reconcile.EngineConfig{
		HashAttributes:    cfg.HashAttributes,
		ExcludeAttributes: cfg.ExcludeAttributes,
	}
	engine := reconcile.NewEngine(calc, simulator, engineCfg, log, m)
	actions := reconcile.NewActions(store, publisher, log, m)
	resolver := identity.NewResolver(provider)
	service := reconcile.NewService(resolver, provider, calc, simulator, engine, actions, store, engineCfg, m)

	sessions := session.NewJWTProvider(cfg.JWTSigningKey, cfg.Authority)
	handler := httptransport.New(service, sessions, log, cfg.ShowDescription, cfg.ReturnURL)
	router := httptransport.NewRouter(handler, log)

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting consentadmin", "addr", cfg.Addr, "store", cfg.StoreBackend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err.Error())
		os.Exit(1)
	}
}

// newConsentStore selects the storage backend. The returned cleanup closes
// whatever connection the backend holds.
func newConsentStore(cfg config.Server) (consent.Store, func(), error) {
	switch cfg.StoreBackend {
	case "postgres":
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, err
		}
		return consent.NewPostgres(db), func() { db.Close() }, nil

	case "redis":
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, errors.New("redis store selected but no redis URL configured")
		}
		return consent.NewRedis(client), func() { client.Close() }, nil

	default:
		return consent.NewMemoryStore(), func() {}, nil
	}
}

// newAuditPipeline emits compliance events to Kafka when brokers are
// configured, or keeps them in memory otherwise. The publisher owns the
// sink's lifecycle; closing it flushes the buffer and then closes the sink.
func newAuditPipeline(cfg config.Server, log *slog.Logger) *audit.Publisher {
	var sink audit.Sink = audit.NewMemoryStore()
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaAuditTopic)
		if err != nil {
			log.Warn("kafka audit sink unavailable, falling back to memory", "error", err.Error())
		} else {
			sink = kafkaSink
		}
	}
	return audit.NewPublisher(sink, audit.WithAsyncBuffer(256))
}
