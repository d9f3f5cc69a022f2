// Package main is the entry point for the physio API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"physio/internal/config"
	"physio/internal/core/security"
	"physio/internal/domain/auth"
	"physio/internal/domain/catalogs/history"
	"physio/internal/domain/catalogs/partner"
	"physio/internal/domain/catalogs/sport"
	"physio/internal/domain/physio"
	"physio/internal/domain/physio/treatment"
	"physio/internal/domain/physio/treatment_history"
	"physio/internal/infrastructure/cache"
	v1 "physio/internal/infrastructure/http/v1"
	"physio/internal/infrastructure/http/v1/middleware"
	"physio/internal/infrastructure/metrics"
	"physio/internal/infrastructure/numerator"
	"physio/internal/infrastructure/storage/postgres"
	"physio/internal/infrastructure/storage/postgres/auth_repo"
	"physio/internal/infrastructure/storage/postgres/catalog_repo"
	"physio/pkg/logger"
)

const version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.IsDevelopment(),
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	ctx, stop := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer stop()
	log.Infow("starting physio server", "version", version, "env", cfg.App.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}
	if cfg.Database.MinConns > 0 {
		poolCfg.MinConns = cfg.Database.MinConns
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)
	if err := postgres.Migrate(ctx, txm); err != nil {
		log.Fatalw("failed to migrate schema", "error", err)
	}

	// --- Access rules ---
	access, err := security.LoadFile(cfg.Security.AccessCSV)
	if err != nil {
		log.Fatalw("failed to load access rules", "path", cfg.Security.AccessCSV, "error", err)
	}
	log.Infow("access rules loaded", "rules", len(access.Rules()))

	// --- Metrics ---
	registry := prometheus.DefaultRegisterer
	m := metrics.New(registry)
	metrics.RegisterPool(registry, func() (int32, int32, int32) {
		s := pool.Stats()
		return s.TotalConns, s.AcquiredConns, s.IdleConns
	})

	// --- Templates ---
	templates := physio.NewTemplateRegistry()
	watcher := cache.NewTemplateWatcher(pool.Pool, postgres.TemplateRefsChannel, templates, postgres.NewTemplateRefStore(txm))
	if err := watcher.Start(ctx); err != nil {
		log.Fatalw("failed to load template records", "error", err)
	}
	defer watcher.Stop()
	if len(templates.Keys()) == 0 {
		log.Warn("no template records registered; run the seed command")
	}

	// --- Audit ---
	auditStore, err := postgres.NewAuditStore(txm, cfg.Audit.CompressThreshold)
	if err != nil {
		log.Fatalw("failed to create audit store", "error", err)
	}

	services := buildServices(txm, numerator.New(pool), templates, auditStore, cfg.Audit.Enabled, m)

	// --- Auth ---
	jwtConfig := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
	if cfg.Auth.Issuer != "" {
		jwtConfig.Issuer = cfg.Auth.Issuer
	}
	if cfg.Auth.AccessTokenTTL > 0 {
		jwtConfig.AccessTokenTTL = cfg.Auth.AccessTokenTTL
	}
	jwtService := auth.NewJWTService(jwtConfig)
	authService := auth.NewService(auth_repo.NewUserRepo(txm), jwtService)

	// --- Idempotency ---
	var idempotency middleware.IdempotencyStore
	if cfg.App.IdempotencyTTL > 0 {
		store := postgres.NewIdempotencyStore(txm, cfg.App.IdempotencyTTL)
		idempotency = store
		go cleanupIdempotency(ctx, store, time.Hour)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:           log,
		DB:               pool,
		Version:          version,
		Templates:        templates.Keys,
		JWTValidator:     jwtService,
		AuthService:      authService,
		Access:           access,
		Idempotency:      idempotency,
		Metrics:          m,
		MetadataRegistry: setupMetadataRegistry(physio.Schema()),
		Services:         services,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	pool.LogStats(ctx)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// cleanupIdempotency drops expired replay records every interval until ctx ends.
func cleanupIdempotency(ctx context.Context, store *postgres.IdempotencyStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.CleanupExpired(ctx)
			if err != nil {
				logger.Warn(ctx, "idempotency cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug(ctx, "idempotency keys expired", "count", n)
			}
		}
	}
}

// buildServices wires repositories into the domain services. Partners read
// their treatments through the repositories so the services stay acyclic.
func buildServices(
	txm *postgres.TxManager,
	num *numerator.Service,
	templates *physio.TemplateRegistry,
	auditStore *postgres.AuditStore,
	auditEnabled bool,
	m *metrics.Metrics,
) v1.Services {
	partnerRepo := catalog_repo.NewPartnerRepo(txm)
	treatmentRepo := catalog_repo.NewTreatmentRepo(txm)
	historyRepo := catalog_repo.NewTreatmentHistoryRepo(txm)

	partnerCfg := partner.ServiceConfig{
		Repo:            partnerRepo,
		TxManager:       txm,
		Numerator:       num,
		Classifier:      physio.NewClassifier(physio.Schema()),
		Treatments:      treatmentRepo,
		Histories:       historyRepo,
		TreatmentAction: treatment.WindowAction(),
		Observer:        m,
	}
	if auditEnabled {
		partnerCfg.Audit = auditStore
	}
	partners := partner.NewService(partnerCfg)

	treatments := treatment.NewService(treatment.ServiceConfig{
		Repo:      treatmentRepo,
		TxManager: txm,
		Numerator: num,
		Partners:  partners,
		Templates: templates,
		Rejects:   m,
	})

	return v1.Services{
		Partners: partners,
		Sports:   sport.NewService(catalog_repo.NewSportRepo(txm), txm, num),
		Histories: map[history.Kind]*history.Service{
			history.Personal: history.NewService(history.Personal, catalog_repo.NewHistoryRepo(txm, history.Personal), txm, num),
			history.Familiar: history.NewService(history.Familiar, catalog_repo.NewHistoryRepo(txm, history.Familiar), txm, num),
		},
		Treatments: treatments,
		TreatmentHistories: treatment_history.NewService(treatment_history.ServiceConfig{
			Repo:       historyRepo,
			TxManager:  txm,
			Numerator:  num,
			Partners:   partners,
			Treatments: treatments,
			Templates:  templates,
			Rejects:    m,
		}),
		AuditReader: auditStore,
	}
}
