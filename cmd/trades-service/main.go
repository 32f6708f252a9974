package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/Checker-Finance/trades-service/internal/api"
	"github.com/Checker-Finance/trades-service/internal/publisher"
	"github.com/Checker-Finance/trades-service/internal/repository"
	internalsecrets "github.com/Checker-Finance/trades-service/internal/secrets"
	"github.com/Checker-Finance/trades-service/internal/store"
	"github.com/Checker-Finance/trades-service/pkg/config"
	"github.com/Checker-Finance/trades-service/pkg/logger"
	"github.com/Checker-Finance/trades-service/pkg/secrets"
	"github.com/Checker-Finance/trades-service/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [trades-service]...")

	if cfg.DBWalletDir != "" {
		logg.Infow("database wallet directory configured", "dir", cfg.DBWalletDir)
	}

	// --- Database DSN, optionally resolved from AWS Secrets Manager ---
	dsn := cfg.DatabaseURL
	stopCleaner := make(chan struct{})
	if cfg.DBSecretName != "" {
		awsProvider, err := secrets.NewAWSProvider(cfg.AWSRegion)
		if err != nil {
			logg.Fatalw("failed to create AWS Secrets Manager provider", "error", err)
		}

		dsnCache := secrets.NewCache[string](cfg.CacheTTL)
		go dsnCache.StartCleaner(cfg.CleanupFreq, stopCleaner)

		resolver := internalsecrets.NewResolver(logg.Desugar(), awsProvider, dsnCache, cfg.DBSecretName)
		dsn, err = resolver.DatabaseDSN(ctx)
		if err != nil {
			logg.Fatalw("failed to resolve database DSN", "error", err, "secret", cfg.DBSecretName)
		}
	}
	logg.Info("connection to DSN: ", utils.MaskDSN(dsn))

	// --- Store (Redis cache + Postgres pool) ---
	st, err := store.NewHybrid(cfg.RedisAddr, cfg.RedisDB, dsn, store.PGPoolConfig{
		MaxConns:          int32(cfg.PGMaxConns),
		MinConns:          int32(cfg.PGMinConns),
		MaxConnLifetime:   cfg.PGMaxConnLifetime,
		MaxConnIdleTime:   cfg.PGMaxConnIdleTime,
		HealthCheckPeriod: cfg.PGHealthCheckPeriod,
	}, cfg.TradeCacheTTL, logger.L())
	if err != nil {
		logg.Fatalw("failed to init store", "error", err)
	}

	// --- Trade repository ---
	repo := repository.NewTradeRepository(st.PG, logger.L(), cfg.TradeTable)

	// --- Connect to NATS ---
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		logg.Fatalw("failed to connect to NATS", "error", err)
	}

	// --- Publisher ---
	pub, err := publisher.New(nc, cfg.OutboundSubject, cfg.ServiceName)
	if err != nil {
		logg.Fatalw("failed to init publisher", "error", err)
	}

	// --- Fiber HTTP Server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,
	})

	tradeHandler := api.NewTradeHandler(logg.Desugar(), repo, pub, st)
	api.RegisterRoutes(app, nc, st, tradeHandler)

	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow("[trades-service] running",
		"nats", cfg.NATSURL,
		"env", cfg.Env,
		"subject", cfg.OutboundSubject,
		"table", cfg.TradeTable)

	<-ctx.Done()
	logg.Info("shutting down [trades-service]...")

	close(stopCleaner)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}
	if err := nc.Drain(); err != nil {
		logg.Warnw("nats.drain_failed", "error", err)
	}
	if err := st.Close(); err != nil {
		logg.Warnw("store.close_failed", "error", err)
	}
}
