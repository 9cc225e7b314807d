package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hasanfarsi/dukkan-backend/internal/audit"
	"github.com/hasanfarsi/dukkan-backend/internal/cashshift"
	"github.com/hasanfarsi/dukkan-backend/internal/coupons"
	"github.com/hasanfarsi/dukkan-backend/internal/cron"
	"github.com/hasanfarsi/dukkan-backend/internal/gateway"
	"github.com/hasanfarsi/dukkan-backend/internal/inventory"
	"github.com/hasanfarsi/dukkan-backend/internal/invoices"
	"github.com/hasanfarsi/dukkan-backend/internal/orders"
	"github.com/hasanfarsi/dukkan-backend/internal/pricing"
	"github.com/hasanfarsi/dukkan-backend/internal/products"
	"github.com/hasanfarsi/dukkan-backend/internal/settlement"
	"github.com/hasanfarsi/dukkan-backend/internal/users"
	"github.com/hasanfarsi/dukkan-backend/internal/wallet"
	"github.com/hasanfarsi/dukkan-backend/pkg/config"
	"github.com/hasanfarsi/dukkan-backend/pkg/db"
	"github.com/hasanfarsi/dukkan-backend/pkg/logger"
	"github.com/hasanfarsi/dukkan-backend/pkg/metrics"
	"github.com/hasanfarsi/dukkan-backend/pkg/migrate"
	"github.com/hasanfarsi/dukkan-backend/pkg/outbox"
	"github.com/hasanfarsi/dukkan-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessions, registry, settlementSvc, err := buildSettlement(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire settlement", err)
		os.Exit(1)
	}

	reconcileJob, err := cron.NewPaymentReconcileJob(cron.PaymentReconcileJobParams{
		Logger:     logg,
		Sessions:   sessions,
		Gateways:   registry,
		Settlement: settlementSvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment reconcile job", err)
		os.Exit(1)
	}
	sweepJob, err := cron.NewSessionSweepJob(cron.SessionSweepJobParams{
		Logger:   logg,
		Sessions: sessions,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create session sweep job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.CronLockKey(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	jobs := cron.NewRegistry(reconcileJob, sweepJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"jobs": jobs.Names(),
	})

	metricsServer := &http.Server{
		Addr:    ":" + cfg.Cron.MetricsPort,
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "metrics listener stopped unexpectedly", err)
		}
	}()
	defer func() { _ = metricsServer.Close() }()

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildSettlement(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*gateway.SessionStore, *gateway.Registry, settlement.Service, error) {
	gdb := dbClient.DB()
	publisher := outbox.NewService(outbox.NewRepository(gdb), logg)

	walletSvc, err := wallet.NewService(wallet.NewRepository(gdb))
	if err != nil {
		return nil, nil, nil, err
	}
	couponSvc, err := coupons.NewService(coupons.NewRepository(gdb))
	if err != nil {
		return nil, nil, nil, err
	}
	inventorySvc, err := inventory.NewService(dbClient, inventory.NewRepository(gdb), publisher, cfg.Checkout.MinStockDefault)
	if err != nil {
		return nil, nil, nil, err
	}
	invoiceSvc, err := invoices.NewService(invoices.NewRepository(gdb), cfg.Checkout)
	if err != nil {
		return nil, nil, nil, err
	}
	shiftSvc, err := cashshift.NewService(dbClient, cashshift.NewRepository(gdb), redisClient, publisher)
	if err != nil {
		return nil, nil, nil, err
	}
	auditSvc, err := audit.NewService(audit.NewRepository(gdb))
	if err != nil {
		return nil, nil, nil, err
	}
	pricer, err := pricing.NewCalculator(cfg.Checkout)
	if err != nil {
		return nil, nil, nil, err
	}
	sessions, err := gateway.NewSessionStore(gateway.NewSessionRepository(gdb), redisClient, cfg.Sessions.PaymentTTL)
	if err != nil {
		return nil, nil, nil, err
	}

	moyasar, err := gateway.NewMoyasarAdapter(cfg.Moyasar)
	if err != nil {
		return nil, nil, nil, err
	}
	tamara, err := gateway.NewTamaraAdapter(cfg.Tamara)
	if err != nil {
		return nil, nil, nil, err
	}
	tabby, err := gateway.NewTabbyAdapter(cfg.Tabby)
	if err != nil {
		return nil, nil, nil, err
	}
	registry, err := gateway.NewRegistry(moyasar, tamara, tabby)
	if err != nil {
		return nil, nil, nil, err
	}

	settlementSvc, err := settlement.NewService(settlement.Deps{
		Tx:        dbClient,
		Orders:    orders.NewRepository(gdb),
		Products:  products.NewRepository(gdb),
		Users:     users.NewRepository(gdb),
		Coupons:   couponSvc,
		Wallet:    walletSvc,
		Inventory: inventorySvc,
		Shifts:    shiftSvc,
		Invoices:  invoiceSvc,
		Sessions:  sessions,
		Gateways:  registry,
		Audit:     auditSvc,
		Outbox:    publisher,
		Pricer:    pricer,
		Logger:    logg,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	return sessions, registry, settlementSvc, nil
}
