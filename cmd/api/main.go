package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hasanfarsi/dukkan-backend/api/routes"
	"github.com/hasanfarsi/dukkan-backend/internal/audit"
	"github.com/hasanfarsi/dukkan-backend/internal/cashshift"
	"github.com/hasanfarsi/dukkan-backend/internal/coupons"
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
	"github.com/hasanfarsi/dukkan-backend/pkg/migrate"
	"github.com/hasanfarsi/dukkan-backend/pkg/outbox"
	"github.com/hasanfarsi/dukkan-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	svcs, err := buildServices(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, svcs),
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutdown signal received, draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shut down gracefully")
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (routes.Services, error) {
	gdb := dbClient.DB()
	publisher := outbox.NewService(outbox.NewRepository(gdb), logg)

	userSvc, err := users.NewService(users.NewRepository(gdb), redisClient, cfg.JWT, cfg.Password)
	if err != nil {
		return routes.Services{}, err
	}
	walletSvc, err := wallet.NewService(wallet.NewRepository(gdb))
	if err != nil {
		return routes.Services{}, err
	}
	couponSvc, err := coupons.NewService(coupons.NewRepository(gdb))
	if err != nil {
		return routes.Services{}, err
	}
	inventorySvc, err := inventory.NewService(dbClient, inventory.NewRepository(gdb), publisher, cfg.Checkout.MinStockDefault)
	if err != nil {
		return routes.Services{}, err
	}
	orderSvc, err := orders.NewService(orders.NewRepository(gdb))
	if err != nil {
		return routes.Services{}, err
	}
	invoiceSvc, err := invoices.NewService(invoices.NewRepository(gdb), cfg.Checkout)
	if err != nil {
		return routes.Services{}, err
	}
	shiftSvc, err := cashshift.NewService(dbClient, cashshift.NewRepository(gdb), redisClient, publisher)
	if err != nil {
		return routes.Services{}, err
	}
	auditSvc, err := audit.NewService(audit.NewRepository(gdb))
	if err != nil {
		return routes.Services{}, err
	}
	pricer, err := pricing.NewCalculator(cfg.Checkout)
	if err != nil {
		return routes.Services{}, err
	}

	sessions, err := gateway.NewSessionStore(gateway.NewSessionRepository(gdb), redisClient, cfg.Sessions.PaymentTTL)
	if err != nil {
		return routes.Services{}, err
	}

	moyasar, err := gateway.NewMoyasarAdapter(cfg.Moyasar)
	if err != nil {
		return routes.Services{}, err
	}
	tamara, err := gateway.NewTamaraAdapter(cfg.Tamara)
	if err != nil {
		return routes.Services{}, err
	}
	tabby, err := gateway.NewTabbyAdapter(cfg.Tabby)
	if err != nil {
		return routes.Services{}, err
	}
	registry, err := gateway.NewRegistry(moyasar, tamara, tabby)
	if err != nil {
		return routes.Services{}, err
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
		return routes.Services{}, err
	}

	return routes.Services{
		Users:      userSvc,
		Settlement: settlementSvc,
		Orders:     orderSvc,
		Invoices:   invoiceSvc,
		Wallet:     walletSvc,
		Inventory:  inventorySvc,
		Shifts:     shiftSvc,
		Audit:      auditSvc,
		Sessions:   sessions,
		Gateways:   registry,
	}, nil
}
