package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hasanfarsi/dukkan-backend/api/controllers"
	"github.com/hasanfarsi/dukkan-backend/api/middleware"
	"github.com/hasanfarsi/dukkan-backend/internal/audit"
	"github.com/hasanfarsi/dukkan-backend/internal/authz"
	"github.com/hasanfarsi/dukkan-backend/internal/cashshift"
	"github.com/hasanfarsi/dukkan-backend/internal/gateway"
	"github.com/hasanfarsi/dukkan-backend/internal/inventory"
	"github.com/hasanfarsi/dukkan-backend/internal/invoices"
	"github.com/hasanfarsi/dukkan-backend/internal/orders"
	"github.com/hasanfarsi/dukkan-backend/internal/settlement"
	"github.com/hasanfarsi/dukkan-backend/internal/users"
	"github.com/hasanfarsi/dukkan-backend/internal/wallet"
	"github.com/hasanfarsi/dukkan-backend/pkg/config"
	"github.com/hasanfarsi/dukkan-backend/pkg/db"
	"github.com/hasanfarsi/dukkan-backend/pkg/logger"
	"github.com/hasanfarsi/dukkan-backend/pkg/redis"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Users      users.Service
	Settlement settlement.Service
	Orders     orders.Service
	Invoices   invoices.Service
	Wallet     wallet.Service
	Inventory  inventory.Service
	Shifts     cashshift.Service
	Audit      audit.Service
	Sessions   *gateway.SessionStore
	Gateways   *gateway.Registry
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database *db.Client,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	stepUpPolicy := middleware.NewAuthRateLimitPolicy(
		"step-up",
		cfg.AuthRateLimit.StepUpWindow,
		cfg.AuthRateLimit.StepUpIPLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, database, redisClient, logg))
	})

	// Provider callbacks authenticate with signatures, not bearer tokens.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/{provider}", controllers.PaymentWebhook(svcs.Settlement, svcs.Sessions, svcs.Gateways, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg), middleware.Idempotency(redisClient, logg)).
			Post("/register", controllers.Register(svcs.Users, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.Login(svcs.Users, logg))
		r.With(middleware.Auth(cfg.JWT, logg), middleware.AuthRateLimit(stepUpPolicy, redisClient, logg)).
			Post("/verify-password", controllers.VerifyPassword(svcs.Users, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.With(middleware.RequireCapability(authz.CapCheckout, logg)).
			Post("/checkout", controllers.Checkout(svcs.Settlement, svcs.Users, logg))

		r.Route("/payments", func(r chi.Router) {
			r.Use(middleware.RequireCapability(authz.CapCheckout, logg))
			r.Post("/{provider}/initiate", controllers.InitiatePayment(svcs.Settlement, logg))
			r.Get("/verify", controllers.VerifyPayment(svcs.Settlement, svcs.Orders, svcs.Sessions, svcs.Gateways, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireCapability(authz.CapOrdersRead, logg)).Get("/", controllers.ListOrders(svcs.Orders, logg))
			r.With(middleware.RequireCapability(authz.CapOrdersRead, logg)).Get("/{id}", controllers.GetOrder(svcs.Orders, logg))
			r.With(middleware.RequireCapability(authz.CapOrdersRead, logg)).Get("/{id}/invoice", controllers.GetOrderInvoice(svcs.Orders, svcs.Invoices, logg))
			r.With(middleware.RequireCapability(authz.CapOrdersAdvance, logg)).Post("/{id}/advance", controllers.AdvanceOrder(svcs.Orders, logg))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.With(middleware.RequireCapability(authz.CapWalletRead, logg)).Get("/", controllers.WalletBalance(svcs.Wallet, logg))
			r.With(middleware.RequireCapability(authz.CapWalletRead, logg)).Get("/transactions", controllers.WalletTransactions(svcs.Wallet, logg))
			r.With(middleware.RequireCapability(authz.CapWalletDeposit, logg)).Post("/deposit", controllers.WalletDeposit(svcs.Wallet, logg))
			r.With(middleware.RequireCapability(authz.CapWalletRebuild, logg)).Post("/rebuild", controllers.WalletRebuild(svcs.Wallet, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.With(middleware.RequireCapability(authz.CapInventoryRead, logg)).Get("/", controllers.ListInventory(svcs.Inventory, logg))
			r.With(middleware.RequireCapability(authz.CapInventoryRead, logg)).Get("/low-stock", controllers.LowStock(svcs.Inventory, logg))
			r.With(middleware.RequireCapability(authz.CapInventoryWrite, logg)).Put("/{productID}", controllers.SetStock(svcs.Inventory, logg))
		})

		r.Route("/transfers", func(r chi.Router) {
			r.With(middleware.RequireCapability(authz.CapTransfersRequest, logg)).Post("/", controllers.RequestTransfer(svcs.Inventory, logg))
			r.With(middleware.RequireCapability(authz.CapTransfersResolve, logg)).Post("/{id}/status", controllers.ResolveTransfer(svcs.Inventory, logg))
			r.With(middleware.RequireCapability(authz.CapInventoryRead, logg)).Get("/", controllers.ListTransfers(svcs.Inventory, logg))
		})

		r.Route("/shifts", func(r chi.Router) {
			r.Use(middleware.RequireCapability(authz.CapShiftsManage, logg))
			r.Post("/", controllers.OpenShift(svcs.Shifts, logg))
			r.Post("/{id}/close", controllers.CloseShift(svcs.Shifts, logg))
			r.Get("/active", controllers.ActiveShift(svcs.Shifts, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.With(middleware.RequireCapability(authz.CapAuditRead, logg)).Get("/audit-logs", controllers.ListAuditLogs(svcs.Audit, logg))
	})

	return r
}
