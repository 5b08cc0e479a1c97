package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yonaslemma/gursha-backend/api/routes"
	authsvc "github.com/yonaslemma/gursha-backend/internal/auth"
	cartsvc "github.com/yonaslemma/gursha-backend/internal/cart"
	categorysvc "github.com/yonaslemma/gursha-backend/internal/categories"
	checkoutsvc "github.com/yonaslemma/gursha-backend/internal/checkout"
	ordersvc "github.com/yonaslemma/gursha-backend/internal/orders"
	"github.com/yonaslemma/gursha-backend/internal/payments"
	productsvc "github.com/yonaslemma/gursha-backend/internal/products"
	storesvc "github.com/yonaslemma/gursha-backend/internal/stores"
	"github.com/yonaslemma/gursha-backend/internal/users"
	"github.com/yonaslemma/gursha-backend/internal/webhooks"
	chapawebhook "github.com/yonaslemma/gursha-backend/internal/webhooks/chapa"
	stripewebhook "github.com/yonaslemma/gursha-backend/internal/webhooks/stripe"
	"github.com/yonaslemma/gursha-backend/pkg/auth/session"
	"github.com/yonaslemma/gursha-backend/pkg/chapa"
	"github.com/yonaslemma/gursha-backend/pkg/config"
	"github.com/yonaslemma/gursha-backend/pkg/db"
	"github.com/yonaslemma/gursha-backend/pkg/logger"
	"github.com/yonaslemma/gursha-backend/pkg/metrics"
	"github.com/yonaslemma/gursha-backend/pkg/migrate"
	pkgredis "github.com/yonaslemma/gursha-backend/pkg/redis"
	"github.com/yonaslemma/gursha-backend/pkg/security"
	stripeclient "github.com/yonaslemma/gursha-backend/pkg/stripe"
)

const shutdownGrace = 15 * time.Second

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

	redisClient, err := pkgredis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	hasher, err := security.NewHasher(cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create password hasher", err)
		os.Exit(1)
	}

	stripeC, err := stripeclient.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}
	chapaC, err := chapa.NewClient(context.Background(), cfg.Chapa, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap chapa", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	storeRepo := storesvc.NewRepository(dbClient.DB())
	categoryRepo := categorysvc.NewRepository(dbClient.DB())
	productRepo := productsvc.NewRepository(dbClient.DB())
	cartRepo := cartsvc.NewRepository(dbClient.DB())
	orderRepo := ordersvc.NewRepository(dbClient.DB())

	authService, err := authsvc.NewService(userRepo, hasher, sessionManager, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	storeService, err := storesvc.NewService(storeRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create store service", err)
		os.Exit(1)
	}
	categoryService, err := categorysvc.NewService(categoryRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create category service", err)
		os.Exit(1)
	}
	productService, err := productsvc.NewService(productRepo, storeService)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}
	cartService, err := cartsvc.NewService(cartRepo, dbClient, storeService, productService, cfg.Cart)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	orderService, err := ordersvc.NewService(orderRepo, productRepo, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	stripeGateway, err := payments.NewStripeGateway(stripeC, cfg.App.BaseURL)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe gateway", err)
		os.Exit(1)
	}
	chapaGateway, err := payments.NewChapaGateway(chapaC, cfg.App.BaseURL)
	if err != nil {
		logg.Error(context.Background(), "failed to create chapa gateway", err)
		os.Exit(1)
	}
	gateways, err := payments.NewRegistry(stripeGateway, chapaGateway)
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway registry", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(cartRepo, orderRepo, productRepo, dbClient, gateways, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	stripeGuard, err := webhooks.NewIdempotencyGuard(redisClient, cfg.Webhooks.ReplayGuardTTL, "stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook guard", err)
		os.Exit(1)
	}
	stripeWebhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Orders: orderService,
		Guard:  stripeGuard,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	chapaGuard, err := webhooks.NewIdempotencyGuard(redisClient, cfg.Webhooks.ReplayGuardTTL, "chapa")
	if err != nil {
		logg.Error(context.Background(), "failed to create chapa webhook guard", err)
		os.Exit(1)
	}
	chapaWebhookService, err := chapawebhook.NewService(chapawebhook.ServiceParams{
		Orders:   orderService,
		Verifier: chapaGateway,
		Guard:    chapaGuard,
		Secret:   chapaC.WebhookSecret(),
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create chapa webhook service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	router := routes.NewRouter(routes.Params{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		Sessions:       sessionManager,
		HTTPMetrics:    httpMetrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),

		Auth:       authService,
		Stores:     storeService,
		Categories: categoryService,
		Products:   productService,
		Cart:       cartService,
		Checkout:   checkoutService,
		Orders:     orderService,

		StripeWebhooks:      stripeWebhookService,
		StripeSigningSecret: stripeC.SigningSecret(),
		ChapaWebhooks:       chapaWebhookService,
	})

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
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
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
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		graceCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
