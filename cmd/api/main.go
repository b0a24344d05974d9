package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/giftcard-checkout-backend/api/routes"
	cartsvc "github.com/angelmondragon/giftcard-checkout-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/giftcard-checkout-backend/internal/checkout"
	"github.com/angelmondragon/giftcard-checkout-backend/internal/giftcards"
	"github.com/angelmondragon/giftcard-checkout-backend/internal/orders"
	"github.com/angelmondragon/giftcard-checkout-backend/internal/payments"
	risewebhook "github.com/angelmondragon/giftcard-checkout-backend/internal/webhooks/rise"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/config"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/logger"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/metrics"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/redis"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/rise"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	riseClient, err := rise.NewClient(context.Background(), cfg.Rise, logg, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create rise client", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(redisClient, cfg.Cart, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	giftCardService, err := giftcards.NewService(riseClient, cartService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create gift card service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Gateway:   riseClient,
		Carts:     cartService,
		Processor: payments.NewSimulatedProcessor(cfg.Payment, logg),
		Orders:    orderService,
		Logger:    logg,
		Metrics:   checkoutMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	webhookService, err := risewebhook.NewService(cfg.Webhook, redisClient, logg, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			redisClient,
			registry,
			cartService,
			giftCardService,
			checkoutService,
			webhookService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
