package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	appCart "github.com/Zhima-Mochi/minishop-cart/internal/application/cart"
	appOrder "github.com/Zhima-Mochi/minishop-cart/internal/application/order"
	"github.com/Zhima-Mochi/minishop-cart/internal/config"
	"github.com/Zhima-Mochi/minishop-cart/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability"
	"github.com/Zhima-Mochi/minishop-cart/internal/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	baseLogger := logging.MustNewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		LogFile: cfg.LogFile,
		Level:   cfg.LogLevel,
	})
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	logger := zaplogger.New(baseLogger)
	registry := prometheus.NewRegistry()
	counters, histograms := telemetry.Instruments(prometrics.New(registry, cfg.MetricsNamespace, ""))
	tel := telemetry.New(oteltrace.New(cfg.ServiceName), logger, counters, histograms)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, tel); err != nil {
		logger.Error("demo_failed", observability.F("error", err))
		stop()
		_ = baseLogger.Sync()
		os.Exit(1)
	}

	families, err := registry.Gather()
	if err == nil {
		logger.Info("metrics_gathered", observability.F("families", len(families)))
	}
}

func run(ctx context.Context, cfg config.Config, tel observability.Observability) error {
	logger := tel.Logger()

	products := memory.NewProductRepository()
	carts := memory.NewCartRepository()
	orders := memory.NewOrderRepository()
	idGenerator := id.NewUUIDGenerator()

	bus := outbox.NewBus(logger, outbox.Options{
		Buffer:      cfg.BusBuffer,
		Concurrency: cfg.BusConcurrency,
	})
	bus.Start(ctx)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		bus.Stop(stopCtx)
	}()

	orderService := appOrder.NewService(orders, logger)
	appOrder.NewWorker(orderService, bus, tel).Start()

	cartService := appCart.NewService(carts, products, idGenerator, tel)
	checkout := appCart.NewCheckoutUseCase(carts, products, idGenerator, bus, tel)

	book, err := product.New(idGenerator.NewID(), "book", decimal.NewFromInt(100), "This is a book", 1000)
	if err != nil {
		return err
	}
	if err := products.Save(ctx, book); err != nil {
		return err
	}

	cartID, err := cartService.Open(ctx)
	if err != nil {
		return err
	}
	if err := cartService.AddProduct(ctx, cartID, book.ID, 10); err != nil {
		return err
	}
	total, err := cartService.Total(ctx, cartID)
	if err != nil {
		return err
	}
	logger.Info("cart_ready", observability.F("cart_id", cartID), observability.F("total", total.String()))

	res, err := checkout.Execute(ctx, appCart.CheckoutInput{CartID: cartID})
	if err != nil {
		return err
	}

	// Over-stock purchase: expected to fail and leave the cart as it was.
	if err := cartService.AddProduct(ctx, cartID, book.ID, 1000); err != nil {
		return err
	}
	if _, err := checkout.Execute(ctx, appCart.CheckoutInput{CartID: cartID}); err != nil {
		logger.Info("checkout_rejected", observability.F("cart_id", cartID), observability.F("error", err))
	}

	left, err := products.Get(ctx, book.ID)
	if err != nil {
		return err
	}
	logger.Info("demo_done",
		observability.F("checkout_id", res.CheckoutID),
		observability.F("stock_left", left.Quantity()),
	)
	return nil
}
