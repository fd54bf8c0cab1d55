package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cleanbite/ordersync/internal/adapter/logger"
	"github.com/cleanbite/ordersync/internal/adapter/postgres"
	"github.com/cleanbite/ordersync/internal/adapter/rabbitmq"
	"github.com/cleanbite/ordersync/internal/app/admin"
	"github.com/cleanbite/ordersync/internal/app/kitchen"
	"github.com/cleanbite/ordersync/internal/app/lifecycle"
	"github.com/cleanbite/ordersync/internal/app/monitor"
	"github.com/cleanbite/ordersync/internal/app/order"
	"github.com/cleanbite/ordersync/internal/config"
	"github.com/cleanbite/ordersync/internal/domain"
	"github.com/cleanbite/ordersync/internal/interfaces"

	amqpAdapter "github.com/cleanbite/ordersync/internal/adapter/amqp"
	httpAdapter "github.com/cleanbite/ordersync/internal/adapter/http"
)

func main() {
	// Parse command-line flags
	mode := flag.String("mode", "", "Actor mode: customer-service, kitchen-display, admin-console, lifecycle-monitor")
	port := flag.Int("port", 3000, "HTTP port")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	// Initialize logger
	lgr := logger.New(*mode)

	// Connect to PostgreSQL
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	lgr.Info("db_connected", "Connected to PostgreSQL database", "", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})

	// Connect to RabbitMQ
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	// Shared wiring: every actor links the same repositories and the same
	// lifecycle engine, so no view can drift from the others
	orderRepo := postgres.NewOrderRepository(db)
	lockRepo := postgres.NewLockRepository(db)
	activityRepo := postgres.NewActivityRepository(db, cfg.Activity.MaxEntries)
	publisher := rabbitmq.NewPublisher(mqConn)
	consumer := rabbitmq.NewConsumer(mqConn)
	engine := lifecycle.NewEngine(orderRepo, lockRepo, activityRepo, publisher, lgr, cfg.Lifecycle.MaxTransitionRetries)

	fermentCfg := domain.FermentationConfig{
		Duration:          cfg.Fermentation.FermentationDuration(),
		EarlyThresholdPct: cfg.Fermentation.EarlyThresholdPct,
		ReadyThresholdPct: cfg.Fermentation.ReadyThresholdPct,
	}

	switch *mode {
	case "customer-service":
		runCustomerService(ctx, cfg, orderRepo, publisher, consumer, lgr, fermentCfg, *port)

	case "kitchen-display":
		runKitchenDisplay(ctx, cfg, orderRepo, lockRepo, engine, consumer, lgr, *port)

	case "admin-console":
		runAdminConsole(ctx, cfg, orderRepo, lockRepo, activityRepo, engine, publisher, lgr, *port)

	case "lifecycle-monitor":
		runLifecycleMonitor(ctx, cfg, orderRepo, lockRepo, activityRepo, engine, publisher, lgr, fermentCfg)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func runCustomerService(
	ctx context.Context,
	cfg *config.Config,
	orderRepo interfaces.OrderRepository,
	publisher interfaces.MessagePublisher,
	consumer interfaces.MessageConsumer,
	lgr logger.Logger,
	fermentCfg domain.FermentationConfig,
	port int,
) {
	orderService := order.NewService(orderRepo, publisher, lgr, fermentCfg)
	feed := order.NewFeedListener(cfg.Activity.MaxEntries)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Шина - подсказка для локальной ленты событий
	eventHandler := amqpAdapter.NewOrderEventHandler(feed, lgr)
	go func() {
		if err := consumer.ConsumeOrderEvents(ctx, eventHandler.Handle); err != nil && ctx.Err() == nil {
			lgr.Error("consumer_error", "Error consuming order events", "", nil, err)
		}
	}()

	orderHandler := httpAdapter.NewOrderHandler(orderService, feed, lgr)

	mux := http.NewServeMux()
	mux.HandleFunc("/orders", orderHandler.SubmitOrder)
	mux.HandleFunc("/orders/", orderHandler.HandleOrders)
	mux.HandleFunc("/activity", orderHandler.GetActivity)

	serveHTTP(mux, lgr, "Customer Service", port, cancel)
}

func runKitchenDisplay(
	ctx context.Context,
	cfg *config.Config,
	orderRepo interfaces.OrderRepository,
	lockRepo interfaces.LockRepository,
	engine *lifecycle.Engine,
	consumer interfaces.MessageConsumer,
	lgr logger.Logger,
	port int,
) {
	resync := time.Duration(cfg.Lifecycle.ResyncIntervalSec) * time.Second
	kitchenService := kitchen.NewService(orderRepo, lockRepo, engine, lgr, resync)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Обязательный периодический resync, независимый от шины
	go kitchenService.Start(ctx)

	eventHandler := amqpAdapter.NewOrderEventHandler(kitchenService, lgr)
	go func() {
		if err := consumer.ConsumeOrderEvents(ctx, eventHandler.Handle); err != nil && ctx.Err() == nil {
			lgr.Error("consumer_error", "Error consuming order events", "", nil, err)
		}
	}()

	kitchenHandler := httpAdapter.NewKitchenHandler(kitchenService, lgr)

	mux := http.NewServeMux()
	mux.HandleFunc("/kitchen/summary", kitchenHandler.GetSummary)
	mux.HandleFunc("/kitchen/queue", kitchenHandler.GetQueue)
	mux.HandleFunc("/kitchen/orders/", kitchenHandler.HandleOrderStatus)

	serveHTTP(mux, lgr, "Kitchen Display", port, cancel)
}

func runAdminConsole(
	ctx context.Context,
	cfg *config.Config,
	orderRepo interfaces.OrderRepository,
	lockRepo interfaces.LockRepository,
	activityRepo interfaces.ActivityRepository,
	engine *lifecycle.Engine,
	publisher interfaces.MessagePublisher,
	lgr logger.Logger,
	port int,
) {
	adminService := admin.NewService(orderRepo, lockRepo, activityRepo, engine, publisher, lgr, cfg.Lifecycle.MaxTransitionRetries)

	_, cancel := context.WithCancel(ctx)
	defer cancel()

	adminHandler := httpAdapter.NewAdminHandler(adminService, lgr)

	mux := http.NewServeMux()
	mux.HandleFunc("/admin/orders/", adminHandler.HandleOrders)
	mux.HandleFunc("/admin/activity", adminHandler.GetActivity)

	serveHTTP(mux, lgr, "Admin Console", port, cancel)
}

func runLifecycleMonitor(
	ctx context.Context,
	cfg *config.Config,
	orderRepo interfaces.OrderRepository,
	lockRepo interfaces.LockRepository,
	activityRepo interfaces.ActivityRepository,
	engine *lifecycle.Engine,
	publisher interfaces.MessagePublisher,
	lgr logger.Logger,
	fermentCfg domain.FermentationConfig,
) {
	fermentationJob := monitor.NewFermentationJob(
		orderRepo, engine, fermentCfg,
		time.Duration(cfg.Fermentation.EvaluateIntervalSec)*time.Second, lgr,
	)
	timeoutJob := monitor.NewTimeoutJob(orderRepo, activityRepo, cfg.Timeouts, fermentCfg, lgr)
	recoveryJob := monitor.NewRecoveryJob(
		orderRepo, lockRepo, publisher,
		time.Duration(cfg.Lifecycle.RetentionHours)*time.Hour,
		time.Duration(cfg.Timeouts.RecoveryIntervalMinutes)*time.Minute, lgr,
	)

	jobs := monitor.NewJobManager(fermentationJob, timeoutJob, recoveryJob)
	if err := jobs.StartAll(); err != nil {
		log.Fatalf("Failed to start monitor jobs: %v", err)
	}

	lgr.Info("service_started", "Lifecycle Monitor started", "", nil)

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("shutdown_initiated", "Shutting down Lifecycle Monitor", "", nil)
	jobs.StopAll()
}

func serveHTTP(mux *http.ServeMux, lgr logger.Logger, name string, port int, cancel context.CancelFunc) {
	handler := httpAdapter.LoggingMiddleware(lgr)(mux)
	handler = httpAdapter.RecoveryMiddleware(lgr)(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("%s started on port %d", name, port), "", map[string]interface{}{
		"port": port,
	})

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", fmt.Sprintf("Shutting down %s", name), "", nil)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "", nil, err)
	}
}
