package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/me/burgermes/internal/adapter/logger"
	"github.com/me/burgermes/internal/adapter/memory"
	"github.com/me/burgermes/internal/adapter/postgres"
	"github.com/me/burgermes/internal/adapter/rabbitmq"
	"github.com/me/burgermes/internal/app/intake"
	"github.com/me/burgermes/internal/app/scheduler"
	"github.com/me/burgermes/internal/app/tracking"
	"github.com/me/burgermes/internal/config"
	"github.com/me/burgermes/internal/domain"
	"github.com/me/burgermes/internal/interfaces"
	"github.com/me/burgermes/internal/seed"

	amqpAdapter "github.com/me/burgermes/internal/adapter/amqp"
	httpAdapter "github.com/me/burgermes/internal/adapter/http"
)

func main() {
	// Parse command-line flags
	mode := flag.String("mode", "", "Service mode: scheduler, intake-service, tracking-service, notification-subscriber, webshop, demo")
	port := flag.Int("port", 3000, "HTTP port")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	prefetch := flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	seedData := flag.Bool("seed", false, "Populate the catalog and machine park on startup (scheduler mode)")
	orderCount := flag.Int("orders", 10, "Number of random orders to publish (webshop mode)")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	ctx := context.Background()

	// Initialize logger
	lgr := logger.New(*mode)

	// Demo mode is self-contained: in-memory storage, no broker, no config.
	if *mode == "demo" {
		runDemo(ctx, lgr)
		return
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Route to appropriate service
	switch *mode {
	case "scheduler":
		db := connectPostgres(ctx, cfg, lgr)
		defer db.Close()
		mqConn := connectRabbitMQ(cfg, lgr)
		defer mqConn.Close()
		runScheduler(ctx, db, mqConn, lgr, cfg, *seedData)

	case "intake-service":
		db := connectPostgres(ctx, cfg, lgr)
		defer db.Close()
		mqConn := connectRabbitMQ(cfg, lgr)
		defer mqConn.Close()
		runIntakeService(ctx, db, mqConn, lgr, *prefetch)

	case "tracking-service":
		db := connectPostgres(ctx, cfg, lgr)
		defer db.Close()
		runTrackingService(db, lgr, *port)

	case "notification-subscriber":
		mqConn := connectRabbitMQ(cfg, lgr)
		defer mqConn.Close()
		runNotificationSubscriber(ctx, mqConn, lgr)

	case "webshop":
		mqConn := connectRabbitMQ(cfg, lgr)
		defer mqConn.Close()
		runWebshop(ctx, mqConn, lgr, *orderCount)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func connectPostgres(ctx context.Context, cfg *config.Config, lgr logger.Logger) *pgxpool.Pool {
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})
	return db
}

func connectRabbitMQ(cfg *config.Config, lgr logger.Logger) rabbitmq.Connection {
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})
	return mqConn
}

func runScheduler(ctx context.Context, db *pgxpool.Pool, mqConn rabbitmq.Connection, lgr logger.Logger, cfg *config.Config, seedData bool) {
	if err := postgres.InitializeSchema(ctx, db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// Initialize storage
	store := postgres.NewStore(db)

	if seedData {
		seedStore(ctx, store, lgr)
	}

	// Initialize messaging
	publisher := rabbitmq.NewPublisher(mqConn)

	// Initialize service
	schedulerService := scheduler.NewService(store, publisher, lgr, scheduler.SystemClock(),
		cfg.Scheduler.PollInterval(), cfg.Scheduler.Increment())

	lgr.Info("service_started", "Scheduler started", "startup", map[string]interface{}{
		"poll_interval_ms": cfg.Scheduler.PollInterval().Milliseconds(),
		"aging_increment":  cfg.Scheduler.Increment(),
	})

	// Graceful shutdown
	runCtx, cancel := context.WithCancel(ctx)
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", "Shutting down Scheduler", "shutdown", nil)
		cancel()
	}()

	if err := schedulerService.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Scheduler stopped: %v", err)
	}
}

func runIntakeService(ctx context.Context, db *pgxpool.Pool, mqConn rabbitmq.Connection, lgr logger.Logger, prefetch int) {
	// Initialize storage
	store := postgres.NewStore(db)

	// Initialize messaging
	consumer := rabbitmq.NewConsumer(mqConn, lgr, prefetch)

	// Initialize service
	intakeService := intake.NewService(store, lgr)

	// Initialize AMQP handler
	orderHandler := amqpAdapter.NewOrderHandler(intakeService, lgr)

	lgr.Info("service_started", "Intake Service started", "startup", map[string]interface{}{
		"prefetch": prefetch,
	})

	// Start consuming messages
	go func() {
		if err := consumer.ConsumeOrders(ctx, orderHandler.HandleOrder); err != nil {
			lgr.Error("consumer_error", "Error consuming orders", "runtime", nil, err)
		}
	}()

	// Wait for shutdown signal
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("shutdown_initiated", "Shutting down Intake Service", "shutdown", nil)
}

func runTrackingService(db *pgxpool.Pool, lgr logger.Logger, port int) {
	// Initialize storage
	store := postgres.NewStore(db)

	// Initialize service
	trackingService := tracking.NewService(store, lgr)

	// Initialize HTTP handler
	trackingHandler := httpAdapter.NewTrackingHandler(trackingService, lgr)

	// Setup HTTP server
	mux := http.NewServeMux()
	mux.HandleFunc("/orders/", trackingHandler.HandleOrders)
	mux.HandleFunc("/machines/occupancy", trackingHandler.GetMachineOccupancy)

	// Apply middleware
	handler := httpAdapter.LoggingMiddleware(lgr)(mux)
	handler = httpAdapter.RecoveryMiddleware(lgr)(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("Tracking Service started on port %d", port), "startup", map[string]interface{}{
		"port": port,
	})

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", "Shutting down Tracking Service", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}

func runNotificationSubscriber(ctx context.Context, mqConn rabbitmq.Connection, lgr logger.Logger) {
	// Initialize consumer
	consumer := rabbitmq.NewConsumer(mqConn, lgr, 1)

	// Initialize handler
	updateHandler := amqpAdapter.NewUpdateHandler(lgr)

	lgr.Info("service_started", "Notification Subscriber started", "startup", nil)

	// Start consuming schedule updates
	go func() {
		if err := consumer.ConsumeScheduleUpdates(ctx, updateHandler.HandleUpdate); err != nil {
			lgr.Error("consumer_error", "Error consuming schedule updates", "runtime", nil, err)
		}
	}()

	// Wait for shutdown signal
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
}

// runWebshop stands in for the real webshop: it publishes a batch of random
// orders onto the intake exchange and exits.
func runWebshop(ctx context.Context, mqConn rabbitmq.Connection, lgr logger.Logger, count int) {
	publisher := rabbitmq.NewPublisher(mqConn)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	catalog := seed.Catalog(rng)

	for i := 0; i < count; i++ {
		order := seed.RandomOrder(rng, catalog, time.Now())
		msg := orderMessage(order)

		if err := publisher.PublishOrder(ctx, msg); err != nil {
			log.Fatalf("Failed to publish order: %v", err)
		}
		lgr.Info("order_published", fmt.Sprintf("Published order with %d products", len(msg.Products)), msg.RequestID, nil)
	}
}

// runDemo runs the scheduler against an in-memory store, seeding a catalog
// and machine park up front and dripping in a random order whenever the loop
// goes idle.
func runDemo(ctx context.Context, lgr logger.Logger) {
	store := memory.NewStore()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	seedMemory(ctx, store, rng)

	catalog := seed.Catalog(rng)
	schedulerService := scheduler.NewService(store, nil, lgr, scheduler.SystemClock(), time.Second, 1)
	schedulerService.OnIdle = func(ctx context.Context) error {
		return store.AddOrder(ctx, seed.RandomOrder(rng, catalog, time.Now()))
	}

	lgr.Info("service_started", "Demo scheduler started with in-memory storage", "startup", nil)

	runCtx, cancel := context.WithCancel(ctx)
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", "Shutting down demo scheduler", "shutdown", nil)
		cancel()
	}()

	if err := schedulerService.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Demo scheduler stopped: %v", err)
	}
}

func seedStore(ctx context.Context, store interfaces.Store, lgr logger.Logger) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, product := range seed.Catalog(rng) {
		p := product
		if err := store.AddProduct(ctx, &p); err != nil {
			log.Fatalf("Failed to seed product: %v", err)
		}
	}
	machines := seed.Machines(rng, time.Now())
	for _, machine := range machines {
		m := machine
		if err := store.AddMachine(ctx, &m); err != nil {
			log.Fatalf("Failed to seed machine: %v", err)
		}
	}

	lgr.Info("data_seeded", "Seeded demo catalog and machine park", "startup", map[string]interface{}{
		"machines": len(machines),
	})
}

func seedMemory(ctx context.Context, store *memory.Store, rng *rand.Rand) {
	catalog := seed.Catalog(rng)
	for _, machine := range seed.Machines(rng, time.Now()) {
		m := machine
		if err := store.AddMachine(ctx, &m); err != nil {
			log.Fatalf("Failed to seed machine: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if err := store.AddOrder(ctx, seed.RandomOrder(rng, catalog, time.Now())); err != nil {
			log.Fatalf("Failed to seed order: %v", err)
		}
	}
}

func orderMessage(order *domain.Order) interfaces.OrderMessage {
	products := make([]interfaces.OrderMessageProduct, len(order.Products))
	for i, p := range order.Products {
		products[i] = interfaces.OrderMessageProduct{
			Name:     p.Name,
			Recipe:   p.Recipe.Serialize(),
			Priority: p.Priority,
		}
	}
	return interfaces.OrderMessage{
		RequestID: uuid.NewString(),
		Products:  products,
	}
}
