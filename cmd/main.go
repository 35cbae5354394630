package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/senyabanana/unlisted-market/internal/db"
	"github.com/senyabanana/unlisted-market/internal/handlers"
	"github.com/senyabanana/unlisted-market/internal/repository"
	"github.com/senyabanana/unlisted-market/internal/router"
	"github.com/senyabanana/unlisted-market/internal/router/config"
	"github.com/senyabanana/unlisted-market/internal/scheduler"
	"github.com/senyabanana/unlisted-market/internal/services"
	"github.com/senyabanana/unlisted-market/internal/telemetry"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stdout, "INFO: ", log.LstdFlags)

	meterProvider, shutdownMetrics, err := telemetry.Init(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		log.Fatalf("error initializing telemetry: %v", err)
	}
	metrics, err := telemetry.NewMetrics(meterProvider)
	if err != nil {
		log.Fatalf("error registering metrics: %v", err)
	}

	var (
		listingRepo      repository.ListingRepository
		notificationRepo repository.NotificationRepository
		healthCheck      func(context.Context) error
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Println("using in-memory storage")
		listingRepo = repository.NewMemoryListingRepository()
		notificationRepo = repository.NewMemoryNotificationRepository()
	default:
		runDBMigration(cfg.MigrationURL, cfg.PostgresConn)

		dbPool, err := db.InitDb(ctx, cfg)
		if err != nil {
			log.Fatalf("error initializing database: %v", err)
		}
		defer dbPool.Close()

		listingRepo = repository.NewPostgresListingRepository(dbPool)
		notificationRepo = repository.NewPostgresNotificationRepository(dbPool)
		healthCheck = dbPool.Ping
	}

	notifier := services.NewAsyncNotifier(notificationRepo, cfg.NotifyWorkers, cfg.NotifyQueueSize, logger, metrics)
	notifier.MaxTries = cfg.NotifyMaxRetries
	defer notifier.Close()

	deps := &services.Deps{
		Repo:     listingRepo,
		Notifier: notifier,
		Metrics:  metrics,
		Logger:   logger,
	}
	listingService := services.NewListingService(deps, cfg.BoostDuration)
	bidService := services.NewBidService(deps)
	dealService := services.NewDealService(deps)
	notificationService := services.NewNotificationService(notificationRepo)

	sweeper, err := scheduler.NewBoostSweeper(listingService, cfg.BoostSweepSpec, logger, cfg.RequestTimeout)
	if err != nil {
		log.Fatalf("error initializing scheduler: %v", err)
	}
	sweeper.Start()

	routes := router.InitRoutes(router.Handlers{
		Ping:          handlers.PingHandler(healthCheck),
		Listings:      handlers.NewListingHandler(listingService, logger, cfg.RequestTimeout),
		Bids:          handlers.NewBidHandler(bidService, logger, cfg.RequestTimeout),
		Deals:         handlers.NewDealHandler(dealService, logger, cfg.RequestTimeout),
		Notifications: handlers.NewNotificationHandler(notificationService, logger, cfg.RequestTimeout),
	})

	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           routes,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("server is listening on %s...", cfg.ServerAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	sweeper.Stop(shutdownCtx)
	notifier.Close()
	if err := shutdownMetrics(shutdownCtx); err != nil {
		log.Printf("metrics shutdown: %v", err)
	}
}

func runDBMigration(migrationURL string, dbSource string) {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		log.Fatal("cannot create a new migrate instance", err)
	}

	if err = migration.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal("failed to run migrate up:", err)
	}
	log.Println("db migrated successfully")
}
