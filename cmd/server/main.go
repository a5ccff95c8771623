package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"parkwise/internal/app"
	"parkwise/internal/config"
	"parkwise/internal/handler"
	"parkwise/internal/queue"
	internalRedis "parkwise/internal/redis"
	"parkwise/internal/repository/postgres"
	"parkwise/internal/routing"
	"parkwise/internal/service"
	"parkwise/internal/ws"
)

func main() {
	// Load .env if present, then configuration.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	deps := wireServices(db, redisClient, cfg)

	// Warm the catalog and ledger from the database.
	if err := deps.catalog.Refresh(ctx); err != nil {
		log.Fatalf("failed to load parking areas: %v", err)
	}
	for _, area := range deps.catalog.All() {
		if err := deps.ledger.LoadArea(ctx, area.ID); err != nil {
			log.Fatalf("failed to load slots for area %d: %v", area.ID, err)
		}
	}
	log.Printf("Loaded %d parking areas", len(deps.catalog.All()))

	// Background workers share a context cancelled on shutdown.
	workCtx, workCancel := context.WithCancel(context.Background())
	defer workCancel()

	go deps.hub.Run(workCtx)

	if cfg.Queue.AMQPURL != "" {
		consumer := queue.NewConsumer(cfg.Queue.AMQPURL, deps.ledger)
		go consumer.Run(workCtx)
	}

	// Scheduled jobs: reservation expiry sweep and catalog refresh.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Booking.SweepSchedule, func() {
		if n := deps.bookingService.ExpireOverdue(context.Background()); n > 0 {
			log.Printf("Expired %d overdue bookings", n)
		}
	}); err != nil {
		log.Fatalf("failed to schedule expiry sweep: %v", err)
	}
	if _, err := scheduler.AddFunc(cfg.Booking.RefreshSchedule, func() {
		if err := deps.catalog.Refresh(context.Background()); err != nil {
			log.Printf("catalog refresh failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("failed to schedule catalog refresh: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create router and HTTP server.
	router := app.NewRouter(app.RouterDeps{
		ParkingHandler: deps.parkingHandler,
		BookingHandler: deps.bookingHandler,
		ProfileHandler: deps.profileHandler,
		SlotHub:        deps.hub,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
		JWTSecret:      cfg.Auth.JWTSecret,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	workCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// serviceDeps groups the wired services and handlers.
type serviceDeps struct {
	catalog        *service.AreaCatalog
	ledger         *service.SlotLedger
	bookingService *service.BookingService
	hub            *ws.Hub
	parkingHandler *handler.ParkingHandler
	bookingHandler *handler.BookingHandler
	profileHandler *handler.ProfileHandler
}

// wireServices wires repositories, services and handlers.
func wireServices(db *sql.DB, redisClient *redis.Client, cfg *config.Config) *serviceDeps {
	// Redis-backed geo index.
	geoStore := internalRedis.NewGeoStore(redisClient)

	// Repositories.
	areaRepo := postgres.NewAreaRepository(db)
	slotRepo := postgres.NewSlotRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	profileRepo := postgres.NewProfileRepository(db)

	// Route cost estimation is optional; without a directions token the
	// catalog ranks by straight-line distance only.
	var estimator *routing.Estimator
	if cfg.Routing.AccessToken != "" {
		directions := routing.NewDirectionsClient(cfg.Routing.BaseURL, cfg.Routing.AccessToken, cfg.Routing.Timeout)
		estimator = routing.NewEstimator(directions, cfg.Routing.MaxInFlight)
	}

	// Services.
	catalog := service.NewAreaCatalog(areaRepo, geoStore, estimator)
	hub := ws.NewHub()
	ledger := service.NewSlotLedger(slotRepo, hub, cfg.Booking.HoldTTL)

	var psp service.PSP
	if cfg.Stripe.APIKey != "" {
		psp = service.NewStripePSP(cfg.Stripe.APIKey, "usd", cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL)
	}

	notifier := service.NewNotificationService(cfg.Notify, profileRepo)
	bookingService := service.NewBookingService(bookingRepo, catalog, ledger, psp, notifier)
	profileService := service.NewProfileService(profileRepo)

	// Handlers.
	return &serviceDeps{
		catalog:        catalog,
		ledger:         ledger,
		bookingService: bookingService,
		hub:            hub,
		parkingHandler: handler.NewParkingHandler(catalog, ledger, bookingService),
		bookingHandler: handler.NewBookingHandler(bookingService, ledger),
		profileHandler: handler.NewProfileHandler(profileService),
	}
}
