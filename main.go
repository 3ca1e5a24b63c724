package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventx-ticketing/internal/analytics"
	analytics_api "eventx-ticketing/internal/analytics/api"
	"eventx-ticketing/internal/auth"
	"eventx-ticketing/internal/config"
	"eventx-ticketing/internal/database"
	"eventx-ticketing/internal/database/migrations"
	eventdb "eventx-ticketing/internal/events/db"
	"eventx-ticketing/internal/events/event_api"
	events "eventx-ticketing/internal/events/service"
	"eventx-ticketing/internal/kafka"
	"eventx-ticketing/internal/logger"
	ticketdb "eventx-ticketing/internal/tickets/db"
	"eventx-ticketing/internal/tickets/qr"
	seatlock "eventx-ticketing/internal/tickets/redis"
	tickets "eventx-ticketing/internal/tickets/service"
	"eventx-ticketing/internal/tickets/ticket_api"
	userdb "eventx-ticketing/internal/users/db"
	users "eventx-ticketing/internal/users/service"
	"eventx-ticketing/internal/users/user_api"
	"eventx-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
)

type publisher interface {
	tickets.BookingPublisher
	events.DeletionPublisher
}

// app holds everything the router needs. locks is nil when Redis is disabled or unreachable.
type app struct {
	cfg       *config.Config
	logger    *logger.Logger
	db        *bun.DB
	locks     *seatlock.SeatLock
	proofs    *qr.QRGenerator
	publisher publisher
	verifier  auth.Verifier
}

func prepareSchema(ctx context.Context, cfg config.DatabaseConfig, bunDB *bun.DB, log *logger.Logger) error {
	if cfg.Driver != database.DriverPostgres {
		log.Info("DATABASE", "Creating schema from models")
		return database.CreateSchema(ctx, bunDB)
	}
	if !cfg.AutoMigrate {
		log.Info("MIGRATE", "Auto-migration disabled, skipping")
		return nil
	}

	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
		MigrationsDir: cfg.MigrationsDir,
		AutoMigrate:   cfg.AutoMigrate,
	}, log)
	defer runner.Close()
	return runner.RunMigrations()
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if !cfg.Enabled {
		log.Info("REDIS", "Seat locks disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		// Bookings stay correct without the lock, so start anyway.
		log.Warn("REDIS", fmt.Sprintf("Redis at %s unreachable, seat locks disabled: %v", cfg.Addr, err))
		client.Close()
		return nil
	}
	log.Info("REDIS", fmt.Sprintf("Redis connection successful to %s (DB: %d)", cfg.Addr, client.Options().DB))
	return client
}

func setupKafka(cfg config.KafkaConfig, log *logger.Logger) (publisher, func()) {
	if !cfg.Enabled {
		log.Info("KAFKA", "Kafka disabled, domain events are not published")
		return kafka.NopPublisher{}, func() {}
	}

	topics := []string{cfg.Topics.TicketBooked, cfg.Topics.EventDeleted}
	if err := kafka.EnsureTopicsExist(cfg.Brokers, topics, log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		log.Info("KAFKA", "Required topics ensured successfully")
	}

	producer := kafka.NewProducer(cfg.Brokers, cfg.Topics, log)
	log.Info("KAFKA", "Kafka producer initialized successfully")
	return producer, func() {
		if err := producer.Close(); err != nil {
			log.Error("KAFKA", fmt.Sprintf("Failed to close producer: %v", err))
		}
	}
}

func (a *app) router() http.Handler {
	log := a.logger
	authenticate := auth.Middleware(a.verifier, log)

	ticketDB := &ticketdb.DB{Bun: a.db}
	ticketService := tickets.NewTicketService(ticketDB, a.proofs, log)
	ticketService.Publisher = a.publisher
	if a.locks != nil {
		ticketService.Locks = a.locks
	}

	eventService := events.NewEventService(&eventdb.DB{Bun: a.db}, ticketDB, a.publisher, log)
	userService := users.NewUserService(&userdb.DB{Bun: a.db}, log)
	analyticsService := analytics.NewService(analytics.NewDB(a.db), a.cfg.Notifications, log)

	ticketHandler := ticket_api.NewHandler(ticketService, log)
	eventHandler := event_api.NewHandler(eventService, log)
	userHandler := user_api.NewHandler(userService, log)
	analyticsHandler := analytics_api.NewHandler(analyticsService, log)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(log.RequestLogger)

	r.Get("/health", a.health)
	r.Get("/api/test", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{
			"message":   "Server is running!",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	r.Get("/api/notifications", analyticsHandler.Notifications)

	r.Route("/api/events", func(r chi.Router) {
		eventHandler.RegisterRoutes(r, authenticate)
	})
	log.Info("ROUTER", "Event routes registered under /api/events")

	r.Route("/api/tickets", func(r chi.Router) {
		r.With(authenticate).Get("/analytics/most-booked", analyticsHandler.MostBooked)
		ticketHandler.RegisterRoutes(r, authenticate)
	})
	log.Info("ROUTER", "Ticket routes registered under /api/tickets")

	r.Route("/api/users", func(r chi.Router) {
		userHandler.RegisterRoutes(r, authenticate)
	})
	log.Info("ROUTER", "User routes registered under /api/users")

	return r
}

func (a *app) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "database": "ok"}
	code := http.StatusOK

	if err := a.db.PingContext(r.Context()); err != nil {
		status["status"], status["database"] = "degraded", err.Error()
		code = http.StatusServiceUnavailable
	}
	if a.locks != nil {
		status["redis"] = "ok"
		if err := a.locks.Ping(r.Context()); err != nil {
			// Redis only backs the optional seat lock.
			status["redis"] = err.Error()
		}
	}
	utils.WriteJSON(w, code, status)
}

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	logDir := ""
	if cfg.Log.FileEnabled {
		logDir = cfg.Log.Dir
	}
	log := logger.NewLogger(logDir, cfg.Log.Service)
	defer log.Close()

	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}
	log.Info("APP", "Starting ticketing service initialization")

	ctx := context.Background()

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if err := prepareSchema(ctx, cfg.Database, bunDB, log); err != nil {
		log.Fatal("MIGRATE", err.Error())
	}

	proofSecret, err := cfg.ProofSecret()
	if err != nil {
		log.Fatal("CONFIG", err.Error())
	}

	var locks *seatlock.SeatLock
	if redisClient := connectRedis(ctx, cfg.Redis, log); redisClient != nil {
		defer redisClient.Close()
		locks = seatlock.NewSeatLock(redisClient, cfg.Redis.SeatLockTTL, log)
	}

	pub, closePublisher := setupKafka(cfg.Kafka, log)
	defer closePublisher()

	verifier, err := auth.NewVerifier(ctx, cfg.Auth)
	if err != nil {
		log.Fatal("AUTH", err.Error())
	}

	a := &app{
		cfg:       cfg,
		logger:    log,
		db:        bunDB,
		locks:     locks,
		proofs:    qr.NewQRGenerator(proofSecret, cfg.Booking.QRSize),
		publisher: pub,
		verifier:  verifier,
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      a.router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Ticketing service running on %s", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Ticketing service shutdown complete")
	}
}
