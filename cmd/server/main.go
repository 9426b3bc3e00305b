package main // Entry point package

import (
	"context" // Context for startup-bound operations
	"log"     // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/room-reservation/internal/booking"    // Admission control engine
	"github.com/iliyamo/room-reservation/internal/config"     // Internal config loader
	"github.com/iliyamo/room-reservation/internal/database"   // MySQL connection and migrations
	"github.com/iliyamo/room-reservation/internal/handler"    // HTTP handlers
	"github.com/iliyamo/room-reservation/internal/middleware" // Rate limiting and response cache
	"github.com/iliyamo/room-reservation/internal/queue"      // Broker payloads and consumer
	"github.com/iliyamo/room-reservation/internal/repository" // DB repositories
	"github.com/iliyamo/room-reservation/internal/router"     // Route registration
	queue_publisher "github.com/iliyamo/room-reservation/internal/service"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	// Open MySQL and bring the schema up to date before serving traffic.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Repositories over the shared pool.
	rooms := repository.NewRoomRepo(db)
	reservations := repository.NewReservationRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	// The booking engine runs admission checks and status transitions on
	// top of the repository-backed store.
	store := repository.NewStore(db, rooms, reservations)
	svc := booking.NewService(store, log.Default())

	reservationHandler := handler.NewReservationHandler(svc, reservations)
	// Confirmed and cancelled reservations are announced on the broker;
	// publishing is best effort and never fails a request.
	reservationHandler.Events = func(ctx context.Context, ev queue.ReservationEvent) error {
		return queue_publisher.PublishReservationEvent(ctx, ev)
	}
	roomHandler := handler.NewRoomHandler(rooms, svc)
	authHandler := handler.NewAuthHandler(cfg, users, tokens)

	e := echo.New() // Create Echo instance

	// Redis backs both the token-bucket rate limiter and the response
	// cache for public reads.  A nil client disables both middlewares.
	rdb := config.NewRedisClient()
	var cacheMW echo.MiddlewareFunc
	if rdb != nil {
		rlCfg := config.LoadRateLimitConfig()
		if rlCfg.Enabled {
			e.Use(middleware.NewTokenBucket(rlCfg, rdb))
		}
		cacheCfg := config.LoadCacheConfig()
		if cacheCfg.Enabled {
			cacheMW = middleware.NewRedisCache(cacheCfg, rdb)
		}
	}

	router.RegisterRoutes(e) // Health check
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterRooms(e, roomHandler, cacheMW, cfg.JWTSecret)
	router.RegisterReservations(e, reservationHandler, cfg.JWTSecret)

	// Background consumer appends reservation events to logs/reservations.log.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation-consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
