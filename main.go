package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leaderboard-service/config"
	"leaderboard-service/handlers"
	"leaderboard-service/middleware"
	"leaderboard-service/models"
	"leaderboard-service/services"
	"leaderboard-service/utils"
	"leaderboard-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration: ", err)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout: 30 * time.Second,
	})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-Service-Token",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}

	if err := db.AutoMigrate(&models.ScoreRecord{}); err != nil {
		log.Fatal("failed to migrate database: ", err)
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal("invalid REDIS_URL: ", err)
		}
		cache = redis.NewClient(opts)
	} else {
		log.Println("⚠️  REDIS_URL not set, leader caching disabled")
	}

	authClient := services.NewAuthServiceClient(cfg.AuthServiceURL, cfg.ServiceToken, cfg.AuthTimeout)
	scoreService := services.NewScoreService(db, cache)
	registry := services.NewRegistryService()
	hub := services.NewPushHub()
	streamService := services.NewStreamService(hub, registry)
	fanout := services.NewFanoutService(registry, hub, cfg.DeliveryTimeout)
	submissionService := services.NewSubmissionService(authClient, scoreService, fanout, cfg.AuthTimeout, cfg.StoreTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go workers.SweepRegistry(ctx, registry, cfg.ConnectionRetention, time.Hour)

	if cfg.SnapshotsEnabled() {
		if err := utils.InitR2(cfg); err != nil {
			log.Fatal("failed to initialize R2 client: ", err)
		}
		workers.NewSnapshotWorker(scoreService, cfg.SnapshotInterval, cfg.SnapshotTopN).Start()
		log.Printf("✅ Leaderboard snapshots running (every %s)", cfg.SnapshotInterval)
	} else {
		log.Println("⚠️  R2 not configured, leaderboard snapshots disabled")
	}

	handlers.SetupScoreRoutes(app, submissionService, scoreService, streamService, authClient)

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on %s", cfg.ListenAddr)
	log.Println("✅ Registry sweep running")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
