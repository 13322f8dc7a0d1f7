package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"skillshare/internal/config"
	"skillshare/internal/database"
	"skillshare/internal/handlers"
	"skillshare/internal/jobs"
	"skillshare/internal/logging"
	"skillshare/internal/mail"
	"skillshare/internal/middleware"
	"skillshare/internal/realtime"
	"skillshare/internal/services"
	"skillshare/pkg/auth"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	}

	logging.Init()
	cfg := config.Load()

	if cfg.MongoURI == "" {
		log.Fatal("❌ MONGODB_URI is required")
	}

	// Database
	mongoDB, err := database.NewMongoDB(cfg.MongoURI)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	if err := mongoDB.Initialize(initCtx); err != nil {
		log.Fatalf("❌ Failed to initialize MongoDB: %v", err)
	}
	cancelInit()

	// Realtime hub, optionally bridged across instances via Redis
	hub := realtime.NewHub()

	var redisService *services.RedisService
	var bridge *realtime.RedisBridge
	if cfg.RedisURL != "" {
		redisService, err = services.NewRedisService(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, running single-instance: %v", err)
		} else {
			bridge = realtime.NewRedisBridge(redisService.Client(), hub, uuid.NewString())
			if err := bridge.Start(); err != nil {
				log.Printf("⚠️  Redis bridge failed to start: %v", err)
				bridge = nil
			} else {
				hub.SetBridge(bridge)
			}
		}
	}

	// Services
	cache := services.NewProfileCacheService(cfg.ProfileCacheTTL)
	mailer := mail.NewService(cfg.SendGridAPIKey, cfg.FromEmail)

	userService := services.NewUserService(mongoDB, cache, mailer)
	statsService := services.NewStatsService(mongoDB, cache, hub, cfg.StatsMaxAge)
	scorerService := services.NewScorerService(mongoDB)
	matchService := services.NewMatchService(mongoDB, cache, hub, mailer)
	sessionService := services.NewSessionService(mongoDB, cache, hub, mailer)
	messageService := services.NewMessageService(mongoDB, hub, matchService)
	projectService := services.NewProjectService(mongoDB, hub, mailer)
	taskService := services.NewTaskService(mongoDB)

	// Auth
	var verifier *auth.JWTVerifier
	if cfg.JWTSecret != "" {
		verifier, err = auth.NewJWTVerifier(cfg.JWTSecret)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT verifier: %v", err)
		}
	} else if cfg.IsProduction() {
		log.Fatal("❌ JWT_SECRET is required in production")
	}

	// Background jobs
	jobScheduler := jobs.NewJobScheduler()
	jobScheduler.Register("stats_sweep", jobs.NewStatsSweepJob(mongoDB, statsService, cfg.StatsMaxAge))
	jobScheduler.Register("missed_sessions", jobs.NewMissedSessionsJob(mongoDB))
	if err := jobScheduler.Start(); err != nil {
		log.Printf("⚠️  Job scheduler failed to start: %v", err)
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "SkillShare v1.0",
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    2 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	prometheus := fiberprometheus.New("skillshare")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: cfg.FrontendURL != "*",
	}))

	// Handlers
	healthHandler := handlers.NewHealthHandler(mongoDB, redisService, hub)
	userHandler := handlers.NewUserHandler(userService, statsService, cfg.DailyGoalTarget)
	matchHandler := handlers.NewMatchHandler(scorerService, matchService, statsService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	messageHandler := handlers.NewMessageHandler(messageService)
	projectHandler := handlers.NewProjectHandler(projectService)
	taskHandler := handlers.NewTaskHandler(taskService)
	wsHandler := handlers.NewWebSocketHandler(hub, messageService)

	authRequired := middleware.AuthMiddleware(verifier)

	app.Get("/health", healthHandler.Handle)

	users := app.Group("/users", authRequired)
	users.Post("/", userHandler.Create)
	users.Get("/me", userHandler.Me)
	users.Put("/me", userHandler.UpdateMe)
	users.Post("/check-in", userHandler.CheckIn)
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.Get)
	users.Post("/:id/trust", userHandler.Trust)

	matches := app.Group("/matches", authRequired)
	matches.Get("/suggestions", matchHandler.Suggestions)
	matches.Post("/saved", matchHandler.Save)
	matches.Get("/saved", matchHandler.Saved)
	matches.Delete("/saved/:matchedUserId", matchHandler.Unsave)

	app.Get("/leaderboard", authRequired, matchHandler.Leaderboard)

	sessions := app.Group("/sessions", authRequired)
	sessions.Post("/", sessionHandler.Create)
	sessions.Get("/", sessionHandler.List)
	sessions.Put("/:id", sessionHandler.Update)

	messages := app.Group("/messages", authRequired)
	messages.Get("/history/:otherUserId", messageHandler.History)
	messages.Get("/contacts", messageHandler.Contacts)

	tasks := app.Group("/tasks", authRequired)
	tasks.Post("/", taskHandler.Create)
	tasks.Get("/", taskHandler.List)

	projects := app.Group("/projects", authRequired)
	projects.Get("/", projectHandler.List)
	projects.Post("/", projectHandler.Create)
	projects.Delete("/:id", projectHandler.Delete)
	projects.Post("/:id/join", projectHandler.Join)
	projects.Post("/:id/accept-invite", projectHandler.AcceptInvite)

	// WebSocket route (requires auth)
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Use("/ws", authRequired)
	app.Get("/ws", websocket.New(wsHandler.Handle, websocket.Config{
		Origins: strings.Split(cfg.FrontendURL, ","),
	}))

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		jobScheduler.Stop()

		if bridge != nil {
			if err := bridge.Stop(); err != nil {
				log.Printf("⚠️ Error stopping Redis bridge: %v", err)
			}
		}
		if redisService != nil {
			if err := redisService.Close(); err != nil {
				log.Printf("⚠️ Error closing Redis: %v", err)
			}
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mongoDB.Close(shutdownCtx); err != nil {
			log.Printf("⚠️ Error closing MongoDB: %v", err)
		}
	}()

	log.Printf("🚀 SkillShare backend listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
