package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/modelboard/api/internal/client"
	"github.com/modelboard/api/internal/config"
	"github.com/modelboard/api/internal/handler"
	"github.com/modelboard/api/internal/middleware"
	"github.com/modelboard/api/internal/model"
	"github.com/modelboard/api/internal/repository"
	"github.com/modelboard/api/internal/service"
	"github.com/modelboard/api/internal/translation"
	ws "github.com/modelboard/api/internal/websocket"
	"github.com/modelboard/api/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	redisAvailable := true
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
		redisAvailable = false
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Profile storage
	var profiles repository.ProfileRepository
	if strings.EqualFold(cfg.Storage.Backend, "memory") {
		log.Println("Info: using in-memory profile storage")
		profiles = repository.NewMemoryRepository()
	} else {
		profiles = repository.NewRedisRepository(redisClient)
	}

	// Translation providers
	var primaries []client.Provider
	for _, baseURL := range cfg.Translation.Providers {
		if libre := client.NewLibreTranslateClient(baseURL, cfg.Translation.APIKey, cfg.Translation.Timeout); libre.IsConfigured() {
			primaries = append(primaries, libre)
		}
	}
	var fallback client.Provider
	if myMemory := client.NewMyMemoryClient(cfg.Translation.FallbackURL, cfg.Translation.FallbackEmail, cfg.Translation.Timeout); myMemory.IsConfigured() {
		fallback = myMemory
	} else {
		log.Println("Info: no fallback translation provider configured")
	}

	var cache translation.Cache
	if strings.EqualFold(cfg.Translation.CacheBackend, "redis") && redisAvailable {
		cache = translation.NewRedisCache(redisClient, cfg.Translation.CacheTTL)
	} else {
		cache = translation.NewMemoryCache(cfg.Translation.CacheCapacity)
	}

	chain := translation.NewChain(primaries, fallback, cache, cfg.Translation.Timeout)
	log.Printf("Translation chain ready: %d providers, targets %v", chain.Size(), cfg.Translation.Targets)

	scheduler := translation.NewScheduler(profiles, chain, translation.NewRegistry(), translation.SchedulerConfig{
		Targets: cfg.Translation.Targets,
		Retry: translation.RetryPolicy{
			MaxAttempts:      cfg.Translation.MaxAttempts,
			UnavailableBonus: cfg.Translation.UnavailableBonus,
		},
		TargetDelay: cfg.Translation.TargetDelay,
	})
	scheduler.SetNotifier(hub)

	// Initialize services
	profileService := service.NewProfileService(profiles, scheduler, asynqClient)

	// Initialize handlers
	profileHandler := handler.NewProfileHandler(profileService, validate)
	adminHandler := handler.NewAdminHandler(profileService, validate)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	authHandler := handler.NewAuthHandler(authMiddleware)

	var apiAuthMiddleware fiber.Handler
	if cfg.Gateway.Enabled {
		// Behind Traefik: auth is handled by ForwardAuth, read X-User-* headers
		log.Println("Info: Gateway mode enabled, using header-based auth")
		apiAuthMiddleware = middleware.GatewayAuthMiddleware()
	} else {
		apiAuthMiddleware = authMiddleware.Authenticate()
	}

	var limiterClient *redis.Client
	if redisAvailable {
		limiterClient = redisClient
	}
	rateLimiter := middleware.NewRateLimiter(limiterClient)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    1 * 1024 * 1024, // 1MB
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body} ${reqHeaders}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"redis":       redisAvailable,
				"storage":     cfg.Storage.Backend,
				"providers":   chain.Size(),
				"targets":     scheduler.Targets(),
				"translation": chain.Size() > 0,
			},
		})
	})

	// ForwardAuth verification endpoint (internal, called by Traefik)
	app.Get("/auth/verify", authHandler.Verify)

	// API routes
	api := app.Group("/api", apiAuthMiddleware)

	// Profile routes
	profilesGroup := api.Group("/profiles")
	profilesGroup.Get("/", profileHandler.List)
	profilesGroup.Post("/", rateLimiter.BioLimit(cfg.RateLimit.BioPerHour), profileHandler.Create)
	profilesGroup.Get("/:id", profileHandler.Get)
	profilesGroup.Put("/:id/bio", rateLimiter.BioLimit(cfg.RateLimit.BioPerHour), profileHandler.UpdateBio)
	profilesGroup.Get("/:id/translations", profileHandler.Translations)

	// Operator routes
	admin := api.Group("/admin/translations", middleware.RequireRole(model.RoleAdmin), rateLimiter.RetranslateLimit(cfg.RateLimit.RetranslatePerHour))
	admin.Post("/retranslate", adminHandler.Retranslate)
	admin.Post("/sweep", adminHandler.Sweep)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/profiles/:id/translations", websocket.New(func(c *websocket.Conn) {
		hub.HandleConnection(c, c.Params("id"))
	}))

	// Start Asynq worker server and the periodic sweep
	var workerServer *asynq.Server
	var sweepScheduler *asynq.Scheduler
	if redisAvailable {
		workerServer = startWorkerServer(cfg, redisOpt, profileService)
		sweepScheduler = startSweepScheduler(redisOpt, cfg.Translation.SweepCron)
	} else {
		log.Println("Info: Redis unavailable, translation sweeps disabled")
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if sweepScheduler != nil {
			sweepScheduler.Shutdown()
		}
		if workerServer != nil {
			workerServer.Shutdown()
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(cfg *config.Config, redisOpt asynq.RedisClientOpt, profileService *service.ProfileService) *asynq.Server {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		Queues: map[string]int{
			service.QueueTranslation: 1,
		},
		LogLevel: asynqLogLevel,
	})

	translationWorker := worker.NewTranslationWorker(profileService)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeTranslationSweep, translationWorker.ProcessTask)

	if err := srv.Start(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
		return nil
	}
	return srv
}

func startSweepScheduler(redisOpt asynq.RedisClientOpt, cronspec string) *asynq.Scheduler {
	if cronspec == "" {
		return nil
	}

	task, err := service.NewSweepTask(false, "")
	if err != nil {
		log.Printf("Failed to create sweep task: %v", err)
		return nil
	}

	scheduler := asynq.NewScheduler(redisOpt, nil)
	if _, err := scheduler.Register(cronspec, task, asynq.Queue(service.QueueTranslation)); err != nil {
		log.Printf("Failed to register sweep %q: %v", cronspec, err)
		return nil
	}
	if err := scheduler.Start(); err != nil {
		log.Printf("Asynq scheduler error: %v", err)
		return nil
	}

	log.Printf("Translation sweep scheduled: %s", cronspec)
	return scheduler
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
