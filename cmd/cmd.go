package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"couple-diary-backend/internal/config"
	"couple-diary-backend/internal/handlers"
	"couple-diary-backend/internal/middleware"
	"couple-diary-backend/internal/migrations"
	"couple-diary-backend/internal/repository"
	"couple-diary-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load .env if present, real environments set variables directly
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Apply schema migrations
	if err := migrations.Apply(cfg.Database.URL()); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}
	log.Info().Msg("Migrations applied")

	// Connect to redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping redis")
	}
	log.Info().Msg("Redis connection established")

	// Initialize repositories
	profileRepo := repository.NewProfileRepository(db)
	diaryRepo := repository.NewDiaryRepository(db)
	gameRepo := repository.NewGameRepository(db)
	streakRepo := repository.NewStreakRepository(db)
	planRepo := repository.NewPlanRepository(db)

	// Initialize services
	cache := services.NewRedisCache(redisClient)
	authService := services.NewAuthService(profileRepo, cache, cfg.JWT.Secret)
	wsHub := services.NewWSHub(profileRepo)
	notifier, err := services.NewNotificationService(wsHub, profileRepo, services.APNSParams{
		Enabled: cfg.APNS.Enabled,
		KeyFile: cfg.APNS.KeyFile,
		KeyID:   cfg.APNS.KeyID,
		TeamID:  cfg.APNS.TeamID,
		Topic:   cfg.APNS.Topic,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create notification service")
	}
	profileService := services.NewProfileService(profileRepo, cache, notifier)
	diaryService := services.NewDiaryService(diaryRepo, profileRepo, notifier)
	gameService := services.NewGameService(
		gameRepo,
		streakRepo,
		profileRepo,
		notifier,
		cfg.Game.RetryAttempts,
		cfg.Game.RetryDelay,
	)
	planService := services.NewPlanService(planRepo, profileRepo)
	photoService, err := services.NewPhotoService(
		profileRepo,
		cfg.AWS.Region,
		cfg.AWS.S3Bucket,
		cfg.AWS.AccessKey,
		cfg.AWS.SecretKey,
		cfg.AWS.Endpoint,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create photo service")
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	profileHandler := handlers.NewProfileHandler(profileService, photoService)
	diaryHandler := handlers.NewDiaryHandler(diaryService)
	gameHandler := handlers.NewGameHandler(gameService)
	planHandler := handlers.NewPlanHandler(planService)
	photoHandler := handlers.NewPhotoHandler(photoService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, authService, profileService)

	// Setup router
	middleware.InitPrometheus()
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(rateLimiter.Middleware)
	r.Use(middleware.MonitorMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(authService))

			r.Post("/auth/logout", authHandler.Logout)

			r.Get("/profiles/me", profileHandler.GetMe)
			r.Patch("/profiles/me", profileHandler.UpdateMe)
			r.Post("/profiles/me/avatar", profileHandler.Avatar)
			r.Post("/profiles/me/device", profileHandler.RegisterDevice)
			r.Get("/profiles/partner", profileHandler.GetPartner)
			r.Post("/profiles/partner", profileHandler.LinkPartner)
			r.Delete("/profiles/partner", profileHandler.UnlinkPartner)

			r.Get("/entries", diaryHandler.List)
			r.Post("/entries", diaryHandler.Create)
			r.Get("/entries/{entry_id}", diaryHandler.Get)
			r.Put("/entries/{entry_id}", diaryHandler.Update)
			r.Delete("/entries/{entry_id}", diaryHandler.Delete)

			r.Get("/game/today", gameHandler.Today)
			r.Post("/game/answers", gameHandler.SubmitAnswer)
			r.Get("/game/answers", gameHandler.ListAnswers)
			r.Get("/game/streak", gameHandler.Streak)
			r.Post("/game/questions", gameHandler.AddQuestion)
			r.Post("/game/responses/{response_id}/reactions", gameHandler.ToggleReaction)
			r.Get("/game/responses/{response_id}/replies", gameHandler.ListReplies)
			r.Post("/game/responses/{response_id}/replies", gameHandler.AddReply)

			r.Get("/plans", planHandler.List)
			r.Post("/plans", planHandler.Create)
			r.Delete("/plans/{plan_id}", planHandler.Delete)

			r.Post("/photos/upload", photoHandler.Upload)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Metrics route
	r.Group(func(r chi.Router) {
		r.Use(middleware.BasicAuthMiddleware(cfg.Metrics.User, cfg.Metrics.Pass))
		r.Handle("/metrics", promhttp.Handler())
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
