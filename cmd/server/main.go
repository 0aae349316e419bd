package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"udan-bangla-backend/internal/config"
	"udan-bangla-backend/internal/database"
	"udan-bangla-backend/internal/handlers"
	"udan-bangla-backend/internal/metrics"
	"udan-bangla-backend/internal/middleware"
	"udan-bangla-backend/internal/quiz"
	"udan-bangla-backend/internal/repository"
	"udan-bangla-backend/internal/router"
	"udan-bangla-backend/internal/services"
	"udan-bangla-backend/internal/websocket"
	"udan-bangla-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Udan Bangla Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, cfg.MigrationsDir); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	metrics.Init()

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	questionRepo := repository.NewQuestionRepo(pool)
	resultRepo := repository.NewQuizResultRepo(pool)
	statsRepo := repository.NewStatsRepo(pool)
	jobRepo := repository.NewJobRepo(pool)
	orderRepo := repository.NewOrderRepo(pool)

	// ──── Step 5: Initialize Gemini Client ────
	var generator quiz.QuestionGenerator
	if cfg.GeminiAPIKey != "" {
		geminiService, err := services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiConcurrentReqs)
		if err != nil {
			log.Fatalf("✗ Gemini client initialization failed: %v", err)
		}
		defer geminiService.Close()
		generator = geminiService
		log.Printf("✓ Gemini client initialized (%s)", cfg.GeminiModel)
	} else {
		log.Println("⚠ GEMINI_API_KEY not set, question generation disabled")
	}

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	kv := services.NewRedisKV(redisClients.Store)
	jobQueue := services.NewJobQueue(jobRepo, redisClients.Store)

	authService := services.NewAuthService(userRepo, kv, jwtAuth, services.LogOTPSender{}, cfg.AdminEmails, cfg.IsDevelopment())
	selector := quiz.NewSelector(questionRepo, generator, cfg.QuizQuestionCount, nil)
	quizService := services.NewQuizService(selector, services.NewSessionStore(kv, cfg.QuizSessionTTL), services.NewResultReporter(jobQueue))
	profileService := services.NewProfileService(userRepo, statsRepo, resultRepo)
	adminService := services.NewAdminService(questionRepo, userRepo, resultRepo, jobQueue)
	paymentService := services.NewPaymentService(orderRepo, cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	if cfg.RazorpayKeySecret == "" {
		log.Println("⚠ RAZORPAY_KEY_SECRET not set, payments disabled")
	}

	// ──── Step 6: Start Job Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Store,
		jobRepo,
		statsRepo,
		questionRepo,
		generator,
		services.NewNotifier(redisClients.PubSub),
		cfg.WorkerCount,
	)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth, strings.Split(cfg.FrontendURL, ","))
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(jwtAuth, router.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		Quiz:         handlers.NewQuizHandler(quizService),
		Profile:      handlers.NewProfileHandler(profileService),
		Admin:        handlers.NewAdminHandler(adminService),
		Subscription: handlers.NewSubscriptionHandler(paymentService),
		Job:          handlers.NewJobHandler(jobRepo),
	}, wsHub, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Udan Bangla Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
