package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"udan-bangla-backend/internal/handlers"
	"udan-bangla-backend/internal/metrics"
	"udan-bangla-backend/internal/middleware"
	"udan-bangla-backend/internal/websocket"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Quiz         *handlers.QuizHandler
	Profile      *handlers.ProfileHandler
	Admin        *handlers.AdminHandler
	Subscription *handlers.SubscriptionHandler
	Job          *handlers.JobHandler
}

func New(jwtAuth *middleware.JWTAuth, h Handlers, wsHub *websocket.Hub, frontendURL string) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(frontendURL))
	r.Use(metrics.Middleware)

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","ws_users":%d}`, wsHub.ConnectedUsers())
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Post("/phone/request-otp", h.Auth.RequestOTP)
			r.Post("/phone/verify", h.Auth.VerifyOTP)
			r.Post("/google", h.Auth.Google)
			r.Post("/refresh", h.Auth.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", h.Auth.Logout)
			})
		})

		// ──── Catalogue (public) ────
		r.Get("/topics", handlers.ListTopics)
		r.Get("/plans", handlers.ListPlans)

		// ──── Quiz Routes ────
		r.Route("/quizzes", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/start", h.Quiz.Start)
			r.Get("/{id}", h.Quiz.Get)
			r.Post("/{id}/select", h.Quiz.SelectOption)
			r.Post("/{id}/submit", h.Quiz.Submit)
			r.Post("/{id}/advance", h.Quiz.Advance)
			r.Get("/{id}/result", h.Quiz.Result)
		})

		// ──── Profile Routes ────
		r.Route("/profile", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", h.Profile.Get)
			r.Put("/", h.Profile.Update)
			r.Get("/stats", h.Profile.Stats)
			r.Get("/results", h.Profile.Results)
		})

		// ──── Subscription Routes ────
		r.Route("/subscriptions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/orders", h.Subscription.CreateOrder)
			r.Post("/verify", h.Subscription.Verify)
		})

		// ──── Admin Routes ────
		r.Route("/admin", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(middleware.RequireAdmin)
			r.Get("/overview", h.Admin.Overview)

			r.Route("/topics/{topicID}/questions", func(r chi.Router) {
				r.Get("/", h.Admin.ListQuestions)
				r.Post("/", h.Admin.AddQuestion)
				r.Delete("/", h.Admin.ClearTopic)
				r.Post("/import", h.Admin.ImportCSV)
				r.Post("/generate", h.Admin.GenerateBank)
				r.Delete("/{questionID}", h.Admin.DeleteQuestion)
			})
		})

		// ──── Job Routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", h.Job.GetJob)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
