package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	Env         string
	FrontendURL string

	// Storage
	DatabaseURL   string
	RedisURL      string
	MigrationsDir string

	// Auth
	JWTSecret   string
	AdminEmails []string

	// Gemini AI
	GeminiAPIKey         string
	GeminiModel          string
	GeminiConcurrentReqs int

	// Quiz
	QuizQuestionCount int
	QuizSessionTTL    time.Duration

	// Payments
	RazorpayKeyID     string
	RazorpayKeySecret string

	// Workers
	WorkerCount int
}

func Load() *Config {
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  getEnvOrDefault("ENV", "development"),
		FrontendURL:          getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
		DatabaseURL:          mustGetEnv("DATABASE_URL"),
		RedisURL:             mustGetEnv("REDIS_URL"),
		MigrationsDir:        getEnvOrDefault("MIGRATIONS_DIR", "./migrations"),
		JWTSecret:            mustGetEnv("JWT_SECRET"),
		AdminEmails:          getEnvAsListOrDefault("ADMIN_EMAILS", nil),
		GeminiAPIKey:         getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		QuizQuestionCount:    getEnvAsIntOrDefault("QUIZ_QUESTION_COUNT", 5),
		QuizSessionTTL:       time.Duration(getEnvAsIntOrDefault("QUIZ_SESSION_TTL_MINUTES", 120)) * time.Minute,
		RazorpayKeyID:        getEnvOrDefault("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret:    getEnvOrDefault("RAZORPAY_KEY_SECRET", ""),
		WorkerCount:          getEnvAsIntOrDefault("WORKER_COUNT", 4),
	}

	return cfg
}

// IsDevelopment enables the mock OTP and social sign-in shortcuts.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvAsListOrDefault splits a comma-separated value, trimming and
// lowercasing each entry and dropping empties.
func getEnvAsListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
