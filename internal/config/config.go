package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret     string
	JWTExpiration time.Duration

	// CORS
	CORSAllowedOrigins []string

	// Battle
	BattleTimeLimit       time.Duration
	BattleDisconnectGrace time.Duration
	DefaultRating         int

	// Judge Service
	JudgeURL     string
	JudgeTimeout time.Duration
}

func Load() (*Config, error) {
	// .env 파일 로드 (있는 경우)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		Env:                   getEnv("ENV", "development"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		RedisURL:              getEnv("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:             getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiration:         parseDuration(getEnv("JWT_EXPIRATION", "24h"), 24*time.Hour),
		BattleTimeLimit:       parseDuration(getEnv("BATTLE_TIME_LIMIT", "30m"), 30*time.Minute),
		BattleDisconnectGrace: parseDuration(getEnv("BATTLE_DISCONNECT_GRACE", "30s"), 30*time.Second),
		DefaultRating:         parseInt(getEnv("DEFAULT_RATING", "1200"), 1200),
		JudgeURL:              getEnv("JUDGE_URL", "http://localhost:8081"),
		JudgeTimeout:          parseDuration(getEnv("JUDGE_TIMEOUT", "30s"), 30*time.Second),
		CORSAllowedOrigins:    splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
	}

	return cfg, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
