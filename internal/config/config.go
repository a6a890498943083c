package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env                string
	HTTPAddr           string
	DatabaseURL        string
	AdminJWTSecret     string
	SeedJSON           string
	SynonymsPath       string
	LogLevel           string
	AllowedOrigins     []string
	RateLimitPerMinute int
	RateLimitBurst     int
	RecentSpinWindow   int
}

func Load() Config {
	return Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":"+getEnv("PORT", "8000")),
		DatabaseURL:        mustEnv("DATABASE_URL"),
		AdminJWTSecret:     os.Getenv("ADMIN_JWT_SECRET"),
		SeedJSON:           getEnv("SEED_JSON", "./recipes_expanded.json"),
		SynonymsPath:       os.Getenv("SYNONYMS_PATH"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		AllowedOrigins:     getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 30),
		RecentSpinWindow:   getEnvInt("RECENT_SPIN_WINDOW", 5),
	}
}

// AdminEnabled reports whether admin endpoints can verify tokens.
func (c Config) AdminEnabled() bool {
	return c.AdminJWTSecret != ""
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic("missing env: " + key)
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func AdminTokenTTL() time.Duration {
	return 24 * time.Hour
}
