// Package config provides configuration for the guide service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int
	Env      string

	// LLM provider
	LLMMode           string
	OpenAIBaseURL     string
	OpenAIAPIKey      string
	Model             string
	LLMTimeout        time.Duration
	StreamMaxDuration time.Duration
	StaleGuideAfter   time.Duration

	// Document store
	StoreDriver   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	// Image search and maps
	RedisAddr         string
	ImageCacheTTL     time.Duration
	GoogleMapsAPIKey  string
	UnsplashAccessKey string
	TavilyAPIKey      string
	CityRadiusKm      float64

	// Auth and quotas
	JWTSecret        string
	DeviceDailyLimit int
	RateLimitMax     int
	RateLimitWindow  time.Duration
	CORSOrigins      []string

	// Observability
	LogLevel   string
	OtelStdout bool
}

// Load loads configuration from an optional .env file and the environment.
func Load() *Config {
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "development")
	rateLimitDefault := 1000
	if env == "production" {
		rateLimitDefault = 100
	}

	cfg := &Config{
		HTTPPort:          getEnvInt("PORT", 4000),
		Env:               env,
		LLMMode:           strings.ToUpper(getEnv("GUIDE_MODE", "")),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		Model:             getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMTimeout:        time.Duration(getEnvInt("LLM_TIMEOUT_MS", 100000)) * time.Millisecond,
		StreamMaxDuration: time.Duration(getEnvInt("STREAM_MAX_DURATION_MS", 0)) * time.Millisecond,
		StaleGuideAfter:   time.Duration(getEnvInt("STALE_GUIDE_AFTER_MS", 900000)) * time.Millisecond,
		StoreDriver:       getEnv("STORE_DRIVER", "sqlite"),
		DatabaseURL:       getEnv("DATABASE_URL", "file:guides.db?cache=shared&mode=rwc"),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:     getEnv("MONGO_DATABASE", "tourify"),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		ImageCacheTTL:     time.Duration(getEnvInt("IMAGE_CACHE_TTL_MS", 3600000)) * time.Millisecond,
		GoogleMapsAPIKey:  getEnv("GOOGLE_MAPS_API_KEY", ""),
		UnsplashAccessKey: getEnv("UNSPLASH_ACCESS_KEY", ""),
		TavilyAPIKey:      getEnv("TAVILY_API_KEY", ""),
		CityRadiusKm:      getEnvFloat("CITY_RADIUS_KM", 40),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		DeviceDailyLimit:  getEnvInt("DEVICE_DAILY_LIMIT", 3),
		RateLimitMax:      getEnvInt("RATE_LIMIT_MAX", rateLimitDefault),
		RateLimitWindow:   time.Duration(getEnvInt("RATE_LIMIT_WINDOW_MS", 900000)) * time.Millisecond,
		CORSOrigins:       getEnvList("CORS_ORIGINS", []string{"https://tourify.app", "https://*.tourify.app"}),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		OtelStdout:        getEnvBool("OTEL_STDOUT", false),
	}
	return cfg
}

// Production reports whether client-facing error details must be suppressed.
func (c *Config) Production() bool {
	return c.Env == "production"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
