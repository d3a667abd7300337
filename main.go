package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tourify/guide-api/internal/adapter/auth"
	"github.com/tourify/guide-api/internal/adapter/images"
	"github.com/tourify/guide-api/internal/adapter/llm"
	"github.com/tourify/guide-api/internal/adapter/maps"
	"github.com/tourify/guide-api/internal/config"
	"github.com/tourify/guide-api/internal/logger"
	"github.com/tourify/guide-api/internal/observability"
	"github.com/tourify/guide-api/internal/repository"
	"github.com/tourify/guide-api/internal/service"
	handler "github.com/tourify/guide-api/internal/transport/http"
	"github.com/tourify/guide-api/policy"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting guide api", "port", cfg.HTTPPort, "env", cfg.Env, "store", cfg.StoreDriver, "model", cfg.Model)

	shutdownTracing := observability.InitTracing(ctx, log, observability.TracingConfig{
		Enabled:     cfg.OtelStdout,
		Environment: cfg.Env,
	})

	// Initialize store
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("failed to initialize store", "driver", cfg.StoreDriver, "error", err)
	}
	defer store.Close()

	// Initialize policy engine
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatal("failed to initialize policy engine", "error", err)
	}

	llmClient := llm.NewLLMClient(llm.Settings{
		Mode:    cfg.LLMMode,
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Timeout: cfg.LLMTimeout,
	})

	deps := service.Dependencies{
		LLM:     llmClient,
		Guides:  repository.NewGuideRepository(store),
		Devices: repository.NewDeviceRepository(store),
		Calls:   repository.NewLLMCallRepository(store),
		Policy:  policyEngine,
	}

	if cfg.GoogleMapsAPIKey != "" {
		geocoder, err := maps.NewClient(cfg.GoogleMapsAPIKey)
		if err != nil {
			log.Fatal("failed to initialize maps client", "error", err)
		}
		deps.Geocoder = geocoder
	} else {
		log.Warn("GOOGLE_MAPS_API_KEY not set, location endpoints disabled")
	}

	cache := imageCache(ctx, cfg, log)
	if cfg.UnsplashAccessKey != "" {
		deps.CityImages = images.NewCachedSearcher(images.NewUnsplash("", cfg.UnsplashAccessKey), cache)
	} else {
		log.Warn("UNSPLASH_ACCESS_KEY not set, city images disabled")
	}
	if cfg.TavilyAPIKey != "" {
		deps.DiscoverImages = images.NewCachedSearcher(images.NewTavily("", cfg.TavilyAPIKey), cache)
	} else {
		log.Warn("TAVILY_API_KEY not set, discovery suggestions will be skipped")
	}
	if cfg.LLMMode == llm.ModeMock {
		log.Warn("GUIDE_MODE=MOCK, using scripted LLM responses")
	}
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, authenticated endpoints will reject every token")
	}

	// Initialize service
	svc := service.New(deps, cfg, log)
	go svc.RunStaleGuideMonitor(ctx, time.Minute)

	e := handler.NewServer(svc, auth.NewVerifier(cfg.JWTSecret), cfg, log)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", "error", err)
		}
	}()
	log.Info("guide api started", "port", cfg.HTTPPort)

	// Wait for interrupt signal
	<-ctx.Done()
	log.Info("shutting down guide api")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn("failed to shutdown server gracefully", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("failed to flush traces", "error", err)
	}

	log.Info("guide api stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (repository.DocumentStore, error) {
	switch cfg.StoreDriver {
	case "mongo", "mongodb":
		return repository.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case "sqlite", "":
		return repository.NewSQLiteStore(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// imageCache shares image lookups through redis when configured, else in process.
func imageCache(ctx context.Context, cfg *config.Config, log *logger.Logger) images.Cache {
	if cfg.RedisAddr == "" {
		return images.NewLocalCache(cfg.ImageCacheTTL)
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, using local image cache", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return images.NewLocalCache(cfg.ImageCacheTTL)
	}
	return images.NewRedisCache(client, cfg.ImageCacheTTL)
}
