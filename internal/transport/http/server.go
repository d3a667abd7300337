// Package http provides the HTTP server implementation for the guide API.
package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/tourify/guide-api/internal/adapter/auth"
	"github.com/tourify/guide-api/internal/config"
	"github.com/tourify/guide-api/internal/logger"
	"github.com/tourify/guide-api/internal/service"
	v1 "github.com/tourify/guide-api/internal/transport/http/v1"
)

// BodyLimit caps request bodies.
const BodyLimit = "10K"

// NewServer creates and configures the HTTP server.
func NewServer(svc *service.Service, verifier *auth.Verifier, cfg *config.Config, log *logger.Logger) *echo.Echo {
	if log == nil {
		log = logger.Nop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(requestLogger(log))
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(corsConfig(cfg)))
	e.Use(middleware.BodyLimit(BodyLimit))
	if cfg.RateLimitMax > 0 {
		e.Use(rateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow))
	}

	// Handlers
	v1Handler := v1.NewHandler(svc, verifier, cfg, log)

	// Register Routes
	v1Handler.RegisterRoutes(e)

	return e
}

func corsConfig(cfg *config.Config) middleware.CORSConfig {
	origins := []string{"*"}
	if cfg.Production() && len(cfg.CORSOrigins) > 0 {
		origins = cfg.CORSOrigins
	}
	return middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, v1.HeaderDeviceFingerprint},
		MaxAge:       86400,
	}
}

// rateLimiter allows max requests per window for each client IP.
func rateLimiter(max int, window time.Duration) echo.MiddlewareFunc {
	if window <= 0 {
		window = time.Minute
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(max) / window.Seconds()),
		Burst:     max,
		ExpiresIn: window,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]any{"success": false, "error": "rate limiter error"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]any{"success": false, "error": "too many requests"})
		},
	})
}

func requestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			kv := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"remote_ip", v.RemoteIP,
			}
			if v.Error != nil {
				log.Warn("request", append(kv, "error", v.Error)...)
				return nil
			}
			log.Info("request", kv...)
			return nil
		},
	})
}
