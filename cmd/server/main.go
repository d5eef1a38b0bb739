package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/heartwire/heartwire/internal/cache"
	"github.com/heartwire/heartwire/internal/compat"
	"github.com/heartwire/heartwire/internal/errors"
	"github.com/heartwire/heartwire/internal/matching"
	"github.com/heartwire/heartwire/internal/monitoring"
	"github.com/heartwire/heartwire/internal/profiles"
	"github.com/heartwire/heartwire/internal/ratelimit"
	"github.com/heartwire/heartwire/internal/security"
	"github.com/heartwire/heartwire/internal/types"
)

func main() {
	// Structured logging setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment with defaults
	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	port := getEnvOrDefault("PORT", "8080")
	redisAddr := os.Getenv("REDIS_ADDR")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := getEnvIntOrDefault("REDIS_DB", 0)
	retentionDays := getEnvIntOrDefault("MATCH_RETENTION_DAYS", 365)

	// Initialize database and repository
	db, err := profiles.NewDB(dataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := profiles.NewRepository(db)

	// Initialize monitoring system
	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()
	appLogger.SetLevel(parseLogLevel(getEnvOrDefault("LOG_LEVEL", "info")))

	// Initialize matching service
	matchService := matching.NewService(repo, appMetrics)

	// Schedule match history cleanup (runs daily)
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			pruned, err := repo.PruneMatchHistory(retentionDays)
			if err != nil {
				slog.Error("Failed to prune match history", "error", err)
				continue
			}
			if pruned > 0 {
				slog.Info("Pruned match history", "rows", pruned, "retention_days", retentionDays)
			}
		}
	}()

	// Initialize rate limiting with Redis backing and in-memory fallback
	redisClient, err := ratelimit.NewRedisClient(redisAddr, redisPassword, redisDB)
	if err != nil {
		slog.Warn("Redis unavailable, rate limiting falls back to in-memory", "error", err)
	}
	rateLimiter := ratelimit.NewRateLimiter(redisClient, ratelimit.DefaultConfig(), appMetrics)

	r := gin.New()

	// Add monitoring middleware first (to capture all requests)
	r.Use(monitoring.MonitoringMiddleware(appMetrics, appLogger))
	r.Use(monitoring.SecurityMonitoringMiddleware(appLogger))

	// Add error handling middleware
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	// Security middleware setup
	securityConfig := security.DefaultSecurityConfig()
	securityMiddleware := security.NewSecurityMiddleware(securityConfig)

	r.Use(securityMiddleware.SecurityHeaders)
	r.Use(securityMiddleware.RequestTimeout)
	r.Use(securityMiddleware.ValidateContentType)
	r.Use(securityMiddleware.LimitBodySize)

	if securityConfig.EnableCORS {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     securityConfig.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}
	if err := r.SetTrustedProxies(securityConfig.TrustedProxies); err != nil {
		slog.Error("Failed to set trusted proxies", "error", err)
		os.Exit(1)
	}

	// Rate limiting middleware
	r.Use(rateLimiter.IPRateLimitMiddleware())
	r.Use(rateLimiter.ScanRateLimitMiddleware())

	// Initialize cache (15 minutes TTL) for the pure scoring endpoints
	appCache := cache.New(15 * time.Minute)
	r.Use(appCache.Middleware(appMetrics, "/compatibility", "/similarity/vector"))

	r.GET("/health", func(c *gin.Context) {
		profileCount, err := repo.CountProfiles()
		status := "ok"
		httpStatus := http.StatusOK
		if err != nil {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   "1.0.0",
			"profiles":  profileCount,
			"database":  db.PoolStats(),
			"metrics":   appMetrics.GetStats(),
		})
	})

	// Compatibility scoring endpoint. Scoring is pure and fail-soft, so a
	// well-formed request always yields a 200 with a numeric breakdown.
	r.POST("/compatibility", func(c *gin.Context) {
		start := time.Now()

		var req types.ScoreRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			appErr := errors.NewValidationError("invalid compatibility request", err.Error())
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		result := compat.Score(req.ProfileA, req.ProfileB, req.Weights)

		appMetrics.IncrementScoresComputed()
		appLogger.ScoringLogger("compatibility", result.Overall, len(compat.Dimensions), time.Since(start), c.GetBool("cache_hit"))

		c.JSON(http.StatusOK, result)
	})

	// Cosine similarity over raw embedding vectors.
	r.POST("/similarity/vector", func(c *gin.Context) {
		var req types.VectorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			appErr := errors.NewValidationError("invalid vector request", err.Error())
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		c.JSON(http.StatusOK, types.VectorResponse{
			Similarity: compat.CosineSimilarity(req.A, req.B),
		})
	})

	// Profile registry endpoints
	r.POST("/profiles", func(c *gin.Context) {
		var req types.CreateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			appErr := errors.NewValidationError("invalid profile request", err.Error())
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		profile := profiles.NewStoredProfile(req.DisplayName, req.Attributes)
		if err := repo.CreateProfile(profile); err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		// A new profile changes every candidate ranking
		matchService.Cache().Clear()

		slog.Info("Profile created", "profile_id", profile.ID)
		c.JSON(http.StatusCreated, profile)
	})

	r.GET("/profiles/:id", func(c *gin.Context) {
		profile, err := repo.GetProfile(c.Param("id"))
		if err != nil {
			if err == profiles.ErrNotFound {
				appErr := errors.NewNotFoundError("profile", c.Param("id"))
				errors.LogError(c, appErr)
				c.JSON(appErr.HTTPStatus, appErr)
				return
			}
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		c.JSON(http.StatusOK, profile)
	})

	r.DELETE("/profiles/:id", func(c *gin.Context) {
		id := c.Param("id")
		if err := repo.DeleteProfile(id); err != nil {
			if err == profiles.ErrNotFound {
				appErr := errors.NewNotFoundError("profile", id)
				errors.LogError(c, appErr)
				c.JSON(appErr.HTTPStatus, appErr)
				return
			}
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		matchService.Cache().Clear()

		slog.Info("Profile deleted", "profile_id", id)
		c.JSON(http.StatusOK, gin.H{"message": "profile deleted", "profile_id": id})
	})

	r.GET("/profiles/:id/candidates", func(c *gin.Context) {
		id := c.Param("id")
		limit := 20

		if limitStr := c.Query("limit"); limitStr != "" {
			if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
				limit = l
			}
		}

		response, err := matchService.TopCandidates(c.Request.Context(), id, limit)
		if err != nil {
			if err == profiles.ErrNotFound {
				appErr := errors.NewNotFoundError("profile", id)
				errors.LogError(c, appErr)
				c.JSON(appErr.HTTPStatus, appErr)
				return
			}
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		c.JSON(http.StatusOK, response)
	})

	r.GET("/profiles/:id/matches", func(c *gin.Context) {
		id := c.Param("id")
		limit := 50

		if limitStr := c.Query("limit"); limitStr != "" {
			if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
				limit = l
			}
		}

		records, err := matchService.History(id, limit)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"profile_id": id,
			"matches":    records,
		})
	})

	// Swagger documentation routes
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Metrics endpoint
	r.GET("/metrics", func(c *gin.Context) {
		stats := appMetrics.GetStats()
		c.JSON(http.StatusOK, stats)
	})

	// Cache stats endpoint
	r.GET("/cache/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"response_cache": appCache.Stats(),
			"match_cache":    matchService.Cache().Stats(),
		})
	})

	// Database pool stats endpoint
	r.GET("/pools/database", func(c *gin.Context) {
		stats := db.PoolStats()
		c.JSON(http.StatusOK, gin.H{
			"pool":  "database",
			"stats": stats,
		})
	})

	// Redis pool stats endpoint
	r.GET("/pools/redis", func(c *gin.Context) {
		stats := redisClient.GetPoolStats()
		c.JSON(http.StatusOK, gin.H{
			"pool":  "redis",
			"stats": stats,
		})
	})

	// Rate limiter stats endpoint
	r.GET("/ratelimit/stats", func(c *gin.Context) {
		stats := rateLimiter.GetStats()
		c.JSON(http.StatusOK, stats)
	})

	// Performance profiling endpoints (development only)
	if os.Getenv("ENABLE_PROFILING") == "true" {
		slog.Info("Enabling performance profiling endpoints")
		r.GET("/debug/pprof/*filepath", gin.WrapF(pprof.Index))
		r.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
		r.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
		r.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
		r.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	}

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("Failed to close Redis client", "error", err)
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

// Helper function for environment variables with defaults
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func parseLogLevel(value string) slog.Level {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
