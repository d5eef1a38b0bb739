package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/heartwire/heartwire/internal/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterFallbackMode(t *testing.T) {
	// Create rate limiter without Redis (fallback mode)
	redisClient := &RedisClient{enabled: false}
	config := Config{
		IPLimitPerMin:   5,
		ScanLimitPerMin: 5,
		BurstMultiplier: 1,
	}
	metrics := monitoring.NewMetrics()

	limiter := NewRateLimiter(redisClient, config, metrics)

	ctx := context.Background()
	ip := "203.0.113.10"

	// First 5 requests should be allowed (burst == limit with multiplier 1)
	for i := 0; i < 5; i++ {
		result, err := limiter.AllowIP(ctx, ip)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "Request %d should be allowed", i+1)
		assert.Equal(t, 5, result.Limit)
	}

	// 6th request should be blocked
	result, err := limiter.AllowIP(ctx, ip)
	require.NoError(t, err)
	assert.False(t, result.Allowed, "6th request should be blocked")
	assert.Greater(t, result.RetryAfter, time.Duration(0))
}

func TestRateLimiterBurstCapacity(t *testing.T) {
	redisClient := &RedisClient{enabled: false}
	config := Config{
		IPLimitPerMin:   5,
		ScanLimitPerMin: 5,
		BurstMultiplier: 2,
	}
	metrics := monitoring.NewMetrics()

	limiter := NewRateLimiter(redisClient, config, metrics)

	ctx := context.Background()

	// With burst multiplier of 2, we should allow 10 requests initially
	allowedCount := 0
	for i := 0; i < 15; i++ {
		result, err := limiter.AllowIP(ctx, "203.0.113.20")
		require.NoError(t, err)
		if result.Allowed {
			allowedCount++
		}
	}

	assert.GreaterOrEqual(t, allowedCount, 5, "Should allow at least limit amount")
	assert.LessOrEqual(t, allowedCount, 11, "Should not exceed burst + small margin")
}

func TestRateLimiterIndependentIPs(t *testing.T) {
	redisClient := &RedisClient{enabled: false}
	config := Config{
		IPLimitPerMin:   3,
		ScanLimitPerMin: 3,
		BurstMultiplier: 1,
	}
	metrics := monitoring.NewMetrics()

	limiter := NewRateLimiter(redisClient, config, metrics)

	ctx := context.Background()
	ips := []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"}

	// Each IP gets its own budget. Burst floors at 5, so exhaust that.
	for _, ip := range ips {
		for i := 0; i < 5; i++ {
			result, err := limiter.AllowIP(ctx, ip)
			require.NoError(t, err)
			assert.True(t, result.Allowed, "IP %s request %d should be allowed", ip, i+1)
		}

		result, err := limiter.AllowIP(ctx, ip)
		require.NoError(t, err)
		assert.False(t, result.Allowed, "IP %s 6th request should be blocked", ip)
	}
}

func TestScanLimitIndependentFromIPLimit(t *testing.T) {
	redisClient := &RedisClient{enabled: false}
	config := Config{
		IPLimitPerMin:   5,
		ScanLimitPerMin: 5,
		BurstMultiplier: 1,
	}
	metrics := monitoring.NewMetrics()

	limiter := NewRateLimiter(redisClient, config, metrics)

	ctx := context.Background()
	ip := "203.0.113.30"

	// Exhaust the scan budget
	for i := 0; i < 5; i++ {
		result, err := limiter.AllowScan(ctx, ip)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}
	result, err := limiter.AllowScan(ctx, ip)
	require.NoError(t, err)
	assert.False(t, result.Allowed, "scan budget should be exhausted")

	// Plain request budget for the same IP is untouched
	result, err = limiter.AllowIP(ctx, ip)
	require.NoError(t, err)
	assert.True(t, result.Allowed, "IP budget should be independent of scan budget")
}

func TestRateLimiterStats(t *testing.T) {
	redisClient := &RedisClient{enabled: false}
	config := DefaultConfig()
	metrics := monitoring.NewMetrics()

	limiter := NewRateLimiter(redisClient, config, metrics)

	ctx := context.Background()
	_, err := limiter.AllowIP(ctx, "203.0.113.40")
	require.NoError(t, err)

	stats := limiter.GetStats()
	assert.Equal(t, false, stats["redis_enabled"])
	assert.Equal(t, 1, stats["fallback_limiters"])
}

func TestIPRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	redisClient := &RedisClient{enabled: false}
	config := Config{
		IPLimitPerMin:   5,
		ScanLimitPerMin: 5,
		BurstMultiplier: 1,
	}
	metrics := monitoring.NewMetrics()
	limiter := NewRateLimiter(redisClient, config, metrics)

	r := gin.New()
	r.Use(limiter.IPRateLimitMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Requests within the limit pass and carry rate limit headers
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/ping", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}

	// Next request is rejected with 429 and a Retry-After header
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate limit exceeded")
}

func TestScanRateLimitMiddlewareOnlyGuardsScans(t *testing.T) {
	gin.SetMode(gin.TestMode)

	redisClient := &RedisClient{enabled: false}
	config := Config{
		IPLimitPerMin:   100,
		ScanLimitPerMin: 5,
		BurstMultiplier: 1,
	}
	metrics := monitoring.NewMetrics()
	limiter := NewRateLimiter(redisClient, config, metrics)

	r := gin.New()
	r.Use(limiter.ScanRateLimitMiddleware())
	r.GET("/profiles/:id/candidates", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"matches": []string{}})
	})
	r.GET("/profiles/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})

	// Exhaust the scan budget
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/profiles/abc/candidates", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/profiles/abc/candidates", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Non-scan routes are unaffected by the exhausted scan budget
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/profiles/abc", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
