package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/orbidefence/fraud-detector/configs"
	"github.com/orbidefence/fraud-detector/internal/assess"
	"github.com/orbidefence/fraud-detector/internal/events"
	"github.com/orbidefence/fraud-detector/internal/queue"
	"github.com/orbidefence/fraud-detector/internal/repositories"
	"github.com/orbidefence/fraud-detector/internal/stats"
	"github.com/orbidefence/fraud-detector/internal/web"
)

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	// Load configuration
	cfg := configs.Load()

	// Setup logging
	setupLogging(cfg.Server.Environment)

	log.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("stats_source", cfg.Model.StatsSource).
		Msg("Starting Fraud Detector API Server")

	// Load the statistics table. A missing or broken source is a warning, not
	// a fatal error: the scorer still works, every customer just looks new.
	table, threshold, db := loadStatistics(cfg)

	if db != nil {
		defer db.Close()
	}

	// Optional Redis: assessment cache plus a stream for downstream consumers.
	var streamClient *queue.StreamPublisher
	var cacheClient *queue.CacheClient
	if cfg.Redis.Enabled {
		var err error
		streamClient, err = queue.NewStreamPublisher(cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis Stream unavailable, assessments will not be streamed")
			streamClient = nil
		} else {
			defer streamClient.Close()
		}

		cacheClient, err = queue.NewCacheClient(cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis cache unavailable, recent assessments will be empty")
			cacheClient = nil
		} else {
			defer cacheClient.Close()
		}
	}

	// Optional Kafka mirror of assessment events.
	var kafkaPublisher *events.KafkaPublisher
	if cfg.Kafka.Enabled {
		var err error
		kafkaPublisher, err = events.NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			log.Warn().Err(err).Msg("Kafka unavailable, assessments will not be mirrored")
			kafkaPublisher = nil
		} else {
			defer kafkaPublisher.Close()
		}
	}

	assessService := assess.NewService(table, threshold, cacheClient, streamClient, kafkaPublisher)

	// Setup Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware())
	router.Use(corsMiddleware())

	// Rate limiting: 100 requests per minute per IP
	rateLimiter := NewRateLimiter(100, time.Minute)
	router.Use(rateLimitMiddleware(rateLimiter))

	setupRoutes(router, cfg, assessService, table, db, streamClient, cacheClient, kafkaPublisher)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func setupLogging(env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// loadStatistics builds the customer statistics table and the decision
// threshold from the configured source. Every failure path degrades to an
// empty table and the configured fallback threshold.
func loadStatistics(cfg *configs.Config) (*stats.Table, float64, *repositories.Database) {
	switch cfg.Model.StatsSource {
	case configs.StatsSourceFile:
		artifact, err := stats.LoadArtifact(cfg.Model.ArtifactPath)
		if err != nil {
			log.Warn().Err(err).
				Str("path", cfg.Model.ArtifactPath).
				Msg("Model artifact unavailable, using empty statistics and default threshold")
			return stats.NewTable(nil), cfg.Model.Threshold, nil
		}
		return stats.NewTable(artifact.CustomerStats), artifact.EffectiveThreshold(), nil

	case configs.StatsSourcePostgres:
		db, err := repositories.NewDatabase(cfg.Database)
		if err != nil {
			log.Warn().Err(err).
				Msg("Database unavailable, using empty statistics and default threshold")
			return stats.NewTable(nil), cfg.Model.Threshold, nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		records, err := repositories.NewStatsRepository(db).LoadAll(ctx)
		if err != nil {
			log.Warn().Err(err).
				Msg("Failed to load customer statistics, using empty table")
			return stats.NewTable(nil), cfg.Model.Threshold, db
		}

		log.Info().Int("customers", len(records)).Msg("Customer statistics loaded from database")
		return stats.NewTable(records), cfg.Model.Threshold, db

	case configs.StatsSourceNone:
		return stats.NewTable(nil), cfg.Model.Threshold, nil

	default:
		log.Warn().Str("stats_source", cfg.Model.StatsSource).
			Msg("Unknown statistics source, using empty statistics")
		return stats.NewTable(nil), cfg.Model.Threshold, nil
	}
}

func setupRoutes(
	router *gin.Engine,
	cfg *configs.Config,
	assessService *assess.Service,
	table *stats.Table,
	db *repositories.Database,
	streamClient *queue.StreamPublisher,
	cacheClient *queue.CacheClient,
	kafkaPublisher *events.KafkaPublisher,
) {
	// Browser UI
	router.GET("/", web.PageHandler())

	// Health check
	router.GET("/health", healthHandler(cfg, table, db, streamClient, cacheClient, kafkaPublisher))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/assessments", createAssessmentHandler(assessService))
		v1.GET("/assessments/recent", getRecentAssessmentsHandler(assessService, cacheClient))
		v1.GET("/customers/:id/statistics", getCustomerStatisticsHandler(assessService))
		v1.GET("/model", getModelHandler(assessService, cfg, table))
	}
}

// Middleware

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("%d", time.Now().UnixNano())
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", latency).
			Str("request_id", c.GetString("request_id")).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RateLimiter implements a simple in-memory rate limiter using token bucket algorithm
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
}

type visitor struct {
	tokens   int
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	// Clean up old visitors periodically
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastSeen) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	now := time.Now()

	if !exists {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastSeen: now}
		return true
	}

	// Refill tokens based on time elapsed
	elapsed := now.Sub(v.lastSeen)
	refill := int(elapsed / (rl.window / time.Duration(rl.rate)))
	v.tokens += refill
	if v.tokens > rl.rate {
		v.tokens = rl.rate
	}
	v.lastSeen = now

	if v.tokens > 0 {
		v.tokens--
		return true
	}

	return false
}

func rateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.Allow(ip) {
			c.Header("Retry-After", "60")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": 60,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// Handlers

func healthHandler(
	cfg *configs.Config,
	table *stats.Table,
	db *repositories.Database,
	streamClient *queue.StreamPublisher,
	cacheClient *queue.CacheClient,
	kafkaPublisher *events.KafkaPublisher,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		components := gin.H{
			"statistics": gin.H{
				"source":    cfg.Model.StatsSource,
				"customers": table.Size(),
			},
			"redis_stream": componentStatus(streamClient != nil, cfg.Redis.Enabled),
			"redis_cache":  componentStatus(cacheClient != nil, cfg.Redis.Enabled),
			"kafka":        componentStatus(kafkaPublisher != nil, cfg.Kafka.Enabled),
		}

		if cfg.Model.StatsSource == configs.StatsSourcePostgres {
			dbStatus := "down"
			if db != nil {
				if err := db.HealthCheck(c.Request.Context()); err == nil {
					dbStatus = "up"
				}
			}
			components["database"] = dbStatus
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"timestamp":  time.Now().Format(time.RFC3339),
			"components": components,
		})
	}
}

func componentStatus(connected, enabled bool) string {
	switch {
	case connected:
		return "up"
	case enabled:
		return "down"
	default:
		return "disabled"
	}
}

func createAssessmentHandler(assessService *assess.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req assess.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		assessment, err := assessService.Assess(c.Request.Context(), &req)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, assess.ErrInvalidAmount) || errors.Is(err, assess.ErrInvalidCustomerID) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, assessment)
	}
}

func getRecentAssessmentsHandler(assessService *assess.Service, cacheClient *queue.CacheClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cacheClient == nil {
			c.JSON(http.StatusOK, gin.H{"assessments": []interface{}{}})
			return
		}

		limit := getIntParam(c, "limit", 20)

		assessments, err := assessService.RecentAssessments(c.Request.Context(), int64(limit))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"assessments": assessments})
	}
}

func getCustomerStatisticsHandler(assessService *assess.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || customerID < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
			return
		}

		customerStats, err := assessService.CustomerStatistics(customerID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"customer_id": customerID,
			"statistics":  customerStats,
		})
	}
}

func getModelHandler(assessService *assess.Service, cfg *configs.Config, table *stats.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"threshold":    assessService.Threshold(),
			"stats_source": cfg.Model.StatsSource,
			"customers":    table.Size(),
		})
	}
}

// Helper functions

func getIntParam(c *gin.Context, key string, defaultValue int) int {
	if val := c.Query(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil && result > 0 {
			return result
		}
	}
	return defaultValue
}
