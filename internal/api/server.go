package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"market-analyzer/config"
	"market-analyzer/internal/aggregator"
	"market-analyzer/internal/events"
	"market-analyzer/internal/provider"
	"market-analyzer/internal/scanner"
	"market-analyzer/internal/store"
)

// RateLimiter provides simple in-memory rate limiting per client
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int           // max requests
	window   time.Duration // time window
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow checks if a request is allowed for the given key
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-r.window)

	var recent []time.Time
	for _, t := range r.requests[key] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.limit {
		r.requests[key] = recent
		return false
	}

	r.requests[key] = append(recent, now)
	return true
}

// Server exposes the analysis pipeline over HTTP and WebSocket
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	cfg         config.ServerConfig
	provider    *provider.MemoryProvider
	aggregator  *aggregator.Aggregator
	scanner     *scanner.Scanner
	eventBus    *events.EventBus
	reportCache *scanner.ReportCache
	redisCache  *store.RedisCache  // may be nil
	scanHistory *store.ScanHistory // may be nil
	hub         *WSHub
	rateLimiter *RateLimiter
	authCfg     config.AuthConfig
	logger      zerolog.Logger
	startedAt   time.Time
}

// Deps bundles the server's collaborators. RedisCache and ScanHistory
// may be nil when the corresponding backend is disabled.
type Deps struct {
	Provider    *provider.MemoryProvider
	Aggregator  *aggregator.Aggregator
	Scanner     *scanner.Scanner
	EventBus    *events.EventBus
	ReportCache *scanner.ReportCache
	RedisCache  *store.RedisCache
	ScanHistory *store.ScanHistory
}

// NewServer creates the API server and registers its routes
func NewServer(cfg config.ServerConfig, authCfg config.AuthConfig, deps Deps, logger zerolog.Logger) *Server {
	if cfg.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	window := time.Duration(cfg.RateWindowSecs) * time.Second
	if window <= 0 {
		window = time.Minute
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 120
	}

	server := &Server{
		router:      router,
		cfg:         cfg,
		provider:    deps.Provider,
		aggregator:  deps.Aggregator,
		scanner:     deps.Scanner,
		eventBus:    deps.EventBus,
		reportCache: deps.ReportCache,
		redisCache:  deps.RedisCache,
		scanHistory: deps.ScanHistory,
		hub:         NewWSHub(logger),
		rateLimiter: NewRateLimiter(limit, window),
		authCfg:     authCfg,
		logger:      logger,
		startedAt:   time.Now(),
	}

	server.hub.SubscribeTo(deps.EventBus)
	server.setupRoutes()

	return server
}

// requestLogger logs one line per completed request
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client", c.ClientIP()).
			Msg("request handled")
	}
}

// rateLimitMiddleware rejects clients that exceed the request budget
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !s.rateLimiter.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded, please slow down",
			})
			return
		}
		c.Next()
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/api/v1/health", s.handleHealth)
	s.router.GET("/ws", s.handleWebSocket)

	v1 := s.router.Group("/api/v1")
	v1.Use(s.rateLimitMiddleware())
	if s.authCfg.Enabled {
		v1.Use(authMiddleware(s.authCfg.JWTSecret))
	}
	{
		v1.POST("/series/:symbol/:timeframe", s.handleIngestSeries)
		v1.GET("/symbols", s.handleSymbols)
		v1.GET("/analysis/:symbol", s.handleAnalysis)
		v1.POST("/scan", s.handleScan)
		v1.GET("/scan/latest", s.handleLatestScan)
		v1.GET("/scan/history", s.handleScanHistory)
	}
}

// Start runs the HTTP server until the context is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", addr).Msg("api server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// Router exposes the gin engine, used by handler tests
func (s *Server) Router() *gin.Engine {
	return s.router
}
