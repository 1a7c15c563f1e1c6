package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"omnicore-dashboard/internal/auth"
	"omnicore-dashboard/internal/chat"
	"omnicore-dashboard/internal/database"
	"omnicore-dashboard/internal/events"
	"omnicore-dashboard/internal/logging"
	"omnicore-dashboard/internal/notification"
	"omnicore-dashboard/internal/signal"
)

// RateLimiter provides simple in-memory rate limiting per endpoint
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

// Store is the persistence surface the HTTP handlers need.
type Store interface {
	GetSettings(ctx context.Context, userID string) (*database.UserSettings, error)
	SaveSettings(ctx context.Context, userID string, patch *database.SettingsPatch) error
	ListTrades(ctx context.Context, userID string, filter database.TradeFilter) ([]*database.TradeLog, error)
	GetTrade(ctx context.Context, userID, tradeID string) (*database.TradeLog, error)
}

// Server represents the HTTP API server
type Server struct {
	router       *gin.Engine
	httpServer   *http.Server
	store        Store
	eventBus     *events.EventBus
	orchestrator *signal.Orchestrator
	chatManager  *chat.Manager
	notifier     *notification.Manager
	authService  *auth.Service
	config       ServerConfig
	rateLimiter  *RateLimiter
	hub          *WSHub
	logger       *logging.Logger
	startedAt    time.Time
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	ProductionMode bool
	AllowedOrigins string // comma-separated, "*" for any
}

// NewServer creates a new API server
func NewServer(
	config ServerConfig,
	store Store,
	eventBus *events.EventBus,
	orchestrator *signal.Orchestrator,
	chatManager *chat.Manager,
	notifier *notification.Manager,
	authService *auth.Service,
) *Server {
	if config.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if config.AllowedOrigins == "" || config.AllowedOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = strings.Split(config.AllowedOrigins, ",")
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:       router,
		store:        store,
		eventBus:     eventBus,
		orchestrator: orchestrator,
		chatManager:  chatManager,
		notifier:     notifier,
		authService:  authService,
		config:       config,
		rateLimiter:  NewRateLimiter(120, time.Minute),
		hub:          NewWSHub(),
		logger:       logging.Default().WithComponent("api"),
		startedAt:    time.Now(),
	}

	server.hub.AttachBus(eventBus)
	go server.hub.Run()

	server.setupRoutes()

	return server
}

// rateLimitMiddleware creates a middleware that rate limits requests by endpoint
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	// Streaming and read-only status endpoints are exempt.
	noRateLimitPaths := map[string]bool{
		"/health":               true,
		"/api/ws":               true,
		"/api/signals/state":    true,
		"/api/catalog/brokers":  true,
		"/api/catalog/assets":   true,
		"/api/catalog/personas": true,
	}

	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		if noRateLimitPaths[path] {
			c.Next()
			return
		}

		if !s.rateLimiter.Allow(path) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "RATE_LIMITED",
				"message": "Too many requests to this endpoint. Please slow down.",
				"path":    path,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	authHandlers := auth.NewHandlers(s.authService)
	authGroup := s.router.Group("/api/auth")
	authHandlers.RegisterRoutes(authGroup, s.authService.GetJWTManager())

	api := s.router.Group("/api")
	api.Use(auth.Middleware(s.authService.GetJWTManager()))
	api.Use(s.rateLimitMiddleware())
	{
		// Signal pipeline endpoints
		api.POST("/signals/generate", s.handleGenerateSignal)
		api.POST("/signals/clear", s.handleClearPipeline)
		api.GET("/signals/state", s.handlePipelineState)

		// Trade log endpoints
		api.GET("/trades", s.handleListTrades)
		api.GET("/trades/:id", s.handleGetTrade)
		api.POST("/trades/:id/outcome", s.handleMarkOutcome)

		// Settings endpoints
		api.GET("/settings", s.handleGetSettings)
		api.PUT("/settings", s.handleSaveSettings)

		// Catalog endpoints
		api.GET("/catalog/brokers", s.handleGetBrokers)
		api.GET("/catalog/assets", s.handleGetAssets)
		api.GET("/catalog/durations", s.handleGetDurations)
		api.GET("/catalog/personas", s.handleGetPersonas)

		// Assistant chat endpoints
		api.POST("/chat/sessions", s.handleOpenChat)
		api.POST("/chat/sessions/:id/messages", s.handleChatMessage)
		api.DELETE("/chat/sessions/:id", s.handleCloseChat)

		// WebSocket event stream
		api.GET("/ws", s.handleWebSocket)
	}
}

// Start runs the HTTP server until Shutdown is called
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.WithField("addr", addr).Info("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Router exposes the gin engine for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// handleHealth returns server health status
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"uptime": time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// getUserIDRequired returns the user ID from the context and sends error if not authenticated
func (s *Server) getUserIDRequired(c *gin.Context) (string, bool) {
	userID := auth.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "UNAUTHORIZED",
			"message": "authentication required",
		})
		return "", false
	}
	return userID, true
}
