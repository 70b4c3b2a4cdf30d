package web

import (
	"context"
	"net/http"

	"csv-insights/config"
	"csv-insights/web/handlers"
	"csv-insights/web/middleware"
	"csv-insights/web/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	router   *gin.Engine
	logger   *zap.Logger
	config   *config.Config
	sessions *services.SessionService
	limiter  *middleware.SessionRateLimiter

	responder services.Responder
	qaAgent   services.QAAgent
}

// NewServer wires the services and routes. The responder backs the chat page
// and the agent backs the ask page.
func NewServer(cfg *config.Config, logger *zap.Logger, responder services.Responder, qaAgent services.QAAgent) (*Server, error) {
	// Set Gin mode based on environment
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	sessions, err := services.NewSessionService(cfg.SessionCapacity, logger)
	if err != nil {
		return nil, err
	}

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		// Add logger to context
		c.Set("logger", logger)
		c.Next()
	})
	router.Use(middleware.SessionMiddleware(logger))

	limiter := middleware.NewSessionRateLimiter(middleware.RateLimiterConfig{
		MessagesPerMinute: cfg.RateLimitMessagesPerMin,
		FilesPerHour:      cfg.RateLimitFilesPerHour,
		BurstSize:         cfg.RateLimitBurstSize,
	}, logger)

	server := &Server{
		router:    router,
		logger:    logger,
		config:    cfg,
		sessions:  sessions,
		limiter:   limiter,
		responder: responder,
		qaAgent:   qaAgent,
	}

	server.setupRoutes()
	return server, nil
}

func (s *Server) setupRoutes() {
	dashboardHandler := handlers.NewDashboardHandler(
		services.NewVisualizationService(s.logger), s.config.MaxUploadBytes, s.logger)
	chatHandler := handlers.NewChatHandler(
		services.NewChatService(s.responder, s.logger), s.sessions, s.config.MaxUploadBytes, s.logger)
	qaHandler := handlers.NewQAHandler(
		services.NewQAService(s.qaAgent, s.config.QAMaxAnswerChars, s.logger), s.config.MaxUploadBytes, s.logger)

	limitMessages := middleware.RateLimitMiddleware(s.limiter, middleware.LimitMessage)
	limitFiles := middleware.RateLimitMiddleware(s.limiter, middleware.LimitFile)

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.sessions.Len()})
	})

	// Web routes
	s.router.GET("/", dashboardHandler.Index)
	s.router.POST("/visualize", limitMessages, dashboardHandler.Visualize)

	s.router.GET("/chat", chatHandler.Index)
	s.router.POST("/chat/message", limitMessages, chatHandler.SendMessage)
	s.router.POST("/chat/upload", limitFiles, chatHandler.UploadFile)

	s.router.GET("/ask", qaHandler.Index)
	s.router.POST("/ask", limitMessages, qaHandler.Ask)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Cleanup returns a cleanup service over this server's sessions and rate limits.
func (s *Server) Cleanup() *CleanupService {
	return NewCleanupService(s.sessions, s.limiter, s.logger)
}

func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))

	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Web server failed to start", zap.Error(err))
		}
	}()

	// Wait for context cancellation
	<-ctx.Done()

	s.logger.Info("Shutting down web server")
	return srv.Shutdown(context.Background())
}
