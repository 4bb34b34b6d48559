package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/ff-image-optimizer/internal/api/middleware"
	"github.com/feral-file/ff-image-optimizer/internal/api/rest"
	"github.com/feral-file/ff-image-optimizer/internal/logger"
	"github.com/feral-file/ff-image-optimizer/internal/media/featuregate"
	"github.com/feral-file/ff-image-optimizer/internal/media/optimizer"
	"github.com/feral-file/ff-image-optimizer/internal/media/status"
)

// Config holds the server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Auth         middleware.AuthConfig
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	optimizer  optimizer.Optimizer
	gate       featuregate.Gate
	tracker    status.Tracker
	httpServer *http.Server
}

// New creates a new API server
func New(cfg Config, opt optimizer.Optimizer, gate featuregate.Gate, tracker status.Tracker) *Server {
	return &Server{
		config:    cfg,
		optimizer: opt,
		gate:      gate,
		tracker:   tracker,
	}
}

// Router builds the gin engine with middleware and routes
func (s *Server) Router() (*gin.Engine, error) {
	// Set Gin mode based on debug flag
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS())

	var guard gin.HandlerFunc
	if s.config.Auth.Enabled() {
		auth, err := middleware.NewAuthenticator(s.config.Auth)
		if err != nil {
			return nil, err
		}
		guard = middleware.Auth(auth)
	} else {
		logger.Warn("No API credentials configured, write endpoints are open")
	}

	rest.SetupRoutes(router, rest.NewHandler(s.optimizer, s.gate, s.tracker), guard)
	return router, nil
}

// Start initializes and starts the HTTP server
func (s *Server) Start() error {
	router, err := s.Router()
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting API server",
		zap.String("address", addr),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}
