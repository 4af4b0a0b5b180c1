// Package http exposes the dossier workflow over a JSON API.
// Handlers translate requests into application calls and errors into status codes.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ac-tresor/dossiers/internal/application/service"
	"github.com/ac-tresor/dossiers/internal/application/workflow"
	"github.com/ac-tresor/dossiers/internal/metrics"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// HealthChecker reports whether a dependency is reachable
type HealthChecker func(ctx context.Context) error

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Mode            string
	Version         string

	MaxUploadBytes int64
	AllowedOrigins []string

	// LoginRate is the number of login attempts allowed per second and client
	LoginRate  float64
	LoginBurst int
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Mode:            gin.ReleaseMode,
		Version:         "dev",
		MaxUploadBytes:  20 << 20,
		LoginRate:       0.2,
		LoginBurst:      5,
	}
}

// Services are the application entry points used by the handlers
type Services struct {
	Engine        workflow.DossierEngine
	Dossiers      service.DossierService
	Notifications service.NotificationService
	Referentiel   service.ReferentielService
	Auth          service.AuthService
	Health        HealthChecker
}

// Server is the HTTP server adapter
type Server struct {
	config       ServerConfig
	httpServer   *http.Server
	router       *gin.Engine
	services     Services
	metrics      *metrics.Metrics
	loginLimiter *RateLimiter
	logger       Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, m *metrics.Metrics, logger Logger) *Server {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	if logger == nil {
		logger = nopLogger{}
	}

	server := &Server{
		config:       config,
		router:       gin.New(),
		services:     services,
		metrics:      m,
		loginLimiter: NewRateLimiter(config.LoginRate, config.LoginBurst),
		logger:       logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(s.recoveryMiddleware())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
	if s.metrics != nil {
		s.router.Use(s.metricsMiddleware())
	}
	s.router.Use(corsMiddleware(s.config.AllowedOrigins))
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := newHandlers(s.services, s.config, s.metrics, s.logger)

	s.router.GET("/health", h.HealthCheck)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := s.router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", s.rateLimitMiddleware(s.loginLimiter), h.Login)
		authGroup.GET("/me", s.authMiddleware(), h.Me)
		authGroup.PUT("/password", s.authMiddleware(), h.ChangePassword)
	}

	protected := api.Group("", s.authMiddleware())

	dossiers := protected.Group("/dossiers")
	{
		dossiers.POST("", h.CreateDossier)
		dossiers.GET("", h.ListDossiers)
		dossiers.GET("/stats", h.DossierStats)
		dossiers.GET("/:id", h.GetDossier)
		dossiers.GET("/:id/historique", h.DossierHistory)
		dossiers.GET("/:id/actions", h.PermittedActions)
		dossiers.GET("/:id/rapport-verification", h.VerificationReport)
		dossiers.GET("/:id/quitus", h.DownloadQuitus)

		dossiers.GET("/:id/documents", h.ListDocuments)
		dossiers.POST("/:id/documents", h.AttachDocument)
		dossiers.GET("/:id/documents/:docId", h.DownloadDocument)
		dossiers.DELETE("/:id/documents/:docId", h.DetachDocument)

		dossiers.PUT("/:id/valider", h.ValidateCB)
		dossiers.PUT("/:id/rejeter", h.RejectCB)
		dossiers.POST("/:id/validate-operation-type", h.ValidateOperationType)
		dossiers.POST("/:id/verifications-ordonnateur", h.SubmitVerifications)
		dossiers.PUT("/:id/ordonnance", h.Ordonnance)
		dossiers.PUT("/:id/validation-definitive", h.ValidateDefinitively)
		dossiers.POST("/:id/generate-quitus", h.GenerateQuitus)
		dossiers.PUT("/:id/cloturer", h.Close)
	}

	referentiel := protected.Group("/referentiel")
	{
		referentiel.GET("/types-operation", h.ListTypesOperation)
		referentiel.GET("/types-operation/:id/natures", h.ListNatures)
		referentiel.GET("/natures-operation/:id/pieces", h.ListPieces)
		referentiel.GET("/verifications-ordonnateur", h.VerificationChecklist)
	}

	notifications := protected.Group("/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.PUT("/read-all", h.MarkAllRead)
		notifications.PUT("/:id/read", h.MarkRead)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "route not found"})
	})
}

// Start starts the HTTP server and blocks until ctx is done or the listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	s.loginLimiter.Stop()
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
