package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/legalese-app/legalese-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	authService       driving.AuthService
	userService       driving.UserService
	docService        driving.DocumentService
	analysisService   driving.AnalysisService
	annotationService driving.AnnotationService
	chatService       driving.ChatService

	// Readiness checks by dependency name (postgres, redis, storage)
	checks map[string]Pinger
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	Version     string
	CORSOrigins []string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:        "0.0.0.0",
		Port:        8080,
		Version:     "dev",
		CORSOrigins: []string{"*"},
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	authService driving.AuthService,
	userService driving.UserService,
	docService driving.DocumentService,
	analysisService driving.AnalysisService,
	annotationService driving.AnnotationService,
	chatService driving.ChatService,
	checks map[string]Pinger,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:            http.NewServeMux(),
		version:           cfg.Version,
		logger:            logger,
		authService:       authService,
		userService:       userService,
		docService:        docService,
		analysisService:   analysisService,
		annotationService: annotationService,
		chatService:       chatService,
		checks:            checks,
	}

	s.setupRoutes()

	var handler http.Handler = s.router
	handler = NewCORSMiddleware(cfg.CORSOrigins).Handler(handler)
	handler = NewLoggingMiddleware(logger).Handler(handler)
	handler = NewRecoveryMiddleware(logger).Handler(handler)

	// Chat streams clear their own write deadline
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)
	authed := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireAdmin(h))
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Auth endpoints (public)
	s.router.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	s.router.HandleFunc("POST /api/v1/auth/refresh", s.handleRefresh)

	// Setup endpoint (public, one-time use)
	s.router.HandleFunc("POST /api/v1/setup", s.handleSetup)

	s.router.Handle("POST /api/v1/auth/logout", authed(s.handleLogout))
	s.router.Handle("POST /api/v1/auth/password", authed(s.handleChangePassword))
	s.router.Handle("GET /api/v1/me", authed(s.handleGetMe))

	// Admin-only user management
	s.router.Handle("GET /api/v1/users", admin(s.handleListUsers))
	s.router.Handle("POST /api/v1/users", admin(s.handleCreateUser))
	s.router.Handle("PATCH /api/v1/users/{id}", admin(s.handleUpdateUser))
	s.router.Handle("DELETE /api/v1/users/{id}", admin(s.handleDeleteUser))

	// Documents
	s.router.Handle("POST /api/v1/documents", authed(s.handleUploadDocument))
	s.router.Handle("GET /api/v1/documents", authed(s.handleListDocuments))
	s.router.Handle("GET /api/v1/documents/{id}", authed(s.handleGetDocument))
	s.router.Handle("DELETE /api/v1/documents/{id}", authed(s.handleDeleteDocument))
	s.router.Handle("POST /api/v1/documents/{id}/analyze", authed(s.handleAnalyzeDocument))
	s.router.Handle("GET /api/v1/documents/{id}/analysis-status", authed(s.handleAnalysisStatus))

	// Analyses
	s.router.Handle("GET /api/v1/analyses", authed(s.handleListAnalyses))
	s.router.Handle("GET /api/v1/analyses/{id}", authed(s.handleGetAnalysis))
	s.router.Handle("GET /api/v1/analyses/{id}/view", authed(s.handleViewAnalysis))
	s.router.Handle("GET /api/v1/analyses/{id}/export", authed(s.handleExportAnalysis))
	s.router.Handle("DELETE /api/v1/analyses/{id}", authed(s.handleDeleteAnalysis))

	// Annotations
	s.router.Handle("GET /api/v1/analyses/{id}/annotations", authed(s.handleListAnnotations))
	s.router.Handle("POST /api/v1/analyses/{id}/annotations", authed(s.handleCreateAnnotation))
	s.router.Handle("PATCH /api/v1/annotations/{id}", authed(s.handleUpdateAnnotation))
	s.router.Handle("DELETE /api/v1/annotations/{id}", authed(s.handleDeleteAnnotation))

	// Chat
	s.router.Handle("POST /api/v1/chat/{analysisId}", authed(s.handleChat))
	s.router.Handle("GET /api/v1/chat/{analysisId}/messages", authed(s.handleChatMessages))
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
