// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — it connects handlers, middleware, and
// routes. It is the composition root: every dependency is constructed here,
// in one place, and passed down by reference. Nothing below this package
// reaches for globals.
//
// DEPENDENCY INJECTION FLOW:
//
//	sqlite.DB ──► PlatformService ◄── stats.Provider
//	     │              │
//	     │              ├──► PlatformHandler
//	     │              │
//	     ├──► AnalysisService ◄── ai.Gateway ──► AnalysisHandler
//	     │
//	     └──► AuthService ◄── TokenService, PasswordService ──► AuthHandler
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/dev-mirror/internal/ai"
	"github.com/sakif/dev-mirror/internal/auth"
	"github.com/sakif/dev-mirror/internal/handler"
	"github.com/sakif/dev-mirror/internal/middleware"
	sqliteRepo "github.com/sakif/dev-mirror/internal/repository/sqlite"
	"github.com/sakif/dev-mirror/internal/service"
	"github.com/sakif/dev-mirror/internal/stats"
)

// Config holds server configuration, loaded from the environment in main.go.
type Config struct {
	Port   int
	DBPath string

	// Sessions
	JWTSecret string

	// GitHub OAuth sign-in; all three empty → OAuth routes not registered.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// Stats provider: "simulator" (default) or "live".
	StatsProvider string
	GitHubToken   string // optional, raises the live provider's rate limit

	// Analysis engine; empty key → /api/analyze returns 503.
	OpenAIAPIKey string
	OpenAIModel  string
}

// Server owns the router, the database connection, and the HTTP listener
// lifecycle. The DB is closed during graceful shutdown — skipping that could
// leave the WAL unflushed.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server and wires the entire dependency chain.
//
// Each layer only receives what it needs: services get repository interfaces
// (not the concrete sqlite.DB), handlers get services (never the DB).
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close() // Clean up DB if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /auth/register            → create local account + session
//	POST   /auth/login               → sign in + session
//	POST   /auth/logout              → clear session
//	GET    /auth/github/login        → redirect to GitHub (when configured)
//	GET    /auth/github/callback     → complete OAuth flow
//	GET    /api/me                   → current user          (auth required)
//	GET    /api/platforms            → list links            (auth required)
//	POST   /api/platforms            → connect               (auth required)
//	POST   /api/platforms/{id}/sync  → refresh stats         (auth required)
//	DELETE /api/platforms/{id}       → disconnect            (auth required)
//	GET    /api/dashboard            → links + rollups       (auth required)
//	POST   /api/analyze              → The Mirror critique   (auth required)
//
// MIDDLEWARE ORDER MATTERS — it executes in the order added:
// RequestID → RealIP → Recoverer → request logging.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID) // Adds X-Request-ID header
	s.router.Use(chimiddleware.RealIP)    // Extracts real IP from X-Forwarded-For
	s.router.Use(chimiddleware.Recoverer) // Recovers from panics, returns 500
	s.router.Use(middleware.Logger(s.logger))

	// === Sessions ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	// === Stats provider ===
	// The simulator is always constructed — the live provider falls back to
	// it for platforms without a real client.
	var provider stats.Provider = stats.NewSimulator()
	if s.config.StatsProvider == "live" {
		provider = stats.NewLive(s.config.GitHubToken, provider)
		s.logger.Info("using live stats provider")
	}

	// === Analysis engine ===
	// Optional: without an API key the analyze endpoint degrades to 503
	// instead of taking the whole server down.
	var gateway ai.Gateway
	if s.config.OpenAIAPIKey != "" {
		gateway = ai.NewOpenAIGateway(s.config.OpenAIAPIKey, s.config.OpenAIModel)
	} else {
		s.logger.Warn("OPENAI_API_KEY not set — /api/analyze will be unavailable")
	}

	// === Services and handlers ===
	authService := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	platformService := service.NewPlatformService(s.db.Platforms(), provider, s.logger)
	analysisService := service.NewAnalysisService(s.db.Platforms(), gateway, s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	} else {
		s.logger.Warn("GitHub OAuth not configured — only local accounts available")
	}

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	platformHandler := handler.NewPlatformHandler(platformService, s.logger)
	analysisHandler := handler.NewAnalysisHandler(analysisService, s.logger)

	// === Public auth routes ===
	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	// === Protected API routes ===
	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/me", authHandler.HandleMe)

		r.Get("/platforms", platformHandler.HandleList)
		r.Post("/platforms", platformHandler.HandleConnect)
		r.Post("/platforms/{id}/sync", platformHandler.HandleSync)
		r.Delete("/platforms/{id}", platformHandler.HandleDelete)

		r.Get("/dashboard", platformHandler.HandleDashboard)
		r.Post("/analyze", analysisHandler.HandleAnalyze)
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // generous: analyze waits on the engine
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
