// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware, and
// routes, and decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server.New() creates:
//	  sqlite.DB → services (auth, question, answer, user, stats) → handlers
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/skillgig-backend/internal/auth"
	"github.com/sakif/skillgig-backend/internal/catalog"
	"github.com/sakif/skillgig-backend/internal/config"
	"github.com/sakif/skillgig-backend/internal/handler"
	"github.com/sakif/skillgig-backend/internal/metrics"
	"github.com/sakif/skillgig-backend/internal/middleware"
	sqliteRepo "github.com/sakif/skillgig-backend/internal/repository/sqlite"
	"github.com/sakif/skillgig-backend/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection pool. It is closed when Start
// returns, or by Close when the server is only used as a handler (tests).
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database, runs migrations and wires every route.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	// === CREATE DATABASE ===
	db, err := sqliteRepo.New(cfg.DatabasePath, cfg.DBIdleTimeout)
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
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE (prefix defaults to /api/v1):
//
//	GET    /                                   → health
//	GET    /metrics                            → Prometheus
//	POST   {prefix}/auth/register|login|refresh
//	GET    {prefix}/auth/github/login|callback (only when GitHub is configured)
//	GET    {prefix}/questions[/{id}[/answers]] → public reads
//	*      {prefix}/questions/...              → authenticated writes
//	*      {prefix}/users/...
//	GET    {prefix}/stats, {prefix}/categories
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Logger: logs each request, including the 500 written by Recoverer
// 4. Recoverer: catches panics and returns 500 instead of crashing
// 5. Metrics: counts requests per route pattern
// 6. CORS
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(metrics.InstrumentHandler)
	s.router.Use(cors.Handler(s.corsOptions()))

	// === SERVICES ===
	tokens, err := auth.NewTokenService(s.config.SecretKey, s.config.JWTAlgorithm)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordServiceWithCost(s.config.BcryptCost)

	authService := service.NewAuthService(s.db, tokens, passwords, service.TokenTTLs{
		Access:  s.config.AccessTokenTTL,
		Refresh: s.config.RefreshTokenTTL,
	}, s.logger)
	questionService := service.NewQuestionService(s.db, s.logger)
	answerService := service.NewAnswerService(s.db, s.logger)
	userService := service.NewUserService(s.db, s.logger)
	statsService := service.NewStatsService(s.db, catalog.Default(), s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	} else {
		s.logger.Warn("GitHub sign-in disabled: APP_GITHUB_CLIENT_ID/SECRET not set")
	}

	// === HANDLERS ===
	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	questionHandler := handler.NewQuestionHandler(questionService, s.logger)
	answerHandler := handler.NewAnswerHandler(answerService, s.logger)
	userHandler := handler.NewUserHandler(userService, questionService, answerService, s.logger)
	statsHandler := handler.NewStatsHandler(statsService, s.logger)

	// Authenticated routes: valid access token, then an active stored user.
	protected := func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Use(handler.LoadActiveUser(authService))
	}

	s.router.Get("/", handler.HandleHealth)
	s.router.Handle("/metrics", metrics.Handler())

	api := func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/refresh", authHandler.HandleRefresh)
			if github != nil {
				r.Get("/github/login", authHandler.HandleGitHubLogin)
				r.Get("/github/callback", authHandler.HandleGitHubCallback)
			}
		})

		r.Route("/questions", func(r chi.Router) {
			r.Get("/", questionHandler.HandleList)
			r.Get("/{id}", questionHandler.HandleGet)
			r.Get("/{id}/answers", answerHandler.HandleList)

			r.Group(func(r chi.Router) {
				protected(r)
				r.Post("/", questionHandler.HandleCreate)
				r.Put("/{id}", questionHandler.HandleUpdate)
				r.Delete("/{id}", questionHandler.HandleDelete)
				r.Post("/{id}/submit", questionHandler.HandleSubmit)

				r.Post("/{id}/answers", answerHandler.HandleCreate)
				r.Put("/{id}/answers/{aid}", answerHandler.HandleUpdate)
				r.Delete("/{id}/answers/{aid}", answerHandler.HandleDelete)
				r.Post("/{id}/answers/{aid}/verify", answerHandler.HandleVerify)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/experts", userHandler.HandleExperts)
			r.Get("/profile/{id}", userHandler.HandleGet)
			r.Get("/{id}", userHandler.HandleGet)

			r.Group(func(r chi.Router) {
				protected(r)
				r.Get("/me", userHandler.HandleMe)
				r.Delete("/me", userHandler.HandleDeleteMe)
				r.Put("/me/profile", userHandler.HandleUpdateProfile)
				r.Get("/me/questions", userHandler.HandleMyQuestions)
				r.Get("/me/answers", userHandler.HandleMyAnswers)
			})
		})

		r.Get("/stats", statsHandler.HandleStats)
		r.Get("/categories", statsHandler.HandleCategories)
	}

	if prefix := s.config.APIPrefix; prefix != "" && prefix != "/" {
		s.router.Route(prefix, api)
	} else {
		api(s.router)
	}

	return nil
}

func (s *Server) corsOptions() cors.Options {
	origins := s.config.AllowedOrigins()
	wildcard := len(origins) == 1 && origins[0] == "*"
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("apiPrefix", s.config.APIPrefix),
			slog.String("environment", s.config.Environment),
			slog.String("database", s.config.DatabasePath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
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
