// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: the one place where the dependency graph
// is assembled. main.go creates the config and logger; New() builds
// everything else:
//
//	sqlite.DB → repositories → services → handlers → routes
//
// Each layer only receives what it needs. Services get repository
// interfaces, not the concrete DB; handlers get services, not
// repositories. Nothing below this package knows how it is wired.
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
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mfaisal/fittrack/internal/auth"
	"github.com/mfaisal/fittrack/internal/config"
	"github.com/mfaisal/fittrack/internal/geo"
	"github.com/mfaisal/fittrack/internal/handler"
	"github.com/mfaisal/fittrack/internal/mail"
	"github.com/mfaisal/fittrack/internal/middleware"
	sqliteRepo "github.com/mfaisal/fittrack/internal/repository/sqlite"
	"github.com/mfaisal/fittrack/internal/service"
)

// Server owns the router and the resources that must be released on
// shutdown. The database connection is closed in Start() after the HTTP
// server has drained, so no in-flight request loses its connection.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency graph and mounts the routes.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTLifetime)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(tokens)
	return s, nil
}

// setupRoutes wires services to handlers and handlers to URL patterns.
//
// MIDDLEWARE ORDER MATTERS — middleware executes in the order it is
// added:
//  1. RequestID — tags each request for tracing
//  2. RealIP — resolves the client IP from proxy headers
//  3. Logger — one structured line per request (needs the request ID)
//  4. Recoverer — converts panics to 500s instead of crashing
//  5. SecurityHeaders, CORS — response hardening on every route
func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimw.Recoverer)
	s.router.Use(middleware.SecurityHeaders)
	s.router.Use(middleware.CORS(s.cfg.CORSOrigin))

	// Production uses the full bcrypt cost; the mailer and geocoder are
	// the pluggable edges — swap in real SMTP or a real geocoding API
	// here without touching the services.
	authService := service.NewAuthService(
		s.db.Users(),
		tokens,
		auth.NewPasswordService(),
		auth.NewResetTokenService(),
		mail.NewLogMailer(s.logger),
		geo.NewStaticGeocoder(),
		s.logger,
	)
	exerciseService := service.NewExerciseService(s.db.Exercises(), s.logger)
	workoutService := service.NewWorkoutService(s.db.Workouts(), s.db.Exercises(), s.logger)

	authHandler := handler.NewAuthHandler(authService, s.cfg.JWTLifetime, s.cfg.IsProduction(), s.logger)
	exerciseHandler := handler.NewExerciseHandler(exerciseService, s.logger)
	workoutHandler := handler.NewWorkoutHandler(workoutService, s.logger)

	requireAuth := auth.RequireAuth(tokens)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/logout", authHandler.HandleLogout)
		r.Post("/recover-password", authHandler.HandleRecoverPassword)
		r.Put("/recover-password/{resetToken}", authHandler.HandleCompleteRecoverPassword)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authHandler.HandleMe)
			r.Put("/update-details", authHandler.HandleUpdateDetails)
			r.Put("/update-password", authHandler.HandleUpdatePassword)
		})
	})

	s.router.Route("/exercises", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", exerciseHandler.HandleList)
		r.Post("/", exerciseHandler.HandleCreate)
		r.Get("/{id}", exerciseHandler.HandleGet)
		r.Put("/{id}", exerciseHandler.HandleUpdate)
		r.Delete("/{id}", exerciseHandler.HandleDelete)
	})

	s.router.Route("/workouts", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", workoutHandler.HandleListOwn)
		r.Post("/", workoutHandler.HandleCreate)
		r.Get("/public", workoutHandler.HandleListPublic)
		r.Get("/{id}", workoutHandler.HandleGet)
		r.Put("/{id}", workoutHandler.HandleUpdate)
		r.Delete("/{id}", workoutHandler.HandleDelete)
	})

	// Static assets (exercise images and the like).
	// GET /public/img/squat.png → serves {StaticDir}/img/squat.png
	fileServer := http.FileServer(http.Dir(s.cfg.StaticDir))
	s.router.Handle("/public/*", http.StripPrefix("/public/", fileServer))
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds to finish, close the database (flushes the WAL and releases
// the file lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("env", s.cfg.Env),
			slog.String("database", s.cfg.DBPath),
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
