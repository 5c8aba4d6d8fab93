// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: every repository, service, and handler is
// constructed and wired here, in one place. main.go only reads configuration
// and calls New/Start.
//
// DEPENDENCY CHAIN:
//
//	sqlite.DB → repositories → services → handlers → routes
//
// The server also owns two lifecycles beyond HTTP: the database connection
// (closed on shutdown) and the sweeper goroutine that expires unverified
// registrations (stopped on shutdown).
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

	"github.com/sakif/kuvote/internal/auth"
	"github.com/sakif/kuvote/internal/handler"
	"github.com/sakif/kuvote/internal/mail"
	"github.com/sakif/kuvote/internal/middleware"
	sqliteRepo "github.com/sakif/kuvote/internal/repository/sqlite"
	"github.com/sakif/kuvote/internal/service"
)

// sweepInterval is how often the unverified-account sweep runs. Well under
// service.UnverifiedTTL so records expire close to their nominal deadline.
const sweepInterval = time.Minute

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port        int
	DBPath      string
	JWTSecret   string
	EmailDomain string // required registration email suffix, e.g. "@ku.th"
	FrontendURL string // base URL embedded in verification/reset links

	// SMTP settings; when Host is empty, mail is logged instead of sent.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router       *chi.Mux
	config       Config
	logger       *slog.Logger
	db           *sqliteRepo.DB
	mailer       mail.Mailer // nil until setupRoutes; tests inject their own
	registration *service.RegistrationService
}

// New creates a Server: opens the database, builds the mailer, and wires the
// full dependency graph.
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
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	// === Global middleware, in order ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP) // audit entries depend on the real client IP
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// === Shared collaborators ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	if s.mailer == nil {
		if s.config.SMTPHost != "" {
			s.mailer, err = mail.NewSMTPMailer(mail.SMTPConfig{
				Host:     s.config.SMTPHost,
				Port:     s.config.SMTPPort,
				Username: s.config.SMTPUsername,
				Password: s.config.SMTPPassword,
				From:     s.config.SMTPFrom,
			})
			if err != nil {
				return fmt.Errorf("creating SMTP mailer: %w", err)
			}
		} else {
			s.logger.Warn("SMTP not configured, mail will be logged, not sent")
			s.mailer = mail.NewLogMailer(s.logger)
		}
	}
	mailer := s.mailer

	// === Repositories ===
	users := s.db.Users()
	candidateStore := s.db.Candidates()
	auditLog := s.db.AuditLog()
	statsStore := s.db.Stats()

	auditor := service.NewAuditor(auditLog, s.logger)

	// === Services ===
	s.registration = service.NewRegistrationService(
		users, tokens, passwords, mailer, auditor, s.logger,
		s.config.EmailDomain, s.config.FrontendURL,
	)
	authn := service.NewAuthService(
		users, tokens, passwords, mailer, auditor, s.logger, s.config.FrontendURL,
	)
	voting := service.NewVotingService(users, candidateStore, passwords, auditor, s.logger)
	candidates := service.NewCandidateService(candidateStore, statsStore, s.logger)
	admin := service.NewAdminService(users, candidateStore, auditLog, auditor, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(s.registration, authn, s.logger)
	voteHandler := handler.NewVoteHandler(voting, s.logger)
	candidateHandler := handler.NewCandidateHandler(candidates, s.logger)
	adminHandler := handler.NewAdminHandler(admin, s.logger)

	// === Public routes ===
	s.router.Post("/register/users", authHandler.HandleRegister)
	s.router.Get("/verify-email/{token}", authHandler.HandleVerifyEmail)
	s.router.Post("/login", authHandler.HandleLogin)
	s.router.Post("/forgot-password", authHandler.HandleForgotPassword)
	s.router.Post("/reset-password/{userID}/{token}", authHandler.HandleResetPassword)
	s.router.Post("/candidate", candidateHandler.HandleAddCandidate)
	s.router.Get("/candidates", candidateHandler.HandleListCandidates)
	s.router.Get("/results", candidateHandler.HandleResults)
	s.router.Get("/stats", candidateHandler.HandleStats)

	// === Session-protected routes ===
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(tokens))
		r.Post("/vote", voteHandler.HandleCastVote)
		r.Put("/user/change-password", authHandler.HandleChangePassword)
	})

	// === Admin routes ===
	s.router.Route("/admin", func(r chi.Router) {
		r.Delete("/delete-user/{id}", adminHandler.HandleDeleteUser)
		r.Get("/logs", adminHandler.HandleAuditLog)
	})

	return nil
}

// Start runs the HTTP server and the sweeper, blocking until shutdown.
//
// GRACEFUL SHUTDOWN ORDER:
//  1. stop accepting connections, drain in-flight requests (30s budget)
//  2. stop the sweeper goroutine
//  3. close the database (flushes WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go s.runSweeper(sweepCtx)

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

// runSweeper periodically expires unverified registrations. It replaces the
// partial TTL index the original store provided.
func (s *Server) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep, cancel := context.WithTimeout(ctx, 30*time.Second)
			if _, err := s.registration.ExpireUnverified(sweep); err != nil {
				s.logger.Error("unverified-account sweep failed", slog.String("error", err.Error()))
			}
			cancel()
		}
	}
}
