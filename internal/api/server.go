// Package api provides the HTTP API server and handlers for the TimeToWish application.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/timetowish/timetowish-server/internal/ratelimit"
	"github.com/timetowish/timetowish-server/internal/service"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	authService       *service.AuthService
	userService       *service.UserService
	collectionService *service.CollectionService
	birthdayService   *service.BirthdayService
	analyticsService  *service.AnalyticsService
	authLimiter       *ratelimit.KeyedRateLimiter
	router            *chi.Mux
	logger            *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	authService *service.AuthService,
	userService *service.UserService,
	collectionService *service.CollectionService,
	birthdayService *service.BirthdayService,
	analyticsService *service.AnalyticsService,
	logger *slog.Logger,
) *Server {
	s := &Server{
		authService:       authService,
		userService:       userService,
		collectionService: collectionService,
		birthdayService:   birthdayService,
		analyticsService:  analyticsService,
		// 10 auth attempts per minute per IP, small burst.
		authLimiter: ratelimit.New(10.0/60.0, 5),
		router:      chi.NewRouter(),
		logger:      logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.authLimiter.Stop()
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		// Auth endpoints (public, rate limited per IP).
		r.Route("/auth", func(r chi.Router) {
			r.Use(s.rateLimitByIP(s.authLimiter))
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.Post("/logout", s.handleLogout)
		})

		// Current user.
		r.Route("/users", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/me", s.handleGetCurrentUser)
			r.Patch("/me", s.handleUpdateProfile)
			r.Post("/me/password", s.handleChangePassword)
			r.Delete("/me", s.handleDeleteAccount)
			r.Get("/{id}", s.handleGetPublicProfile)
		})

		// Collections.
		r.Route("/collections", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleCreateCollection)
			r.Get("/", s.handleListCollections)
			r.Get("/{id}", s.handleGetCollection)
			r.Patch("/{id}", s.handleUpdateCollection)
			r.Delete("/{id}", s.handleDeleteCollection)
		})

		// Birthdays.
		r.Route("/birthdays", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleCreateBirthday)
			r.Get("/", s.handleListBirthdays)
			r.Get("/calendar.ics", s.handleExportCalendar)
			r.Get("/{id}", s.handleGetBirthday)
			r.Put("/{id}", s.handleUpdateBirthday)
			r.Delete("/{id}", s.handleDeleteBirthday)
		})

		// Platform analytics.
		r.Route("/analytics", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/platform", s.handlePlatformStats)
		})
	})
}
