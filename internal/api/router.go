package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/skillswap/client/internal/auth"
	"github.com/skillswap/client/internal/middleware"
	"go.uber.org/zap"
)

// Router holds all handlers and creates the chi router
type Router struct {
	authHandler       *AuthHandler
	profileHandler    *ProfileHandler
	connectionHandler *ConnectionHandler
	healthHandler     *HealthHandler
	jwtManager        *auth.JWTManager
	corsOrigins       []string
	uploads           http.Handler
	logger            *zap.Logger
}

// RouterConfig carries the pieces NewRouter wires together
type RouterConfig struct {
	AuthHandler       *AuthHandler
	ProfileHandler    *ProfileHandler
	ConnectionHandler *ConnectionHandler
	HealthHandler     *HealthHandler
	JWTManager        *auth.JWTManager
	CORSOrigins       []string
	// Uploads serves locally stored photos under /uploads; nil disables it.
	Uploads http.Handler
	Logger  *zap.Logger
}

// NewRouter creates a new router
func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		authHandler:       cfg.AuthHandler,
		profileHandler:    cfg.ProfileHandler,
		connectionHandler: cfg.ConnectionHandler,
		healthHandler:     cfg.HealthHandler,
		jwtManager:        cfg.JWTManager,
		corsOrigins:       cfg.CORSOrigins,
		uploads:           cfg.Uploads,
		logger:            cfg.Logger,
	}
}

// Setup configures and returns the chi router
func (rt *Router) Setup() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RecoveryMiddleware(rt.logger))
	r.Use(middleware.LoggingMiddleware(rt.logger))
	r.Use(middleware.CORSMiddleware(rt.corsOrigins))
	r.Use(chimiddleware.Compress(5))

	r.Route("/health", func(r chi.Router) {
		r.Get("/", rt.healthHandler.Health)
		r.Get("/ready", rt.healthHandler.Ready)
		r.Get("/live", rt.healthHandler.Live)
	})

	if rt.uploads != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", rt.uploads))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", rt.authHandler.Register)
			r.Post("/login", rt.authHandler.Login)
			r.Get("/verify-email/{token}", rt.authHandler.VerifyEmail)
		})

		// Public directory
		r.Get("/profiles", rt.profileHandler.List)
		r.Get("/profiles/{id}", rt.profileHandler.Get)
		r.Get("/stats", rt.profileHandler.Stats)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(rt.jwtManager))

			r.Post("/profiles/{id}/rate", rt.profileHandler.Rate)

			r.Route("/profile/me", func(r chi.Router) {
				r.Get("/", rt.profileHandler.Me)
				r.Put("/", rt.profileHandler.Update)
				r.Post("/skills", rt.profileHandler.UpdateSkills)
				r.Post("/photo", rt.profileHandler.UploadPhoto)
			})

			r.Route("/connections", func(r chi.Router) {
				r.Post("/request", rt.connectionHandler.SendRequest)
				r.Get("/received", rt.connectionHandler.Received)
				r.Get("/sent", rt.connectionHandler.Sent)
				r.Put("/{id}/accept", rt.connectionHandler.Accept)
				r.Put("/{id}/decline", rt.connectionHandler.Decline)
			})
		})
	})

	return r
}
