package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ssi-studios/auth-service/internal/config"
	"github.com/ssi-studios/auth-service/internal/handler"
	"github.com/ssi-studios/auth-service/internal/limiter"
	"github.com/ssi-studios/auth-service/internal/middleware"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Session *handler.SessionHandler
}

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	handlers Handlers,
	healthCheck func(*http.Request) error,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM)
	authWindow := limiter.NewFixedWindow(cfg.AuthRateLimit, cfg.AuthRateWindow, cfg.AuthRateCapacity)

	r.Use(middleware.Recovery)
	r.Use(middleware.RequestTimer)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if healthCheck != nil {
			if err := healthCheck(req); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unhealthy"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.With(middleware.AuthRateLimit(authWindow)).Post("/signup", handlers.Auth.Signup)
			auth.With(middleware.AuthRateLimit(authWindow)).Post("/login", handlers.Auth.Login)
			auth.Post("/refresh", handlers.Auth.Refresh)
			auth.Post("/logout", handlers.Auth.Logout)
			auth.With(authMiddleware.RequireAuth).Get("/sessions", handlers.Session.List)
			auth.With(authMiddleware.RequireAuth).Delete("/sessions", handlers.Session.Revoke)
		})
	})

	return r
}
