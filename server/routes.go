package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apperrors "github.com/jrsteele09/storefront-sessions/internal/errors"
	"github.com/jrsteele09/storefront-sessions/users"
)

const (
	HealthRoute     = "/health"
	MetricsRoute    = "/metrics"
	LoginRoute      = "/auth/login"
	LogoutRoute     = "/auth/logout"
	MeRoute         = "/auth/me"
	AdminSweepRoute = "/admin/sessions/sweep"
)

func (s *Server) initRoutes() {
	s.router.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.CorsMiddleware,
	)

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeAppError(w, apperrors.ErrNotFound)
	})

	s.router.Get(HealthRoute, s.HealthHandler())
	s.router.Handle(MetricsRoute, s.metrics)

	s.router.Post(LoginRoute, s.LoginHandler())
	// Logout classifies the presented credential itself, so it is not behind RequireAuth.
	s.router.Post(LogoutRoute, s.LogoutHandler())

	s.router.Group(func(r chi.Router) {
		r.Use(s.RequireAuth)
		r.Get(MeRoute, s.MeHandler())

		r.With(s.RequireType(users.TypeAdmin)).Post(AdminSweepRoute, s.SweepHandler())
	})
}
