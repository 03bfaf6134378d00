package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/storefront-sessions/internal/config"
	"github.com/jrsteele09/storefront-sessions/session"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	router  chi.Router
	config  config.Config
	auth    *session.Authority
	metrics http.Handler
	nowTime func() time.Time
	log     zerolog.Logger
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.log = logger
	}
}

// WithMetricsHandler replaces the default Prometheus handler served at /metrics.
func WithMetricsHandler(handler http.Handler) Option {
	return func(s *Server) {
		s.metrics = handler
	}
}

// WithNowFunc sets the clock used by the admin sweep endpoint (primarily for testing)
func WithNowFunc(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

func New(cfg config.Config, authority *session.Authority, options ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[Server New] config is required")
	}
	if authority == nil {
		return nil, errors.New("[Server New] session authority is required")
	}

	s := &Server{
		env:     cfg.GetEnv(),
		router:  chi.NewRouter(),
		config:  cfg,
		auth:    authority,
		metrics: promhttp.Handler(),
		nowTime: time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	if err := s.logRoutes(); err != nil {
		return nil, fmt.Errorf("[Server New] failed to list routes: %w", err)
	}
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRoutes() error {
	if s.env != "DEV" {
		return nil
	}
	return chi.Walk(s.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		s.logRoute(method, route)
		return nil
	})
}

func (s *Server) logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	displayMethod := Gray + paddedMethod + ResetColor
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	}
	s.log.Debug().Msgf("[%-19s] %s", displayMethod, path)
}
