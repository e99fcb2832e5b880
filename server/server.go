package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/readcomp/competitions"
	"github.com/jrsteele09/readcomp/internal/config"
	"github.com/jrsteele09/readcomp/internal/metrics"
	"github.com/jrsteele09/readcomp/token"
	"github.com/jrsteele09/readcomp/token/refresh"
	"github.com/jrsteele09/readcomp/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Repos are the stores behind the development API.
type Repos struct {
	Users         users.UserRepo
	Competitions  competitions.Repo
	RefreshGrants refresh.Repo
}

type Server struct {
	env      string // Environment (e.g., "DEV", "TEST")
	mux      *http.ServeMux
	handler  http.Handler
	routes   []string
	config   config.Config
	repos    Repos
	signer   token.Signer
	refresh  *refresh.Manager
	mailer   Mailer
	logger   zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics.ServerMetrics
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMailer replaces the default mailer, which only logs messages.
func WithMailer(mailer Mailer) Option {
	return func(s *Server) {
		s.mailer = mailer
	}
}

// WithRegistry collects metrics into registry and serves it on /metrics.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = registry
	}
}

func New(config config.Config, repos Repos, options ...Option) (*Server, error) {
	s := &Server{
		env:     config.GetEnv(),
		mux:     http.NewServeMux(),
		config:  config,
		repos:   repos,
		signer:  token.NewHMACSigner(config.GetJWTSecret()),
		refresh: refresh.NewManager(repos.RefreshGrants, config),
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.mailer == nil {
		s.mailer = NewLogMailer(s.logger)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = metrics.NewServerMetrics(s.registry)

	// Bootstrap: ensure the teacher account and a sample competition exist
	if err := s.InitialiseSystem(context.Background()); err != nil {
		return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	s.handler = cors.New(cors.Options{
		AllowedOrigins:   config.GetAllowedOrigins(),
		AllowedMethods:   config.GetAllowedMethods(),
		AllowedHeaders:   config.GetAllowedHeaders(),
		AllowCredentials: true,
	}).Handler(s.mux)

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	s.logger.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func (s *Server) logError(method, path string, err error) {
	s.logger.Error().Msgf("[%-19s] %s %s", colourMethod(method), path, ansiRed+err.Error()+ansiReset)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
