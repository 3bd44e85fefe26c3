// Package api provides the HTTP server that carries the GraphQL API.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/graph-gophers/graphql-transport-ws/graphqlws"

	"github.com/kirjastoapp/kirjasto-server/internal/config"
	"github.com/kirjastoapp/kirjasto-server/internal/loader"
	"github.com/kirjastoapp/kirjasto-server/internal/ratelimit"
	"github.com/kirjastoapp/kirjasto-server/internal/service"
	"github.com/kirjastoapp/kirjasto-server/internal/store"
)

// graphqlRPS is the per-client request budget for the GraphQL endpoint.
const (
	graphqlRPS   = 20.0
	graphqlBurst = 40
)

// Server holds the HTTP stack around the GraphQL schema.
type Server struct {
	cfg         *config.Config
	authService *service.AuthService
	store       *store.Store
	schema      *graphql.Schema
	limiter     *ratelimit.KeyedRateLimiter
	router      *chi.Mux
	httpServer  *http.Server
	logger      *slog.Logger
}

// NewServer creates the HTTP server with all routes configured.
func NewServer(
	cfg *config.Config,
	authService *service.AuthService,
	st *store.Store,
	schema *graphql.Schema,
	logger *slog.Logger,
) *Server {
	s := &Server{
		cfg:         cfg,
		authService: authService,
		store:       st,
		schema:      schema,
		limiter:     ratelimit.New(graphqlRPS, graphqlBurst),
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

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
}

// setupRoutes configures all HTTP routes.
//
// /graphql serves queries and mutations over POST and upgrades to a
// websocket for subscriptions when the client requests the
// graphql-transport-ws subprotocol.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	graphqlHandler := graphqlws.NewHandlerFunc(s.schema, &relay.Handler{Schema: s.schema})

	s.router.Route("/graphql", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Use(s.authenticate)
		r.Use(loader.Middleware(s.store))
		r.Handle("/", graphqlHandler)
	})

	// The playground is a development convenience, never exposed in
	// production.
	if s.cfg.App.Environment == "development" {
		s.router.Get("/playground", playground.Handler("Kirjasto GraphQL", "/graphql"))
	}
}

// handleHealthCheck responds to liveness probes.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Start begins serving and blocks until the listener fails or Shutdown
// is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.logger.Info("server listening",
		"port", s.cfg.Server.Port,
		"environment", s.cfg.App.Environment,
	)

	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
