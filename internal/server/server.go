// Package server sets up the HTTP server, router, and all route definitions.
//
// COMPOSITION ROOT:
// New opens the database and builds every layer on top of it:
//
//	sqlite.DB → services → handlers → chi routes
//
// Handlers never touch the database and services never touch HTTP. Outbound
// clients (the OAuth session-data endpoint, Chess.com, Lichess) are built
// from config unless an Option replaces them, which is how tests avoid the
// network.
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
	"github.com/go-chi/httprate"

	"github.com/chessmeet/chessmeet/internal/auth"
	"github.com/chessmeet/chessmeet/internal/config"
	"github.com/chessmeet/chessmeet/internal/handler"
	"github.com/chessmeet/chessmeet/internal/metrics"
	"github.com/chessmeet/chessmeet/internal/middleware"
	"github.com/chessmeet/chessmeet/internal/rating"
	"github.com/chessmeet/chessmeet/internal/repository"
	sqliteRepo "github.com/chessmeet/chessmeet/internal/repository/sqlite"
	"github.com/chessmeet/chessmeet/internal/seed"
	"github.com/chessmeet/chessmeet/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection; Start closes it on the way out.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	metrics *metrics.Metrics
}

type options struct {
	credentials *auth.Credentials
	external    service.ExternalSessionFetcher
	ratings     service.RatingLookup
	clock       repository.Clock
}

// Option overrides one of the dependencies New would otherwise build.
type Option func(*options)

// WithCredentials replaces the bcrypt hasher (tests use a cheap cost).
func WithCredentials(c *auth.Credentials) Option {
	return func(o *options) { o.credentials = c }
}

// WithExternalSessions replaces the OAuth session-data client.
func WithExternalSessions(f service.ExternalSessionFetcher) Option {
	return func(o *options) { o.external = f }
}

// WithRatings replaces the Chess.com/Lichess adapter.
func WithRatings(r service.RatingLookup) Option {
	return func(o *options) { o.ratings = r }
}

// WithClock pins "now" for sessions, date filters and seeding.
func WithClock(now repository.Clock) Option {
	return func(o *options) { o.clock = now }
}

// New opens the database at cfg.DB.Path and wires every route.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sqliteRepo.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: metrics.New(),
	}
	s.setupRoutes(s.buildHandlers(o))

	return s, nil
}

type handlers struct {
	auth       *handler.AuthHandler
	users      *handler.UserHandler
	clubs      *handler.ClubHandler
	events     *handler.EventHandler
	posts      *handler.PostHandler
	chess      *handler.ChessHandler
	system     *handler.SystemHandler
	middleware *auth.Middleware
}

func (s *Server) buildHandlers(o options) handlers {
	cfg := s.config
	timeout := cfg.Providers.HTTPClientTimeout.Duration

	creds := o.credentials
	if creds == nil {
		creds = auth.NewCredentials(cfg.Security.BCryptCost)
	}
	external := o.external
	if external == nil {
		external = auth.NewExternalSessionClient(timeout)
	}
	ratings := o.ratings
	if ratings == nil {
		ratings = rating.NewAdapter(
			rating.NewChessCom(cfg.Providers.ChessComBaseURL, &http.Client{Timeout: timeout}),
			rating.NewLichess(cfg.Providers.LichessBaseURL, rating.NewLichessClient(cfg.Providers.LichessToken, timeout)),
		)
	}

	sessions := auth.NewSessionManager(s.db, cfg.Session.TTL.Duration, s.logger)
	events := service.NewEventService(s.db, s.logger).WithObserver(s.metrics)
	clubs := service.NewClubService(s.db, s.logger)
	seeder := seed.New(s.db, creds, s.logger)
	if o.clock != nil {
		sessions = sessions.WithClock(o.clock)
		events = events.WithClock(o.clock)
		clubs = clubs.WithClock(o.clock)
		seeder = seeder.WithClock(o.clock)
	}

	identity := service.NewIdentityService(s.db, sessions, creds, external, s.logger)
	cookies := auth.CookieWriter{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
		MaxAge: cfg.Session.TTL.Duration,
	}

	return handlers{
		auth:       handler.NewAuthHandler(identity, cookies, s.logger),
		users:      handler.NewUserHandler(identity, s.logger),
		clubs:      handler.NewClubHandler(clubs, s.logger),
		events:     handler.NewEventHandler(events, s.logger),
		posts:      handler.NewPostHandler(service.NewPostService(s.db, s.logger), s.logger),
		chess:      handler.NewChessHandler(service.NewChessService(s.db, ratings, s.logger), s.logger),
		system:     handler.NewSystemHandler(s.db, seeder, s.logger),
		middleware: auth.NewMiddleware(sessions, cfg.Session.CookieName, s.logger),
	}
}

// setupRoutes configures all middleware and route handlers.
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns an id that the logger prints on every line
// 2. RealIP: rewrites RemoteAddr from proxy headers, which httprate keys on
// 3. Logger and Metrics: see the final status and the matched route pattern
// 4. Recoverer: turns a panic into a 500 that the logger still records
// 5. CORS: answers preflights before any auth check can reject them
//
// AUTH:
// Routes are grouped by what they require. RequireAuth answers 401 itself;
// OptionalAuth only attaches the user when a valid token is present.
func (s *Server) setupRoutes(h handlers) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.CORS(s.config.CORS.AllowedOrigins))

	s.router.Get("/healthz", h.system.HandleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		// === Public ===
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(s.config.Security.AuthRateLimit, time.Minute))
			r.Post("/auth/register", h.auth.HandleRegister)
			r.Post("/auth/login", h.auth.HandleLogin)
			r.Post("/auth/session", h.auth.HandleSession)
		})
		r.Post("/auth/logout", h.auth.HandleLogout)

		r.Get("/users/{user_id}", h.users.HandleGet)
		r.Get("/clubs", h.clubs.HandleList)
		r.Get("/clubs/{club_id}", h.clubs.HandleGet)
		r.Get("/events", h.events.HandleList)
		r.Get("/posts", h.posts.HandleList)
		r.Get("/chess/lookup/{platform}/{username}", h.chess.HandleLookup)
		r.Post("/seed", h.system.HandleSeed)

		// === Optional auth ===
		r.With(h.middleware.OptionalAuth).Get("/events/{event_id}", h.events.HandleGet)

		// === Authenticated ===
		r.Group(func(r chi.Router) {
			r.Use(h.middleware.RequireAuth)

			r.Get("/auth/me", h.auth.HandleMe)
			r.Get("/users/me", h.auth.HandleMe)
			r.Put("/users/me", h.users.HandleUpdateMe)

			r.Post("/clubs/members", h.clubs.HandleAddMember)
			r.Delete("/clubs/members/{member_id}", h.clubs.HandleRemoveMember)

			r.Post("/events", h.events.HandleCreate)
			r.Delete("/events/{event_id}", h.events.HandleDelete)
			r.Post("/events/{event_id}/join", h.events.HandleJoin)
			r.Delete("/events/{event_id}/leave", h.events.HandleLeave)
			r.Get("/me/events", h.events.HandleMine)

			r.Post("/posts", h.posts.HandleCreate)

			r.Post("/chess/link", h.chess.HandleLink)
			r.Post("/chess/refresh", h.chess.HandleRefresh)
			r.Delete("/chess/unlink/{platform}", h.chess.HandleUnlink)
		})
	})
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start calls it on shutdown.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         s.config.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout.Duration,
		WriteTimeout: s.config.Server.WriteTimeout.Duration,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("database", s.config.DB.Path),
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

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
