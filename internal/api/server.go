package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cuetrack/internal/config"
	"cuetrack/internal/cue"
	"cuetrack/internal/loading"
	"cuetrack/internal/logging"
)

// Session is the transcript state the API exposes.
type Session interface {
	ID() string
	State() loading.State
	Renderable() bool
	Unavailable() bool
	Err() error
	Cues() []cue.Cue
	Cue(index int) (cue.Cue, bool)
	Active() (int, bool)
	SeekToCue(index int) error
}

// Clock reports the playback position. Optional.
type Clock interface {
	CurrentTime() float64
}

// Options configures a Server.
type Options struct {
	Bind   string
	Token  string
	Clock  Clock
	Logger *slog.Logger
}

// OptionsFromConfig reads the bind address and token from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{}
	}
	return Options{Bind: cfg.Paths.APIBind, Token: cfg.Paths.APIToken}
}

// Server serves one session.
type Server struct {
	session Session
	clock   Clock
	token   string
	bind    string
	logger  *slog.Logger
	router  chi.Router

	listener net.Listener
	server   *http.Server
}

// New builds the router for session.
func New(session Session, opts Options) (*Server, error) {
	if session == nil {
		return nil, errors.New("api: session is required")
	}
	s := &Server{
		session: session,
		clock:   opts.Clock,
		token:   strings.TrimSpace(opts.Token),
		bind:    strings.TrimSpace(opts.Bind),
		logger:  logging.NewComponentLogger(opts.Logger, "api"),
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	s.router = r
	s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/api/session", s.handleSession)
		r.Get("/api/cues", s.handleCues)
		r.Get("/api/cues/{index}", s.handleCue)
		r.Post("/api/cues/{index}/seek", s.handleSeek)
		r.Get("/api/active", s.handleActive)
		r.Get("/api/search", s.handleSearch)
	})
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api: bind address is required")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting up to five seconds for requests.
func (s *Server) Stop() {
	if s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}
