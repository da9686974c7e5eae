package inspect

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/lazydefine/pkg/customelements"
	"github.com/vango-dev/lazydefine/pkg/lazydef"
)

// ShutdownTimeout bounds graceful shutdown in Run.
const ShutdownTimeout = 5 * time.Second

// Config configures an inspection server.
type Config struct {
	// Registry is the registry whose definitions are served. Required.
	Registry *customelements.Registry

	// Observer, if set, exposes its attempt outcomes at /outcomes.
	Observer *lazydef.Observer

	// Gatherer serves /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server serves a read-only view of a registry over HTTP.
type Server struct {
	registry *customelements.Registry
	observer *lazydef.Observer
	feed     *Feed
	router   chi.Router
	logger   *slog.Logger
}

// DefinitionView is the JSON form of a definition.
type DefinitionView struct {
	Name       string    `json:"name"`
	Extends    string    `json:"extends,omitempty"`
	Autonomous bool      `json:"autonomous"`
	DefinedAt  time.Time `json:"definedAt"`
}

// OutcomeView is the JSON form of a pipeline outcome.
type OutcomeView struct {
	Name  string    `json:"name"`
	URL   string    `json:"url,omitempty"`
	Kind  string    `json:"kind"`
	Error string    `json:"error,omitempty"`
	At    time.Time `json:"at"`
}

// New creates a server and subscribes its feed to the registry.
func New(cfg Config) *Server {
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		registry: cfg.Registry,
		observer: cfg.Observer,
		logger:   cfg.Logger.With("component", "inspect"),
	}
	s.feed = NewFeed(func() int { return len(s.registry.Names()) })
	s.registry.OnDefine(s.feed.Defined)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/definitions", s.listDefinitions)
	r.Get("/definitions/{name}", s.getDefinition)
	r.Get("/outcomes", s.listOutcomes)
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/ws", s.feed.ServeHTTP)
	s.router = r

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Feed returns the server's WebSocket feed.
func (s *Server) Feed() *Feed { return s.feed }

// Run serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inspect server listening", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.feed.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) listDefinitions(w http.ResponseWriter, r *http.Request) {
	defs := s.registry.Definitions()
	out := make([]DefinitionView, 0, len(defs))
	for _, d := range defs {
		out = append(out, viewOf(d))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) getDefinition(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	def, ok := s.registry.Get(name)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not defined: " + name})
		return
	}
	s.writeJSON(w, http.StatusOK, viewOf(def))
}

func (s *Server) listOutcomes(w http.ResponseWriter, r *http.Request) {
	out := []OutcomeView{}
	if s.observer != nil {
		for _, o := range s.observer.Outcomes() {
			v := OutcomeView{Name: o.Name, URL: o.URL, Kind: string(o.Kind), At: o.At}
			if o.Err != nil {
				v.Error = o.Err.Error()
			}
			out = append(out, v)
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", "error", err)
	}
}

func viewOf(d customelements.Definition) DefinitionView {
	return DefinitionView{
		Name:       d.Name,
		Extends:    d.Extends,
		Autonomous: d.Autonomous(),
		DefinedAt:  d.DefinedAt,
	}
}
