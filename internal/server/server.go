package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/csantero/MetaWeblogPortable/builder/config"
	"github.com/csantero/MetaWeblogPortable/builder/dispatch"
	"github.com/csantero/MetaWeblogPortable/builder/feed"
	"github.com/csantero/MetaWeblogPortable/builder/media"
	"github.com/csantero/MetaWeblogPortable/builder/metrics"
	"github.com/csantero/MetaWeblogPortable/builder/services"
)

// Deps are the collaborators the HTTP layer serves
type Deps struct {
	Dispatcher *dispatch.Dispatcher
	Posts      services.PostStore
	Media      services.MediaStore // optional
	Feed       *feed.Generator
	Metrics    *metrics.RequestMetrics
	Logger     *slog.Logger
}

// Server exposes the dispatcher over HTTP
type Server struct {
	cfg  config.ServerConfig
	deps Deps
}

func New(cfg config.ServerConfig, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Server{cfg: cfg, deps: deps}
}

// Handler returns the routing table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /xmlrpc", s.handleXMLRPC)
	mux.HandleFunc("POST /metaweblog", s.handleXMLRPC)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /metrics", s.compress(s.handleMetrics))

	if s.deps.Media != nil {
		mux.HandleFunc("GET /media/{hash}/{name}", s.handleMedia)
	}
	if s.deps.Feed != nil {
		mux.HandleFunc("GET /rss.xml", s.compress(s.handleFeed))
		mux.HandleFunc("GET /category/{name}/rss.xml", s.compress(s.handleCategoryFeed))
	}

	return s.logRequests(mux)
}

func (s *Server) compress(h http.HandlerFunc) http.HandlerFunc {
	if !s.cfg.Gzip {
		return h
	}
	return gzipHandler(h)
}

func (s *Server) handleXMLRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	res := s.deps.Dispatcher.Dispatch(r.Context(), body)

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(res.Status)
	_, _ = w.Write(res.Body)
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	obj, err := s.deps.Media.Open(hash)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.deps.Logger.Error("media read failed", "hash", hash, "error", err)
		http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
		return
	}

	// content addressed, never changes
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("Content-Type", obj.Type)
	http.ServeContent(w, r, obj.Name, time.Unix(obj.CreatedAt, 0), newReadSeeker(obj.Data))
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	posts, err := s.deps.Posts.All()
	if err != nil {
		s.feedError(w, err)
		return
	}
	data, err := s.deps.Feed.Render(posts)
	if err != nil {
		s.feedError(w, err)
		return
	}
	writeFeed(w, data)
}

func (s *Server) handleCategoryFeed(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	byCategory, err := s.deps.Posts.PostsByCategory()
	if err != nil {
		s.feedError(w, err)
		return
	}
	posts, ok := byCategory[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	data, err := s.deps.Feed.RenderCategory(name, posts)
	if err != nil {
		s.feedError(w, err)
		return
	}
	writeFeed(w, data)
}

func (s *Server) feedError(w http.ResponseWriter, err error) {
	s.deps.Logger.Error("feed rendering failed", "error", err)
	http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
}

func writeFeed(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=60")
	_, _ = w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Metrics == nil {
		writeJSON(w, http.StatusOK, metrics.Snapshot{})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Metrics.Snapshot())
}

// Run listens on the configured address until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and shuts down gracefully when ctx is done
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(s.deps.Logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	s.deps.Logger.Info("server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.deps.Logger.Info("shutting down http server", "timeout", s.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
