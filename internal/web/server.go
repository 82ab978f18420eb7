// Package web serves the board to browsers: the current SVG, a live event
// stream of updates, the connection list and Prometheus metrics.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/boardviz/pkg/buildinfo"
	bio "github.com/matzehuels/boardviz/pkg/io"
)

// ShutdownTimeout bounds how long Run waits for in-flight requests.
const ShutdownTimeout = 5 * time.Second

// Options configures a [Server].
type Options struct {
	Title    string
	Width    int     // page image width in pixels
	Aspect   float64 // height/width
	Gatherer prometheus.Gatherer
	Logger   *log.Logger
}

// Server is the web display. It reads snapshots from a [Store] and never
// touches the graph.
type Server struct {
	store  *Store
	hub    *Hub
	opts   Options
	logger *log.Logger
}

// NewServer creates a server for store. The store must have been created
// with hub.
func NewServer(store *Store, hub *Hub, opts Options) *Server {
	if opts.Title == "" {
		opts.Title = "boardviz"
	}
	if opts.Width <= 0 {
		opts.Width = 600
	}
	if !(opts.Aspect > 0) {
		opts.Aspect = 1
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Server{store: store, hub: hub, opts: opts, logger: opts.Logger}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handlePage)
	r.Get("/board.svg", s.handleBoard)
	r.Get("/api/connections", s.handleConnections)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/events", s.hub)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	return r
}

// Run listens on addr and serves until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is like Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		s.logger.Info("web display listening", "addr", "http://"+ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := pageData{
		Title:  s.opts.Title,
		Width:  s.opts.Width,
		Height: int(float64(s.opts.Width) * s.opts.Aspect),
	}
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("render page", "err", err)
	}
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Load()
	if snap == nil {
		http.Error(w, "board not rendered yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("ETag", snap.ETag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == snap.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	if r.URL.Query().Get("download") != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="board.svg"`)
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Content-Length", strconv.Itoa(len(snap.SVG)))
	w.Write(snap.SVG)
}

type connectionsResponse struct {
	Seq         int              `json:"seq"`
	Connections []bio.Connection `json:"connections"`
}

func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	resp := connectionsResponse{Connections: []bio.Connection{}}
	if snap := s.store.Load(); snap != nil {
		resp.Seq = snap.Seq
		resp.Connections = bio.FromConnections(snap.Connections)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	seq := 0
	if snap := s.store.Load(); snap != nil {
		seq = snap.Seq
	} else {
		status, code = "starting", http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, map[string]any{
		"status":  status,
		"seq":     seq,
		"clients": s.hub.ClientCount(),
		"version": buildinfo.Short(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}
