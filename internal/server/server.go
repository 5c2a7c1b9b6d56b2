// Package server exposes the search gateway over HTTP.
//
// Routes:
//
//	GET  /healthz      liveness, unauthenticated
//	GET  /api/info     account and tool the gateway is bound to
//	POST /api/search   forwards a search to the tool host
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/venturelab/adsgw/internal/logger"
	"github.com/venturelab/adsgw/internal/toolhost"
)

var logServer = logger.New("server:server")

// Searcher runs searches against the tool host. *toolhost.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, req toolhost.SearchRequest, defaultCustomerID string) (any, error)
	SearchTool() string
}

// Options configures a Server.
type Options struct {
	// APIKey guards the /api routes. Empty disables authentication.
	APIKey          string
	ClientName      string
	CustomerID      string
	LoginCustomerID string
	Version         string
	// MaxRequestBytes caps inbound request bodies. Zero means 1 MiB.
	MaxRequestBytes int64
}

// Server represents the gateway HTTP server
type Server struct {
	opts     Options
	searcher Searcher
	mux      *http.ServeMux
	handler  http.Handler
}

const defaultMaxRequestBytes = 1 << 20

// New creates a Server backed by searcher.
func New(opts Options, searcher Searcher) *Server {
	if opts.MaxRequestBytes <= 0 {
		opts.MaxRequestBytes = defaultMaxRequestBytes
	}
	s := &Server{
		opts:     opts,
		searcher: searcher,
		mux:      http.NewServeMux(),
	}
	s.setupRoutes()
	s.handler = withRequestID(withRecover(withResponseLogging(s.mux)))
	return s
}

const searchPath = "/api/search"

func (s *Server) setupRoutes() {
	logServer.Printf("Registering routes: auth_enabled=%v, tool=%s", s.opts.APIKey != "", s.searcher.SearchTool())

	s.mux.HandleFunc("GET /healthz", handleHealth)
	s.mux.Handle("GET /api/info", authMiddleware(s.opts.APIKey, s.handleInfo))
	s.mux.Handle("POST "+searchPath, authMiddleware(s.opts.APIKey, s.handleSearch))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// CreateHTTPServer wraps handler in an http.Server listening on addr.
// writeTimeout should exceed the tool host timeout so slow searches can
// still report their error.
func CreateHTTPServer(addr string, handler http.Handler, writeTimeout time.Duration) *http.Server {
	logServer.Printf("Creating HTTP server: addr=%s, write_timeout=%s", addr, writeTimeout)
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
}
