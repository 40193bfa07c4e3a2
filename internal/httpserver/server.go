package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/net/webdav"

	"dumbserve/internal/auth"
	"dumbserve/internal/config"
	"dumbserve/internal/files"
	"dumbserve/internal/logging"
	"dumbserve/internal/metrics"
	"dumbserve/internal/version"
)

type Options struct {
	Config *config.Config

	// Logger defaults to logging.Discard().
	Logger logging.Logger

	// Metrics defaults to metrics.Init(Config.Server.Metrics).
	Metrics metrics.Recorder

	// Creds defaults to a StaticStore built from Config.Files.Creds.
	Creds auth.CredentialStore
}

type Server struct {
	cfg   *config.Config
	log   logging.Logger
	rec   metrics.Recorder
	creds auth.CredentialStore
	files *files.Service

	build buildDetails

	davMu sync.Mutex
	dav   map[string]*webdav.Handler
}

func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("httpserver: nil config")
	}
	cfg := opts.Config

	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	rec := opts.Metrics
	if rec == nil {
		rec = metrics.Init(cfg.Server.Metrics)
	}
	creds := opts.Creds
	if creds == nil {
		creds = auth.NewStaticStore(cfg.Files.Creds)
	}

	src, err := version.SourceTreeURL(cfg.SourceCode, version.Commit())
	if err != nil {
		return nil, fmt.Errorf("source code url: %w", err)
	}

	return &Server{
		cfg:   cfg,
		log:   log,
		rec:   rec,
		creds: metrics.CountAuth(creds, rec),
		files: files.New(cfg.Files.Path),
		build: buildDetails{
			Version:       version.Get(),
			GitCommitHash: version.Commit(),
			SourceCode:    src,
		},
		dav: make(map[string]*webdav.Handler),
	}, nil
}

// Handler returns the full handler chain: security headers, trailing-slash
// trimming for API paths, request logging and metrics around the router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// files API
	mux.Handle("DELETE /api/v1/files/delete", s.authed(s.handleDelete))
	mux.Handle("POST /api/v1/files/upload", s.authed(s.handleUpload))
	mux.Handle("GET /api/v1/files", s.authed(s.handleIndex))
	mux.Handle("GET /api/v1/files/list", s.authed(s.handleList))
	mux.Handle("GET /api/v1/files/raw", s.authed(s.handleRaw))
	mux.Handle("GET /api/v1/files/thumb", s.authed(s.handleThumb))

	// WebDAV, rooted at the caller's own directory
	if !s.cfg.Files.DisableWebDAV {
		mux.Handle("/dav/", s.authed(s.handleDAV))
	}

	// meta
	mux.HandleFunc("GET /api/v1/meta/build", s.handleBuild)
	mux.HandleFunc("GET /api/v1/meta/health", s.handleHealth)

	if s.cfg.Server.Metrics {
		mux.Handle("GET /metrics", s.rec.Handler())
	}

	// public read-only tree
	mux.Handle("/", s.browse())

	return securityHeaders(trimTrailingSlash(s.observe(mux)))
}

// authed puts the basic-auth gate in front of h and records the
// authenticated user for the access log.
func (s *Server) authed(h http.HandlerFunc) http.Handler {
	return auth.RequireAuth(s.creds, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if info := infoFromContext(r.Context()); info != nil {
			info.user = auth.UserFromContext(r.Context())
		}
		h(w, r)
	}))
}

func (s *Server) browse() http.Handler {
	root := s.cfg.Files.BrowseRoot
	if root == "" {
		root = s.cfg.Files.Path
	}
	fileServer := http.FileServer(http.Dir(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			s.writeError(w, r, errMethodNotAllowed)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}
