// Package server hosts the local web UI: an upload page, proxied analysis
// with server-side chart activation, export download, and a live activity
// stream.
package server

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/shopeetools/revscope/pkg/activity"
	"github.com/shopeetools/revscope/pkg/client"
	"github.com/shopeetools/revscope/pkg/export"
	"github.com/shopeetools/revscope/pkg/report"
	"github.com/shopeetools/revscope/pkg/upload"

	"github.com/shopeetools/revscope/internal/utils"
)

//go:embed web
var WebFS embed.FS

type Server struct {
	Backend  *client.Client
	Exporter *export.Exporter
	Uploads  *upload.Controller
	Renderer *report.Renderer
	Activity *activity.Log

	Username string
	Password string
}

func New(backend *client.Client, exporter *export.Exporter, renderer *report.Renderer, log *activity.Log, user, pass string) *Server {
	return &Server{
		Backend:  backend,
		Exporter: exporter,
		Uploads:  upload.NewController(),
		Renderer: renderer,
		Activity: log,
		Username: user,
		Password: pass,
	}
}

func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()

	// API Group
	mux.HandleFunc("POST /api/upload", s.basicAuth(s.handleUpload))
	mux.HandleFunc("POST /api/export/pdf", s.basicAuth(s.handleExport))
	mux.HandleFunc("GET /api/health", s.basicAuth(s.handleHealth))
	mux.HandleFunc("GET /api/activity", s.basicAuth(s.handleActivity))
	mux.HandleFunc("GET /api/activity/ws", s.basicAuth(s.handleActivityWS))

	// Static Files
	webRoot, err := fs.Sub(WebFS, "web")
	if err != nil {
		return err
	}
	fileServer := http.FileServer(http.FS(webRoot))
	mux.Handle("/", s.basicAuthMiddlewareForStatic(fileServer))

	utils.Log.Infof("Starting server on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) basicAuthMiddlewareForStatic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
