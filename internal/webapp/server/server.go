// Package server provides the server-rendered web front-end. It holds no
// data of its own: every read and write is relayed to the API service, and
// the only state it keeps on the browser is the signed identity cookie and
// one-shot flash notices.
package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/inkwell-web/inkwell/internal/webapp/config"
	"github.com/inkwell-web/inkwell/internal/webapp/flash"
	"github.com/inkwell-web/inkwell/internal/webapp/localauth"
	"github.com/inkwell-web/inkwell/internal/webapp/relay"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Server is the front-end HTTP server.
type Server struct {
	cfg      config.Config
	log      logr.Logger
	relay    *relay.Client
	identity *localauth.Manager
	metrics  *relay.Metrics
	pages    map[string]*template.Template
	mux      *http.ServeMux
}

// NewServer creates a front-end server talking to the API at cfg.APIBaseURL.
func NewServer(cfg config.Config, log logr.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	metrics := relay.NewMetrics()
	relayClient, err := relay.NewClient(cfg.APIBaseURL, cfg.RelayTimeout, metrics)
	if err != nil {
		return nil, err
	}
	identity, err := localauth.NewManager([]byte(cfg.IdentityKey), cfg.IdentityLifetime)
	if err != nil {
		return nil, err
	}

	funcMap := template.FuncMap{
		"formatTime": formatTime,
		"truncate":   truncateStr,
	}

	// Parse layout as the base template, then clone for each page.
	// This avoids the "last {{define "content"}} wins" problem.
	layoutTmpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	pageNames := []string{
		"index.html", "register.html",
		"articles.html", "article-detail.html",
		"users.html", "profile.html", "forbidden.html",
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, page := range pageNames {
		t, err := layoutTmpl.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", page, err)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+page); err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		pages[page] = t
	}

	s := &Server{
		cfg:      cfg,
		log:      log,
		relay:    relayClient,
		identity: identity,
		metrics:  metrics,
		pages:    pages,
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	s.mux.Handle("GET /metrics", s.metrics.Handler())

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.HandleFunc("GET /register", s.handleRegisterForm)
	s.mux.HandleFunc("POST /register", s.handleRegister)
	s.mux.HandleFunc("POST /logout", s.handleLogout)

	s.mux.HandleFunc("GET /articles", s.identified(s.handleArticles))
	s.mux.HandleFunc("POST /articles", s.identified(s.handleArticleCreate))
	s.mux.HandleFunc("GET /articles/{id}", s.identified(s.handleArticleDetail))
	s.mux.HandleFunc("POST /articles/{id}/edit", s.identified(s.handleArticleUpdate))
	s.mux.HandleFunc("POST /articles/{id}/delete", s.identified(s.handleArticleDelete))
	s.mux.HandleFunc("POST /articles/{id}/comments", s.identified(s.handleCommentAdd))
	s.mux.HandleFunc("POST /comments/{id}/delete", s.identified(s.handleCommentDelete))

	s.mux.HandleFunc("GET /users", s.identified(s.elevated(s.handleUsers)))
	s.mux.HandleFunc("GET /profile", s.identified(s.handleProfile))
	s.mux.HandleFunc("POST /profile", s.identified(s.handleProfileUpdate))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start runs the front-end server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("Web front-end starting", "addr", s.cfg.ListenAddr, "api", s.cfg.APIBaseURL)
	var err error
	if s.cfg.HasTLS() {
		err = srv.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
	} else {
		err = srv.ListenAndServe()
	}
	if err != http.ErrServerClosed {
		return err
	}
	return nil
}

// --- View guards ---

type principalKey struct{}

func principalFromContext(ctx context.Context) *localauth.Principal {
	p, _ := ctx.Value(principalKey{}).(*localauth.Principal)
	return p
}

// identified requires a valid identity cookie; anonymous visitors are sent
// back to the login page.
func (s *Server) identified(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.identity.Read(r)
		if err != nil {
			s.identity.Clear(w)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
	}
}

// elevated requires a moderator or administrator identity.
func (s *Server) elevated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := principalFromContext(r.Context())
		if p == nil || !p.IsElevated() {
			w.WriteHeader(http.StatusForbidden)
			s.render(w, r, "forbidden.html", map[string]any{"Title": "Forbidden"})
			return
		}
		next(w, r)
	}
}

// --- Render ---

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	t, ok := s.pages[name]
	if !ok {
		s.log.Error(nil, "Template not found", "template", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Principal"]; !ok {
		if p := principalFromContext(r.Context()); p != nil {
			data["Principal"] = p
		} else if p, err := s.identity.Read(r); err == nil {
			data["Principal"] = p
		}
	}
	if _, ok := data["Flash"]; !ok {
		if msg, found := flash.Pop(w, r); found {
			data["Flash"] = msg
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		s.log.Error(err, "Template render error", "template", name)
	}
}

// flashAndRedirect queues a notice and sends the browser elsewhere. Relay
// failures always travel this path so the visitor never sees a raw error.
func (s *Server) flashAndRedirect(w http.ResponseWriter, r *http.Request, text, kind, location string) {
	flash.Set(w, text, kind)
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// --- Template functions ---

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("2006-01-02 15:04")
}

func truncateStr(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max]) + "..."
}
