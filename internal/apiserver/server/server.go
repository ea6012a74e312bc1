// Package server wires together all API subsystems and exposes the HTTP
// server. main() builds a Server, calls Run, done.
package server

import (
	"context"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/inkwell-web/inkwell/internal/apiserver/articles"
	"github.com/inkwell-web/inkwell/internal/apiserver/auth"
	"github.com/inkwell-web/inkwell/internal/apiserver/comments"
	"github.com/inkwell-web/inkwell/internal/apiserver/config"
	"github.com/inkwell-web/inkwell/internal/apiserver/metrics"
	"github.com/inkwell-web/inkwell/internal/apiserver/roles"
	"github.com/inkwell-web/inkwell/internal/apiserver/service"
	"github.com/inkwell-web/inkwell/internal/apiserver/session"
	"github.com/inkwell-web/inkwell/internal/apiserver/storage"
	"github.com/inkwell-web/inkwell/internal/apiserver/tags"
	"github.com/inkwell-web/inkwell/internal/apiserver/users"
	"github.com/inkwell-web/inkwell/internal/telemetry"
)

// Version info injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Server is the assembled API service.
type Server struct {
	cfg    config.Config
	logger *zap.Logger

	dbs []*storage.DB

	userStore    *users.Store
	roleStore    *roles.Store
	articleStore *articles.Store
	commentStore *comments.Store
	tagStore     *tags.Store
	sessionStore *session.Store

	userSvc    *service.Users
	roleSvc    *service.Roles
	articleSvc *service.Articles
	commentSvc *service.Comments
	tagSvc     *service.Tags

	loginLimiter *auth.RateLimiter
	collector    *metrics.Collector

	cleanupMu   sync.Mutex
	lastCleanup struct {
		removed int
		at      time.Time
	}

	httpServer *http.Server
}

// New builds a fully-wired Server from config.
func New(cfg config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logger,
	}

	if err := s.initStores(); err != nil {
		s.Close()
		return nil, err
	}

	s.userSvc = service.NewUsers(s.userStore, s.sessionStore)
	s.roleSvc = service.NewRoles(s.roleStore)
	s.articleSvc = service.NewArticles(s.articleStore, s.commentStore)
	s.commentSvc = service.NewComments(s.commentStore, s.articleStore)
	s.tagSvc = service.NewTags(s.tagStore)

	s.loginLimiter = auth.NewRateLimiter(cfg.RateLimit.LoginPerMinute, time.Minute)
	s.collector = metrics.NewCollector(s.userStore, s)

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	authMiddleware := auth.NewMiddleware(&sessionUserValidator{
		sessions: s.sessionStore,
		users:    s.userStore,
	}, []string{
		"/healthz",
		"/version",
		"/api/v1/auth/login",
		"/api/v1/users",
		"/api/v1/users/admin",
		"/api/v1/metrics",
	})

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.observe(authMiddleware.Wrap(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

func (s *Server) initStores() error {
	if s.cfg.Database.Driver == "" || s.cfg.Database.Driver == "sqlite" {
		if err := os.MkdirAll(s.cfg.DataDir, 0750); err != nil {
			return err
		}
	}

	open := func(store string) (*storage.DB, error) {
		db, err := storage.Open(s.cfg.Database.Driver, s.cfg.DatabaseDSN(store))
		if err != nil {
			return nil, err
		}
		s.dbs = append(s.dbs, db)
		return db, nil
	}

	usersDB, err := open("users")
	if err != nil {
		return err
	}
	if s.userStore, err = users.NewStore(usersDB); err != nil {
		return err
	}
	if s.roleStore, err = roles.NewStore(usersDB); err != nil {
		return err
	}
	if s.sessionStore, err = session.NewStore(usersDB, s.cfg.SessionLifetime); err != nil {
		return err
	}

	contentDB, err := open("content")
	if err != nil {
		return err
	}
	if s.articleStore, err = articles.NewStore(contentDB); err != nil {
		return err
	}
	if s.commentStore, err = comments.NewStore(contentDB); err != nil {
		return err
	}
	if s.tagStore, err = tags.NewStore(contentDB); err != nil {
		return err
	}

	return nil
}

// observe wraps the handler chain with request metrics and a server span
// per request.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := telemetry.StartRequestSpan(r.Context(), r.Method, r.URL.Path)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))
		telemetry.EndRequestSpan(span, rec.status)
		s.collector.ObserveRequest(rec.status)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Run starts the server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	cleaner := cron.New()
	if _, err := cleaner.AddFunc(s.cfg.SessionCleanup, s.cleanupSessions); err != nil {
		s.logger.Warn("invalid session cleanup schedule, cleanup disabled",
			zap.String("spec", s.cfg.SessionCleanup), zap.Error(err))
	} else {
		cleaner.Start()
		defer cleaner.Stop()
	}

	s.logger.Info("starting api server",
		zap.String("addr", s.cfg.ListenAddr),
		zap.String("version", Version),
		zap.String("db_driver", s.cfg.Database.Driver),
		zap.Duration("session_lifetime", s.cfg.SessionLifetime),
	)

	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.cfg.HasTLS() {
			err = s.httpServer.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) cleanupSessions() {
	removed, err := s.sessionStore.Cleanup()
	if err != nil {
		s.logger.Warn("session cleanup failed", zap.Error(err))
		return
	}

	s.cleanupMu.Lock()
	s.lastCleanup.removed = removed
	s.lastCleanup.at = time.Now().UTC()
	s.cleanupMu.Unlock()

	if removed > 0 {
		s.logger.Info("expired sessions removed", zap.Int("count", removed))
	}
}

// LastCleanup reports the most recent cleanup run for metrics.
func (s *Server) LastCleanup() (int, time.Time) {
	s.cleanupMu.Lock()
	defer s.cleanupMu.Unlock()
	return s.lastCleanup.removed, s.lastCleanup.at
}

// Close releases all resources.
func (s *Server) Close() {
	for _, db := range s.dbs {
		_ = db.Close()
	}
	s.dbs = nil
}
