package server

import (
	"encoding/json"
	"net/http"
)

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Health + version
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /version", s.handleVersion)

	// Auth
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/v1/auth/profile", s.handleProfile)

	// Users
	mux.HandleFunc("GET /api/v1/users/me", s.handleMe)
	mux.HandleFunc("GET /api/v1/users", s.handleListUsers)
	mux.HandleFunc("POST /api/v1/users", s.handleRegisterUser)
	mux.HandleFunc("POST /api/v1/users/admin", s.handleBootstrapAdmin)
	mux.HandleFunc("GET /api/v1/users/{id}", s.handleGetUser)
	mux.HandleFunc("PUT /api/v1/users/{id}", s.handleUpdateUser)
	mux.HandleFunc("DELETE /api/v1/users/{id}", s.handleDeleteUser)
	mux.HandleFunc("PUT /api/v1/users/{id}/role", s.handleUpdateUserRole)

	// Articles
	mux.HandleFunc("POST /api/v1/articles", s.handleCreateArticle)
	mux.HandleFunc("GET /api/v1/articles", s.handleSearchArticles)
	mux.HandleFunc("GET /api/v1/articles/latest", s.handleLatestArticles)
	mux.HandleFunc("GET /api/v1/articles/{id}", s.handleGetArticle)
	mux.HandleFunc("GET /api/v1/articles/author/{authorId}", s.handleArticlesByAuthor)
	mux.HandleFunc("PUT /api/v1/articles/{id}", s.handleUpdateArticle)
	mux.HandleFunc("DELETE /api/v1/articles/{id}", s.handleDeleteArticle)

	// Comments
	mux.HandleFunc("POST /api/v1/comments", s.handleAddComment)
	mux.HandleFunc("GET /api/v1/comments", s.handleListComments)
	mux.HandleFunc("GET /api/v1/comments/{id}", s.handleGetComment)
	mux.HandleFunc("PUT /api/v1/comments/{id}", s.handleEditComment)
	mux.HandleFunc("DELETE /api/v1/comments/{id}", s.handleDeleteComment)

	// Tags
	mux.HandleFunc("POST /api/v1/tags", s.handleCreateTag)
	mux.HandleFunc("GET /api/v1/tags", s.handleListTags)
	mux.HandleFunc("GET /api/v1/tags/by-name", s.handleTagByName)
	mux.HandleFunc("GET /api/v1/tags/{id}", s.handleGetTag)
	mux.HandleFunc("PUT /api/v1/tags/{id}", s.handleUpdateTag)
	mux.HandleFunc("DELETE /api/v1/tags/{id}", s.handleDeleteTag)

	// Roles
	mux.HandleFunc("GET /api/v1/roles", s.handleListRoles)
	mux.HandleFunc("GET /api/v1/roles/by-name/{name}", s.handleRoleByName)
	mux.HandleFunc("GET /api/v1/roles/{id}", s.handleGetRole)
	mux.HandleFunc("POST /api/v1/roles", s.handleCreateRole)
	mux.HandleFunc("PUT /api/v1/roles/{id}", s.handleRenameRole)
	mux.HandleFunc("DELETE /api/v1/roles/{id}", s.handleDeleteRole)

	// Metrics
	mux.HandleFunc("GET /api/v1/metrics", s.collector.Handler())
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"version": Version,
		"commit":  Commit,
		"date":    Date,
	})
}
