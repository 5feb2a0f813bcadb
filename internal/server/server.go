package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashlabs/taskpoints/internal/config"
	"github.com/hashlabs/taskpoints/internal/engine"
	"github.com/hashlabs/taskpoints/internal/handler"
	"github.com/hashlabs/taskpoints/internal/middleware"
	"github.com/hashlabs/taskpoints/internal/model"
	"github.com/hashlabs/taskpoints/internal/store"
	"github.com/hashlabs/taskpoints/internal/token"
	ws "github.com/hashlabs/taskpoints/internal/websocket"
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	engine      *engine.Engine
	principals  *store.PrincipalStore
	signer      *token.Signer
	authH       *handler.AuthHandler
	taskH       *handler.TaskHandler
	adminH      *handler.AdminHandler
	contactH    *handler.ContactHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	taskStore := store.NewTaskStore(db)
	principalStore := store.NewPrincipalStore(db)
	contactStore := store.NewContactStore(db)

	eng := engine.New(taskStore, principalStore, contactStore, cfg.CompletionReward, hub, logger.With("component", "engine"))
	signer := token.NewSigner(cfg.JWTSecret, cfg.TokenTTL)

	return &Server{
		db:          db,
		hub:         hub,
		engine:      eng,
		principals:  principalStore,
		signer:      signer,
		authH:       handler.NewAuthHandler(principalStore, signer, cfg.TokenTTL, logger.With("component", "auth")),
		taskH:       handler.NewTaskHandler(eng, logger.With("component", "task")),
		adminH:      handler.NewAdminHandler(eng, principalStore, cfg.AdminEmail, cfg.AdminPassword, logger.With("component", "admin")),
		contactH:    handler.NewContactHandler(contactStore, logger.With("component", "contact")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /api/v1/users/register", s.rateLimitedHandler(s.authH.Register))
	mux.HandleFunc("POST /api/v1/users/login", s.rateLimitedHandler(s.authH.Login(model.RoleUser)))
	mux.HandleFunc("POST /api/v1/admin/login", s.rateLimitedHandler(s.authH.Login(model.RoleAdmin)))
	mux.HandleFunc("POST /api/v1/admin/init", s.adminH.Init)
	mux.HandleFunc("POST /api/v1/contact", s.contactH.Create)
	mux.HandleFunc("GET /api/v1/users/logout", s.authH.Logout)
	mux.HandleFunc("GET /health", s.healthHandler)

	requireAuth := middleware.RequireAuth(s.signer, s.principals)
	userOrAdmin := middleware.RequireRoles(model.RoleUser, model.RoleAdmin)
	userOnly := middleware.RequireRoles(model.RoleUser)
	adminOnly := middleware.RequireRoles(model.RoleAdmin)

	protect := func(extra func(http.Handler) http.Handler, h http.HandlerFunc) http.Handler {
		return requireAuth(extra(h))
	}

	// Authenticated routes. Submitting, browsing the feed, and completing
	// are user-only: submitted_by and the feed's viewer id live in the
	// users id-space, and admin ids would collide with unrelated users.
	// Admins audit tasks through /api/v1/admin/tasks instead.
	mux.Handle("GET /api/v1/users/me", protect(userOrAdmin, s.authH.Me))
	mux.Handle("GET /api/v1/tasks", protect(userOnly, s.taskH.List))
	mux.Handle("POST /api/v1/tasks", protect(userOnly, s.taskH.Create))
	mux.Handle("POST /api/v1/tasks/{id}/complete", protect(userOnly, s.taskH.Complete))
	mux.Handle("GET /ws", protect(userOrAdmin, ws.Handler(s.hub, s.logger.With("component", "websocket"))))

	// Admin audit surface
	mux.Handle("GET /api/v1/admin/tasks", protect(adminOnly, s.adminH.ListTasks))
	mux.Handle("DELETE /api/v1/admin/tasks/{id}", protect(adminOnly, s.adminH.DeactivateTask))
	mux.Handle("GET /api/v1/admin/stats", protect(adminOnly, s.adminH.Stats))
	mux.Handle("GET /api/v1/admin/users", protect(adminOnly, s.adminH.ListUsers))
	mux.Handle("GET /api/v1/admin/users/{id}/completions", protect(adminOnly, s.adminH.UserCompletions))
	mux.Handle("PUT /api/v1/admin/users/{id}/points", protect(adminOnly, s.adminH.SetBalance))
	mux.Handle("GET /api/v1/admin/contacts", protect(adminOnly, s.contactH.List))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
