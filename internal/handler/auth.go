package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hashlabs/taskpoints/internal/auth"
	"github.com/hashlabs/taskpoints/internal/model"
	"github.com/hashlabs/taskpoints/internal/store"
	"github.com/hashlabs/taskpoints/internal/token"
)

const tokenCookieName = "jwt"

type AuthHandler struct {
	principals *store.PrincipalStore
	signer     *token.Signer
	tokenTTL   time.Duration
	logger     *slog.Logger
}

func NewAuthHandler(ps *store.PrincipalStore, signer *token.Signer, tokenTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{principals: ps, signer: signer, tokenTTL: tokenTTL, logger: logger}
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, raw string) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    raw,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	p, err := h.principals.CreateUser(req.Name, req.Email, string(hash))
	if err != nil {
		if store.IsUniqueViolation(err, "users") {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	raw, err := h.signer.Issue(p.ID, model.RoleUser)
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	h.setTokenCookie(w, raw)

	h.logger.Info("user registered", "user_id", p.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"user": p, "token": raw})
}

// Login authenticates a principal of the given role. The same flow serves
// /users/login and /admin/login; only the lookup table differs.
func (h *AuthHandler) Login(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		id, hash, err := h.principals.Credentials(role, req.Email)
		if err != nil {
			h.logger.Error("load credentials", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to log in")
			return
		}
		if id == 0 || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
			// Same response for unknown email and wrong password.
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}

		p, err := h.principals.Resolve(role, id)
		if err != nil || p == nil {
			writeError(w, http.StatusInternalServerError, "failed to log in")
			return
		}

		raw, err := h.signer.Issue(p.ID, role)
		if err != nil {
			h.logger.Error("issue token", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to issue token")
			return
		}
		h.setTokenCookie(w, raw)

		h.logger.Info("login", "principal_id", p.ID, "role", role)
		writeJSON(w, http.StatusOK, map[string]any{"user": p, "token": raw})
	}
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the authenticated principal with a fresh balance.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	p, err := h.principals.Resolve(ac.Role, ac.PrincipalID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load principal")
		return
	}
	if p == nil {
		writeError(w, http.StatusUnauthorized, "principal not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
