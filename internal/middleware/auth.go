package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hashlabs/taskpoints/internal/auth"
	"github.com/hashlabs/taskpoints/internal/store"
	"github.com/hashlabs/taskpoints/internal/token"
)

const tokenCookieName = "jwt"

// RequireAuth resolves the bearer credential (Authorization header first,
// then the session cookie) to a principal and attaches it to the request
// context. Each failure mode gets its own message so clients can tell
// "log in again" apart from a malformed request.
func RequireAuth(signer *token.Signer, principals *store.PrincipalStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "no token")
				return
			}

			ident, err := signer.Verify(raw)
			if err != nil {
				if errors.Is(err, token.ErrExpired) {
					writeError(w, http.StatusUnauthorized, "token expired")
					return
				}
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			p, err := principals.Resolve(ident.Role, ident.PrincipalID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to resolve principal")
				return
			}
			if p == nil {
				writeError(w, http.StatusUnauthorized, "principal not found")
				return
			}

			ac := auth.AuthContext{
				PrincipalID: p.ID,
				Role:        p.Role,
				Name:        p.Name,
				Email:       p.Email,
				Points:      p.Points,
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

// RequireRoles allows only the listed roles through. It checks for an
// attached principal on its own rather than trusting middleware order.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := auth.FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			for _, role := range roles {
				if ac.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "role "+ac.Role+" is not allowed to access this resource")
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := r.Cookie(tokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
