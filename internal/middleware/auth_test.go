package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashlabs/taskpoints/internal/auth"
	"github.com/hashlabs/taskpoints/internal/database"
	"github.com/hashlabs/taskpoints/internal/store"
	"github.com/hashlabs/taskpoints/internal/token"
)

func setupAuthTest(t *testing.T) (*token.Signer, *store.PrincipalStore, int64, int64) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ps := store.NewPrincipalStore(db)
	u, err := ps.CreateUser("Alice", "alice@example.com", "h")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	a, err := ps.CreateAdmin("admin@example.com", "h")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return token.NewSigner("secret", time.Hour), ps, u.ID, a.ID
}

func echoPrincipal(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Error("expected principal in context")
		}
		json.NewEncoder(w).Encode(ac)
	})
}

func TestRequireAuthHeader(t *testing.T) {
	signer, ps, userID, _ := setupAuthTest(t)
	handler := RequireAuth(signer, ps)(echoPrincipal(t))

	raw, err := signer.Issue(userID, "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var ac auth.AuthContext
	if err := json.Unmarshal(rec.Body.Bytes(), &ac); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ac.PrincipalID != userID || ac.Role != "user" {
		t.Errorf("principal = %+v, want user %d", ac, userID)
	}
}

func TestRequireAuthCookie(t *testing.T) {
	signer, ps, userID, _ := setupAuthTest(t)
	handler := RequireAuth(signer, ps)(echoPrincipal(t))

	raw, err := signer.Issue(userID, "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: raw})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequireAuthAdminRole(t *testing.T) {
	signer, ps, _, adminID := setupAuthTest(t)
	handler := RequireAuth(signer, ps)(echoPrincipal(t))

	raw, err := signer.Issue(adminID, "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var ac auth.AuthContext
	if err := json.Unmarshal(rec.Body.Bytes(), &ac); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ac.Role != "admin" {
		t.Errorf("role = %q, want admin", ac.Role)
	}
}

func TestRequireAuthFailureModes(t *testing.T) {
	signer, ps, userID, _ := setupAuthTest(t)
	handler := RequireAuth(signer, ps)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	expired, err := token.NewSigner("secret", -time.Minute).Issue(userID, "user")
	if err != nil {
		t.Fatalf("issue expired: %v", err)
	}
	wrongKey, err := token.NewSigner("other", time.Hour).Issue(userID, "user")
	if err != nil {
		t.Fatalf("issue wrong key: %v", err)
	}
	deleted, err := signer.Issue(9999, "user")
	if err != nil {
		t.Fatalf("issue deleted: %v", err)
	}
	cases := []struct {
		name, header, wantMsg string
	}{
		{"missing token", "", "no token"},
		{"garbage token", "Bearer garbage", "invalid token"},
		{"expired token", "Bearer " + expired, "token expired"},
		{"wrong signature", "Bearer " + wrongKey, "invalid token"},
		{"deleted principal", "Bearer " + deleted, "principal not found"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if body["error"] != c.wantMsg {
				t.Errorf("error = %q, want %q", body["error"], c.wantMsg)
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// No principal attached at all: unauthenticated, not forbidden.
	rec := httptest.NewRecorder()
	RequireRoles("admin")(next).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no principal: status = %d, want 401", rec.Code)
	}

	// Wrong role: forbidden.
	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{PrincipalID: 1, Role: "user"}))
	rec = httptest.NewRecorder()
	RequireRoles("admin")(next).ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong role: status = %d, want 403", rec.Code)
	}

	// Allowed role passes.
	rec = httptest.NewRecorder()
	RequireRoles("user", "admin")(next).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("allowed role: status = %d, want 200", rec.Code)
	}
}
