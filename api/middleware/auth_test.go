package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/clinicware/medipos-backend/pkg/auth"
	"github.com/clinicware/medipos-backend/pkg/config"
	"github.com/clinicware/medipos-backend/pkg/enums"
	"github.com/clinicware/medipos-backend/pkg/logger"
)

type stubSessionChecker struct {
	ok  bool
	err error
}

func (s stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return s.ok, s.err
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "medipos-test",
		ExpirationMinutes: 30,
	}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:   userID,
		TenantID: userID,
		Role:     enums.UserRoleAdmin,
		JTI:      uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuth(t *testing.T) {
	cfg := testJWTConfig()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	userID := uuid.New()

	var captured *http.Request
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.WriteHeader(http.StatusOK)
	})

	run := func(authorization string, checker stubSessionChecker) *httptest.ResponseRecorder {
		captured = nil
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		rec := httptest.NewRecorder()
		Auth(cfg, checker, logg)(next).ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing header", func(t *testing.T) {
		rec := run("", stubSessionChecker{ok: true})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := run("Bearer not-a-jwt", stubSessionChecker{ok: true})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("revoked session", func(t *testing.T) {
		token := mintTestToken(t, cfg, userID)
		rec := run("Bearer "+token, stubSessionChecker{ok: false})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for revoked session, got %d", rec.Code)
		}
	})

	t.Run("valid token seeds context", func(t *testing.T) {
		token := mintTestToken(t, cfg, userID)
		rec := run("Bearer "+token, stubSessionChecker{ok: true})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if captured == nil {
			t.Fatal("next handler not reached")
		}
		if got := UserIDFromContext(captured.Context()); got != userID.String() {
			t.Fatalf("expected user id in context, got %q", got)
		}
		if got := TenantIDFromContext(captured.Context()); got != userID.String() {
			t.Fatalf("expected tenant id in context, got %q", got)
		}
		if got := RoleFromContext(captured.Context()); got != string(enums.UserRoleAdmin) {
			t.Fatalf("expected admin role in context, got %q", got)
		}
	})
}

func TestRequireRole(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("wrong role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/staff", nil)
		req = req.WithContext(WithRole(req.Context(), "staff"))
		rec := httptest.NewRecorder()
		RequireRole("admin", logg)(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("missing role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/staff", nil)
		rec := httptest.NewRecorder()
		RequireRole("admin", logg)(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("matching role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/staff", nil)
		req = req.WithContext(WithRole(req.Context(), "admin"))
		rec := httptest.NewRecorder()
		RequireRole("admin", logg)(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}
