package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clinicware/medipos-backend/internal/auth"
	pkgAuth "github.com/clinicware/medipos-backend/pkg/auth"
	pkgerrors "github.com/clinicware/medipos-backend/pkg/errors"
)

type stubAuthService struct {
	loginCalls int
	loginErr   error
	result     *auth.LoginResponse
}

func (s *stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.LoginResponse, error) {
	return s.result, s.loginErr
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.loginCalls++
	return s.result, s.loginErr
}

func (s *stubAuthService) Refresh(ctx context.Context, claims *pkgAuth.AccessTokenClaims, refreshToken string) (*auth.LoginResponse, error) {
	return s.result, s.loginErr
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	return s.loginErr
}

func TestAuthLogin(t *testing.T) {
	logg := testLogger()

	post := func(stub *stubAuthService, payload string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		AuthLogin(stub, logg).ServeHTTP(rec, req)
		return rec
	}

	t.Run("malformed body", func(t *testing.T) {
		stub := &stubAuthService{}
		rec := post(stub, `{"email":`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if stub.loginCalls != 0 {
			t.Fatalf("service must not be called on bad input")
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		stub := &stubAuthService{}
		rec := post(stub, `{"email":"not-an-email"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("invalid credentials map to 401", func(t *testing.T) {
		stub := &stubAuthService{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
		rec := post(stub, `{"email":"ada@clinic.test","password":"secret123"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		stub := &stubAuthService{result: &auth.LoginResponse{AccessToken: "token", RefreshToken: "refresh"}}
		rec := post(stub, `{"email":"ada@clinic.test","password":"secret123"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.loginCalls != 1 {
			t.Fatalf("expected exactly one service call, got %d", stub.loginCalls)
		}
		if !strings.Contains(rec.Body.String(), `"access_token":"token"`) {
			t.Fatalf("expected token in body: %s", rec.Body.String())
		}
	})

	t.Run("nil service", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		AuthLogin(nil, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}
