package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestManager(expiry time.Duration) *JWTManager {
	cfg := DefaultJWTConfig("test-secret")
	cfg.Expiry = expiry
	return NewJWTManager(cfg)
}

func TestJWTManager_Roundtrip(t *testing.T) {
	manager := newTestManager(time.Hour)

	token, err := manager.GenerateToken("admin@example.com", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != "admin@example.com" {
		t.Errorf("subject = %q", claims.Subject)
	}
	if claims.Role != RoleAdmin {
		t.Errorf("role = %q, expected %q", claims.Role, RoleAdmin)
	}
	if claims.Issuer != "govrag" {
		t.Errorf("issuer = %q", claims.Issuer)
	}
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	manager := newTestManager(-time.Minute)

	token, err := manager.GenerateToken("user", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := manager.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestJWTManager_WrongSecret(t *testing.T) {
	token, err := newTestManager(time.Hour).GenerateToken("user", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	other := NewJWTManager(DefaultJWTConfig("different-secret"))
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTManager_RejectsWrongAlgorithm(t *testing.T) {
	manager := newTestManager(time.Hour)

	// Token signed with HS512 while the manager expects HS256.
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: RoleAdmin,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	if _, err := manager.ValidateToken(token); err == nil {
		t.Error("expected rejection of mismatched signing method")
	}
}

func TestRequireAdmin(t *testing.T) {
	manager := newTestManager(time.Hour)

	adminToken, err := manager.GenerateToken("admin", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	viewerToken, err := manager.GenerateToken("viewer", "viewer")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"admin token", "Bearer " + adminToken, http.StatusOK},
		{"non-admin role", "Bearer " + viewerToken, http.StatusForbidden},
		{"missing header", "", http.StatusUnauthorized},
		{"not a bearer token", adminToken, http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := manager.RequireAdmin()(okHandler())

			req := httptest.NewRequest(http.MethodPost, "/v1/documents", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, expected %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
