package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		provided   string
		wantStatus int
	}{
		{"valid key", "secret-key", "secret-key", http.StatusOK},
		{"key with surrounding whitespace", "secret-key", " secret-key ", http.StatusOK},
		{"wrong key", "secret-key", "other-key", http.StatusUnauthorized},
		{"missing key", "secret-key", "", http.StatusUnauthorized},
		{"check disabled", "", "", http.StatusOK},
		{"check disabled ignores provided key", "", "anything", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireAPIKey(tt.configured)(okHandler())

			req := httptest.NewRequest(http.MethodPost, "/v1/search", nil)
			if tt.provided != "" {
				req.Header.Set(APIKeyHeader, tt.provided)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, expected %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized && rec.Header().Get("Content-Type") != "application/json" {
				t.Errorf("rejection Content-Type = %q", rec.Header().Get("Content-Type"))
			}
		})
	}
}
