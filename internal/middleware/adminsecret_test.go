package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAdminSecret(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := AdminSecret("topsecret")(next)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid secret", "topsecret", http.StatusOK},
		{"wrong secret", "nope", http.StatusForbidden},
		{"missing secret", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/admin/upload", nil)
			if tt.header != "" {
				req.Header.Set(AdminSecretHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			mw.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestAdminSecretUnconfigured(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := AdminSecret("")(next)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload", nil)
	req.Header.Set(AdminSecretHeader, "anything")
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when secret unconfigured, got %d", rec.Code)
	}
}
