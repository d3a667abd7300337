package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tourify/guide-api/internal/adapter/auth"
	"github.com/tourify/guide-api/internal/config"
	"github.com/tourify/guide-api/internal/service"
)

func TestCORSPreflightAllowsFingerprintHeader(t *testing.T) {
	cfg := &config.Config{Env: "development"}
	e := NewServer(service.New(service.Dependencies{}, cfg, nil), auth.NewVerifier(""), cfg, nil)

	req := httptest.NewRequest(http.MethodOptions, "/anonymous/generateGuide", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "x-device-fingerprint")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	allowed := strings.ToLower(rec.Header().Get("Access-Control-Allow-Headers"))
	if !strings.Contains(allowed, "x-device-fingerprint") {
		t.Fatalf("fingerprint header not allowed: %q", allowed)
	}
}
