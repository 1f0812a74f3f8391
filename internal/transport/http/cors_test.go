package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func teapot() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestCORS_PreflightAllowed(t *testing.T) {
	handler := CORS([]string{"http://localhost:5173"}, teapot())

	req := httptest.NewRequest(http.MethodOptions, "/assignments/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allow origin, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, DELETE, OPTIONS" {
		t.Fatalf("unexpected allow methods %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, X-Request-ID" {
		t.Fatalf("unexpected allow headers %q", got)
	}
}

func TestCORS_PreflightForbidden(t *testing.T) {
	handler := CORS([]string{"http://localhost:5173"}, teapot())

	req := httptest.NewRequest(http.MethodOptions, "/assignments/x/reseat", nil)
	req.Header.Set("Origin", "http://evil.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

func TestCORS_Wildcard(t *testing.T) {
	handler := CORS([]string{" * "}, teapot())

	req := httptest.NewRequest(http.MethodGet, "/layout", nil)
	req.Header.Set("Origin", "http://anywhere.local")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected passthrough, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
}

func TestCORS_UnlistedSimpleRequestPassesWithoutHeaders(t *testing.T) {
	handler := CORS([]string{"http://localhost:5173", ""}, teapot())

	req := httptest.NewRequest(http.MethodGet, "/layout", nil)
	req.Header.Set("Origin", "http://evil.local")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected passthrough, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow origin, got %q", got)
	}
}

func TestCORS_ExposesRequestID(t *testing.T) {
	handler := CORS([]string{"http://localhost:5173"}, teapot())

	req := httptest.NewRequest(http.MethodPost, "/assignments/x/reseat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Expose-Headers"); got != "X-Request-ID, Retry-After" {
		t.Fatalf("unexpected expose headers %q", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Fatalf("expected Vary: Origin, got %q", got)
	}
}
