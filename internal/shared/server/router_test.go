package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/JCUYLLE2/FindFilms/internal/shared/dto"
)

func TestNewRouter_Healthz(t *testing.T) {
	r := NewRouter("findfilms", Options{}, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body dto.HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	if body.Service != "findfilms" || body.Status != "ok" {
		t.Fatalf("unexpected health body: %+v", body)
	}
}

func TestNewRouter_CORSPreflightAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	r := NewRouter("findfilms", Options{AllowedOrigins: []string{"http://localhost:19006"}, Metrics: metrics}, func(r chi.Router) {
		r.Get("/v1/genres", func(w http.ResponseWriter, _ *http.Request) {})
	})

	req := httptest.NewRequest(http.MethodOptions, "/v1/genres", nil)
	req.Header.Set("Origin", "http://localhost:19006")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:19006" {
		t.Fatalf("expected CORS origin header, got %q", got)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Body.String() != "# metrics" {
		t.Fatalf("expected metrics handler to be mounted, got %q", rec.Body.String())
	}
}
