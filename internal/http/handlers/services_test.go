package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/doctorportal/internal/domain/service"
	"github.com/geocoder89/doctorportal/internal/http/handlers"
)

func TestListServicesHandler_ETag(t *testing.T) {
	avail := &fakeAvailability{
		servicesFn: func(ctx context.Context) ([]service.Service, error) {
			return []service.Service{{Name: "Cleaning", Slots: []string{"8am"}}}, nil
		},
	}
	h := handlers.NewServicesHandler(avail)
	r := setupRouter(http.MethodGet, "/service", h.ListServices)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/service", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected an ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/service", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotModified {
		t.Fatalf("got status %d, want 304", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/service", nil)
	req.Header.Set("If-None-Match", `"stale", W/`+etag)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotModified {
		t.Fatalf("weak match: got status %d, want 304", w.Code)
	}
}

func TestAvailableHandler(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		forDateFn      func(ctx context.Context, date string) ([]service.Service, error)
		wantStatusCode int
	}{
		{
			name: "success",
			url:  "/available?date=2024-01-01",
			forDateFn: func(ctx context.Context, date string) ([]service.Service, error) {
				if date != "2024-01-01" {
					return nil, errors.New("wrong date")
				}
				return []service.Service{{Name: "Cleaning", Slots: []string{}}}, nil
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing_date",
			url:            "/available",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "store_error",
			url:  "/available?date=2024-01-01",
			forDateFn: func(ctx context.Context, date string) ([]service.Service, error) {
				return nil, errors.New("db down")
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewServicesHandler(&fakeAvailability{forDateFn: tt.forDateFn})
			r := setupRouter(http.MethodGet, "/available", h.Available)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d,body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestHealthHandler(t *testing.T) {
	h := handlers.NewHealthHandler(func(ctx context.Context) error { return errors.New("down") }, nil)

	r := setupRouter(http.MethodGet, "/readyz", h.Readyz)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("got status %d, want 503", w.Code)
	}

	draining := handlers.NewHealthHandler(nil, func() bool { return true })
	r = setupRouter(http.MethodGet, "/readyz", draining.Readyz)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("draining: got status %d, want 503", w.Code)
	}

	r = setupRouter(http.MethodGet, "/", h.Root)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Body.String() != "Hello From Doctor Uncle!" {
		t.Fatalf("unexpected liveness body %q", w.Body.String())
	}
}

func TestDocsHandlers(t *testing.T) {
	r := setupRouter(http.MethodGet, "/docs/openapi.yaml", handlers.OpenAPISpec)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/openapi.yaml", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "/booking") {
		t.Fatalf("openapi document does not describe /booking")
	}

	r = setupRouter(http.MethodGet, "/docs", handlers.SwaggerUI)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs", nil))

	if !strings.Contains(w.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("unexpected content type %q", w.Header().Get("Content-Type"))
	}
}
