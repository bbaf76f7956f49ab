package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func healthy(context.Context) error { return nil }

func TestHealthHandler(t *testing.T) {
	handler := NewHandler("v1.0.0")
	handler.RegisterChecker("storage", NewFuncChecker("storage", healthy))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var response Response
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != StatusHealthy {
		t.Errorf("expected status healthy, got %s", response.Status)
	}
	if response.Version != "v1.0.0" {
		t.Errorf("expected version v1.0.0, got %s", response.Version)
	}
	if len(response.Checks) != 1 {
		t.Errorf("expected 1 check, got %d", len(response.Checks))
	}
}

func TestHealthHandler_Statuses(t *testing.T) {
	tests := []struct {
		name     string
		checkers map[string]Checker
		want     Status
		wantCode int
	}{
		{
			name: "unhealthy wins",
			checkers: map[string]Checker{
				"storage": NewFuncChecker("storage", func(context.Context) error { return errors.New("connection refused") }),
				"outbox": NewThresholdChecker("outbox", 10, func(context.Context) (float64, error) {
					return 50, nil
				}),
			},
			want:     StatusUnhealthy,
			wantCode: http.StatusServiceUnavailable,
		},
		{
			name: "degraded keeps 200",
			checkers: map[string]Checker{
				"storage": NewFuncChecker("storage", healthy),
				"outbox": NewThresholdChecker("outbox", 10, func(context.Context) (float64, error) {
					return 11, nil
				}),
			},
			want:     StatusDegraded,
			wantCode: http.StatusOK,
		},
		{
			name:     "no checkers",
			checkers: nil,
			want:     StatusHealthy,
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler("test")
			for name, checker := range tt.checkers {
				handler.RegisterChecker(name, checker)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if w.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, w.Code)
			}
			var response Response
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Status != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, response.Status)
			}
		})
	}
}

func TestRunChecks_Timeout(t *testing.T) {
	handler := NewHandler("test")
	handler.timeout = 20 * time.Millisecond
	handler.RegisterChecker("order-service", NewFuncChecker("order-service", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	status, checks := handler.RunChecks(context.Background())
	if status != StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %s", status)
	}
	if checks["order-service"].Message == "" {
		t.Fatal("expected timeout message")
	}
}

func TestThresholdChecker_ValueError(t *testing.T) {
	checker := NewThresholdChecker("outbox", 1, func(context.Context) (float64, error) {
		return 0, errors.New("stats unavailable")
	})

	if got := checker.Check(context.Background()); got.Status != StatusDegraded {
		t.Fatalf("expected degraded, got %s", got.Status)
	}
}

func TestLivenessHandler(t *testing.T) {
	w := httptest.NewRecorder()
	LivenessHandler(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Errorf("expected body 'ok', got %s", w.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	handler := NewHandler("v1.0.0")
	handler.RegisterChecker("storage", NewFuncChecker("storage", healthy))

	w := httptest.NewRecorder()
	handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ready" {
		t.Fatalf("unexpected readiness: %d %s", w.Code, w.Body.String())
	}

	handler.RegisterChecker("storage", NewFuncChecker("storage", func(context.Context) error {
		return errors.New("down")
	}))
	w = httptest.NewRecorder()
	handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}

	if names := handler.Names(); len(names) != 1 || names[0] != "storage" {
		t.Fatalf("unexpected names: %v", names)
	}
}
