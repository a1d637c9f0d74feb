package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"stagefinder/pkg/logging"
	"stagefinder/pkg/monitoring"
)

func TestSetupServiceRouter(t *testing.T) {
	logger := logging.NewLogger()
	hc := monitoring.NewHealthChecker("svc", "test")

	r := SetupServiceRouter(logger, "svc", hc, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestSetupServiceRouterWithoutMonitors(t *testing.T) {
	logger := logging.NewLogger()

	r := SetupServiceRouter(logger, "svc", nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
