package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLiveness_Handler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	Liveness()(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	ct := rr.Header().Get("Content-Type")
	if !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content-type=%q want text/plain", ct)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "ok" {
		t.Fatalf("body=%q want ok", got)
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadiness_Handler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	rr := httptest.NewRecorder()
	Readiness(pingFunc(func(context.Context) error { return nil }))(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("ready status=%d want 200", rr.Code)
	}

	rr = httptest.NewRecorder()
	Readiness(pingFunc(func(context.Context) error { return errors.New("down") }))(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("not-ready status=%d want 503", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "not_ready") {
		t.Fatalf("body=%q want not_ready", rr.Body.String())
	}
}
