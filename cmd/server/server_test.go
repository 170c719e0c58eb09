package main

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wyxpro/mindcare/internal/config"
)

func TestProbes(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MINDCARE_DB_CONN_TIMEOUT", "100ms")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.infra.Start(); err != nil {
		t.Fatalf("infra.Start: %v", err)
	}
	t.Cleanup(func() { srv.Shutdown(time.Second) })

	router := buildRouter(srv.infra)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz: got %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz: got %d, want 503 before startup completes", rec.Code)
	}

	var body readiness
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "not ready" {
		t.Errorf("status = %q, want not ready", body.Status)
	}
}

func TestStartServesOnBoundPort(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MINDCARE_DB_CONN_TIMEOUT", "100ms")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	if err := srv.infra.Start(); err != nil {
		t.Fatalf("infra.Start: %v", err)
	}
	srv.serve(ln)
	t.Cleanup(func() { srv.Shutdown(5 * time.Second) })

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz: got %d, want 200", resp.StatusCode)
	}
}
