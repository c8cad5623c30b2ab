package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	platformgrpc "github.com/louisbranch/notekeep/internal/platform/grpc"
	"github.com/louisbranch/notekeep/internal/platform/timeouts"
	"github.com/louisbranch/notekeep/internal/services/notes/password"
	"github.com/louisbranch/notekeep/internal/services/notes/token"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		HTTPAddr:   "127.0.0.1:0",
		HealthPort: 0,
		DBPath:     filepath.Join(t.TempDir(), "data", "notes.db"),
		BcryptCost: password.MinCost,
		Token:      token.Config{Secret: []byte("server-test-secret"), TTL: time.Hour},
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Token.Secret = nil
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for missing token secret")
	}

	cfg = testConfig(t)
	cfg.BcryptCost = 4
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for low bcrypt cost")
	}

	cfg = testConfig(t)
	cfg.DBPath = " "
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for empty db path")
	}
}

func TestServeHandlesRequestsAndShutsDown(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxConns = 4
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if srv.HealthAddr() == "" {
		t.Fatal("expected health listener")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/api")
	if err != nil {
		cancel()
		t.Fatalf("get /api: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "Welcome to the Notes API!" {
		cancel()
		t.Fatalf("unexpected response %d %q", resp.StatusCode, body)
	}

	resp, err = http.Post("http://"+srv.Addr()+"/api/users/signup", "application/json",
		strings.NewReader(`{"name":"Alice","email":"a@x.com","password":"secret1"}`))
	if err != nil {
		cancel()
		t.Fatalf("signup: %v", err)
	}
	var signup struct {
		Success bool `json:"success"`
		User    struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	err = json.NewDecoder(resp.Body).Decode(&signup)
	_ = resp.Body.Close()
	if err != nil || resp.StatusCode != http.StatusCreated || signup.User.ID != 1 {
		cancel()
		t.Fatalf("unexpected signup: status=%d err=%v body=%+v", resp.StatusCode, err, signup)
	}

	probeCtx, probeCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer probeCancel()
	if err := platformgrpc.Probe(probeCtx, srv.HealthAddr(), HealthServiceName); err != nil {
		cancel()
		t.Fatalf("probe health: %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(timeouts.Shutdown + time.Second):
		t.Fatal("timed out waiting for shutdown")
	}
}

func TestServeWithoutHealthServer(t *testing.T) {
	cfg := testConfig(t)
	cfg.HealthPort = -1
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if srv.HealthAddr() != "" {
		t.Fatalf("expected no health listener, got %q", srv.HealthAddr())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(timeouts.Shutdown + time.Second):
		t.Fatal("timed out waiting for shutdown")
	}
}

func TestServerAddrNilSafe(t *testing.T) {
	var srv *Server
	if srv.Addr() != "" || srv.HealthAddr() != "" {
		t.Fatal("expected empty addresses for nil server")
	}
}
