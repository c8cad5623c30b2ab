// Package server hosts the notekeep HTTP API and its gRPC health endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/net/netutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	platformgrpc "github.com/louisbranch/notekeep/internal/platform/grpc"
	"github.com/louisbranch/notekeep/internal/platform/timeouts"
	"github.com/louisbranch/notekeep/internal/services/notes/account"
	notesapi "github.com/louisbranch/notekeep/internal/services/notes/api/http"
	"github.com/louisbranch/notekeep/internal/services/notes/note"
	"github.com/louisbranch/notekeep/internal/services/notes/password"
	notessqlite "github.com/louisbranch/notekeep/internal/services/notes/storage/sqlite"
	"github.com/louisbranch/notekeep/internal/services/notes/token"
)

// HealthServiceName is the health-check service name reported alongside "".
const HealthServiceName = "notekeep.v1.Notes"

// Config holds everything the server needs at startup.
type Config struct {
	// HTTPAddr is the API listen address.
	HTTPAddr string
	// HealthPort is the gRPC health port. Negative disables it; zero picks
	// a free port.
	HealthPort int
	// DBPath is the SQLite database file.
	DBPath string
	// BcryptCost is the password hashing cost.
	BcryptCost int
	// MaxConns caps concurrent HTTP connections. Zero is unlimited.
	MaxConns int
	// Token configures session token signing.
	Token token.Config
}

// Server hosts the notes service.
type Server struct {
	httpListener   net.Listener
	httpServer     *http.Server
	healthListener net.Listener
	grpcServer     *grpc.Server
	health         *health.Server
	store          *notessqlite.Store
}

// New opens storage, builds the services, and binds listeners.
func New(cfg Config) (*Server, error) {
	tokens, err := token.NewService(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("configure tokens: %w", err)
	}
	hasher, err := password.NewHasher(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("configure password hasher: %w", err)
	}
	store, err := openNotesStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on http addr %s: %w", cfg.HTTPAddr, err)
	}
	if cfg.MaxConns > 0 {
		httpListener = netutil.LimitListener(httpListener, cfg.MaxConns)
	}

	now := cfg.Token.Now
	accounts := account.NewService(store, hasher, tokens, now)
	notes := note.NewService(store, now)
	httpServer := &http.Server{
		Handler:           notesapi.NewHandler(accounts, notes, tokens),
		ReadHeaderTimeout: timeouts.ReadHeader,
		ReadTimeout:       timeouts.Read,
		WriteTimeout:      timeouts.Write,
		IdleTimeout:       timeouts.Idle,
	}

	srv := &Server{
		httpListener: httpListener,
		httpServer:   httpServer,
		store:        store,
	}
	if cfg.HealthPort >= 0 {
		healthListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HealthPort))
		if err != nil {
			_ = httpListener.Close()
			_ = store.Close()
			return nil, fmt.Errorf("listen on health port %d: %w", cfg.HealthPort, err)
		}
		srv.healthListener = healthListener
		srv.grpcServer = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
		srv.health = platformgrpc.RegisterHealth(srv.grpcServer, HealthServiceName)
	}
	return srv, nil
}

// Addr returns the HTTP listener address.
func (s *Server) Addr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// HealthAddr returns the gRPC health listener address, or "" when disabled.
func (s *Server) HealthAddr() string {
	if s == nil || s.healthListener == nil {
		return ""
	}
	return s.healthListener.Addr().String()
}

// Run creates and serves a notes server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	srv, err := New(cfg)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// Serve starts the servers and blocks until one stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.closeStore()

	log.Printf("notes HTTP server listening at %v", s.httpListener.Addr())
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- s.httpServer.Serve(s.httpListener)
	}()

	grpcErr := make(chan error, 1)
	if s.grpcServer != nil {
		log.Printf("notes health server listening at %v", s.healthListener.Addr())
		go func() {
			grpcErr <- s.grpcServer.Serve(s.healthListener)
		}()
	}

	shutdownGRPC := func() {
		if s.grpcServer == nil {
			return
		}
		if s.health != nil {
			s.health.Shutdown()
		}
		s.grpcServer.GracefulStop()
		<-grpcErr
	}
	shutdownHTTP := func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}

	select {
	case <-ctx.Done():
		log.Printf("notes server shutting down")
		shutdownGRPC()
		if err := shutdownHTTP(); err != nil {
			return fmt.Errorf("shutdown HTTP: %w", err)
		}
		if err := <-httpErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	case err := <-httpErr:
		shutdownGRPC()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	case err := <-grpcErr:
		_ = shutdownHTTP()
		<-httpErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}

func openNotesStore(path string) (*notessqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	store, err := notessqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open notes sqlite store: %w", err)
	}
	return store, nil
}

func (s *Server) closeStore() {
	if s == nil || s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		log.Printf("close notes store: %v", err)
	}
}
