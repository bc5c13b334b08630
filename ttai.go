// Package ttai supervises the TTAI MCP server sidecar: it spawns the child
// process, polls it to readiness, proxies auth operations over its HTTP API,
// and tears it down on shutdown. This file is a thin public facade over the
// internal packages for applications embedding the supervisor.
package ttai

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	cfg "github.com/tyler-johnson/ttai/internal/config"
	"github.com/tyler-johnson/ttai/internal/logger"
	"github.com/tyler-johnson/ttai/internal/manager"
	"github.com/tyler-johnson/ttai/internal/metrics"
	iapi "github.com/tyler-johnson/ttai/internal/server"
	"github.com/tyler-johnson/ttai/pkg/client"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = cfg.Config

type SidecarConfig = cfg.SidecarConfig

type Status = manager.Status

type AuthStatus = client.AuthStatus

type LoginResult = client.LoginResult

type LogoutResult = client.LogoutResult

// Sentinel errors surfaced by lifecycle operations.
var (
	ErrAlreadyRunning = manager.ErrAlreadyRunning
	ErrNotReady       = manager.ErrNotReady
)

// Supervisor is a thin facade over internal/manager.Supervisor.
// It provides a stable public API for embedding.
type Supervisor struct{ inner *manager.Supervisor }

// New builds a Supervisor from a loaded configuration.
func New(c *Config) *Supervisor {
	log := logger.New(c.Log.Level, c.Log.Color)
	return &Supervisor{inner: manager.New(manager.Config{
		Spec:          c.Sidecar.Spec(),
		BaseURL:       c.Sidecar.BaseURL,
		ReadyAttempts: c.Sidecar.ReadyAttempts,
		ReadyInterval: c.Sidecar.ReadyInterval,
		Logger:        log,
	})}
}

func (s *Supervisor) Start() error                          { return s.inner.Start() }
func (s *Supervisor) Stop() error                           { return s.inner.Stop() }
func (s *Supervisor) IsRunning() bool                       { return s.inner.IsRunning() }
func (s *Supervisor) GetStatus() Status                     { return s.inner.GetStatus() }
func (s *Supervisor) WaitForReady(ctx context.Context) error { return s.inner.WaitForReady(ctx) }
func (s *Supervisor) Reconnect(ctx context.Context) error   { return s.inner.Reconnect(ctx) }
func (s *Supervisor) Ping(ctx context.Context) (string, error) {
	return s.inner.Ping(ctx)
}
func (s *Supervisor) HealthCheck(ctx context.Context) error { return s.inner.HealthCheck(ctx) }
func (s *Supervisor) Login(ctx context.Context, clientSecret, refreshToken string, rememberMe bool) (LoginResult, error) {
	return s.inner.Login(ctx, clientSecret, refreshToken, rememberMe)
}
func (s *Supervisor) Logout(ctx context.Context, clearCredentials bool) (LogoutResult, error) {
	return s.inner.Logout(ctx, clearCredentials)
}
func (s *Supervisor) GetAuthStatus(ctx context.Context) (AuthStatus, error) {
	return s.inner.GetAuthStatus(ctx)
}

// Shutdown is the mandatory teardown hook; call it on application close.
func (s *Supervisor) Shutdown() { s.inner.Shutdown() }

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config { return cfg.Default() }

// NewLogger builds a slog.Logger using the supervisor's handler setup.
func NewLogger(level string, color bool) *slog.Logger { return logger.New(level, color) }

// LoadConfig reads and validates a TOML configuration file.
func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

// NewHTTPServer starts the local control API exposing the supervisor's
// operations on addr.
func NewHTTPServer(addr, basePath string, s *Supervisor) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, s.inner)
}

// RegisterMetrics registers the supervisor's Prometheus collectors.
func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
