package manager

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tyler-johnson/ttai/internal/metrics"
	"github.com/tyler-johnson/ttai/internal/process"
	"github.com/tyler-johnson/ttai/pkg/client"
)

// Supervisor is the single point of truth for the sidecar lifecycle. One
// mutex serializes every operation end to end: while a caller's Start, Stop,
// Login or readiness wait holds the lock, all other operations block. The
// dominant hazards here are double-spawn and terminate-during-use, and full
// serialization removes both.
//
// State machine:
//
//	Stopped (proc == nil) -> Start -> Running (proc != nil) -> Stop -> Stopped
//
// A dead sidecar that was never stopped still counts as Running; the handle
// is the only authority and it guarantees nothing beyond "not reaped yet".
type Supervisor struct {
	mu   sync.Mutex
	spec process.Spec
	proc *process.Handle
	api  *client.Client

	readyAttempts int
	readyInterval time.Duration
	logger        *slog.Logger
}

// Config carries everything the supervisor needs. Immutable after New.
type Config struct {
	Spec          process.Spec
	BaseURL       string        // sidecar HTTP base address
	ReadyAttempts int           // health polls before giving up (default 50)
	ReadyInterval time.Duration // delay between polls (default 100ms)
	Logger        *slog.Logger
}

// New constructs a Supervisor in the Stopped state.
func New(cfg Config) *Supervisor {
	if cfg.ReadyAttempts <= 0 {
		cfg.ReadyAttempts = 50
	}
	if cfg.ReadyInterval <= 0 {
		cfg.ReadyInterval = 100 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Supervisor{
		spec: cfg.Spec,
		api: client.New(client.Config{
			BaseURL: cfg.BaseURL,
			Logger:  cfg.Logger,
		}),
		readyAttempts: cfg.ReadyAttempts,
		readyInterval: cfg.ReadyInterval,
		logger:        cfg.Logger,
	}
}

// Status is a snapshot of the supervisor's lifecycle state.
type Status struct {
	Name      string    `json:"name"`
	Running   bool      `json:"running"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	BaseURL   string    `json:"base_url"`
}

// Start spawns the sidecar. Valid only from Stopped; returns
// ErrAlreadyRunning otherwise. Start does not wait for readiness.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked()
}

func (s *Supervisor) startLocked() error {
	if s.proc != nil {
		return ErrAlreadyRunning
	}
	s.logger.Info("starting sidecar",
		"command", s.spec.Command, "workdir", s.spec.WorkDir)
	h, err := process.Spawn(s.spec)
	if err != nil {
		metrics.IncSpawnFailure(s.spec.Name)
		return &SpawnError{Err: err}
	}
	s.proc = h
	metrics.IncStart(s.spec.Name)
	metrics.SetUp(s.spec.Name, true)
	s.logger.Info("sidecar started", "pid", h.PID())
	return nil
}

// Stop terminates the sidecar if one is running. It is idempotent and always
// succeeds from the caller's perspective: termination is best-effort during
// shutdown and kill/wait problems are logged, not surfaced.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return nil
}

func (s *Supervisor) stopLocked() {
	if s.proc == nil {
		return
	}
	s.logger.Info("stopping sidecar", "pid", s.proc.PID())
	s.proc.Terminate()
	s.proc = nil
	metrics.IncStop(s.spec.Name)
	metrics.SetUp(s.spec.Name, false)
}

// IsRunning reports whether a sidecar handle exists. Pure state query, no I/O.
func (s *Supervisor) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc != nil
}

// GetStatus returns a snapshot of the lifecycle state.
func (s *Supervisor) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Name:    s.spec.Name,
		Running: s.proc != nil,
		BaseURL: s.api.BaseURL(),
	}
	if s.proc != nil {
		st.PID = s.proc.PID()
		st.StartedAt = s.proc.StartedAt()
	}
	return st
}

// WaitForReady polls the health endpoint until it answers successfully or the
// attempt budget is exhausted, sleeping between polls. Worst case is roughly
// attempts x interval (~5s at defaults).
func (s *Supervisor) WaitForReady(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waitForReadyLocked(ctx)
}

func (s *Supervisor) waitForReadyLocked(ctx context.Context) error {
	began := time.Now()
	for attempt := 1; attempt <= s.readyAttempts; attempt++ {
		metrics.IncReadyPoll(s.spec.Name)
		if err := s.api.Health(ctx); err == nil {
			metrics.ObserveReadyWait(s.spec.Name, time.Since(began).Seconds())
			s.logger.Info("sidecar ready", "attempts", attempt)
			return nil
		}
		if attempt == s.readyAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.readyInterval):
		}
	}
	s.logger.Error("sidecar never became ready", "attempts", s.readyAttempts)
	return ErrNotReady
}

// Reconnect stops any running sidecar (result ignored), starts a fresh one,
// and returns only after the new instance answers health checks. If the start
// fails, the error is surfaced and the state remains Stopped.
func (s *Supervisor) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	if err := s.startLocked(); err != nil {
		return err
	}
	return s.waitForReadyLocked(ctx)
}

// Ping issues a single health check and maps success to the literal "pong".
func (s *Supervisor) Ping(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.api.Health(ctx); err != nil {
		metrics.IncRemoteCallError(s.spec.Name, "ping")
		return "", err
	}
	return "pong", nil
}

// HealthCheck issues a bounded-timeout GET against the health endpoint.
func (s *Supervisor) HealthCheck(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.api.Health(ctx)
	if err != nil {
		metrics.IncRemoteCallError(s.spec.Name, "health")
	}
	return err
}

// Login forwards credentials to the sidecar and relays its verdict. Like all
// passthroughs it is not gated on the Running state; calling it while Stopped
// simply surfaces the transport error.
func (s *Supervisor) Login(ctx context.Context, clientSecret, refreshToken string, rememberMe bool) (client.LoginResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.api.Login(ctx, client.LoginRequest{
		ClientSecret: clientSecret,
		RefreshToken: refreshToken,
		RememberMe:   rememberMe,
	})
	if err != nil {
		metrics.IncRemoteCallError(s.spec.Name, "login")
	}
	return result, err
}

// Logout forwards a logout request, optionally clearing stored credentials.
func (s *Supervisor) Logout(ctx context.Context, clearCredentials bool) (client.LogoutResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.api.Logout(ctx, client.LogoutRequest{
		ClearCredentials: clearCredentials,
	})
	if err != nil {
		metrics.IncRemoteCallError(s.spec.Name, "logout")
	}
	return result, err
}

// GetAuthStatus relays the sidecar's authentication state.
func (s *Supervisor) GetAuthStatus(ctx context.Context) (client.AuthStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, err := s.api.AuthStatus(ctx)
	if err != nil {
		metrics.IncRemoteCallError(s.spec.Name, "auth-status")
	}
	return status, err
}

// Shutdown is the mandatory teardown hook. The owning application must call
// it on close events; relying on finalization to reap the sidecar is unsafe.
func (s *Supervisor) Shutdown() {
	s.logger.Info("supervisor shutdown requested")
	_ = s.Stop()
}
