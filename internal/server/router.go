package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	mng "github.com/tyler-johnson/ttai/internal/manager"
	"github.com/tyler-johnson/ttai/internal/metrics"
	"github.com/tyler-johnson/ttai/pkg/client"
)

// Router exposes the supervisor's caller-facing operations over a local HTTP
// control API. Endpoints under {basePath}:
//
//	POST /start        spawn the sidecar
//	POST /stop         terminate the sidecar (idempotent)
//	POST /reconnect    stop + start + wait for readiness
//	GET  /status       lifecycle snapshot
//	GET  /ping         health check mapped to "pong"
//	POST /login        body: client.LoginRequest
//	POST /logout       body: client.LogoutRequest
//	GET  /auth-status  sidecar authentication state
//
// GET /metrics is mounted outside basePath.
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	sup      *mng.Supervisor
	basePath string
}

// NewRouter constructs a Router with configurable basePath.
func NewRouter(sup *mng.Supervisor, basePath string) *Router {
	return &Router{sup: sup, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.POST("/start", r.handleStart)
	group.POST("/stop", r.handleStop)
	group.POST("/reconnect", r.handleReconnect)
	group.GET("/status", r.handleStatus)
	group.GET("/ping", r.handlePing)
	group.POST("/login", r.handleLogin)
	group.POST("/logout", r.handleLogout)
	group.GET("/auth-status", r.handleAuthStatus)
	g.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr, basePath string, sup *mng.Supervisor) (*http.Server, error) {
	r := NewRouter(sup, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Write timeout must cover a full readiness wait on /reconnect
		// and the sidecar's 30s login budget.
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

type pingResp struct {
	Result string `json:"result"`
}

func (r *Router) handleStart(c *gin.Context) {
	if err := r.sup.Start(); err != nil {
		writeJSON(c, lifecycleStatus(err), errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleStop(c *gin.Context) {
	if err := r.sup.Stop(); err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleReconnect(c *gin.Context) {
	if err := r.sup.Reconnect(c.Request.Context()); err != nil {
		writeJSON(c, lifecycleStatus(err), errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleStatus(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.sup.GetStatus())
}

func (r *Router) handlePing(c *gin.Context) {
	result, err := r.sup.Ping(c.Request.Context())
	if err != nil {
		writeJSON(c, http.StatusBadGateway, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, pingResp{Result: result})
}

func (r *Router) handleLogin(c *gin.Context) {
	var req client.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	result, err := r.sup.Login(c.Request.Context(), req.ClientSecret, req.RefreshToken, req.RememberMe)
	if err != nil {
		writeJSON(c, http.StatusBadGateway, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, result)
}

func (r *Router) handleLogout(c *gin.Context) {
	var req client.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	result, err := r.sup.Logout(c.Request.Context(), req.ClearCredentials)
	if err != nil {
		writeJSON(c, http.StatusBadGateway, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, result)
}

func (r *Router) handleAuthStatus(c *gin.Context) {
	status, err := r.sup.GetAuthStatus(c.Request.Context())
	if err != nil {
		writeJSON(c, http.StatusBadGateway, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, status)
}

// lifecycleStatus maps supervisor errors onto HTTP statuses.
func lifecycleStatus(err error) int {
	switch {
	case errors.Is(err, mng.ErrAlreadyRunning):
		return http.StatusConflict
	case errors.Is(err, mng.ErrNotReady):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
