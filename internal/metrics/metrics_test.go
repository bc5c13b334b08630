package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second Register failed: %v", err)
	}
	if err := Register(prometheus.NewRegistry()); err != nil {
		t.Fatalf("Register after success must be a no-op: %v", err)
	}
}

func TestHelpersRecordAfterRegister(t *testing.T) {
	_ = Register(prometheus.NewRegistry())

	IncStart("mcp-server")
	IncStop("mcp-server")
	IncSpawnFailure("mcp-server")
	SetUp("mcp-server", true)
	IncReadyPoll("mcp-server")
	ObserveReadyWait("mcp-server", 0.42)
	IncRemoteCallError("mcp-server", "login")

	if got := testutil.ToFloat64(sidecarStarts.WithLabelValues("mcp-server")); got < 1 {
		t.Errorf("expected starts counter >= 1, got %v", got)
	}
	if got := testutil.ToFloat64(sidecarUp.WithLabelValues("mcp-server")); got != 1 {
		t.Errorf("expected up gauge 1, got %v", got)
	}
	SetUp("mcp-server", false)
	if got := testutil.ToFloat64(sidecarUp.WithLabelValues("mcp-server")); got != 0 {
		t.Errorf("expected up gauge 0, got %v", got)
	}
	if got := testutil.ToFloat64(remoteCallErrors.WithLabelValues("mcp-server", "login")); got < 1 {
		t.Errorf("expected remote call error counter >= 1, got %v", got)
	}
}
