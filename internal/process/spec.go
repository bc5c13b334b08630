package process

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/tyler-johnson/ttai/internal/logger"
)

// Spec describes the sidecar process to be spawned. It is immutable after
// construction; the supervisor passes a copy on every spawn.
type Spec struct {
	Name    string        `json:"name" mapstructure:"name"`
	Command string        `json:"command" mapstructure:"command"`
	Args    []string      `json:"args" mapstructure:"args"`
	WorkDir string        `json:"workdir" mapstructure:"workdir"`
	Env     []string      `json:"env" mapstructure:"env"`
	Log     logger.Config `json:"log" mapstructure:"log"`
}

// Validate checks the spec for fields required to spawn.
func (s *Spec) Validate() error {
	if s.Command == "" {
		return fmt.Errorf("spec: command is required")
	}
	if s.WorkDir != "" {
		if fi, err := os.Stat(s.WorkDir); err != nil || !fi.IsDir() {
			return fmt.Errorf("spec: workdir %q is not a directory", s.WorkDir)
		}
	}
	return nil
}

// buildCommand constructs the *exec.Cmd for this spec. The argument vector is
// fixed; no shell is involved so the sidecar never inherits shell quoting
// surprises.
func (s *Spec) buildCommand() *exec.Cmd {
	// #nosec G204 -- command and args come from trusted supervisor config
	cmd := exec.Command(s.Command, s.Args...)
	if s.WorkDir != "" {
		cmd.Dir = s.WorkDir
	}
	if len(s.Env) > 0 {
		cmd.Env = append(os.Environ(), s.Env...)
	}
	setSysProcAttr(cmd)
	return cmd
}

func (s *Spec) displayName() string {
	if s.Name != "" {
		return s.Name
	}
	return "sidecar"
}
