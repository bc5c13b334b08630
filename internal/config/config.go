package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
	"github.com/tyler-johnson/ttai/internal/logger"
	"github.com/tyler-johnson/ttai/internal/process"
)

// Defaults match the spawn contract of the TTAI MCP server sidecar.
const (
	DefaultBaseURL       = "http://localhost:8080"
	DefaultReadyAttempts = 50
	DefaultReadyInterval = 100 * time.Millisecond
	DefaultListen        = "127.0.0.1:9090"
	DefaultBasePath      = "/api"
)

// Config is the top-level TOML structure.
type Config struct {
	Sidecar SidecarConfig `toml:"sidecar" mapstructure:"sidecar"`
	Server  ServerConfig  `toml:"server" mapstructure:"server"`
	Log     LogSettings   `toml:"log" mapstructure:"log"`
}

// SidecarConfig describes the supervised child process and how readiness is
// established. Immutable after Load.
type SidecarConfig struct {
	Name          string        `toml:"name" mapstructure:"name"`
	Command       string        `toml:"command" mapstructure:"command"`
	Args          []string      `toml:"args" mapstructure:"args"`
	WorkDir       string        `toml:"workdir" mapstructure:"workdir"`
	Env           []string      `toml:"env" mapstructure:"env"`
	BaseURL       string        `toml:"base_url" mapstructure:"base_url"`
	ReadyAttempts int           `toml:"ready_attempts" mapstructure:"ready_attempts"`
	ReadyInterval time.Duration `toml:"ready_interval" mapstructure:"ready_interval"`
	Log           logger.Config `toml:"log" mapstructure:"log"`
}

// ServerConfig describes the local control API surface.
type ServerConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

// LogSettings controls the supervisor's own slog output.
type LogSettings struct {
	Level string `toml:"level" mapstructure:"level"`
	Color bool   `toml:"color" mapstructure:"color"`
}

// Spec converts the sidecar section into a process.Spec for spawning.
func (s SidecarConfig) Spec() process.Spec {
	return process.Spec{
		Name:    s.Name,
		Command: s.Command,
		Args:    s.Args,
		WorkDir: s.WorkDir,
		Env:     s.Env,
		Log:     s.Log,
	}
}

// Default returns the configuration used when no file is given: the MCP
// server launched via uv from the bundled python tree, HTTP transport on the
// fixed local port.
func Default() *Config {
	return &Config{
		Sidecar: SidecarConfig{
			Name:    "mcp-server",
			Command: "uv",
			Args: []string{
				"run", "python", "-m", "src.server.main",
				"--transport", "sse", "--port", "8080",
			},
			WorkDir:       "../src-python",
			BaseURL:       DefaultBaseURL,
			ReadyAttempts: DefaultReadyAttempts,
			ReadyInterval: DefaultReadyInterval,
		},
		Server: ServerConfig{
			Listen:   DefaultListen,
			BasePath: DefaultBasePath,
		},
		Log: LogSettings{Level: "info", Color: true},
	}
}

// Load reads a TOML config file and applies defaults and validation.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate normalizes and checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Sidecar.Command == "" {
		return fmt.Errorf("sidecar.command is required")
	}
	if c.Sidecar.Name == "" {
		c.Sidecar.Name = "mcp-server"
	}
	if c.Sidecar.BaseURL == "" {
		c.Sidecar.BaseURL = DefaultBaseURL
	}
	u, err := url.Parse(c.Sidecar.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("sidecar.base_url %q is not a valid URL", c.Sidecar.BaseURL)
	}
	if c.Sidecar.ReadyAttempts <= 0 {
		c.Sidecar.ReadyAttempts = DefaultReadyAttempts
	}
	if c.Sidecar.ReadyInterval <= 0 {
		c.Sidecar.ReadyInterval = DefaultReadyInterval
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = DefaultBasePath
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	return nil
}
