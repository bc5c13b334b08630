package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tyler-johnson/ttai"
)

// buildRoot creates the root command and wires all subcommands.
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	runFlags := &RunFlags{}
	apiFlags := &APIFlags{}
	loginFlags := &LoginFlags{}
	logoutFlags := &LogoutFlags{}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createRunCommand(globalFlags, runFlags),
		createStartCommand(apiFlags),
		createStopCommand(apiFlags),
		createStatusCommand(apiFlags),
		createReconnectCommand(apiFlags),
		createPingCommand(apiFlags),
		createLoginCommand(loginFlags),
		createLogoutCommand(logoutFlags),
		createAuthStatusCommand(apiFlags),
	)
	return root
}

func createRootCommand(g *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "ttai",
		Short: "Supervisor for the TTAI MCP server sidecar",
		Long: "ttai supervises the MCP server sidecar: it spawns the child process,\n" +
			"waits for its HTTP API to become ready, proxies auth operations to it,\n" +
			"and terminates it cleanly on shutdown.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.ConfigPath, "config", "", "path to TOML config file")
	return root
}

func createRunCommand(g *GlobalFlags, f *RunFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the supervisor daemon and auto-start the sidecar",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(g.ConfigPath, f)
		},
	}
	cmd.Flags().BoolVar(&f.NoAutoStart, "no-auto-start", false, "do not start the sidecar on launch")
	return cmd
}

func runDaemon(configPath string, f *RunFlags) error {
	cfg := ttai.DefaultConfig()
	if configPath != "" {
		loaded, err := ttai.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	slog.SetDefault(ttai.NewLogger(cfg.Log.Level, cfg.Log.Color))

	if err := ttai.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	sup := ttai.New(cfg)
	srv, err := ttai.NewHTTPServer(cfg.Server.Listen, cfg.Server.BasePath, sup)
	if err != nil {
		return fmt.Errorf("start control API: %w", err)
	}
	slog.Info("control API listening", "addr", cfg.Server.Listen, "base_path", cfg.Server.BasePath)

	// Auto-start mirrors the desktop shell: failures are logged, not fatal,
	// so the control API stays available for a manual reconnect.
	if !f.NoAutoStart {
		if err := sup.Start(); err != nil {
			slog.Error("failed to auto-start sidecar", "error", err)
		} else if err := sup.WaitForReady(context.Background()); err != nil {
			slog.Error("sidecar failed to become ready", "error", err)
		} else {
			slog.Info("sidecar auto-started and ready")
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig.String())

	// Mandatory teardown: reap the sidecar before the process exits.
	sup.Shutdown()
	_ = srv.Close()
	return nil
}

// reachableClient builds an APIClient and verifies the daemon answers.
func reachableClient(f *APIFlags) (*APIClient, error) {
	c := NewAPIClient(f.APIUrl, f.APITimeout)
	if !c.IsReachable() {
		url := f.APIUrl
		if url == "" {
			url = defaultAPIUrl
		}
		return nil, fmt.Errorf("supervisor not reachable at %s - start it first with 'ttai run'", url)
	}
	return c, nil
}

func addAPIFlags(cmd *cobra.Command, f *APIFlags) {
	cmd.Flags().StringVar(&f.APIUrl, "api-url", "", "control API base URL (default "+defaultAPIUrl+")")
	cmd.Flags().DurationVar(&f.APITimeout, "api-timeout", 0, "control API request timeout")
}

func createStartCommand(f *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the sidecar process",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := reachableClient(f)
			if err != nil {
				return err
			}
			if err := c.Start(); err != nil {
				return err
			}
			fmt.Println("started")
			return nil
		},
	}
	addAPIFlags(cmd, f)
	return cmd
}

func createStopCommand(f *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the sidecar process",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := reachableClient(f)
			if err != nil {
				return err
			}
			if err := c.Stop(); err != nil {
				return err
			}
			fmt.Println("stopped")
			return nil
		},
	}
	addAPIFlags(cmd, f)
	return cmd
}

func createStatusCommand(f *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sidecar lifecycle status",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := reachableClient(f)
			if err != nil {
				return err
			}
			status, err := c.Status()
			if err != nil {
				return err
			}
			printJSON(status)
			return nil
		},
	}
	addAPIFlags(cmd, f)
	return cmd
}

func createReconnectCommand(f *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconnect",
		Short: "Restart the sidecar and wait until it is ready",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := reachableClient(f)
			if err != nil {
				return err
			}
			if err := c.Reconnect(); err != nil {
				return err
			}
			fmt.Println("reconnected")
			return nil
		},
	}
	addAPIFlags(cmd, f)
	return cmd
}

func createPingCommand(f *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Health-check the sidecar",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := reachableClient(f)
			if err != nil {
				return err
			}
			result, err := c.Ping()
			if err != nil {
				return err
			}
			fmt.Println(result)
			return nil
		},
	}
	addAPIFlags(cmd, f)
	return cmd
}

func createLoginCommand(f *LoginFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the brokerage via the sidecar",
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.ClientSecret == "" || f.RefreshToken == "" {
				return fmt.Errorf("--client-secret and --refresh-token are required")
			}
			c, err := reachableClient(&f.API)
			if err != nil {
				return err
			}
			result, err := c.Login(f.ClientSecret, f.RefreshToken, f.RememberMe)
			if err != nil {
				return err
			}
			printJSON(result)
			return nil
		},
	}
	addAPIFlags(cmd, &f.API)
	cmd.Flags().StringVar(&f.ClientSecret, "client-secret", "", "OAuth client secret")
	cmd.Flags().StringVar(&f.RefreshToken, "refresh-token", "", "OAuth refresh token")
	cmd.Flags().BoolVar(&f.RememberMe, "remember-me", false, "store credentials in the sidecar")
	return cmd
}

func createLogoutCommand(f *LogoutFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out of the brokerage via the sidecar",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := reachableClient(&f.API)
			if err != nil {
				return err
			}
			result, err := c.Logout(f.ClearCredentials)
			if err != nil {
				return err
			}
			printJSON(result)
			return nil
		},
	}
	addAPIFlags(cmd, &f.API)
	cmd.Flags().BoolVar(&f.ClearCredentials, "clear-credentials", false, "also clear stored credentials")
	return cmd
}

func createAuthStatusCommand(f *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth-status",
		Short: "Show the sidecar's authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := reachableClient(f)
			if err != nil {
				return err
			}
			status, err := c.AuthStatus()
			if err != nil {
				return err
			}
			printJSON(status)
			return nil
		},
	}
	addAPIFlags(cmd, f)
	return cmd
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(data))
}
