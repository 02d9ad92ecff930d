// Package cli implements the command-line interface for the Clustta Agent.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/clustta/clustta-blender/internal/agent"
	"github.com/clustta/clustta-blender/internal/config"
	"github.com/clustta/clustta-blender/internal/session"
	"github.com/spf13/cobra"
)

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Config  *config.Config
	Logger  *slog.Logger
	Client  *agent.HTTPClient
	Query   agent.AssetQuery
	Session *session.Session
}

var configPath string

// initContext loads config and builds the agent client (no session)
func initContext() *cmdContext {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitError("%v", err)
	}

	logger := newLogger(os.Stderr, cfg.Level())
	client := agent.NewHTTPClient(cfg.AgentURL,
		agent.WithTimeout(cfg.TimeoutDuration()),
		agent.WithLogger(logger),
	)

	return &cmdContext{
		Config: cfg,
		Logger: logger,
		Client: client,
		Query:  agent.AssetQuery{Extension: cfg.AssetExtension},
	}
}

// connect creates the session and connects it, exiting when the agent is down
func (c *cmdContext) connect(ctx context.Context) *session.Session {
	c.Session = session.New(c.Client,
		session.WithLogger(c.Logger),
		session.WithAssetQuery(c.Query),
	)
	if err := c.Session.Connect(ctx); err != nil {
		exitError("%v", err)
	}
	return c.Session
}

// initSessionContext initializes config, client and a connected session
func initSessionContext(ctx context.Context) *cmdContext {
	c := initContext()
	c.connect(ctx)
	return c
}

// requireProject exits unless the agent has an active project
func (c *cmdContext) requireProject() string {
	uri := c.Session.State().Project.URI
	if uri == "" {
		exitError("%v: run 'clustta project switch <uri>' first", session.ErrNoProject)
	}
	return uri
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

var rootCmd = &cobra.Command{
	Use:   "clustta",
	Short: "Clustta Agent client",
	Long: `clustta talks to the local Clustta Agent to browse accounts, studios,
projects and assets, and to create checkpoints of asset files.

The agent listens on http://127.0.0.1:1173 by default. Use 'clustta launch'
to start it when it is not running.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is the per-user config directory)")

	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(launchCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(studioCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(assetsCmd)
	rootCmd.AddCommand(checkpointsCmd)
	rootCmd.AddCommand(checkpointCmd)
	rootCmd.AddCommand(browseCmd)
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
