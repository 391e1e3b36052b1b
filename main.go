package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jessielw/deluge-web-client/config"
	"github.com/jessielw/deluge-web-client/deluge"
	"github.com/jessielw/deluge-web-client/internal"
	"github.com/jessielw/deluge-web-client/tools"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "deluge-web-client",
	Short:         "Talk to a Deluge daemon through its Web UI JSON-RPC endpoint",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		return internal.SetLevel(cfg.LogLevel)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		internal.Sync()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run an MCP server over stdio exposing Deluge tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		client, err := deluge.Open(ctx, cfg.Deluge.URL, cfg.Deluge.Password, clientOptions()...)
		if err != nil {
			return err
		}
		defer client.Close()

		internal.Logf("connected to deluge web ui: %s", client.URL())

		s := server.NewMCPServer(
			"deluge-web-client",
			"1.0.0",
			server.WithToolCapabilities(true),
			server.WithInstructions("Tools for a Deluge torrent daemon reached through its Web UI. Use deluge_list_torrents to see torrents, deluge_add_torrent or deluge_upload_torrent_file to add them, deluge_labels to organise them and deluge_call for any other Web UI method."),
		)

		tools.RegisterAll(s, cfg, client)

		internal.Logf("starting deluge-web-client MCP server (stdio)")

		if err := server.ServeStdio(s); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	},
}

func clientOptions() []deluge.Option {
	return []deluge.Option{
		deluge.WithLogger(internal.Logger()),
		deluge.WithTimeout(cfg.Deluge.Timeout()),
	}
}

// withSession runs fn against a logged-in client built from the loaded config.
func withSession(ctx context.Context, fn func(*deluge.Client) error) error {
	return deluge.WithSession(ctx, cfg.Deluge.URL, cfg.Deluge.Password, fn, clientOptions()...)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml or config.toml (default: ~/.config/deluge-web-client/config.yaml)")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
