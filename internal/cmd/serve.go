package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagelore/pagelore/internal/api"
	"github.com/pagelore/pagelore/internal/config"
	"github.com/pagelore/pagelore/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serve the analyzer, crawler, and profile store over HTTP. The server
exposes /analyze, /crawl, /sessions, and /profiles endpoints.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().String("database", config.DefaultDatabasePath(), "Path to the SQLite database file")
	serveCmd.Flags().DurationP("timeout", "t", 30*time.Second, "HTTP request timeout for outgoing fetches")
	serveCmd.Flags().StringP("user-agent", "u", "", "HTTP User-Agent for outgoing fetches")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	closeLogs, err := setupLogging()
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = closeLogs() }()

	addr, _ := cmd.Flags().GetString("addr")
	dbPath, _ := cmd.Flags().GetString("database")

	cfg := config.DefaultConfig()
	cfg.DatabasePath = dbPath
	cfg.RequestTimeout, _ = cmd.Flags().GetDuration("timeout")
	cfg.UserAgent, _ = cmd.Flags().GetString("user-agent")

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", cfg.DatabasePath, err)
	}
	defer func() { _ = store.Close() }()

	server := api.NewServer(cfg, store, store, nil, slog.Default())
	return server.ListenAndServe(cmd.Context(), addr)
}
