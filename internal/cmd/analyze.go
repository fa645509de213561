package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagelore/pagelore/internal/analyzer"
	"github.com/pagelore/pagelore/internal/config"
	"github.com/pagelore/pagelore/internal/crawler"
	"github.com/pagelore/pagelore/internal/profile"
	"github.com/pagelore/pagelore/internal/storage"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Analyze the structure of a single page",
	Long: `Fetch one page, score its DOM regions by semantic role, and print the
analysis as JSON. When a main-content selector is found with sufficient
confidence, an extraction profile is saved for the page's domain.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Int("min-content-length", 200, "Minimum text length for a content section")
	analyzeCmd.Flags().Bool("detect-comments", true, "Include comment sections in the analysis")
	analyzeCmd.Flags().Bool("debug", false, "Include analysis diagnostics in the output")
	analyzeCmd.Flags().Bool("no-save", false, "Do not auto-save an extraction profile")
	analyzeCmd.Flags().DurationP("timeout", "t", 30*time.Second, "HTTP request timeout")
	analyzeCmd.Flags().StringP("user-agent", "u", "", "HTTP User-Agent (default rotates browser identities)")
	analyzeCmd.Flags().String("database", config.DefaultDatabasePath(), "Path to the SQLite database file")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	closeLogs, err := setupLogging()
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = closeLogs() }()

	url := args[0]
	timeout, _ := cmd.Flags().GetDuration("timeout")
	userAgent, _ := cmd.Flags().GetString("user-agent")
	noSave, _ := cmd.Flags().GetBool("no-save")
	dbPath, _ := cmd.Flags().GetString("database")

	opts := config.DefaultAnalyzeOptions()
	opts.MinContentLength, _ = cmd.Flags().GetInt("min-content-length")
	opts.DetectComments, _ = cmd.Flags().GetBool("detect-comments")
	opts.DebugMode, _ = cmd.Flags().GetBool("debug")

	fetcher := crawler.NewHTTPFetcher(userAgent, timeout)
	defer fetcher.Close()

	resp, err := fetcher.FetchWithRetry(cmd.Context(), url)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	a := analyzer.NewWithOptions(opts, analyzer.DefaultWeights())
	analysis := a.Analyze(resp.Body, url)

	if !noSave {
		saveProfileIfConfident(analysis, dbPath)
	}

	out, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// saveProfileIfConfident persists a profile when the analysis found a
// main-content selector with a top score of at least 0.5. Best effort:
// failures are logged, never returned.
func saveProfileIfConfident(analysis *analyzer.StructureAnalysis, dbPath string) {
	if analysis.Recommendations.BestMainContent == "" {
		return
	}
	if len(analysis.Sections) == 0 || analysis.Sections[0].Score < 0.5 {
		return
	}

	p, err := profile.FromAnalysis(analysis)
	if err != nil {
		slog.Warn("Profile auto-save skipped", "url", analysis.URL, "error", err)
		return
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		slog.Warn("Profile auto-save failed", "error", err)
		return
	}
	defer func() { _ = store.Close() }()

	if err := store.Insert(p); err != nil {
		slog.Warn("Profile auto-save failed", "domain", p.Domain, "error", err)
		return
	}
	slog.Info("Profile saved", "domain", p.Domain, "id", p.ID, "confidence", p.Confidence)
}
