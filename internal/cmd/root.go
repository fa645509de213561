// Package cmd provides the pagelore command-line interface: crawling,
// single-page analysis, profile management, and the API server.
package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/pagelore/pagelore/internal/config"
	"github.com/pagelore/pagelore/internal/crawler"
	"github.com/pagelore/pagelore/internal/logging"
	"github.com/pagelore/pagelore/internal/storage"
)

var (
	cfgFile   string
	logLevel  string
	logFile   string
	version   string
	buildTime string
)

// rootCmd runs a deep crawl when invoked with URLs.
var rootCmd = &cobra.Command{
	Use:   "pagelore [URLs...]",
	Short: "A structure-aware web crawler with adaptive extraction profiles",
	Long: `Pagelore crawls websites breadth-first, scores page regions by their
semantic role (article, navigation, sidebar, comments) and remembers
which selectors worked per domain so later visits can extract content
without re-analyzing the page structure.`,
	Args: cobra.ArbitraryArgs,
	RunE: runCrawl,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information for the CLI.
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./pagelore.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file path (default logs to console only)")

	rootCmd.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")

	rootCmd.Flags().IntP("depth", "d", 2, "Maximum crawl depth from the start URLs")
	rootCmd.Flags().IntP("pages", "p", 50, "Maximum number of pages to crawl")
	rootCmd.Flags().Float64P("rate", "r", 2.0, "Requests per second per domain")
	rootCmd.Flags().IntP("concurrency", "c", 1, "Number of concurrent workers")
	rootCmd.Flags().DurationP("timeout", "t", 30*time.Second, "HTTP request timeout")
	rootCmd.Flags().StringP("user-agent", "u", "", "HTTP User-Agent (default rotates browser identities)")
	rootCmd.Flags().Bool("ignore-robots", false, "Ignore robots.txt rules")
	rootCmd.Flags().Bool("stay-in-domain", true, "Only follow links within the start URL's registrable domain")
	rootCmd.Flags().Bool("stay-in-subdomain", false, "Only follow links within the exact start hostname")
	rootCmd.Flags().Bool("enable-pagination", false, "Follow detected next-page links at the same depth")
	rootCmd.Flags().StringSlice("include-patterns", []string{}, "Regex patterns for URLs to include")
	rootCmd.Flags().StringSlice("exclude-patterns", config.DefaultExcludePatterns(), "Regex patterns for URLs to exclude")
	rootCmd.Flags().Int("min-content-length", 200, "Minimum text length for a content section")
	rootCmd.Flags().String("database", config.DefaultDatabasePath(), "Path to the SQLite database file")

	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"max_depth", "depth"},
		{"max_pages", "pages"},
		{"rate", "rate"},
		{"concurrency", "concurrency"},
		{"request_timeout", "timeout"},
		{"user_agent", "user-agent"},
		{"ignore_robots", "ignore-robots"},
		{"stay_in_domain", "stay-in-domain"},
		{"stay_in_subdomain", "stay-in-subdomain"},
		{"enable_pagination", "enable-pagination"},
		{"include_patterns", "include-patterns"},
		{"exclude_patterns", "exclude-patterns"},
		{"min_content_length", "min-content-length"},
		{"database_path", "database"},
	}

	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.Flags().Lookup(bind.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("pagelore")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("PAGELORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig resolves the effective crawl configuration from defaults,
// config file, environment, and flags.
func loadConfig(args []string) (*config.CrawlConfig, error) {
	cfg := config.DefaultConfig()
	cfg.StartURLs = args

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if len(args) > 0 {
		cfg.StartURLs = args
	}
	return cfg, nil
}

func setupLogging() (func() error, error) {
	opts := logging.DefaultOptions()
	opts.Level = logLevel
	opts.FilePath = logFile
	return logging.Setup(opts)
}

func showCurrentConfig(cfg *config.CrawlConfig) error {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: configuration validation failed: %v\n\n", err)
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Printf("# Current pagelore configuration\n")
	fmt.Printf("# Generated at: %s\n", time.Now().Format(time.RFC3339))
	fmt.Printf("# Configuration file search paths: ./pagelore.yml\n")
	fmt.Printf("# Environment variables prefix: PAGELORE_\n\n")
	fmt.Print(string(yamlData))
	fmt.Printf("\n# Configuration source priority:\n")
	fmt.Printf("# 1. Command-line arguments (highest priority)\n")
	fmt.Printf("# 2. Environment variables (PAGELORE_ prefix)\n")
	fmt.Printf("# 3. Configuration file (pagelore.yml)\n")
	fmt.Printf("# 4. Default values (lowest priority)\n")
	return nil
}

func runCrawl(cmd *cobra.Command, args []string) error {
	showConfig, _ := cmd.Flags().GetBool("show-config")

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	if showConfig {
		return showCurrentConfig(cfg)
	}

	if len(cfg.StartURLs) == 0 {
		return fmt.Errorf("no start URLs provided\nUsage: %s [URLs...]", os.Args[0])
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	closeLogs, err := setupLogging()
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = closeLogs() }()

	c, err := crawler.New(cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize crawler: %w", err)
	}

	slog.Info("Starting crawl",
		"urls", cfg.StartURLs,
		"max_depth", cfg.MaxDepth,
		"max_pages", cfg.MaxPages,
		"concurrency", cfg.Concurrency)

	result := c.Crawl(cmd.Context())

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		slog.Warn("Session not persisted", "error", err)
	} else {
		defer func() { _ = store.Close() }()
		if err := store.SaveSession(result); err != nil {
			slog.Warn("Session save failed", "session", result.SessionID, "error", err)
		}
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(out))

	if result.Status == crawler.StatusFailed {
		return fmt.Errorf("crawl failed: no pages crawled")
	}
	return nil
}
