// Package config provides configuration management for pagelore.
// It defines the crawl and analysis configuration structures together
// with their defaults and validation rules.
package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// AppName is used for the XDG data directory and the User-Agent fallback.
const AppName = "pagelore"

// AutoSelectors holds the selector lists used for single-page content
// extraction. Empty lists fall back to the built-in defaults.
type AutoSelectors struct {
	Title    []string `mapstructure:"title" yaml:"title" json:"title"`
	Content  []string `mapstructure:"content" yaml:"content" json:"content"`
	Links    []string `mapstructure:"links" yaml:"links" json:"links"`
	Images   []string `mapstructure:"images" yaml:"images" json:"images"`
	Metadata []string `mapstructure:"metadata" yaml:"metadata" json:"metadata"`
}

// CrawlConfig holds the deep-crawl configuration.
type CrawlConfig struct {
	// Crawl scope
	StartURLs       []string `mapstructure:"start_urls" yaml:"start_urls" json:"startUrls"`
	MaxDepth        int      `mapstructure:"max_depth" yaml:"max_depth" json:"maxDepth"`
	MaxPages        int      `mapstructure:"max_pages" yaml:"max_pages" json:"maxPages"`
	StayInDomain    bool     `mapstructure:"stay_in_domain" yaml:"stay_in_domain" json:"stayInDomain"`
	StayInSubdomain bool     `mapstructure:"stay_in_subdomain" yaml:"stay_in_subdomain" json:"stayInSubdomain"`

	// URL filtering
	IncludePatterns []string `mapstructure:"include_patterns" yaml:"include_patterns" json:"includePatterns"`
	ExcludePatterns []string `mapstructure:"exclude_patterns" yaml:"exclude_patterns" json:"excludePatterns"`

	// Politeness
	Rate           float64       `mapstructure:"rate" yaml:"rate" json:"rate"` // requests per second per domain
	Concurrency    int           `mapstructure:"concurrency" yaml:"concurrency" json:"concurrency"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout" json:"requestTimeout"`
	IgnoreRobots   bool          `mapstructure:"ignore_robots" yaml:"ignore_robots" json:"ignoreRobots"`
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent" json:"userAgent,omitempty"`

	// Extraction
	CustomSelectors *AutoSelectors `mapstructure:"custom_selectors" yaml:"custom_selectors,omitempty" json:"customSelectors,omitempty"`

	// EnablePagination follows a detected next-page link from each page
	// at the same depth, still bounded by MaxPages.
	EnablePagination bool `mapstructure:"enable_pagination" yaml:"enable_pagination" json:"enablePagination"`

	// FilterNavigation is accepted for compatibility with the original
	// configuration surface but has no effect on the crawl logic.
	FilterNavigation bool `mapstructure:"filter_navigation" yaml:"filter_navigation" json:"filterNavigation"`

	// MinContentLength is the threshold below which a page's extracted
	// content is not considered valuable.
	MinContentLength int `mapstructure:"min_content_length" yaml:"min_content_length" json:"minContentLength"`

	// DatabasePath is the SQLite file holding profiles and crawl sessions.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path" json:"-"`
}

// AnalyzeOptions holds the options for a single structure analysis request.
type AnalyzeOptions struct {
	MinContentLength int  `mapstructure:"min_content_length" yaml:"min_content_length" json:"minContentLength,omitempty"`
	DetectComments   bool `mapstructure:"detect_comments" yaml:"detect_comments" json:"detectComments"`
	DebugMode        bool `mapstructure:"debug_mode" yaml:"debug_mode" json:"debugMode"`
}

// DefaultExcludePatterns are the URL patterns skipped by default:
// binary assets and fragment URLs.
func DefaultExcludePatterns() []string {
	return []string{
		`\.pdf$`,
		`\.zip$`,
		`\.jpg$`,
		`\.png$`,
		`\.gif$`,
		`#.*$`,
	}
}

// DefaultDatabasePath returns the SQLite path under the XDG data directory.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.DataHome, AppName, "pagelore.db")
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *CrawlConfig {
	return &CrawlConfig{
		MaxDepth:         2,
		MaxPages:         50,
		StayInDomain:     true,
		StayInSubdomain:  false,
		IncludePatterns:  []string{},
		ExcludePatterns:  DefaultExcludePatterns(),
		Rate:             2.0,
		Concurrency:      1,
		RequestTimeout:   30 * time.Second,
		FilterNavigation: true,
		MinContentLength: 200,
		DatabasePath:     DefaultDatabasePath(),
	}
}

// DefaultAnalyzeOptions returns the default analysis options.
func DefaultAnalyzeOptions() AnalyzeOptions {
	return AnalyzeOptions{
		MinContentLength: 200,
		DetectComments:   true,
	}
}

// Validate checks if the configuration is valid.
func (c *CrawlConfig) Validate() error {
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}

	if c.Rate <= 0 {
		return ErrInvalidRate
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.DatabasePath == "" {
		return ErrEmptyDatabasePath
	}

	return nil
}

// Delay returns the politeness delay implied by the configured rate.
func (c *CrawlConfig) Delay() time.Duration {
	return time.Duration(float64(time.Second) / c.Rate)
}
