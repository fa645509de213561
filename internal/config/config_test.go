package config

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxDepth != 2 {
		t.Errorf("MaxDepth = %d, want 2", cfg.MaxDepth)
	}
	if cfg.MaxPages != 50 {
		t.Errorf("MaxPages = %d, want 50", cfg.MaxPages)
	}
	if !cfg.StayInDomain {
		t.Error("StayInDomain = false, want true")
	}
	if cfg.StayInSubdomain {
		t.Error("StayInSubdomain = true, want false")
	}
	if cfg.Rate != 2.0 {
		t.Errorf("Rate = %f, want 2.0", cfg.Rate)
	}
	if cfg.MinContentLength != 200 {
		t.Errorf("MinContentLength = %d, want 200", cfg.MinContentLength)
	}
	if len(cfg.ExcludePatterns) != 6 {
		t.Errorf("ExcludePatterns has %d entries, want 6", len(cfg.ExcludePatterns))
	}
	if cfg.DatabasePath == "" {
		t.Error("DatabasePath is empty")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CrawlConfig)
		wantErr error
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *CrawlConfig) {},
			wantErr: nil,
		},
		{
			name:    "negative max depth",
			mutate:  func(c *CrawlConfig) { c.MaxDepth = -1 },
			wantErr: ErrInvalidMaxDepth,
		},
		{
			name:    "zero max pages",
			mutate:  func(c *CrawlConfig) { c.MaxPages = 0 },
			wantErr: ErrInvalidMaxPages,
		},
		{
			name:    "zero rate",
			mutate:  func(c *CrawlConfig) { c.Rate = 0 },
			wantErr: ErrInvalidRate,
		},
		{
			name:    "negative rate",
			mutate:  func(c *CrawlConfig) { c.Rate = -1.5 },
			wantErr: ErrInvalidRate,
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *CrawlConfig) { c.Concurrency = 0 },
			wantErr: ErrInvalidConcurrency,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *CrawlConfig) { c.RequestTimeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "empty database path",
			mutate:  func(c *CrawlConfig) { c.DatabasePath = "" },
			wantErr: ErrEmptyDatabasePath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDelay(t *testing.T) {
	tests := []struct {
		rate float64
		want time.Duration
	}{
		{2.0, 500 * time.Millisecond},
		{1.0, time.Second},
		{4.0, 250 * time.Millisecond},
		{0.5, 2 * time.Second},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Rate = tt.rate
		if got := cfg.Delay(); got != tt.want {
			t.Errorf("Delay() with rate %f = %v, want %v", tt.rate, got, tt.want)
		}
	}
}
