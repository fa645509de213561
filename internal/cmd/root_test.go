package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestSetVersionInfo(t *testing.T) {
	SetVersionInfo("1.2.3", "2026-01-01T00:00:00Z")

	expected := "1.2.3 (built 2026-01-01T00:00:00Z)"
	if rootCmd.Version != expected {
		t.Errorf("Version = %q, want %q", rootCmd.Version, expected)
	}
}

func TestInitConfigReadsFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "pagelore.yml")
	content := `
max_depth: 4
max_pages: 10
rate: 1.5
user_agent: "TestAgent/1.0"
`
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	origCfgFile := cfgFile
	defer func() {
		cfgFile = origCfgFile
		viper.Reset()
	}()

	cfgFile = configFile
	initConfig()

	if viper.ConfigFileUsed() != configFile {
		t.Errorf("ConfigFileUsed() = %q, want %q", viper.ConfigFileUsed(), configFile)
	}
	if viper.GetInt("max_depth") != 4 {
		t.Errorf("max_depth = %d, want 4", viper.GetInt("max_depth"))
	}
}

func TestLoadConfigAppliesFileOverDefaults(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "pagelore.yml")
	content := `
max_depth: 3
max_pages: 7
ignore_robots: true
`
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	origCfgFile := cfgFile
	defer func() {
		cfgFile = origCfgFile
		viper.Reset()
	}()

	cfgFile = configFile
	initConfig()

	cfg, err := loadConfig([]string{"https://example.com"})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.MaxDepth != 3 {
		t.Errorf("MaxDepth = %d, want 3", cfg.MaxDepth)
	}
	if cfg.MaxPages != 7 {
		t.Errorf("MaxPages = %d, want 7", cfg.MaxPages)
	}
	if !cfg.IgnoreRobots {
		t.Error("IgnoreRobots = false, want true")
	}
	if len(cfg.StartURLs) != 1 || cfg.StartURLs[0] != "https://example.com" {
		t.Errorf("StartURLs = %v, want the positional argument", cfg.StartURLs)
	}

	// Fields absent from the file keep their defaults.
	if cfg.Rate != 2.0 {
		t.Errorf("Rate = %v, want default 2.0", cfg.Rate)
	}
	if !cfg.StayInDomain {
		t.Error("StayInDomain = false, want default true")
	}
}

func TestRegisteredSubcommands(t *testing.T) {
	want := map[string]bool{"analyze": false, "profiles": false, "serve": false}

	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}

	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q is not registered", name)
		}
	}
}
