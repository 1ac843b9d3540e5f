package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoadDefaults tests that a missing file yields a fully defaulted
// configuration
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerConfig.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.ServerConfig.Port)
	}
	if cfg.AnalysisConfig.SwingWindow != 2 {
		t.Errorf("Expected default swing window 2, got %d", cfg.AnalysisConfig.SwingWindow)
	}
	if len(cfg.AnalysisConfig.Timeframes) != 4 {
		t.Errorf("Expected 4 default timeframes, got %d", len(cfg.AnalysisConfig.Timeframes))
	}
	if cfg.AnalysisConfig.HTFTimeframe != "4h" || cfg.AnalysisConfig.LTFTimeframe != "1h" {
		t.Errorf("Expected default bias timeframes 4h/1h, got %s/%s",
			cfg.AnalysisConfig.HTFTimeframe, cfg.AnalysisConfig.LTFTimeframe)
	}
	if cfg.ScorerConfig.MinQuoteVolume != 10_000_000 {
		t.Errorf("Expected default quote volume floor 10M, got %f", cfg.ScorerConfig.MinQuoteVolume)
	}
	if cfg.ScannerConfig.WorkerCount != 5 {
		t.Errorf("Expected default worker count 5, got %d", cfg.ScannerConfig.WorkerCount)
	}
	if cfg.ScanTimeout() != 120*time.Second {
		t.Errorf("Expected default scan timeout 120s, got %s", cfg.ScanTimeout())
	}
}

// TestLoadFromFile tests that file values override defaults
func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"server": {"port": 9090},
		"analysis": {"swing_window": 3},
		"scanner": {"worker_count": 8}
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerConfig.Port != 9090 {
		t.Errorf("Expected port 9090 from file, got %d", cfg.ServerConfig.Port)
	}
	if cfg.AnalysisConfig.SwingWindow != 3 {
		t.Errorf("Expected swing window 3 from file, got %d", cfg.AnalysisConfig.SwingWindow)
	}
	if cfg.ScannerConfig.WorkerCount != 8 {
		t.Errorf("Expected worker count 8 from file, got %d", cfg.ScannerConfig.WorkerCount)
	}
	// Untouched values still default
	if cfg.AnalysisConfig.RSIPeriod != 14 {
		t.Errorf("Expected default RSI period 14, got %d", cfg.AnalysisConfig.RSIPeriod)
	}
}

// TestLoadEnvOverride tests that environment variables win over the file
func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServerConfig.Port != 7070 {
		t.Errorf("Expected env port 7070, got %d", cfg.ServerConfig.Port)
	}
	if cfg.LoggingConfig.Level != "debug" {
		t.Errorf("Expected env log level debug, got %s", cfg.LoggingConfig.Level)
	}
}

// TestValidateAuthSecret tests the auth secret requirement
func TestValidateAuthSecret(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "true")

	if _, err := Load(""); err == nil {
		t.Error("Expected error when auth is enabled without a secret")
	}

	t.Setenv("AUTH_JWT_SECRET", "test-secret")
	if _, err := Load(""); err != nil {
		t.Errorf("Expected load to succeed with a secret, got %v", err)
	}
}

// TestValidateBiasTimeframes tests that the bias timeframes must be
// configured timeframes
func TestValidateBiasTimeframes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"analysis": {"timeframes": ["1h", "4h"], "htf_timeframe": "1d"}}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for a bias timeframe outside the configured set")
	}
}

// TestLoadMalformedFile tests the parse error path
func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for malformed config file")
	}
}
