package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := DefaultConfig()
	if cfg.SummarizerModel != def.SummarizerModel {
		t.Fatalf("SummarizerModel = %q, want %q", cfg.SummarizerModel, def.SummarizerModel)
	}
	if cfg.Port != def.Port {
		t.Fatalf("Port = %d, want %d", cfg.Port, def.Port)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"summarizer_model": "local-llama", "port": 9000}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SummarizerModel != "local-llama" {
		t.Fatalf("SummarizerModel = %q, want %q", cfg.SummarizerModel, "local-llama")
	}
	if cfg.Port != 9000 {
		t.Fatalf("Port = %d, want %d", cfg.Port, 9000)
	}
	// Untouched fields keep defaults
	if cfg.SummarizerBaseURL != DefaultConfig().SummarizerBaseURL {
		t.Fatalf("SummarizerBaseURL = %q, want default", cfg.SummarizerBaseURL)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{not json}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestMerge_OverlayWins(t *testing.T) {
	base := DefaultConfig()
	overlay := &Config{LogLevel: "debug", DefaultWindowWidth: 640}

	got := Merge(base, overlay)
	if got.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", got.LogLevel, "debug")
	}
	if got.DefaultWindowWidth != 640 {
		t.Errorf("DefaultWindowWidth = %d, want 640", got.DefaultWindowWidth)
	}
	if got.DefaultWindowHeight != base.DefaultWindowHeight {
		t.Errorf("DefaultWindowHeight = %d, want %d", got.DefaultWindowHeight, base.DefaultWindowHeight)
	}
}

func TestMerge_BlankStringIgnored(t *testing.T) {
	got := Merge(DefaultConfig(), &Config{SummarizerModel: "   "})
	if got.SummarizerModel != DefaultConfig().SummarizerModel {
		t.Errorf("SummarizerModel = %q, want default", got.SummarizerModel)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvSummarizerBaseURL, "http://localhost:11434/v1")
	t.Setenv(EnvLogFormat, "JSON")

	cfg := ApplyEnv(DefaultConfig())
	if cfg.SummarizerBaseURL != "http://localhost:11434/v1" {
		t.Errorf("SummarizerBaseURL = %q", cfg.SummarizerBaseURL)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "json")
	}
}

func TestLoadWithEnv_DotEnvFile(t *testing.T) {
	baseDir := t.TempDir()
	envDir := t.TempDir()

	// Registered so the value loaded from .env is cleared after the test
	t.Setenv(EnvSummarizerModel, "")
	os.Unsetenv(EnvSummarizerModel)

	if err := os.WriteFile(filepath.Join(envDir, ".env"), []byte("SKIM_SUMMARIZER_MODEL=from-dotenv\n"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadWithEnv(baseDir, envDir)
	if err != nil {
		t.Fatalf("LoadWithEnv() error = %v", err)
	}
	if cfg.SummarizerModel != "from-dotenv" {
		t.Errorf("SummarizerModel = %q, want %q", cfg.SummarizerModel, "from-dotenv")
	}
}

func TestLoadWithEnv_NoDotEnv(t *testing.T) {
	cfg, err := LoadWithEnv(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithEnv() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("expected config")
	}
}
