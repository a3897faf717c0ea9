package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override values from config.json.
const (
	EnvSummarizerBaseURL = "SKIM_SUMMARIZER_BASE_URL"
	EnvSummarizerModel   = "SKIM_SUMMARIZER_MODEL"
	EnvLogLevel          = "SKIM_LOG_LEVEL"
	EnvLogFormat         = "SKIM_LOG_FORMAT"
)

// Config holds application configuration.
// User state (API key, output folder, window size) is kept in the settings
// store, not here.
type Config struct {
	// SummarizerBaseURL is the OpenAI-compatible API root (".../v1").
	SummarizerBaseURL string `json:"summarizer_base_url"`

	// SummarizerModel is the chat model used to write summaries.
	SummarizerModel string `json:"summarizer_model"`

	// SummarizerTimeoutSeconds bounds each page fetch and each completion call.
	SummarizerTimeoutSeconds int `json:"summarizer_timeout_seconds"`

	// SummarizerMaxRetries is the number of retries on transient completion errors.
	SummarizerMaxRetries int `json:"summarizer_max_retries"`

	// MaxPageChars caps the extracted page text sent to the model.
	MaxPageChars int `json:"max_page_chars"`

	// Bind and Port are the web UI listen address.
	Bind string `json:"bind"`
	Port int    `json:"port"`

	// LogLevel is one of debug|info|warn|error.
	LogLevel string `json:"log_level"`

	// LogFormat is text (tint) or json.
	LogFormat string `json:"log_format"`

	// DefaultWindowWidth and DefaultWindowHeight are used until the UI reports a size.
	DefaultWindowWidth  int `json:"default_window_width"`
	DefaultWindowHeight int `json:"default_window_height"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		SummarizerBaseURL:        "https://api.openai.com/v1",
		SummarizerModel:          "gpt-4o-mini",
		SummarizerTimeoutSeconds: 90,
		SummarizerMaxRetries:     3,
		MaxPageChars:             24000,
		Bind:                     "127.0.0.1",
		Port:                     8491,
		LogLevel:                 "info",
		LogFormat:                "text",
		DefaultWindowWidth:       1200,
		DefaultWindowHeight:      800,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.skim.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithEnv loads baseDir/config.json and then applies environment overrides.
// A .env file in envDir is read first when present; variables already set in
// the process environment are not replaced by it.
func LoadWithEnv(baseDir, envDir string) (*Config, error) {
	cfg, err := Load(baseDir)
	if err != nil {
		return nil, err
	}

	envPath := filepath.Join(envDir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, err
		}
	}

	return ApplyEnv(cfg), nil
}

// ApplyEnv overlays SKIM_* environment variables onto cfg.
func ApplyEnv(cfg *Config) *Config {
	overlay := &Config{
		SummarizerBaseURL: strings.TrimSpace(os.Getenv(EnvSummarizerBaseURL)),
		SummarizerModel:   strings.TrimSpace(os.Getenv(EnvSummarizerModel)),
		LogLevel:          strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogLevel))),
		LogFormat:         strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogFormat))),
	}
	return Merge(cfg, overlay)
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence when non-zero.
func Merge(base, overlay *Config) *Config {
	return &Config{
		SummarizerBaseURL:        pickString(overlay.SummarizerBaseURL, base.SummarizerBaseURL),
		SummarizerModel:          pickString(overlay.SummarizerModel, base.SummarizerModel),
		SummarizerTimeoutSeconds: pickInt(overlay.SummarizerTimeoutSeconds, base.SummarizerTimeoutSeconds),
		SummarizerMaxRetries:     pickInt(overlay.SummarizerMaxRetries, base.SummarizerMaxRetries),
		MaxPageChars:             pickInt(overlay.MaxPageChars, base.MaxPageChars),
		Bind:                     pickString(overlay.Bind, base.Bind),
		Port:                     pickInt(overlay.Port, base.Port),
		LogLevel:                 pickString(overlay.LogLevel, base.LogLevel),
		LogFormat:                pickString(overlay.LogFormat, base.LogFormat),
		DefaultWindowWidth:       pickInt(overlay.DefaultWindowWidth, base.DefaultWindowWidth),
		DefaultWindowHeight:      pickInt(overlay.DefaultWindowHeight, base.DefaultWindowHeight),
	}
}

func pickString(overlay, base string) string {
	if s := strings.TrimSpace(overlay); s != "" {
		return s
	}
	return base
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}
