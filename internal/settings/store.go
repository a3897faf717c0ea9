// Package settings persists the user state the UI round-trips: the API
// credential, the output folder and the window geometry.
package settings

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/hpungsan/skim/internal/db"
	"github.com/hpungsan/skim/internal/errors"
	"github.com/hpungsan/skim/internal/logging"
	"github.com/hpungsan/skim/internal/ops"
)

// Keys in the settings table.
const (
	KeyCredential       = "credential"
	KeyOutputFolderPath = "outputFolderPath"
	KeyWindowWidth      = "windowWidth"
	KeyWindowHeight     = "windowHeight"
)

// Configuration is the user-visible view of stored settings.
// The credential itself is never part of it.
type Configuration struct {
	CredentialPresent bool   `json:"credentialPresent"`
	OutputFolderPath  string `json:"outputFolderPath"`
	WindowWidth       int    `json:"windowWidth"`
	WindowHeight      int    `json:"windowHeight"`
}

// Defaults are used for values that are unset or unusable.
type Defaults struct {
	OutputFolderPath string
	WindowWidth      int
	WindowHeight     int
}

// Store reads and writes settings. All writes are committed before the
// method returns, so a following Get observes them.
type Store struct {
	db       *sql.DB
	defaults Defaults
	log      *slog.Logger

	mu sync.Mutex
}

// New creates a Store. A blank Defaults.OutputFolderPath is replaced with
// ops.DefaultOutputDir().
func New(database *sql.DB, defaults Defaults, log *slog.Logger) *Store {
	if strings.TrimSpace(defaults.OutputFolderPath) == "" {
		defaults.OutputFolderPath = ops.DefaultOutputDir()
	}
	return &Store{
		db:       database,
		defaults: defaults,
		log:      logging.OrDiscard(log).With("component", "settings"),
	}
}

// Get returns the current configuration. It never fails: unreadable storage
// yields defaults, and a stored folder that is gone or has lost its write
// permission is replaced by the default folder. The folder is only stat'ed;
// the write probe runs when a folder is saved.
func (s *Store) Get(ctx context.Context) Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := Configuration{
		OutputFolderPath: s.defaults.OutputFolderPath,
		WindowWidth:      s.defaults.WindowWidth,
		WindowHeight:     s.defaults.WindowHeight,
	}

	values, err := db.ListSettings(ctx, s.db)
	if err != nil {
		s.log.Warn("settings unreadable, using defaults", "error", err)
		return cfg
	}

	cfg.CredentialPresent = values[KeyCredential] != ""

	if folder := values[KeyOutputFolderPath]; folder != "" {
		if ops.HasWriteAccess(folder) {
			cfg.OutputFolderPath = folder
		} else {
			s.log.Info("stored output folder not writable, using default",
				"stored", folder, "default", cfg.OutputFolderPath)
		}
	}

	if w, ok := positiveInt(values[KeyWindowWidth]); ok {
		cfg.WindowWidth = w
	}
	if h, ok := positiveInt(values[KeyWindowHeight]); ok {
		cfg.WindowHeight = h
	}

	return cfg
}

// SetCredential stores secret. An empty secret clears the credential.
func (s *Store) SetCredential(ctx context.Context, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return db.PutSettings(ctx, s.db, map[string]string{KeyCredential: strings.TrimSpace(secret)})
}

// HasCredential reports whether a non-empty credential is stored.
func (s *Store) HasCredential(ctx context.Context) bool {
	_, ok := s.Credential(ctx)
	return ok
}

// Credential returns the stored secret.
func (s *Store) Credential(ctx context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok, err := db.GetSetting(ctx, s.db, KeyCredential)
	if err != nil {
		s.log.Warn("credential unreadable", "error", err)
		return "", false
	}
	return value, ok && value != ""
}

// SetOutputFolderPath stores path as given. Callers validate it first.
func (s *Store) SetOutputFolderPath(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.NewInvalidRequest("output folder path is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return db.PutSettings(ctx, s.db, map[string]string{KeyOutputFolderPath: path})
}

// SetWindowSize stores the window geometry. Non-positive sizes are rejected.
func (s *Store) SetWindowSize(ctx context.Context, width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.NewInvalidRequest("window size must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return db.PutSettings(ctx, s.db, map[string]string{
		KeyWindowWidth:  strconv.Itoa(width),
		KeyWindowHeight: strconv.Itoa(height),
	})
}

func positiveInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
