package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/skim/internal/config"
	"github.com/hpungsan/skim/internal/db"
	"github.com/hpungsan/skim/internal/logging"
	"github.com/hpungsan/skim/internal/settings"
	"github.com/hpungsan/skim/internal/summarizer"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

func main() {
	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".skim")

	workDir, err := os.Getwd()
	if err != nil {
		workDir = baseDir
	}

	cfg, err := config.LoadWithEnv(baseDir, workDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries command output and the MCP protocol
	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	store := settings.New(database, settings.Defaults{
		WindowWidth:  cfg.DefaultWindowWidth,
		WindowHeight: cfg.DefaultWindowHeight,
	}, log)

	env := &appEnv{
		cfg:   cfg,
		store: store,
		svc:   summarizer.New(cfg, store, log),
		log:   log,
	}

	app := newCLIApp(env)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		database.Close()
		os.Exit(1)
	}
}
