package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/skim/internal/config"
	"github.com/hpungsan/skim/internal/coordinator"
	"github.com/hpungsan/skim/internal/errors"
	"github.com/hpungsan/skim/internal/mcp"
	"github.com/hpungsan/skim/internal/ops"
	"github.com/hpungsan/skim/internal/settings"
	"github.com/hpungsan/skim/internal/web"
)

// appEnv holds what commands need. It is nil for --help and --version.
type appEnv struct {
	cfg   *config.Config
	store *settings.Store
	svc   ops.Summarizer
	log   *slog.Logger

	// opener launches the browser for serve --open; nil means ops.SystemOpener.
	opener ops.Opener
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *appEnv) *cli.App {
	app := &cli.App{
		Name:    "skim",
		Usage:   "Summarize web pages and export them as markdown",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(env),
			mcpCmd(env),
			summarizeCmd(env),
			exportCmd(env),
			keyCmd(env),
			folderCmd(env),
			settingsCmd(env),
		},
		// No subcommand: web UI from a terminal, MCP server when stdin is piped.
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("unknown command %q, run 'skim --help' for usage", c.Args().First())))
			}
			if stdinHasData(c) {
				return runMCP(env)
			}
			return runServe(c.Context, env, env.cfg.Bind, env.cfg.Port, false)
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the serve command.
func serveCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Listen address (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (default from config)"},
			&cli.BoolFlag{Name: "open", Usage: "Open the UI in the default browser"},
		},
		Action: func(c *cli.Context) error {
			bind := env.cfg.Bind
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			port := env.cfg.Port
			if c.IsSet("port") {
				port = c.Int("port")
			}
			return runServe(c.Context, env, bind, port, c.Bool("open"))
		},
	}
}

func runServe(ctx context.Context, env *appEnv, bind string, port int, open bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	coord := coordinator.New(coordinator.Config{
		Store:      env.store,
		Summarizer: env.svc,
		Logger:     env.log,
	})
	done := make(chan error, 1)
	go func() { done <- coord.Run(ctx) }()

	cfg := *env.cfg
	cfg.Bind = bind
	cfg.Port = port

	srv, err := web.NewServer(coord, &cfg, Version, env.log)
	if err != nil {
		return outputError(errors.NewInternal(err))
	}

	if open {
		opener := env.opener
		if opener == nil {
			opener = ops.SystemOpener{}
		}
		url := "http://" + srv.Addr
		go func() {
			if err := opener.Open(ctx, url); err != nil {
				env.log.Warn("could not open browser", "url", url, "error", err)
			}
		}()
	}

	runErr := web.Run(ctx, srv, env.log)
	cancel()
	<-done
	if runErr != nil {
		return outputError(errors.NewInternal(runErr))
	}
	return nil
}

// mcpCmd creates the mcp command.
func mcpCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			return runMCP(env)
		},
	}
}

func runMCP(env *appEnv) error {
	if err := mcp.Run(env.store, env.svc, Version, env.log); err != nil {
		return outputError(errors.NewInternal(err))
	}
	return nil
}

// summarizeOutput is printed by the summarize command.
type summarizeOutput struct {
	FileName string `json:"fileName"`
	Text     string `json:"text"`
	Path     string `json:"path,omitempty"`
}

// summarizeCmd creates the summarize command.
func summarizeCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "summarize",
		Usage:     "Summarize a web page",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "with-code", Aliases: []string{"c"}, Usage: "Keep code examples"},
			&cli.BoolFlag{Name: "export", Aliases: []string{"e"}, Usage: "Export the summary to the output folder"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("exactly one url is required"))
			}

			out, err := ops.RequestSummary(c.Context, env.store, env.svc, ops.SummaryInput{
				URL:      c.Args().First(),
				WithCode: c.Bool("with-code"),
			})
			if err != nil {
				return outputError(err)
			}

			result := summarizeOutput{FileName: out.FileName, Text: out.Text}
			if c.Bool("export") {
				exported, err := ops.Export(c.Context, ops.ExportInput{
					Folder:   env.store.Get(c.Context).OutputFolderPath,
					FileName: out.FileName,
					Text:     out.Text,
				})
				if err != nil {
					return outputError(err)
				}
				result.Path = exported.Path
			}

			return outputJSON(c, result)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export markdown to the output folder (reads text from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "File name without extension (default: from the first heading)"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData(c) {
				return outputError(errors.NewInvalidRequest("text must be piped via stdin"))
			}

			text, err := readInput(c)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			output, err := ops.Export(c.Context, ops.ExportInput{
				Folder:   env.store.Get(c.Context).OutputFolderPath,
				FileName: c.String("name"),
				Text:     strings.TrimRight(text, "\n"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// keyCmd creates the key command.
func keyCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "key",
		Usage: "Manage the summarizer API key",
		Subcommands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Store the API key (reads it from stdin)",
				Action: func(c *cli.Context) error {
					if !stdinHasData(c) {
						return outputError(errors.NewInvalidRequest("API key must be piped via stdin"))
					}
					secret, err := readInput(c)
					if err != nil {
						return outputError(errors.NewInternal(err))
					}
					secret = strings.TrimSpace(secret)
					if secret == "" {
						return outputError(errors.NewInvalidRequest("API key is empty"))
					}
					if err := env.store.SetCredential(c.Context, secret); err != nil {
						return outputError(err)
					}
					return outputJSON(c, coordinator.CredentialStatus{Present: env.store.HasCredential(c.Context)})
				},
			},
			{
				Name:  "clear",
				Usage: "Remove the stored API key",
				Action: func(c *cli.Context) error {
					if err := env.store.SetCredential(c.Context, ""); err != nil {
						return outputError(err)
					}
					return outputJSON(c, coordinator.CredentialStatus{Present: env.store.HasCredential(c.Context)})
				},
			},
		},
	}
}

// folderCmd creates the folder command.
func folderCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "folder",
		Usage: "Manage the output folder",
		Subcommands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Set the output folder (must exist and be writable)",
				ArgsUsage: "<path>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return outputError(errors.NewInvalidRequest("exactly one path is required"))
					}
					path := c.Args().First()
					if !ops.IsWritable(path) {
						return outputError(errors.NewPathNotWritable(path))
					}
					if err := env.store.SetOutputFolderPath(c.Context, path); err != nil {
						return outputError(err)
					}
					return outputJSON(c, env.store.Get(c.Context))
				},
			},
		},
	}
}

// settingsCmd creates the settings command.
func settingsCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show stored settings",
		Action: func(c *cli.Context) error {
			return outputJSON(c, env.store.Get(c.Context))
		},
	}
}

// outputJSON writes v as indented JSON to the app's writer.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	sErr := errors.As(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", sErr.Code, sErr.Message), 1)
}

// stdinHasData returns true if the app's input is piped rather than a terminal.
func stdinHasData(c *cli.Context) bool {
	f, ok := c.App.Reader.(*os.File)
	if !ok {
		return c.App.Reader != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readInput reads all content from the app's input.
func readInput(c *cli.Context) (string, error) {
	data, err := io.ReadAll(c.App.Reader)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
