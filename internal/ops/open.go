package ops

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"

	"github.com/hpungsan/skim/internal/errors"
)

// Opener hands a path to the desktop's default application.
type Opener interface {
	Open(ctx context.Context, target string) error
}

// SystemOpener opens paths with the platform launcher
// (open on macOS, rundll32 on Windows, xdg-open elsewhere).
type SystemOpener struct{}

// Open runs the platform launcher for target and waits for it to exit.
func (SystemOpener) Open(ctx context.Context, target string) error {
	return launchCommand(ctx, target).Run()
}

// OpenExported opens path with opener, falling back to its containing folder.
// ErrOpenFileFailure is returned only when both attempts fail.
func OpenExported(ctx context.Context, opener Opener, path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.NewInvalidRequest("path is required")
	}

	fileErr := opener.Open(ctx, path)
	if fileErr == nil {
		return nil
	}

	if dirErr := opener.Open(ctx, filepath.Dir(path)); dirErr != nil {
		return errors.NewOpenFileFailure(path, stderrors.Join(fileErr, dirErr))
	}
	return nil
}

var _ Opener = SystemOpener{}
