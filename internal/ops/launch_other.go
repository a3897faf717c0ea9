//go:build !darwin && !windows

package ops

import (
	"context"
	"os/exec"
)

func launchCommand(ctx context.Context, target string) *exec.Cmd {
	return exec.CommandContext(ctx, "xdg-open", target)
}
