//go:build darwin

package ops

import (
	"context"
	"os/exec"
)

func launchCommand(ctx context.Context, target string) *exec.Cmd {
	return exec.CommandContext(ctx, "open", target)
}
