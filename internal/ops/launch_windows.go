//go:build windows

package ops

import (
	"context"
	"os/exec"
)

func launchCommand(ctx context.Context, target string) *exec.Cmd {
	return exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", target)
}
