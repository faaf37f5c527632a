package lifecycle

import (
	"context"
	"os/exec"
	"runtime"
)

// shellCommand builds the exec.Cmd that runs script in dir with env,
// dispatching through POSIX "sh -c" or, on the platform that demands it,
// "cmd /C" (§4.6).
func shellCommand(ctx context.Context, script, dir string, env []string) *exec.Cmd {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", script)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", script)
	}
	cmd.Dir = dir
	cmd.Env = env
	return cmd
}
