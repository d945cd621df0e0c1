//go:build darwin || linux || freebsd || openbsd || netbsd

package executor

import (
	"os/exec"
	"syscall"
)

// setPlatformAttrs puts the script in its own process group so a timeout or
// cancellation kills everything it spawned, not just the interpreter.
func setPlatformAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
