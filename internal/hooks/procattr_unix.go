//go:build !windows

package hooks

import (
	"os/exec"
	"syscall"
)

// setProcGroup sets process group attributes so the entire child tree
// can be killed when the context expires.
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	setGroupKill(cmd)
}

// setGroupKill kills the child's whole process group on cancellation. The
// child must lead its own group (Setpgid) or session (PTY).
func setGroupKill(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		return nil
	}
}
