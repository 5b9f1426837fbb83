//go:build !windows

package hooks

import (
	"errors"
	"io"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
)

// runInPTY starts a command attached to a pseudo-terminal and copies its
// output to out. If no PTY can be allocated the command runs with plain pipes.
func runInPTY(newCmd func() *exec.Cmd, out io.Writer) error {
	cmd := newCmd()
	// pty.Start puts the child in its own session; Setpgid would conflict.
	cmd.SysProcAttr = &syscall.SysProcAttr{}
	setGroupKill(cmd)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return runPiped(newCmd(), out)
	}
	defer ptmx.Close()

	_, copyErr := io.Copy(out, ptmx)
	if err := cmd.Wait(); err != nil {
		return err
	}
	// Reading the master returns EIO on Linux once the child side closes.
	if copyErr != nil && !errors.Is(copyErr, syscall.EIO) {
		return copyErr
	}
	return nil
}
