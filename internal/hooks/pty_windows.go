//go:build windows

package hooks

import (
	"io"
	"os/exec"
)

// runInPTY falls back to plain pipes on Windows.
func runInPTY(newCmd func() *exec.Cmd, out io.Writer) error {
	return runPiped(newCmd(), out)
}
