// Package hooks runs the shell commands configured under hooks: in lancelot.yaml.
package hooks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"time"

	"golang.org/x/term"

	"github.com/dondejvo/lancelot-cli/internal/config"
)

// HookRunner executes lifecycle hooks.
type HookRunner struct {
	config  config.HooksConfig
	workDir string
	logOut  io.Writer
	usePTY  bool
}

// NewHookRunner creates a new HookRunner. When logOut is a terminal, hooks
// run under a pseudo-terminal so their colored output is preserved.
func NewHookRunner(cfg config.HooksConfig, workDir string, logOut io.Writer) *HookRunner {
	if logOut == nil {
		logOut = os.Stdout
	}
	usePTY := false
	if f, ok := logOut.(*os.File); ok {
		usePTY = term.IsTerminal(int(f.Fd()))
	}
	return &HookRunner{
		config:  cfg,
		workDir: workDir,
		logOut:  logOut,
		usePTY:  usePTY,
	}
}

// Fire executes all hooks for the given event sequentially.
// Returns error only if a hook with on_failure="abort" fails.
func (r *HookRunner) Fire(ctx context.Context, event string, envVars map[string]string) error {
	hooks := r.config.GetHooks(event)
	if len(hooks) == 0 {
		return nil
	}

	for i, h := range hooks {
		slog.Debug("running hook", "event", event, "index", i, "command", h.Command)
		if err := r.runHook(ctx, event, h, envVars); err != nil {
			policy := h.OnFailure
			if policy == "" {
				policy = "warn"
			}
			switch policy {
			case "abort":
				return fmt.Errorf("hook %s[%d] aborted: %w", event, i, err)
			case "warn":
				fmt.Fprintf(r.logOut, "[hooks] warning: %s[%d] failed: %v\n", event, i, err)
			case "ignore":
			default:
				fmt.Fprintf(r.logOut, "[hooks] warning: %s[%d] failed (unknown policy %q): %v\n", event, i, policy, err)
			}
		}
	}

	return nil
}

func (r *HookRunner) runHook(ctx context.Context, event string, h config.HookDef, envVars map[string]string) error {
	if h.Command == "" {
		return nil
	}

	var timeout time.Duration
	if h.Timeout != "" {
		var err error
		timeout, err = time.ParseDuration(h.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", h.Timeout, err)
		}
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	env := os.Environ()
	for k, v := range h.Env {
		env = append(env, k+"="+v)
	}
	for k, v := range envVars {
		env = append(env, k+"="+v)
	}
	env = append(env, "LANCELOT_EVENT="+event, "LANCELOT_PROJECT_DIR="+r.workDir)

	newCmd := func() *exec.Cmd {
		var cmd *exec.Cmd
		if runtime.GOOS == "windows" {
			cmd = exec.CommandContext(ctx, "cmd", "/c", h.Command)
		} else {
			cmd = exec.CommandContext(ctx, "sh", "-c", h.Command)
		}
		cmd.Dir = r.workDir
		cmd.Env = env
		return cmd
	}

	var err error
	if r.usePTY {
		err = runInPTY(newCmd, r.logOut)
	} else {
		err = runPiped(newCmd(), r.logOut)
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("hook timed out after %s", timeout)
		}
		return err
	}
	return nil
}

func runPiped(cmd *exec.Cmd, out io.Writer) error {
	setProcGroup(cmd)
	cmd.Stdout = out
	cmd.Stderr = out
	return cmd.Run()
}
