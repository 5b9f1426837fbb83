package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/dondejvo/lancelot-cli/internal/buildinfo"
	"github.com/dondejvo/lancelot-cli/internal/config"
	lerrors "github.com/dondejvo/lancelot-cli/internal/errors"
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// Output streams, swapped out by tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func init() {
	// Disable colors on Windows, with NO_COLOR, or when not a terminal
	if runtime.GOOS == "windows" || os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		disableColors()
	}
}

func disableColors() {
	colorReset = ""
	colorRed = ""
	colorGreen = ""
	colorYellow = ""
	colorCyan = ""
	colorBold = ""
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	setupLogging(false)

	if len(args) < 1 {
		usage()
		return lerrors.ExitUsageError
	}

	switch args[0] {
	case "--help", "-help", "-h", "help":
		if args[0] == "help" && len(args) >= 2 {
			return cmdHelp(args[1])
		}
		usage()
		return 0
	case "--version", "-v", "version":
		fmt.Fprintln(stdout, buildinfo.Version)
		return 0
	case "--init", "init":
		return cmdInit(ctx, args[1:])
	case "--update", "update":
		return cmdUpdate(ctx, args[1:])
	case "--check", "check":
		return cmdCheck(ctx, args[1:])
	case "uninstall":
		return cmdUninstall(args[1:])
	case "completion":
		return cmdCompletion(args[1:])
	}

	// Bare "lancelot <width> <height>" initializes, as the first
	// scaffolding script did.
	if isInteger(args[0]) {
		return cmdInit(ctx, args)
	}

	errorf("Unknown command: %s\n\n", args[0])
	usage()
	return lerrors.ExitUsageError
}

// setupLogging installs the slog default handler. Diagnostics go to stderr;
// user-facing output uses the color helpers below.
func setupLogging(verbose bool) {
	level := slog.LevelWarn
	switch strings.ToLower(strings.TrimSpace(os.Getenv(config.EnvLogLevel))) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
}

// parseInterspersed parses flags that may appear before, between, or after
// positional arguments and returns the positionals.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func isInteger(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// parseDimension converts a width/height argument to pixels.
func parseDimension(name, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return 0, lerrors.NewUsageError(fmt.Sprintf("%s must be a positive integer number of pixels, got %q", name, value))
	}
	return n, nil
}

// Helper functions for colored output
func success(format string, args ...interface{}) {
	fmt.Fprintf(stdout, "%s✓%s %s", colorGreen, colorReset, fmt.Sprintf(format, args...))
}

func warn(format string, args ...interface{}) {
	fmt.Fprintf(stderr, "%s⚠%s %s", colorYellow, colorReset, fmt.Sprintf(format, args...))
}

func errorf(format string, args ...interface{}) {
	fmt.Fprintf(stderr, "%sError:%s %s", colorRed, colorReset, fmt.Sprintf(format, args...))
}

func info(format string, args ...interface{}) {
	fmt.Fprintf(stdout, "%s", fmt.Sprintf(format, args...))
}

func bold(s string) string {
	return colorBold + s + colorReset
}

func cyan(s string) string {
	return colorCyan + s + colorReset
}
