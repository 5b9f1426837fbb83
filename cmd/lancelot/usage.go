package main

import (
	"fmt"

	"github.com/dondejvo/lancelot-cli/internal/config"
	lerrors "github.com/dondejvo/lancelot-cli/internal/errors"
)

func usage() {
	fmt.Fprint(stderr, `lancelot - initialize and update Lancelot.js projects

Usage:
  lancelot --init <width> <height> [options]
  lancelot <width> <height> [options]
  lancelot --update [options]
  lancelot <command> [options]

Commands:
  init          Create lib/, index.html and src/main.js (same as --init)
  update        Re-download lib/core.js and lib/core.css (same as --update)
  check         Compare local library assets with the published ones
  uninstall     Remove the files lancelot manages
  completion    Generate shell completion script
  version       Show version
  help          Show help for a command

Arguments:
  width         Width of the game container in pixels (> 300 recommended)
  height        Height of the game container in pixels (> 300 recommended)

Examples:
  lancelot --init 800 600
  lancelot 800 600 --dir my-game
  lancelot --update
  lancelot check --json

Run 'lancelot help <command>' for more information.
`)
}

func cmdHelp(command string) int {
	switch command {
	case "init", "--init":
		usageInit()
	case "update", "--update":
		usageUpdate()
	case "check", "--check":
		usageCheck()
	case "uninstall":
		usageUninstall()
	case "completion":
		usageCompletion()
	case "version":
		fmt.Fprintln(stdout, "Show the lancelot version.")
	default:
		errorf("Unknown command: %s\n", command)
		return lerrors.ExitUsageError
	}
	return 0
}

func usageInit() {
	fmt.Fprintf(stderr, `Initialize a Lancelot.js project

Usage:
  lancelot --init <width> <height> [options]
  lancelot <width> <height> [options]

Arguments:
  width           Width of the game container in pixels (> %[1]d recommended)
  height          Height of the game container in pixels (> %[1]d recommended)

Options:
  --dir           Project directory (default: current directory)
  --title         <title> of index.html (default: %[2]s)
  --source        Base URL of the library assets (env: %[3]s)
  --force         Overwrite existing index.html and src/main.js
  --dry-run       Show what would be done without making changes
  --no-hooks      Skip post_init hooks from %[4]s
  --verbose       Print diagnostic logs

Examples:
  lancelot --init 800 600
  lancelot --init 1280 720 --dir my-game --title "My Game"
  lancelot --init 800 600 --force
`, config.RecommendedMinSize, config.DefaultTitle, config.EnvAssetURL, config.FileName)
}

func usageUpdate() {
	fmt.Fprintf(stderr, `Update the library assets of a Lancelot.js project

Re-downloads lib/core.js and lib/core.css. index.html and src/main.js are
never touched. If a download fails, the existing files are left unchanged.

Usage:
  lancelot --update [options]

Options:
  --dir           Project directory (default: current directory)
  --source        Base URL of the library assets (env: %s)
  --dry-run       Show what would be done without making changes
  --no-hooks      Skip post_update hooks from %s
  --verbose       Print diagnostic logs

Examples:
  lancelot --update
  lancelot --update --dir my-game
`, config.EnvAssetURL, config.FileName)
}

func usageCheck() {
	fmt.Fprintf(stderr, `Check whether the library assets are up to date

Usage:
  lancelot check [options]

Options:
  --dir       Project directory (default: current directory)
  --source    Base URL of the library assets (env: %s)
  --quiet     Only print if an update is available
  --json      Output as JSON

Examples:
  lancelot check
  lancelot check --json
`, config.EnvAssetURL)
}

func usageUninstall() {
	fmt.Fprint(stderr, `Remove the files lancelot manages

Usage:
  lancelot uninstall [options]

Options:
  --dir            Project directory (default: current directory)
  --keep-sources   Keep index.html and src/main.js

Examples:
  lancelot uninstall
  lancelot uninstall --keep-sources
`)
}

func usageCompletion() {
	fmt.Fprint(stderr, `Generate shell completion script

Usage:
  lancelot completion <shell>

Supported shells:
  bash    Bash completion
  zsh     Zsh completion
  fish    Fish completion

Examples:
  # Bash
  lancelot completion bash > /etc/bash_completion.d/lancelot

  # Zsh
  lancelot completion zsh > "${fpath[1]}/_lancelot"

  # Fish
  lancelot completion fish > ~/.config/fish/completions/lancelot.fish
`)
}
