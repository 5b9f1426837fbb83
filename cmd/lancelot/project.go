package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	lancelot "github.com/dondejvo/lancelot-cli"
	"github.com/dondejvo/lancelot-cli/internal/config"
	lerrors "github.com/dondejvo/lancelot-cli/internal/errors"
	"github.com/dondejvo/lancelot-cli/internal/install"
	"github.com/dondejvo/lancelot-cli/internal/updatecheck"
)

func cmdInit(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usageInit

	dir := fs.String("dir", ".", "")
	title := fs.String("title", "", "")
	source := fs.String("source", "", "")
	force := fs.Bool("force", false, "")
	dryRun := fs.Bool("dry-run", false, "")
	noHooks := fs.Bool("no-hooks", false, "")
	verbose := fs.Bool("verbose", false, "")
	showHelp := fs.Bool("help", false, "")
	showHelpShort := fs.Bool("h", false, "")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return lerrors.ExitUsageError
	}
	if *showHelp || *showHelpShort {
		usageInit()
		return 0
	}
	if len(positional) != 2 {
		usageInit()
		return lerrors.ExitUsageError
	}
	setupLogging(*verbose)

	width, err := parseDimension("width", positional[0])
	if err != nil {
		errorf("%v\n\n", err)
		usageInit()
		return lerrors.GetExitCode(err)
	}
	height, err := parseDimension("height", positional[1])
	if err != nil {
		errorf("%v\n\n", err)
		usageInit()
		return lerrors.GetExitCode(err)
	}

	displayTarget := displayDir(*dir)

	fmt.Fprintln(stdout, "")
	if *dryRun {
		fmt.Fprintf(stdout, "%s[DRY RUN]%s Would initialize Lancelot.js project:\n", colorYellow, colorReset)
	} else {
		fmt.Fprintln(stdout, "Initializing Lancelot.js project...")
	}
	fmt.Fprintf(stdout, "  Target:  %s\n", cyan(displayTarget))
	fmt.Fprintf(stdout, "  Size:    %s\n", cyan(fmt.Sprintf("%d x %d", width, height)))
	if *force {
		fmt.Fprintf(stdout, "  Mode:    %s\n", cyan("force (overwrite index.html and src/main.js)"))
	}
	fmt.Fprintln(stdout, "")

	result, err := install.Init(ctx, lancelot.KitFS, *dir, install.Options{
		Width:    width,
		Height:   height,
		Title:    *title,
		Source:   *source,
		Force:    *force,
		DryRun:   *dryRun,
		NoHooks:  *noHooks,
		Progress: stderr,
		HookOut:  stdout,
	})
	if err != nil {
		reportFailure(err)
		return lerrors.GetExitCode(err)
	}

	for _, w := range result.Warnings {
		warn("%s\n", w)
	}

	if *dryRun {
		fmt.Fprintln(stdout, "Would create/update:")
		for _, p := range result.Planned {
			fmt.Fprintf(stdout, "  %s\n", p)
		}
		for _, p := range result.Skipped {
			fmt.Fprintf(stdout, "  %s (exists, kept)\n", p)
		}
		fmt.Fprintln(stdout, "")
		success("Dry run complete. No changes made.\n")
		return 0
	}

	printFiles(result)
	fmt.Fprintln(stdout, "")
	success("Project initialized successfully!\n")

	if len(result.Skipped) > 0 {
		fmt.Fprintln(stdout, "")
		fmt.Fprintln(stdout, "  To regenerate kept files, use:")
		fmt.Fprintf(stdout, "    lancelot --init %d %d --force\n", width, height)
	}

	fmt.Fprintln(stdout, "")
	fmt.Fprintln(stdout, bold("Next steps:"))
	fmt.Fprintf(stdout, "  1. %s\n", cyan("cd "+displayTarget))
	fmt.Fprintf(stdout, "  2. %s\n", cyan("Edit src/main.js"))
	fmt.Fprintf(stdout, "  3. %s\n", cyan("Serve the directory over HTTP (ES modules do not load from file://)"))
	fmt.Fprintln(stdout, "")
	return 0
}

func cmdUpdate(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usageUpdate

	dir := fs.String("dir", ".", "")
	source := fs.String("source", "", "")
	dryRun := fs.Bool("dry-run", false, "")
	noHooks := fs.Bool("no-hooks", false, "")
	verbose := fs.Bool("verbose", false, "")
	showHelp := fs.Bool("help", false, "")
	showHelpShort := fs.Bool("h", false, "")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return lerrors.ExitUsageError
	}
	if *showHelp || *showHelpShort {
		usageUpdate()
		return 0
	}
	if len(positional) > 0 {
		errorf("update takes no arguments, got %q\n\n", positional)
		usageUpdate()
		return lerrors.ExitUsageError
	}
	setupLogging(*verbose)

	fmt.Fprintln(stdout, "")
	if *dryRun {
		fmt.Fprintf(stdout, "%s[DRY RUN]%s Would update library assets:\n", colorYellow, colorReset)
	} else {
		fmt.Fprintln(stdout, "Updating library assets...")
	}
	fmt.Fprintf(stdout, "  Target:  %s\n", cyan(displayDir(*dir)))
	fmt.Fprintln(stdout, "")

	result, err := install.Update(ctx, *dir, install.Options{
		Source:   *source,
		DryRun:   *dryRun,
		NoHooks:  *noHooks,
		Progress: stderr,
		HookOut:  stdout,
	})
	if err != nil {
		reportFailure(err)
		return lerrors.GetExitCode(err)
	}

	if *dryRun {
		fmt.Fprintln(stdout, "Would update:")
		for _, p := range result.Planned {
			fmt.Fprintf(stdout, "  %s\n", p)
		}
		fmt.Fprintln(stdout, "")
		success("Dry run complete. No changes made.\n")
		return 0
	}

	printFiles(result)
	fmt.Fprintln(stdout, "")
	success("Library assets updated.\n")
	if result.ManifestPath == "" {
		fmt.Fprintf(stdout, "  (no %s found; run 'lancelot --init <width> <height>' to create one)\n", config.FileName)
	}
	return 0
}

func cmdCheck(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usageCheck

	dir := fs.String("dir", ".", "")
	source := fs.String("source", "", "")
	quiet := fs.Bool("quiet", false, "")
	jsonOut := fs.Bool("json", false, "")
	verbose := fs.Bool("verbose", false, "")
	showHelp := fs.Bool("help", false, "")
	showHelpShort := fs.Bool("h", false, "")

	if _, err := parseInterspersed(fs, args); err != nil {
		return lerrors.ExitUsageError
	}
	if *showHelp || *showHelpShort {
		usageCheck()
		return 0
	}
	setupLogging(*verbose)

	result := updatecheck.Check(ctx, *dir, updatecheck.Options{Source: *source})
	return renderCheckResult(result, *quiet, *jsonOut)
}

func renderCheckResult(result updatecheck.Result, quiet bool, jsonOut bool) int {
	if jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			errorf("%v\n", err)
			return lerrors.ExitGeneralError
		}
		if result.Error != "" {
			return lerrors.ExitGeneralError
		}
		return 0
	}

	if result.Error != "" {
		if !quiet {
			warn("Check failed: %s\n", result.Error)
		}
		return lerrors.ExitGeneralError
	}

	if result.UpdateAvailable {
		fmt.Fprintf(stdout, "%sUpdate available%s from %s\n", colorYellow, colorReset, result.Source)
		for _, a := range result.Assets {
			switch {
			case a.Missing:
				fmt.Fprintf(stdout, "  %s: missing\n", a.Path)
			case a.Changed:
				fmt.Fprintf(stdout, "  %s: changed\n", a.Path)
			}
		}
		fmt.Fprintln(stdout, "Run:", cyan("lancelot --update"))
		return 0
	}

	if !quiet {
		success("Library assets are up to date.\n")
	}
	return 0
}

func cmdUninstall(args []string) int {
	fs := flag.NewFlagSet("uninstall", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usageUninstall

	dir := fs.String("dir", ".", "")
	keepSources := fs.Bool("keep-sources", false, "")
	showHelp := fs.Bool("help", false, "")
	showHelpShort := fs.Bool("h", false, "")

	if _, err := parseInterspersed(fs, args); err != nil {
		return lerrors.ExitUsageError
	}
	if *showHelp || *showHelpShort {
		usageUninstall()
		return 0
	}

	removed, err := install.Uninstall(*dir, *keepSources)
	if err != nil {
		errorf("%v\n", err)
		return lerrors.GetExitCode(err)
	}
	if len(removed) == 0 {
		warn("Nothing to remove in %s\n", displayDir(*dir))
		return 0
	}
	for _, p := range removed {
		fmt.Fprintf(stdout, "  removed %s\n", p)
	}
	success("Lancelot files removed from %s\n", displayDir(*dir))
	return 0
}

func printFiles(result *install.Result) {
	for _, p := range result.Written {
		success("%s\n", p)
	}
	for _, p := range result.Skipped {
		warn("Skipped: %s (already exists)\n", p)
	}
}

func reportFailure(err error) {
	fmt.Fprintln(stderr, "")
	errorf("%v\n", err)
	fmt.Fprintln(stderr, "")
	fmt.Fprintln(stderr, "Troubleshooting:")
	switch {
	case lerrors.IsNetworkError(err):
		fmt.Fprintln(stderr, "  - Check your internet connection")
		fmt.Fprintf(stderr, "  - Override the asset source with --source or %s\n", config.EnvAssetURL)
		fmt.Fprintln(stderr, "  - Existing lib/ files were left unchanged")
	case lerrors.IsConfigError(err):
		fmt.Fprintf(stderr, "  - Fix or remove %s\n", config.FileName)
	default:
		fmt.Fprintln(stderr, "  - Ensure the target directory exists")
		fmt.Fprintln(stderr, "  - Check write permissions")
	}
}

func displayDir(dir string) string {
	if dir == "" || dir == "." || dir == "./" {
		if cwd, err := os.Getwd(); err == nil {
			return cwd
		}
	}
	return dir
}
