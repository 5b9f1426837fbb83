package main

import (
	"fmt"

	lerrors "github.com/dondejvo/lancelot-cli/internal/errors"
)

func cmdCompletion(args []string) int {
	if len(args) < 1 {
		usageCompletion()
		return lerrors.ExitUsageError
	}

	shell := args[0]
	switch shell {
	case "bash":
		fmt.Fprint(stdout, bashCompletion)
	case "zsh":
		fmt.Fprint(stdout, zshCompletion)
	case "fish":
		fmt.Fprint(stdout, fishCompletion)
	default:
		errorf("Unsupported shell: %s\n", shell)
		fmt.Fprintln(stderr, "Supported: bash, zsh, fish")
		return lerrors.ExitUsageError
	}
	return 0
}

const bashCompletion = `# lancelot bash completion
_lancelot() {
    local cur prev
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    commands="--init --update init update check uninstall completion version help"

    case "${prev}" in
        lancelot)
            COMPREPLY=( $(compgen -W "${commands}" -- ${cur}) )
            return 0
            ;;
        --init|init)
            local opts="--dir --title --source --force --dry-run --no-hooks --verbose --help"
            COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
            return 0
            ;;
        --update|update)
            local opts="--dir --source --dry-run --no-hooks --verbose --help"
            COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
            return 0
            ;;
        check)
            local opts="--dir --source --quiet --json --help"
            COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
            return 0
            ;;
        uninstall)
            local opts="--dir --keep-sources --help"
            COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
            return 0
            ;;
        --dir)
            COMPREPLY=( $(compgen -d -- ${cur}) )
            return 0
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- ${cur}) )
            return 0
            ;;
        help)
            COMPREPLY=( $(compgen -W "init update check uninstall completion version" -- ${cur}) )
            return 0
            ;;
    esac
}
complete -F _lancelot lancelot
`

const zshCompletion = `#compdef lancelot

_lancelot() {
    local -a commands
    commands=(
        'init:Initialize a Lancelot.js project'
        'update:Update lib/core.js and lib/core.css'
        'check:Check whether library assets are up to date'
        'uninstall:Remove the files lancelot manages'
        'completion:Generate shell completion'
        'version:Show version'
        'help:Show help'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[2] in
                init|--init)
                    _arguments \
                        '--dir[Project directory]:directory:_files -/' \
                        '--title[Page title]:title:' \
                        '--source[Asset base URL]:url:' \
                        '--force[Overwrite index.html and src/main.js]' \
                        '--dry-run[Show what would be done]' \
                        '--no-hooks[Skip post_init hooks]' \
                        '--verbose[Print diagnostic logs]' \
                        '2:width:' \
                        '3:height:'
                    ;;
                update|--update)
                    _arguments \
                        '--dir[Project directory]:directory:_files -/' \
                        '--source[Asset base URL]:url:' \
                        '--dry-run[Show what would be done]' \
                        '--no-hooks[Skip post_update hooks]' \
                        '--verbose[Print diagnostic logs]'
                    ;;
                check)
                    _arguments \
                        '--dir[Project directory]:directory:_files -/' \
                        '--source[Asset base URL]:url:' \
                        '--quiet[Only print if an update is available]' \
                        '--json[Output as JSON]'
                    ;;
                uninstall)
                    _arguments \
                        '--dir[Project directory]:directory:_files -/' \
                        '--keep-sources[Keep index.html and src/main.js]'
                    ;;
                completion)
                    _arguments '1:shell:(bash zsh fish)'
                    ;;
                help)
                    _describe 'command' commands
                    ;;
            esac
            ;;
    esac
}

_lancelot "$@"
`

const fishCompletion = `# lancelot fish completion
complete -c lancelot -e

# Commands
complete -c lancelot -n __fish_use_subcommand -a init -d 'Initialize a Lancelot.js project'
complete -c lancelot -n __fish_use_subcommand -a update -d 'Update lib/core.js and lib/core.css'
complete -c lancelot -n __fish_use_subcommand -a check -d 'Check whether library assets are up to date'
complete -c lancelot -n __fish_use_subcommand -a uninstall -d 'Remove the files lancelot manages'
complete -c lancelot -n __fish_use_subcommand -a completion -d 'Generate shell completion'
complete -c lancelot -n __fish_use_subcommand -a version -d 'Show version'
complete -c lancelot -n __fish_use_subcommand -a help -d 'Show help'
complete -c lancelot -n __fish_use_subcommand -l init -d 'Initialize a Lancelot.js project'
complete -c lancelot -n __fish_use_subcommand -l update -d 'Update library assets'

# shared options
complete -c lancelot -n '__fish_seen_subcommand_from init update check uninstall' -l dir -d 'Project directory' -xa '(__fish_complete_directories)'
complete -c lancelot -n '__fish_seen_subcommand_from init update check' -l source -d 'Asset base URL' -x

# init options
complete -c lancelot -n '__fish_seen_subcommand_from init' -l title -d 'Page title' -x
complete -c lancelot -n '__fish_seen_subcommand_from init' -l force -d 'Overwrite index.html and src/main.js'
complete -c lancelot -n '__fish_seen_subcommand_from init update' -l dry-run -d 'Show what would be done'
complete -c lancelot -n '__fish_seen_subcommand_from init update' -l no-hooks -d 'Skip lifecycle hooks'

# check options
complete -c lancelot -n '__fish_seen_subcommand_from check' -l quiet -d 'Only print if an update is available'
complete -c lancelot -n '__fish_seen_subcommand_from check' -l json -d 'Output as JSON'

# uninstall options
complete -c lancelot -n '__fish_seen_subcommand_from uninstall' -l keep-sources -d 'Keep index.html and src/main.js'

# completion shells
complete -c lancelot -n '__fish_seen_subcommand_from completion' -a 'bash zsh fish'
`
