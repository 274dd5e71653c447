// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strconv"
)

// Command identifies the requested subcommand.
type Command int

const (
	CommandNone Command = iota
	CommandExplain
	CommandReview
	CommandRefactor
	CommandDebug
	CommandGenerate
	CommandTest
	CommandDocument
	CommandChat
	CommandConfig
	CommandModels
	CommandTask
	CommandVersion
	CommandHelp
)

// Args holds parsed global flags plus the per-command parser.
type Args struct {
	Command Command

	// Global flags.
	Model          string
	Temperature    float64
	TemperatureSet bool
	ContextLength  int
	Verbose        bool
	Theme          string
	NoColor        bool
	APIURL         string

	// Parser gives command handlers access to their own flags and
	// positionals.
	Parser *ArgParser
}

const usageText = `olla - terminal assistant for local Ollama models

Usage:
  olla <command> [arguments] [flags]

Code commands (read code from --stdin, a file path, or a literal argument):
  explain [code|file]     Explain what code does
                          --line-range "N-M", --detail-level brief|normal|comprehensive
  review [code|file]      Review code for issues
                          --focus security|performance|style|bugs|all
  refactor [code|file]    Suggest refactoring improvements
                          --type simplify|optimize|modernize|general
  debug [code|file]       Diagnose bugs
                          --error <message>, --stack-trace <file>
  generate <description>  Generate code from a description
                          --language <lang>, --framework <fw>,
                          --template function|class|api_endpoint
  test [code|file]        Generate test cases
                          --framework <fw>, --coverage
  document [code|file]    Generate documentation
                          --format docstring|markdown|rst|google|numpy,
                          --type api|readme|inline

  Shared flags: --stdin, --output-file/-o <path>,
                --no-syntax-highlighting, --stream/--no-stream

Other commands:
  chat                    Interactive chat
                          --session <id-or-name>, --new-session [name]
  task <description>      Plan and run a multi-step task
                          --dry-run, --yes/-y
  models <subcommand>     list | info <name> | pull <name>
  config <subcommand>     show | set <key> <value> | reset | path
  version                 Print version information
  help                    Show this help

Global flags:
  -m, --model <name>          Model to use for this invocation
  -t, --temperature <0.0-1.0> Sampling temperature
  -c, --context-length <n>    Context window size
      --api-url <url>         Ollama server URL
      --theme <name>          dark | light | minimal
      --no-color              Disable colored output
  -v, --verbose               Diagnostic output on stderr

Exit codes:
  0 success   1 general error      2 invalid arguments
  3 config error   4 connection error   5 model not found
`

// Usage returns the top-level help text.
func Usage() string {
	return usageText
}

var commandNames = map[string]Command{
	"explain":  CommandExplain,
	"review":   CommandReview,
	"refactor": CommandRefactor,
	"debug":    CommandDebug,
	"generate": CommandGenerate,
	"test":     CommandTest,
	"document": CommandDocument,
	"chat":     CommandChat,
	"config":   CommandConfig,
	"models":   CommandModels,
	"task":     CommandTask,
	"version":  CommandVersion,
	"help":     CommandHelp,
}

// Parse converts raw command-line arguments (without the program name) into
// Args. Unknown commands and malformed global flags are usage errors.
func Parse(raw []string) (*Args, error) {
	args := &Args{Command: CommandNone}

	if len(raw) == 0 {
		args.Command = CommandHelp
		args.Parser = NewArgParser(nil)
		return args, nil
	}

	p := NewArgParser(raw)

	if p.BoolFlag("version") {
		args.Command = CommandVersion
		args.Parser = p
		return args, nil
	}

	name := p.Positional(0)
	if name == "" || p.BoolFlag("help") {
		args.Command = CommandHelp
		args.Parser = p
		return args, nil
	}

	cmd, ok := commandNames[name]
	if !ok {
		return nil, Usagef("unknown command: %s (run 'olla help')", name)
	}
	args.Command = cmd
	args.Parser = p

	if err := args.parseGlobalFlags(p); err != nil {
		return nil, err
	}
	return args, nil
}

// parseGlobalFlags extracts and validates flags accepted by every command.
func (a *Args) parseGlobalFlags(p *ArgParser) error {
	a.Model = p.FlagOrDefault("model", "")
	a.APIURL = p.FlagOrDefault("api-url", "")
	a.Theme = p.FlagOrDefault("theme", "")
	a.Verbose = p.BoolFlag("verbose")
	a.NoColor = p.BoolFlag("no-color")

	if v, ok := p.Flag("temperature"); ok {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Usagef("invalid temperature %q: not a number", v)
		}
		if t < 0.0 || t > 1.0 {
			return Usagef("invalid temperature %g: must be between 0.0 and 1.0", t)
		}
		a.Temperature = t
		a.TemperatureSet = true
	}

	if v, ok := p.Flag("context-length"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Usagef("invalid context length %q: must be a positive integer", v)
		}
		a.ContextLength = n
	}

	if a.Theme != "" {
		switch a.Theme {
		case "dark", "light", "minimal":
		default:
			return Usagef("invalid theme %q: must be dark, light, or minimal", a.Theme)
		}
	}
	return nil
}

// Subcommand returns the positional after the command name, for commands
// like "config set" and "models list".
func (a *Args) Subcommand() string {
	return a.Parser.Positional(1)
}

// verbosef writes diagnostics to stderr when --verbose is on.
func (a *Args) verbosef(format string, v ...any) {
	if a.Verbose {
		fmt.Fprintf(stderr(), "[olla] "+format+"\n", v...)
	}
}
