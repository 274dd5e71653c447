// olla - a terminal assistant for code, backed by local Ollama models.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/olla-cli/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	args, err := cli.Parse(os.Args[1:])
	if err != nil {
		cli.DisplayError(err)
		return cli.GetExitCode(err)
	}

	// Ctrl-C cancels the in-flight request for one-shot commands. Chat
	// manages its own per-turn subscription so an interrupt aborts only
	// the streaming reply, never the REPL.
	ctx := context.Background()
	if args.Command != cli.CommandChat {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
	}

	switch args.Command {
	case cli.CommandHelp:
		fmt.Print(cli.Usage())
		return cli.ExitSuccess

	case cli.CommandVersion:
		fmt.Printf("olla %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		return cli.ExitSuccess
	}

	handlers := map[cli.Command]func(context.Context, *cli.Args) error{
		cli.CommandExplain:  cli.HandleExplain,
		cli.CommandReview:   cli.HandleReview,
		cli.CommandRefactor: cli.HandleRefactor,
		cli.CommandDebug:    cli.HandleDebug,
		cli.CommandGenerate: cli.HandleGenerate,
		cli.CommandTest:     cli.HandleTest,
		cli.CommandDocument: cli.HandleDocument,
		cli.CommandChat:     cli.HandleChat,
		cli.CommandConfig:   cli.HandleConfig,
		cli.CommandModels:   cli.HandleModels,
		cli.CommandTask:     cli.HandleTask,
	}

	handler, ok := handlers[args.Command]
	if !ok {
		fmt.Print(cli.Usage())
		return cli.ExitUsageError
	}

	if err := handler(ctx, args); err != nil {
		cli.DisplayError(err)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}
