// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// task.go - The task command: classify a natural-language request,
// build a step plan, show it, and execute it after confirmation.

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/olla-cli/internal/intent"
	"github.com/jeranaias/olla-cli/internal/plan"
)

// HandleTask implements "olla task".
func HandleTask(ctx context.Context, args *Args) error {
	rt, err := newRuntime(args)
	if err != nil {
		return err
	}

	request := strings.TrimSpace(args.Parser.JoinPositionals(1))
	if request == "" {
		return Usagef("task requires a description, e.g.: olla task \"generate a fizzbuzz and save it to fizz.py\"")
	}

	result := intent.Classify(request)
	args.verbosef("intent=%s confidence=%.2f file=%q", result.Type, result.Confidence, result.Params.FilePath)

	p := plan.Generate(request, result)
	theme := activeTheme()
	fmt.Fprintln(stdout(), theme.Section.Render("Plan"))
	fmt.Fprint(stdout(), p.Summary())

	if args.Parser.BoolFlag("dry-run") {
		return nil
	}

	// Plans that touch the filesystem need an explicit go-ahead.
	if !args.Parser.BoolFlag("yes") && planWritesFiles(p) {
		if !confirm("This plan writes files. Continue?") {
			fmt.Fprintln(stdout(), "Aborted.")
			return nil
		}
	}

	if err := rt.ensureReady(ctx); err != nil {
		return err
	}

	exec := plan.NewExecutor(rt.client, rt.cfg.Model.Name, rt.options())
	exec.OnProgress(func(step *plan.Step) {
		switch step.Status {
		case plan.StatusRunning:
			fmt.Fprintf(stdout(), "%s %s\n", theme.Dim.Render("->"), step.Description)
		case plan.StatusCompleted:
			fmt.Fprintf(stdout(), "%s %s\n", theme.Success.Render("ok"), step.Description)
		case plan.StatusFailed:
			fmt.Fprintf(stdout(), "%s %s: %s\n", theme.Error.Render("fail"), step.Description, step.Err)
		case plan.StatusSkipped:
			fmt.Fprintf(stdout(), "%s %s\n", theme.Dim.Render("skip"), step.Description)
		}
	})

	if err := exec.Execute(ctx, p); err != nil {
		return err
	}

	// Analysis output is the point of read-only plans, so print it.
	for _, step := range p.Steps {
		if step.Status != plan.StatusCompleted || step.Output == "" {
			continue
		}
		switch step.Action {
		case plan.ActionGenerate, plan.ActionAnalyze:
			if !stepFeedsLaterStep(p, step) {
				fmt.Fprintln(stdout(), newRenderer().Markdown(step.Output))
			}
		}
	}
	return nil
}

func planWritesFiles(p *plan.Plan) bool {
	for _, s := range p.Steps {
		if s.Action == plan.ActionWriteFile {
			return true
		}
	}
	return false
}

// stepFeedsLaterStep reports whether the step's output is consumed by a
// later step via store_as, in which case printing it would be noise.
func stepFeedsLaterStep(p *plan.Plan, step *plan.Step) bool {
	name := step.Params["store_as"]
	if name == "" {
		return false
	}
	placeholder := "${" + name + "}"
	for _, s := range p.Steps {
		if s.ID == step.ID {
			continue
		}
		for _, v := range s.Params {
			if strings.Contains(v, placeholder) {
				return true
			}
		}
	}
	return false
}
