// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/olla-cli/internal/ollama"
	"github.com/jeranaias/olla-cli/internal/util"
)

// HandleModels implements "olla models" with list, info, and pull
// subcommands.
func HandleModels(ctx context.Context, args *Args) error {
	rt, err := newRuntime(args)
	if err != nil {
		return err
	}

	sub := args.Subcommand()
	switch sub {
	case "", "list":
		return rt.modelsList(ctx)
	case "info":
		name := args.Parser.Positional(2)
		if name == "" {
			return Usagef("usage: olla models info <name>")
		}
		return rt.modelsInfo(ctx, name)
	case "pull":
		name := args.Parser.Positional(2)
		if name == "" {
			return Usagef("usage: olla models pull <name>")
		}
		return rt.modelsPull(ctx, name)
	default:
		return Usagef("unknown models subcommand %q (list, info, pull)", sub)
	}
}

func (rt *runtime) modelsList(ctx context.Context) error {
	if err := rt.client.CheckRunning(ctx); err != nil {
		return err
	}
	models, err := rt.client.ListModels(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Fprintln(stdout(), "No models installed. Try: olla models pull llama3.2")
		return nil
	}

	theme := activeTheme()
	var b strings.Builder
	b.WriteString(theme.Section.Render(util.PadRight("NAME", 32) + util.PadRight("SIZE", 10) + "MODIFIED"))
	b.WriteString("\n")
	for _, m := range models {
		modified := m.ModifiedAt
		if t, err := time.Parse(time.RFC3339Nano, m.ModifiedAt); err == nil {
			modified = t.Format("2006-01-02 15:04")
		}
		b.WriteString(util.PadRight(util.TruncateWidth(m.Name, 30), 32))
		b.WriteString(util.PadRight(ollama.FormatSize(m.Size), 10))
		b.WriteString(modified)
		b.WriteString("\n")
	}
	fmt.Fprint(stdout(), b.String())
	return nil
}

func (rt *runtime) modelsInfo(ctx context.Context, name string) error {
	if err := rt.client.CheckRunning(ctx); err != nil {
		return err
	}
	info, err := rt.client.ShowModel(ctx, name)
	if err != nil {
		return err
	}

	theme := activeTheme()
	fmt.Fprintln(stdout(), theme.Title.Render(name))
	printField := func(label, value string) {
		if value != "" {
			fmt.Fprintf(stdout(), "%s %s\n", theme.Label.Render(util.PadRight(label+":", 16)), value)
		}
	}
	printField("Family", info.Details.Family)
	printField("Parameters", info.Details.ParameterSize)
	printField("Quantization", info.Details.QuantizationLevel)
	printField("Format", info.Details.Format)
	if info.Parameters != "" {
		fmt.Fprintln(stdout(), theme.Section.Render("Parameters"))
		fmt.Fprintln(stdout(), strings.TrimSpace(info.Parameters))
	}
	if info.Template != "" {
		fmt.Fprintln(stdout(), theme.Section.Render("Template"))
		fmt.Fprintln(stdout(), strings.TrimSpace(info.Template))
	}
	return nil
}

func (rt *runtime) modelsPull(ctx context.Context, name string) error {
	if err := rt.client.CheckRunning(ctx); err != nil {
		return err
	}
	fmt.Fprintf(stdout(), "Pulling %s...\n", name)

	lastStatus := ""
	err := rt.client.PullModel(ctx, name, func(p ollama.PullProgress) {
		if p.Total > 0 {
			// Same-line progress for layer downloads.
			fmt.Fprintf(stdout(), "\r%s %5.1f%% (%s / %s)   ",
				p.Status, p.Percent(), ollama.FormatSize(p.Completed), ollama.FormatSize(p.Total))
			lastStatus = p.Status
			return
		}
		if p.Status != lastStatus {
			if lastStatus != "" {
				fmt.Fprintln(stdout())
			}
			fmt.Fprint(stdout(), p.Status)
			lastStatus = p.Status
		}
	})
	fmt.Fprintln(stdout())
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout(), "Pulled %s\n", name)
	return nil
}
