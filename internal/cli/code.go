// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// code.go - The code-oriented subcommands: explain, review, refactor,
// debug, generate, test, document. They share one runner that resolves
// configuration, checks the server and model, sends the prompt, and
// renders the response.

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/olla-cli/internal/config"
	"github.com/jeranaias/olla-cli/internal/ollama"
	"github.com/jeranaias/olla-cli/internal/prompt"
)

// =============================================================================
// RUNTIME
// =============================================================================

// runtime bundles the resolved configuration and a ready client for one
// command invocation.
type runtime struct {
	cfg    *config.Config
	args   *Args
	client *ollama.Client
}

// newRuntime loads configuration, applies global flag overrides, and
// builds the Ollama client. Configuration failures map to exit code 3.
func newRuntime(args *Args) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, &ConfigError{Message: "loading configuration", Cause: err}
	}

	// Flags beat config, which already beat environment in Load.
	if args.Model != "" {
		cfg.Model.Name = args.Model
	}
	if args.TemperatureSet {
		cfg.Model.Temperature = args.Temperature
	}
	if args.ContextLength > 0 {
		cfg.Model.ContextLength = args.ContextLength
	}
	if args.APIURL != "" {
		cfg.Server.URL = args.APIURL
	}
	config.SetGlobal(cfg)
	SetupTheme(args.Theme)
	SetupTerminal(args)

	client := ollama.NewClient(ollama.ClientConfig{
		BaseURL:      cfg.Server.URL,
		Timeout:      time.Duration(cfg.Server.TimeoutSecs) * time.Second,
		DefaultModel: cfg.Model.Name,
	})

	return &runtime{cfg: cfg, args: args, client: client}, nil
}

// options converts the model configuration into request options.
func (rt *runtime) options() *ollama.Options {
	return &ollama.Options{
		Temperature: rt.cfg.Model.Temperature,
		NumCtx:      rt.cfg.Model.ContextLength,
	}
}

// ensureReady verifies the server is reachable and the model installed.
// Doing this up front turns a long hang into a fast, actionable error.
func (rt *runtime) ensureReady(ctx context.Context) error {
	if err := rt.client.CheckRunning(ctx); err != nil {
		return err
	}
	model := rt.cfg.Model.Name
	ok, err := rt.client.ModelExists(ctx, model)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("model %q is not installed: %w", model, ollama.ErrModelNotFound)
	}
	return nil
}

// streamEnabled resolves the per-command streaming decision: --stream
// and --no-stream beat config, and non-TTY output never streams so
// piped consumers get one complete write.
func (rt *runtime) streamEnabled(p *ArgParser) bool {
	if p.BoolFlag("no-stream") {
		return false
	}
	if p.BoolFlag("stream") {
		return true
	}
	return rt.cfg.Output.Stream && IsStdoutTTY()
}

// =============================================================================
// SHARED RUNNER
// =============================================================================

// runPrompt sends messages to the model and writes the response. When
// streaming, chunks print as they arrive and markdown rendering is
// skipped. Returns the full response text for --output-file handling.
func (rt *runtime) runPrompt(ctx context.Context, msgs []ollama.Message) (string, error) {
	req := ollama.ChatRequest{
		Model:    rt.cfg.Model.Name,
		Messages: msgs,
		Options:  rt.options(),
	}

	if rt.streamEnabled(rt.args.Parser) {
		req.Stream = true
		acc := ollama.NewStreamAccumulator()
		err := rt.client.ChatStream(ctx, req, func(chunk ollama.StreamChunk) error {
			acc.Add(chunk)
			fmt.Fprint(stdout(), chunk.Content)
			return nil
		})
		if err != nil {
			return "", err
		}
		fmt.Fprintln(stdout())
		rt.reportStreamStats(acc.Stats())
		return acc.Content(), nil
	}

	start := time.Now()
	resp, err := rt.client.Chat(ctx, req)
	if err != nil {
		return "", err
	}
	content := resp.Message.Content

	if rt.cfg.Output.SyntaxHighlight && !rt.args.Parser.BoolFlag("no-syntax-highlighting") && IsStdoutTTY() {
		fmt.Fprintln(stdout(), newRenderer().Markdown(content))
	} else {
		fmt.Fprintln(stdout(), content)
	}

	rt.args.verbosef("model=%s tokens=%d elapsed=%s tok/s=%.1f",
		resp.Model, resp.EvalCount, time.Since(start).Round(time.Millisecond), resp.TokensPerSecond())
	return content, nil
}

func (rt *runtime) reportStreamStats(stats ollama.StreamStats) {
	rt.args.verbosef("tokens=%d ttft=%s elapsed=%s tok/s=%.1f",
		stats.CompletionTokens, stats.TTFT.Round(time.Millisecond),
		stats.TotalDuration.Round(time.Millisecond), stats.TokensPerSecond)
}

// runCodeCommand is the common path for the seven code commands: build
// the messages, call the model, then honor --output-file.
func (rt *runtime) runCodeCommand(ctx context.Context, msgs []ollama.Message) error {
	if err := rt.ensureReady(ctx); err != nil {
		return err
	}
	response, err := rt.runPrompt(ctx, msgs)
	if err != nil {
		return err
	}
	if out := rt.args.Parser.FlagOrDefault("output-file", ""); out != "" {
		if err := writeOutputFile(out, response); err != nil {
			return err
		}
		fmt.Fprintln(stderr(), "Saved to "+out)
	}
	return nil
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleExplain implements "olla explain".
func HandleExplain(ctx context.Context, args *Args) error {
	rt, err := newRuntime(args)
	if err != nil {
		return err
	}
	in, err := resolveCodeInput(args.Parser)
	if err != nil {
		return err
	}
	detail := args.Parser.FlagOrDefault("detail-level", "normal")
	if !prompt.ValidOption(detail, prompt.DetailLevels) {
		return Usagef("invalid detail level %q: must be one of %s", detail, strings.Join(prompt.DetailLevels, ", "))
	}
	lineRange := args.Parser.FlagOrDefault("line-range", "")
	args.verbosef("explaining %s (detail=%s)", in.Source, detail)
	return rt.runCodeCommand(ctx, prompt.Explain(in.Code, lineRange, detail))
}

// HandleReview implements "olla review".
func HandleReview(ctx context.Context, args *Args) error {
	rt, err := newRuntime(args)
	if err != nil {
		return err
	}
	in, err := resolveCodeInput(args.Parser)
	if err != nil {
		return err
	}
	focus := args.Parser.FlagOrDefault("focus", "all")
	if !prompt.ValidOption(focus, prompt.ReviewFocuses) {
		return Usagef("invalid focus %q: must be one of %s", focus, strings.Join(prompt.ReviewFocuses, ", "))
	}
	args.verbosef("reviewing %s (focus=%s)", in.Source, focus)
	return rt.runCodeCommand(ctx, prompt.Review(in.Code, focus))
}

// HandleRefactor implements "olla refactor".
func HandleRefactor(ctx context.Context, args *Args) error {
	rt, err := newRuntime(args)
	if err != nil {
		return err
	}
	in, err := resolveCodeInput(args.Parser)
	if err != nil {
		return err
	}
	kind := args.Parser.FlagOrDefault("type", "general")
	if !prompt.ValidOption(kind, prompt.RefactorTypes) {
		return Usagef("invalid refactor type %q: must be one of %s", kind, strings.Join(prompt.RefactorTypes, ", "))
	}
	args.verbosef("refactoring %s (type=%s)", in.Source, kind)
	return rt.runCodeCommand(ctx, prompt.Refactor(in.Code, kind))
}

// HandleDebug implements "olla debug".
func HandleDebug(ctx context.Context, args *Args) error {
	rt, err := newRuntime(args)
	if err != nil {
		return err
	}
	in, err := resolveCodeInput(args.Parser)
	if err != nil {
		return err
	}
	errMsg := args.Parser.FlagOrDefault("error", "")
	stackTrace := ""
	if path := args.Parser.FlagOrDefault("stack-trace", ""); path != "" {
		stackTrace, err = readFileArg(path)
		if err != nil {
			return err
		}
	}
	args.verbosef("debugging %s", in.Source)
	return rt.runCodeCommand(ctx, prompt.Debug(in.Code, errMsg, stackTrace))
}

// HandleGenerate implements "olla generate".
func HandleGenerate(ctx context.Context, args *Args) error {
	rt, err := newRuntime(args)
	if err != nil {
		return err
	}
	description := strings.TrimSpace(args.Parser.JoinPositionals(1))
	if description == "" {
		return Usagef("generate requires a description of the code to create")
	}
	template := args.Parser.FlagOrDefault("template", "")
	if template != "" && !prompt.ValidOption(template, prompt.GenTemplates) {
		return Usagef("invalid template %q: must be one of %s", template, strings.Join(prompt.GenTemplates, ", "))
	}
	language := args.Parser.FlagOrDefault("language", "")
	framework := args.Parser.FlagOrDefault("framework", "")
	args.verbosef("generating %s code", language)
	return rt.runCodeCommand(ctx, prompt.Generate(description, language, framework, template))
}

// HandleTest implements "olla test".
func HandleTest(ctx context.Context, args *Args) error {
	rt, err := newRuntime(args)
	if err != nil {
		return err
	}
	in, err := resolveCodeInput(args.Parser)
	if err != nil {
		return err
	}
	framework := args.Parser.FlagOrDefault("framework", "")
	coverage := args.Parser.BoolFlag("coverage")
	args.verbosef("generating tests for %s", in.Source)
	return rt.runCodeCommand(ctx, prompt.Test(in.Code, framework, coverage))
}

// HandleDocument implements "olla document".
func HandleDocument(ctx context.Context, args *Args) error {
	rt, err := newRuntime(args)
	if err != nil {
		return err
	}
	in, err := resolveCodeInput(args.Parser)
	if err != nil {
		return err
	}
	format := args.Parser.FlagOrDefault("format", "docstring")
	if !prompt.ValidOption(format, prompt.DocumentFormats) {
		return Usagef("invalid format %q: must be one of %s", format, strings.Join(prompt.DocumentFormats, ", "))
	}
	docType := args.Parser.FlagOrDefault("type", "api")
	if !prompt.ValidOption(docType, prompt.DocumentTypes) {
		return Usagef("invalid doc type %q: must be one of %s", docType, strings.Join(prompt.DocumentTypes, ", "))
	}
	args.verbosef("documenting %s (format=%s type=%s)", in.Source, format, docType)
	return rt.runCodeCommand(ctx, prompt.Document(in.Code, format, docType))
}
