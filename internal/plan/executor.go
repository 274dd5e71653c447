// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"context"
	"fmt"
	"os"

	"github.com/jeranaias/olla-cli/internal/ollama"
	"github.com/jeranaias/olla-cli/internal/prompt"
	"github.com/jeranaias/olla-cli/internal/render"
	"github.com/jeranaias/olla-cli/internal/util"
)

// MaxReadFileSize bounds files pulled into plan context so a stray binary
// does not blow up the model request.
const MaxReadFileSize = 64 * 1024

// Executor runs plan steps sequentially against the model and filesystem.
type Executor struct {
	client   *ollama.Client
	model    string
	options  *ollama.Options
	progress func(step *Step) // called before each step runs; may be nil
}

// NewExecutor creates an executor bound to a client and model.
func NewExecutor(client *ollama.Client, model string, options *ollama.Options) *Executor {
	return &Executor{client: client, model: model, options: options}
}

// OnProgress registers a callback invoked as each step starts.
func (e *Executor) OnProgress(fn func(step *Step)) {
	e.progress = fn
}

// Execute runs all steps in order. The first failure stops the plan and
// marks the remaining steps skipped.
func (e *Executor) Execute(ctx context.Context, p *Plan) error {
	failed := false
	for _, step := range p.Steps {
		if failed {
			step.Status = StatusSkipped
			continue
		}

		step.Status = StatusRunning
		if e.progress != nil {
			e.progress(step)
		}

		output, err := e.runStep(ctx, p, step)
		if err != nil {
			step.Status = StatusFailed
			step.Err = err.Error()
			failed = true
			continue
		}

		step.Status = StatusCompleted
		step.Output = output
		if name := step.Params["store_as"]; name != "" {
			p.Context[name] = output
		}
	}

	if failed {
		return fmt.Errorf("plan failed")
	}
	return nil
}

func (e *Executor) runStep(ctx context.Context, p *Plan, step *Step) (string, error) {
	params := p.ResolveParams(step)

	switch step.Action {
	case ActionGenerate:
		msgs := prompt.Generate(params["request"], params["language"], "", "")
		return e.complete(ctx, msgs)

	case ActionAnalyze:
		msgs := prompt.TaskAnalyze(params["request"])
		return e.complete(ctx, msgs)

	case ActionReadFile:
		path := params["path"]
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("cannot read %s: %w", path, err)
		}
		if info.Size() > MaxReadFileSize {
			return "", fmt.Errorf("%s is too large (%d bytes, limit %d)", path, info.Size(), MaxReadFileSize)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("cannot read %s: %w", path, err)
		}
		return string(data), nil

	case ActionWriteFile:
		path := params["path"]
		// Model responses wrap code in fences; strip them before writing.
		content := render.FirstCodeBlock(params["content"])
		if content == "" {
			return "", fmt.Errorf("nothing to write to %s", path)
		}
		if err := util.AtomicWriteFile(path, []byte(content+"\n"), 0o644); err != nil {
			return "", err
		}
		return path, nil
	}
	return "", fmt.Errorf("unknown action %q", step.Action)
}

// complete issues one non-streaming model request and returns the text.
func (e *Executor) complete(ctx context.Context, msgs []ollama.Message) (string, error) {
	resp, err := e.client.Chat(ctx, ollama.ChatRequest{
		Model:    e.model,
		Messages: msgs,
		Options:  e.options,
	})
	if err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}
