// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Action is the canned operation a step performs.
type Action string

const (
	// ActionGenerate asks the model for an artifact (code, text).
	ActionGenerate Action = "generate"

	// ActionWriteFile writes a previous step's output to disk.
	ActionWriteFile Action = "write_file"

	// ActionReadFile loads a file into the plan context.
	ActionReadFile Action = "read_file"

	// ActionAnalyze asks the model a free-form question about context.
	ActionAnalyze Action = "analyze"
)

// Status tracks a step through execution.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Step is a single operation in a plan. Params may reference earlier step
// outputs as ${step_N} placeholders.
type Step struct {
	ID          string            `json:"id"`
	Action      Action            `json:"action"`
	Description string            `json:"description"`
	Params      map[string]string `json:"params"`
	Status      Status            `json:"status"`
	Output      string            `json:"output,omitempty"`
	Err         string            `json:"error,omitempty"`
}

// Plan is an ordered list of steps for one task request.
type Plan struct {
	ID      string            `json:"id"`
	Request string            `json:"request"`
	Steps   []*Step           `json:"steps"`
	Context map[string]string `json:"context"`
}

// NewPlan creates an empty plan for a request.
func NewPlan(request string) *Plan {
	return &Plan{
		ID:      uuid.NewString(),
		Request: request,
		Context: make(map[string]string),
	}
}

// AddStep appends a step, assigning it the next sequential id.
func (p *Plan) AddStep(action Action, description string, params map[string]string) *Step {
	if params == nil {
		params = make(map[string]string)
	}
	step := &Step{
		ID:          fmt.Sprintf("step_%d", len(p.Steps)+1),
		Action:      action,
		Description: description,
		Params:      params,
		Status:      StatusPending,
	}
	p.Steps = append(p.Steps, step)
	return step
}

// IsComplete reports whether every step finished or was skipped.
func (p *Plan) IsComplete() bool {
	for _, s := range p.Steps {
		if s.Status != StatusCompleted && s.Status != StatusSkipped {
			return false
		}
	}
	return true
}

// HasFailures reports whether any step failed.
func (p *Plan) HasFailures() bool {
	for _, s := range p.Steps {
		if s.Status == StatusFailed {
			return true
		}
	}
	return false
}

var varRe = regexp.MustCompile(`\$\{([a-zA-Z0-9_]+)\}`)

// ResolveParams substitutes ${name} placeholders in a step's params from the
// plan context. Unknown names are left as-is so the failure is visible in
// whatever consumes the value.
func (p *Plan) ResolveParams(step *Step) map[string]string {
	resolved := make(map[string]string, len(step.Params))
	for k, v := range step.Params {
		resolved[k] = varRe.ReplaceAllStringFunc(v, func(m string) string {
			name := varRe.FindStringSubmatch(m)[1]
			if val, ok := p.Context[name]; ok {
				return val
			}
			return m
		})
	}
	return resolved
}

// Summary renders a one-line-per-step view for dry runs and confirmation.
func (p *Plan) Summary() string {
	var b strings.Builder
	for i, s := range p.Steps {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, s.Action, s.Description)
	}
	return b.String()
}
