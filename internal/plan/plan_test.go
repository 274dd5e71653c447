// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/olla-cli/internal/intent"
	"github.com/jeranaias/olla-cli/internal/ollama"
)

func TestPlan_ResolveParams(t *testing.T) {
	p := NewPlan("test")
	p.Context["generated"] = "func main() {}"
	step := p.AddStep(ActionWriteFile, "write", map[string]string{
		"path":    "main.go",
		"content": "${generated}",
		"missing": "${nope}",
	})

	resolved := p.ResolveParams(step)
	if resolved["content"] != "func main() {}" {
		t.Errorf("content = %q", resolved["content"])
	}
	if resolved["path"] != "main.go" {
		t.Errorf("path = %q", resolved["path"])
	}
	if resolved["missing"] != "${nope}" {
		t.Errorf("unknown placeholder should stay literal, got %q", resolved["missing"])
	}
}

func TestGenerate_ComplexTaskPlansWrite(t *testing.T) {
	request := "create a fibonacci function and save it to fib.py"
	p := Generate(request, intent.Classify(request))

	if len(p.Steps) != 2 {
		t.Fatalf("got %d steps, want 2:\n%s", len(p.Steps), p.Summary())
	}
	if p.Steps[0].Action != ActionGenerate {
		t.Errorf("first step = %s, want generate", p.Steps[0].Action)
	}
	if p.Steps[1].Action != ActionWriteFile {
		t.Errorf("second step = %s, want write_file", p.Steps[1].Action)
	}
	if p.Steps[1].Params["path"] != "fib.py" {
		t.Errorf("write path = %q", p.Steps[1].Params["path"])
	}
	if !strings.Contains(p.Steps[1].Params["content"], "${generated}") {
		t.Error("write step should reference the generate output")
	}
}

func TestGenerate_FileBackedReview(t *testing.T) {
	request := "review utils.py for bugs"
	p := Generate(request, intent.Classify(request))

	if len(p.Steps) != 2 {
		t.Fatalf("got %d steps, want read+analyze:\n%s", len(p.Steps), p.Summary())
	}
	if p.Steps[0].Action != ActionReadFile || p.Steps[0].Params["path"] != "utils.py" {
		t.Errorf("first step = %+v", p.Steps[0])
	}
	if p.Steps[1].Action != ActionAnalyze {
		t.Errorf("second step = %s", p.Steps[1].Action)
	}
}

func TestGenerate_ChatFallback(t *testing.T) {
	p := Generate("what is the weather", intent.Classify("what is the weather"))
	if len(p.Steps) != 1 || p.Steps[0].Action != ActionAnalyze {
		t.Errorf("fallback plan = %s", p.Summary())
	}
}

func TestExecutor_GenerateAndWrite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"model":"m","message":{"role":"assistant","content":"` +
			"```python\\ndef fib(n):\\n    return n\\n```" + `"},"done":true}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	target := filepath.Join(dir, "fib.py")

	p := NewPlan("generate fib and save")
	p.AddStep(ActionGenerate, "generate", map[string]string{
		"request": "a fib function", "language": "python", "store_as": "generated",
	})
	p.AddStep(ActionWriteFile, "write", map[string]string{
		"path": target, "content": "${generated}",
	})

	client := ollama.NewClient(ollama.ClientConfig{BaseURL: srv.URL})
	exec := NewExecutor(client, "m", nil)

	var started []string
	exec.OnProgress(func(s *Step) { started = append(started, s.ID) })

	if err := exec.Execute(context.Background(), p); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !p.IsComplete() {
		t.Error("plan should be complete")
	}
	if len(started) != 2 {
		t.Errorf("progress callback ran %d times, want 2", len(started))
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	// The code fence must be stripped.
	if strings.Contains(string(data), "```") {
		t.Errorf("fences should be stripped, got %q", data)
	}
	if !strings.Contains(string(data), "def fib") {
		t.Errorf("file content = %q", data)
	}
}

func TestExecutor_FailureSkipsRest(t *testing.T) {
	client := ollama.NewClient(ollama.ClientConfig{BaseURL: "http://127.0.0.1:1"})
	exec := NewExecutor(client, "m", nil)

	p := NewPlan("read a file that does not exist")
	p.AddStep(ActionReadFile, "read", map[string]string{"path": "/nonexistent/file.py"})
	p.AddStep(ActionAnalyze, "analyze", map[string]string{"request": "never runs"})

	if err := exec.Execute(context.Background(), p); err == nil {
		t.Fatal("expected plan failure")
	}
	if p.Steps[0].Status != StatusFailed {
		t.Errorf("first step status = %s, want failed", p.Steps[0].Status)
	}
	if p.Steps[1].Status != StatusSkipped {
		t.Errorf("second step status = %s, want skipped", p.Steps[1].Status)
	}
	if !p.HasFailures() {
		t.Error("HasFailures should be true")
	}
}

func TestExecutor_ReadFileSizeLimit(t *testing.T) {
	dir := t.TempDir()
	big := filepath.Join(dir, "big.txt")
	os.WriteFile(big, make([]byte, MaxReadFileSize+1), 0o644)

	p := NewPlan("read")
	p.AddStep(ActionReadFile, "read", map[string]string{"path": big})

	exec := NewExecutor(ollama.NewClient(ollama.ClientConfig{}), "m", nil)
	if err := exec.Execute(context.Background(), p); err == nil {
		t.Fatal("oversized file should fail the plan")
	}
	if !strings.Contains(p.Steps[0].Err, "too large") {
		t.Errorf("error = %q", p.Steps[0].Err)
	}
}
