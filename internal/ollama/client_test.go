// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(ClientConfig{BaseURL: srv.URL, DefaultModel: "test-model"})
	return client, srv
}

func TestCheckRunning(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	if err := client.CheckRunning(context.Background()); err != nil {
		t.Errorf("CheckRunning against live server failed: %v", err)
	}
}

func TestCheckRunning_Down(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // nothing listening anymore

	client := NewClient(ClientConfig{BaseURL: url})
	err := client.CheckRunning(context.Background())
	if err == nil {
		t.Fatal("expected error against closed server")
	}
	if !IsNotRunning(err) {
		t.Errorf("expected ErrNotRunning, got %v", err)
	}
}

func TestListModels(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"models":[
			{"name":"llama3.2:latest","size":2019393189,"details":{"parameter_size":"3.2B","quantization_level":"Q4_K_M"}},
			{"name":"codellama:13b","size":7365960935,"details":{"parameter_size":"13B"}}
		]}`))
	}))
	defer srv.Close()

	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("got %d models, want 2", len(models))
	}
	if models[0].Name != "llama3.2:latest" {
		t.Errorf("first model = %q", models[0].Name)
	}
	if models[0].Details.ParameterSize != "3.2B" {
		t.Errorf("parameter size = %q", models[0].Details.ParameterSize)
	}
}

func TestModelExists_LatestSuffix(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"llama3.2:latest"}]}`))
	}))
	defer srv.Close()

	ok, err := client.ModelExists(context.Background(), "llama3.2")
	if err != nil {
		t.Fatalf("ModelExists failed: %v", err)
	}
	if !ok {
		t.Error("llama3.2 should match llama3.2:latest")
	}

	ok, _ = client.ModelExists(context.Background(), "mistral")
	if ok {
		t.Error("mistral should not exist")
	}
}

func TestShowModel_NotFound(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'nope' not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := client.ShowModel(context.Background(), "nope")
	if !IsModelNotFound(err) {
		t.Errorf("expected ErrModelNotFound, got %v", err)
	}
}

func TestChat_NonStreaming(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"model":"test-model","message":{"role":"assistant","content":"hello"},"done":true,"eval_count":5,"eval_duration":1000000000}`))
	}))
	defer srv.Close()

	resp, err := client.Chat(context.Background(), ChatRequest{
		Messages: []Message{NewUserMessage("hi")},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Message.Content != "hello" {
		t.Errorf("content = %q", resp.Message.Content)
	}
	if tps := resp.TokensPerSecond(); tps != 5 {
		t.Errorf("tokens/sec = %g, want 5", tps)
	}
}

func TestChatStream_AssemblesChunks(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lines := []string{
			`{"message":{"role":"assistant","content":"Hel"},"done":false}`,
			`this line is not json and must be skipped`,
			`{"message":{"role":"assistant","content":"lo!"},"done":false}`,
			`{"message":{"role":"assistant","content":""},"done":true,"eval_count":7,"total_duration":2000000000,"eval_duration":1000000000}`,
		}
		for _, l := range lines {
			fmt.Fprintln(w, l)
		}
	}))
	defer srv.Close()

	acc := NewStreamAccumulator()
	err := client.ChatStream(context.Background(), ChatRequest{
		Messages: []Message{NewUserMessage("hi")},
	}, func(chunk StreamChunk) error {
		acc.Add(chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}
	if got := acc.Content(); got != "Hello!" {
		t.Errorf("assembled content = %q, want %q", got, "Hello!")
	}
	if !acc.IsDone() {
		t.Error("accumulator should be done")
	}
	if acc.Stats().CompletionTokens != 7 {
		t.Errorf("completion tokens = %d, want 7", acc.Stats().CompletionTokens)
	}
}

func TestChatStream_ModelNotFound(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'ghost' not found, try pulling it first"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	err := client.ChatStream(context.Background(), ChatRequest{Model: "ghost"}, func(StreamChunk) error { return nil })
	if !IsModelNotFound(err) {
		t.Errorf("expected ErrModelNotFound, got %v", err)
	}
}

func TestChatStream_CallbackErrorStopsStream(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 100; i++ {
			fmt.Fprintln(w, `{"message":{"content":"x"},"done":false}`)
		}
		fmt.Fprintln(w, `{"done":true}`)
	}))
	defer srv.Close()

	wantErr := fmt.Errorf("stop now")
	calls := 0
	err := client.ChatStream(context.Background(), ChatRequest{}, func(StreamChunk) error {
		calls++
		return wantErr
	})
	if err != wantErr {
		t.Errorf("expected callback error to propagate, got %v", err)
	}
	if calls != 1 {
		t.Errorf("callback called %d times, want 1", calls)
	}
}

func TestPullModel_Progress(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pull" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprintln(w, `{"status":"pulling manifest"}`)
		fmt.Fprintln(w, `{"status":"downloading","digest":"sha256:abc","total":100,"completed":50}`)
		fmt.Fprintln(w, `{"status":"success"}`)
	}))
	defer srv.Close()

	var statuses []string
	err := client.PullModel(context.Background(), "llama3.2", func(p PullProgress) {
		statuses = append(statuses, p.Status)
	})
	if err != nil {
		t.Fatalf("PullModel failed: %v", err)
	}
	if len(statuses) != 3 {
		t.Fatalf("got %d progress lines, want 3", len(statuses))
	}
	if statuses[1] != "downloading" {
		t.Errorf("second status = %q", statuses[1])
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{7365960935, "6.9 GB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.bytes); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestPullProgress_Percent(t *testing.T) {
	p := PullProgress{Total: 200, Completed: 50}
	if p.Percent() != 25 {
		t.Errorf("Percent = %g, want 25", p.Percent())
	}
	empty := PullProgress{}
	if empty.Percent() != 0 {
		t.Error("zero total should give zero percent")
	}
}

func TestClientError_Sentinels(t *testing.T) {
	err := connectionError(fmt.Errorf("dial tcp: refused"))
	if !IsNotRunning(err) {
		t.Error("connection error should match ErrNotRunning")
	}
	if !strings.Contains(err.Error(), "refused") {
		t.Errorf("cause should appear in message, got %q", err.Error())
	}

	nf := modelNotFoundError("x")
	if !IsModelNotFound(nf) {
		t.Error("should match ErrModelNotFound")
	}
	if IsTimeout(nf) {
		t.Error("not-found should not match ErrTimeout")
	}
}
