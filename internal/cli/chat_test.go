// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/olla-cli/internal/config"
	"github.com/jeranaias/olla-cli/internal/ollama"
	"github.com/jeranaias/olla-cli/internal/session"
)

// newChatRuntime wires a runtime at a stub chat server and captures output.
func newChatRuntime(t *testing.T, srvURL string) *runtime {
	t.Helper()

	var out bytes.Buffer
	SetOutputStreams(&out, &out)
	t.Cleanup(func() { SetOutputStreams(os.Stdout, os.Stderr) })

	cfg := config.Default()
	cfg.Server.URL = srvURL
	return &runtime{
		cfg:  cfg,
		args: &Args{Parser: NewArgParser(nil)},
		client: ollama.NewClient(ollama.ClientConfig{
			BaseURL:      srvURL,
			Timeout:      5 * time.Second,
			DefaultModel: cfg.Model.Name,
		}),
	}
}

func TestChatCommandExportDeleteSearch(t *testing.T) {
	rt := newChatRuntime(t, "http://localhost:0")

	store, err := session.NewStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	sess := session.New("current", rt.cfg.Model.Name)
	sess.Append(session.RoleUser, "what is a channel?")
	sess.Append(session.RoleAssistant, "a typed conduit")

	other := session.New("scratch", rt.cfg.Model.Name)
	other.Append(session.RoleUser, "throwaway")
	if err := store.Save(other); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	// /export writes a markdown transcript to the given path.
	outPath := filepath.Join(t.TempDir(), "transcript.md")
	done, err := rt.handleChatCommand(ctx, "/export md "+outPath, sess, store)
	if err != nil {
		t.Fatalf("/export failed: %v", err)
	}
	if done {
		t.Error("/export should not end the session")
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("exported file missing: %v", err)
	}
	if !strings.Contains(string(data), "what is a channel?") {
		t.Errorf("export missing message content:\n%s", data)
	}

	// /search finds the saved session by content.
	if _, err := rt.handleChatCommand(ctx, "/search throwaway", sess, store); err != nil {
		t.Fatalf("/search failed: %v", err)
	}

	// /delete removes another session but refuses the active one.
	if _, err := rt.handleChatCommand(ctx, "/delete scratch", sess, store); err != nil {
		t.Fatalf("/delete failed: %v", err)
	}
	if _, err := store.Load(other.ID); err == nil {
		t.Error("deleted session still loads")
	}
	if _, err := rt.handleChatCommand(ctx, "/delete "+sess.ID, sess, store); err == nil {
		t.Error("/delete of the active session should fail")
	}
}

func TestChatTurnCancelDoesNotPoisonNextTurn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"hello"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true,"eval_count":1,"eval_duration":1000000}`)
	}))
	defer srv.Close()

	rt := newChatRuntime(t, srv.URL)
	sess := session.New("", rt.cfg.Model.Name)

	// An interrupted turn cancels only its own request.
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	err := rt.chatTurn(cancelled, sess, "first question")
	if err == nil {
		t.Fatal("cancelled turn should fail")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error should unwrap to context.Canceled, got: %v", err)
	}
	sess.DropLast()
	if len(sess.Messages) != 0 {
		t.Fatalf("rolled-back session has %d messages, want 0", len(sess.Messages))
	}

	// The next turn runs on a fresh context and must succeed.
	if err := rt.chatTurn(context.Background(), sess, "second question"); err != nil {
		t.Fatalf("turn after cancel failed: %v", err)
	}
	if len(sess.Messages) != 2 {
		t.Fatalf("session has %d messages, want 2", len(sess.Messages))
	}
	last := sess.Messages[len(sess.Messages)-1]
	if last.Role != session.RoleAssistant || last.Content != "hello" {
		t.Errorf("last message = %s %q", last.Role, last.Content)
	}
}
