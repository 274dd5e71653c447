// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat mode. A readline loop (peterh/liner) with
// slash commands, persistent sessions, and a sliding context window so
// long conversations stay inside the model's context length.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/olla-cli/internal/config"
	"github.com/jeranaias/olla-cli/internal/ollama"
	"github.com/jeranaias/olla-cli/internal/prompt"
	"github.com/jeranaias/olla-cli/internal/session"
	"github.com/jeranaias/olla-cli/internal/util"
)

const chatHelp = `Commands:
  /help                     Show this help
  /clear                    Clear the conversation (keeps the session id)
  /model [name]             Show or switch the active model
  /history                  Show this session's messages
  /save [name]              Save the session, optionally naming it
  /sessions                 List saved sessions
  /search <text>            Find sessions by name, title, or content
  /export [md|json] [path]  Write this session to a file
  /delete <id-or-name>      Delete a saved session
  /quit                     Exit chat (also /exit, Ctrl-D)`

// HandleChat implements "olla chat".
func HandleChat(ctx context.Context, args *Args) error {
	rt, err := newRuntime(args)
	if err != nil {
		return err
	}
	if err := RequiresTTY("chat"); err != nil {
		return err
	}
	if err := rt.ensureReady(ctx); err != nil {
		return err
	}

	store, err := session.NewStore()
	if err != nil {
		return err
	}
	if rt.cfg.Chat.MaxSessions > 0 {
		store.MaxSessions = rt.cfg.Chat.MaxSessions
	}

	sess, err := openChatSession(args, store, rt.cfg.Model.Name)
	if err != nil {
		return err
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := chatHistoryPath()
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}
	defer saveChatHistory(line, historyPath)

	theme := activeTheme()
	fmt.Fprintf(stdout(), "%s (model: %s, session: %s)\n",
		theme.Title.Render("olla chat"), rt.cfg.Model.Name, sess.ID)
	fmt.Fprintln(stdout(), theme.Dim.Render("Type /help for commands, /quit to exit."))

	for {
		input, err := line.Prompt("you> ")
		if err != nil {
			// Ctrl-C aborts the current line, Ctrl-D ends the session.
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(stdout())
				continue
			}
			break
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			done, err := rt.handleChatCommand(ctx, input, sess, store)
			if err != nil {
				DisplayError(err)
			}
			if done {
				break
			}
			continue
		}

		if err := rt.chatTurn(ctx, sess, input); err != nil {
			sess.DropLast()
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(stdout(), theme.Dim.Render("(interrupted)"))
			} else {
				DisplayError(err)
			}
			continue
		}
		if err := store.Save(sess); err != nil {
			DisplayError(fmt.Errorf("saving session: %w", err))
		}
	}

	if len(sess.Messages) > 0 {
		if err := store.Save(sess); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
		fmt.Fprintf(stdout(), "Session saved: %s\n", sess.ID)
	}
	return nil
}

// openChatSession resolves --session / --new-session into a session to
// chat in. With neither flag a fresh unnamed session is started.
func openChatSession(args *Args, store *session.Store, model string) (*session.Session, error) {
	if ref := args.Parser.FlagOrDefault("session", ""); ref != "" {
		sess, err := store.Resolve(ref)
		if err != nil {
			return nil, err
		}
		return sess, nil
	}
	name := ""
	if v, ok := args.Parser.Flag("new-session"); ok {
		name = v
	}
	return session.New(name, model), nil
}

// chatTurn appends the user message, sends the windowed history, streams
// the reply, and appends it. The caller rolls back on error. A Ctrl-C
// while the reply is streaming cancels only this turn's request; the
// subscription is dropped before returning so the REPL keeps running.
func (rt *runtime) chatTurn(ctx context.Context, sess *session.Session, input string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	sess.Append(session.RoleUser, input)

	msgs := []ollama.Message{prompt.Chat()}
	for _, m := range windowMessages(sess.Messages, rt.cfg.Chat.HistoryLimit) {
		msgs = append(msgs, ollama.Message{Role: string(m.Role), Content: m.Content})
	}

	theme := activeTheme()
	fmt.Fprint(stdout(), theme.Label.Render("olla> "))

	acc := ollama.NewStreamAccumulator()
	err := rt.client.ChatStream(ctx, ollama.ChatRequest{
		Model:    rt.cfg.Model.Name,
		Messages: msgs,
		Stream:   true,
		Options:  rt.options(),
	}, func(chunk ollama.StreamChunk) error {
		acc.Add(chunk)
		fmt.Fprint(stdout(), chunk.Content)
		return nil
	})
	if err != nil {
		fmt.Fprintln(stdout())
		return err
	}
	fmt.Fprintln(stdout())
	rt.reportStreamStats(acc.Stats())

	sess.Append(session.RoleAssistant, acc.Content())
	return nil
}

// windowMessages returns the most recent limit messages. Zero or negative
// means no windowing.
func windowMessages(msgs []session.Message, limit int) []session.Message {
	if limit <= 0 || len(msgs) <= limit {
		return msgs
	}
	return msgs[len(msgs)-limit:]
}

// handleChatCommand runs a slash command. The bool result is true when
// the loop should exit.
func (rt *runtime) handleChatCommand(ctx context.Context, input string, sess *session.Session, store *session.Store) (bool, error) {
	fields := strings.Fields(input)
	cmd := fields[0]
	arg := ""
	if len(fields) > 1 {
		arg = strings.Join(fields[1:], " ")
	}
	theme := activeTheme()

	switch cmd {
	case "/quit", "/exit":
		return true, nil

	case "/help":
		fmt.Fprintln(stdout(), chatHelp)

	case "/clear":
		sess.Messages = nil
		fmt.Fprintln(stdout(), "Conversation cleared.")

	case "/model":
		if arg == "" {
			fmt.Fprintf(stdout(), "Current model: %s\n", rt.cfg.Model.Name)
			break
		}
		ok, err := rt.client.ModelExists(ctx, arg)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, fmt.Errorf("model %q is not installed: %w", arg, ollama.ErrModelNotFound)
		}
		rt.cfg.Model.Name = arg
		sess.Model = arg
		fmt.Fprintf(stdout(), "Switched to model: %s\n", arg)

	case "/history":
		if len(sess.Messages) == 0 {
			fmt.Fprintln(stdout(), "No messages yet.")
			break
		}
		for _, m := range sess.Messages {
			label := theme.Label.Render(m.Role.DisplayName() + ":")
			fmt.Fprintf(stdout(), "%s %s\n", label, m.Content)
		}

	case "/save":
		if arg != "" {
			sess.Name = arg
		}
		if err := store.Save(sess); err != nil {
			return false, fmt.Errorf("saving session: %w", err)
		}
		fmt.Fprintf(stdout(), "Session saved: %s\n", sess.ID)

	case "/sessions":
		metas, err := store.List()
		if err != nil {
			return false, err
		}
		if len(metas) == 0 {
			fmt.Fprintln(stdout(), "No saved sessions.")
			break
		}
		fmt.Fprint(stdout(), session.FormatList(metas))

	case "/search":
		if arg == "" {
			return false, Usagef("usage: /search <text>")
		}
		metas, err := store.Search(arg)
		if err != nil {
			return false, err
		}
		if len(metas) == 0 {
			fmt.Fprintf(stdout(), "No sessions match %q.\n", arg)
			break
		}
		fmt.Fprint(stdout(), session.FormatList(metas))

	case "/export":
		path, err := exportSession(store, sess, arg)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(stdout(), "Exported to %s\n", path)

	case "/delete":
		if arg == "" {
			return false, Usagef("usage: /delete <id-or-name>")
		}
		target, err := store.Resolve(arg)
		if err != nil {
			return false, err
		}
		if target.ID == sess.ID {
			return false, fmt.Errorf("cannot delete the active session; /quit first")
		}
		if err := store.Delete(target.ID); err != nil {
			return false, err
		}
		fmt.Fprintf(stdout(), "Deleted session %s\n", target.ID)

	default:
		fmt.Fprintf(stdout(), "Unknown command %s (try /help)\n", cmd)
	}
	return false, nil
}

// exportSession saves the session and writes it to a file. The argument
// is "[md|json] [path]"; format defaults to markdown and the path to
// <session-id>.<ext> in the working directory.
func exportSession(store *session.Store, sess *session.Session, arg string) (string, error) {
	if len(sess.Messages) == 0 {
		return "", fmt.Errorf("nothing to export yet")
	}
	if err := store.Save(sess); err != nil {
		return "", fmt.Errorf("saving session: %w", err)
	}

	format := "markdown"
	path := ""
	fields := strings.Fields(arg)
	if len(fields) > 0 {
		switch fields[0] {
		case "md", "markdown":
			format = "markdown"
			fields = fields[1:]
		case "json":
			format = "json"
			fields = fields[1:]
		}
	}
	if len(fields) > 0 {
		path = fields[0]
	}

	var content, ext string
	var err error
	if format == "json" {
		content, err = store.ExportJSON(sess.ID)
		ext = ".json"
	} else {
		content, err = store.ExportMarkdown(sess.ID)
		ext = ".md"
	}
	if err != nil {
		return "", err
	}
	if path == "" {
		path = sess.ID + ext
	}
	if err := util.AtomicWriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// chatHistoryPath is the liner history file inside the config directory.
// Empty when the config directory cannot be created.
func chatHistoryPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "chat_history")
}

func saveChatHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	line.WriteHistory(f)
	f.Close()
}
