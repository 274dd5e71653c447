// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/olla-cli/internal/render"
	"github.com/jeranaias/olla-cli/internal/util"
)

// MaxInputFileSize caps how much code a command will read from a file
// or stdin. Larger inputs would blow the model's context anyway.
const MaxInputFileSize = 50 * 1024

// codeInput is the resolved code payload for a code command, with the
// source recorded for verbose diagnostics.
type codeInput struct {
	Code   string
	Source string // "stdin", file path, or "argument"
}

// resolveCodeInput determines where a code command's input comes from:
// --stdin reads standard input, a positional naming an existing file
// reads that file, and any other positional text is treated as literal
// code. Positionals after the command name are joined so unquoted
// snippets still work.
func resolveCodeInput(p *ArgParser) (*codeInput, error) {
	if p.BoolFlag("stdin") {
		data, err := io.ReadAll(io.LimitReader(os.Stdin, MaxInputFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		if len(data) > MaxInputFileSize {
			return nil, Usagef("stdin input exceeds %d bytes", MaxInputFileSize)
		}
		code := strings.TrimSpace(string(data))
		if code == "" {
			return nil, Usagef("--stdin given but no input received")
		}
		return &codeInput{Code: code, Source: "stdin"}, nil
	}

	arg := strings.TrimSpace(p.JoinPositionals(1))
	if arg == "" {
		return nil, Usagef("no code provided: pass a file path, a code snippet, or --stdin")
	}

	// A single positional naming a readable file is read as code.
	if p.Positional(2) == "" {
		if info, err := os.Stat(arg); err == nil && info.Mode().IsRegular() {
			if info.Size() > MaxInputFileSize {
				return nil, Usagef("file %s exceeds %d bytes", arg, MaxInputFileSize)
			}
			data, err := os.ReadFile(arg)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", arg, err)
			}
			return &codeInput{Code: string(data), Source: arg}, nil
		}
	}

	return &codeInput{Code: arg, Source: "argument"}, nil
}

// readFileArg reads a small auxiliary file such as --stack-trace.
func readFileArg(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if info.Size() > MaxInputFileSize {
		return "", Usagef("file %s exceeds %d bytes", path, MaxInputFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// writeOutputFile saves a response to disk. When the response contains
// fenced code blocks only the code is written, so generated files are
// runnable rather than markdown transcripts.
func writeOutputFile(path, response string) error {
	content := response
	if blocks := render.ExtractCodeBlocks(response); len(blocks) > 0 {
		for i, b := range blocks {
			blocks[i] = strings.TrimRight(b, "\n")
		}
		content = strings.Join(blocks, "\n\n")
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if err := util.AtomicWriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// confirm asks a yes/no question on the terminal. Non-TTY stdin answers
// no, so scripted runs must pass --yes explicitly.
func confirm(question string) bool {
	if !IsTTY() {
		return false
	}
	fmt.Fprintf(stdout(), "%s [y/N] ", question)
	var answer string
	fmt.Fscanln(os.Stdin, &answer)
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
