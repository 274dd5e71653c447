// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"
)

// StreamCallback receives each chunk of a streaming response.
type StreamCallback func(chunk StreamChunk) error

// StreamReader consumes an NDJSON response body line by line.
type StreamReader struct {
	reader *bufio.Reader
	closer io.Closer
}

// NewStreamReader wraps a response body for NDJSON processing.
func NewStreamReader(body io.ReadCloser) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(body),
		closer: body,
	}
}

// Process reads chunks until done=true, EOF, context cancellation, or a
// callback error. Malformed lines are skipped; a stream consisting only of
// garbage still terminates at EOF.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	defer s.closer.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := s.reader.ReadBytes('\n')
		if len(line) > 0 {
			chunk, ok := parseChunk(line)
			if ok {
				if cbErr := callback(chunk); cbErr != nil {
					return cbErr
				}
				if chunk.Done {
					return nil
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &ClientError{
				Type:    ErrorTypeInvalidResponse,
				Message: "stream read failed",
				Cause:   err,
			}
		}
	}
}

// parseChunk decodes one NDJSON line into a StreamChunk.
func parseChunk(line []byte) (StreamChunk, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return StreamChunk{}, false
	}

	var resp ChatResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return StreamChunk{}, false
	}

	chunk := StreamChunk{
		Content: resp.Message.Content,
		Done:    resp.Done,
	}
	if resp.Done {
		chunk.Model = resp.Model
		chunk.DoneReason = resp.DoneReason
		chunk.PromptTokens = resp.PromptEvalCount
		chunk.CompletionTokens = resp.EvalCount
		chunk.TotalDuration = time.Duration(resp.TotalDuration)
		chunk.EvalDuration = time.Duration(resp.EvalDuration)
	}
	return chunk, true
}

// =============================================================================
// ACCUMULATOR
// =============================================================================

// StreamStats captures timing over a whole stream.
type StreamStats struct {
	StartTime        time.Time
	FirstTokenTime   time.Time
	TTFT             time.Duration
	TotalDuration    time.Duration
	PromptTokens     int
	CompletionTokens int
	TokensPerSecond  float64
}

// StreamAccumulator collects chunks into the full response text plus stats.
type StreamAccumulator struct {
	content strings.Builder
	stats   StreamStats
	done    bool
}

// NewStreamAccumulator starts an accumulator with the clock running.
func NewStreamAccumulator() *StreamAccumulator {
	return &StreamAccumulator{
		stats: StreamStats{StartTime: time.Now()},
	}
}

// Add folds one chunk into the accumulated state.
func (a *StreamAccumulator) Add(chunk StreamChunk) {
	if chunk.Content != "" && a.stats.FirstTokenTime.IsZero() {
		a.stats.FirstTokenTime = time.Now()
		a.stats.TTFT = a.stats.FirstTokenTime.Sub(a.stats.StartTime)
	}
	a.content.WriteString(chunk.Content)

	if chunk.Done {
		a.done = true
		a.stats.PromptTokens = chunk.PromptTokens
		a.stats.CompletionTokens = chunk.CompletionTokens
		a.stats.TotalDuration = time.Since(a.stats.StartTime)
		if a.stats.TotalDuration > 0 {
			a.stats.TokensPerSecond = float64(chunk.CompletionTokens) / a.stats.TotalDuration.Seconds()
		}
	}
}

// Content returns the text accumulated so far.
func (a *StreamAccumulator) Content() string {
	return a.content.String()
}

// IsDone reports whether the final chunk has been seen.
func (a *StreamAccumulator) IsDone() bool {
	return a.done
}

// Stats returns the collected timing information.
func (a *StreamAccumulator) Stats() StreamStats {
	return a.stats
}
