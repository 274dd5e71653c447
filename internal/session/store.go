// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/olla-cli/internal/config"
	"github.com/jeranaias/olla-cli/internal/util"
)

// Store errors usable with errors.Is.
var (
	// ErrNotFound means no session matched the given id or name.
	ErrNotFound = errors.New("session not found")

	// ErrAmbiguous means an id prefix matched more than one session.
	ErrAmbiguous = errors.New("session reference is ambiguous")
)

// DefaultMaxSessions caps stored sessions when config gives no limit.
const DefaultMaxSessions = 100

// Store persists sessions as one JSON file per session.
type Store struct {
	BaseDir     string
	MaxSessions int
}

// NewStore creates a store rooted at the configured sessions directory.
func NewStore() (*Store, error) {
	dir, err := config.SessionsDir()
	if err != nil {
		return nil, err
	}
	return NewStoreWithDir(dir)
}

// NewStoreWithDir creates a store rooted at an explicit directory.
func NewStoreWithDir(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &Store{BaseDir: dir, MaxSessions: DefaultMaxSessions}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}

// Save writes a session atomically. Sessions beyond MaxSessions are pruned
// oldest-first after the write.
func (s *Store) Save(sess *Session) error {
	if sess.ID == "" {
		return fmt.Errorf("session has no id")
	}
	sess.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(s.path(sess.ID), data, 0o600, 0o700); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return s.enforceLimit()
}

// Load reads a session by exact id.
func (s *Store) Load(id string) (*Session, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", id, err)
	}
	return &sess, nil
}

// Resolve finds a session by exact id, then exact name, then unambiguous id
// prefix. A prefix matching several sessions is ErrAmbiguous.
func (s *Store) Resolve(ref string) (*Session, error) {
	if sess, err := s.Load(ref); err == nil {
		return sess, nil
	}

	metas, err := s.List()
	if err != nil {
		return nil, err
	}

	for _, m := range metas {
		if m.Name != "" && m.Name == ref {
			return s.Load(m.ID)
		}
	}

	var prefixMatches []string
	for _, m := range metas {
		if strings.HasPrefix(m.ID, ref) {
			prefixMatches = append(prefixMatches, m.ID)
		}
	}
	switch len(prefixMatches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return s.Load(prefixMatches[0])
	default:
		return nil, fmt.Errorf("%w: %q matches %d sessions", ErrAmbiguous, ref, len(prefixMatches))
	}
}

// List returns metadata for all sessions, newest first.
func (s *Store) List() ([]Meta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var metas []Meta
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		sess, err := s.Load(id)
		if err != nil {
			// Corrupt files are skipped, not fatal for listing.
			continue
		}
		metas = append(metas, Meta{
			ID:           sess.ID,
			Name:         sess.Name,
			Model:        sess.Model,
			Title:        sess.Title(),
			MessageCount: len(sess.Messages),
			UpdatedAt:    sess.UpdatedAt,
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Search returns metadata for sessions whose name, title, or message
// content contains the query, case-insensitively, newest first.
func (s *Store) Search(query string) ([]Meta, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return s.List()
	}

	metas, err := s.List()
	if err != nil {
		return nil, err
	}

	var matched []Meta
	for _, m := range metas {
		if strings.Contains(strings.ToLower(m.Name), query) ||
			strings.Contains(strings.ToLower(m.Title), query) {
			matched = append(matched, m)
			continue
		}
		sess, err := s.Load(m.ID)
		if err != nil {
			continue
		}
		for _, msg := range sess.Messages {
			if strings.Contains(strings.ToLower(msg.Content), query) {
				matched = append(matched, m)
				break
			}
		}
	}
	return matched, nil
}

// Delete removes a session file.
func (s *Store) Delete(id string) error {
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

// enforceLimit prunes the oldest sessions beyond MaxSessions.
func (s *Store) enforceLimit() error {
	if s.MaxSessions <= 0 {
		return nil
	}
	metas, err := s.List()
	if err != nil {
		return err
	}
	for i := s.MaxSessions; i < len(metas); i++ {
		if err := s.Delete(metas[i].ID); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders a session as a Markdown transcript.
func (s *Store) ExportMarkdown(id string) (string, error) {
	sess, err := s.Load(id)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", sess.Title())
	fmt.Fprintf(&b, "- Session: %s\n", sess.ID)
	if sess.Model != "" {
		fmt.Fprintf(&b, "- Model: %s\n", sess.Model)
	}
	fmt.Fprintf(&b, "- Created: %s\n\n", sess.CreatedAt.Format(time.RFC3339))

	for _, m := range sess.Messages {
		fmt.Fprintf(&b, "## %s (%s)\n\n%s\n\n",
			m.Role.DisplayName(), m.Timestamp.Format("2006-01-02 15:04"), m.Content)
	}
	return b.String(), nil
}

// ExportJSON renders a session as indented JSON.
func (s *Store) ExportJSON(id string) (string, error) {
	sess, err := s.Load(id)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}
	return string(data), nil
}

// FormatList renders session metadata as an aligned table for the terminal.
func FormatList(metas []Meta) string {
	if len(metas) == 0 {
		return "No saved sessions.\n"
	}

	var b strings.Builder
	b.WriteString(util.PadRight("ID", 16))
	b.WriteString(util.PadRight("NAME", 18))
	b.WriteString(util.PadRight("MSGS", 6))
	b.WriteString(util.PadRight("UPDATED", 17))
	b.WriteString("TITLE\n")

	for _, m := range metas {
		name := m.Name
		if name == "" {
			name = "-"
		}
		b.WriteString(util.PadRight(util.TruncateWidth(m.ID, 14), 16))
		b.WriteString(util.PadRight(util.TruncateWidth(name, 16), 18))
		b.WriteString(util.PadRight(fmt.Sprintf("%d", m.MessageCount), 6))
		b.WriteString(util.PadRight(m.UpdatedAt.Format("2006-01-02 15:04"), 17))
		b.WriteString(util.TruncateWidth(m.Title, 40))
		b.WriteString("\n")
	}
	return b.String()
}
