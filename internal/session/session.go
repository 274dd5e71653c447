// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Role identifies the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	}
	return string(r)
}

// Message is one persisted chat turn.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage builds a message with a fresh ID and timestamp.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        "msg_" + randomHex(8),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// Session is an ordered list of messages with identity and bookkeeping.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

// New creates an empty session. Name may be empty.
func New(name, model string) *Session {
	now := time.Now()
	return &Session{
		ID:        "sess_" + randomHex(8),
		Name:      name,
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a message and bumps the updated timestamp.
func (s *Session) Append(role Role, content string) Message {
	msg := NewMessage(role, content)
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now()
	return msg
}

// DropLast removes the most recent message. Used to roll back a user turn
// when the model request fails.
func (s *Session) DropLast() {
	if len(s.Messages) > 0 {
		s.Messages = s.Messages[:len(s.Messages)-1]
	}
}

// Title returns the name if set, otherwise a preview of the first user
// message, otherwise the id.
func (s *Session) Title() string {
	if s.Name != "" {
		return s.Name
	}
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			if len(m.Content) > 40 {
				return string([]rune(m.Content)[:40])
			}
			return m.Content
		}
	}
	return s.ID
}

// Meta is the listing view of a session, without message bodies.
type Meta struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	Model        string    `json:"model,omitempty"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func randomHex(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}
