// Package domain contains core concepts of the conversation system.
// This file defines Message entries and related rules.
// Messages are immutable once appended.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable entry of a thread.
// Within a thread messages are totally ordered by (Timestamp, Sequence).
type Message struct {
	ID         uuid.UUID `json:"id"`
	ThreadID   ThreadID  `json:"thread_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	Sequence   uint64    `json:"sequence"`
}

func (m Message) Summary() MessageSummary {
	return MessageSummary{
		MessageID: m.ID.String(),
		SenderID:  m.SenderID,
		Content:   m.Content,
		Timestamp: m.Timestamp,
		Sequence:  m.Sequence,
	}
}

// Before reports whether m precedes other in thread order.
func (m Message) Before(other Message) bool {
	if !m.Timestamp.Equal(other.Timestamp) {
		return m.Timestamp.Before(other.Timestamp)
	}
	return m.Sequence < other.Sequence
}
