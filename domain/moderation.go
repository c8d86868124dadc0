package domain

import (
	"time"

	"github.com/google/uuid"
)

// ModerationRecord keeps the trace of a censored message. The original content is not kept.
type ModerationRecord struct {
	ID       uuid.UUID `json:"id"`
	ThreadID ThreadID  `json:"thread_id"`
	SenderID string    `json:"sender_id"`
	Words    []string  `json:"words"`
	Lang     string    `json:"lang"`
	At       time.Time `json:"at"`
}
