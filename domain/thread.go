package domain

import (
	"campus-chat/errors"
	"slices"
	"time"
)

type ThreadID string

func (t ThreadID) String() string {
	return string(t)
}

// MessageSummary is the "last message" preview kept on a thread.
type MessageSummary struct {
	MessageID string    `json:"message_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Sequence  uint64    `json:"sequence"`
}

// Thread is a conversation between a fixed set of participants.
// The participant set never changes once the thread has been created.
type Thread struct {
	ID               ThreadID          `json:"id"`
	ParticipantIDs   []string          `json:"participant_ids"`
	ParticipantNames map[string]string `json:"participant_names"`
	LastMessage      *MessageSummary   `json:"last_message,omitempty"`
	// CreatedSeq is the global creation rank, used as the last tie-break when ordering threads.
	CreatedSeq uint64    `json:"created_seq"`
	CreatedAt  time.Time `json:"created_at"`
}

func (t Thread) HasParticipant(userID string) bool {
	return slices.Contains(t.ParticipantIDs, userID)
}

// OtherParticipant returns the first member that is not selfID.
func (t Thread) OtherParticipant(selfID string) (Participant, error) {
	for _, id := range t.ParticipantIDs {
		if id != selfID {
			return Participant{ID: id, Name: t.ParticipantNames[id]}, nil
		}
	}
	return Participant{}, errors.ErrNoOtherParticipant
}

// NewerThan reports whether t sorts before other in a user's thread list:
// most recent last message first, threads without messages last,
// ties broken by creation order.
func (t Thread) NewerThan(other Thread) bool {
	switch {
	case t.LastMessage != nil && other.LastMessage == nil:
		return true
	case t.LastMessage == nil && other.LastMessage != nil:
		return false
	case t.LastMessage != nil && other.LastMessage != nil &&
		!t.LastMessage.Timestamp.Equal(other.LastMessage.Timestamp):
		return t.LastMessage.Timestamp.After(other.LastMessage.Timestamp)
	default:
		return t.CreatedSeq < other.CreatedSeq
	}
}

// SortThreads orders threads by most recent activity.
func SortThreads(threads []Thread) {
	slices.SortStableFunc(threads, func(a, b Thread) int {
		switch {
		case a.NewerThan(b):
			return -1
		case b.NewerThan(a):
			return 1
		default:
			return 0
		}
	})
}

// DefaultSelection applies the auto-selection policy: a selection still
// present in threads is kept, otherwise the first thread is picked.
// It returns false when threads is empty.
func DefaultSelection(threads []Thread, selected ThreadID) (ThreadID, bool) {
	if selected != "" && slices.ContainsFunc(threads, func(t Thread) bool { return t.ID == selected }) {
		return selected, true
	}
	if len(threads) == 0 {
		return "", false
	}
	return threads[0].ID, true
}
