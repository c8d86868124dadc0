//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"campus-chat/contract"
	"campus-chat/domain"
	"campus-chat/errors"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

var _ contract.IMessageLog = (*MessageRepository)(nil)

type IMessageRepository interface {
	contract.IMessageLog
	Count(ctx context.Context, threadID domain.ThreadID) (int, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
	now           func() time.Time
}

// NewMessageRepository builds the message log. When limitMessages is set,
// ListForThread returns only the most recent limitMessages entries, still in ascending order.
// A limit of zero or less means no limit.
func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) *MessageRepository {
	if limitMessages != nil && *limitMessages <= 0 {
		limitMessages = nil
	}
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages, now: time.Now}
}

// WithClock replaces the time source used to stamp appended messages.
func (m *MessageRepository) WithClock(now func() time.Time) *MessageRepository {
	m.now = now
	return m
}

// Append stores a message at the next insertion sequence of its thread
// and updates the thread's last message summary in the same transaction.
// The key is formatted as "msg:{thread_id}:{sequence_padded}" so that a prefix
// scan returns messages in insertion order. Timestamps are clamped to the
// previous message's timestamp, which keeps (timestamp, sequence) ordering
// identical to the key ordering even when the clock goes backwards.
func (m *MessageRepository) Append(ctx context.Context, threadID domain.ThreadID, senderID, senderName, content string) (domain.Message, error) {
	var message domain.Message
	err := update(ctx, m.db, func(txn *badger.Txn) error {
		thread, err := loadThread(txn, threadID)
		if err != nil {
			return err
		}
		if !thread.HasParticipant(senderID) {
			return errors.ErrNotAParticipant
		}
		if strings.TrimSpace(content) == "" {
			return errors.ErrEmptyContent
		}

		seq, err := nextSequence(txn, []byte(messageSeqKey+threadID.String()))
		if err != nil {
			return err
		}
		at := m.now().UTC()
		if thread.LastMessage != nil && at.Before(thread.LastMessage.Timestamp) {
			at = thread.LastMessage.Timestamp
		}
		message = domain.Message{
			ID:         uuid.New(),
			ThreadID:   threadID,
			SenderID:   senderID,
			SenderName: senderName,
			Content:    content,
			Timestamp:  at,
			Sequence:   seq,
		}
		bytes, err := json.Marshal(message)
		if err != nil {
			return fmt.Errorf("marshal message failed: %w", err)
		}
		if err = txn.Set(messageKey(threadID, seq), bytes); err != nil {
			return err
		}
		thread.LastMessage = lo.ToPtr(message.Summary())
		return saveThread(txn, thread)
	})
	if err != nil {
		return domain.Message{}, err
	}
	m.log.Debug("Message appended", "thread_id", threadID, "sequence", message.Sequence)
	return message, nil
}

// ListForThread retrieves the messages of a thread in ascending (timestamp, sequence) order.
// It stops collecting messages once the configured limitMessages is reached.
func (m *MessageRepository) ListForThread(ctx context.Context, threadID domain.ThreadID) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	messages := make([]domain.Message, 0)
	err := m.db.View(func(txn *badger.Txn) error {
		if _, err := loadThread(txn, threadID); err != nil {
			return err
		}
		prefix := messagePrefixFor(threadID)
		options := badger.DefaultIteratorOptions
		// Newest first, so that the limit keeps the tail of the conversation
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(messages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			err := it.Item().Value(func(val []byte) error {
				var message domain.Message
				if err := json.Unmarshal(val, &message); err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(messages)
	return messages, nil
}

// Count returns the number of messages stored for a thread.
func (m *MessageRepository) Count(ctx context.Context, threadID domain.ThreadID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count := 0
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefixFor(threadID)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}
