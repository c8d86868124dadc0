package repositories

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"campus-chat/domain"
	errs "campus-chat/errors"

	"github.com/dgraph-io/badger/v4"
)

// Key layout shared by the stores living in the same Badger instance:
//
//	thread:{id}                      -> Thread (JSON)
//	thread_key:{participant key}     -> thread id
//	member:{user id}:{thread id}     -> empty
//	msg:{thread id}:{sequence %020d} -> Message (JSON)
//	seq:threads                      -> global thread creation counter
//	seq:msg:{thread id}              -> per-thread insertion counter
//	user:{id}                        -> User (JSON)
//	audit:{unix nano %020d}:{id}     -> ModerationRecord (JSON)
const (
	threadPrefix    = "thread:"
	threadKeyPrefix = "thread_key:"
	memberPrefix    = "member:"
	messagePrefix   = "msg:"
	userPrefix      = "user:"
	auditPrefix     = "audit:"
	threadSeqKey    = "seq:threads"
	messageSeqKey   = "seq:msg:"
)

// maxConflictRetries bounds the optimistic retries when two writers race on the same keys.
const maxConflictRetries = 32

func threadKey(id domain.ThreadID) []byte {
	return []byte(threadPrefix + id.String())
}

func participantIndexKey(participantKey string) []byte {
	return []byte(threadKeyPrefix + participantKey)
}

func memberKey(userID string, id domain.ThreadID) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", memberPrefix, userID, id))
}

func memberPrefixFor(userID string) []byte {
	return []byte(memberPrefix + userID + ":")
}

func messageKey(id domain.ThreadID, sequence uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", messagePrefix, id, sequence))
}

func messagePrefixFor(id domain.ThreadID) []byte {
	return []byte(fmt.Sprintf("%s%s:", messagePrefix, id))
}

// update runs fn in a read-write transaction and retries it on commit conflicts.
// Badger detects conflicting writers, so the counters read inside fn
// act as the single point of serialization for concurrent appenders.
func update(ctx context.Context, db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("too many write conflicts: %w", err)
}

// nextSequence increments the counter stored at key and returns the new value, starting at 1.
func nextSequence(txn *badger.Txn, key []byte) (uint64, error) {
	var current uint64
	item, err := txn.Get(key)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return 0, err
	default:
		err = item.Value(func(val []byte) error {
			current = binary.BigEndian.Uint64(val)
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	next := current + 1
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	return next, txn.Set(key, buf)
}

func loadThread(txn *badger.Txn, id domain.ThreadID) (domain.Thread, error) {
	var thread domain.Thread
	item, err := txn.Get(threadKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Thread{}, errs.ErrThreadNotFound
	}
	if err != nil {
		return domain.Thread{}, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &thread)
	})
	return thread, err
}

func saveThread(txn *badger.Txn, thread domain.Thread) error {
	bytes, err := json.Marshal(thread)
	if err != nil {
		return fmt.Errorf("marshal thread failed: %w", err)
	}
	return txn.Set(threadKey(thread.ID), bytes)
}

// threadIDFromMemberKey extracts the thread id of a member key for the given user.
// A remaining ':' means the key belongs to another user whose id shares our prefix.
func threadIDFromMemberKey(key []byte, userID string) (domain.ThreadID, bool) {
	rest := strings.TrimPrefix(string(key), string(memberPrefixFor(userID)))
	if rest == "" || strings.Contains(rest, ":") {
		return "", false
	}
	return domain.ThreadID(rest), true
}
