//go:generate go run go.uber.org/mock/mockgen -source=thread.go -destination=../mocks/mock_thread_repository.go -package=mocks
package repositories

import (
	"campus-chat/contract"
	"campus-chat/domain"
	errs "campus-chat/errors"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

var _ contract.IThreadStore = (*ThreadRepository)(nil)

type IThreadRepository interface {
	contract.IThreadStore
	ListAll(ctx context.Context) ([]domain.Thread, error)
}

type ThreadRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewThreadRepository(db *badger.DB, log *slog.Logger) *ThreadRepository {
	return &ThreadRepository{db: db, log: log}
}

// FindOrCreate returns the thread whose participant set equals participantIDs,
// creating it when none exists. The boolean reports a creation.
// The participant index and the thread record are written in one transaction,
// so a racing caller either sees the whole thread or retries and finds it.
func (r *ThreadRepository) FindOrCreate(ctx context.Context, participantIDs []string, participantNames map[string]string) (domain.ThreadID, bool, error) {
	members := domain.DistinctParticipants(participantIDs)
	if len(members) < 2 {
		return "", false, errs.ErrInvalidParticipants
	}
	participantKey := domain.ParticipantKey(members)

	var (
		id      domain.ThreadID
		created bool
	)
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		created = false
		item, err := txn.Get(participantIndexKey(participantKey))
		switch {
		case err == nil:
			return item.Value(func(val []byte) error {
				id = domain.ThreadID(val)
				return nil
			})
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		seq, err := nextSequence(txn, []byte(threadSeqKey))
		if err != nil {
			return err
		}
		thread := domain.Thread{
			ID:             domain.ThreadID(uuid.NewString()),
			ParticipantIDs: members,
			ParticipantNames: lo.SliceToMap(members, func(m string) (string, string) {
				return m, participantNames[m]
			}),
			CreatedSeq: seq,
			CreatedAt:  time.Now().UTC(),
		}
		if err = saveThread(txn, thread); err != nil {
			return err
		}
		if err = txn.Set(participantIndexKey(participantKey), []byte(thread.ID)); err != nil {
			return err
		}
		for _, m := range members {
			if err = txn.Set(memberKey(m, thread.ID), nil); err != nil {
				return err
			}
		}
		id, created = thread.ID, true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	if created {
		r.log.Debug("Thread created", "thread_id", id, "participants", len(members))
	}
	return id, created, nil
}

// ListForUser returns the threads userID belongs to, most recent activity first.
func (r *ThreadRepository) ListForUser(ctx context.Context, userID string) ([]domain.Thread, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var threads []domain.Thread
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := memberPrefixFor(userID)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		var ids []domain.ThreadID
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if id, ok := threadIDFromMemberKey(it.Item().KeyCopy(nil), userID); ok {
				ids = append(ids, id)
			}
		}
		for _, id := range ids {
			thread, err := loadThread(txn, id)
			if err != nil {
				return fmt.Errorf("thread %s indexed for %s: %w", id, userID, err)
			}
			threads = append(threads, thread)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	domain.SortThreads(threads)
	return threads, nil
}

func (r *ThreadRepository) Get(ctx context.Context, id domain.ThreadID) (domain.Thread, error) {
	if err := ctx.Err(); err != nil {
		return domain.Thread{}, err
	}
	var thread domain.Thread
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		thread, err = loadThread(txn, id)
		return err
	})
	return thread, err
}

// ListAll returns every thread ordered by activity. Used by inspection tooling.
func (r *ThreadRepository) ListAll(ctx context.Context) ([]domain.Thread, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var threads []domain.Thread
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(threadPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var thread domain.Thread
				if err := json.Unmarshal(val, &thread); err != nil {
					return err
				}
				threads = append(threads, thread)
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
	domain.SortThreads(threads)
	return threads, nil
}
