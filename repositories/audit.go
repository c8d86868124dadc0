//go:generate go run go.uber.org/mock/mockgen -source=audit.go -destination=../mocks/mock_audit_repository.go -package=mocks
package repositories

import (
	"campus-chat/domain"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IAuditRepository interface {
	Record(ctx context.Context, record domain.ModerationRecord) error
	List(ctx context.Context) ([]domain.ModerationRecord, error)
}

var _ IAuditRepository = (*AuditRepository)(nil)

type AuditRepository struct {
	db *badger.DB
}

func NewAuditRepository(db *badger.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func auditKey(record domain.ModerationRecord) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", auditPrefix, record.At.UnixNano(), record.ID))
}

// Record assigns an id and a time when the record has none.
func (a *AuditRepository) Record(ctx context.Context, record domain.ModerationRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.At.IsZero() {
		record.At = time.Now().UTC()
	}
	bytes, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal moderation record failed: %w", err)
	}
	return update(ctx, a.db, func(txn *badger.Txn) error {
		return txn.Set(auditKey(record), bytes)
	})
}

// List returns the records oldest first.
func (a *AuditRepository) List(ctx context.Context) ([]domain.ModerationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records := make([]domain.ModerationRecord, 0)
	err := a.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(auditPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record domain.ModerationRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	return records, err
}
