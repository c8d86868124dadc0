package sink

import (
	"campus-chat/contract"
	"campus-chat/domain"
	"campus-chat/domain/event"
	"campus-chat/repositories"
	"context"
	"fmt"
	"log/slog"
)

var _ contract.EventSink = AuditSink{}

// AuditSink persists moderation decisions. It is a permanent sink.
type AuditSink struct {
	repository repositories.IAuditRepository
	log        *slog.Logger
}

func NewAuditSink(repository repositories.IAuditRepository, log *slog.Logger) AuditSink {
	return AuditSink{repository: repository, log: log}
}

func (a AuditSink) Consume(ctx context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageCensored:
		return a.repository.Record(ctx, toRecord(evt))
	default:
		a.log.Debug(fmt.Sprintf("Not audited event : %v", evt.Type()))
		return nil
	}
}

func toRecord(evt event.MessageCensored) domain.ModerationRecord {
	return domain.ModerationRecord{
		ThreadID: evt.ThreadID,
		SenderID: evt.SenderID,
		Words:    evt.Words,
		Lang:     evt.Lang,
		At:       evt.At,
	}
}
