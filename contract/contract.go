//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"campus-chat/domain"
	"campus-chat/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

type IRegistry interface {
	GetSinksFor(participantIDs []string) []EventSink
	Subscribe(participantID string, sink EventSink)
	Unsubscribe(participantID string)
}

// IDirectory is the identity directory. The core only reads from it.
type IDirectory interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id string) (domain.User, error)
}

// IThreadStore exclusively owns threads.
type IThreadStore interface {
	FindOrCreate(ctx context.Context, participantIDs []string, participantNames map[string]string) (domain.ThreadID, bool, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Thread, error)
	Get(ctx context.Context, id domain.ThreadID) (domain.Thread, error)
}

// IMessageLog is the append-only, per-thread ordered message sequence.
type IMessageLog interface {
	Append(ctx context.Context, threadID domain.ThreadID, senderID, senderName, content string) (domain.Message, error)
	ListForThread(ctx context.Context, threadID domain.ThreadID) ([]domain.Message, error)
}

type SignalHandler func(ctx context.Context, signal domain.Signal)

// SignalingChannel delivers call-control events between peers.
// NotifyPeer is fire-and-forget with at-most-once delivery.
type SignalingChannel interface {
	NotifyPeer(ctx context.Context, signal domain.Signal) error
	OnSignal(handler SignalHandler)
}

// EventPublisher hands a domain event over to the fanout without blocking.
type EventPublisher interface {
	Publish(evt event.DomainEvent)
}

// IModerator rewrites forbidden words before content is stored.
type IModerator interface {
	Censor(content string) (string, []string)
	Language(content string) string
}

// ICallEngine is the call session state machine of one local participant.
type ICallEngine interface {
	Owner() domain.Participant
	Initiate(ctx context.Context, peer domain.Participant, kind domain.MediaKind) error
	Accept(ctx context.Context) error
	Decline(ctx context.Context) error
	Hangup(ctx context.Context) error
	Snapshot(ctx context.Context) (domain.CallSnapshot, error)
	OnStateChanged(listener domain.CallListener)
}
